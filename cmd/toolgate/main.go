package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/bridge"
	"github.com/toolgate/toolgate/internal/client"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/llm"
	"github.com/toolgate/toolgate/internal/logger"
	"github.com/toolgate/toolgate/internal/mcp"
	"github.com/toolgate/toolgate/internal/resources"
	"github.com/toolgate/toolgate/internal/tools"
	"github.com/toolgate/toolgate/internal/tools/basic"
	"github.com/toolgate/toolgate/pkg/version"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "toolgate",
		Short: "JSON-RPC tool server with an LLM bridge",
		Long: `toolgate serves a small tool catalog over JSON-RPC 2.0, on HTTP,
stdio or a unix socket, and can bridge natural-language prompts to those
tools through an LLM provider.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	root.AddCommand(
		newServeCmd(),
		newStdioCmd(),
		newChatCmd(),
		newAskCmd(),
		newCallCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%s %s (protocol %s)\n", version.ServerName, version.Version, version.ProtocolVersion)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

// buildHandler assembles the registry, the optional resource store, and the
// dispatcher. The returned cleanup stops the change watcher.
func buildHandler(ctx context.Context, cfg *config.Config) (*mcp.Handler, func(), error) {
	registry := tools.NewRegistry()
	if err := basic.RegisterAll(registry); err != nil {
		return nil, nil, fmt.Errorf("register tools: %w", err)
	}

	handlerCfg := mcp.HandlerConfig{
		Registry:    registry,
		ToolTimeout: time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
	}

	cleanup := func() {}
	if cfg.Resources.Root != "" {
		store, err := resources.NewStore(resources.Config{
			Root:       cfg.Resources.Root,
			Include:    cfg.Resources.Include,
			Ignore:     cfg.Resources.Ignore,
			MaxEntries: cfg.Resources.MaxEntries,
		})
		if err != nil {
			return nil, nil, err
		}
		handlerCfg.Resources = store

		if cfg.Resources.Watch {
			watcher, err := resources.NewWatcher(store, resources.DefaultDebounceWindow)
			if err != nil {
				return nil, nil, fmt.Errorf("init watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return nil, nil, fmt.Errorf("start watcher: %w", err)
			}
			cleanup = func() { _ = watcher.Stop() }
		}
	}

	return mcp.NewHandler(handlerCfg), cleanup, nil
}

// newBackend picks the tool-server transport the bridge talks to. The local
// backend shares the given in-process dispatcher.
func newBackend(ctx context.Context, cfg *config.Config, handler *mcp.Handler) (client.Backend, error) {
	switch cfg.Bridge.Backend {
	case "http":
		return client.NewHTTP(cfg.Bridge.MCPURL, 0), nil
	case "stdio":
		parts := strings.Fields(cfg.Bridge.ServerCommand)
		if len(parts) == 0 {
			return nil, fmt.Errorf("bridge.server_command is required for the stdio backend")
		}
		return client.NewStdio(ctx, parts[0], parts[1:]...)
	case "socket":
		if cfg.Bridge.SocketPath == "" {
			return nil, fmt.Errorf("bridge.socket_path is required for the socket backend")
		}
		return client.Dial(ctx, cfg.Bridge.SocketPath)
	default:
		return client.NewLocal(handler), nil
	}
}

func newCompleter(cfg *config.Config) (llm.Completer, error) {
	return llm.New(cfg.LLM.Provider,
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.BaseURL),
	)
}

func newOrchestrator(cfg *config.Config, backend client.Backend, completer llm.Completer) *bridge.Orchestrator {
	return bridge.New(backend, completer,
		bridge.WithMaxRounds(cfg.Bridge.MaxRounds),
		bridge.WithSystemPrompt(cfg.Bridge.SystemPrompt),
		bridge.WithCompletionTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
		bridge.WithMaxAttempts(cfg.LLM.MaxRetries+1),
	)
}
