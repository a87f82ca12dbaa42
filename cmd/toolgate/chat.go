package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/bridge"
	"github.com/toolgate/toolgate/internal/cli"
	"github.com/toolgate/toolgate/internal/client"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/mcp"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat that drives tools through the model",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, backend, cleanup, err := buildBridge(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			return cli.Run(ctx, orchestrator, backend)
		},
	}
}

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask PROMPT",
		Short: "Answer a single prompt and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orchestrator, _, cleanup, err := buildBridge(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			answer, err := orchestrator.Answer(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		},
	}
}

// buildBridge wires backend, completer and orchestrator for the CLI paths.
// The in-process dispatcher is only built when the local backend needs it.
func buildBridge(ctx context.Context, cfg *config.Config) (*bridge.Orchestrator, client.Backend, func(), error) {
	var handler *mcp.Handler
	cleanup := func() {}

	if cfg.Bridge.Backend == "local" {
		h, c, err := buildHandler(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		handler, cleanup = h, c
	}

	backend, err := newBackend(ctx, cfg, handler)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	completer, err := newCompleter(cfg)
	if err != nil {
		_ = backend.Close()
		cleanup()
		return nil, nil, nil, err
	}

	orchestrator := newOrchestrator(cfg, backend, completer)
	closeAll := func() {
		_ = backend.Close()
		cleanup()
	}
	return orchestrator, backend, closeAll, nil
}
