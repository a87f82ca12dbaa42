package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/client"
	"github.com/toolgate/toolgate/internal/config"
)

func newCallCmd() *cobra.Command {
	var (
		url       string
		serverCmd string
		socket    string
		list      bool
	)

	cmd := &cobra.Command{
		Use:   "call [TOOL [JSON-ARGS]]",
		Short: "Call one tool directly and print the result",
		Long: `Call a tool without involving the model. With no arguments, or with
--list, the tool catalog is printed instead. By default tools run in-process;
--url, --server-cmd and --socket select a remote server.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, cleanup, err := callBackend(ctx, cfg, url, serverCmd, socket)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := backend.Initialize(ctx); err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			if list || len(args) == 0 {
				catalog, err := backend.ListTools(ctx)
				if err != nil {
					return err
				}
				for _, t := range catalog {
					fmt.Printf("%-12s %s\n", t.Name, t.Description)
				}
				return nil
			}

			toolArgs := map[string]interface{}{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("parse arguments: %w", err)
				}
			}

			result, err := backend.CallTool(ctx, args[0], toolArgs)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "call a remote server at this /mcp endpoint")
	cmd.Flags().StringVar(&serverCmd, "server-cmd", "", "spawn this command and talk over stdio")
	cmd.Flags().StringVar(&socket, "socket", "", "connect to a unix socket server")
	cmd.Flags().BoolVar(&list, "list", false, "list available tools")
	return cmd
}

func callBackend(ctx context.Context, cfg *config.Config, url, serverCmd, socket string) (client.Backend, func(), error) {
	switch {
	case url != "":
		backend := client.NewHTTP(url, 0)
		return backend, func() { _ = backend.Close() }, nil

	case serverCmd != "":
		parts := strings.Fields(serverCmd)
		if len(parts) == 0 {
			return nil, nil, fmt.Errorf("empty --server-cmd")
		}
		backend, err := client.NewStdio(ctx, parts[0], parts[1:]...)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() { _ = backend.Close() }, nil

	case socket != "":
		backend, err := client.Dial(ctx, socket)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() { _ = backend.Close() }, nil

	default:
		// One-shot in-process call: the change watcher has nothing to do.
		cfg.Resources.Watch = false
		handler, cleanup, err := buildHandler(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return client.NewLocal(handler), cleanup, nil
	}
}
