package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/mcp"
)

func newStdioCmd() *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve the tool protocol on stdin/stdout",
		Long: `Serve newline-delimited JSON-RPC on stdin/stdout, the transport
embedding clients spawn. Logs go to stderr so stdout carries only protocol
frames. With --socket the same protocol is served on a unix socket instead.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := buildHandler(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := mcp.NewServer(handler)

			if socketPath != "" {
				sock := mcp.NewSocketServer(srv, socketPath)
				if err := sock.Start(); err != nil {
					return err
				}
				<-ctx.Done()
				sock.Shutdown()
				return nil
			}

			return srv.ProcessStream(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&socketPath, "socket", "", "serve on a unix socket instead of stdio")
	return cmd
}
