package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/toolgate/toolgate/internal/bridge"
	"github.com/toolgate/toolgate/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		addr          string
		resourcesRoot string
		withBridge    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool API over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if resourcesRoot != "" {
				cfg.Resources.Root = resourcesRoot
			}
			if withBridge {
				cfg.Bridge.Enabled = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := buildHandler(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			var chat http.Handler
			if cfg.Bridge.Enabled {
				backend, err := newBackend(ctx, cfg, handler)
				if err != nil {
					return err
				}
				defer backend.Close()

				completer, err := newCompleter(cfg)
				if err != nil {
					return err
				}

				chatHandler := bridge.NewHandler(newOrchestrator(cfg, backend, completer))
				chatHandler.SetTimeout(time.Duration(cfg.Bridge.RequestTimeoutSeconds) * time.Second)
				chat = chatHandler
			}

			srv := server.New(server.Config{
				Addr:    cfg.Server.Addr,
				Handler: handler,
				Chat:    chat,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (host:port)")
	cmd.Flags().StringVar(&resourcesRoot, "resources-root", "", "directory served as resources")
	cmd.Flags().BoolVar(&withBridge, "with-bridge", false, "mount the /chat bridge endpoint")
	return cmd
}
