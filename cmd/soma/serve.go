package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/somahq/soma/internal/http/server"
	"github.com/somahq/soma/internal/observability/logger"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli) error {
	log := logger.L().With(logger.Component("serve"))

	app, err := server.Build(ctx, c.cfg, server.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("cleanup error", logger.Err(err))
		}
	}()

	ln, err := net.Listen("tcp", c.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", c.cfg.Server.Addr, err)
	}

	log.Info("soma ready",
		logger.String("env", c.cfg.App.Env),
		logger.String("addr", ln.Addr().String()),
		logger.String("store", c.cfg.Storage.Driver),
	)
	return server.Run(ctx, server.New(c.cfg, app.Handler), ln, c.cfg.Server.ShutdownTimeout)
}
