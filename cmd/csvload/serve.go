package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/mapping"
	"github.com/JonMunkholm/csvload/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/loads/{key} for remote triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	m, err := mapping.Load(a.mappingPath)
	if err != nil {
		return err
	}
	slog.Info("mapping loaded", "path", a.mappingPath, "keys", len(m.Entries))

	limiter := core.NewLoadLimiter(a.cfg.Load.MaxConcurrent, a.cfg.Load.MaxWaitTime)
	server := web.NewServer(a.loader(), m, limiter, a.cfg.Server)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...", "active_loads", limiter.ActiveCount())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
