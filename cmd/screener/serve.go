package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	servePort     int
	serveNoWarm   bool
	sweepInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the candidate interview and organization review endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveNoWarm, "no-warm", false, "Skip resolving model metadata at startup")
	serveCmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 5*time.Minute, "How often expired sessions are removed")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort > 0 {
		a.cfg.Server.Port = servePort
	}

	if a.model != nil && !serveNoWarm {
		if err := a.model.Warm(ctx); err != nil {
			a.logger.Warn("model warm-up failed, first requests may be slow", zap.Error(err))
		}
	}

	svc, sessions, err := a.interviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to build interview service: %w", err)
	}
	sessions.StartJanitor(sweepInterval, func(removed int) {
		if removed > 0 {
			a.logger.Info("expired sessions removed", zap.Int("count", removed))
		}
	})
	defer sessions.Stop()

	srv, err := a.server(svc)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	a.logger.Info("interview api listening",
		zap.String("addr", a.cfg.Address()),
		zap.Duration("session_ttl", sessions.TTL()))

	return srv.Start(ctx)
}
