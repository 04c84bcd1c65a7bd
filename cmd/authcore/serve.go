package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/httpapi"
	"github.com/MrEthical07/authcore/internal/migrations"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the authentication API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "apply pending migrations before serving",
			},
			&cli.DurationFlag{
				Name:  "cleanup-interval",
				Usage: "period of expired-token cleanup, 0 disables it",
				Value: time.Hour,
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "grace period for in-flight requests",
				Value: 15 * time.Second,
			},
		},
		Action: withRuntime(true, serve),
	}
}

func serve(ctx context.Context, c *cli.Context, rt *services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if c.Bool("migrate") {
		if err := migrations.Up(ctx, rt.db); err != nil {
			return err
		}
		rt.logger.Info("migrations applied")
	}

	rt.logger.Info("security posture", zap.Any("report", rt.engine.SecurityReport()))

	metrics, err := promexport.Handler(rt.engine)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: rt.settings.Listen,
		Handler: httpapi.New(httpapi.Config{
			Auth:         rt.engine,
			Logger:       rt.logger,
			SecureCookie: rt.settings.SecureCookies,
			Metrics:      metrics,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if every := c.Duration("cleanup-interval"); every > 0 {
		go runCleanup(ctx, rt, every)
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	rt.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runCleanup(ctx context.Context, rt *services, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := rt.engine.CleanupExpiredTokens(ctx)
			if err != nil {
				rt.logger.Warn("token cleanup failed", zap.Error(err))
				continue
			}
			rt.logger.Info("expired tokens removed", zap.Int64("count", n))
		}
	}
}
