package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore/internal/migrations"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Action: withRuntime(false, func(ctx context.Context, _ *cli.Context, rt *services) error {
			if err := migrations.Up(ctx, rt.db); err != nil {
				return err
			}
			rt.logger.Info("migrations applied")
			return nil
		}),
	}
}

func cleanupCommand() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete expired verification and reset tokens",
		Action: withRuntime(true, func(ctx context.Context, c *cli.Context, rt *services) error {
			n, err := rt.engine.CleanupExpiredTokens(ctx)
			if err != nil {
				return err
			}
			rt.logger.Info("expired tokens removed", zap.Int64("count", n))
			_, err = fmt.Fprintf(c.App.Writer, "removed %d expired tokens\n", n)
			return err
		}),
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Probe Postgres and Redis and print a JSON report",
		Action: withRuntime(true, func(ctx context.Context, c *cli.Context, rt *services) error {
			report := rt.engine.Health(ctx)
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Healthy {
				return cli.Exit("unhealthy", 1)
			}
			return nil
		}),
	}
}
