package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/confloader"
	"github.com/MrEthical07/authcore/internal/logging"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "authcore",
		Usage:   "session and token authentication service",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"AUTHCORE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			cleanupCommand(),
			healthCommand(),
		},
	}
}

// services holds what every command needs. close releases it in reverse
// order of acquisition.
type services struct {
	settings confloader.Settings
	logger   *zap.Logger
	db       *sql.DB
	engine   *authcore.Engine
}

func loadSettings(c *cli.Context) (confloader.Settings, error) {
	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	return confloader.Load(opts...)
}

// setup loads settings, the logger and the database. withEngine also builds
// the engine.
func setup(c *cli.Context, withEngine bool) (*services, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(settings.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := sql.Open("pgx", settings.DatabaseURL)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	rt := &services{settings: settings, logger: logger, db: db}
	if !withEngine {
		return rt, nil
	}

	rt.engine, err = authcore.New().
		WithConfig(settings.Auth).
		WithDB(db).
		WithRedisURL(settings.RedisURL, settings.RedisPassword).
		WithLogger(logger).
		Build()
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return rt, nil
}

func (rt *services) close() {
	if rt.engine != nil {
		rt.engine.Close()
	}
	if rt.db != nil {
		_ = rt.db.Close()
	}
	_ = rt.logger.Sync()
}

func withRuntime(withEngine bool, fn func(ctx context.Context, c *cli.Context, rt *services) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := setup(c, withEngine)
		if err != nil {
			return err
		}
		defer rt.close()
		return fn(c.Context, c, rt)
	}
}
