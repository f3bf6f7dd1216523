// Package bootstrap brings up the infrastructure a bot needs before any
// update is handled: the logger first, then the database schema and pool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/rentbot/core/config"
	coredatabase "github.com/m3rciful/rentbot/core/database"
	"github.com/m3rciful/rentbot/core/logger"
)

const componentBoot = "boot"

// Options configure Run. The function fields replace the default step and
// exist for tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds the *.up.sql/*.down.sql files applied before connecting.
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result carries what Run brought up. DB is nil when no database host is set.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger and, when Database.Host is set, migrates the
// schema and opens the pool.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	if opts.LoggerInit == nil {
		opts.LoggerInit = logger.InitLogger
	}
	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	ctx := context.Background()
	if strings.TrimSpace(opts.Database.Host) == "" {
		logger.Info(ctx, componentBoot, "db.skip",
			slog.String("status", "skip"),
			slog.String("cause", "no_host"),
		)
		return &Result{}, nil
	}

	migrate, err := opts.migrateStep()
	if err != nil {
		return nil, err
	}
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}

	start := time.Now()
	if err := migrate(opts.Database); err != nil {
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	logger.Info(ctx, componentBoot, "db.ready", slog.Duration("duration", logger.Took(start)))
	return &Result{DB: db}, nil
}

func (o Options) migrateStep() (func(coredatabase.Config) error, error) {
	switch {
	case o.Migrate != nil:
		return o.Migrate, nil
	case o.Migrations != nil:
		return func(cfg coredatabase.Config) error {
			return coredatabase.RunMigrations(cfg, o.Migrations)
		}, nil
	}
	return nil, errors.New("bootstrap: database configured without migrations")
}
