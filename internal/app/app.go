// Package app wires configuration, storage, the booking domain and the
// Telegram transport into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/rentbot/core/bootstrap"
	"github.com/m3rciful/rentbot/core/logger"
	tg "github.com/m3rciful/rentbot/core/telegram"
	"github.com/m3rciful/rentbot/core/telegram/router"
	"github.com/m3rciful/rentbot/core/telegram/ui"
	"github.com/m3rciful/rentbot/internal/booking"
	"github.com/m3rciful/rentbot/internal/config"
	"github.com/m3rciful/rentbot/internal/conversation"
	"github.com/m3rciful/rentbot/internal/ops"
	"github.com/m3rciful/rentbot/internal/storage/memory"
	"github.com/m3rciful/rentbot/internal/storage/postgres"
	"github.com/m3rciful/rentbot/internal/telegram"
	"github.com/m3rciful/rentbot/migrations"
)

const componentApp = "app"

type userStore interface {
	booking.UserStore
	ops.UserLister
}

// App holds the wired application graph.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	store     userStore
	registry  *booking.Registry
	broadcast *booking.Broadcaster
	service   *booking.Service
	scheduler *booking.Scheduler
	machine   *conversation.Machine
	adapter   *telegram.Adapter

	opsMu     sync.Mutex
	opsCancel context.CancelFunc
	opsDone   chan error
}

// Bootstrap initializes the logger and the optional database, then wires the app.
func Bootstrap(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB)
}

// New wires the domain on top of db. A nil db selects the in-memory user store.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	a := &App{cfg: cfg, db: db}

	if db != nil {
		a.store = postgres.NewUserStore(db)
	} else {
		a.store = memory.NewUserStore()
		logger.Warn(context.Background(), componentApp, "store.memory",
			slog.String("cause", "no_database"),
		)
	}

	a.registry = booking.NewRegistry(a.store, cfg.Admins())
	a.broadcast = booking.NewBroadcaster(a.registry, nil)
	svc, err := booking.NewService(booking.Config{
		Slots:     cfg.Booking.Slots(),
		MaxPerDay: cfg.Booking.MaxPerDay,
	}, a.registry, a.broadcast)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.service = svc
	a.scheduler = booking.NewScheduler(svc, cfg.Booking.Period())
	a.machine = conversation.New(svc, a.scheduler, cfg.Booking.Greeting)
	a.adapter = telegram.New(a.machine, a.registry, cfg.Telegram.IsAdmin)
	a.broadcast.SetNotifier(a.adapter)
	return a, nil
}

// TelegramRunOptions assembles routes, middlewares and lifecycle hooks for the bot runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.adapter.Register(reg); err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin:       a.adapter.IsAdmin,
		OnAdminReject: a.adapter.RejectAdmin,
	})
	routes = append(routes, router.TextRoutes(a.adapter, reg, textOptions(a.adapter))...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{
		NotFound: a.adapter.UnknownCallback(),
	}))

	return tg.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg.CoreConfig(), a.adapter.OnLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func textOptions(p ui.FallbackProvider) router.TextOptions {
	return router.TextOptions{
		UnknownText:     p.UnknownText(),
		UnknownDocument: p.UnknownDocument(),
	}
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if rt.Bot == nil {
		return fmt.Errorf("app: runtime has no bot")
	}
	a.adapter.Attach(rt.Bot)

	if a.cfg.Booking.AutoLaunch {
		a.scheduler.Launch(ctx)
	}
	if listen := a.cfg.Ops.Listen; listen != "" {
		a.startOps(ctx, listen)
	}
	logger.Info(ctx, componentApp, "wired",
		slog.Bool("launched", a.scheduler.Launched()),
		slog.Int("slots", len(a.service.Table().Labels())),
		slog.Int("max_per_day", a.service.MaxPerDay()),
		slog.Duration("period", a.cfg.Booking.Period()),
	)
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	a.scheduler.Halt(ctx)

	var errs []error
	if err := a.stopOps(); err != nil {
		errs = append(errs, fmt.Errorf("ops server: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) startOps(parent context.Context, listen string) {
	a.opsMu.Lock()
	defer a.opsMu.Unlock()
	if a.opsCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan error, 1)
	a.opsCancel = cancel
	a.opsDone = done

	h := ops.NewRouter(ops.Deps{
		Booking: a.service,
		Switch:  a.scheduler,
		Users:   a.store,
	})
	go func() {
		err := ops.Serve(ctx, listen, h)
		if err != nil {
			logger.Error(ctx, componentApp, "ops.fail", slog.String("err", err.Error()))
		}
		done <- err
	}()
}

func (a *App) stopOps() error {
	a.opsMu.Lock()
	cancel, done := a.opsCancel, a.opsDone
	a.opsCancel, a.opsDone = nil, nil
	a.opsMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}
