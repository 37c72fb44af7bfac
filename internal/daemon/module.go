// Package daemon composes the restaurant daemon: one workspace, one lock,
// one store, one API socket. Wiring follows fx providers plus a single
// lifecycle hook.
package daemon

import (
	"context"
	"os"

	"github.com/pedeai/pedeai/internal/api"
	"github.com/pedeai/pedeai/internal/bus"
	"github.com/pedeai/pedeai/internal/chats"
	"github.com/pedeai/pedeai/internal/config"
	"github.com/pedeai/pedeai/internal/events"
	"github.com/pedeai/pedeai/internal/gateway"
	"github.com/pedeai/pedeai/internal/health"
	"github.com/pedeai/pedeai/internal/lock"
	"github.com/pedeai/pedeai/internal/logging"
	"github.com/pedeai/pedeai/internal/orders"
	"github.com/pedeai/pedeai/internal/receipt"
	"github.com/pedeai/pedeai/internal/roster"
	"github.com/pedeai/pedeai/internal/store"
	"github.com/pedeai/pedeai/internal/workspace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved workspace identity passed to the fx module.
type Params struct {
	RestaurantSlug string
	SocketPath     string // optional override for testing; empty = use workspace default
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideHealth,
			provideLock,
			provideStore,
			provideGateway,
			provideRoster,
			provideOrders,
			provideChats,
			provideSpooler,
			provideMirror,
			provideHandler,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(workspace.LogPath(p.RestaurantSlug), p.RestaurantSlug)
}

// provideConfig loads the workspace config, falling back to defaults when the
// file does not exist yet. Empty paths are filled from the workspace layout so
// config.toml only needs the values that differ.
func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	path := workspace.ConfigPath(p.RestaurantSlug)
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		logger.Info("no config file, using defaults", zap.String("path", path))
		cfg = &config.Config{}
		cfg.Store.Driver = "sqlite3"
		err = nil
	}
	if err != nil {
		return nil, err
	}

	if cfg.Restaurant.ID == "" {
		cfg.Restaurant.ID = p.RestaurantSlug
	}
	if cfg.Store.Driver == "sqlite3" && cfg.Store.DSN == "" {
		cfg.Store.DSN = workspace.DBPath(p.RestaurantSlug)
	}
	if cfg.Printer.SpoolDir == "" {
		cfg.Printer.SpoolDir = workspace.SpoolDir(p.RestaurantSlug)
	}
	if cfg.API.SocketPath == "" {
		cfg.API.SocketPath = workspace.SocketPath(p.RestaurantSlug)
	}
	if p.SocketPath != "" {
		cfg.API.SocketPath = p.SocketPath
	}

	if err := cfg.ValidateGateway(); err != nil {
		// Roster and orders work without a gateway; conversations will
		// degrade until credentials are configured.
		logger.Warn("gateway not configured", zap.Error(err))
	}
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideHealth(b *bus.Bus) *health.Machine {
	return health.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := workspace.EnsureDir(p.RestaurantSlug); err != nil {
		return nil, err
	}
	logger.Info("acquiring workspace lock", zap.String("restaurant", p.RestaurantSlug))
	l, err := lock.Acquire(workspace.Dir(p.RestaurantSlug))
	if err != nil {
		return nil, err
	}
	logger.Info("workspace lock acquired")
	return l, nil
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized",
		zap.String("driver", cfg.Store.Driver))
	return db, nil
}

func provideGateway(cfg *config.Config, logger *zap.Logger) *gateway.Client {
	return gateway.NewClient(cfg.Gateway, logger)
}

func provideRoster(db *store.DB, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *roster.Service {
	return roster.NewService(db, b, cfg.Restaurant.ID, logger)
}

func provideOrders(db *store.DB, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *orders.Service {
	return orders.NewService(db, b, cfg.Restaurant.ID, logger)
}

func provideChats(gw *gateway.Client, r *roster.Service, b *bus.Bus, logger *zap.Logger) *chats.Service {
	return chats.NewService(gw, r, b, logger)
}

func provideSpooler(db *store.DB, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *receipt.Spooler {
	return receipt.NewSpooler(db, b, cfg.Printer, cfg.Restaurant.Name, logger)
}

// provideMirror connects the optional NATS event mirror. No URL or a failed
// connection means the daemon runs with in-process notifications only; it is
// never a startup failure.
func provideMirror(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *events.Mirror {
	if cfg.Events.NATSURL == "" {
		return nil
	}
	m, err := events.NewMirror(cfg.Events.NATSURL, cfg.Restaurant.ID, b, logger)
	if err != nil {
		logger.Warn("event mirror disabled", zap.Error(err))
		return nil
	}
	logger.Info("event mirror connected", zap.String("url", cfg.Events.NATSURL))
	return m
}

func provideHandler(c *chats.Service, r *roster.Service, o *orders.Service, sp *receipt.Spooler, h *health.Machine, logger *zap.Logger) *api.Handler {
	return api.NewHandler(c, r, o, sp, h, logger)
}

func provideServer(cfg *config.Config, h *api.Handler, logger *zap.Logger) (*api.Server, error) {
	return api.NewServer(cfg.API.SocketPath, h.Router(), logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *api.Server, lk *lock.Lock, spooler *receipt.Spooler, mirror *events.Mirror, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("api server error", zap.Error(err))
				}
			}()

			spooler.Start(context.Background())

			if mirror != nil {
				mirror.Start(context.Background())
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if mirror != nil {
				mirror.Stop()
			}
			spooler.Stop()
			srv.Stop(ctx)
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
