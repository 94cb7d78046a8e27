package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/background"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/metrics"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/remote"
	"github.com/matheus3301/huddle/internal/remote/redisstore"
	"github.com/matheus3301/huddle/internal/remote/rtdb"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
	// Profile overrides profile.toml when set.
	Profile *config.Profile
	// Quiet disables log mirroring to stderr.
	Quiet bool
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideProfile,
			provideLogger,
			provideBus,
			provideRegistry,
			provideMetrics,
			provideLock,
			provideDB,
			provideStore,
			provideDispatcher,
			provideScheduler,
			provideFetchTask,
			provideStoreService,
			NewServer,
			NewMetricsServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideProfile(p Params) (*config.Profile, error) {
	if p.Profile != nil {
		return p.Profile, p.Profile.Validate()
	}
	return config.LoadProfile(session.ProfileConfigPath(p.ProfileName), session.EnvPath(p.ProfileName))
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.ProfileName, "huddled"), p.ProfileName, logging.Options{
		Console: !p.Quiet,
		Level:   zapcore.InfoLevel,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(session.Dir(p.ProfileName), "huddled")
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideDB opens the profile database. It always exists: it backs the hub
// store and keeps background task registrations for every backend.
func provideDB(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.HubDBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", db.Path()))
	return db, nil
}

func provideStore(lc fx.Lifecycle, prof *config.Profile, db *store.DB, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) (remote.Store, error) {
	var s remote.Store
	switch prof.Store.Backend {
	case config.BackendHub:
		s = store.NewHub(db, b, logger)
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rs, err := redisstore.New(ctx, prof.Store.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return rs.Close() }})
		s = rs
	case config.BackendRTDB:
		rs, err := rtdb.New(rtdb.Config{URL: prof.Store.RTDBURL, Auth: prof.Store.RTDBAuth}, logger)
		if err != nil {
			return nil, err
		}
		s = rs
	default:
		return nil, fmt.Errorf("unknown store backend %q", prof.Store.Backend)
	}
	logger.Info("store backend", zap.String("backend", prof.Store.Backend))
	return m.InstrumentStore(s), nil
}

func provideDispatcher(prof *config.Profile, b *bus.Bus, logger *zap.Logger) (notify.Dispatcher, error) {
	return notify.FromConfig(prof.Notifications, b, logger)
}

func provideScheduler(prof *config.Profile, db *store.DB, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *background.CronScheduler {
	return background.NewCronScheduler(background.CronConfig{
		Registry: db,
		Floor:    config.MinBackgroundInterval,
		Timeout:  prof.Background.Timeout,
		Bus:      b,
		Logger:   logger,
		Metrics:  m,
	})
}

func provideFetchTask(s remote.Store, d notify.Dispatcher, m *metrics.Metrics, logger *zap.Logger) *background.FetchTask {
	return background.NewFetchTask(s, d, logger, m)
}

func provideStoreService(p Params, prof *config.Profile, s remote.Store, sched *background.CronScheduler, b *bus.Bus, logger *zap.Logger) *api.StoreService {
	started := time.Now()
	return api.NewStoreService(s, func(ctx context.Context) map[string]any {
		st := map[string]any{
			"profile":               p.ProfileName,
			"backend":               prof.Store.Backend,
			"pid":                   os.Getpid(),
			"uptime_seconds":        int64(time.Since(started).Seconds()),
			"background_registered": sched.Registered(background.TaskID),
			"bus_dropped":           float64(b.Dropped()),
		}
		if snap, err := s.Fetch(ctx); err == nil {
			st["messages"] = snap.Len()
		} else {
			st["store_error"] = err.Error()
		}
		return st
	}, logger)
}

func registerLifecycle(lc fx.Lifecycle, prof *config.Profile, srv *Server, ms *MetricsServer, lk *lock.Lock, db *store.DB, sched *background.CronScheduler, task *background.FetchTask, d notify.Dispatcher, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			notify.EnsurePermission(ctx, d, logger)

			sched.Define(background.TaskID, task.Func())
			restored, err := sched.Restore(ctx)
			if err != nil {
				logger.Warn("restore background tasks", zap.Error(err))
			}
			if len(restored) > 0 {
				logger.Info("background tasks restored", zap.Strings("tasks", restored))
			}
			if prof.Background.Enabled {
				if err := sched.Register(ctx, background.TaskID, background.OptionsFrom(prof.Background)); err != nil {
					return err
				}
			} else if err := sched.Unregister(ctx, background.TaskID); err != nil {
				logger.Warn("unregister background task", zap.Error(err))
			}
			sched.Start()

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			ms.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			ms.Stop(ctx)
			sched.Stop(ctx)
			var errs []error
			if err := db.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close db: %w", err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return errors.Join(errs...)
		},
	})
}
