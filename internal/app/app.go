// Package app wires configuration, logging, storage, the scheduler and its
// outer surfaces into one lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"humancron/internal/config"
	"humancron/internal/eventbus"
	"humancron/internal/httpd"
	"humancron/internal/janitor"
	"humancron/internal/metrics"
	"humancron/internal/scheduler"
	"humancron/internal/storage"
	"humancron/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	met   *metrics.Metrics
	bus   eventbus.Bus
	store storage.Store
	sched *scheduler.Scheduler
	http  *httpd.Server
	notif firingSink
	jan   *janitor.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// firingSink is the optional out-of-process notification sink.
type firingSink interface {
	Start(ctx context.Context, bus eventbus.Bus)
	Stop()
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	met := metrics.New()
	bus := eventbus.New()

	store, err := openStore(cfg, logSvc)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	tick, err := config.ParseDurationOrDefault("scheduler.tick", cfg.Scheduler.Tick, 500*time.Millisecond)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	sched := scheduler.New(scheduler.Config{Tick: tick}, store, bus, met,
		logSvc.Logger().With(logx.String("comp", "scheduler")))

	httpCfg, err := serverConfig(cfg.Server)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	httpSrv := httpd.New(httpCfg, sched, bus, met,
		logSvc.Logger().With(logx.String("comp", "http")))

	notif, err := buildNotifier(cfg, logSvc)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	jan, err := buildJanitor(cfg, sched, logSvc)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	return &App{
		cfgm:  cfgm,
		log:   log,
		logs:  logSvc,
		met:   met,
		bus:   bus,
		store: store,
		sched: sched,
		http:  httpSrv,
		notif: notif,
		jan:   jan,
	}, nil
}

// Scheduler exposes the task store, mainly for tests and embedding.
func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

func (a *App) Start(ctx context.Context) error {
	if err := a.sched.Init(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.sched.Start(runCtx)

	serveErr, err := a.http.Start()
	if err != nil {
		cancel()
		return fmt.Errorf("http listen: %w", err)
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err, ok := <-serveErr; ok && err != nil {
			a.log.Error("http server failed", logx.Err(err))
		}
	}()

	if a.notif != nil {
		a.notif.Start(runCtx, a.bus)
	}
	if a.jan != nil {
		a.jan.Start()
	}

	// Config hot reload: log level/sinks and the tick interval follow the
	// file; everything else needs a restart.
	sub := a.cfgm.Subscribe(4)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(cfg)
			}
		}
	}()
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	a.log.Info("started")
	return nil
}

func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.logs.Apply(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	tick, err := config.ParseDurationOrDefault("scheduler.tick", cfg.Scheduler.Tick, 500*time.Millisecond)
	if err != nil {
		a.log.Warn("config reload: bad scheduler.tick, keeping current", logx.Err(err))
		return
	}
	a.sched.Apply(scheduler.Config{Tick: tick})
}

// Stop shuts components down in dependency order: scheduler first so no
// more firings are produced, then the surfaces that consume them.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	a.sched.Stop()
	if a.jan != nil {
		a.jan.Stop(ctx)
	}
	if a.http != nil {
		if err := a.http.Shutdown(ctx); err != nil {
			a.log.Warn("http shutdown", logx.Err(err))
		}
	}
	if a.notif != nil {
		a.notif.Stop()
	}
	a.wg.Wait()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close", logx.Err(err))
		}
	}
	a.log.Info("stopped")
	return a.logs.Close()
}
