package app

import (
	"humancron/internal/config"
	"humancron/internal/httpd"
	"humancron/internal/janitor"
	"humancron/internal/notifier"
	"humancron/internal/scheduler"
	"humancron/internal/storage"
	"humancron/pkg/logx"
)

func openStore(cfg *config.Config, logs *logx.Service) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, logs.Logger().With(logx.String("comp", "storage")))
}

func serverConfig(cfg config.ServerConfig) (httpd.Config, error) {
	read, err := config.ParseDurationField("server.read_timeout", cfg.ReadTimeout)
	if err != nil {
		return httpd.Config{}, err
	}
	write, err := config.ParseDurationField("server.write_timeout", cfg.WriteTimeout)
	if err != nil {
		return httpd.Config{}, err
	}
	idle, err := config.ParseDurationField("server.idle_timeout", cfg.IdleTimeout)
	if err != nil {
		return httpd.Config{}, err
	}
	return httpd.Config{
		Addr:         cfg.Addr,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}, nil
}

func buildNotifier(cfg *config.Config, logs *logx.Service) (firingSink, error) {
	if cfg.Notifier == nil || cfg.Notifier.Telegram == nil || !cfg.Notifier.Telegram.Enabled {
		return nil, nil
	}
	tg := cfg.Notifier.Telegram
	return notifier.NewTelegram(notifier.TelegramConfig{
		Token:      tg.Token,
		ChatID:     tg.ChatID,
		RatePerSec: tg.RatePerSec,
	}, logs.Logger().With(logx.String("comp", "notifier")))
}

func buildJanitor(cfg *config.Config, sched *scheduler.Scheduler, logs *logx.Service) (*janitor.Service, error) {
	if cfg.Janitor == nil || !cfg.Janitor.Enabled {
		return nil, nil
	}
	retention, err := config.ParseDurationField("janitor.retention", cfg.Janitor.Retention)
	if err != nil {
		return nil, err
	}
	return janitor.New(janitor.Config{
		Spec:      cfg.Janitor.Spec,
		Retention: retention,
	}, sched, logs.Logger().With(logx.String("comp", "janitor")))
}
