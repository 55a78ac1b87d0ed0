package main

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/internal/config"
	"github.com/yegors/flightboard/internal/metrics"
	"github.com/yegors/flightboard/internal/notify"
	"github.com/yegors/flightboard/internal/storage/sqlite"
	"github.com/yegors/flightboard/pkg/logger"
)

// app holds the components shared by every subcommand
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	registry *airport.Registry
	history  *sqlite.HistoryStorage
	promReg  *prometheus.Registry
	db       *sql.DB
}

// newApp builds the registry with its history and metrics hooks. Notices go
// to the sink returned by newSink.
func newApp(cfg *config.Config, logOut io.Writer, newSink func(*logger.Logger) notify.Sink) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	var hooks []airport.Hooks

	if cfg.Metrics.Enabled {
		a.promReg = prometheus.NewRegistry()
		m, err := metrics.New(a.promReg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = append(hooks, m.Hooks())
	}

	if cfg.Storage.Enabled {
		a.db, err = sqlite.Open(cfg.Storage.HistoryPath)
		if err != nil {
			return nil, err
		}
		a.history, err = sqlite.NewHistoryStorage(a.db, log)
		if err != nil {
			a.db.Close()
			return nil, err
		}
		hooks = append(hooks, a.history.Hooks())
	}

	a.registry = airport.New(newSink(log), log, airport.WithHooks(airport.ChainHooks(hooks...)))

	log.Info("Flight board ready",
		logger.Bool("metrics", cfg.Metrics.Enabled),
		logger.Bool("history", cfg.Storage.Enabled),
		logger.String("history_path", cfg.Storage.HistoryPath))
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close history database", logger.Error(err))
		}
	}
	_ = a.logger.Sync()
}
