// Package app wires configuration, stores and services for the commands.
package app

import (
	"context"
	"time"

	"github.com/monster-tracker/internal/adapter"
	"github.com/monster-tracker/internal/api"
	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/service"
	"github.com/monster-tracker/internal/storage"
)

// App holds the services built from one configuration. Services and
// database connections are created on first use; Close releases them.
type App struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Registry

	files   storage.FileStore
	cache   *storage.SnapshotCache
	reports *service.ReportService
	refresh *service.RefreshService
	archive *service.ArchiveService

	closers []func()
}

// NewLogger builds the global logger from the logging section
func NewLogger(cfg config.LoggingConfig) *logging.Logger {
	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Level), logging.ParseLogFormat(cfg.Format))
	return logging.GetGlobalLogger()
}

// New creates an App. logger may be nil to use the global logger.
func New(cfg *config.Config, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewRegistry(),
	}
}

// Reports returns the report service over the local snapshot files. The
// file paths are read from Config on first use. Decoded files are cached
// until they change on disk.
func (a *App) Reports() *service.ReportService {
	if a.reports == nil {
		a.cache = storage.NewSnapshotCache(a.files, a.Metrics)
		a.reports = service.NewReportService(a.cache, a.Config.Files, a.Metrics)
	}
	return a.reports
}

// Refresh returns the refresh service. The Redis response cache is used
// when REDIS_HOST is set and reachable; otherwise every call goes to
// Metamob.
func (a *App) Refresh(ctx context.Context) *service.RefreshService {
	if a.refresh != nil {
		return a.refresh
	}

	client := adapter.NewMetamobClient(&a.Config.Metamob, adapter.WithMetrics(a.Metrics))

	var cache service.ResponseCache
	if a.Config.Database.Redis.Host != "" {
		redis, err := storage.NewRedisCache(ctx, &a.Config.Database.Redis)
		if err != nil {
			a.Logger.WithError(err).Warn("Redis unavailable, refreshing without response cache")
		} else {
			a.closers = append(a.closers, func() { _ = redis.Close() })
			cache = storage.NewCacheService(redis, a.Config.Cache.TTL)
		}
	}

	a.refresh = service.NewRefreshService(client, cache, a.files, a.Config.Files, a.Metrics)
	return a.refresh
}

// Archive connects to Postgres and, when reachable, ClickHouse and returns
// the archive service. A Postgres failure is returned; without ClickHouse
// snapshots are archived without count history.
func (a *App) Archive(ctx context.Context) (*service.ArchiveService, error) {
	if a.archive != nil {
		return a.archive, nil
	}

	postgres, err := storage.NewPostgresDB(ctx, &a.Config.Database.Postgres)
	if err != nil {
		return nil, apperrors.NewDatabaseError("connect snapshot archive", err)
	}
	a.closers = append(a.closers, postgres.Close)

	var history service.CountHistory
	clickhouse, err := storage.NewClickHouseDB(ctx, &a.Config.Database.ClickHouse)
	if err != nil {
		a.Logger.WithError(err).Warn("ClickHouse unavailable, count history disabled")
	} else {
		a.closers = append(a.closers, func() { _ = clickhouse.Close() })
		history = storage.NewCountHistoryRepository(clickhouse)
	}

	a.archive = service.NewArchiveService(storage.NewSnapshotRepository(postgres.Pool()), history, a.Reports())
	return a.archive, nil
}

// Server builds the HTTP API server. The archive routes are enabled when
// Postgres is reachable.
func (a *App) Server(ctx context.Context) *api.Server {
	var archive api.ArchiveServiceInterface
	if svc, err := a.Archive(ctx); err != nil {
		a.Logger.WithError(err).Warn("Snapshot archive unavailable, archive routes disabled")
	} else {
		archive = svc
	}

	serverConfig := &api.ServerConfig{
		Host:              a.Config.Server.Host,
		Port:              a.Config.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		RequestsPerSecond: a.Config.Server.RequestsPerSecond,
		OnlyArchi:         a.Config.Metamob.OnlyArchi,
	}
	return api.NewServer(serverConfig, a.Reports(), archive, a.Metrics, a.Logger)
}

// Close releases every opened connection, most recent first
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
