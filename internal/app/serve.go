package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/monster-tracker/internal/worker"
)

// Serve runs the HTTP API until ctx is cancelled, then shuts it down
// within the configured shutdown timeout. With a refresh interval set the
// monsters snapshot is refreshed and archived in the background.
func (a *App) Serve(ctx context.Context) error {
	server := a.Server(ctx)

	refresher, err := a.refreshWorker(ctx)
	if err != nil {
		return err
	}
	if refresher != nil {
		if err := refresher.Start(ctx); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.Logger.WithFields(map[string]interface{}{
		"host": a.Config.Server.Host,
		"port": a.Config.Server.Port,
	}).Info("Server started successfully")

	var serveErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if refresher != nil {
		if err := refresher.Stop(shutdownCtx); err != nil {
			a.Logger.WithError(err).Warn("Refresh worker did not stop cleanly")
		}
	}
	if serveErr != nil {
		return serveErr
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.Logger.Info("Server exited")
	return nil
}

// refreshWorker builds the scheduled refresh, or nil when disabled
func (a *App) refreshWorker(ctx context.Context) (*worker.RefreshWorker, error) {
	if a.Config.Server.RefreshInterval <= 0 {
		return nil, nil
	}

	cfg := &worker.RefreshWorkerConfig{
		Refresher: a.Refresh(ctx),
		Interval:  a.Config.Server.RefreshInterval,
		OnlyArchi: a.Config.Metamob.OnlyArchi,
		Logger:    a.Logger,
	}
	// the archive was already opened by Server when reachable
	if a.archive != nil {
		cfg.Archiver = a.archive
	}
	return worker.NewRefreshWorker(cfg)
}
