package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady("http", false)
	a.healthChecker.SetReady("market-data", false)

	// Cancel context to signal the watcher and any in-flight work.
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Disconnect websocket subscribers before tearing down state they
	// might still be served from.
	a.watchHub.Close()

	a.quotes.Close()
	a.validations.Close()

	err = a.sink.Close()
	if err != nil {
		a.logger.Error("errlog-close-error", zap.Error(err))
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
