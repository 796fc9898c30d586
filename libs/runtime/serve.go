package runtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ServeHTTP runs srv until ctx is cancelled, then drains it gracefully.
// It blocks, so call it last in main.
func ServeHTTP(ctx context.Context, logger *slog.Logger, srv *http.Server) {
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
