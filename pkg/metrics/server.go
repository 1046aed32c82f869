package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve exposes the default registry on addr until ctx is cancelled. An empty
// addr disables the listener.
func Serve(ctx context.Context, addr string, logg *logger.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics.server.failed", err)
		}
	}()
}
