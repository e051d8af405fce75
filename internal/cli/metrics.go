package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/fetchflow/pkg/observability"
	"github.com/matzehuels/fetchflow/pkg/observability/prom"
)

const shutdownTimeout = 5 * time.Second

// newMetricsRegistry creates a registry holding the runtime collectors and
// the fetchflow hook metrics, and installs the hooks globally. The returned
// function restores the no-op hooks.
func newMetricsRegistry() (*prometheus.Registry, func()) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := prom.New(reg)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	observability.SetPollHooks(hooks)
	return reg, observability.Reset
}

// newMetricsRouter serves /metrics from reg and /healthz reporting whether
// polling is active.
func newMetricsRouter(reg *prometheus.Registry, polling func() bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		active := polling()
		status := http.StatusOK
		if !active {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": http.StatusText(status), "polling": active})
	})
	return r
}

// serveMetrics serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func serveMetrics(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("metrics server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Debug("metrics server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
