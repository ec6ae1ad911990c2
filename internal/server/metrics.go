package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/funvibe/matchkit/internal/config"
)

// Classification outcome label values.
const (
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeEvalError = "eval_error"
)

// Metrics groups the service's collectors. Build one per registry.
type Metrics struct {
	Classifications *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	Reloads         *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses a fresh
// registry, which keeps tests independent of the global one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "classifications_total",
			Help:      "Classification requests by rule set and outcome",
		}, []string{"rule_set", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.MetricsNamespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent selecting an arm",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}, []string{"rule_set"}),
		Reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.MetricsNamespace,
			Name:      "rule_reloads_total",
			Help:      "Rule file reloads by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) observe(ruleSet, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(ruleSet, outcome).Inc()
	m.Duration.WithLabelValues(ruleSet).Observe(elapsed.Seconds())
}

// ObserveReload counts a reload attempt; wire it to Watcher.OnReload.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Reloads.WithLabelValues("error").Inc()
		return
	}
	m.Reloads.WithLabelValues("ok").Inc()
}

// MetricsHandler serves gather on /metrics.
func MetricsHandler(gather prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gather, promhttp.HandlerOpts{}))
	return mux
}

// ServeMetrics runs an HTTP server for h on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
