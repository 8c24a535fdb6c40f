// Package metrics exposes Prometheus collectors for update routing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qrbot"

// Registry holds every collector of the process. It is private so tests can
// scrape it without clashing with the global default registry.
var Registry = prometheus.NewRegistry()

var (
	UpdatesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Inbound updates by bot and kind.",
	}, []string{"bot", "kind"})

	DispatchTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_total",
		Help:      "Routed updates by bot, route and outcome.",
	}, []string{"bot", "route", "outcome"})

	DispatchDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dispatch_duration_seconds",
		Help:      "Time spent in routed handlers.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"bot", "route"})

	PendingInteractions = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_interactions",
		Help:      "Outstanding multi-step interactions per bot.",
	}, []string{"bot"})

	UpdateDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "update_duration_seconds",
		Help:      "Time spent in the middleware chain per update kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	RateLimitedTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limiter.",
	}, []string{"kind"})

	OutboundMessagesTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbound_messages_total",
		Help:      "Messages sent or edited from handlers, split by keyboard presence.",
	}, []string{"keyboard"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveDispatch records one routed update.
func ObserveDispatch(bot, route, outcome string, took time.Duration) {
	DispatchTotal.WithLabelValues(bot, route, outcome).Inc()
	DispatchDuration.WithLabelValues(bot, route).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

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
