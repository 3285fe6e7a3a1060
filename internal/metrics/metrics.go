// Package metrics exposes send pipeline counters on a private Prometheus
// registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partchat/internal/assistant"
	"partchat/internal/chat"
)

type Recorder struct {
	reg      *prometheus.Registry
	sends    prometheus.Counter
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		sends: f.NewCounter(prometheus.CounterOpts{
			Namespace: "partchat",
			Name:      "sends_total",
			Help:      "Messages sent to the assistant.",
		}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partchat",
			Name:      "send_failures_total",
			Help:      "Sends that ended in the fallback reply, by cause.",
		}, []string{"cause"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "partchat",
			Name:      "send_duration_seconds",
			Help:      "Time from send to reply or failure.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
	}
}

func (r *Recorder) SendFinished(_ chat.Pending, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.sends.Inc()
	r.duration.Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(cause(err)).Inc()
	}
}

func cause(err error) string {
	var se *assistant.StatusError
	var de *assistant.DecodeError
	switch {
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &de):
		return "decode"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "transport"
	}
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
