// Package metrics exposes prometheus counters for analyses and store calls.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"training-analyzer/apperrors"
)

// Recorder owns a private registry. A nil *Recorder records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	analyses   *prometheus.CounterVec
	rowsParsed prometheus.Counter
	storeOps   *prometheus.CounterVec
	storeTime  *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_analyses_total",
			Help: "Analyze actions by outcome.",
		}, []string{"outcome"}),
		rowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "training_rows_parsed_total",
			Help: "Rows read from uploaded files.",
		}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "training_store_operations_total",
			Help: "Report store calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		storeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "training_store_operation_seconds",
			Help:    "Report store call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	r.registry.MustRegister(
		r.analyses, r.rowsParsed, r.storeOps, r.storeTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveAnalysis counts one analyze action; rows is the number of parsed rows.
func (r *Recorder) ObserveAnalysis(err error, rows int) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(Outcome(err)).Inc()
	if rows > 0 {
		r.rowsParsed.Add(float64(rows))
	}
}

// ObserveStoreOp counts one store call that began at start.
func (r *Recorder) ObserveStoreOp(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.storeOps.WithLabelValues(op, Outcome(err)).Inc()
	r.storeTime.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Handler serves the registry in the prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Outcome is "ok" for a nil error, else the lower-cased error kind.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperrors.KindOf(err)))
}
