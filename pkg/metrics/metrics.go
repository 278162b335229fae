// Package metrics records extraction counters with Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yurifrl/faturas/pkg/parser"
)

const namespace = "faturas"

// Recorder implements parser.Observer on its own registry.
type Recorder struct {
	registry     *prometheus.Registry
	documents    *prometheus.CounterVec
	lines        *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	transactions *prometheus.CounterVec
}

var _ parser.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Statements processed, by issuer and outcome.",
		}, []string{"issuer", "outcome"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Text lines read from statements.",
		}, []string{"issuer"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Lines that did not produce a transaction, by reason.",
		}, []string{"issuer", "reason"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transactions extracted.",
		}, []string{"issuer"}),
	}
	r.registry.MustRegister(r.documents, r.lines, r.skipped, r.transactions)
	return r
}

func (r *Recorder) ObserveExtraction(issuer string, stats parser.Stats) {
	outcome := "ok"
	if stats.Transactions == 0 {
		outcome = "empty"
	}
	r.documents.WithLabelValues(issuer, outcome).Inc()
	r.lines.WithLabelValues(issuer).Add(float64(stats.Lines))
	r.transactions.WithLabelValues(issuer).Add(float64(stats.Transactions))
	for reason, n := range stats.Skipped {
		r.skipped.WithLabelValues(issuer, string(reason)).Add(float64(n))
	}
}

func (r *Recorder) ObserveUnrecognized() {
	r.documents.WithLabelValues("", "unrecognized").Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteFile dumps the current metrics for the node exporter textfile collector.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
