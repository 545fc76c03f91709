// Package metrics exposes Prometheus counters for classification and scan
// outcomes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "puremark"

var scanBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the registered collectors.
type Metrics struct {
	classifications *prometheus.CounterVec
	verdicts        *prometheus.CounterVec
	segmentations   *prometheus.CounterVec
	scans           *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	kbReloads       *prometheus.CounterVec
}

// New registers the collectors with registerer, or the default registerer
// when nil. Registering twice on one registry fails.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Ingredient classifications by diet and status.",
		}, []string{"diet", "status"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_verdicts_total",
			Help:      "Product verdicts by diet and status.",
		}, []string{"diet", "status"}),
		segmentations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segmentations_total",
			Help:      "Label segmentations by parse status.",
		}, []string{"status"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Analyzed scans by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time to analyze one scan.",
			Buckets:   scanBuckets,
		}),
		kbReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kb_reloads_total",
			Help:      "Knowledge base reload attempts by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{
		m.classifications, m.verdicts, m.segmentations, m.scans, m.scanDuration, m.kbReloads,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// Classification counts one ingredient result.
func (m *Metrics) Classification(diet, status string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(diet, status).Inc()
}

// Verdict counts one product verdict.
func (m *Metrics) Verdict(diet, status string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(diet, status).Inc()
}

// Segmentation counts one zone segmentation.
func (m *Metrics) Segmentation(status string) {
	if m == nil {
		return
	}
	m.segmentations.WithLabelValues(status).Inc()
}

// Scan records the outcome and duration of one scan.
func (m *Metrics) Scan(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(d.Seconds())
}

// Reload counts a knowledge base reload; err nil means success.
func (m *Metrics) Reload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.kbReloads.WithLabelValues(result).Inc()
}

// WriteTextfile writes the gatherer's metrics in the text format read by
// the node exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
