// Package prometheus exports offload flush and alert events as
// Prometheus collectors. The exporter plugs into the dispatcher through
// the AlertSink/FlushSink options.
package prometheus

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/offloadkit/offload"
)

// Exporter adapts aggregator flush events to Prometheus collectors. It
// implements both offload.FlushSink and offload.AlertSink.
type Exporter struct {
	flushedTotal *prom.CounterVec
	alertTotal   *prom.CounterVec
	flushSize    prom.Histogram
}

var (
	_ offload.FlushSink = (*Exporter)(nil)
	_ offload.AlertSink = (*Exporter)(nil)
)

// NewExporter creates and registers the collectors. An empty namespace
// defaults to "offload"; a nil registerer falls back to the default one.
// Re-registering the same namespace reuses the existing collectors.
func NewExporter(namespace string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = "offload"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	flushedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "flushed_count_total",
		Help:      "Counter values read during metric flushes, by label.",
	}, []string{"label"})
	alertVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_total",
		Help:      "Total number of threshold alerts raised, by label.",
	}, []string{"label"})
	flushSize := prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_count",
		Help:      "Distribution of per-label counts observed at flush time.",
		Buckets:   prom.ExponentialBuckets(1, 4, 8),
	})

	var err error
	if flushedVec, err = registerCollector(reg, flushedVec); err != nil {
		return nil, err
	}
	if alertVec, err = registerCollector(reg, alertVec); err != nil {
		return nil, err
	}
	if flushSize, err = registerCollector(reg, flushSize); err != nil {
		return nil, err
	}

	return &Exporter{
		flushedTotal: flushedVec,
		alertTotal:   alertVec,
		flushSize:    flushSize,
	}, nil
}

// Flushed records a non-zero counter read during a flush.
func (e *Exporter) Flushed(label string, count int64) {
	if e == nil {
		return
	}
	e.flushedTotal.WithLabelValues(label).Add(float64(count))
	e.flushSize.Observe(float64(count))
}

// Alert records a threshold alert.
func (e *Exporter) Alert(label string, count int64) {
	if e == nil {
		return
	}
	e.alertTotal.WithLabelValues(label).Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
