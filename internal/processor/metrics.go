package processor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Processor's Prometheus collectors. Grounded on
// virtengine-virtengine's pkg/verification/sms/metrics.go: a struct of
// *Vec collectors built in NewMetrics, registered once via sync.Once,
// updated through small unexported record* methods rather than handing
// callers raw collectors.
type Metrics struct {
	once sync.Once

	documentsProcessed *prometheus.CounterVec
	pagesProcessed     *prometheus.CounterVec
	pagesDegraded      *prometheus.CounterVec
	detectionsApplied  *prometheus.CounterVec
	documentDuration   *prometheus.HistogramVec
}

// NewMetrics builds an unregistered Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		documentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deidentify",
				Subsystem: "processor",
				Name:      "documents_processed_total",
				Help:      "Total number of documents processed, by outcome.",
			},
			[]string{"outcome"},
		),
		pagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deidentify",
				Subsystem: "processor",
				Name:      "pages_processed_total",
				Help:      "Total number of pages processed.",
			},
			[]string{"state"},
		),
		pagesDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deidentify",
				Subsystem: "processor",
				Name:      "pages_degraded_total",
				Help:      "Total number of pages emitted with a degraded (full-page) redaction.",
			},
			[]string{"reason"},
		),
		detectionsApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deidentify",
				Subsystem: "processor",
				Name:      "detections_applied_total",
				Help:      "Total number of post-fusion detections redacted, by kind.",
			},
			[]string{"kind"},
		),
		documentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "deidentify",
				Subsystem: "processor",
				Name:      "document_duration_seconds",
				Help:      "Wall-clock duration of one document's processing.",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
	}
}

// Register registers every collector with reg, tolerating a collector
// already registered under a shared registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var err error
	m.once.Do(func() {
		collectors := []prometheus.Collector{
			m.documentsProcessed,
			m.pagesProcessed,
			m.pagesDegraded,
			m.detectionsApplied,
			m.documentDuration,
		}
		for _, c := range collectors {
			if regErr := reg.Register(c); regErr != nil {
				if _, ok := regErr.(prometheus.AlreadyRegisteredError); !ok {
					err = regErr
					return
				}
			}
		}
	})
	return err
}

func (m *Metrics) recordDocument(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.documentsProcessed.WithLabelValues(outcome).Inc()
	m.documentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) recordPage(state string) {
	if m == nil {
		return
	}
	m.pagesProcessed.WithLabelValues(state).Inc()
}

func (m *Metrics) recordDegradedPage(reason string) {
	if m == nil {
		return
	}
	m.pagesDegraded.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordDetection(kind string) {
	if m == nil {
		return
	}
	m.detectionsApplied.WithLabelValues(kind).Inc()
}
