package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-attendance/core"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// DefaultDurationBuckets covers API round trips in milliseconds.
var DefaultDurationBuckets = prometheus.ExponentialBuckets(5, 2, 12)

type Option func(*PrometheusRecorder)

func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *PrometheusRecorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *PrometheusRecorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// PrometheusRecorder implements core.MetricsRecorder. Vectors are created on
// first use; the label names seen on that first call are fixed for the
// metric, later calls fill missing labels with "" and drop unknown ones.
type PrometheusRecorder struct {
	registry *prometheus.Registry
	buckets  []float64

	mu         sync.Mutex
	counters   map[string]*vec[*prometheus.CounterVec]
	histograms map[string]*vec[*prometheus.HistogramVec]
	errors     []error
}

type vec[T any] struct {
	collector T
	labels    []string
}

func NewPrometheusRecorder(opts ...Option) *PrometheusRecorder {
	recorder := &PrometheusRecorder{
		registry:   prometheus.NewRegistry(),
		buckets:    DefaultDurationBuckets,
		counters:   map[string]*vec[*prometheus.CounterVec]{},
		histograms: map[string]*vec[*prometheus.HistogramVec]{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *PrometheusRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	metricName := SanitizeName(name)
	entry, ok := r.counters[metricName]
	if !ok {
		labels := labelNames(tags)
		collector := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricName,
			Help: fmt.Sprintf("Counter for %s.", name),
		}, labels)
		if err := r.registry.Register(collector); err != nil {
			r.errors = append(r.errors, err)
			return
		}
		entry = &vec[*prometheus.CounterVec]{collector: collector, labels: labels}
		r.counters[metricName] = entry
	}
	entry.collector.With(labelValues(entry.labels, tags)).Add(float64(value))
}

func (r *PrometheusRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	metricName := SanitizeName(name)
	entry, ok := r.histograms[metricName]
	if !ok {
		labels := labelNames(tags)
		collector := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName,
			Help:    fmt.Sprintf("Histogram for %s.", name),
			Buckets: r.buckets,
		}, labels)
		if err := r.registry.Register(collector); err != nil {
			r.errors = append(r.errors, err)
			return
		}
		entry = &vec[*prometheus.HistogramVec]{collector: collector, labels: labels}
		r.histograms[metricName] = entry
	}
	entry.collector.With(labelValues(entry.labels, tags)).Observe(value)
}

// Errors returns registration failures, e.g. a counter and a histogram that
// sanitize to the same name.
func (r *PrometheusRecorder) Errors() []error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

// Sample is a flattened view of one gathered series.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
	Count  uint64
}

// Snapshot gathers the registry. Counters report Value; histograms report
// the sample sum in Value and the observation count in Count.
func (r *PrometheusRecorder) Snapshot() ([]Sample, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			sample := Sample{Name: family.GetName(), Labels: labelsOf(metric)}
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				sample.Value = metric.GetCounter().GetValue()
			case dto.MetricType_HISTOGRAM:
				sample.Value = metric.GetHistogram().GetSampleSum()
				sample.Count = metric.GetHistogram().GetSampleCount()
			default:
				continue
			}
			out = append(out, sample)
		}
	}
	return out, nil
}

// SanitizeName maps a dotted metric name onto the Prometheus charset.
func SanitizeName(name string) string {
	var b strings.Builder
	for i, ch := range strings.TrimSpace(name) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_', ch == ':':
			b.WriteRune(ch)
		case ch >= '0' && ch <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(ch)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for key := range tags {
		names = append(names, SanitizeName(key))
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, tags map[string]string) prometheus.Labels {
	sanitized := make(map[string]string, len(tags))
	for key, value := range tags {
		sanitized[SanitizeName(key)] = value
	}
	labels := make(prometheus.Labels, len(names))
	for _, name := range names {
		labels[name] = sanitized[name]
	}
	return labels
}

func labelsOf(metric *dto.Metric) map[string]string {
	out := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		out[pair.GetName()] = pair.GetValue()
	}
	return out
}

var _ core.MetricsRecorder = (*PrometheusRecorder)(nil)
