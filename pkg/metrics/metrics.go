// In-process metrics for Motion Minder.
//
// Counter, Gauge and Histogram primitives with label support, gathered
// into Prometheus text format. There is no exporter dependency; the
// output is plain text a caller can dump or serve as it likes.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType identifies the kind of a metric.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels attach dimensions to a metric sample.
type Labels map[string]string

// Key returns a stable identity for a label set. Two sets with the
// same pairs produce the same key regardless of insertion order.
func (l Labels) Key() string {
	return labelKey(l)
}

// String renders the labels in Prometheus sample syntax.
func (l Labels) String() string {
	return formatLabels(l)
}

func labelKey(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
	}
	return sb.String()
}

func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString("=\"")
		sb.WriteString(escapeLabel(labels[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func copyLabels(labels Labels) Labels {
	result := make(Labels, len(labels)+1)
	for k, v := range labels {
		result[k] = v
	}
	return result
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Metric is implemented by every metric kind.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

// Counter is a monotonically increasing value.
type Counter struct {
	name   string
	help   string
	values sync.Map // label key -> *counterValue
}

type counterValue struct {
	labels Labels
	value  uint64
}

// NewCounter creates a counter metric.
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by one.
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by delta.
func (c *Counter) Add(labels Labels, delta uint64) {
	key := labelKey(labels)
	val, _ := c.values.LoadOrStore(key, &counterValue{labels: labels})
	cv := val.(*counterValue)
	atomic.AddUint64(&cv.value, delta)
}

// Get returns the counter value for a label set.
func (c *Counter) Get(labels Labels) uint64 {
	val, ok := c.values.Load(labelKey(labels))
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&val.(*counterValue).value)
}

func (c *Counter) Write(sb *strings.Builder) {
	sb.WriteString("# HELP ")
	sb.WriteString(c.name)
	sb.WriteByte(' ')
	sb.WriteString(c.help)
	sb.WriteByte('\n')
	sb.WriteString("# TYPE ")
	sb.WriteString(c.name)
	sb.WriteString(" counter\n")

	c.values.Range(func(_, value interface{}) bool {
		cv := value.(*counterValue)
		sb.WriteString(c.name)
		sb.WriteString(formatLabels(cv.labels))
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprintf("%d", atomic.LoadUint64(&cv.value)))
		sb.WriteByte('\n')
		return true
	})
}

// Gauge is a value that can move in both directions.
type Gauge struct {
	name   string
	help   string
	values sync.Map // label key -> *gaugeValue
}

type gaugeValue struct {
	labels Labels
	value  float64
	mu     sync.Mutex
}

// NewGauge creates a gauge metric.
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

// Set overwrites the gauge for a label set.
func (g *Gauge) Set(labels Labels, value float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value = value
	gv.mu.Unlock()
}

// Inc adds one.
func (g *Gauge) Inc(labels Labels) {
	g.Add(labels, 1)
}

// Dec subtracts one.
func (g *Gauge) Dec(labels Labels) {
	g.Add(labels, -1)
}

// Add adds delta to the gauge.
func (g *Gauge) Add(labels Labels, delta float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value += delta
	gv.mu.Unlock()
}

// Sub subtracts delta from the gauge.
func (g *Gauge) Sub(labels Labels, delta float64) {
	g.Add(labels, -delta)
}

// Get returns the gauge value for a label set.
func (g *Gauge) Get(labels Labels) float64 {
	val, ok := g.values.Load(labelKey(labels))
	if !ok {
		return 0
	}
	gv := val.(*gaugeValue)
	gv.mu.Lock()
	defer gv.mu.Unlock()
	return gv.value
}

func (g *Gauge) value(labels Labels) *gaugeValue {
	key := labelKey(labels)
	val, _ := g.values.LoadOrStore(key, &gaugeValue{labels: labels})
	return val.(*gaugeValue)
}

func (g *Gauge) Write(sb *strings.Builder) {
	sb.WriteString("# HELP ")
	sb.WriteString(g.name)
	sb.WriteByte(' ')
	sb.WriteString(g.help)
	sb.WriteByte('\n')
	sb.WriteString("# TYPE ")
	sb.WriteString(g.name)
	sb.WriteString(" gauge\n")

	g.values.Range(func(_, value interface{}) bool {
		gv := value.(*gaugeValue)
		gv.mu.Lock()
		v := gv.value
		gv.mu.Unlock()
		sb.WriteString(g.name)
		sb.WriteString(formatLabels(gv.labels))
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(v))
		sb.WriteByte('\n')
		return true
	})
}

// Histogram tracks the distribution of observed values in cumulative
// buckets.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	values  sync.Map // label key -> *histogramValue
}

type histogramValue struct {
	labels  Labels
	count   uint64
	sum     float64
	buckets []uint64
	mu      sync.Mutex
}

// NewHistogram creates a histogram with the given bucket bounds.
func NewHistogram(name, help string, buckets []float64) *Histogram {
	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)
	return &Histogram{name: name, help: help, buckets: sorted}
}

// DefaultBuckets returns bucket bounds suitable for second-scale
// durations.
func DefaultBuckets() []float64 {
	return []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
}

func (h *Histogram) Name() string     { return h.name }
func (h *Histogram) Help() string     { return h.help }
func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records one value.
func (h *Histogram) Observe(labels Labels, value float64) {
	key := labelKey(labels)
	val, _ := h.values.LoadOrStore(key, &histogramValue{
		labels:  labels,
		buckets: make([]uint64, len(h.buckets)),
	})
	hv := val.(*histogramValue)
	hv.mu.Lock()
	hv.count++
	hv.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			hv.buckets[i]++
		}
	}
	hv.mu.Unlock()
}

// Timer returns a function that observes the elapsed time when called.
func (h *Histogram) Timer(labels Labels) func() {
	start := time.Now()
	return func() {
		h.Observe(labels, time.Since(start).Seconds())
	}
}

func (h *Histogram) Write(sb *strings.Builder) {
	sb.WriteString("# HELP ")
	sb.WriteString(h.name)
	sb.WriteByte(' ')
	sb.WriteString(h.help)
	sb.WriteByte('\n')
	sb.WriteString("# TYPE ")
	sb.WriteString(h.name)
	sb.WriteString(" histogram\n")

	h.values.Range(func(_, value interface{}) bool {
		hv := value.(*histogramValue)
		hv.mu.Lock()
		count := hv.count
		sum := hv.sum
		bucketCounts := make([]uint64, len(hv.buckets))
		copy(bucketCounts, hv.buckets)
		hv.mu.Unlock()

		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += bucketCounts[i]
			bucketLabels := copyLabels(hv.labels)
			bucketLabels["le"] = formatFloat(bound)
			sb.WriteString(h.name)
			sb.WriteString("_bucket")
			sb.WriteString(formatLabels(bucketLabels))
			sb.WriteByte(' ')
			sb.WriteString(fmt.Sprintf("%d", cumulative))
			sb.WriteByte('\n')
		}
		infLabels := copyLabels(hv.labels)
		infLabels["le"] = "+Inf"
		sb.WriteString(h.name)
		sb.WriteString("_bucket")
		sb.WriteString(formatLabels(infLabels))
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprintf("%d", count))
		sb.WriteByte('\n')

		sb.WriteString(h.name)
		sb.WriteString("_sum")
		sb.WriteString(formatLabels(hv.labels))
		sb.WriteByte(' ')
		sb.WriteString(formatFloat(sum))
		sb.WriteByte('\n')

		sb.WriteString(h.name)
		sb.WriteString("_count")
		sb.WriteString(formatLabels(hv.labels))
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprintf("%d", count))
		sb.WriteByte('\n')

		return true
	})
}

// Registry holds registered metrics and gathers them in registration
// order.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]Metric),
	}
}

// Register adds a metric. Registering the same name twice fails.
func (r *Registry) Register(metric Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := metric.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = metric
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a metric and panics on a duplicate name.
func (r *Registry) MustRegister(metric Metric) {
	if err := r.Register(metric); err != nil {
		panic(err)
	}
}

// Get returns a registered metric by name, or nil.
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather renders every registered metric in Prometheus text format.
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		if metric, ok := r.metrics[name]; ok {
			metric.Write(&sb)
		}
	}
	return sb.String()
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a metric to the default registry.
func Register(metric Metric) error {
	return defaultRegistry.Register(metric)
}

// MustRegister adds a metric to the default registry and panics on a
// duplicate name.
func MustRegister(metric Metric) {
	defaultRegistry.MustRegister(metric)
}

// Gather renders the default registry.
func Gather() string {
	return defaultRegistry.Gather()
}
