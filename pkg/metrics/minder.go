// Motion Minder metric definitions.
//
// One struct holds every metric the tool emits: scan throughput
// counters, the per-axis odometer gauge, and scan duration.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import "sync"

// MinderMetrics holds all Motion Minder metrics.
type MinderMetrics struct {
	// Scanner throughput
	LinesTotal        *Counter
	CommandsTotal     *Counter
	MalformedParams   *Counter
	UnrecognizedTotal *Counter

	// Bookkeeping state
	OdometerMM *Gauge

	// Scan timing
	ScanSeconds *Histogram

	registry *Registry
}

// NewMinderMetrics creates and registers all metrics on a fresh
// registry.
func NewMinderMetrics() *MinderMetrics {
	m := &MinderMetrics{
		registry: NewRegistry(),
	}

	m.LinesTotal = NewCounter("motion_minder_lines_total",
		"Total gcode lines consumed")
	m.CommandsTotal = NewCounter("motion_minder_commands_total",
		"Total recognized motion commands applied")
	m.MalformedParams = NewCounter("motion_minder_malformed_params_total",
		"Total parameter tokens dropped as unparsable")
	m.UnrecognizedTotal = NewCounter("motion_minder_unrecognized_total",
		"Total lines skipped as unrecognized")
	m.OdometerMM = NewGauge("motion_minder_odometer_mm",
		"Lifetime traveled distance per axis in millimeters")
	m.ScanSeconds = NewHistogram("motion_minder_scan_seconds",
		"Wall time per scan", DefaultBuckets())

	m.registerAll()
	return m
}

func (m *MinderMetrics) registerAll() {
	for _, metric := range []Metric{
		m.LinesTotal, m.CommandsTotal, m.MalformedParams,
		m.UnrecognizedTotal, m.OdometerMM, m.ScanSeconds,
	} {
		m.registry.MustRegister(metric)
	}
}

// AddScanCounts folds one scan's statistics into the counters.
func (m *MinderMetrics) AddScanCounts(lines, commands, malformed, unrecognized int64) {
	if lines > 0 {
		m.LinesTotal.Add(nil, uint64(lines))
	}
	if commands > 0 {
		m.CommandsTotal.Add(nil, uint64(commands))
	}
	if malformed > 0 {
		m.MalformedParams.Add(nil, uint64(malformed))
	}
	if unrecognized > 0 {
		m.UnrecognizedTotal.Add(nil, uint64(unrecognized))
	}
}

// SetOdometer records the lifetime total for an axis.
func (m *MinderMetrics) SetOdometer(axis string, mm float64) {
	m.OdometerMM.Set(Labels{"axis": axis}, mm)
}

// ObserveScanDuration records one scan's wall time in seconds.
func (m *MinderMetrics) ObserveScanDuration(seconds float64) {
	m.ScanSeconds.Observe(nil, seconds)
}

// ScanTimer returns a function that records the elapsed scan time when
// called.
func (m *MinderMetrics) ScanTimer() func() {
	return m.ScanSeconds.Timer(nil)
}

// Gather renders all metrics in Prometheus text format.
func (m *MinderMetrics) Gather() string {
	return m.registry.Gather()
}

// Registry returns the internal registry.
func (m *MinderMetrics) Registry() *Registry {
	return m.registry
}

var globalMetrics *MinderMetrics
var globalMetricsOnce sync.Once

// GlobalMetrics returns the process-wide MinderMetrics instance.
func GlobalMetrics() *MinderMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewMinderMetrics()
	})
	return globalMetrics
}
