// Package odometer keeps the lifetime travel bookkeeping: per-axis
// running totals, maintenance thresholds and axis health, persisted
// through a key-value store collaborator.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package odometer

import (
	"fmt"
	"strings"

	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/gcode"
	"motion-minder-go/pkg/log"
	"motion-minder-go/pkg/store"
)

// Unit is a distance display unit.
type Unit string

const (
	Millimeters Unit = "mm"
	Meters      Unit = "m"
	Kilometers  Unit = "km"
)

// ParseUnit validates a unit name. Matching is case-insensitive.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "mm":
		return Millimeters, nil
	case "m":
		return Meters, nil
	case "km":
		return Kilometers, nil
	}
	return "", errors.InvalidUnitError(s)
}

// FromMM converts a value in millimeters into the unit.
func (u Unit) FromMM(mm float64) float64 {
	switch u {
	case Meters:
		return mm / 1e3
	case Kilometers:
		return mm / 1e6
	}
	return mm
}

// ToMM converts a value in the unit into millimeters.
func (u Unit) ToMM(v float64) float64 {
	switch u {
	case Meters:
		return v * 1e3
	case Kilometers:
		return v * 1e6
	}
	return v
}

// RecommendedUnit picks the display unit for a distance in millimeters:
// below a meter stay in mm, below a kilometer use m, otherwise km.
// Negative values (an overdue remaining distance) fall through to mm.
func RecommendedUnit(mm float64) Unit {
	if mm < 1e3 {
		return Millimeters
	}
	if mm < 1e6 {
		return Meters
	}
	return Kilometers
}

// AllAxes lists the tracked axes in their fixed evaluation order.
var AllAxes = []string{"x", "y", "z"}

// ParseAxes validates an axis-set string such as "xz" or "XYZ" and
// returns the named axes normalized to lowercase in the fixed x, y, z
// order, duplicates collapsed.
func ParseAxes(s string) ([]string, error) {
	seen := make(map[string]bool, 3)
	for _, r := range strings.ToLower(s) {
		axis := string(r)
		switch axis {
		case "x", "y", "z":
			seen[axis] = true
		default:
			return nil, errors.InvalidAxisError(axis)
		}
	}
	var axes []string
	for _, axis := range AllAxes {
		if seen[axis] {
			axes = append(axes, axis)
		}
	}
	if len(axes) == 0 {
		return nil, errors.InvalidAxisError(s)
	}
	return axes, nil
}

// Store keys, one set per axis. The layout matches the historical
// database so existing snapshots keep working: the odometer is the
// lifetime total in mm, next_maintenance is the absolute odometer
// reading at which maintenance falls due, maintenance is the interval
// it was set from, and odometer_on_reset records the odometer when the
// threshold was last set.

// OdometerKey returns the lifetime-total key for an axis.
func OdometerKey(axis string) string { return "odometer_" + axis }

// NextMaintenanceKey returns the absolute-threshold key for an axis.
func NextMaintenanceKey(axis string) string { return "next_maintenance_" + axis }

// MaintenanceKey returns the interval key for an axis.
func MaintenanceKey(axis string) string { return "maintenance_" + axis }

// OdometerOnResetKey returns the odometer-at-set key for an axis.
func OdometerOnResetKey(axis string) string { return "odometer_on_reset_" + axis }

// AxisKeys returns every store key belonging to an axis.
func AxisKeys(axis string) []string {
	return []string{
		OdometerKey(axis),
		NextMaintenanceKey(axis),
		MaintenanceKey(axis),
		OdometerOnResetKey(axis),
	}
}

// Config carries the construction-time options for an Odometer.
type Config struct {
	// Axes are the axes operated on when a call passes none. Defaults
	// to AllAxes.
	Axes []string
}

// Odometer is the bookkeeping service between scan distances and the
// persisted totals. All values are stored in millimeters.
type Odometer struct {
	store  store.Store
	axes   []string
	logger *log.Logger
}

// New creates an Odometer over the given store.
func New(st store.Store, cfg Config) *Odometer {
	axes := cfg.Axes
	if len(axes) == 0 {
		axes = AllAxes
	}
	return &Odometer{
		store:  st,
		axes:   axes,
		logger: log.GetLogger("odometer"),
	}
}

// validAxis rejects anything outside the tracked set.
func validAxis(axis string) error {
	switch axis {
	case "x", "y", "z":
		return nil
	}
	return errors.InvalidAxisError(axis)
}

// resolveAxes substitutes the configured default for an empty set.
func (o *Odometer) resolveAxes(axes []string) ([]string, error) {
	if len(axes) == 0 {
		return o.axes, nil
	}
	for _, axis := range axes {
		if err := validAxis(axis); err != nil {
			return nil, err
		}
	}
	return axes, nil
}

// Value returns the lifetime total for an axis in millimeters. A value
// never written reads as zero.
func (o *Odometer) Value(axis string) (float64, error) {
	if err := validAxis(axis); err != nil {
		return 0, err
	}
	v, _ := o.store.Get(OdometerKey(axis))
	return v, nil
}

// SetValue overwrites the lifetime total for an axis, in millimeters.
func (o *Odometer) SetValue(axis string, mm float64) error {
	if err := validAxis(axis); err != nil {
		return err
	}
	if mm < 0 {
		return errors.InvalidValueError("odometer", mm)
	}
	o.store.Set(OdometerKey(axis), mm)
	return nil
}

// Add folds a scan's per-call distances into the lifetime totals and
// returns the updated totals per axis. Only the linear axes take part;
// the extrusion slot carries no odometer.
func (o *Odometer) Add(d gcode.Distances) map[string]float64 {
	deltas := map[string]float64{"x": d.X, "y": d.Y, "z": d.Z}
	totals := make(map[string]float64, len(AllAxes))
	for _, axis := range AllAxes {
		v, _ := o.store.Get(OdometerKey(axis))
		v += deltas[axis]
		o.store.Set(OdometerKey(axis), v)
		totals[axis] = v
	}
	return totals
}

// SetMaintenance arms the maintenance threshold for the given axes:
// the interval is added to the current odometer reading to form the
// absolute due point. All arguments are validated before any axis is
// written, so a bad call never partially applies.
func (o *Odometer) SetMaintenance(axes []string, value float64, unit Unit) error {
	u, err := ParseUnit(string(unit))
	if err != nil {
		return err
	}
	resolved, err := o.resolveAxes(axes)
	if err != nil {
		return err
	}
	if value <= 0 {
		return errors.InvalidValueError("maintenance", value)
	}

	mm := u.ToMM(value)
	for _, axis := range resolved {
		odo, _ := o.store.Get(OdometerKey(axis))
		o.store.Set(NextMaintenanceKey(axis), mm+odo)
		o.store.Set(MaintenanceKey(axis), mm)
		o.store.Set(OdometerOnResetKey(axis), odo)
		o.logger.Info("%s maintenance at %.3f km.",
			strings.ToUpper(axis), Kilometers.FromMM(mm+odo))
	}
	return nil
}

// Health reports the remaining fraction of the maintenance interval:
// 1.0 right after the threshold is set, 0.0 at the due point, negative
// when overdue.
func (o *Odometer) Health(axis string) (float64, error) {
	if err := validAxis(axis); err != nil {
		return 0, err
	}
	r := o.reportAxis(axis)
	if !r.HasMaintenance {
		return 0, errors.MaintenanceUnsetError(axis)
	}
	return r.Health, nil
}

// Reset removes every stored value for the given axes.
func (o *Odometer) Reset(axes []string) error {
	resolved, err := o.resolveAxes(axes)
	if err != nil {
		return err
	}
	for _, axis := range resolved {
		for _, key := range AxisKeys(axis) {
			o.store.Delete(key)
		}
		o.logger.Info("Cleared odometer values for axis %s", axis)
	}
	return nil
}

// AxisReport is the assembled odometer state of one axis, with display
// values precomputed in the recommended units.
type AxisReport struct {
	// Axis is the lowercase axis name, Label its display form.
	Axis  string
	Label string

	// Odometer is the lifetime total in mm; Display is the same value
	// in Unit, the recommended display unit. TraveledKm is the total
	// in kilometers for the health summary line.
	Odometer   float64
	Unit       Unit
	Display    float64
	TraveledKm float64

	// Maintenance state. Remaining is next minus odometer (mm) and may
	// be negative once overdue; Health is remaining over the interval.
	HasMaintenance   bool
	Next             float64
	Interval         float64
	Remaining        float64
	RemainingUnit    Unit
	RemainingDisplay float64
	Due              bool
	Health           float64
	HealthPct        float64
}

// Report assembles AxisReports for the given axes (all configured axes
// when none are named).
func (o *Odometer) Report(axes []string) ([]AxisReport, error) {
	resolved, err := o.resolveAxes(axes)
	if err != nil {
		return nil, err
	}
	reports := make([]AxisReport, 0, len(resolved))
	for _, axis := range resolved {
		reports = append(reports, o.reportAxis(axis))
	}
	return reports, nil
}

func (o *Odometer) reportAxis(axis string) AxisReport {
	odo, _ := o.store.Get(OdometerKey(axis))
	r := AxisReport{
		Axis:       axis,
		Label:      strings.ToUpper(axis),
		Odometer:   odo,
		Unit:       RecommendedUnit(odo),
		TraveledKm: Kilometers.FromMM(odo),
	}
	r.Display = r.Unit.FromMM(odo)

	next, haveNext := o.store.Get(NextMaintenanceKey(axis))
	interval, haveInterval := o.store.Get(MaintenanceKey(axis))
	if !haveNext || !haveInterval || interval <= 0 {
		return r
	}

	r.HasMaintenance = true
	r.Next = next
	r.Interval = interval
	r.Remaining = next - odo
	r.RemainingUnit = RecommendedUnit(r.Remaining)
	r.RemainingDisplay = r.RemainingUnit.FromMM(r.Remaining)
	r.Due = r.Remaining <= 0
	r.Health = r.Remaining / interval
	r.HealthPct = r.Health * 100
	return r
}

// String renders the report in the compact key: value form used by
// debug logging.
func (r AxisReport) String() string {
	if !r.HasMaintenance {
		return fmt.Sprintf("%s: %.3f %s (maintenance not set)", r.Label, r.Display, r.Unit)
	}
	return fmt.Sprintf("%s: %.3f %s (health %.2f%%)", r.Label, r.Display, r.Unit, r.HealthPct)
}
