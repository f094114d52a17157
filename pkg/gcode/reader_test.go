// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"motion-minder-go/pkg/errors"
)

// program joins logical lines into a newline-terminated G-code text.
func program(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// scan runs a fresh bounded scan over the given lines.
func scan(t *testing.T, bounds ScanBounds, lines ...string) Distances {
	t.Helper()
	r := NewReaderFrom(strings.NewReader(program(lines...)), "test")
	d, err := r.Scan(bounds)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return d
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScanScenarios(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  Distances
	}{
		{
			name:  "absolute moves accumulate abs deltas",
			lines: []string{"G90", "G1 X10", "G1 X15"},
			want:  Distances{X: 15},
		},
		{
			name:  "relative moves accumulate raw values",
			lines: []string{"G91", "G1 X10", "G1 X5"},
			want:  Distances{X: 15},
		},
		{
			name:  "position reset re-origins without touching totals",
			lines: []string{"G90", "G1 X10", "G92 X0", "G1 X10"},
			want:  Distances{X: 20},
		},
		{
			name:  "extrusion keeps only the last move",
			lines: []string{"G90", "G1 X10 E5", "G1 X20 E5"},
			want:  Distances{X: 20, E: 5},
		},
		{
			name:  "malformed parameter contributes nothing",
			lines: []string{"G1 XABC"},
			want:  Distances{},
		},
		{
			name:  "multi axis absolute",
			lines: []string{"G90", "G1 X10 Y20 Z1", "G1 X0 Y10 Z2"},
			want:  Distances{X: 20, Y: 30, Z: 2},
		},
		{
			name:  "negative relative move decreases the sum",
			lines: []string{"G91", "G1 X10", "G1 X-4"},
			want:  Distances{X: 6},
		},
		{
			name:  "rapid move counts like a normal move",
			lines: []string{"G90", "G0 X10", "G1 X15"},
			want:  Distances{X: 15},
		},
		{
			name:  "mode switch mid stream",
			lines: []string{"G90", "G1 X10", "G91", "G1 X10"},
			want:  Distances{X: 20},
		},
		{
			name:  "extruder only mode switch leaves linear mode alone",
			lines: []string{"G91", "M82", "G1 X10 E5", "G1 X10 E8"},
			want:  Distances{X: 20, E: 3},
		},
		{
			name:  "relative extruder via M83",
			lines: []string{"G90", "M83", "G1 E5", "G1 E3"},
			want:  Distances{E: 3},
		},
		{
			name:  "reset extruder origin",
			lines: []string{"G90", "G1 E5", "G92 E0", "G1 E5"},
			want:  Distances{E: 5},
		},
		{
			name:  "unrecognized commands are skipped",
			lines: []string{"G90", "; layer 1", "M104 S200", "G28", "G1 X10"},
			want:  Distances{X: 10},
		},
		{
			name:  "lowercase command is not recognized",
			lines: []string{"G90", "G1 X10", "g91", "G1 X20"},
			want:  Distances{X: 20},
		},
		{
			name:  "lowercase selector is ignored",
			lines: []string{"G90", "G1 x10"},
			want:  Distances{},
		},
		{
			name:  "duplicate selector keeps the last value",
			lines: []string{"G90", "G1 X5 X7"},
			want:  Distances{X: 7},
		},
		{
			name:  "doubled spaces are tolerated",
			lines: []string{"G90", "G1  X10"},
			want:  Distances{X: 10},
		},
		{
			name:  "leading space hides the command",
			lines: []string{"G90", " G1 X10"},
			want:  Distances{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan(t, ScanBounds{}, tt.lines...)
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) ||
				!approx(got.Z, tt.want.Z) || !approx(got.E, tt.want.E) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMaxExtrusionStopsScan(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program("G90", "G1 E5", "G1 X10")), "test")
	d, err := r.Scan(MaxExtrusion(3))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !approx(d.E, 5) {
		t.Errorf("e = %v, want 5 (the move that tripped the budget)", d.E)
	}
	if d.X != 0 {
		t.Errorf("x = %v, want 0: no lines may be consumed after the budget trips", d.X)
	}
}

func TestMaxExtrusionExactBudgetContinues(t *testing.T) {
	// The budget check is strict: an accumulated extrusion equal to the
	// bound does not stop the scan.
	d := scan(t, MaxExtrusion(5), "G90", "G1 E5", "G1 X10")
	if !approx(d.X, 10) {
		t.Errorf("x = %v, want 10: e == budget must not stop the scan", d.X)
	}
}

func TestStopAtByteZeroConsumesNothing(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program("G90", "G1 X10")), "test")
	d, err := r.Scan(StopAtByte(0))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if d != (Distances{}) {
		t.Errorf("got %+v, want zero distances", d)
	}
	if r.Offset() != 0 {
		t.Errorf("offset = %d, want 0", r.Offset())
	}
	if r.Stats().Lines != 0 {
		t.Errorf("lines = %d, want 0", r.Stats().Lines)
	}
}

func TestStopAtByteBoundary(t *testing.T) {
	// "G90\n" is 4 bytes, "G1 X10\n" is 7, "G1 X15\n" is 7.
	text := program("G90", "G1 X10", "G1 X15")

	// A bound exactly at a line break stops before the next line.
	r := NewReaderFrom(strings.NewReader(text), "test")
	d, err := r.Scan(StopAtByte(4))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if d.X != 0 {
		t.Errorf("x = %v, want 0", d.X)
	}
	if r.Offset() != 4 {
		t.Errorf("offset = %d, want 4", r.Offset())
	}

	// A bound inside a line still consumes that whole line.
	r = NewReaderFrom(strings.NewReader(text), "test")
	d, err = r.Scan(StopAtByte(5))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !approx(d.X, 10) {
		t.Errorf("x = %v, want 10: the crossing line is processed in full", d.X)
	}
	if r.Offset() != 11 {
		t.Errorf("offset = %d, want 11", r.Offset())
	}
}

func TestResumableScan(t *testing.T) {
	text := program("G90", "G1 X10", "G1 X15", "G1 X30")
	r := NewReaderFrom(strings.NewReader(text), "test")

	first, err := r.Scan(StopAtByte(11))
	if err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}
	if !approx(first.X, 10) {
		t.Errorf("first call x = %v, want 10", first.X)
	}

	rest, err := r.Scan(ScanBounds{})
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if !approx(rest.X, 20) {
		t.Errorf("second call x = %v, want per-call delta 20", rest.X)
	}

	if total := r.Totals(); !approx(total.X, 30) {
		t.Errorf("lifetime x = %v, want 30", total.X)
	}

	// Mode and position state carry across calls: a whole-file scan of the
	// same text agrees with the two-call split.
	whole := scan(t, ScanBounds{}, "G90", "G1 X10", "G1 X15", "G1 X30")
	if !approx(whole.X, first.X+rest.X) {
		t.Errorf("split scans disagree with whole scan: %v + %v != %v", first.X, rest.X, whole.X)
	}
}

func TestScanAfterEOFReturnsZero(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program("G90", "G1 X10")), "test")
	if _, err := r.Scan(ScanBounds{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	d, err := r.Scan(ScanBounds{})
	if err != nil {
		t.Fatalf("Scan after EOF failed: %v", err)
	}
	if d != (Distances{}) {
		t.Errorf("got %+v, want zero distances after EOF", d)
	}
}

func TestIdempotentRescan(t *testing.T) {
	lines := []string{"G90", "G1 X10 Y5 E2", "G91", "G1 X3 Z0.5", "G92 X0", "G1 X2 E1"}
	first := scan(t, ScanBounds{}, lines...)
	second := scan(t, ScanBounds{}, lines...)
	if first != second {
		t.Errorf("rescan differs: %+v vs %+v", first, second)
	}
}

func TestUnterminatedFinalLine(t *testing.T) {
	r := NewReaderFrom(strings.NewReader("G90\nG1 X10"), "test")
	d, err := r.Scan(ScanBounds{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !approx(d.X, 10) {
		t.Errorf("x = %v, want 10: final line without newline still counts", d.X)
	}
	if r.Offset() != 10 {
		t.Errorf("offset = %d, want 10", r.Offset())
	}
}

func TestCRLFLines(t *testing.T) {
	r := NewReaderFrom(strings.NewReader("G90\r\nG1 X10\r\n"), "test")
	d, err := r.Scan(ScanBounds{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !approx(d.X, 10) {
		t.Errorf("x = %v, want 10 with CRLF endings", d.X)
	}
	// Offset counts the full terminator bytes.
	if r.Offset() != 13 {
		t.Errorf("offset = %d, want 13", r.Offset())
	}
}

func TestStats(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program(
		"G90",
		"G1 X10",
		"; a comment",
		"G1 XABC",
		"M999",
	)), "test")
	if _, err := r.Scan(ScanBounds{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	s := r.Stats()
	if s.Lines != 5 {
		t.Errorf("Lines = %d, want 5", s.Lines)
	}
	if s.Commands != 3 {
		t.Errorf("Commands = %d, want 3", s.Commands)
	}
	if s.Unrecognized != 2 {
		t.Errorf("Unrecognized = %d, want 2", s.Unrecognized)
	}
	if s.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", s.Malformed)
	}
}

func TestModesAccessor(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program("G91", "M82")), "test")
	if _, err := r.Scan(ScanBounds{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	linear, extruder := r.Modes()
	if linear != Relative {
		t.Errorf("linear mode = %v, want relative", linear)
	}
	if extruder != Absolute {
		t.Errorf("extruder mode = %v, want absolute", extruder)
	}
}

func TestLastPosition(t *testing.T) {
	r := NewReaderFrom(strings.NewReader(program("G90", "G1 X10 Y20", "G92 X0")), "test")
	if _, err := r.Scan(ScanBounds{}); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	pos := r.LastPosition()
	if pos.X != 0 || pos.Y != 20 {
		t.Errorf("position = %+v, want X reset to 0 and Y at 20", pos)
	}
}

func TestDistancesMap(t *testing.T) {
	d := Distances{X: 1, Y: 2, Z: 3, E: 4}
	m := d.Map()
	if m["x"] != 1 || m["y"] != 2 || m["z"] != 3 || m["e"] != 4 {
		t.Errorf("unexpected map %v", m)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "nope.gcode"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, errors.ErrInputUnavailable) {
		t.Errorf("error code = %v, want INPUT_UNAVAILABLE", err)
	}
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.gcode")
	if err := os.WriteFile(path, []byte(program("G90", "G1 X10 E2", "G1 X15 E4")), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := ScanFile(path, ScanBounds{})
	if err != nil {
		t.Fatalf("ScanFile failed: %v", err)
	}
	if !approx(d.X, 15) || !approx(d.E, 2) {
		t.Errorf("got %+v, want x=15 e=2", d)
	}

	if _, err := ScanFile(filepath.Join(t.TempDir(), "missing.gcode"), ScanBounds{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCloseWithoutOwnedFile(t *testing.T) {
	r := NewReaderFrom(strings.NewReader("G90\n"), "test")
	if err := r.Close(); err != nil {
		t.Errorf("Close on a wrapped stream should be a no-op, got %v", err)
	}
}

func TestReaderClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.gcode")
	if err := os.WriteFile(path, []byte("G90\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
