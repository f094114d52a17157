// Package gcode implements the motion-distance accumulator: a single-pass,
// resumable scanner that turns a G-code program into per-axis traveled
// distances, honoring absolute/relative positioning modes and optional
// early-stop bounds.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/pool"
)

// PositioningMode selects how coordinate values are interpreted.
type PositioningMode int

const (
	// Absolute coordinates are positions; travel is |new - last|.
	Absolute PositioningMode = iota
	// Relative coordinates are deltas applied as-is.
	Relative
)

func (m PositioningMode) String() string {
	if m == Relative {
		return "relative"
	}
	return "absolute"
}

// Position holds the last known coordinate per axis.
type Position struct {
	X, Y, Z, E float64
}

// Distances holds accumulated travel per axis. X/Y/Z are running sums;
// E holds only the most recent command's extrusion delta magnitude. The
// extruder slot is overwritten, not summed; downstream bookkeeping
// depends on it staying that way.
type Distances struct {
	X, Y, Z, E float64
}

// Map renders the distances keyed by lowercase axis name.
func (d Distances) Map() map[string]float64 {
	return map[string]float64{"x": d.X, "y": d.Y, "z": d.Z, "e": d.E}
}

// Add returns the per-axis sum of d and o.
func (d Distances) Add(o Distances) Distances {
	return Distances{X: d.X + o.X, Y: d.Y + o.Y, Z: d.Z + o.Z, E: d.E + o.E}
}

// Sub returns the per-axis difference d - o.
func (d Distances) Sub(o Distances) Distances {
	return Distances{X: d.X - o.X, Y: d.Y - o.Y, Z: d.Z - o.Z, E: d.E - o.E}
}

// ScanBounds carries the optional early-stop limits for a Scan call.
// The zero value means unlimited.
type ScanBounds struct {
	// StopAtByte stops the scan before consuming any further line once
	// the consumed byte offset has reached it.
	StopAtByte    int64
	HasStopAtByte bool

	// MaxExtrusion stops the scan once the extrusion accumulated by this
	// call strictly exceeds it.
	MaxExtrusion    float64
	HasMaxExtrusion bool
}

// StopAtByte bounds a scan to the given byte offset.
func StopAtByte(n int64) ScanBounds {
	return ScanBounds{StopAtByte: n, HasStopAtByte: true}
}

// MaxExtrusion bounds a scan to the given extrusion budget.
func MaxExtrusion(v float64) ScanBounds {
	return ScanBounds{MaxExtrusion: v, HasMaxExtrusion: true}
}

// Stats counts non-fatal scan diagnostics. Malformed parameters and
// unrecognized commands are dropped silently during the scan; these
// counters are the only trace they leave.
type Stats struct {
	Lines        int64 // lines consumed
	Commands     int64 // recognized commands applied
	Malformed    int64 // parameter tokens dropped
	Unrecognized int64 // lines skipped
}

// commands is the recognized vocabulary. Lines led by anything else are
// skipped, which implicitly tolerates comments, checksums and extended
// commands. Matching is case-sensitive.
var commands = map[string]struct{}{
	"G90": {}, // absolute positioning, linear and extruder
	"G91": {}, // relative positioning, linear and extruder
	"G92": {}, // set position
	"G1":  {}, // linear move
	"G0":  {}, // rapid move, identical for distance purposes
	"M82": {}, // absolute extruder mode
	"M83": {}, // relative extruder mode
}

// Reader scans a motion program and accumulates traveled distances. It is
// resumable: successive Scan calls continue where the previous one left
// off, keeping mode, position and distance state. A Reader must not be
// used from multiple goroutines at once.
type Reader struct {
	src  *bufio.Reader
	file *os.File // set only when the Reader opened the file itself
	name string

	offset int64 // bytes consumed, line terminators included
	eof    bool

	linearMode   PositioningMode
	extruderMode PositioningMode

	last   Position
	totals Distances
	stats  Stats
}

// NewReader opens path and returns a Reader positioned at its start.
// Both positioning modes start absolute; positions and distances start
// at zero.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InputUnavailableError(path, err)
	}
	r := NewReaderFrom(f, path)
	r.file = f
	return r, nil
}

// NewReaderFrom wraps an already-open stream. The caller keeps ownership
// of src; Close will not release it. name appears in error messages only.
func NewReaderFrom(src io.Reader, name string) *Reader {
	return &Reader{
		src:  bufio.NewReader(src),
		name: name,
	}
}

// Close releases the file if the Reader opened it itself.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Scan consumes lines until end of input, the byte-offset bound, or the
// extrusion budget is exceeded, and returns the distance accumulated by
// this call alone. Lifetime totals are available via Totals.
//
// The byte-offset check runs before each read: a bound at or below the
// current offset returns the zero mapping without consuming anything,
// and a line whose consumption crosses the bound is still processed in
// full (lines are atomic). The extrusion check runs after each
// recognized command.
func (r *Reader) Scan(bounds ScanBounds) (Distances, error) {
	start := r.totals

	for {
		if bounds.HasStopAtByte && r.offset >= bounds.StopAtByte {
			break
		}
		if r.eof {
			break
		}

		line, err := r.src.ReadString('\n')
		if len(line) > 0 {
			r.offset += int64(len(line))
			r.stats.Lines++
			if r.process(line) && bounds.HasMaxExtrusion && r.totals.E-start.E > bounds.MaxExtrusion {
				if err == io.EOF {
					r.eof = true
				}
				break
			}
		}
		if err == io.EOF {
			r.eof = true
			break
		}
		if err != nil {
			return Distances{}, errors.InputUnavailableError(r.name, err)
		}
	}

	return r.totals.Sub(start), nil
}

// process tokenizes one raw line and applies it. Returns true when the
// line carried a recognized command.
func (r *Reader) process(raw string) bool {
	line := strings.TrimRight(raw, "\r\n")
	tokens := pool.GetTokens()
	*tokens = splitSpaces(*tokens, line)
	toks := *tokens
	if _, ok := commands[toks[0]]; !ok {
		r.stats.Unrecognized++
		pool.PutTokens(tokens)
		return false
	}

	moves := r.parseParams(toks[1:])

	switch toks[0] {
	case "G90":
		r.linearMode = Absolute
		r.extruderMode = Absolute
	case "G91":
		r.linearMode = Relative
		r.extruderMode = Relative
	case "M82":
		r.extruderMode = Absolute
	case "M83":
		r.extruderMode = Relative
	case "G92":
		r.setPosition(moves)
	case "G0", "G1":
		r.applyMove(moves)
	}
	pool.PutTokens(tokens)
	pool.PutParams(moves)
	r.stats.Commands++
	return true
}

// splitSpaces appends the space-separated fields of line to dst. Empty
// fields are kept, so a leading space still shifts the command slot,
// exactly as strings.Split would have it.
func splitSpaces(dst []string, line string) []string {
	for {
		i := strings.IndexByte(line, ' ')
		if i < 0 {
			return append(dst, line)
		}
		dst = append(dst, line[:i])
		line = line[i+1:]
	}
}

// parseParams parses "X12.5"-style tokens into a selector-keyed map
// drawn from the pool; process returns it once the command is applied.
// Tokens whose numeric suffix fails to parse are dropped; empty tokens
// from doubled spaces are ignored. Duplicate selectors keep the last
// value.
func (r *Reader) parseParams(tokens []string) map[byte]float64 {
	var moves map[byte]float64
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			r.stats.Malformed++
			continue
		}
		if moves == nil {
			moves = pool.GetParams()
		}
		moves[tok[0]] = v
	}
	return moves
}

// applyMove applies a G0/G1 move. Linear axes accumulate |new - last| in
// absolute mode or the raw value in relative mode, then record the new
// coordinate. The extruder slot is assigned the delta magnitude, keeping
// only the most recent extrusion move.
func (r *Reader) applyMove(moves map[byte]float64) {
	linear := [3]struct {
		sel  byte
		pos  *float64
		dist *float64
	}{
		{'X', &r.last.X, &r.totals.X},
		{'Y', &r.last.Y, &r.totals.Y},
		{'Z', &r.last.Z, &r.totals.Z},
	}
	for _, ax := range linear {
		v, ok := moves[ax.sel]
		if !ok {
			continue
		}
		if r.linearMode == Absolute {
			*ax.dist += math.Abs(v - *ax.pos)
		} else {
			*ax.dist += v
		}
		*ax.pos = v
	}

	if v, ok := moves['E']; ok {
		delta := v
		if r.extruderMode == Absolute {
			delta = v - r.last.E
		}
		r.totals.E = math.Abs(delta)
		r.last.E = v
	}
}

// setPosition applies G92: re-origin the given axes without touching any
// accumulated distance.
func (r *Reader) setPosition(moves map[byte]float64) {
	axes := [4]struct {
		sel byte
		pos *float64
	}{
		{'X', &r.last.X},
		{'Y', &r.last.Y},
		{'Z', &r.last.Z},
		{'E', &r.last.E},
	}
	for _, ax := range axes {
		if v, ok := moves[ax.sel]; ok {
			*ax.pos = v
		}
	}
}

// Totals returns the lifetime accumulated distances across all Scan calls.
func (r *Reader) Totals() Distances { return r.totals }

// Offset returns the number of bytes consumed so far, terminators included.
func (r *Reader) Offset() int64 { return r.offset }

// Stats returns the scan diagnostics counters.
func (r *Reader) Stats() Stats { return r.stats }

// LastPosition returns the last coordinate recorded per axis.
func (r *Reader) LastPosition() Position { return r.last }

// Modes returns the current linear and extruder positioning modes.
func (r *Reader) Modes() (linear, extruder PositioningMode) {
	return r.linearMode, r.extruderMode
}

// ScanFile scans a whole file, or up to the given bounds, and returns the
// accumulated distances. The file is closed on all paths.
func ScanFile(path string, bounds ScanBounds) (Distances, error) {
	r, err := NewReader(path)
	if err != nil {
		return Distances{}, err
	}
	defer r.Close()
	return r.Scan(bounds)
}
