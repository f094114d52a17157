// Package history replays a printer's recorded print jobs through the
// motion scanner, so a database seeded mid-life can be backfilled from
// what the machine has already printed.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package history

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/files"
	"motion-minder-go/pkg/gcode"
	"motion-minder-go/pkg/log"
	"motion-minder-go/pkg/odometer"
)

// Job status values as they appear in history manifests.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusError      = "error"
)

// Job is one record of a print history manifest.
type Job struct {
	JobID         string   `json:"job_id"`
	Exists        bool     `json:"exists"`
	EndTime       *float64 `json:"end_time"`
	FilamentUsed  float64  `json:"filament_used"`
	Filename      string   `json:"filename"`
	PrintDuration float64  `json:"print_duration"`
	Status        string   `json:"status"` // "in_progress", "completed", "cancelled", "error"
	StartTime     float64  `json:"start_time"`
	TotalDuration float64  `json:"total_duration"`
}

// JobTotals holds aggregated job statistics.
type JobTotals struct {
	TotalJobs         int     `json:"total_jobs"`
	TotalTime         float64 `json:"total_time"`
	TotalPrintTime    float64 `json:"total_print_time"`
	TotalFilamentUsed float64 `json:"total_filament_used"`
	LongestJob        float64 `json:"longest_job"`
	LongestPrint      float64 `json:"longest_print"`
}

// Totals aggregates job statistics over a manifest.
func Totals(jobs []Job) JobTotals {
	var totals JobTotals
	for _, job := range jobs {
		totals.TotalJobs++
		totals.TotalTime += job.TotalDuration
		totals.TotalPrintTime += job.PrintDuration
		totals.TotalFilamentUsed += job.FilamentUsed

		if job.TotalDuration > totals.LongestJob {
			totals.LongestJob = job.TotalDuration
		}
		if job.PrintDuration > totals.LongestPrint {
			totals.LongestPrint = job.PrintDuration
		}
	}
	return totals
}

// LoadManifest reads a history manifest from disk. Three shapes are
// accepted: a bare job array, {"jobs": [...]}, and the API response
// form {"result": {"jobs": [...]}}. Records without a job_id get one
// assigned.
func LoadManifest(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ManifestError(path, err)
	}
	jobs, err := decodeManifest(data)
	if err != nil {
		return nil, errors.ManifestError(path, err)
	}
	for i := range jobs {
		if jobs[i].JobID == "" {
			jobs[i].JobID = uuid.NewString()
		}
	}
	return jobs, nil
}

func decodeManifest(data []byte) ([]Job, error) {
	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err == nil {
		return jobs, nil
	}

	var wrapped struct {
		Jobs   []Job `json:"jobs"`
		Result *struct {
			Jobs []Job `json:"jobs"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Result != nil {
		return wrapped.Result.Jobs, nil
	}
	if wrapped.Jobs != nil {
		return wrapped.Jobs, nil
	}
	return nil, fmt.Errorf("no job list found")
}

// JobResult records how one job fared during a replay.
type JobResult struct {
	JobID     string
	Filename  string
	Distances gcode.Distances
	Skipped   bool
}

// Result is the outcome of one history replay.
type Result struct {
	// Distances summed over every processed job, and the scanner
	// statistics accumulated alongside.
	Distances gcode.Distances
	Stats     gcode.Stats

	// Odometer holds the per-axis lifetime totals after the fold.
	Odometer map[string]float64

	// Jobs holds one entry per manifest record, in manifest order.
	Jobs []JobResult

	Processed int
	Skipped   int
}

// Processor drives a history replay: resolve each job's file, scan it,
// and fold the summed distances into the odometer in one step.
type Processor struct {
	files  *files.Manager
	odo    *odometer.Odometer
	logger *log.Logger
}

// NewProcessor creates a Processor over a file manager and an odometer.
func NewProcessor(fm *files.Manager, odo *odometer.Odometer) *Processor {
	return &Processor{
		files:  fm,
		odo:    odo,
		logger: log.GetLogger("history"),
	}
}

// ProcessManifest loads a manifest and replays it.
func (p *Processor) ProcessManifest(path string) (*Result, error) {
	jobs, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return p.Process(jobs)
}

// Process replays the given jobs. Jobs whose file is gone are skipped
// with a warning; a job that did not run to completion is bounded by
// the filament it actually extruded. The odometer is written once,
// after every job has been scanned.
func (p *Processor) Process(jobs []Job) (*Result, error) {
	p.logger.Info("Processing %d history jobs, this may take a while", len(jobs))

	res := &Result{Jobs: make([]JobResult, 0, len(jobs))}
	for _, job := range jobs {
		d, stats, ok := p.processJob(job)
		res.Jobs = append(res.Jobs, JobResult{
			JobID:     job.JobID,
			Filename:  job.Filename,
			Distances: d,
			Skipped:   !ok,
		})
		if !ok {
			res.Skipped++
			continue
		}
		res.Distances = res.Distances.Add(d)
		res.Stats.Lines += stats.Lines
		res.Stats.Commands += stats.Commands
		res.Stats.Malformed += stats.Malformed
		res.Stats.Unrecognized += stats.Unrecognized
		res.Processed++
	}

	res.Odometer = p.odo.Add(res.Distances)
	p.logger.Info("History processed: %d jobs, %d skipped", res.Processed, res.Skipped)
	return res, nil
}

func (p *Processor) processJob(job Job) (gcode.Distances, gcode.Stats, bool) {
	if !job.Exists {
		p.logger.Debug("Skipping %s: file no longer exists", job.Filename)
		return gcode.Distances{}, gcode.Stats{}, false
	}

	full, err := p.files.Resolve(job.Filename)
	if err != nil {
		p.logger.Warn("Skipping %s: %v", job.Filename, err)
		return gcode.Distances{}, gcode.Stats{}, false
	}

	r, err := gcode.NewReader(full)
	if err != nil {
		p.logger.Warn("Skipping %s: %v", job.Filename, err)
		return gcode.Distances{}, gcode.Stats{}, false
	}
	defer r.Close()

	// An interrupted job only traveled as far as the filament it fed.
	bounds := gcode.ScanBounds{}
	if job.Status != StatusCompleted {
		bounds = gcode.MaxExtrusion(job.FilamentUsed)
	}

	d, err := r.Scan(bounds)
	if err != nil {
		p.logger.Warn("Skipping %s: %v", job.Filename, err)
		return gcode.Distances{}, gcode.Stats{}, false
	}
	return d, r.Stats(), true
}
