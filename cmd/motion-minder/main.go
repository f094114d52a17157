// motion-minder tracks the lifetime travel of a 3D printer's motion
// axes by scanning the G-code it prints, and keeps per-axis maintenance
// thresholds against those running totals.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
//
// Usage:
//
//	motion-minder [options]
//
// Options:
//
//	-config string           Config file with a [motion_minder] section
//	-db string               Odometer database file
//	-stats                   Print the odometer report
//	-set-odometer string     Set the odometer of the selected axes to this value
//	-set-maintenance float   Arm maintenance this far ahead of the current odometer
//	-next-maintenance float  Alias of -set-maintenance
//	-axes string             Axes to operate on (default "xyz")
//	-unit string             Unit for values: mm, m or km (default "km")
//	-scan string             Scan a gcode file and print its travel, database untouched
//	-stop-at int             Stop -scan once this byte offset has been consumed
//	-max-extrusion float     Stop -scan once this much extrusion in mm is exceeded
//	-process-history string  Replay a print history manifest into the odometer
//	-gcode-folder string     Folder history job filenames resolve against
//	-reset                   Clear the stored values of the selected axes
//	-metrics                 Dump collected metrics to stderr before exiting
//	-logfile string          Rotating log file path
//	-v                       Enable debug logging
//
// Examples:
//
//	# Show how far each axis has traveled
//	motion-minder -stats
//
//	# Arm maintenance 30 km out on X and Y
//	motion-minder -set-maintenance 30 -axes xy -unit km
//
//	# Measure one file without touching the database
//	motion-minder -scan ~/printer_data/gcodes/benchy.gcode
//
//	# Backfill the odometer from the printer's job history
//	motion-minder -process-history ~/printer_data/history.json
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"motion-minder-go/pkg/config"
	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/files"
	"motion-minder-go/pkg/gcode"
	"motion-minder-go/pkg/history"
	"motion-minder-go/pkg/log"
	"motion-minder-go/pkg/metrics"
	"motion-minder-go/pkg/odometer"
	"motion-minder-go/pkg/report"
	"motion-minder-go/pkg/store"
)

func main() {
	_ = godotenv.Load()

	// Command line flags
	configFile := flag.String("config", "", "Config file with a [motion_minder] section")
	dbPath := flag.String("db", "", "Odometer database file")
	showStats := flag.Bool("stats", false, "Print the odometer report")
	setOdometer := flag.String("set-odometer", "", "Set the odometer of the selected axes to this value")
	setMaintenance := flag.Float64("set-maintenance", 0, "Arm maintenance this far ahead of the current odometer")
	nextMaintenance := flag.Float64("next-maintenance", 0, "Alias of -set-maintenance")
	axesFlag := flag.String("axes", "xyz", "Axes to operate on")
	unitFlag := flag.String("unit", "km", "Unit for values: mm, m or km")
	scanFile := flag.String("scan", "", "Scan a gcode file and print its travel, database untouched")
	stopAt := flag.Int64("stop-at", -1, "Stop -scan once this byte offset has been consumed")
	maxExtrusion := flag.Float64("max-extrusion", -1, "Stop -scan once this much extrusion in mm is exceeded")
	processHistory := flag.String("process-history", "", "Replay a print history manifest into the odometer")
	gcodeFolder := flag.String("gcode-folder", "", "Folder history job filenames resolve against")
	reset := flag.Bool("reset", false, "Clear the stored values of the selected axes")
	dumpMetrics := flag.Bool("metrics", false, "Dump collected metrics to stderr before exiting")
	logFile := flag.String("logfile", "", "Rotating log file path")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	// Resolve settings: defaults, then config file, then environment,
	// then command line flags.
	settings, err := config.LoadSettings(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	settings.ApplyEnv()
	if *dbPath != "" {
		settings.DBPath = config.ExpandUser(*dbPath)
	}
	if *gcodeFolder != "" {
		settings.GCodeRoot = config.ExpandUser(*gcodeFolder)
	}
	if *logFile != "" {
		settings.LogFile = config.ExpandUser(*logFile)
	}

	// Set up logging before any component grabs a derived logger.
	logger := log.New("motion-minder")
	if settings.LogFile != "" {
		tee, writer, err := log.NewTeeLogger("motion-minder", log.RotationConfig{
			Filename:   settings.LogFile,
			MaxSize:    settings.LogMaxSizeMB,
			MaxBackups: settings.LogBackupCount,
		})
		if err != nil {
			logger.Warn("Log file %s unavailable: %v", settings.LogFile, err)
		} else {
			defer writer.Close()
			logger = tee
		}
	}
	logger.SetLevel(log.ParseLevel(settings.LogLevel))
	log.ConfigureFromEnv(logger)
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}
	log.SetDefaultLogger(logger)

	logger.Debug("Motion Minder starting")
	logger.Debug("Database: %s", settings.DBPath)
	logger.Debug("Gcode folder: %s", settings.GCodeRoot)

	// Parameters are validated in a fixed order before any state is
	// touched: unit first, axes second, value signs last.
	unit, err := odometer.ParseUnit(*unitFlag)
	if err != nil {
		usageError("%v", err)
	}
	axes, err := odometer.ParseAxes(*axesFlag)
	if err != nil {
		usageError("%v", err)
	}

	var odometerValue float64
	if *setOdometer != "" {
		odometerValue, err = strconv.ParseFloat(*setOdometer, 64)
		if err != nil {
			usageError("invalid -set-odometer value %q", *setOdometer)
		}
		if odometerValue < 0 {
			usageError("odometer value must not be negative, got %v", odometerValue)
		}
	}
	maintenanceValue := *setMaintenance
	if maintenanceValue == 0 {
		maintenanceValue = *nextMaintenance
	}
	if maintenanceValue < 0 {
		usageError("maintenance interval must be positive, got %v", maintenanceValue)
	}

	modes := 0
	for _, selected := range []bool{
		*showStats,
		*setOdometer != "",
		maintenanceValue != 0,
		*scanFile != "",
		*processHistory != "",
		*reset,
	} {
		if selected {
			modes++
		}
	}
	if modes == 0 {
		usageError("no operation requested")
	}
	if modes > 1 {
		usageError("choose one operation")
	}

	switch {
	case *scanFile != "":
		scanOne(logger, config.ExpandUser(*scanFile), *stopAt, *maxExtrusion)

	case *setOdometer != "":
		st, odo := openOdometer(logger, settings)
		mm := unit.ToMM(odometerValue)
		for _, axis := range axes {
			if err := odo.SetValue(axis, mm); err != nil {
				fatal(logger, "%v", err)
			}
			logger.Info("Odometer for axis %s reset to %v %s", axis, odometerValue, unit)
		}
		saveStore(logger, st)

	case maintenanceValue != 0:
		st, odo := openOdometer(logger, settings)
		if err := odo.SetMaintenance(axes, maintenanceValue, unit); err != nil {
			if errors.Is(err, errors.ErrInvalidValue) {
				usageError("%v", err)
			}
			fatal(logger, "%v", err)
		}
		saveStore(logger, st)

	case *processHistory != "":
		if settings.GCodeRoot == "" {
			fatal(logger, "Gcode folder not set. Pass -gcode-folder or set gcode_root in the config.")
		}
		st, odo := openOdometer(logger, settings)
		manager, err := files.NewManager(settings.GCodeRoot)
		if err != nil {
			fatal(logger, "%v", err)
		}
		result, err := history.NewProcessor(manager, odo).ProcessManifest(config.ExpandUser(*processHistory))
		if err != nil {
			fatal(logger, "%v", err)
		}
		saveStore(logger, st)
		collected := metrics.GlobalMetrics()
		collected.AddScanCounts(result.Stats.Lines, result.Stats.Commands,
			result.Stats.Malformed, result.Stats.Unrecognized)
		for axis, mm := range result.Odometer {
			collected.SetOdometer(axis, mm)
		}
		printReport(logger, settings, odo, axes)

	case *showStats:
		_, odo := openOdometer(logger, settings)
		reports := printReport(logger, settings, odo, axes)
		collected := metrics.GlobalMetrics()
		for _, rep := range reports {
			collected.SetOdometer(rep.Axis, rep.Odometer)
		}

	case *reset:
		st, odo := openOdometer(logger, settings)
		if err := odo.Reset(axes); err != nil {
			fatal(logger, "%v", err)
		}
		saveStore(logger, st)
	}

	if *dumpMetrics {
		fmt.Fprint(os.Stderr, metrics.GlobalMetrics().Gather())
	}
}

// scanOne measures a single file and prints the per-axis travel. The
// database is never opened: this is the dry-run half of the tool.
func scanOne(logger *log.Logger, path string, stopAt int64, maxExtrusion float64) {
	collected := metrics.GlobalMetrics()
	done := collected.ScanTimer()

	reader, err := gcode.NewReader(path)
	if err != nil {
		fatal(logger, "%v", err)
	}
	defer reader.Close()

	var bounds gcode.ScanBounds
	if stopAt >= 0 {
		bounds.StopAtByte = stopAt
		bounds.HasStopAtByte = true
	}
	if maxExtrusion >= 0 {
		bounds.MaxExtrusion = maxExtrusion
		bounds.HasMaxExtrusion = true
	}

	distances, err := reader.Scan(bounds)
	done()
	if err != nil {
		fatal(logger, "%v", err)
	}
	counts := reader.Stats()
	collected.AddScanCounts(counts.Lines, counts.Commands, counts.Malformed, counts.Unrecognized)
	logger.Debug("Scan consumed %d lines, %d commands (%d unrecognized, %d malformed parameters)",
		counts.Lines, counts.Commands, counts.Unrecognized, counts.Malformed)

	fmt.Printf("X: %.3f mm\n", distances.X)
	fmt.Printf("Y: %.3f mm\n", distances.Y)
	fmt.Printf("Z: %.3f mm\n", distances.Z)
	fmt.Printf("E: %.3f mm\n", distances.E)
}

// printReport renders the odometer report for the selected axes to
// stdout and returns the per-axis entries it was built from.
func printReport(logger *log.Logger, settings *config.Settings, odo *odometer.Odometer, axes []string) []odometer.AxisReport {
	var (
		renderer *report.Renderer
		err      error
	)
	if settings.ReportTemplate != "" {
		renderer, err = report.NewFromFile(settings.ReportTemplate)
	} else {
		renderer, err = report.New()
	}
	if err != nil {
		fatal(logger, "%v", err)
	}
	reports, err := odo.Report(axes)
	if err != nil {
		fatal(logger, "%v", err)
	}
	out, err := renderer.Render(reports)
	if err != nil {
		fatal(logger, "%v", err)
	}
	fmt.Print(out)
	return reports
}

func openOdometer(logger *log.Logger, settings *config.Settings) (*store.FileStore, *odometer.Odometer) {
	st, err := store.Open(settings.DBPath)
	if err != nil {
		fatal(logger, "%v", err)
	}
	return st, odometer.New(st, odometer.Config{Axes: settings.Axes})
}

func saveStore(logger *log.Logger, st *store.FileStore) {
	if err := st.Save(); err != nil {
		fatal(logger, "%v", err)
	}
}

func usageError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	flag.Usage()
	os.Exit(2)
}

func fatal(logger *log.Logger, format string, args ...interface{}) {
	logger.Error(format, args...)
	os.Exit(1)
}
