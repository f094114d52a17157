// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// SectionName is the config section the toolkit reads. The file itself is
// normally a moonraker.conf shared with other components, so foreign
// sections are expected and never reported as unused.
const SectionName = "motion_minder"

// Defaults follow the standard printer_data layout.
const (
	DefaultDBPath    = "~/printer_data/database/motion_minder.json"
	DefaultGCodeRoot = "~/printer_data/gcodes"
	DefaultLogFile   = "~/printer_data/logs/motion_minder.log"
)

// Settings holds the resolved [motion_minder] configuration. It is built
// once at startup and passed to the components that need it; nothing reads
// the config file after that.
type Settings struct {
	// DBPath is the odometer snapshot file.
	DBPath string

	// GCodeRoot is the folder job filenames are resolved against.
	GCodeRoot string

	// Axes are the tracked axis names (lowercase).
	Axes []string

	// LogFile receives rotating file logs; empty disables file logging.
	LogFile string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogMaxSizeMB and LogBackupCount bound the rotating log file.
	LogMaxSizeMB   int
	LogBackupCount int

	// ReportTemplate is an optional template file overriding the built-in
	// odometer report layout.
	ReportTemplate string
}

// DefaultSettings returns Settings with the stock printer_data paths.
func DefaultSettings() *Settings {
	return &Settings{
		DBPath:         ExpandUser(DefaultDBPath),
		GCodeRoot:      ExpandUser(DefaultGCodeRoot),
		Axes:           []string{"x", "y", "z"},
		LogFile:        ExpandUser(DefaultLogFile),
		LogLevel:       "info",
		LogMaxSizeMB:   5,
		LogBackupCount: 5,
	}
}

// SettingsFromConfig resolves Settings from a parsed Config. A missing
// [motion_minder] section yields the defaults.
func SettingsFromConfig(cfg *Config) (*Settings, error) {
	s := DefaultSettings()
	sec := cfg.GetSectionOptional(SectionName)
	if sec == nil {
		return s, nil
	}

	dbPath, err := sec.Get("db_path", s.DBPath)
	if err != nil {
		return nil, err
	}
	s.DBPath = ExpandUser(dbPath)

	gcodeRoot, err := sec.Get("gcode_root", s.GCodeRoot)
	if err != nil {
		return nil, err
	}
	s.GCodeRoot = ExpandUser(gcodeRoot)

	axes, err := sec.GetList("axes", ",", s.Axes)
	if err != nil {
		return nil, err
	}
	for i, a := range axes {
		axes[i] = strings.ToLower(a)
	}
	s.Axes = axes

	logFile, err := sec.Get("log_file", s.LogFile)
	if err != nil {
		return nil, err
	}
	s.LogFile = ExpandUser(logFile)

	s.LogLevel, err = sec.GetChoice("log_level", []string{"debug", "info", "warn", "error"}, s.LogLevel)
	if err != nil {
		return nil, err
	}

	minSize := 1
	s.LogMaxSizeMB, err = sec.GetIntWithBounds("log_max_size_mb", &minSize, nil, s.LogMaxSizeMB)
	if err != nil {
		return nil, err
	}

	minBackups := 0
	s.LogBackupCount, err = sec.GetIntWithBounds("log_backup_count", &minBackups, nil, s.LogBackupCount)
	if err != nil {
		return nil, err
	}

	tmpl, err := sec.Get("report_template", "")
	if err != nil {
		return nil, err
	}
	s.ReportTemplate = ExpandUser(tmpl)

	return s, nil
}

// LoadSettings reads the config file at path and resolves Settings.
// An empty path yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return SettingsFromConfig(cfg)
}

// ApplyEnv overrides settings from MOTION_MINDER_* environment variables.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv("MOTION_MINDER_DB_PATH"); v != "" {
		s.DBPath = ExpandUser(v)
	}
	if v := os.Getenv("MOTION_MINDER_GCODE_ROOT"); v != "" {
		s.GCodeRoot = ExpandUser(v)
	}
	if v := os.Getenv("MOTION_MINDER_LOG_FILE"); v != "" {
		s.LogFile = ExpandUser(v)
	}
}

// ExpandUser replaces a leading "~" with the current home directory.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
