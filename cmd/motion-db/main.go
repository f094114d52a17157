// motion-db inspects and maintains the odometer snapshot directly,
// below the odometer bookkeeping layer. It is the recovery tool: dump
// what the database holds, drop the values of an axis, or take a
// timestamped copy before risky surgery.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
//
// Usage:
//
//	motion-db [options]
//
// Options:
//
//	-db string           Odometer database file (default ~/printer_data/database/motion_minder.json)
//	-dump                Print every stored key and value
//	-delete-axes string  Delete the stored values of these axes
//	-backup              Copy the database to a timestamped sibling file
//	-v                   Enable debug logging
//
// Examples:
//
//	# Inspect the snapshot
//	motion-db -dump
//
//	# Drop everything recorded for Z
//	motion-db -delete-axes z
//
//	# Keep a copy before editing by hand
//	motion-db -backup
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"motion-minder-go/pkg/config"
	"motion-minder-go/pkg/log"
	"motion-minder-go/pkg/odometer"
	"motion-minder-go/pkg/store"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "", "Odometer database file")
	dump := flag.Bool("dump", false, "Print every stored key and value")
	deleteAxes := flag.String("delete-axes", "", "Delete the stored values of these axes")
	backup := flag.Bool("backup", false, "Copy the database to a timestamped sibling file")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	settings := config.DefaultSettings()
	settings.ApplyEnv()
	if *dbPath != "" {
		settings.DBPath = config.ExpandUser(*dbPath)
	}

	logger := log.New("motion-db")
	log.ConfigureFromEnv(logger)
	if *verbose {
		logger.SetLevel(log.DEBUG)
	}
	log.SetDefaultLogger(logger)

	modes := 0
	for _, selected := range []bool{*dump, *deleteAxes != "", *backup} {
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
	case *dump:
		st, err := store.Open(settings.DBPath)
		if err != nil {
			fatal(logger, "%v", err)
		}
		for _, key := range st.Keys() {
			value, _ := st.Get(key)
			fmt.Printf("%s = %s\n", key, strconv.FormatFloat(value, 'f', -1, 64))
		}

	case *deleteAxes != "":
		axes, err := odometer.ParseAxes(*deleteAxes)
		if err != nil {
			usageError("%v", err)
		}
		st, err := store.Open(settings.DBPath)
		if err != nil {
			fatal(logger, "%v", err)
		}
		for _, axis := range axes {
			for _, key := range odometer.AxisKeys(axis) {
				st.Delete(key)
			}
			logger.Info("Deleted stored values for axis %s", axis)
		}
		if err := st.Save(); err != nil {
			fatal(logger, "%v", err)
		}

	case *backup:
		data, err := os.ReadFile(settings.DBPath)
		if err != nil {
			fatal(logger, "%v", err)
		}
		target := store.BackupPath(settings.DBPath, time.Now())
		if err := os.WriteFile(target, data, 0o644); err != nil {
			fatal(logger, "%v", err)
		}
		logger.Info("Database copied to %s", target)
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
