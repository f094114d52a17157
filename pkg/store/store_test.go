// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"motion-minder-go/pkg/errors"
)

func TestMemoryStoreBasic(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get("odometer_x"); ok {
		t.Error("expected missing key")
	}

	s.Set("odometer_x", 123.5)
	v, ok := s.Get("odometer_x")
	if !ok || v != 123.5 {
		t.Errorf("Get = %v, %v; want 123.5, true", v, ok)
	}

	s.Set("odometer_x", 200)
	if v, _ := s.Get("odometer_x"); v != 200 {
		t.Errorf("overwrite failed, got %v", v)
	}

	s.Delete("odometer_x")
	if _, ok := s.Get("odometer_x"); ok {
		t.Error("expected key to be deleted")
	}
	s.Delete("odometer_x") // deleting again is a no-op
}

func TestMemoryStoreKeysSorted(t *testing.T) {
	s := NewMemoryStore()
	s.Set("odometer_z", 1)
	s.Set("odometer_x", 2)
	s.Set("odometer_y", 3)

	keys := s.Keys()
	want := []string{"odometer_x", "odometer_y", "odometer_z"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var s MemoryStore
	if _, ok := s.Get("k"); ok {
		t.Error("zero store should be empty")
	}
	s.Set("k", 1)
	if v, ok := s.Get("k"); !ok || v != 1 {
		t.Errorf("zero store Set/Get failed: %v, %v", v, ok)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion_minder.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open fresh failed: %v", err)
	}
	s.Set("odometer_x", 1234.567)
	s.Set("next_maintenance_x", 2e6)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if v, ok := loaded.Get("odometer_x"); !ok || v != 1234.567 {
		t.Errorf("odometer_x = %v, %v; want 1234.567, true", v, ok)
	}
	if v, ok := loaded.Get("next_maintenance_x"); !ok || v != 2e6 {
		t.Errorf("next_maintenance_x = %v, %v; want 2e6, true", v, ok)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("fresh store should be empty, got %v", s.Keys())
	}
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("empty file should not be an error: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("store from empty file should be empty, got %v", s.Keys())
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
	if !errors.Is(err, errors.ErrStoreDecode) {
		t.Errorf("error code = %v, want STORE_DECODE", err)
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "db.json"))
	s.Set("odometer_x", 1)
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Set("odometer_x", 2)
	if err := s.Save(); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "db.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only db.json, got %v", names)
	}

	loaded, _ := Open(filepath.Join(dir, "db.json"))
	if v, _ := loaded.Get("odometer_x"); v != 2 {
		t.Errorf("latest snapshot not saved, got %v", v)
	}
}

func TestFileStoreBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion_minder.json")

	s, _ := Open(path)
	s.Backup = true
	s.Set("odometer_x", 1)
	if err := s.Save(); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	// First save had no previous snapshot, so no backup yet.
	matches, _ := filepath.Glob(filepath.Join(dir, "motion_minder-*.json"))
	if len(matches) != 0 {
		t.Errorf("unexpected backup after first save: %v", matches)
	}

	s.Set("odometer_x", 2)
	if err := s.Save(); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	matches, _ = filepath.Glob(filepath.Join(dir, "motion_minder-*.json"))
	if len(matches) != 1 {
		t.Fatalf("expected one backup, got %v", matches)
	}

	// The backup holds the previous value.
	prev, err := Open(matches[0])
	if err != nil {
		t.Fatalf("opening backup failed: %v", err)
	}
	if v, _ := prev.Get("odometer_x"); v != 1 {
		t.Errorf("backup odometer_x = %v, want 1", v)
	}
}

func TestFileStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "db.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Set("odometer_x", 7)
	if err := s.Save(); err != nil {
		t.Fatalf("Save should create missing directories: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot not written: %v", err)
	}
}

func TestBackupPath(t *testing.T) {
	now := time.Date(2026, 8, 23, 15, 30, 0, 0, time.UTC)
	got := BackupPath("/data/motion_minder.json", now)
	want := "/data/motion_minder-20260823_153000.json"
	if got != want {
		t.Errorf("BackupPath = %s, want %s", got, want)
	}
}
