// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"motion-minder-go/pkg/errors"
)

// FileStore is a MemoryStore persisted as a JSON snapshot. Mutations stay
// in memory until Save is called explicitly.
type FileStore struct {
	MemoryStore
	path string

	// Backup keeps a timestamped copy of the previous snapshot on every
	// Save.
	Backup bool
}

// Open loads the snapshot at path. A missing or empty file yields a fresh
// store; an unreadable or undecodable one is an error.
func Open(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	fs.values = make(map[string]float64)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, errors.StoreOpenError(path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, errors.StoreDecodeError(path, err)
	}
	return fs, nil
}

// Path returns the snapshot location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the snapshot atomically: temp file in the same directory,
// then rename over the previous snapshot. The directory is created if
// needed.
func (s *FileStore) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return errors.StoreSaveError(s.path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.StoreSaveError(s.path, err)
	}

	if s.Backup {
		if err := s.createBackup(); err != nil {
			return errors.StoreSaveError(s.path, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".motion-minder-*.tmp")
	if err != nil {
		return errors.StoreSaveError(s.path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.StoreSaveError(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.StoreSaveError(s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.StoreSaveError(s.path, err)
	}
	return nil
}

// createBackup copies the current snapshot to a timestamped sibling,
// e.g. motion_minder.json -> motion_minder-20260823_153000.json.
func (s *FileStore) createBackup() error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	return os.WriteFile(BackupPath(s.path, time.Now()), data, 0o644)
}

// BackupPath derives the timestamped backup name for a snapshot path.
func BackupPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s-%s%s", base, now.Format("20060102_150405"), ext)
}

var _ Store = (*FileStore)(nil)
