// Package files resolves and inspects print files under a single
// gcode root: listing, safe path resolution, and slicer metadata
// parsed from file headers.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"motion-minder-go/pkg/errors"
	"motion-minder-go/pkg/log"
)

// metaCacheSize bounds the metadata cache. History processing touches
// each file once per run, so a modest cap is enough to keep repeated
// runs from re-reading headers.
const metaCacheSize = 1024

// headerScanSize is how much of a file head is searched for slicer
// comments. Slicers put their banner in the first few KB.
const headerScanSize = 64 * 1024

// Metadata holds what the slicer wrote into a file header.
type Metadata struct {
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Modified float64 `json:"modified"`
	Size     int64   `json:"size"`

	Slicer        string `json:"slicer,omitempty"`
	SlicerVersion string `json:"slicer_version,omitempty"`

	FilamentTotal    *float64 `json:"filament_total,omitempty"`
	FirstLayerHeight *float64 `json:"first_layer_height,omitempty"`
	LayerHeight      *float64 `json:"layer_height,omitempty"`
}

// Entry is one file in a listing.
type Entry struct {
	Path     string  `json:"path"`
	Modified float64 `json:"modified"`
	Size     int64   `json:"size"`
}

// Manager resolves print-file names against a fixed root directory.
type Manager struct {
	root   string
	cache  *lru.Cache[string, *Metadata]
	logger *log.Logger
}

// NewManager creates a Manager over the given root. The root itself is
// not required to exist yet; resolution fails per file instead.
func NewManager(root string) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, *Metadata](metaCacheSize)
	if err != nil {
		return nil, err
	}
	return &Manager{
		root:   abs,
		cache:  cache,
		logger: log.GetLogger("files"),
	}, nil
}

// Root returns the absolute root directory.
func (m *Manager) Root() string {
	return m.root
}

// Resolve turns a root-relative name into an absolute path, rejecting
// anything that escapes the root. Absolute names are accepted when
// they already point inside the root.
func (m *Manager) Resolve(name string) (string, error) {
	full := name
	if !filepath.IsAbs(full) {
		full = filepath.Join(m.root, name)
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if abs != m.root && !strings.HasPrefix(abs, m.root+string(filepath.Separator)) {
		return "", errors.New(errors.ErrInputUnavailable,
			fmt.Sprintf("path %q escapes the gcode root", name))
	}
	return abs, nil
}

// List walks the root and returns every gcode file, sorted by path.
func (m *Manager) List() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(m.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".gcode") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return nil
		}
		entries = append(entries, Entry{
			Path:     rel,
			Modified: modTime(info),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// Metadata stats a file and parses its slicer header. Results are
// cached per path and modification time, so an unchanged file is read
// once.
func (m *Manager) Metadata(name string) (*Metadata, error) {
	full, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, errors.InputUnavailableError(name, err)
	}

	key := fmt.Sprintf("%s@%d", full, info.ModTime().UnixNano())
	if meta, ok := m.cache.Get(key); ok {
		return meta, nil
	}

	meta := &Metadata{
		Path:     name,
		Filename: filepath.Base(name),
		Modified: modTime(info),
		Size:     info.Size(),
	}
	m.parseHeader(full, meta)
	m.cache.Add(key, meta)
	return meta, nil
}

// parseHeader extracts slicer comments from the head of a file.
func (m *Manager) parseHeader(path string, meta *Metadata) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	buf := make([]byte, headerScanSize)
	n, _ := file.Read(buf)
	if n == 0 {
		return
	}

	for _, line := range strings.Split(string(buf[:n]), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, ";") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, ";"))

		// PrusaSlicer/SuperSlicer banner
		if strings.HasPrefix(line, "generated by ") {
			parts := strings.SplitN(line, " ", 4)
			if len(parts) >= 3 {
				meta.Slicer = parts[2]
			}
			if len(parts) >= 4 {
				meta.SlicerVersion = strings.TrimPrefix(parts[3], "on ")
			}
		}

		// Cura writes a FLAVOR line instead of a banner
		if strings.HasPrefix(line, "FLAVOR:") {
			meta.Slicer = "Cura"
		}

		if strings.HasPrefix(line, "filament used [mm]") {
			var used float64
			if _, err := fmt.Sscanf(line, "filament used [mm] = %f", &used); err == nil {
				meta.FilamentTotal = &used
			}
		}
		if strings.HasPrefix(line, "layer_height") {
			var height float64
			if _, err := fmt.Sscanf(line, "layer_height = %f", &height); err == nil {
				meta.LayerHeight = &height
			}
		}
		if strings.HasPrefix(line, "first_layer_height") {
			var height float64
			if _, err := fmt.Sscanf(line, "first_layer_height = %f", &height); err == nil {
				meta.FirstLayerHeight = &height
			}
		}
	}
}

func modTime(info os.FileInfo) float64 {
	t := info.ModTime()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
