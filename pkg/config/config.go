// Package config provides INI configuration parsing with access tracking
// and typed option getters.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config provides access to a configuration file with access tracking.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string // Maintains section order

	// Access tracking for sections
	accessedSections map[string]struct{}
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a configuration file and returns a Config.
// Supports [include path] directives for including other config files.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// parseFile parses a config file and handles include directives.
func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: invalid path %s: %w", path, err)
	}

	// Check for recursive includes
	if visited[abs] {
		return fmt.Errorf("config: recursive include: %s", path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	var currentSection string
	var currentOptions map[string]string

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			// Save previous section
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}

			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return fmt.Errorf("config: empty section header at line %d in %s", lineNum, path)
			}

			// Handle include directive
			if strings.HasPrefix(header, "include ") {
				spec := strings.TrimSpace(header[8:])
				if spec == "" {
					return fmt.Errorf("config: empty include at line %d in %s", lineNum, path)
				}
				glob := filepath.Join(dir, spec)
				matches, err := filepath.Glob(glob)
				if err != nil {
					return fmt.Errorf("config: invalid include pattern %q: %w", spec, err)
				}
				sort.Strings(matches)
				if len(matches) == 0 && !hasGlobMeta(glob) {
					return fmt.Errorf("config: include file does not exist: %s", glob)
				}
				for _, m := range matches {
					if err := c.parseFile(m, visited); err != nil {
						return err
					}
				}
				currentSection = ""
				currentOptions = nil
				continue
			}

			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		// Skip options before first section
		if currentSection == "" {
			continue
		}

		key, value, ok := splitOption(line)
		if ok {
			currentOptions[key] = value
		}
	}

	// Save last section
	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: error reading %s: %w", path, err)
	}

	return nil
}

// LoadString parses a configuration from a string.
func LoadString(data string) (*Config, error) {
	c := New()
	var currentSection string
	var currentOptions map[string]string

	lineNum := 0
	for _, rawLine := range strings.Split(data, "\n") {
		lineNum++
		line := stripComment(rawLine)
		if line == "" {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if currentSection == "" {
				return nil, fmt.Errorf("config: empty section header at line %d", lineNum)
			}
			currentOptions = make(map[string]string)
			continue
		}

		// Skip options before first section
		if currentSection == "" {
			continue
		}

		key, value, ok := splitOption(line)
		if ok {
			currentOptions[key] = value
		}
	}

	// Save last section
	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}

	return c, nil
}

// stripComment trims whitespace and removes '#' comments. Returns "" for
// lines with no content.
func stripComment(raw string) string {
	line := strings.TrimSpace(raw)
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	return line
}

// splitOption parses "key: value" or "key = value" lines.
func splitOption(line string) (key, value string, ok bool) {
	kv := strings.SplitN(line, ":", 2)
	if len(kv) != 2 {
		kv = strings.SplitN(line, "=", 2)
	}
	if len(kv) != 2 {
		return "", "", false
	}
	key = strings.TrimSpace(kv[0])
	value = strings.TrimSpace(kv[1])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// hasGlobMeta returns true if the path contains glob metacharacters.
func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

// addSection adds a section to the config.
func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// If section already exists, merge options
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}

	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or error if not found.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec, ok := c.sections[name]
	if !ok {
		return nil, ErrMissingSection(name)
	}
	c.accessedSections[name] = struct{}{}
	return sec, nil
}

// GetSectionOptional returns a Section if it exists, or nil if not.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec, ok := c.sections[name]
	if ok {
		c.accessedSections[name] = struct{}{}
	}
	return sec
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// GetSectionNames returns all section names in order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// GetAccessedSections returns a list of sections that were accessed.
func (c *Config) GetAccessedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, 0, len(c.accessedSections))
	for name := range c.accessedSections {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
