// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package files

// Usage reports the capacity of the filesystem holding the gcode root.
type Usage struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// DiskUsage queries the filesystem holding the root. On platforms
// without statfs support all fields read zero.
func (m *Manager) DiskUsage() (Usage, error) {
	return statfs(m.root)
}
