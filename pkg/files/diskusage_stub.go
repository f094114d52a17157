// Statfs is only wired up for Linux and macOS. This stub keeps other
// platforms compiling; they report zero capacity.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

//go:build !linux && !darwin

package files

func statfs(path string) (Usage, error) {
	return Usage{}, nil
}
