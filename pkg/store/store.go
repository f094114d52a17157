// Package store provides the odometer persistence collaborator: get and
// set by key for named numeric values. It is deliberately thin, a flat
// namespace over a map with an explicit JSON snapshot on disk. There is
// no background flush; callers decide when to Save.
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package store

// Store is keyed access to named numeric values.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (float64, bool)

	// Set stores value under key.
	Set(key string, value float64)

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string)

	// Keys returns all keys in sorted order.
	Keys() []string
}
