// Object pools for the scan hot path.
//
// A motion program is consumed one line at a time, and every line costs
// a token slice plus, for recognized commands, a small parameter map.
// Recycling both keeps a multi-gigabyte scan from churning the garbage
// collector.
//
// Usage:
//
//	params := pool.GetParams()
//	defer pool.PutParams(params)
//	// fill and read params...
//
// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"sync"
)

// Params pool - selector-keyed parameter maps, one per command line
var paramsPool = sync.Pool{
	New: func() any {
		return make(map[byte]float64, 4) // X Y Z E is the common case
	},
}

// GetParams gets a parameter map from the pool
func GetParams() map[byte]float64 {
	return paramsPool.Get().(map[byte]float64)
}

// PutParams returns a parameter map to the pool after clearing it
func PutParams(m map[byte]float64) {
	if m == nil {
		return
	}
	clear(m)
	paramsPool.Put(m)
}

// Tokens pool - line token slices from splitting on spaces
var tokensPool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 16)
		return &s
	},
}

// GetTokens gets an empty token slice from the pool
func GetTokens() *[]string {
	s := tokensPool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// PutTokens returns a token slice to the pool
func PutTokens(s *[]string) {
	if s == nil || cap(*s) > 256 {
		return
	}
	// Clear to allow GC of the line contents
	for i := range *s {
		(*s)[i] = ""
	}
	*s = (*s)[:0]
	tokensPool.Put(s)
}
