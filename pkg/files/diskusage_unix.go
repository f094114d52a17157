// Copyright (C) 2026  Motion Minder Go Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

//go:build linux || darwin

package files

import "golang.org/x/sys/unix"

func statfs(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, err
	}
	bsize := uint64(st.Bsize)
	return Usage{
		Total: st.Blocks * bsize,
		Used:  (st.Blocks - st.Bfree) * bsize,
		Free:  st.Bavail * bsize,
	}, nil
}
