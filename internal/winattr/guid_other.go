// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

//go:build !windows

package winattr

import "time"

func newGUID() [16]byte {
	return newGUIDPortable()
}

// epochDelta100ns is the number of 100ns ticks between the FILETIME epoch
// (1601-01-01) and the Unix epoch (1970-01-01).
const epochDelta100ns = 116444736000000000

func toFileTime(t time.Time) uint64 {
	return uint64(t.UnixNano()/100) + epochDelta100ns
}

func fromFileTime(ft uint64) time.Time {
	ticks := int64(ft) - epochDelta100ns
	return time.Unix(0, ticks*100)
}
