// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winattr

import (
	"time"

	"golang.org/x/sys/windows"
)

func newGUID() [16]byte {
	guid, err := windows.GenerateGUID()
	if err != nil {
		// windows.GenerateGUID only fails if CoCreateGuid itself fails,
		// which would mean something is badly wrong with the host; fall
		// back to the portable generator rather than panic.
		return newGUIDPortable()
	}

	var out [16]byte
	copy(out[0:4], []byte{byte(guid.Data1), byte(guid.Data1 >> 8), byte(guid.Data1 >> 16), byte(guid.Data1 >> 24)})
	copy(out[4:6], []byte{byte(guid.Data2), byte(guid.Data2 >> 8)})
	copy(out[6:8], []byte{byte(guid.Data3), byte(guid.Data3 >> 8)})
	copy(out[8:16], guid.Data4[:])
	return out
}

func toFileTime(t time.Time) uint64 {
	ft := windows.NsecToFiletime(t.UnixNano())
	return uint64(ft.HighDateTime)<<32 | uint64(ft.LowDateTime)
}

func fromFileTime(ft uint64) time.Time {
	f := windows.Filetime{
		LowDateTime:  uint32(ft),
		HighDateTime: uint32(ft >> 32),
	}
	return time.Unix(0, f.Nanoseconds())
}
