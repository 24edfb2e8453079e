// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package winattr synthesizes the small set of Windows-shaped attribute
// values (GUIDs, FILETIMEs) a Provider needs to hand back in security
// descriptors and timestamp fields, without requiring the rest of this
// module to build only on Windows. The platform split mirrors the
// teacher's flock_darwin.go/flock_linux.go pair: one file per build target,
// selected by filename suffix or build tag, no runtime branching.
package winattr

import (
	"time"

	"github.com/google/uuid"
)

// NewGUID returns a random RFC 4122 version-4 GUID, suitable for synthesized
// security identifiers or reparse GUIDs on platforms without a native GUID
// source.
func NewGUID() [16]byte {
	return newGUID()
}

// newGUIDPortable backs newGUID on platforms (or Windows hosts whose
// CoCreateGuid call failed) without a native GUID generator.
func newGUIDPortable() [16]byte {
	return [16]byte(uuid.New())
}

// ToFileTime converts t to the 100ns-tick, 1601-epoch FILETIME value the
// wire format expects for timestamp fields.
func ToFileTime(t time.Time) uint64 {
	return toFileTime(t)
}

// FromFileTime is ToFileTime's inverse.
func FromFileTime(ft uint64) time.Time {
	return fromFileTime(ft)
}
