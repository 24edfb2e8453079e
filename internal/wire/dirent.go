// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package wire packs the directory-entry and reparse-payload records that
// flow back to the kernel driver in a Response's trailing buffer. The
// layout mirrors fuseutil.WriteDirent's approach in the teacher: compute an
// aligned size, bail out (without moving any output cursor) if it doesn't
// fit, otherwise copy header, name and padding in sequence.
package wire

import "encoding/binary"

// DirAlignment is the padding unit directory entries are packed to, the
// FILE_DIRECTORY_INFORMATION equivalent of FUSE_DIRENT_ALIGN.
const DirAlignment = 8

// DirEntry is one directory-enumeration result for AddDirInfo.
type DirEntry struct {
	FileAttributes uint32
	FileSize       uint64
	AllocationSize uint64
	Name           string
}

func alignUp(n int) int {
	if r := n % DirAlignment; r != 0 {
		n += DirAlignment - r
	}
	return n
}

// direntSize returns the packed size (including the leading
// NextEntryOffset field and alignment padding) of a DirEntry with the
// given name length.
func direntSize(nameLen int) int {
	const header = 4 + 4 + 8 + 8 // NextEntryOffset + FileAttributes + FileSize + AllocationSize
	return alignUp(header + nameLen)
}

// AddDirInfo packs entry into buf at offset *transferred, exactly the way
// spec.md §4.3's AddDirInfo does: a nil entry writes a zero-size
// terminator, and a record that would not fit leaves *transferred
// untouched and returns false (spec.md §8 Testable Property 6).
func AddDirInfo(entry *DirEntry, buf []byte, transferred *int) bool {
	if entry == nil {
		// Zero-size terminator: four bytes of zero NextEntryOffset.
		const termSize = 4
		if *transferred+termSize > len(buf) {
			return false
		}
		for i := 0; i < termSize; i++ {
			buf[*transferred+i] = 0
		}
		*transferred += termSize
		return true
	}

	total := direntSize(len(entry.Name))
	if *transferred+total > len(buf) {
		return false
	}

	off := *transferred
	binary.LittleEndian.PutUint32(buf[off:], uint32(total))
	off += 4

	binary.LittleEndian.PutUint32(buf[off:], entry.FileAttributes)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], entry.FileSize)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], entry.AllocationSize)
	off += 8

	n := copy(buf[off:], entry.Name)
	off += n

	// Zero the alignment padding.
	end := *transferred + total
	for ; off < end; off++ {
		buf[off] = 0
	}

	*transferred = end
	return true
}
