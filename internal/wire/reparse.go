// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package wire

import "encoding/binary"

// ReparseTagSymlink is the well-known IO_REPARSE_TAG_SYMLINK value.
const ReparseTagSymlink uint32 = 0xA000000C

// SymlinkFlagRelative marks a symlink substitute name as relative rather
// than device-absolute.
const SymlinkFlagRelative uint32 = 1

// reparseHeaderSize is the size of the fixed header every reparse buffer
// starts with: Tag(4) + DataLength(2) + Reserved(2).
const reparseHeaderSize = 4 + 2 + 2

// symlinkFixedSize is the size of the REPARSE_DATA_BUFFER.SymbolicLinkReparseBuffer
// fixed portion: SubstituteNameOffset/Length, PrintNameOffset/Length, Flags
// (5 uint16/uint32 fields, 2+2+2+2+4 = 12 bytes) following the generic
// reparse header.
const symlinkFixedSize = 2 + 2 + 2 + 2 + 4

// EncodeSymlinkPayload builds the symlink-style reparse payload spec.md
// §4.2 describes: SubstituteName and PrintName both equal to target (the
// final resolved path), flags carrying the relative bit when relative is
// true.
func EncodeSymlinkPayload(target string, relative bool) []byte {
	nameBytes := utf16LE(target)
	nameLen := len(nameBytes)

	dataLen := symlinkFixedSize + 2*nameLen // substitute name + print name, UTF-16
	buf := make([]byte, reparseHeaderSize+dataLen)

	binary.LittleEndian.PutUint32(buf[0:], ReparseTagSymlink)
	binary.LittleEndian.PutUint16(buf[4:], uint16(dataLen))
	// buf[6:8] Reserved, left zero.

	off := reparseHeaderSize
	binary.LittleEndian.PutUint16(buf[off:], 0) // SubstituteNameOffset
	binary.LittleEndian.PutUint16(buf[off+2:], uint16(nameLen))
	binary.LittleEndian.PutUint16(buf[off+4:], uint16(nameLen)) // PrintNameOffset
	binary.LittleEndian.PutUint16(buf[off+6:], uint16(nameLen))
	var flags uint32
	if relative {
		flags = SymlinkFlagRelative
	}
	binary.LittleEndian.PutUint32(buf[off+8:], flags)
	off += symlinkFixedSize

	copy(buf[off:], nameBytes)
	off += nameLen
	copy(buf[off:], nameBytes) // PrintName: identical to SubstituteName (spec.md §4.2)

	return buf
}

// ReparseTag extracts the leading tag word from a raw reparse buffer, the
// terminating reparse tag §4.2 says populates IoStatus.Information.
func ReparseTag(buf []byte) uint32 {
	if len(buf) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(buf)
}

func utf16LE(s string) []byte {
	// A minimal UTF-16LE encoder; characters beyond the BMP are encoded as
	// surrogate pairs.
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		if r <= 0xFFFF {
			out = append(out, byte(r), byte(r>>8))
			continue
		}
		r -= 0x10000
		hi := 0xD800 + (r >> 10)
		lo := 0xDC00 + (r & 0x3FF)
		out = append(out, byte(hi), byte(hi>>8), byte(lo), byte(lo>>8))
	}
	return out
}
