// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package reparse implements the path-rewriting half of the dispatcher
// (spec.md §4.2): FindReparsePoint locates the first reparse point on a
// path prefix, ResolveReparsePoints follows it (and any symlink chain
// reached from it) to a canonical payload, and CanReplaceReparsePoint
// implements the tag/GUID comparison rule of spec.md §7.1.
//
// Status is a narrow, package-local mirror of the root package's NTSTATUS
// values (same numeric encoding), kept separate so this package carries no
// dependency on the root package — the same split internal/guard uses for
// its Kind type.
package reparse

import (
	"encoding/binary"
	"strings"

	"github.com/andypern/winfsp/internal/wire"
)

// Status mirrors the subset of winfsp.Status this package produces or
// consumes. The numeric values are identical to the root package's, so a
// caller converts with a plain Status(x) / winfsp.Status(x) cast.
type Status uint32

const (
	StatusSuccess                 Status = 0x00000000
	StatusReparse                 Status = 0x00000104
	StatusObjectNameNotFound      Status = 0xC0000034
	StatusObjectPathNotFound      Status = 0xC000003A
	StatusNotAReparsePoint        Status = 0xC0000275
	StatusIoReparseTagMismatch    Status = 0xC0000277
	StatusIoReparseDataInvalid    Status = 0xC0000278
	StatusReparsePointNotResolved Status = 0xC0000292
	StatusReparseAttributeConflict Status = 0xC0000279
)

// maxHops bounds ResolveReparsePoints' symlink-chain iteration (spec.md §4.2,
// §8 Testable Property 5).
const maxHops = 32

// Probe is called by FindReparsePoint and ResolveReparsePoints for each path
// prefix segment they examine. A return of StatusNotAReparsePoint means
// "keep walking"; StatusReparse means segment is a reparse point, and data
// holds its raw payload (tag + body, as SetReparsePoint would have stored
// it); any other status aborts the walk.
type Probe func(segment string, isDirectory bool) (status Status, data []byte)

// FindReparsePoint scans path left to right, probing every prefix except
// the final component (left to the caller), and returns the byte offset of
// the first component whose prefix is a reparse point, or ok=false if none
// is found before a non-NOT_A_REPARSE_POINT failure or end of string.
func FindReparsePoint(path string, probe Probe) (index int, ok bool) {
	segments, offsets := splitComponents(path)
	if len(segments) == 0 {
		return 0, false
	}

	// The final component is left to the caller: only probe prefixes
	// strictly shorter than the whole path.
	for i := 0; i < len(segments)-1; i++ {
		prefix := path[:offsets[i]+len(segments[i])]
		status, _ := probe(prefix, true)
		switch status {
		case StatusNotAReparsePoint:
			continue
		case StatusReparse:
			return offsets[i], true
		default:
			return 0, false
		}
	}
	return 0, false
}

// splitComponents splits path on runs of `\`, returning each non-empty
// component and the byte offset its first rune starts at.
func splitComponents(path string) (segments []string, offsets []int) {
	i := 0
	for i < len(path) {
		for i < len(path) && path[i] == '\\' {
			i++
		}
		start := i
		for i < len(path) && path[i] != '\\' {
			i++
		}
		if i > start {
			segments = append(segments, path[start:i])
			offsets = append(offsets, start)
		}
	}
	return segments, offsets
}

// ResolveReparsePoints is the rewriter of spec.md §4.2: starting at
// startIndex within path, it collapses `.`/`..` components, follows reparse
// points and symlink chains (bounded by maxHops) to a canonical target, and
// emits either a raw reparse payload (non-symlink tag) or a synthesized
// symlink payload. scratchSize bounds every splice (spec.md §4.2 "Bounds");
// exceeding it fails with REPARSE_POINT_NOT_RESOLVED, same as exhausting
// maxHops.
//
// resolveLast controls whether the trailing path component is itself
// subject to resolution on the first iteration; it is re-armed after every
// symlink splice, since a freshly-spliced region must have its own trailing
// component considered (`.`/`..` splices leave it as it is).
func ResolveReparsePoints(path string, startIndex int, resolveLast bool, scratchSize int, probe Probe) (status Status, tag uint32, payload []byte) {
	target := path
	cursor := startIndex
	hops := maxHops

	for {
		lastComp, nextCursor, atEnd := nextComponent(target, cursor)

		if atEnd {
			if !resolveLast {
				return StatusReparse, wire.ReparseTagSymlink, wire.EncodeSymlinkPayload(target, true)
			}
			resolveLast = false
			// Treat the remainder through end-of-string as the current
			// component: lastComp/nextCursor already reflect that, since
			// atEnd only trips once the scan has consumed it.
		}

		comp := target[lastComp:nextCursor]

		switch comp {
		case ".":
			newRemainder := precedingSeparatorEnd(target, lastComp)
			spliced := target[:newRemainder] + target[nextCursor:]
			if len(spliced) > scratchSize {
				return StatusReparsePointNotResolved, 0, nil
			}
			target = spliced
			cursor = newRemainder
			continue

		case "..":
			prevStart := precedingComponentStart(target, lastComp)
			spliced := target[:prevStart] + target[nextCursor:]
			if len(spliced) > scratchSize {
				return StatusReparsePointNotResolved, 0, nil
			}
			target = spliced
			cursor = prevStart
			continue
		}

		isDirectory := nextCursor != len(target)
		st, data := probe(target[:nextCursor], isDirectory)
		switch st {
		case StatusNotAReparsePoint:
			cursor = nextCursor
			if cursor >= len(target) {
				// Exhausted without a trailing rewrite; emit current target.
				return StatusReparse, wire.ReparseTagSymlink, wire.EncodeSymlinkPayload(target, true)
			}
			continue

		case StatusReparse:
			if len(data) < 4 {
				return StatusIoReparseDataInvalid, 0, nil
			}
			gotTag := binary.LittleEndian.Uint32(data)

			if gotTag != wire.ReparseTagSymlink {
				// Non-symlink reparse point: emit its raw payload verbatim.
				return StatusReparse, gotTag, append([]byte(nil), data...)
			}

			hops--
			if hops <= 0 {
				return StatusReparsePointNotResolved, 0, nil
			}

			substitute, _, absoluteExit, ok := decodeSymlinkPayload(data)
			if !ok {
				return StatusIoReparseDataInvalid, 0, nil
			}

			if absoluteExit {
				return StatusReparse, wire.ReparseTagSymlink, wire.EncodeSymlinkPayload(substitute, false)
			}

			var spliced string
			var newCursor int
			if strings.HasPrefix(substitute, `\`) {
				spliced = substitute
				newCursor = 0
			} else {
				spliced = target[:lastComp] + substitute + target[nextCursor:]
				newCursor = lastComp
			}
			if len(spliced) > scratchSize {
				return StatusReparsePointNotResolved, 0, nil
			}
			target = spliced
			cursor = newCursor
			resolveLast = true
			continue

		default:
			if st == StatusObjectNameNotFound && nextCursor != len(target) {
				return StatusObjectPathNotFound, 0, nil
			}
			return st, 0, nil
		}
	}
}

// precedingSeparatorEnd walks left from compStart past the separator run
// immediately preceding it and returns where that run starts (compStart
// itself if no separator precedes it, 0 at the start of the buffer) —
// where a `.` component's splice point lands.
func precedingSeparatorEnd(target string, compStart int) int {
	i := compStart
	for i > 0 && target[i-1] == '\\' {
		i--
	}
	return i
}

// precedingComponentStart walks left past the separator run immediately
// before compStart, left past the component before that, and left past the
// separator run before THAT component — returning the position where a
// `..` component's splice should start so that exactly one separator
// remains between the component before it and whatever follows `..`.
func precedingComponentStart(target string, compStart int) int {
	prevCompEnd := precedingSeparatorEnd(target, compStart)
	i := prevCompEnd
	for i > 0 && target[i-1] != '\\' {
		i--
	}
	return precedingSeparatorEnd(target, i)
}

// nextComponent advances over separators starting at cursor, then to the
// next separator or end of target, returning the start of that component
// and the new cursor. atEnd reports whether the scan reached end-of-string.
func nextComponent(target string, cursor int) (compStart, newCursor int, atEnd bool) {
	i := cursor
	for i < len(target) && target[i] == '\\' {
		i++
	}
	compStart = i
	for i < len(target) && target[i] != '\\' {
		i++
	}
	return compStart, i, i >= len(target)
}

// decodeSymlinkPayload extracts the substitute name from a symlink-tagged
// reparse buffer encoded by wire.EncodeSymlinkPayload, along with whether
// it is flagged relative. absoluteExit mirrors spec.md §4.2's "absolute in
// the driver namespace" condition: substitute begins with `\` and is not
// flagged relative.
func decodeSymlinkPayload(data []byte) (substitute string, relative bool, absoluteExit bool, ok bool) {
	const headerSize = 4 + 2 + 2
	const fixedSize = 2 + 2 + 2 + 2 + 4
	if len(data) < headerSize+fixedSize {
		return "", false, false, false
	}

	body := data[headerSize:]
	subOff := binary.LittleEndian.Uint16(body[0:])
	subLen := binary.LittleEndian.Uint16(body[2:])
	flags := binary.LittleEndian.Uint32(body[8:])

	nameArea := body[fixedSize:]
	if int(subOff)+int(subLen) > len(nameArea) {
		return "", false, false, false
	}

	substitute = utf16LEToString(nameArea[subOff : subOff+subLen])
	relative = flags&1 != 0
	absoluteExit = strings.HasPrefix(substitute, `\`) && !relative
	return substitute, relative, absoluteExit, true
}

func utf16LEToString(b []byte) string {
	var sb strings.Builder
	for i := 0; i+1 < len(b); i += 2 {
		sb.WriteRune(rune(uint16(b[i]) | uint16(b[i+1])<<8))
	}
	return sb.String()
}

// CanReplaceReparsePoint implements spec.md §7.1: unequal leading 32-bit
// tags fail with REPARSE_TAG_MISMATCH; for non-Microsoft tags (high bit of
// the tag clear) the following 16-byte reparse GUID is also compared,
// mismatch failing with REPARSE_ATTRIBUTE_CONFLICT; buffers shorter than
// the required header fail with IO_REPARSE_DATA_INVALID.
func CanReplaceReparsePoint(existing, replacement []byte) Status {
	const headerSize = 4 + 2 + 2
	const guidSize = 16

	if len(existing) < headerSize || len(replacement) < headerSize {
		return StatusIoReparseDataInvalid
	}

	existingTag := binary.LittleEndian.Uint32(existing)
	replacementTag := binary.LittleEndian.Uint32(replacement)
	if existingTag != replacementTag {
		return StatusIoReparseTagMismatch
	}

	if isMicrosoftTag(existingTag) {
		return StatusSuccess
	}

	if len(existing) < headerSize+guidSize || len(replacement) < headerSize+guidSize {
		return StatusIoReparseDataInvalid
	}
	existingGUID := existing[headerSize : headerSize+guidSize]
	replacementGUID := replacement[headerSize : headerSize+guidSize]
	for i := range existingGUID {
		if existingGUID[i] != replacementGUID[i] {
			return StatusReparseAttributeConflict
		}
	}
	return StatusSuccess
}

// isMicrosoftTag reports whether tag's high bit (bit 31, 0x80000000) marks
// it as a Microsoft-defined tag, which carries no trailing GUID.
func isMicrosoftTag(tag uint32) bool {
	const microsoftBit = 0x80000000
	return tag&microsoftBit != 0
}
