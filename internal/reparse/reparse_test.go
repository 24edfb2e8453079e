// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package reparse

import (
	"testing"

	. "github.com/jacobsa/ogletest"

	"github.com/andypern/winfsp/internal/wire"
)

func TestReparse(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type ReparseTest struct {
}

func init() { RegisterTestSuite(&ReparseTest{}) }

func notAReparsePoint(string, bool) (Status, []byte) {
	return StatusNotAReparsePoint, nil
}

////////////////////////////////////////////////////////////////////////
// FindReparsePoint
////////////////////////////////////////////////////////////////////////

func (t *ReparseTest) FindReparsePointNone() {
	_, ok := FindReparsePoint(`\a\b\c`, notAReparsePoint)
	ExpectFalse(ok, "expected no reparse point to be found")
}

func (t *ReparseTest) FindReparsePointSkipsFinalComponent() {
	calls := 0
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		calls++
		return StatusNotAReparsePoint, nil
	}
	// Three components: only the first two prefixes are probed.
	FindReparsePoint(`\a\b\c`, probe)
	ExpectEq(2, calls)
}

func (t *ReparseTest) FindReparsePointLocatesFirstHit() {
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		if segment == `\a\link` {
			return StatusReparse, nil
		}
		return StatusNotAReparsePoint, nil
	}
	index, ok := FindReparsePoint(`\a\link\x`, probe)
	AssertTrue(ok, "expected a reparse point to be found")
	ExpectEq(`link\x`, (`\a\link\x`)[index:])
}

////////////////////////////////////////////////////////////////////////
// ResolveReparsePoints
////////////////////////////////////////////////////////////////////////

// Exercises S5: a provider whose probe always reports a symlink pointing
// at itself must be cut off after 32 hops with REPARSE_POINT_NOT_RESOLVED.
func (t *ReparseTest) ResolveReparsePointsHopLimit() {
	probes := 0
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		probes++
		return StatusReparse, wire.EncodeSymlinkPayload(`\link`, true)
	}

	status, _, _ := ResolveReparsePoints(`\link`, 0, true, 4096, probe)
	AssertEq(StatusReparsePointNotResolved, status)
	ExpectEq(maxHops, probes)
}

// Checks that `.` components are spliced out without ever being probed.
func (t *ReparseTest) ResolveReparsePointsDotNormalization() {
	var probed []string
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		probed = append(probed, segment)
		return StatusNotAReparsePoint, nil
	}

	status, _, _ := ResolveReparsePoints(`\a\.\b`, 0, false, 4096, probe)
	AssertEq(StatusReparse, status)
	for _, s := range probed {
		ExpectTrue(s != `\a\.\b` && s != `\a\.`, "probe saw unresolved %q component in %q", ".", s)
	}
}

// Checks that `..` is itself never probed, and that the path it leaves
// behind has `b` and `..` collapsed out (matching the spec.md §4.2 splice
// rule) before the walk reaches `c`.
func (t *ReparseTest) ResolveReparsePointsDotDotNormalization() {
	var probed []string
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		probed = append(probed, segment)
		return StatusNotAReparsePoint, nil
	}

	ResolveReparsePoints(`\a\b\..\c`, 0, true, 4096, probe)
	for _, s := range probed {
		ExpectTrue(s != `\a\b\..` && s != `\a\b\..\c`, "probe saw an unresolved .. component: %q", s)
	}
	AssertTrue(len(probed) > 0)
	ExpectEq(`\a\c`, probed[len(probed)-1])
}

// Checks spec.md §4.2: an intermediate OBJECT_NAME_NOT_FOUND (cursor not
// at end-of-path) is rewritten to OBJECT_PATH_NOT_FOUND, but a tip-level
// one is not.
func (t *ReparseTest) ResolveReparsePointsNameNotFoundRemap() {
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		return StatusObjectNameNotFound, nil
	}

	status, _, _ := ResolveReparsePoints(`\missing\tail`, 0, false, 4096, probe)
	ExpectEq(StatusObjectPathNotFound, status, "intermediate miss")

	status, _, _ = ResolveReparsePoints(`\missing`, 0, true, 4096, probe)
	ExpectEq(StatusObjectNameNotFound, status, "tip miss")
}

// Follows a single non-cyclic symlink hop and checks that the walk ends in
// STATUS_REPARSE with the symlink tag and a non-empty payload.
func (t *ReparseTest) ResolveReparsePointsSymlinkSplice() {
	hops := 0
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		hops++
		if segment == `\link` && hops == 1 {
			return StatusReparse, wire.EncodeSymlinkPayload(`\real`, true)
		}
		return StatusNotAReparsePoint, nil
	}

	status, tag, payload := ResolveReparsePoints(`\link`, 0, true, 4096, probe)
	AssertEq(StatusReparse, status)
	ExpectEq(wire.ReparseTagSymlink, tag)
	ExpectTrue(len(payload) > 0, "expected a non-empty payload")
}

func (t *ReparseTest) ResolveReparsePointsOverflow() {
	probe := func(segment string, isDirectory bool) (Status, []byte) {
		return StatusReparse, wire.EncodeSymlinkPayload(`\a-rather-long-replacement-target-path`, true)
	}
	status, _, _ := ResolveReparsePoints(`\x`, 0, true, 4, probe)
	ExpectEq(StatusReparsePointNotResolved, status, "scratch overflow")
}

////////////////////////////////////////////////////////////////////////
// CanReplaceReparsePoint
////////////////////////////////////////////////////////////////////////

func (t *ReparseTest) CanReplaceReparsePointIdentity() {
	buf := wire.EncodeSymlinkPayload(`\a\b`, true)
	ExpectEq(StatusSuccess, CanReplaceReparsePoint(buf, buf))
}

func (t *ReparseTest) CanReplaceReparsePointTagMismatch() {
	a := wire.EncodeSymlinkPayload(`\a`, true)
	b := make([]byte, len(a))
	copy(b, a)
	b[0] ^= 0xFF // perturb the tag
	ExpectEq(StatusIoReparseTagMismatch, CanReplaceReparsePoint(a, b))
}

func (t *ReparseTest) CanReplaceReparsePointShortBuffer() {
	ExpectEq(StatusIoReparseDataInvalid, CanReplaceReparsePoint([]byte{1, 2, 3}, []byte{1, 2, 3}))
}

func (t *ReparseTest) CanReplaceReparsePointNonMicrosoftGUIDMismatch() {
	const headerSize = 4 + 2 + 2
	const guidSize = 16
	tag := uint32(0x00000001) // Microsoft bit (0x80000000) clear: vendor tag.

	makeBuf := func(guidByte byte) []byte {
		buf := make([]byte, headerSize+guidSize)
		buf[0] = byte(tag)
		buf[1] = byte(tag >> 8)
		buf[2] = byte(tag >> 16)
		buf[3] = byte(tag >> 24)
		for i := 0; i < guidSize; i++ {
			buf[headerSize+i] = guidByte
		}
		return buf
	}

	a := makeBuf(0xAA)
	b := makeBuf(0xAA)
	ExpectEq(StatusSuccess, CanReplaceReparsePoint(a, b), "equal GUIDs")

	c := makeBuf(0xBB)
	ExpectEq(StatusReparseAttributeConflict, CanReplaceReparsePoint(a, c), "mismatched GUIDs")
}
