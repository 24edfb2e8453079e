// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package wire

import "testing"

// TestAddDirInfoRoundTrip checks spec.md §8 Testable Property 6: the sum of
// aligned-up sizes of successfully packed entries equals the final
// transferred counter (the false-return half is checked by
// TestAddDirInfoOverflowLeavesTransferredUntouched).
func TestAddDirInfoRoundTrip(t *testing.T) {
	entries := []*DirEntry{
		{FileAttributes: 0x10, Name: "."},
		{FileAttributes: 0x10, Name: ".."},
		{FileAttributes: 0x80, FileSize: 42, Name: "hello.txt"},
		{FileAttributes: 0x80, FileSize: 0, Name: "a-much-longer-file-name.bin"},
	}

	buf := make([]byte, 256)
	var transferred int
	var wantTotal int

	for _, e := range entries {
		ok := AddDirInfo(e, buf, &transferred)
		if !ok {
			t.Fatalf("AddDirInfo(%q) unexpectedly failed", e.Name)
		}
		wantTotal += direntSize(len(e.Name))
	}

	if transferred != wantTotal {
		t.Errorf("transferred = %d, want %d", transferred, wantTotal)
	}

	// A terminator entry (nil) appends a zero-size marker.
	before := transferred
	if ok := AddDirInfo(nil, buf, &transferred); !ok {
		t.Fatal("AddDirInfo(nil) unexpectedly failed")
	}
	if got := transferred - before; got != 4 {
		t.Errorf("terminator advanced transferred by %d, want 4", got)
	}
}

func TestAddDirInfoOverflowLeavesTransferredUntouched(t *testing.T) {
	buf := make([]byte, 16)
	var transferred int

	e := &DirEntry{Name: "this-name-does-not-fit-in-16-bytes"}
	if ok := AddDirInfo(e, buf, &transferred); ok {
		t.Fatal("expected AddDirInfo to report overflow")
	}
	if transferred != 0 {
		t.Errorf("transferred = %d after overflow, want 0", transferred)
	}
}

func TestAddDirInfoAlignment(t *testing.T) {
	buf := make([]byte, 256)
	var transferred int

	AddDirInfo(&DirEntry{Name: "a"}, buf, &transferred)
	if transferred%DirAlignment != 0 {
		t.Errorf("transferred = %d, not %d-byte aligned", transferred, DirAlignment)
	}
}
