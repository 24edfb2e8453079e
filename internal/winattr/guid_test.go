// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winattr

import (
	"testing"
	"time"
)

func TestNewGUIDIsNotZero(t *testing.T) {
	a := NewGUID()
	var zero [16]byte
	if a == zero {
		t.Error("NewGUID returned the zero value")
	}
}

func TestNewGUIDIsRandom(t *testing.T) {
	a := NewGUID()
	b := NewGUID()
	if a == b {
		t.Error("two consecutive NewGUID calls returned the same value")
	}
}

func TestFileTimeRoundTrip(t *testing.T) {
	want := time.Date(2024, time.March, 3, 12, 30, 0, 0, time.UTC)
	got := FromFileTime(ToFileTime(want))
	if !got.Equal(want) {
		t.Errorf("round trip = %v, want %v", got, want)
	}
}
