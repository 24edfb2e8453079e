// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package guard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/jacobsa/ogletest"
)

func TestGuard(t *testing.T) { RunTests(t) }

////////////////////////////////////////////////////////////////////////
// Boilerplate
////////////////////////////////////////////////////////////////////////

type GuardTest struct {
}

func init() { RegisterTestSuite(&GuardTest{}) }

////////////////////////////////////////////////////////////////////////
// Test functions
////////////////////////////////////////////////////////////////////////

func (t *GuardTest) Classify() {
	cases := []struct {
		desc string
		key  Key
		want Mode
	}{
		{"create new", Key{Kind: KindCreate, DispositionIsOpen: false}, ModeExclusive},
		{"create open", Key{Kind: KindCreate, DispositionIsOpen: true}, ModeShared},
		{"cleanup delete", Key{Kind: KindCleanup, CleanupDelete: true}, ModeExclusive},
		{"cleanup plain", Key{Kind: KindCleanup, CleanupDelete: false}, ModeNone},
		{"rename", Key{Kind: KindSetInformation, InfoClass: InfoClassRename}, ModeExclusive},
		{"disposition", Key{Kind: KindSetInformation, InfoClass: InfoClassDisposition}, ModeShared},
		{"other set info", Key{Kind: KindSetInformation, InfoClass: InfoClassOther}, ModeNone},
		{"set volume info", Key{Kind: KindSetVolumeInformation}, ModeExclusive},
		{"volume flush", Key{Kind: KindFlushBuffers, VolumeFlush: true}, ModeExclusive},
		{"handle flush", Key{Kind: KindFlushBuffers, VolumeFlush: false}, ModeNone},
		{"query directory", Key{Kind: KindQueryDirectory}, ModeShared},
		{"query volume info", Key{Kind: KindQueryVolumeInformation}, ModeShared},
		{"other", Key{Kind: KindOther}, ModeNone},
	}

	for _, tc := range cases {
		ExpectEq(tc.want, Classify(tc.key), "case: %s", tc.desc)
	}
}

// Checks spec.md §8 Testable Property 1: Leave releases in the same mode
// Enter acquired, for every key, regardless of strategy.
func (t *GuardTest) EnterLeaveSymmetric() {
	keys := []Key{
		{Kind: KindCreate, DispositionIsOpen: false},
		{Kind: KindCreate, DispositionIsOpen: true},
		{Kind: KindCleanup, CleanupDelete: true},
		{Kind: KindOther},
	}

	for _, strategy := range []Strategy{StrategyNone, StrategyCoarse, StrategyFine} {
		for _, k := range keys {
			g := New(strategy)
			mode := g.Enter(k)
			done := make(chan struct{})
			go func() {
				g.Leave(mode)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				AssertTrue(false, "strategy=%v key=%+v: Leave deadlocked", strategy, k)
			}
		}
	}
}

// Exercises S6: a Cleanup-with-delete (exclusive) serializes against a
// concurrent Create(OPEN) (shared), while two Create(OPEN)s run
// concurrently.
func (t *GuardTest) FineModeExclusivity() {
	g := New(StrategyFine)

	var inFlight int32
	var sawOverlap int32

	sharedOp := func(wg *sync.WaitGroup) {
		defer wg.Done()
		mode := g.Enter(Key{Kind: KindCreate, DispositionIsOpen: true})
		n := atomic.AddInt32(&inFlight, 1)
		if n > 1 {
			atomic.StoreInt32(&sawOverlap, 1)
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		g.Leave(mode)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go sharedOp(&wg)
	go sharedOp(&wg)
	go sharedOp(&wg)
	wg.Wait()

	ExpectNe(0, atomic.LoadInt32(&sawOverlap), "expected two shared Create(OPEN) operations to overlap")

	// An exclusive Cleanup must never observe inFlight > 0 concurrently.
	wg.Add(1)
	go sharedOp(&wg)

	mode := g.Enter(Key{Kind: KindCleanup, CleanupDelete: true})
	ExpectEq(0, atomic.LoadInt32(&inFlight), "exclusive Cleanup ran concurrently with a shared Create(OPEN)")
	g.Leave(mode)

	wg.Wait()
}
