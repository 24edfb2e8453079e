// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package memprovider

import (
	"context"
	"testing"
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/andypern/winfsp"
)

func newTestProvider() (*Provider, *timeutil.SimulatedClock) {
	clock := timeutil.NewSimulatedClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(clock), clock
}

func createFile(t *testing.T, p *Provider, path string, dir bool) winfsp.Handle {
	t.Helper()
	req := &winfsp.Request{Create: winfsp.CreateParams{DirectoryFile: dir}}
	h, info, status := p.Create(context.Background(), req, path, nil)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Create(%q) = %v, want success", path, status)
	}
	if info != winfsp.FileCreated {
		t.Fatalf("Create(%q) information = %v, want FILE_CREATED", path, info)
	}
	return h
}

func TestCreateThenOpen(t *testing.T) {
	p, _ := newTestProvider()
	createFile(t, p, `\foo.txt`, false)

	_, info, status := p.Open(context.Background(), &winfsp.Request{}, `\foo.txt`)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Open = %v, want success", status)
	}
	if info != winfsp.FileOpened {
		t.Errorf("information = %v, want FILE_OPENED", info)
	}
}

func TestCreateCollision(t *testing.T) {
	p, _ := newTestProvider()
	createFile(t, p, `\foo.txt`, false)

	_, _, status := p.Create(context.Background(), &winfsp.Request{}, `\foo.txt`, nil)
	if status != winfsp.StatusObjectNameCollision {
		t.Fatalf("second Create = %v, want STATUS_OBJECT_NAME_COLLISION", status)
	}
}

func TestOpenMissingReturnsNameNotFound(t *testing.T) {
	p, _ := newTestProvider()

	_, _, status := p.Open(context.Background(), &winfsp.Request{}, `\missing.txt`)
	if status != winfsp.StatusObjectNameNotFound {
		t.Fatalf("Open(missing) = %v, want STATUS_OBJECT_NAME_NOT_FOUND", status)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	p, _ := newTestProvider()
	h := createFile(t, p, `\foo.txt`, false)

	n, status := p.Write(context.Background(), &winfsp.Request{}, h, 0, []byte("hello"), false, false)
	if status != winfsp.StatusSuccess || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, success)", n, status)
	}

	data, status := p.Read(context.Background(), &winfsp.Request{}, h, 0, 5)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Read = %v, want success", status)
	}
	if string(data) != "hello" {
		t.Errorf("Read data = %q, want %q", data, "hello")
	}
}

func TestConstrainedWriteStopsAtCurrentSize(t *testing.T) {
	p, _ := newTestProvider()
	h := createFile(t, p, `\foo.txt`, false)

	n, status := p.Write(context.Background(), &winfsp.Request{}, h, 0, []byte("hello"), false, false)
	if status != winfsp.StatusSuccess || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, success)", n, status)
	}

	n, status = p.Write(context.Background(), &winfsp.Request{}, h, 3, []byte("world"), false, true)
	if status != winfsp.StatusSuccess {
		t.Fatalf("constrained Write = %v, want success", status)
	}
	if n != 2 {
		t.Fatalf("constrained Write n = %d, want 2 (clipped to current size)", n)
	}

	data, status := p.Read(context.Background(), &winfsp.Request{}, h, 0, 5)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Read = %v, want success", status)
	}
	if string(data) != "helwo" {
		t.Errorf("Read data = %q, want %q", data, "helwo")
	}

	n, status = p.Write(context.Background(), &winfsp.Request{}, h, 10, []byte("x"), false, true)
	if status != winfsp.StatusSuccess || n != 0 {
		t.Fatalf("constrained Write past EOF = (%d, %v), want (0, success)", n, status)
	}
}

func TestRenameCollisionWithoutReplace(t *testing.T) {
	p, _ := newTestProvider()
	createFile(t, p, `\a.txt`, false)
	h := createFile(t, p, `\b.txt`, false)

	status := p.Rename(context.Background(), &winfsp.Request{}, h, `\b.txt`, `\a.txt`, false)
	if status != winfsp.StatusObjectNameCollision {
		t.Fatalf("Rename without replace = %v, want STATUS_OBJECT_NAME_COLLISION", status)
	}
}

func TestRenameWithReplaceSucceeds(t *testing.T) {
	p, _ := newTestProvider()
	createFile(t, p, `\a.txt`, false)
	h := createFile(t, p, `\b.txt`, false)

	status := p.Rename(context.Background(), &winfsp.Request{}, h, `\b.txt`, `\a.txt`, true)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Rename with replace = %v, want success", status)
	}
}

func TestCanDeleteRejectsNonEmptyDirectory(t *testing.T) {
	p, _ := newTestProvider()
	dirHandle := createFile(t, p, `\dir`, true)
	createFile(t, p, `\dir\child.txt`, false)

	status := p.CanDelete(context.Background(), &winfsp.Request{}, dirHandle, `\dir`)
	if status != winfsp.StatusCannotDelete {
		t.Fatalf("CanDelete(non-empty dir) = %v, want STATUS_CANNOT_DELETE", status)
	}
}

func TestSetAndGetReparsePoint(t *testing.T) {
	p, _ := newTestProvider()
	h := createFile(t, p, `\link`, false)

	payload := []byte{1, 2, 3, 4}
	if status := p.SetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`, payload); status != winfsp.StatusSuccess {
		t.Fatalf("SetReparsePoint = %v, want success", status)
	}

	got, status := p.GetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`)
	if status != winfsp.StatusSuccess {
		t.Fatalf("GetReparsePoint = %v, want success", status)
	}
	if string(got) != string(payload) {
		t.Errorf("GetReparsePoint data = %v, want %v", got, payload)
	}
}

func TestResolveReparsePointsOnAncestor(t *testing.T) {
	p, _ := newTestProvider()
	h := createFile(t, p, `\link`, true)
	if status := p.SetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`, []byte{0xAA, 0, 0, 0}); status != winfsp.StatusSuccess {
		t.Fatalf("SetReparsePoint = %v, want success", status)
	}

	status, payload := p.ResolveReparsePoints(context.Background(), `\link\sub\file.txt`, 1, false)
	if status != winfsp.StatusReparse {
		t.Fatalf("ResolveReparsePoints = %v, want STATUS_REPARSE", status)
	}
	if len(payload) == 0 {
		t.Errorf("ResolveReparsePoints payload is empty")
	}
}

func TestQuerySecurityReturnsOwnerDescriptor(t *testing.T) {
	p, _ := newTestProvider()
	h := createFile(t, p, `\foo.txt`, false)

	sd, status := p.QuerySecurity(context.Background(), &winfsp.Request{}, h)
	if status != winfsp.StatusSuccess {
		t.Fatalf("QuerySecurity = %v, want success", status)
	}
	if len(sd) == 0 || string(sd[:2]) != "O:" {
		t.Errorf("QuerySecurity descriptor = %q, want an O:<uuid> owner stamp", sd)
	}
}

func TestCreateTimestampUsesClock(t *testing.T) {
	p, clock := newTestProvider()
	clock.AdvanceTime(time.Hour)
	want := clock.Now()

	createFile(t, p, `\foo.txt`, false)

	if got := p.root.children["foo.txt"].crtime; !got.Equal(want) {
		t.Errorf("crtime = %v, want %v", got, want)
	}
}
