// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package diskprovider

import (
	"context"
	"testing"

	"github.com/andypern/winfsp"
)

func createFile(t *testing.T, p *Provider, path string) winfsp.Handle {
	t.Helper()
	h, info, status := p.Create(context.Background(), &winfsp.Request{}, path, nil)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Create(%q) = %v, want success", path, status)
	}
	if info != winfsp.FileCreated {
		t.Fatalf("Create(%q) information = %v, want FILE_CREATED", path, info)
	}
	return h
}

func TestCreateThenOpen(t *testing.T) {
	p := New(t.TempDir())
	createFile(t, p, `\foo.txt`)

	_, info, status := p.Open(context.Background(), &winfsp.Request{}, `\foo.txt`)
	if status != winfsp.StatusSuccess {
		t.Fatalf("Open = %v, want success", status)
	}
	if info != winfsp.FileOpened {
		t.Errorf("information = %v, want FILE_OPENED", info)
	}
}

func TestCreateCollision(t *testing.T) {
	p := New(t.TempDir())
	createFile(t, p, `\foo.txt`)

	_, _, status := p.Create(context.Background(), &winfsp.Request{}, `\foo.txt`, nil)
	if status != winfsp.StatusObjectNameCollision {
		t.Fatalf("second Create = %v, want STATUS_OBJECT_NAME_COLLISION", status)
	}
}

func TestOpenMissingReturnsNameNotFound(t *testing.T) {
	p := New(t.TempDir())

	_, _, status := p.Open(context.Background(), &winfsp.Request{}, `\missing.txt`)
	if status != winfsp.StatusObjectNameNotFound {
		t.Fatalf("Open(missing) = %v, want STATUS_OBJECT_NAME_NOT_FOUND", status)
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	p := New(t.TempDir())
	h := createFile(t, p, `\foo.txt`)

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
	p := New(t.TempDir())
	h := createFile(t, p, `\foo.txt`)

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

func TestHostPathRejectsDotDot(t *testing.T) {
	p := New(t.TempDir())

	_, _, status := p.Open(context.Background(), &winfsp.Request{}, `\..\etc\passwd`)
	if status != winfsp.StatusObjectPathNotFound {
		t.Fatalf("Open(..) = %v, want STATUS_OBJECT_PATH_NOT_FOUND", status)
	}
}

func TestSetAndGetReparsePointOnFreshFile(t *testing.T) {
	p := New(t.TempDir())
	h := createFile(t, p, `\link`)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if status := p.SetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`, payload); status != winfsp.StatusSuccess {
		t.Fatalf("SetReparsePoint on a fresh file = %v, want success", status)
	}

	got, status := p.GetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`)
	if status != winfsp.StatusSuccess {
		t.Fatalf("GetReparsePoint = %v, want success", status)
	}
	if string(got) != string(payload) {
		t.Errorf("GetReparsePoint data = %v, want %v", got, payload)
	}

	_, _, secStatus := p.GetSecurityByName(context.Background(), `\link`)
	if secStatus != winfsp.StatusReparse {
		t.Errorf("GetSecurityByName after SetReparsePoint = %v, want STATUS_REPARSE", secStatus)
	}
}

func TestDeleteReparsePoint(t *testing.T) {
	p := New(t.TempDir())
	h := createFile(t, p, `\link`)
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if status := p.SetReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`, payload); status != winfsp.StatusSuccess {
		t.Fatalf("SetReparsePoint = %v, want success", status)
	}

	if status := p.DeleteReparsePoint(context.Background(), &winfsp.Request{}, h, `\link`, nil); status != winfsp.StatusSuccess {
		t.Fatalf("DeleteReparsePoint = %v, want success", status)
	}

	_, _, secStatus := p.GetSecurityByName(context.Background(), `\link`)
	if secStatus == winfsp.StatusReparse {
		t.Errorf("GetSecurityByName after DeleteReparsePoint still reports STATUS_REPARSE")
	}
}
