// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package diskprovider is a winfsp.Provider backed by a real directory on
// the host's file system, the role samples/roloopbackfs and
// samples/cachingfs play for the teacher's fuse.FileSystem interface —
// except writable, and rooted at an arbitrary directory rather than
// read-only-mirroring one.
package diskprovider

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/detailyang/go-fallocate"

	"github.com/andypern/winfsp"
	"github.com/andypern/winfsp/internal/reparse"
	"github.com/andypern/winfsp/internal/wire"
)

// reparseSuffix is the sidecar extension a reparse point's payload is
// stored under: path\to\name's reparse data lives at path\to\name.reparse
// on the host file system, next to the real file or directory it
// decorates, since the host file system has no native reparse-point
// concept of its own.
const reparseSuffix = ".reparse"

// Provider roots every path at root on the host file system. Handles are
// keys into a table of handleState records: a file handle holds an open
// *os.File, while a directory handle holds only its path and is re-read on
// every ReadDirectory, since os.File's Readdir cursor does not map cleanly
// onto QueryDirectory's offset semantics.
type Provider struct {
	winfsp.NotImplementedProvider

	root string

	mu      sync.Mutex
	handles map[winfsp.Handle]*handleState
	next    uint64
}

type handleState struct {
	path  string
	file  *os.File // nil for directory handles
	isDir bool
}

// New constructs a Provider rooted at root, which must already exist.
func New(root string) *Provider {
	return &Provider{
		root:    root,
		handles: make(map[winfsp.Handle]*handleState),
	}
}

// hostPath translates a `\`-separated IFS path into a path under p.root,
// rejecting any ".." component so that a caller can never escape root
// (spec.md §4.2's resolver already collapses ".."  before a path reaches
// the provider, but the provider doesn't trust that).
func (p *Provider) hostPath(path string) (string, bool) {
	trimmed := strings.Trim(path, `\`)
	if trimmed == "" {
		return p.root, true
	}

	segs := strings.Split(trimmed, `\`)
	for _, s := range segs {
		if s == ".." || s == "." {
			return "", false
		}
	}

	return filepath.Join(append([]string{p.root}, segs...)...), true
}

func (p *Provider) reparsePath(hostPath string) string {
	return hostPath + reparseSuffix
}

func statusFromErr(err error) winfsp.Status {
	switch {
	case err == nil:
		return winfsp.StatusSuccess
	case os.IsNotExist(err):
		return winfsp.StatusObjectNameNotFound
	case os.IsExist(err):
		return winfsp.StatusObjectNameCollision
	case os.IsPermission(err):
		return winfsp.StatusInvalidDeviceRequest
	default:
		return winfsp.StatusInvalidDeviceRequest
	}
}

func attrsFromFileInfo(fi os.FileInfo) winfsp.FileAttributes {
	attrs := winfsp.FileAttributeNormal
	if fi.IsDir() {
		attrs = winfsp.FileAttributeDirectory
	}
	return attrs
}

func (p *Provider) newHandle(hs *handleState) winfsp.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.next++
	h := winfsp.Handle(p.next)
	p.handles[h] = hs
	return h
}

func (p *Provider) lookupHandle(h winfsp.Handle) (*handleState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs, ok := p.handles[h]
	return hs, ok
}

func (p *Provider) GetSecurityByName(ctx context.Context, path string) (*winfsp.SecurityDescriptor, winfsp.FileAttributes, winfsp.Status) {
	host, ok := p.hostPath(path)
	if !ok {
		return nil, 0, winfsp.StatusObjectPathNotFound
	}

	fi, err := os.Lstat(host)
	if err != nil {
		return nil, 0, statusFromErr(err)
	}

	if _, rerr := os.Lstat(p.reparsePath(host)); rerr == nil {
		return &winfsp.SecurityDescriptor{}, attrsFromFileInfo(fi), winfsp.StatusReparse
	}

	return &winfsp.SecurityDescriptor{}, attrsFromFileInfo(fi), winfsp.StatusSuccess
}

func (p *Provider) Create(ctx context.Context, req *winfsp.Request, path string, sd *winfsp.SecurityDescriptor) (winfsp.Handle, winfsp.Information, winfsp.Status) {
	host, ok := p.hostPath(path)
	if !ok {
		return 0, 0, winfsp.StatusObjectPathNotFound
	}

	if req.Create.DirectoryFile {
		if err := os.Mkdir(host, 0755); err != nil {
			return 0, 0, statusFromErr(err)
		}
		return p.newHandle(&handleState{path: host, isDir: true}), winfsp.FileCreated, winfsp.StatusSuccess
	}

	f, err := os.OpenFile(host, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, 0, statusFromErr(err)
	}

	if req.Create.AllocationSize > 0 {
		// Best-effort: a provider that cannot preallocate still created the
		// file successfully, so an error here is not propagated.
		fallocate.Fallocate(f, 0, int64(req.Create.AllocationSize))
	}

	return p.newHandle(&handleState{path: host, file: f}), winfsp.FileCreated, winfsp.StatusSuccess
}

func (p *Provider) Open(ctx context.Context, req *winfsp.Request, path string) (winfsp.Handle, winfsp.Information, winfsp.Status) {
	host, ok := p.hostPath(path)
	if !ok {
		return 0, 0, winfsp.StatusObjectPathNotFound
	}

	fi, err := os.Stat(host)
	if err != nil {
		return 0, 0, statusFromErr(err)
	}

	if fi.IsDir() {
		return p.newHandle(&handleState{path: host, isDir: true}), winfsp.FileOpened, winfsp.StatusSuccess
	}

	f, err := os.OpenFile(host, os.O_RDWR, 0644)
	if err != nil {
		return 0, 0, statusFromErr(err)
	}

	return p.newHandle(&handleState{path: host, file: f}), winfsp.FileOpened, winfsp.StatusSuccess
}

func (p *Provider) Overwrite(ctx context.Context, req *winfsp.Request, h winfsp.Handle, attrs winfsp.FileAttributes, supersede bool) (winfsp.Information, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok || hs.file == nil {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	if err := hs.file.Truncate(0); err != nil {
		return 0, statusFromErr(err)
	}
	if _, err := hs.file.Seek(0, io.SeekStart); err != nil {
		return 0, statusFromErr(err)
	}

	if supersede {
		return winfsp.FileSuperseded, winfsp.StatusSuccess
	}
	return winfsp.FileOverwritten, winfsp.StatusSuccess
}

func (p *Provider) Cleanup(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, flags winfsp.CleanupFlags) winfsp.Status {
	if flags&winfsp.CleanupDelete == 0 {
		return winfsp.StatusSuccess
	}

	hs, ok := p.lookupHandle(h)
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	os.Remove(p.reparsePath(hs.path))
	if err := os.Remove(hs.path); err != nil {
		return statusFromErr(err)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) Close(ctx context.Context, req *winfsp.Request, h winfsp.Handle) winfsp.Status {
	p.mu.Lock()
	hs, ok := p.handles[h]
	delete(p.handles, h)
	p.mu.Unlock()

	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}
	if hs.file != nil {
		hs.file.Close()
	}
	return winfsp.StatusSuccess
}

func (p *Provider) Read(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, size int) ([]byte, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok || hs.file == nil {
		return nil, winfsp.StatusInvalidDeviceRequest
	}

	buf := make([]byte, size)
	n, err := hs.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, statusFromErr(err)
	}
	return buf[:n], winfsp.StatusSuccess
}

func (p *Provider) Write(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, data []byte, writeToEnd, constrained bool) (int, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok || hs.file == nil {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	if writeToEnd {
		fi, err := hs.file.Stat()
		if err != nil {
			return 0, statusFromErr(err)
		}
		offset = fi.Size()
	}

	if constrained {
		fi, err := hs.file.Stat()
		if err != nil {
			return 0, statusFromErr(err)
		}
		size := fi.Size()
		if offset >= size {
			return 0, winfsp.StatusSuccess
		}
		if offset+int64(len(data)) > size {
			data = data[:size-offset]
		}
	}

	n, err := hs.file.WriteAt(data, offset)
	if err != nil {
		return n, statusFromErr(err)
	}
	return n, winfsp.StatusSuccess
}

func (p *Provider) Flush(ctx context.Context, req *winfsp.Request, h winfsp.Handle) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok || hs.file == nil {
		return winfsp.StatusSuccess
	}
	if err := hs.file.Sync(); err != nil {
		return statusFromErr(err)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) GetFileInfo(ctx context.Context, req *winfsp.Request, h winfsp.Handle) (winfsp.FileAttributes, uint64, uint64, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return 0, 0, 0, winfsp.StatusInvalidDeviceRequest
	}

	fi, err := os.Stat(hs.path)
	if err != nil {
		return 0, 0, 0, statusFromErr(err)
	}

	size := uint64(fi.Size())
	return attrsFromFileInfo(fi), size, size, winfsp.StatusSuccess
}

func (p *Provider) SetBasicInfo(ctx context.Context, req *winfsp.Request, h winfsp.Handle, info winfsp.BasicInfo) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	if info.LastWriteTime != nil {
		if err := os.Chtimes(hs.path, *info.LastWriteTime, *info.LastWriteTime); err != nil {
			return statusFromErr(err)
		}
	}
	return winfsp.StatusSuccess
}

func (p *Provider) SetFileSize(ctx context.Context, req *winfsp.Request, h winfsp.Handle, size uint64, asAllocation bool) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok || hs.file == nil {
		return winfsp.StatusInvalidDeviceRequest
	}

	if asAllocation {
		if err := fallocate.Fallocate(hs.file, 0, int64(size)); err != nil {
			return statusFromErr(err)
		}
		return winfsp.StatusSuccess
	}

	if err := hs.file.Truncate(int64(size)); err != nil {
		return statusFromErr(err)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) CanDelete(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	if hs.isDir {
		entries, err := os.ReadDir(hs.path)
		if err != nil {
			return statusFromErr(err)
		}
		if len(entries) != 0 {
			return winfsp.StatusCannotDelete
		}
	}
	return winfsp.StatusSuccess
}

func (p *Provider) Rename(ctx context.Context, req *winfsp.Request, h winfsp.Handle, oldName, newName string, replaceIfExists bool) winfsp.Status {
	oldHost, ok := p.hostPath(oldName)
	if !ok {
		return winfsp.StatusObjectPathNotFound
	}
	newHost, ok := p.hostPath(newName)
	if !ok {
		return winfsp.StatusObjectPathNotFound
	}

	if !replaceIfExists {
		if _, err := os.Lstat(newHost); err == nil {
			return winfsp.StatusObjectNameCollision
		}
	}

	if err := os.Rename(oldHost, newHost); err != nil {
		return statusFromErr(err)
	}
	os.Rename(p.reparsePath(oldHost), p.reparsePath(newHost))
	return winfsp.StatusSuccess
}

func (p *Provider) GetVolumeInfo(ctx context.Context, req *winfsp.Request) winfsp.Status {
	return winfsp.StatusSuccess
}

func (p *Provider) SetVolumeLabel(ctx context.Context, req *winfsp.Request, label string) winfsp.Status {
	return winfsp.StatusSuccess
}

func (p *Provider) ReadDirectory(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, pattern string, buf []byte) (int, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok || !hs.isDir {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	entries, err := os.ReadDir(hs.path)
	if err != nil {
		return 0, statusFromErr(err)
	}

	var transferred int
	for i := int(offset); i < len(entries); i++ {
		fi, err := entries[i].Info()
		if err != nil {
			continue
		}

		entry := &wire.DirEntry{
			FileAttributes: uint32(attrsFromFileInfo(fi)),
			FileSize:       uint64(fi.Size()),
			AllocationSize: uint64(fi.Size()),
			Name:           entries[i].Name(),
		}
		if !wire.AddDirInfo(entry, buf, &transferred) {
			break
		}
	}

	return transferred, winfsp.StatusSuccess
}

func (p *Provider) ResolveReparsePoints(ctx context.Context, path string, index int, openReparsePoint bool) (winfsp.Status, []byte) {
	probe := func(segment string, isDirectory bool) (reparse.Status, []byte) {
		host, ok := p.hostPath(segment)
		if !ok {
			return reparse.StatusObjectNameNotFound, nil
		}
		if _, err := os.Lstat(host); err != nil {
			return reparse.StatusObjectNameNotFound, nil
		}
		data, err := os.ReadFile(p.reparsePath(host))
		if err != nil {
			return reparse.StatusNotAReparsePoint, nil
		}
		return reparse.StatusReparse, data
	}

	status, _, payload := reparse.ResolveReparsePoints(path, index, !openReparsePoint, 4096, probe)
	if status == reparse.StatusReparse {
		return winfsp.StatusReparse, payload
	}
	return winfsp.Status(status), nil
}

func (p *Provider) GetReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string) ([]byte, winfsp.Status) {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return nil, winfsp.StatusInvalidDeviceRequest
	}

	data, err := os.ReadFile(p.reparsePath(hs.path))
	if err != nil {
		return nil, winfsp.Status(reparse.StatusNotAReparsePoint)
	}
	return data, winfsp.StatusSuccess
}

func (p *Provider) SetReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, data []byte) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	// CanReplaceReparsePoint compares an existing tag/GUID against a
	// replacement (spec.md §7.1); a missing sidecar file means there is
	// nothing to compare against yet, so that case skips straight to the
	// write.
	if existing, err := os.ReadFile(p.reparsePath(hs.path)); err == nil {
		status := reparse.CanReplaceReparsePoint(existing, data)
		if status != reparse.StatusSuccess {
			return winfsp.Status(status)
		}
	}

	if err := os.WriteFile(p.reparsePath(hs.path), data, 0644); err != nil {
		return statusFromErr(err)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) DeleteReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, data []byte) winfsp.Status {
	hs, ok := p.lookupHandle(h)
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}
	if err := os.Remove(p.reparsePath(hs.path)); err != nil && !os.IsNotExist(err) {
		return statusFromErr(err)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) QuerySecurity(ctx context.Context, req *winfsp.Request, h winfsp.Handle) ([]byte, winfsp.Status) {
	return nil, winfsp.StatusSuccess
}

func (p *Provider) SetSecurity(ctx context.Context, req *winfsp.Request, h winfsp.Handle, sd []byte) winfsp.Status {
	return winfsp.StatusSuccess
}
