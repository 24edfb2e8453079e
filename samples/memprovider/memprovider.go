// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

// Package memprovider is a winfsp.Provider that stores data and metadata
// entirely in memory, the role samples/memfs plays for the teacher's
// fuse.FileSystem interface.
package memprovider

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/andypern/winfsp"
	"github.com/andypern/winfsp/internal/reparse"
	"github.com/andypern/winfsp/internal/wire"
)

// Provider stores the whole namespace as a tree of nodes rooted at "\",
// guarded by a single invariant mutex in the manner of memFS.mu in the
// teacher: every structural mutation (create, rename, delete) takes the
// tree lock for the duration of the call, which is simple to reason about
// at the cost of not allowing concurrent mutations to unrelated
// subtrees. The disk-backed provider (samples/diskprovider) instead locks
// only its handle table and leaves the file tree to the host file system.
type Provider struct {
	winfsp.NotImplementedProvider

	clock timeutil.Clock

	mu   syncutil.InvariantMutex
	root *node // GUARDED_BY(mu)

	handles    map[winfsp.Handle]*node // GUARDED_BY(mu)
	nextHandle uint64                  // atomic
}

// node is one file or directory.
type node struct {
	isDir   bool
	attrs   winfsp.FileAttributes
	crtime  time.Time
	mtime   time.Time
	contents []byte
	reparse  []byte // non-nil iff this node is a reparse point
	children map[string]*node // non-nil iff isDir
	links    int
	owner    uuid.UUID // synthesized SID stand-in, rendered by QuerySecurity
}

// New constructs an empty Provider with a single root directory.
func New(clock timeutil.Clock) *Provider {
	p := &Provider{
		clock: clock,
		root: &node{
			isDir:    true,
			attrs:    winfsp.FileAttributeDirectory,
			children: make(map[string]*node),
			links:    1,
			owner:    uuid.New(),
		},
		handles: make(map[winfsp.Handle]*node),
	}
	now := clock.Now()
	p.root.crtime, p.root.mtime = now, now

	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	return p
}

func (p *Provider) checkInvariants() {
	if p.root == nil || !p.root.isDir {
		panic("memprovider: root must be a directory")
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, `\`)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, `\`)
}

// lookup walks path from the root, returning the terminal node (or its
// would-be parent and name, if missing) along with the index of the first
// reparse point it passed through that isn't the terminal component
// itself.
//
// SHARED_LOCKS_REQUIRED(p.mu)
func (p *Provider) lookup(path string) (n *node, parent *node, name string, reparseIndex int, hasReparse bool) {
	segs := splitPath(path)
	cur := p.root
	var cursor int

	for i, seg := range segs {
		isLast := i == len(segs)-1

		if cur.reparse != nil {
			hasReparse = true
			reparseIndex = cursor
			return
		}

		child, ok := cur.children[seg]
		cursor += len(seg) + 1
		if !ok {
			if isLast {
				return nil, cur, seg, 0, false
			}
			return nil, nil, "", 0, false
		}

		if isLast {
			return child, cur, seg, 0, false
		}
		cur = child
	}

	return p.root, nil, "", 0, false
}

func (p *Provider) newHandle(n *node) winfsp.Handle {
	id := atomic.AddUint64(&p.nextHandle, 1)
	h := winfsp.Handle(id)
	p.handles[h] = n
	return h
}

// GetSecurityByName reports StatusReparse if an intermediate path
// component or the target itself is a reparse point,
// StatusObjectNameNotFound/StatusObjectPathNotFound if the target or an
// ancestor is missing, and StatusSuccess otherwise (the shape
// FileSystem.findReparsePoint translates for internal/reparse.Probe).
func (p *Provider) GetSecurityByName(ctx context.Context, path string) (*winfsp.SecurityDescriptor, winfsp.FileAttributes, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, parent, _, _, hasReparse := p.lookup(path)
	if hasReparse {
		return nil, 0, winfsp.StatusReparse
	}
	if n == nil {
		if parent == nil {
			return nil, 0, winfsp.StatusObjectPathNotFound
		}
		return nil, 0, winfsp.StatusObjectNameNotFound
	}

	status := winfsp.StatusSuccess
	if n.reparse != nil {
		status = winfsp.StatusReparse
	}
	return winfsp.NewSecurityDescriptor(ownerDescriptor(n.owner)), n.attrs, status
}

// ownerDescriptor renders a node's synthesized owner SID as SDDL-style
// text (O:<SID>), the same shape a real provider would hand back from
// GetSecurityByName. The UUID stands in for a SID since
// this provider has no Windows security subsystem behind it.
func ownerDescriptor(owner uuid.UUID) []byte {
	return []byte("O:" + owner.String())
}

func (p *Provider) Create(ctx context.Context, req *winfsp.Request, path string, sd *winfsp.SecurityDescriptor) (winfsp.Handle, winfsp.Information, winfsp.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, parent, name, _, hasReparse := p.lookup(path)
	if hasReparse {
		return 0, 0, winfsp.StatusReparse
	}
	if n != nil {
		return 0, 0, winfsp.StatusObjectNameCollision
	}
	if parent == nil || !parent.isDir {
		return 0, 0, winfsp.StatusObjectPathNotFound
	}

	now := p.clock.Now()
	child := &node{
		isDir:  req.Create.DirectoryFile,
		attrs:  req.Create.FileAttributes,
		crtime: now,
		mtime:  now,
		links:  1,
		owner:  uuid.New(),
	}
	if child.isDir {
		child.children = make(map[string]*node)
		child.attrs |= winfsp.FileAttributeDirectory
	}

	parent.children[name] = child
	parent.mtime = now

	return p.newHandle(child), winfsp.FileCreated, winfsp.StatusSuccess
}

func (p *Provider) Open(ctx context.Context, req *winfsp.Request, path string) (winfsp.Handle, winfsp.Information, winfsp.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, parent, _, _, hasReparse := p.lookup(path)
	if hasReparse {
		return 0, 0, winfsp.StatusReparse
	}
	if n == nil {
		if parent == nil {
			return 0, 0, winfsp.StatusObjectPathNotFound
		}
		return 0, 0, winfsp.StatusObjectNameNotFound
	}

	return p.newHandle(n), winfsp.FileOpened, winfsp.StatusSuccess
}

func (p *Provider) Overwrite(ctx context.Context, req *winfsp.Request, h winfsp.Handle, attrs winfsp.FileAttributes, supersede bool) (winfsp.Information, winfsp.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	n.contents = nil
	n.attrs = attrs
	n.mtime = p.clock.Now()

	if supersede {
		return winfsp.FileSuperseded, winfsp.StatusSuccess
	}
	return winfsp.FileOverwritten, winfsp.StatusSuccess
}

func (p *Provider) Cleanup(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, flags winfsp.CleanupFlags) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if flags&winfsp.CleanupDelete == 0 {
		return winfsp.StatusSuccess
	}

	_, parent, name, _, _ := p.lookup(path)
	if parent != nil {
		delete(parent.children, name)
	}
	return winfsp.StatusSuccess
}

func (p *Provider) Close(ctx context.Context, req *winfsp.Request, h winfsp.Handle) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.handles, h)
	return winfsp.StatusSuccess
}

func (p *Provider) Read(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, size int) ([]byte, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok {
		return nil, winfsp.StatusInvalidDeviceRequest
	}
	if offset >= int64(len(n.contents)) {
		return nil, winfsp.StatusSuccess
	}

	end := offset + int64(size)
	if end > int64(len(n.contents)) {
		end = int64(len(n.contents))
	}
	return append([]byte(nil), n.contents[offset:end]...), winfsp.StatusSuccess
}

func (p *Provider) Write(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, data []byte, writeToEnd, constrained bool) (int, winfsp.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	if writeToEnd {
		offset = int64(len(n.contents))
	}

	if constrained {
		if offset >= int64(len(n.contents)) {
			return 0, winfsp.StatusSuccess
		}
		if end := offset + int64(len(data)); end > int64(len(n.contents)) {
			data = data[:int64(len(n.contents))-offset]
		}
	}

	end := offset + int64(len(data))
	if int64(len(n.contents)) < end {
		padding := make([]byte, end-int64(len(n.contents)))
		n.contents = append(n.contents, padding...)
	}

	copy(n.contents[offset:], data)
	n.mtime = p.clock.Now()

	return len(data), winfsp.StatusSuccess
}

func (p *Provider) Flush(ctx context.Context, req *winfsp.Request, h winfsp.Handle) winfsp.Status {
	return winfsp.StatusSuccess
}

func (p *Provider) GetFileInfo(ctx context.Context, req *winfsp.Request, h winfsp.Handle) (winfsp.FileAttributes, uint64, uint64, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok {
		return 0, 0, 0, winfsp.StatusInvalidDeviceRequest
	}
	size := uint64(len(n.contents))
	return n.attrs, size, size, winfsp.StatusSuccess
}

func (p *Provider) SetBasicInfo(ctx context.Context, req *winfsp.Request, h winfsp.Handle, info winfsp.BasicInfo) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	if info.FileAttributes != nil {
		n.attrs = *info.FileAttributes
	}
	if info.LastWriteTime != nil {
		n.mtime = *info.LastWriteTime
	}
	return winfsp.StatusSuccess
}

func (p *Provider) SetFileSize(ctx context.Context, req *winfsp.Request, h winfsp.Handle, size uint64, asAllocation bool) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	if asAllocation {
		return winfsp.StatusSuccess
	}

	if uint64(len(n.contents)) > size {
		n.contents = n.contents[:size]
	} else {
		n.contents = append(n.contents, make([]byte, size-uint64(len(n.contents)))...)
	}
	n.mtime = p.clock.Now()
	return winfsp.StatusSuccess
}

func (p *Provider) CanDelete(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string) winfsp.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}
	if n.isDir && len(n.children) != 0 {
		return winfsp.StatusCannotDelete
	}
	return winfsp.StatusSuccess
}

func (p *Provider) Rename(ctx context.Context, req *winfsp.Request, h winfsp.Handle, oldName, newName string, replaceIfExists bool) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, oldParent, oldLeaf, _, _ := p.lookup(oldName)
	if n == nil {
		return winfsp.StatusObjectNameNotFound
	}

	_, newParent, newLeaf, _, _ := p.lookup(newName)
	if newParent == nil || !newParent.isDir {
		return winfsp.StatusObjectPathNotFound
	}
	if existing := newParent.children[newLeaf]; existing != nil && !replaceIfExists {
		return winfsp.StatusObjectNameCollision
	}

	delete(oldParent.children, oldLeaf)
	newParent.children[newLeaf] = n
	n.mtime = p.clock.Now()
	return winfsp.StatusSuccess
}

func (p *Provider) GetVolumeInfo(ctx context.Context, req *winfsp.Request) winfsp.Status {
	return winfsp.StatusSuccess
}

func (p *Provider) SetVolumeLabel(ctx context.Context, req *winfsp.Request, label string) winfsp.Status {
	return winfsp.StatusSuccess
}

func (p *Provider) ReadDirectory(ctx context.Context, req *winfsp.Request, h winfsp.Handle, offset int64, pattern string, buf []byte) (int, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok || !n.isDir {
		return 0, winfsp.StatusInvalidDeviceRequest
	}

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sortStrings(names)

	var transferred int
	for i := int(offset); i < len(names); i++ {
		name := names[i]
		child := n.children[name]
		entry := &wire.DirEntry{
			FileAttributes: uint32(child.attrs),
			FileSize:       uint64(len(child.contents)),
			AllocationSize: uint64(len(child.contents)),
			Name:           name,
		}
		if !wire.AddDirInfo(entry, buf, &transferred) {
			break
		}
	}

	return transferred, winfsp.StatusSuccess
}

func (p *Provider) ResolveReparsePoints(ctx context.Context, path string, index int, openReparsePoint bool) (winfsp.Status, []byte) {
	probe := func(segment string, isDirectory bool) (reparse.Status, []byte) {
		p.mu.RLock()
		n, _, _, _, hasReparse := p.lookup(segment)
		p.mu.RUnlock()

		if hasReparse || n == nil {
			return reparse.StatusObjectNameNotFound, nil
		}
		if n.reparse != nil {
			return reparse.StatusReparse, n.reparse
		}
		return reparse.StatusNotAReparsePoint, nil
	}

	status, _, payload := reparse.ResolveReparsePoints(path, index, !openReparsePoint, 4096, probe)
	if status == reparse.StatusReparse {
		return winfsp.StatusReparse, payload
	}
	return winfsp.Status(status), nil
}

func (p *Provider) GetReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string) ([]byte, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok {
		return nil, winfsp.StatusInvalidDeviceRequest
	}
	if n.reparse == nil {
		return nil, winfsp.Status(reparse.StatusNotAReparsePoint)
	}
	return n.reparse, winfsp.StatusSuccess
}

func (p *Provider) SetReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, data []byte) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}

	// CanReplaceReparsePoint compares an existing tag/GUID against a
	// replacement (spec.md §7.1); it has nothing to compare against on a
	// node's first-ever reparse point, so that case skips straight to the
	// assignment.
	if n.reparse != nil {
		status := reparse.CanReplaceReparsePoint(n.reparse, data)
		if status != reparse.StatusSuccess {
			return winfsp.Status(status)
		}
	}

	n.reparse = append([]byte(nil), data...)
	return winfsp.StatusSuccess
}

func (p *Provider) DeleteReparsePoint(ctx context.Context, req *winfsp.Request, h winfsp.Handle, path string, data []byte) winfsp.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.handles[h]
	if !ok {
		return winfsp.StatusInvalidDeviceRequest
	}
	n.reparse = nil
	return winfsp.StatusSuccess
}

func (p *Provider) QuerySecurity(ctx context.Context, req *winfsp.Request, h winfsp.Handle) ([]byte, winfsp.Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n, ok := p.handles[h]
	if !ok {
		return nil, winfsp.StatusInvalidDeviceRequest
	}
	return ownerDescriptor(n.owner), winfsp.StatusSuccess
}

// SetSecurity accepts the blob without parsing it: this provider has no
// access-control model to update, only the owner stamp used by
// QuerySecurity/GetSecurityByName.
func (p *Provider) SetSecurity(ctx context.Context, req *winfsp.Request, h winfsp.Handle, sd []byte) winfsp.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.handles[h]; !ok {
		return winfsp.StatusInvalidDeviceRequest
	}
	return winfsp.StatusSuccess
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
