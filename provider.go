// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// Provider is the vtable a file system implements (spec.md §6). Every
// method is optional: a Provider that wants the default behavior simply
// leaves it unset by embedding NotImplementedProvider, which returns
// StatusInvalidDeviceRequest for everything, the same role
// fuseutil.NotImplementedFileSystem plays for the teacher's FileSystem
// interface.
//
// Implementations must be safe for concurrent use; the Dispatcher's Guard
// only serializes name-space-mutating operations against each other (spec.md
// §5), not every call.
type Provider interface {
	// GetSecurityByName looks up the security descriptor for path without
	// opening it. Used during reparse-point traversal and by
	// OpenTargetDirectory's existence probe.
	GetSecurityByName(ctx context.Context, path string) (*SecurityDescriptor, FileAttributes, Status)

	Create(ctx context.Context, req *Request, path string, sd *SecurityDescriptor) (Handle, Information, Status)
	Open(ctx context.Context, req *Request, path string) (Handle, Information, Status)
	Overwrite(ctx context.Context, req *Request, h Handle, attrs FileAttributes, supersede bool) (Information, Status)
	Cleanup(ctx context.Context, req *Request, h Handle, path string, flags CleanupFlags) Status
	Close(ctx context.Context, req *Request, h Handle) Status

	Read(ctx context.Context, req *Request, h Handle, offset int64, size int) (data []byte, status Status)
	Write(ctx context.Context, req *Request, h Handle, offset int64, data []byte, writeToEnd, constrained bool) (n int, status Status)

	Flush(ctx context.Context, req *Request, h Handle) Status

	GetFileInfo(ctx context.Context, req *Request, h Handle) (FileAttributes, uint64, uint64, Status)
	SetBasicInfo(ctx context.Context, req *Request, h Handle, info BasicInfo) Status
	SetFileSize(ctx context.Context, req *Request, h Handle, size uint64, asAllocation bool) Status

	CanDelete(ctx context.Context, req *Request, h Handle, path string) Status
	Rename(ctx context.Context, req *Request, h Handle, oldName, newName string, replaceIfExists bool) Status

	GetVolumeInfo(ctx context.Context, req *Request) Status
	SetVolumeLabel(ctx context.Context, req *Request, label string) Status

	ReadDirectory(ctx context.Context, req *Request, h Handle, offset int64, pattern string, buf []byte) (n int, status Status)

	// ResolveReparsePoints is invoked by the dispatcher when an access check
	// reports StatusReparse (spec.md §4.3). index is the byte offset the
	// checker reported. Most providers simply delegate to
	// reparse.ResolveReparsePoints (internal/reparse) with their own probe.
	ResolveReparsePoints(ctx context.Context, path string, index int, openReparsePoint bool) (Status, []byte)

	GetReparsePoint(ctx context.Context, req *Request, h Handle, path string) ([]byte, Status)
	SetReparsePoint(ctx context.Context, req *Request, h Handle, path string, data []byte) Status
	DeleteReparsePoint(ctx context.Context, req *Request, h Handle, path string, data []byte) Status

	// QuerySecurity/SetSecurity back FileSystem.handleQuerySecurity and
	// handleSetSecurity (SPEC_FULL.md §4): not named in spec.md §6's vtable
	// list but present in src/dll/fsop.c and needed for a complete
	// implementation.
	QuerySecurity(ctx context.Context, req *Request, h Handle) ([]byte, Status)
	SetSecurity(ctx context.Context, req *Request, h Handle, sd []byte) Status
}
