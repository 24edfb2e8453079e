// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// NotImplementedProvider supplies StatusInvalidDeviceRequest defaults for
// every Provider method. Embed it in a concrete provider and override only
// the operations that provider supports; Go's method promotion does the
// rest, exactly as fuseutil.NotImplementedFileSystem does for the teacher's
// FileSystem interface.
type NotImplementedProvider struct{}

var _ Provider = NotImplementedProvider{}

func (NotImplementedProvider) GetSecurityByName(ctx context.Context, path string) (*SecurityDescriptor, FileAttributes, Status) {
	return nil, 0, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Create(ctx context.Context, req *Request, path string, sd *SecurityDescriptor) (Handle, Information, Status) {
	return 0, InfoNone, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Open(ctx context.Context, req *Request, path string) (Handle, Information, Status) {
	return 0, InfoNone, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Overwrite(ctx context.Context, req *Request, h Handle, attrs FileAttributes, supersede bool) (Information, Status) {
	return InfoNone, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Cleanup(ctx context.Context, req *Request, h Handle, path string, flags CleanupFlags) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Close(ctx context.Context, req *Request, h Handle) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Read(ctx context.Context, req *Request, h Handle, offset int64, size int) ([]byte, Status) {
	return nil, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Write(ctx context.Context, req *Request, h Handle, offset int64, data []byte, writeToEnd, constrained bool) (int, Status) {
	return 0, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Flush(ctx context.Context, req *Request, h Handle) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) GetFileInfo(ctx context.Context, req *Request, h Handle) (FileAttributes, uint64, uint64, Status) {
	return 0, 0, 0, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) SetBasicInfo(ctx context.Context, req *Request, h Handle, info BasicInfo) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) SetFileSize(ctx context.Context, req *Request, h Handle, size uint64, asAllocation bool) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) CanDelete(ctx context.Context, req *Request, h Handle, path string) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) Rename(ctx context.Context, req *Request, h Handle, oldName, newName string, replaceIfExists bool) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) GetVolumeInfo(ctx context.Context, req *Request) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) SetVolumeLabel(ctx context.Context, req *Request, label string) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) ReadDirectory(ctx context.Context, req *Request, h Handle, offset int64, pattern string, buf []byte) (int, Status) {
	return 0, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) ResolveReparsePoints(ctx context.Context, path string, index int, openReparsePoint bool) (Status, []byte) {
	return StatusInvalidDeviceRequest, nil
}

func (NotImplementedProvider) GetReparsePoint(ctx context.Context, req *Request, h Handle, path string) ([]byte, Status) {
	return nil, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) SetReparsePoint(ctx context.Context, req *Request, h Handle, path string, data []byte) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) DeleteReparsePoint(ctx context.Context, req *Request, h Handle, path string, data []byte) Status {
	return StatusInvalidDeviceRequest
}

func (NotImplementedProvider) QuerySecurity(ctx context.Context, req *Request, h Handle) ([]byte, Status) {
	return nil, StatusInvalidDeviceRequest
}

func (NotImplementedProvider) SetSecurity(ctx context.Context, req *Request, h Handle, sd []byte) Status {
	return StatusInvalidDeviceRequest
}
