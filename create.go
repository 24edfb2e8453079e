// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import (
	"context"
	"strings"
)

// handleCreate is the Create dispatcher (spec.md §4.3): it branches first
// on OpenTargetDirectory, then on Disposition, composing CreateCheck/
// OpenCheck/OverwriteCheck/OpenTargetDirectoryCheck with the provider's
// Open/Create primitives.
func (fs *FileSystem) handleCreate(ctx context.Context, req *Request, resp *Response) {
	if req.Create.OpenTargetDirectory {
		fs.handleOpenTargetDirectory(ctx, req, resp)
		return
	}

	switch req.Create.Disposition {
	case DispositionCreate:
		fs.createNew(ctx, req, resp)

	case DispositionOpen:
		fs.openExisting(ctx, req, resp, FileOpened)

	case DispositionOpenIf:
		fs.openOrCreate(ctx, req, resp)

	case DispositionOverwrite, DispositionSupersede:
		info := FileOverwritten
		if req.Create.Disposition == DispositionSupersede {
			info = FileSuperseded
		}
		fs.overwriteExisting(ctx, req, resp, info)

	case DispositionOverwriteIf:
		fs.overwriteOrCreate(ctx, req, resp)

	default:
		resp.IoStatus.Status = fail(StatusInvalidParameter)
	}
}

// parentAndLeaf splits path on its final `\` separator.
func parentAndLeaf(path string) (parent, leaf string) {
	i := strings.LastIndexByte(path, '\\')
	if i < 0 {
		return "", path
	}
	if i == 0 {
		return `\`, path[1:]
	}
	return path[:i], path[i+1:]
}

// createCheckResult is what CreateCheck hands back to its caller: either a
// parent security descriptor to synthesize the new object's SD from, or a
// failure/REPARSE status.
type createCheckResult struct {
	parentSD      *SecurityDescriptor
	grantedAccess AccessMask
	status        Status
	reparseIndex  int
}

// CreateCheck performs the access check on the parent directory that
// spec.md §4.3's Create flow needs before calling provider.Create: either
// FILE_ADD_SUBDIRECTORY (directory creations) or FILE_ADD_FILE.
func (fs *FileSystem) CreateCheck(ctx context.Context, req *Request) createCheckResult {
	parent, _ := parentAndLeaf(req.Path)

	if index, found := fs.findReparsePoint(ctx, parent); found {
		return createCheckResult{status: StatusReparse, reparseIndex: index}
	}

	parentSD, _, status := fs.provider.GetSecurityByName(ctx, parent)
	if !status.IsSuccess() {
		return createCheckResult{status: status}
	}

	addBit := AccessFileAddFile
	if req.Create.DirectoryFile {
		addBit = AccessFileAddSubdirectory
	}

	granted, status := fs.access.Check(ctx, parentSD, req.Header.AccessToken, addBit)
	if !status.IsSuccess() {
		parentSD.Release()
		return createCheckResult{status: status}
	}

	if req.Create.DesiredAccess&AccessMaximumAllowed != 0 {
		granted = AccessGenericAll
	} else {
		granted = req.Create.DesiredAccess
	}

	return createCheckResult{parentSD: parentSD, grantedAccess: granted, status: StatusSuccess}
}

// accessCheckResult is the common shape OpenCheck/OverwriteCheck/
// OpenTargetDirectoryCheck return.
type accessCheckResult struct {
	sd            *SecurityDescriptor
	grantedAccess AccessMask
	status        Status
	reparseIndex  int
}

// OpenCheck performs the access check on the file itself for
// DesiredAccess ∪ (DELETE if DELETE_ON_CLOSE), masking the implicit DELETE
// bit back out per spec.md §8 Testable Property 8 unless MAXIMUM_ALLOWED
// was requested or DELETE was requested anyway.
func (fs *FileSystem) OpenCheck(ctx context.Context, req *Request) accessCheckResult {
	return fs.fileAccessCheck(ctx, req, 0)
}

// OverwriteCheck is OpenCheck plus an additional implicit access bit:
// DELETE for SUPERSEDE, FILE_WRITE_DATA for OVERWRITE.
func (fs *FileSystem) OverwriteCheck(ctx context.Context, req *Request) accessCheckResult {
	extra := AccessFileWriteData
	if req.Create.Disposition == DispositionSupersede {
		extra = AccessDelete
	}
	return fs.fileAccessCheck(ctx, req, extra)
}

func (fs *FileSystem) fileAccessCheck(ctx context.Context, req *Request, extra AccessMask) accessCheckResult {
	if index, found := fs.findReparsePoint(ctx, req.Path); found {
		return accessCheckResult{status: StatusReparse, reparseIndex: index}
	}

	sd, _, status := fs.provider.GetSecurityByName(ctx, req.Path)
	if !status.IsSuccess() {
		return accessCheckResult{status: status}
	}

	addedBits := extra
	effective := req.Create.DesiredAccess | extra
	if req.Create.DeleteOnClose {
		effective |= AccessDelete
		addedBits |= AccessDelete
	}

	granted, status := fs.access.Check(ctx, sd, req.Header.AccessToken, effective)
	if !status.IsSuccess() {
		sd.Release()
		return accessCheckResult{status: status}
	}

	granted = maskGrantedAccess(granted, req.Create.DesiredAccess, addedBits)
	return accessCheckResult{sd: sd, grantedAccess: granted, status: StatusSuccess}
}

// OpenTargetDirectoryCheck performs the access check on the parent for
// DesiredAccess as-is, traversal always enabled.
func (fs *FileSystem) OpenTargetDirectoryCheck(ctx context.Context, req *Request) accessCheckResult {
	parent, _ := parentAndLeaf(req.Path)

	if index, found := fs.findReparsePoint(ctx, parent); found {
		return accessCheckResult{status: StatusReparse, reparseIndex: index}
	}

	sd, _, status := fs.provider.GetSecurityByName(ctx, parent)
	if !status.IsSuccess() {
		return accessCheckResult{status: status}
	}

	granted, status := fs.access.Check(ctx, sd, req.Header.AccessToken, req.Create.DesiredAccess)
	if !status.IsSuccess() {
		sd.Release()
		return accessCheckResult{status: status}
	}

	return accessCheckResult{sd: sd, grantedAccess: granted, status: StatusSuccess}
}

// createNew implements the CREATE disposition: CreateCheck, synthesize the
// object's SD from the parent's, provider.Create, info=CREATED.
func (fs *FileSystem) createNew(ctx context.Context, req *Request, resp *Response) {
	check := fs.CreateCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}
	if !check.status.IsSuccess() {
		resp.IoStatus.Status = fail(check.status)
		return
	}

	objectSD, status := fs.access.CreateSecurityDescriptor(ctx, check.parentSD, req.Header.AccessToken, req.Create.FileAttributes)
	check.parentSD.Release()
	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	handle, _, status := fs.provider.Create(ctx, req, req.Path, objectSD)
	objectSD.Release()

	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	resp.UserContext = handleToUserContext(handle)
	resp.GrantedAccess = check.grantedAccess
	resp.IoStatus.Status = StatusSuccess
	resp.setInformation(FileCreated)
}

// openExisting implements OPEN (and the Open half of OPEN_IF/
// OVERWRITE_IF): OpenCheck, provider.Open, info=info.
func (fs *FileSystem) openExisting(ctx context.Context, req *Request, resp *Response, info Information) {
	check := fs.OpenCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}
	if !check.status.IsSuccess() {
		resp.IoStatus.Status = fail(check.status)
		return
	}
	defer check.sd.Release()

	handle, _, status := fs.provider.Open(ctx, req, req.Path)
	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	resp.UserContext = handleToUserContext(handle)
	resp.GrantedAccess = check.grantedAccess
	resp.IoStatus.Status = StatusSuccess
	resp.setInformation(info)
}

// overwriteExisting implements OVERWRITE/SUPERSEDE (and the Overwrite half
// of OVERWRITE_IF): OverwriteCheck, provider.Open, info=info.
func (fs *FileSystem) overwriteExisting(ctx context.Context, req *Request, resp *Response, info Information) {
	check := fs.OverwriteCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}
	if !check.status.IsSuccess() {
		resp.IoStatus.Status = fail(check.status)
		return
	}
	defer check.sd.Release()

	handle, _, status := fs.provider.Open(ctx, req, req.Path)
	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	resp.UserContext = handleToUserContext(handle)
	resp.GrantedAccess = check.grantedAccess
	resp.IoStatus.Status = StatusSuccess
	resp.setInformation(info)
}

// openOrCreate implements OPEN_IF: OpenCheck; if the open reports
// NAME_NOT_FOUND, fall through to the Create path (with traversal already
// done, so CreateCheck's own reparse detection is redundant but harmless);
// info = CREATED if created, else OPENED.
func (fs *FileSystem) openOrCreate(ctx context.Context, req *Request, resp *Response) {
	check := fs.OpenCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}

	if check.status.IsSuccess() {
		defer check.sd.Release()
		handle, _, status := fs.provider.Open(ctx, req, req.Path)
		if status.IsSuccess() {
			resp.UserContext = handleToUserContext(handle)
			resp.GrantedAccess = check.grantedAccess
			resp.IoStatus.Status = StatusSuccess
			resp.setInformation(FileOpened)
			return
		}
		if status != StatusObjectNameNotFound {
			resp.IoStatus.Status = fail(status)
			return
		}
		// Fall through to Create.
	} else if check.status != StatusObjectNameNotFound {
		resp.IoStatus.Status = fail(check.status)
		return
	}

	fs.createNew(ctx, req, resp)
}

// overwriteOrCreate implements OVERWRITE_IF: OverwriteCheck; fall-through
// identical to OPEN_IF, with final info = CREATED or OVERWRITTEN.
func (fs *FileSystem) overwriteOrCreate(ctx context.Context, req *Request, resp *Response) {
	check := fs.OverwriteCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}

	if check.status.IsSuccess() {
		defer check.sd.Release()
		handle, _, status := fs.provider.Open(ctx, req, req.Path)
		if status.IsSuccess() {
			resp.UserContext = handleToUserContext(handle)
			resp.GrantedAccess = check.grantedAccess
			resp.IoStatus.Status = StatusSuccess
			resp.setInformation(FileOverwritten)
			return
		}
		if status != StatusObjectNameNotFound {
			resp.IoStatus.Status = fail(status)
			return
		}
	} else if check.status != StatusObjectNameNotFound {
		resp.IoStatus.Status = fail(check.status)
		return
	}

	fs.createNew(ctx, req, resp)
}

// handleOpenTargetDirectory implements the OpenTargetDirectory flow:
// OpenTargetDirectoryCheck, split the path, provider.Open(parent), then
// probe the leaf's existence via GetSecurityByName to choose
// info=EXISTS/DOES_NOT_EXIST: DOES_NOT_EXIST only for OBJECT_NAME_NOT_FOUND
// or OBJECT_PATH_NOT_FOUND, EXISTS for any other probe status. A provider
// without GetSecurityByName does not reach the probe: its
// STATUS_INVALID_DEVICE_REQUEST already fails OpenTargetDirectoryCheck.
func (fs *FileSystem) handleOpenTargetDirectory(ctx context.Context, req *Request, resp *Response) {
	check := fs.OpenTargetDirectoryCheck(ctx, req)
	if check.status == StatusReparse {
		fs.resolveAndRespond(ctx, req, resp, check.reparseIndex, req.Create.OpenReparsePoint)
		return
	}
	if !check.status.IsSuccess() {
		resp.IoStatus.Status = fail(check.status)
		return
	}
	defer check.sd.Release()

	parent, _ := parentAndLeaf(req.Path)
	handle, _, status := fs.provider.Open(ctx, req, parent)
	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	_, _, leafStatus := fs.provider.GetSecurityByName(ctx, req.Path)

	info := FileExists
	if leafStatus == StatusObjectNameNotFound || leafStatus == StatusObjectPathNotFound {
		info = FileDoesNotExist
	}

	resp.UserContext = handleToUserContext(handle)
	resp.GrantedAccess = check.grantedAccess
	resp.IoStatus.Status = StatusSuccess
	resp.setInformation(info)
}

func handleToUserContext(h Handle) UserContext {
	return UserContext{uint64(h), 0}
}
