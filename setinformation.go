// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// handleSetInformation dispatches on req.InfoClass (spec.md §4.3's
// FspFileSystemOpSetInformation table): Basic/Allocation/EndOfFile forward
// straight to the matching provider hook; Disposition and Rename need
// their own pre-checks.
func (fs *FileSystem) handleSetInformation(ctx context.Context, req *Request, resp *Response) {
	h := handleFromUserContext(req.UserContext)

	switch req.InfoClass {
	case InfoBasic:
		status := fs.provider.SetBasicInfo(ctx, req, h, req.BasicInfo)
		resp.IoStatus.Status = statusOrFail(status)

	case InfoAllocation:
		status := fs.provider.SetFileSize(ctx, req, h, req.Size, true)
		resp.IoStatus.Status = statusOrFail(status)

	case InfoEndOfFile:
		status := fs.provider.SetFileSize(ctx, req, h, req.Size, false)
		resp.IoStatus.Status = statusOrFail(status)

	case InfoDisposition:
		fs.handleSetDisposition(ctx, req, resp, h)

	case InfoRename:
		fs.handleRename(ctx, req, resp, h)

	default:
		resp.IoStatus.Status = fail(StatusInvalidParameter)
	}
}

// handleSetDisposition implements the Delete/cancel-Delete half of
// InfoDisposition (spec.md §4.3): setting the delete-on-close bit first
// asks GetFileInfo whether the file is read-only (READONLY files may never
// be marked for deletion, STATUS_CANNOT_DELETE), then defers to
// provider.CanDelete for anything else the provider wants to veto
// (non-empty directory, open-by-other-handles, and so on). Clearing the
// bit never fails.
func (fs *FileSystem) handleSetDisposition(ctx context.Context, req *Request, resp *Response, h Handle) {
	if !req.DeleteFile {
		resp.IoStatus.Status = StatusSuccess
		return
	}

	attrs, _, _, status := fs.provider.GetFileInfo(ctx, req, h)
	if status.IsSuccess() && attrs&FileAttributeReadonly != 0 {
		resp.IoStatus.Status = fail(StatusCannotDelete)
		return
	}

	status = fs.provider.CanDelete(ctx, req, h, req.Path)
	resp.IoStatus.Status = statusOrFail(status)
}

// handleRename implements InfoRename (spec.md §4.3, fsop.c:795-811): when
// RenameInfo.AccessToken is non-zero, the new name is first checked for
// DELETE access (tolerating OBJECT_NAME_NOT_FOUND/OBJECT_PATH_NOT_FOUND,
// since the target need not exist), and a reparse point along the new
// name ends that check with success without the DELETE check; when it is
// zero, the check is skipped. provider.Rename runs whenever the check
// passes. Either way, "a token was present" is the same boolean
// fsop.c passes through as the provider's replaceIfExists argument: only
// a token-bearing rename has proven DELETE access on an existing target,
// so only it may replace one.
func (fs *FileSystem) handleRename(ctx context.Context, req *Request, resp *Response, h Handle) {
	newName := req.RenameInfo.NewName
	hasToken := req.RenameInfo.AccessToken != 0

	if hasToken {
		if _, found := fs.findReparsePoint(ctx, newName); found {
			// spec.md §7: a reparse hit along the rename target collapses to
			// plain success: the DELETE check is skipped and the rename
			// proceeds.
			status := fs.provider.Rename(ctx, req, h, req.Path, newName, hasToken)
			resp.IoStatus.Status = statusOrFail(status)
			return
		}

		sd, _, status := fs.provider.GetSecurityByName(ctx, newName)
		if status.IsSuccess() {
			_, status = fs.access.Check(ctx, sd, req.RenameInfo.AccessToken, AccessDelete)
			sd.Release()
			if !status.IsSuccess() {
				resp.IoStatus.Status = fail(status)
				return
			}
		} else if status != StatusObjectNameNotFound && status != StatusObjectPathNotFound {
			resp.IoStatus.Status = fail(status)
			return
		}
	}

	status := fs.provider.Rename(ctx, req, h, req.Path, newName, hasToken)
	resp.IoStatus.Status = statusOrFail(status)
}
