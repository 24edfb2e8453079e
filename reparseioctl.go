// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// handleFileSystemControl dispatches the three reparse-point ioctls
// (spec.md §4.3/§9): GET/SET/DELETE_REPARSE_POINT. The original
// FspFileSystemOpFileSystemControl (src/dll/fsop.c) guards SET/DELETE with
// an "if (1)" that reads like a disabled tag restriction rather than a
// deliberate one; rather than bake either reading into the dispatcher,
// this package leaves the tag check to the provider's own
// SetReparsePoint/DeleteReparsePoint (DESIGN.md records this as the
// resolution of that open question).
func (fs *FileSystem) handleFileSystemControl(ctx context.Context, req *Request, resp *Response) {
	h := handleFromUserContext(req.UserContext)

	switch req.ReparseOp {
	case ReparseOpGet:
		data, status := fs.provider.GetReparsePoint(ctx, req, h, req.Path)
		if !status.IsSuccess() {
			resp.IoStatus.Status = fail(status)
			return
		}
		resp.Data = data
		resp.IoStatus.Status = StatusSuccess

	case ReparseOpSet:
		status := fs.provider.SetReparsePoint(ctx, req, h, req.Path, req.ReparseBuffer)
		resp.IoStatus.Status = statusOrFail(status)

	case ReparseOpDelete:
		status := fs.provider.DeleteReparsePoint(ctx, req, h, req.Path, req.ReparseBuffer)
		resp.IoStatus.Status = statusOrFail(status)

	default:
		resp.IoStatus.Status = fail(StatusInvalidParameter)
	}
}
