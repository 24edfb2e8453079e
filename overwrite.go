// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// handleOverwrite truncates an already-open handle (distinct from the
// Create-time OVERWRITE/OVERWRITE_IF dispositions, which open-and-overwrite
// in one step). Per spec.md §8 Testable Property 4, a failed Overwrite
// must still close the handle before returning: the kernel never sends a
// matching Close for a handle this call fails to vouch for, so the
// dispatcher does it on the provider's behalf.
func (fs *FileSystem) handleOverwrite(ctx context.Context, req *Request, resp *Response) {
	h := handleFromUserContext(req.UserContext)

	info, status := fs.provider.Overwrite(ctx, req, h, req.Create.FileAttributes, req.Create.Disposition == DispositionSupersede)
	if !status.IsSuccess() {
		fs.provider.Close(ctx, req, h)
		resp.IoStatus.Status = fail(status)
		return
	}

	resp.IoStatus.Status = StatusSuccess
	resp.setInformation(info)
}
