// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// handleQueryDirectory forwards to provider.ReadDirectory, handing it a
// buffer sized to req.Length for it to pack entries into via
// internal/wire.AddDirInfo (spec.md §4.3/§8 Testable Property 6). A
// provider that fills the buffer to capacity still reports success; a
// caller that wants more issues another QueryDirectory with Offset
// advanced past the last entry returned.
func (fs *FileSystem) handleQueryDirectory(ctx context.Context, req *Request, resp *Response) {
	buf := make([]byte, req.Length)

	n, status := fs.provider.ReadDirectory(ctx, req, handleFromUserContext(req.UserContext), req.Offset, req.Pattern, buf)
	if !status.IsSuccess() {
		resp.IoStatus.Status = fail(status)
		return
	}

	resp.Data = buf[:n]
	resp.BytesTransferred = n
	resp.IoStatus.Status = StatusSuccess
}
