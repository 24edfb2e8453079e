// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

// Information is the per-kind disposition-of-the-operation code carried in
// IoStatus.Information. It is only ever set when the handler that produced
// it returns success (spec.md §3 invariant, §8 Testable Property 2).
type Information int

const (
	InfoNone Information = iota
	FileCreated
	FileOpened
	FileOverwritten
	FileSuperseded
	FileExists
	FileDoesNotExist
)

func (i Information) String() string {
	switch i {
	case FileCreated:
		return "FILE_CREATED"
	case FileOpened:
		return "FILE_OPENED"
	case FileOverwritten:
		return "FILE_OVERWRITTEN"
	case FileSuperseded:
		return "FILE_SUPERSEDED"
	case FileExists:
		return "FILE_EXISTS"
	case FileDoesNotExist:
		return "FILE_DOES_NOT_EXIST"
	default:
		return "InfoNone"
	}
}

// IoStatus is the status/information pair every response carries.
type IoStatus struct {
	Status      Status
	Information Information
}

// Response is the header-plus-trailing-buffer record the dispatcher
// produces for a Request (spec.md §3). As with Request, only the fields
// relevant to the originating Kind are meaningful.
type Response struct {
	IoStatus IoStatus

	UserContext   UserContext
	GrantedAccess AccessMask

	// Populated by Read/ReadDirectory/GetReparsePoint and by the resolver's
	// reparse payload (spec.md §4.2).
	Data []byte

	// ReparseTag carries the terminating reparse tag when IoStatus.Status
	// is StatusReparse (spec.md §4.2, §8 scenario S4 — "Information =
	// reparse tag"). Kept separate from IoStatus.Information, which only
	// ever carries one of the Information disposition constants, rather
	// than overloading that field's meaning the way the NT IoStatusBlock
	// does on the wire.
	ReparseTag uint32

	// Populated by Write/ReadDirectory/Read: number of bytes transferred.
	BytesTransferred int

	// Populated by QueryInformation/GetFileInfo-shaped handlers.
	FileAttributes FileAttributes
	FileSize       uint64
	AllocationSize uint64

	// Populated by QuerySecurity.
	Security []byte
}

// setInformation sets IoStatus.Information, enforcing spec.md §3's
// invariant that it is only meaningful on success. Call this instead of
// assigning the field directly so that a future handler bug (setting it on
// a failure path) is caught in one place.
func (r *Response) setInformation(info Information) {
	if r.IoStatus.Status != StatusSuccess {
		panic("setInformation called on a non-success response")
	}
	r.IoStatus.Information = info
}

// fail returns s, a non-success code, and panics if s is StatusSuccess.
// Handlers assign its result to IoStatus.Status on every failure path,
// leaving Information at its caller-supplied value (spec.md §8 Testable
// Property 2), the same way the teacher's commonOp.respondErr is the single
// path by which an op reports failure.
func fail(s Status) Status {
	if s == StatusSuccess {
		panic("fail called with StatusSuccess")
	}
	return s
}
