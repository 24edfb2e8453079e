// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

// AccessToken is an opaque handle to the security context of the caller,
// passed through to the security-descriptor collaborator (spec.md §6,
// out of scope for this package beyond carrying the value).
type AccessToken uint64

// AccessMask is a DesiredAccess/GrantedAccess bitmask. Only the bits this
// package's invariants care about are named; the rest pass through
// opaquely to AccessChecker.
type AccessMask uint32

const (
	AccessDelete             AccessMask = 0x00010000
	AccessFileWriteData      AccessMask = 0x00000002
	AccessFileAddFile        AccessMask = 0x00000002
	AccessFileAddSubdirectory AccessMask = 0x00000004
	AccessMaximumAllowed     AccessMask = 0x02000000
	AccessGenericAll         AccessMask = 0x10000000
)

// FileAttributes mirrors the Windows FILE_ATTRIBUTE_* bitmask.
type FileAttributes uint32

const (
	FileAttributeReadonly  FileAttributes = 0x00000001
	FileAttributeDirectory FileAttributes = 0x00000010
	FileAttributeNormal    FileAttributes = 0x00000080
)

// SecurityDescriptor is an opaque, caller-owned descriptor blob. The real
// collaborator (CreateSecurityDescriptor/AccessCheck, spec.md §6) is
// outside this package's scope; it is modeled here only as the value that
// must be released exactly once per acquisition (spec.md §5).
type SecurityDescriptor struct {
	bytes []byte
}

// NewSecurityDescriptor wraps a provider-synthesized descriptor blob (for
// example SDDL text or a packed SID) for return from GetSecurityByName or
// AccessChecker.CreateSecurityDescriptor. The bytes are opaque to this
// package.
func NewSecurityDescriptor(data []byte) *SecurityDescriptor {
	return &SecurityDescriptor{bytes: data}
}

// Bytes returns the descriptor's raw blob.
func (sd *SecurityDescriptor) Bytes() []byte {
	return sd.bytes
}

// Release marks the descriptor as freed. Safe to call at most once per
// acquisition; the dispatcher's CreateCheck/provider.Create pairing relies
// on exactly-once release (spec.md §5).
func (sd *SecurityDescriptor) Release() {
	sd.bytes = nil
}

// Handle is the provider-chosen opaque file handle stored by the kernel in
// a Request's UserContext for the lifetime of an open (spec.md §3).
type Handle uint64
