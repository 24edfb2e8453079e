// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

import "context"

// AccessChecker is the external collaborator spec.md §1 names but leaves
// out of scope: AccessCheck and CreateSecurityDescriptor. The Create
// dispatcher's CreateCheck/OpenCheck/OverwriteCheck/OpenTargetDirectoryCheck
// sub-routines (spec.md §4.3) call it to evaluate a token against a
// security descriptor and to synthesize a new object's descriptor from its
// parent's.
type AccessChecker interface {
	// Check evaluates token against sd for the bits in desiredAccess,
	// returning either a granted mask or a failure status. The
	// MAXIMUM_ALLOWED masking law (spec.md §8 Testable Property 8) is
	// applied by the dispatcher after this call, not by the checker.
	Check(ctx context.Context, sd *SecurityDescriptor, token AccessToken, desiredAccess AccessMask) (granted AccessMask, status Status)

	// CreateSecurityDescriptor synthesizes a new object's security
	// descriptor from its parent's, the requesting token, and the new
	// object's attributes.
	CreateSecurityDescriptor(ctx context.Context, parent *SecurityDescriptor, token AccessToken, attrs FileAttributes) (*SecurityDescriptor, Status)
}

// DefaultAccessChecker is a permissive AccessChecker suitable for
// providers that don't implement their own ACL evaluation: Check always
// succeeds, granting exactly the requested bits, and
// CreateSecurityDescriptor returns an empty descriptor. Providers needing
// real access control supply their own AccessChecker in Config.
type DefaultAccessChecker struct{}

func (DefaultAccessChecker) Check(ctx context.Context, sd *SecurityDescriptor, token AccessToken, desiredAccess AccessMask) (AccessMask, Status) {
	return desiredAccess, StatusSuccess
}

func (DefaultAccessChecker) CreateSecurityDescriptor(ctx context.Context, parent *SecurityDescriptor, token AccessToken, attrs FileAttributes) (*SecurityDescriptor, Status) {
	return &SecurityDescriptor{}, StatusSuccess
}

// maskGrantedAccess applies spec.md §8 Testable Property 8: unless
// original requested MAXIMUM_ALLOWED, any bit in addedBits that the
// dispatcher added on top of original (DELETE for DELETE_ON_CLOSE,
// FILE_WRITE_DATA for an overwrite-disposition open) is masked back out of
// granted unless original itself requested that bit.
func maskGrantedAccess(granted, original, addedBits AccessMask) AccessMask {
	if original&AccessMaximumAllowed != 0 {
		return granted
	}

	for _, bit := range [...]AccessMask{AccessDelete, AccessFileWriteData} {
		if addedBits&bit != 0 && original&bit == 0 {
			granted &^= bit
		}
	}
	return granted
}
