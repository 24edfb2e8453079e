// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package winfsp

// Disposition is the decoded form of the packed top byte of the wire
// CreateOptions word (spec.md §3, §9 "Disposition encoding"). Decoding
// happens once, at the transport boundary that is out of scope for this
// package; Request.Create.Disposition always carries the decoded value.
type Disposition int

const (
	DispositionCreate Disposition = iota
	DispositionOpen
	DispositionOpenIf
	DispositionOverwrite
	DispositionSupersede
	DispositionOverwriteIf
)

func (d Disposition) String() string {
	switch d {
	case DispositionCreate:
		return "CREATE"
	case DispositionOpen:
		return "OPEN"
	case DispositionOpenIf:
		return "OPEN_IF"
	case DispositionOverwrite:
		return "OVERWRITE"
	case DispositionSupersede:
		return "SUPERSEDE"
	case DispositionOverwriteIf:
		return "OVERWRITE_IF"
	default:
		return "Disposition(?)"
	}
}
