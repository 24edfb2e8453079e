// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package winfsp implements the user-mode operation dispatcher of a
// Windows-style installable file system: it sits between a kernel driver
// and a user-supplied Provider, enforcing access checks, reparse-point
// resolution and multi-reader/single-writer ordering before translating
// each request into one or more Provider calls.
//
// The primary elements of interest are:
//
//  *  The Provider interface, which a file system implements to supply the
//     actual storage operations (Open, Create, Read, Write, ...).
//
//  *  FileSystem.Dispatch, which routes an incoming Request to the handler
//     for its Kind, running it under the Guard appropriate to that request.
//
//  *  FileSystem, the host object built from a Config, binding a Provider,
//     an AccessChecker and a guard strategy together.
//
// Out of scope: the ioctl transport that delivers requests from the kernel
// driver and ships responses back, on-disk layout, caching, name-space
// mounting and network transport. See internal/reparse and internal/guard
// for the two satellite components (reparse-point resolution and the
// per-file-system operation guard).
package winfsp
