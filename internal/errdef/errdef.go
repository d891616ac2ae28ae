/*
Copyright The ORAS Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errdef defines the storage-layer error taxonomy shared by the
// backend, index, and upload packages. Handlers in internal/api map these
// onto the wire (OCI) error taxonomy at a single boundary.
package errdef

import "errors"

// Storage-layer sentinel errors. Wrap with fmt.Errorf("...: %w", ErrX) at the
// point of failure and inspect with errors.Is.
var (
	// ErrNotFound indicates the requested object does not exist at the
	// derived path.
	ErrNotFound = errors.New("not found")

	// ErrRangeNotSatisfied indicates a chunked upload append was attempted
	// at an offset that does not match the current scratch file length.
	ErrRangeNotSatisfied = errors.New("range not satisfied")

	// ErrBackend wraps any backend failure that isn't a NotFound or
	// RangeNotSatisfied condition.
	ErrBackend = errors.New("backend error")

	// ErrSpecParse indicates malformed OCI JSON (image-index or
	// image-manifest) was read from a backend.
	ErrSpecParse = errors.New("malformed oci json")

	// ErrSerdeParse indicates a malformed tag list JSON document.
	ErrSerdeParse = errors.New("malformed tag list")
)
