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

// Package backend defines the uniform read/write/append/stat/delete
// capability over an object namespace. Two instances are wired by cmd/armar:
// a durable primary (local filesystem or S3-compatible) and a scratch cache
// (always local filesystem).
package backend

import "context"

// Info describes the metadata of a stored object.
type Info struct {
	// Length is the current size of the object in bytes.
	Length int64
}

// Backend is a capability set over a string-keyed object namespace. It does
// not model inheritance between the primary and cache tiers: both are
// plain instances of this interface.
type Backend interface {
	// Read returns the full content at p. Returns an error wrapping
	// errdef.ErrNotFound if p does not exist.
	Read(ctx context.Context, p string) ([]byte, error)

	// Write fully replaces the content at p, creating parent "directories"
	// as needed.
	Write(ctx context.Context, p string, data []byte) error

	// Append appends data to the object at p. The object must already
	// exist; implementations return an error wrapping errdef.ErrNotFound
	// otherwise.
	Append(ctx context.Context, p string, data []byte) error

	// Stat returns the current length of the object at p. Returns an
	// error wrapping errdef.ErrNotFound if p does not exist.
	Stat(ctx context.Context, p string) (Info, error)

	// Delete removes the object at p. Returns an error wrapping
	// errdef.ErrNotFound if p does not exist.
	Delete(ctx context.Context, p string) error
}
