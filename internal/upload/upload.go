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

// Package upload implements the resumable blob-upload state machine: a
// session is a scratch file on the cache backend, identified by a freshly
// minted UUID, that grows by appends until it is promoted to a blob on the
// primary backend.
package upload

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/armar-oci/armar/internal/backend"
	"github.com/armar-oci/armar/internal/errdef"
	"github.com/armar-oci/armar/internal/ocipath"
	"github.com/armar-oci/armar/internal/reflock"
)

// Manager drives upload sessions. Scratch files live on cache; finalized
// blobs are promoted to primary.
type Manager struct {
	primary backend.Backend
	cache   backend.Backend
	locks   *reflock.Pool
}

// New creates a Manager. primary receives promoted blobs; cache holds
// in-progress scratch files.
func New(primary, cache backend.Backend) *Manager {
	return &Manager{primary: primary, cache: cache, locks: reflock.New()}
}

func sessionKey(repo, id string) string {
	return repo + "/" + id
}

// Create mints a v4 UUID, writes its empty scratch file, and returns it.
func (m *Manager) Create(ctx context.Context, repo string) (string, error) {
	id := uuid.New().String()
	if err := m.cache.Write(ctx, ocipath.Upload(repo, id), nil); err != nil {
		return "", fmt.Errorf("create upload session: %w", err)
	}
	return id, nil
}

// AppendAt appends data at the session's current length, failing with
// errdef.ErrRangeNotSatisfied if from does not match. The session lock
// serializes this against any other append to the same (repo, id).
func (m *Manager) AppendAt(ctx context.Context, repo, id string, from int64, data []byte) error {
	key := sessionKey(repo, id)
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	info, err := m.cache.Stat(ctx, ocipath.Upload(repo, id))
	if err != nil {
		return err
	}
	if info.Length != from {
		return fmt.Errorf("upload %s: offset %d, have %d: %w", id, from, info.Length, errdef.ErrRangeNotSatisfied)
	}
	return m.cache.Append(ctx, ocipath.Upload(repo, id), data)
}

// AppendStreaming appends data without an offset check. Per the state
// machine's documented streaming semantics, no committed-length is reported
// back to the caller for this path - see the API layer's fixed Range: 0-0.
func (m *Manager) AppendStreaming(ctx context.Context, repo, id string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	key := sessionKey(repo, id)
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	return m.cache.Append(ctx, ocipath.Upload(repo, id), data)
}

// Probe returns the current length of an open session. Returns an error
// wrapping errdef.ErrNotFound if the session doesn't exist.
func (m *Manager) Probe(ctx context.Context, repo, id string) (int64, error) {
	info, err := m.cache.Stat(ctx, ocipath.Upload(repo, id))
	if err != nil {
		return 0, err
	}
	return info.Length, nil
}

// Finalize optionally appends a trailing body, then promotes the session's
// scratch file to a blob at digest on the primary backend and discards the
// scratch file. Digest verification is intentionally not performed here -
// the caller-supplied digest is trusted as-is.
func (m *Manager) Finalize(ctx context.Context, repo, id, digest string, trailing []byte) error {
	key := sessionKey(repo, id)
	m.locks.Lock(key)

	if len(trailing) > 0 {
		if err := m.cache.Append(ctx, ocipath.Upload(repo, id), trailing); err != nil {
			m.locks.Unlock(key)
			return err
		}
	}

	data, err := m.cache.Read(ctx, ocipath.Upload(repo, id))
	if err != nil {
		m.locks.Unlock(key)
		return err
	}
	if err := m.primary.Write(ctx, ocipath.Blob(repo, digest), data); err != nil {
		m.locks.Unlock(key)
		return err
	}
	if err := m.cache.Delete(ctx, ocipath.Upload(repo, id)); err != nil {
		m.locks.Unlock(key)
		return err
	}

	m.locks.Unlock(key)
	m.locks.Forget(key)
	return nil
}
