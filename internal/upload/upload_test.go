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

package upload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armar-oci/armar/internal/backend"
	"github.com/armar-oci/armar/internal/errdef"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	primary, err := backend.NewLocal(t.TempDir())
	require.NoError(t, err)
	cache, err := backend.NewLocal(t.TempDir())
	require.NoError(t, err)
	return New(primary, cache)
}

func TestManager_CreateAndProbe(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)

	n, err := m.Probe(ctx, "repo-a", id)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestManager_Probe_NotFound(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	_, err := m.Probe(ctx, "repo-a", "missing")
	require.ErrorIs(t, err, errdef.ErrNotFound)
}

func TestManager_AppendAt(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)

	require.NoError(t, m.AppendAt(ctx, "repo-a", id, 0, []byte("hello")))
	require.NoError(t, m.AppendAt(ctx, "repo-a", id, 5, []byte(" world")))

	n, err := m.Probe(ctx, "repo-a", id)
	require.NoError(t, err)
	require.EqualValues(t, len("hello world"), n)
}

func TestManager_AppendAt_RangeMismatch(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)

	err = m.AppendAt(ctx, "repo-a", id, 3, []byte("x"))
	require.ErrorIs(t, err, errdef.ErrRangeNotSatisfied)
}

func TestManager_AppendStreaming(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)

	require.NoError(t, m.AppendStreaming(ctx, "repo-a", id, []byte("chunk-one")))
	require.NoError(t, m.AppendStreaming(ctx, "repo-a", id, []byte("chunk-two")))

	n, err := m.Probe(ctx, "repo-a", id)
	require.NoError(t, err)
	require.EqualValues(t, len("chunk-onechunk-two"), n)
}

func TestManager_Finalize(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)
	require.NoError(t, m.AppendAt(ctx, "repo-a", id, 0, []byte("payload")))

	const digest = "sha256:deadbeef"
	require.NoError(t, m.Finalize(ctx, "repo-a", id, digest, nil))

	data, err := m.primary.Read(ctx, "repo/repo-a/blobs/"+digest)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))

	_, err = m.Probe(ctx, "repo-a", id)
	require.ErrorIs(t, err, errdef.ErrNotFound)
}

func TestManager_Finalize_TrailingBody(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	id, err := m.Create(ctx, "repo-a")
	require.NoError(t, err)
	require.NoError(t, m.AppendAt(ctx, "repo-a", id, 0, []byte("head-")))

	const digest = "sha256:cafefeed"
	require.NoError(t, m.Finalize(ctx, "repo-a", id, digest, []byte("tail")))

	data, err := m.primary.Read(ctx, "repo/repo-a/blobs/"+digest)
	require.NoError(t, err)
	require.Equal(t, "head-tail", string(data))
}
