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

package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/armar-oci/armar/internal/errdef"
)

func TestLocal_WriteRead(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Write(ctx, "repo/a/blobs/sha256:x", []byte("hello")))

	data, err := l.Read(ctx, "repo/a/blobs/sha256:x")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestLocal_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Read(ctx, "missing")
	require.ErrorIs(t, err, errdef.ErrNotFound)
}

func TestLocal_Append_NotFound(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = l.Append(ctx, "missing", []byte("x"))
	require.ErrorIs(t, err, errdef.ErrNotFound)
}

func TestLocal_Append(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Write(ctx, "obj", []byte("foo")))
	require.NoError(t, l.Append(ctx, "obj", []byte("bar")))

	data, err := l.Read(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, "foobar", string(data))
}

func TestLocal_StatAndDelete(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Write(ctx, "obj", []byte("12345")))

	info, err := l.Stat(ctx, "obj")
	require.NoError(t, err)
	require.EqualValues(t, 5, info.Length)

	require.NoError(t, l.Delete(ctx, "obj"))

	_, err = l.Stat(ctx, "obj")
	require.ErrorIs(t, err, errdef.ErrNotFound)

	err = l.Delete(ctx, "obj")
	require.ErrorIs(t, err, errdef.ErrNotFound)
}
