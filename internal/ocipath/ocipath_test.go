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

package ocipath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDigest(t *testing.T) {
	cases := map[string]bool{
		"sha256:abc123": true,
		"v1.0":           false,
		"":                false,
	}
	for ref, want := range cases {
		assert.Equal(t, want, IsDigest(ref), "IsDigest(%q)", ref)
	}
}

func TestComputeDigest_Deterministic(t *testing.T) {
	a := ComputeDigest([]byte("hello"))
	b := ComputeDigest([]byte("hello"))
	require.Equal(t, a, b)
	require.True(t, IsDigest(a))
}

func TestComputeDigest_Empty(t *testing.T) {
	got := ComputeDigest(nil)
	require.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", got)
}

func TestBlobIndexTagsUpload(t *testing.T) {
	assert.Equal(t, "repo/app/web/blobs/sha256:x", Blob("app/web", "sha256:x"))
	assert.Equal(t, "repo/app/web/index.json", Index("app/web"))
	assert.Equal(t, "repo/app/web/tags.json", Tags("app/web"))
	assert.Equal(t, "repo/app/web/.cache/u1", Upload("app/web", "u1"))
}
