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

// Package ocipath derives the on-disk/in-bucket paths used by every other
// package, and computes the SHA-256 content digests that key blobs.
package ocipath

import (
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
)

// digestPrefix is the only digest algorithm this registry recognizes.
const digestPrefix = "sha256:"

// Blob returns the path of the blob identified by digest within repo.
func Blob(repo string, dgst string) string {
	return path.Join("repo", repo, "blobs", dgst)
}

// Index returns the path of the repository's image-index catalog.
func Index(repo string) string {
	return path.Join("repo", repo, "index.json")
}

// Tags returns the path of the repository's materialized tag list.
func Tags(repo string) string {
	return path.Join("repo", repo, "tags.json")
}

// Upload returns the path of the scratch file for the given upload session.
func Upload(repo, uuid string) string {
	return path.Join("repo", repo, ".cache", uuid)
}

// IsDigest reports whether ref is a digest reference, i.e. begins with
// "sha256:".
func IsDigest(ref string) bool {
	return strings.HasPrefix(ref, digestPrefix)
}

// ComputeDigest returns the sha256: digest of data, in lowercase hex.
func ComputeDigest(data []byte) string {
	return digest.Canonical.FromBytes(data).String()
}
