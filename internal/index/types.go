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

// Package index manages a repository's index.json catalog and tags.json
// tag list, and maintains the referential invariants between them as
// manifests are pushed and deleted.
package index

import (
	imagespec "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// AnnotationRefName is the annotation key OCI uses to record a manifest
// descriptor's human tag inside an image-index.
const AnnotationRefName = ocispec.AnnotationRefName

// TagList is the JSON document materialized at repo/<name>/tags.json.
type TagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// newIndex builds the empty image-index written on first access to a
// repository that doesn't have one yet.
func newIndex() ocispec.Index {
	return ocispec.Index{
		Versioned: imagespec.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: []ocispec.Descriptor{},
	}
}
