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

package index

import (
	"encoding/json"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// parsePayload extracts the subject digest (empty if absent) and the
// annotations map from a manifest or index payload, according to its media
// type. Any other media type is left unparsed: subject is empty and
// annotations is nil.
func parsePayload(mediaType string, data []byte) (subject string, annotations map[string]string) {
	switch mediaType {
	case ocispec.MediaTypeImageManifest:
		var man ocispec.Manifest
		if err := json.Unmarshal(data, &man); err != nil {
			return "", nil
		}
		if man.Subject != nil {
			subject = man.Subject.Digest.String()
		}
		return subject, man.Annotations
	case ocispec.MediaTypeImageIndex:
		var idx ocispec.Index
		if err := json.Unmarshal(data, &idx); err != nil {
			return "", nil
		}
		if idx.Subject != nil {
			subject = idx.Subject.Digest.String()
		}
		return subject, idx.Annotations
	default:
		return "", nil
	}
}
