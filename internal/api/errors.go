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

package api

import (
	"errors"
	"net/http"

	"github.com/armar-oci/armar/internal/apierr"
	"github.com/armar-oci/armar/internal/errdef"
)

// kind distinguishes the two NotFound wire codes: a manifest lookup miss
// maps to MANIFEST_UNKNOWN, a blob lookup miss to BLOB_UNKNOWN.
type kind int

const (
	kindManifest kind = iota
	kindBlob
)

// writeStorageError performs the storage-to-wire mapping for NotFound,
// RangeNotSatisfied and all other storage errors. The manifest-delete,
// blob-delete and upload-probe handlers do not call it: they write their
// apierr responses directly.
func writeStorageError(w http.ResponseWriter, err error, k kind) {
	switch {
	case errors.Is(err, errdef.ErrNotFound):
		if k == kindManifest {
			apierr.Write(w, apierr.ManifestUnknown("manifest is unknown"))
		} else {
			apierr.Write(w, apierr.BlobUnknown("blob is unknown"))
		}
	case errors.Is(err, errdef.ErrRangeNotSatisfied):
		apierr.Write(w, apierr.RangeNotSatisfied())
	default:
		apierr.WriteInternal(w)
	}
}
