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

// Package apierr is the wire-facing error taxonomy: the OCI error codes
// returned in distribution-spec error bodies, and the single HTTP status
// each one maps to. internal/api is the only package that constructs these
// from storage errors, keeping the storage-to-wire mapping at one boundary.
package apierr

import (
	"encoding/json"
	"net/http"
)

// Code is an OCI distribution-spec error code.
type Code string

const (
	CodeManifestInvalid   Code = "MANIFEST_INVALID"
	CodeManifestUnknown   Code = "MANIFEST_UNKNOWN"
	CodeBlobUnknown       Code = "BLOB_UNKNOWN"
	CodeBlobUploadInvalid Code = "BLOB_UPLOAD_INVALID"
	CodeBlobUploadUnknown Code = "BLOB_UPLOAD_UNKNOWN"
)

// Error is a wire-level API error: an HTTP status plus, for every case
// except an internal failure, an OCI error object body.
type Error struct {
	Status  int
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// InvalidManifestFormat reports a manifest request whose Content-Type is
// present and not the image-manifest media type.
func InvalidManifestFormat(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeManifestInvalid, Message: message}
}

// ManifestUnknown reports a manifest reference that could not be resolved.
func ManifestUnknown(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeManifestUnknown, Message: message}
}

// BlobUnknown reports a blob digest that could not be resolved.
func BlobUnknown(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeBlobUnknown, Message: message}
}

// RangeNotSatisfied reports a chunked upload whose Content-Range offset did
// not match the session's current length.
func RangeNotSatisfied() *Error {
	return &Error{Status: http.StatusRequestedRangeNotSatisfiable, Code: CodeBlobUploadInvalid, Message: "invalid blob upload"}
}

// BlobUploadUnknown reports an upload session that no longer exists.
func BlobUploadUnknown() *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeBlobUploadUnknown, Message: "blob upload unknown"}
}

type errorObject struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Errors []errorObject `json:"errors"`
}

// Write serializes err as an OCI error-object body and sends it with its
// status code.
func Write(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	_ = json.NewEncoder(w).Encode(errorBody{Errors: []errorObject{{Code: err.Code, Message: err.Message}}})
}

// WriteInternal sends the plain-text 500 response used for every storage
// failure that isn't one of the named cases above.
func WriteInternal(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
