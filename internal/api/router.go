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

// Package api wires the distribution-spec HTTP surface onto the index and
// upload managers: one gorilla/mux route per operation, with a single
// error-mapping boundary from the storage taxonomy to OCI error bodies.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/armar-oci/armar/internal/index"
	"github.com/armar-oci/armar/internal/upload"
)

// maxBodyBytes is the configured request-payload ceiling; it is not derived
// from any algorithmic constraint.
const maxBodyBytes = 1 << 30 // 1 GiB

// Server holds the dependencies every handler needs.
type Server struct {
	idx *index.Manager
	up  *upload.Manager
	log *logrus.Logger
}

// NewServer builds a Server over idx and up, logging through log.
func NewServer(idx *index.Manager, up *upload.Manager, log *logrus.Logger) *Server {
	return &Server{idx: idx, up: up, log: log}
}

// Router builds the full distribution-spec route table, wrapped in a
// request-logging middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleLiveness).Methods(http.MethodGet)

	v2 := r.PathPrefix("/v2").Subrouter()

	// Upload routes are registered ahead of the generic blob route: both
	// match on the "blobs" literal segment, and mux resolves the first
	// route whose pattern and method match.
	v2.HandleFunc("/{repo:.+}/blobs/uploads/", s.handleCreateUpload).Methods(http.MethodPost)
	v2.HandleFunc("/{repo:.+}/blobs/uploads/{uuid}", s.handlePatchUpload).Methods(http.MethodPatch)
	v2.HandleFunc("/{repo:.+}/blobs/uploads/{uuid}", s.handlePutUpload).Methods(http.MethodPut)
	v2.HandleFunc("/{repo:.+}/blobs/uploads/{uuid}", s.handleProbeUpload).Methods(http.MethodGet)

	v2.HandleFunc("/{repo:.+}/tags/list", s.handleListTags).Methods(http.MethodGet)
	v2.HandleFunc("/{repo:.+}/referrers/{digest}", s.handleReferrers).Methods(http.MethodGet)

	v2.HandleFunc("/{repo:.+}/manifests/{reference}", s.handleGetManifest).Methods(http.MethodGet, http.MethodHead)
	v2.HandleFunc("/{repo:.+}/manifests/{reference}", s.handlePutManifest).Methods(http.MethodPut)
	v2.HandleFunc("/{repo:.+}/manifests/{reference}", s.handleDeleteManifest).Methods(http.MethodDelete)

	v2.HandleFunc("/{repo:.+}/blobs/{digest}", s.handleGetBlob).Methods(http.MethodGet, http.MethodHead)
	v2.HandleFunc("/{repo:.+}/blobs/{digest}", s.handleDeleteBlob).Methods(http.MethodDelete)

	return s.loggingMiddleware(r)
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("true"))
}
