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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/armar-oci/armar/internal/apierr"
	"github.com/armar-oci/armar/internal/errdef"
	"github.com/armar-oci/armar/internal/ocipath"
)

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func uploadLocation(repo, id string) string {
	return fmt.Sprintf("/v2/%s/blobs/uploads/%s", repo, id)
}

func blobLocation(repo, dgst string) string {
	return fmt.Sprintf("/v2/%s/blobs/%s", repo, dgst)
}

func manifestLocation(repo, dgst string) string {
	return fmt.Sprintf("/v2/%s/manifests/%s", repo, dgst)
}

func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, reference := vars["repo"], vars["reference"]

	if ct := r.Header.Get("Content-Type"); ct != "" && ct != ocispec.MediaTypeImageManifest {
		apierr.Write(w, apierr.InvalidManifestFormat(fmt.Sprintf("the given format is not accepted for manifest %s", ct)))
		return
	}

	data, err := s.idx.GetManifest(r.Context(), repo, reference)
	if err != nil {
		writeStorageError(w, err, kindManifest)
		return
	}

	w.Header().Set("Content-Type", ocispec.MediaTypeImageManifest)
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePutManifest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, reference := vars["repo"], vars["reference"]

	data, err := readBody(w, r)
	if err != nil {
		apierr.WriteInternal(w)
		return
	}

	mediaType := r.Header.Get("Content-Type")
	dgst, subject, err := s.idx.WriteManifest(r.Context(), repo, reference, data, mediaType)
	if err != nil {
		writeStorageError(w, err, kindManifest)
		return
	}

	w.Header().Set("Location", manifestLocation(repo, dgst))
	w.Header().Set("OCI-Subject", subject)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteManifest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, reference := vars["repo"], vars["reference"]

	if !ocipath.IsDigest(reference) {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Any failure - not only a missing manifest - is reported as
	// MANIFEST_UNKNOWN here, matching the source's undiscriminating error
	// mapping on this one path.
	if err := s.idx.DeleteManifest(r.Context(), repo, reference); err != nil {
		apierr.Write(w, apierr.ManifestUnknown("manifest is unknown"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGetBlob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, digest := vars["repo"], vars["digest"]

	data, err := s.idx.GetBlob(r.Context(), repo, digest)
	if err != nil {
		writeStorageError(w, err, kindBlob)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDeleteBlob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, digest := vars["repo"], vars["digest"]

	if err := s.idx.DeleteBlob(r.Context(), repo, digest); err != nil {
		apierr.Write(w, apierr.BlobUnknown("blob is unknown"))
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	repo := mux.Vars(r)["repo"]

	n, hasN := 0, false
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n, hasN = v, true
		}
	}

	tl, err := s.idx.ListTags(r.Context(), repo, n, hasN)
	if err != nil {
		writeStorageError(w, err, kindManifest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tl)
}

func (s *Server) handleReferrers(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, digest := vars["repo"], vars["digest"]
	artifactType := r.URL.Query().Get("artifactType")

	idx, err := s.idx.Referrers(r.Context(), repo, digest, artifactType)
	if err != nil {
		writeStorageError(w, err, kindManifest)
		return
	}
	w.Header().Set("Content-Type", ocispec.MediaTypeImageIndex)
	_ = json.NewEncoder(w).Encode(idx)
}

func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	repo := mux.Vars(r)["repo"]
	q := r.URL.Query()
	digest := q.Get("digest")
	_, hasMount := q["mount"]

	id, err := s.up.Create(r.Context(), repo)
	if err != nil {
		apierr.WriteInternal(w)
		return
	}

	if hasMount {
		w.Header().Set("Location", uploadLocation(repo, id))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if digest != "" {
		data, err := readBody(w, r)
		if err != nil {
			apierr.WriteInternal(w)
			return
		}
		if len(data) > 0 {
			if err := s.up.AppendAt(r.Context(), repo, id, 0, data); err != nil {
				writeStorageError(w, err, kindBlob)
				return
			}
		}
		if err := s.up.Finalize(r.Context(), repo, id, digest, nil); err != nil {
			writeStorageError(w, err, kindBlob)
			return
		}
		w.Header().Set("Location", blobLocation(repo, digest))
		w.WriteHeader(http.StatusCreated)
		return
	}

	w.Header().Set("Location", uploadLocation(repo, id))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePatchUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, id := vars["repo"], vars["uuid"]

	data, err := readBody(w, r)
	if err != nil {
		apierr.WriteInternal(w)
		return
	}

	location := uploadLocation(repo, id)

	if cr := r.Header.Get("Content-Range"); cr != "" {
		from, _, perr := parseContentRange(cr)
		if perr != nil {
			apierr.WriteInternal(w)
			return
		}
		if err := s.up.AppendAt(r.Context(), repo, id, from, data); err != nil {
			writeStorageError(w, err, kindBlob)
			return
		}
		w.Header().Set("Location", location)
		w.Header().Set("Range", fmt.Sprintf("0-%d", len(data)-1))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// Streaming append reports a fixed Range: 0-0, independent of the
	// appended length - the documented state-machine behavior.
	if err := s.up.AppendStreaming(r.Context(), repo, id, data); err != nil {
		writeStorageError(w, err, kindBlob)
		return
	}
	w.Header().Set("Location", location)
	w.Header().Set("Range", "0-0")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePutUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, id := vars["repo"], vars["uuid"]
	digest := r.URL.Query().Get("digest")

	trailing, err := readBody(w, r)
	if err != nil {
		apierr.WriteInternal(w)
		return
	}

	if err := s.up.Finalize(r.Context(), repo, id, digest, trailing); err != nil {
		writeStorageError(w, err, kindBlob)
		return
	}
	w.Header().Set("Location", blobLocation(repo, digest))
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleProbeUpload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	repo, id := vars["repo"], vars["uuid"]

	n, err := s.up.Probe(r.Context(), repo, id)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			apierr.Write(w, apierr.BlobUploadUnknown())
			return
		}
		apierr.WriteInternal(w)
		return
	}

	w.Header().Set("Location", uploadLocation(repo, id))
	w.Header().Set("Range", fmt.Sprintf("0-%d", n-1))
	w.WriteHeader(http.StatusNoContent)
}
