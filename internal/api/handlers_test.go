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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/armar-oci/armar/internal/backend"
	"github.com/armar-oci/armar/internal/index"
	"github.com/armar-oci/armar/internal/upload"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	primary, err := backend.NewLocal(t.TempDir())
	require.NoError(t, err)
	cache, err := backend.NewLocal(t.TempDir())
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(testLogWriter{t})
	srv := NewServer(index.New(primary, cache), upload.New(primary, cache), log)
	return srv.Router()
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestLiveness(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", rec.Body.String())
}

func TestMonolithicPush(t *testing.T) {
	h := newTestServer(t)

	const emptyDigest = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	req := httptest.NewRequest(http.MethodPost, "/v2/a/b/blobs/uploads/?digest="+emptyDigest, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	location := rec.Header().Get("Location")
	require.Equal(t, "/v2/a/b/blobs/"+emptyDigest, location)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, location, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())
}

func TestChunkedPush(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v2/lib/x/blobs/uploads/", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	uploadLoc := rec.Header().Get("Location")

	req := httptest.NewRequest(http.MethodPatch, uploadLoc, strings.NewReader("hello"))
	req.Header.Set("Content-Range", "0-4")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "0-4", rec.Header().Get("Range"))

	req = httptest.NewRequest(http.MethodPatch, uploadLoc, strings.NewReader("world"))
	req.Header.Set("Content-Range", "5-9")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	const digest = "sha256:936a185caaa266bb9cbe981e9e05cb78cd732b0b3280eb944412bb6f8f8f07af"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, uploadLoc+"?digest="+digest, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/lib/x/blobs/"+digest, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "helloworld", rec.Body.String())
}

func TestTagAndManifestPush(t *testing.T) {
	h := newTestServer(t)

	body := `{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json"}`
	req := httptest.NewRequest(http.MethodPut, "/v2/app/web/manifests/v1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/vnd.oci.image.manifest.v1+json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/v2/app/web/manifests/sha256:"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/app/web/tags/list", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tl struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tl))
	require.Equal(t, []string{"v1"}, tl.Tags)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/app/web/manifests/v1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, body, rec.Body.String())
}

func TestDeleteManifestRejectsNonDigest(t *testing.T) {
	h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v2/app/web/manifests/v1.0", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestResumeProbe(t *testing.T) {
	h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v2/r/x/blobs/uploads/", nil))
	uploadLoc := rec.Header().Get("Location")

	req := httptest.NewRequest(http.MethodPatch, uploadLoc, strings.NewReader("abcde"))
	req.Header.Set("Content-Range", "0-4")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uploadLoc, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "0-4", rec.Header().Get("Range"))
}
