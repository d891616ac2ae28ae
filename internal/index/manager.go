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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/sync/semaphore"

	"github.com/armar-oci/armar/internal/backend"
	"github.com/armar-oci/armar/internal/errdef"
	"github.com/armar-oci/armar/internal/ocipath"
	"github.com/armar-oci/armar/internal/reflock"
	"github.com/armar-oci/armar/internal/syncutil"
)

// Manager implements the repository index / tag list / manifest graph
// operations described for the registry's index component. The index.json
// catalog lives on the primary (durable) backend; tags.json lives on the
// cache (scratch) backend, mirroring the source layout.
type Manager struct {
	primary backend.Backend
	cache   backend.Backend
	locks   *reflock.Pool
}

// New creates a Manager backed by primary (durable blobs + index.json) and
// cache (tags.json).
func New(primary, cache backend.Backend) *Manager {
	return &Manager{primary: primary, cache: cache, locks: reflock.New()}
}

// GetIndex reads repo's index.json, creating an empty image-index on first
// access. This read-or-init is the only auto-creation the manager performs.
func (m *Manager) GetIndex(ctx context.Context, repo string) (ocispec.Index, error) {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)
	return m.getIndexLocked(ctx, repo)
}

func (m *Manager) getIndexLocked(ctx context.Context, repo string) (ocispec.Index, error) {
	data, err := m.primary.Read(ctx, ocipath.Index(repo))
	if err == nil {
		var idx ocispec.Index
		if jerr := json.Unmarshal(data, &idx); jerr != nil {
			return ocispec.Index{}, fmt.Errorf("%s: %w", repo, errdef.ErrSpecParse)
		}
		return idx, nil
	}
	if !errors.Is(err, errdef.ErrNotFound) {
		return ocispec.Index{}, err
	}

	idx := newIndex()
	if perr := m.putIndexLocked(ctx, repo, idx); perr != nil {
		return ocispec.Index{}, perr
	}
	return idx, nil
}

// PutIndex fully replaces repo's index.json.
func (m *Manager) PutIndex(ctx context.Context, repo string, idx ocispec.Index) error {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)
	return m.putIndexLocked(ctx, repo, idx)
}

func (m *Manager) putIndexLocked(ctx context.Context, repo string, idx ocispec.Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index for %s: %w", repo, errdef.ErrSpecParse)
	}
	return m.primary.Write(ctx, ocipath.Index(repo), data)
}

// GetTags reads repo's tags.json, creating an empty tag list on first
// access.
func (m *Manager) GetTags(ctx context.Context, repo string) (TagList, error) {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)
	return m.getTagsLocked(ctx, repo)
}

func (m *Manager) getTagsLocked(ctx context.Context, repo string) (TagList, error) {
	data, err := m.cache.Read(ctx, ocipath.Tags(repo))
	if err == nil {
		var tl TagList
		if jerr := json.Unmarshal(data, &tl); jerr != nil {
			return TagList{}, fmt.Errorf("%s: %w", repo, errdef.ErrSerdeParse)
		}
		return tl, nil
	}
	if !errors.Is(err, errdef.ErrNotFound) {
		return TagList{}, err
	}

	tl := TagList{Name: repo, Tags: []string{}}
	if perr := m.putTagsLocked(ctx, repo, tl); perr != nil {
		return TagList{}, perr
	}
	return tl, nil
}

// PutTags fully replaces repo's tags.json.
func (m *Manager) PutTags(ctx context.Context, repo string, tl TagList) error {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)
	return m.putTagsLocked(ctx, repo, tl)
}

func (m *Manager) putTagsLocked(ctx context.Context, repo string, tl TagList) error {
	data, err := json.Marshal(tl)
	if err != nil {
		return fmt.Errorf("marshal tags for %s: %w", repo, errdef.ErrSerdeParse)
	}
	return m.cache.Write(ctx, ocipath.Tags(repo), data)
}

// GetManifest resolves reference (a digest or a tag) to the manifest bytes.
func (m *Manager) GetManifest(ctx context.Context, repo, reference string) ([]byte, error) {
	if ocipath.IsDigest(reference) {
		return m.primary.Read(ctx, ocipath.Blob(repo, reference))
	}

	idx, err := m.GetIndex(ctx, repo)
	if err != nil {
		return nil, err
	}
	for _, d := range idx.Manifests {
		if d.Annotations[AnnotationRefName] == reference {
			return m.primary.Read(ctx, ocipath.Blob(repo, d.Digest.String()))
		}
	}
	return nil, fmt.Errorf("%s: %w", reference, errdef.ErrNotFound)
}

// GetBlob reads a blob directly from the primary backend by digest.
func (m *Manager) GetBlob(ctx context.Context, repo, dgst string) ([]byte, error) {
	return m.primary.Read(ctx, ocipath.Blob(repo, dgst))
}

// WriteManifest stores data as a blob and appends a descriptor for it to
// repo's index, per the five-step algorithm described for manifest push. It
// returns the blob's digest and the subject digest parsed from the payload
// (empty if the manifest/index has no subject).
func (m *Manager) WriteManifest(ctx context.Context, repo, reference string, data []byte, mediaType string) (string, string, error) {
	dgst := ocipath.ComputeDigest(data)

	tagAnnotations := map[string]string{}
	if ocipath.IsDigest(reference) {
		// The reference is itself trusted as the blob's digest (no
		// verification against the computed digest - see DESIGN.md).
		if err := m.primary.Write(ctx, ocipath.Blob(repo, reference), data); err != nil {
			return "", "", err
		}
	} else {
		if err := m.primary.Write(ctx, ocipath.Blob(repo, dgst), data); err != nil {
			return "", "", err
		}
		tagAnnotations[AnnotationRefName] = reference
		if err := m.addTag(ctx, repo, reference); err != nil {
			return "", "", err
		}
	}

	subjectDigest, payloadAnnotations := parsePayload(mediaType, data)

	annotations := map[string]string{}
	for k, v := range payloadAnnotations {
		annotations[k] = v
	}
	for k, v := range tagAnnotations {
		annotations[k] = v
	}
	if len(annotations) == 0 {
		annotations = nil
	}

	descriptor := ocispec.Descriptor{
		MediaType:   mediaType,
		Size:        int64(len(data)),
		Digest:      digest.Digest(dgst),
		Annotations: annotations,
	}

	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)
	idx, err := m.getIndexLocked(ctx, repo)
	if err != nil {
		return "", "", err
	}
	idx.Manifests = append(idx.Manifests, descriptor)
	if err := m.putIndexLocked(ctx, repo, idx); err != nil {
		return "", "", err
	}

	return dgst, subjectDigest, nil
}

func (m *Manager) addTag(ctx context.Context, repo, tag string) error {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)

	tl, err := m.getTagsLocked(ctx, repo)
	if err != nil {
		return err
	}
	tl.Tags = append(tl.Tags, tag)
	return m.putTagsLocked(ctx, repo, tl)
}

// DeleteManifest removes every descriptor matching digest from repo's
// index, strips the tag annotation of every tagged descriptor currently in
// the index from the tag list (matching the documented, not-narrowed,
// source behavior - see DESIGN.md), persists both documents, and deletes
// the blob.
func (m *Manager) DeleteManifest(ctx context.Context, repo, digest string) error {
	m.locks.Lock(repo)
	defer m.locks.Unlock(repo)

	idx, err := m.getIndexLocked(ctx, repo)
	if err != nil {
		return err
	}
	tl, err := m.getTagsLocked(ctx, repo)
	if err != nil {
		return err
	}

	for _, d := range idx.Manifests {
		tag, ok := d.Annotations[AnnotationRefName]
		if !ok {
			continue
		}
		tl.Tags = removeString(tl.Tags, tag)
	}

	kept := idx.Manifests[:0]
	for _, d := range idx.Manifests {
		if d.Digest.String() != digest {
			kept = append(kept, d)
		}
	}
	idx.Manifests = kept

	if err := m.putIndexLocked(ctx, repo, idx); err != nil {
		return err
	}
	if err := m.putTagsLocked(ctx, repo, tl); err != nil {
		return err
	}
	return m.primary.Delete(ctx, ocipath.Blob(repo, digest))
}

// DeleteBlob removes only the blob file; the index is left untouched.
func (m *Manager) DeleteBlob(ctx context.Context, repo, digest string) error {
	return m.primary.Delete(ctx, ocipath.Blob(repo, digest))
}

// ListTags returns repo's tag list. When hasN is true and 0 < n < the number
// of tags, the tail starting at position n+1 is returned instead of the full
// list - the pagination rule inherited from the source. n == 0 returns the
// full list.
func (m *Manager) ListTags(ctx context.Context, repo string, n int, hasN bool) (TagList, error) {
	tl, err := m.GetTags(ctx, repo)
	if err != nil {
		return TagList{}, err
	}
	if hasN && n != 0 && n < len(tl.Tags) {
		return TagList{Name: tl.Name, Tags: tl.Tags[n+1:]}, nil
	}
	return tl, nil
}

// referrerScanLimit bounds how many descriptor blobs Referrers reads
// concurrently from the primary backend.
const referrerScanLimit = 8

// Referrers returns an image-index listing every descriptor in repo whose
// referenced manifest's subject.digest equals subject, optionally narrowed
// further to an exact artifactType match. Candidate blobs are fetched
// concurrently, bounded by referrerScanLimit.
func (m *Manager) Referrers(ctx context.Context, repo, subject, artifactType string) (ocispec.Index, error) {
	idx, err := m.GetIndex(ctx, repo)
	if err != nil {
		return ocispec.Index{}, err
	}

	var mu sync.Mutex
	var matches []ocispec.Descriptor
	limiter := semaphore.NewWeighted(referrerScanLimit)

	_ = syncutil.Go(ctx, limiter, func(ctx context.Context, _ *syncutil.LimitedRegion, d ocispec.Descriptor) error {
		data, err := m.primary.Read(ctx, ocipath.Blob(repo, d.Digest.String()))
		if err != nil {
			return nil
		}
		subjectDigest, _ := parsePayload(d.MediaType, data)
		if subjectDigest == "" || subjectDigest != subject {
			return nil
		}
		if artifactType != "" && d.ArtifactType != artifactType {
			return nil
		}
		mu.Lock()
		matches = append(matches, d)
		mu.Unlock()
		return nil
	}, idx.Manifests...)

	if matches == nil {
		matches = []ocispec.Descriptor{}
	}

	out := newIndex()
	out.Manifests = matches
	return out, nil
}

func removeString(ss []string, target string) []string {
	kept := ss[:0]
	for _, s := range ss {
		if s != target {
			kept = append(kept, s)
		}
	}
	return kept
}

