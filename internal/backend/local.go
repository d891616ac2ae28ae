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

package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/armar-oci/armar/internal/errdef"
)

// Local is a filesystem-rooted Backend. It is used as the scratch cache
// tier, and as the primary tier when storage.s3 is not fully configured.
type Local struct {
	root string
}

// NewLocal creates a Local backend rooted at root. The root directory is
// created if it does not already exist.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create backend root %s: %w", root, err)
	}
	return &Local{root: root}, nil
}

func (l *Local) join(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(p))
}

func (l *Local) Read(_ context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(l.join(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", p, errdef.ErrBackend)
	}
	return data, nil
}

// Write fully replaces the object at p using a write-to-temp-then-rename
// sequence so a reader never observes a partially written file.
func (l *Local) Write(_ context.Context, p string, data []byte) error {
	full := l.join(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", p, errdef.ErrBackend)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temporary file for %s: %w", p, errdef.ErrBackend)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temporary file for %s: %w", p, errdef.ErrBackend)
	}
	return nil
}

func (l *Local) Append(_ context.Context, p string, data []byte) error {
	full := l.join(p)
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return fmt.Errorf("open %s for append: %w", p, errdef.ErrBackend)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("append to %s: %w", p, errdef.ErrBackend)
	}
	return nil
}

func (l *Local) Stat(_ context.Context, p string) (Info, error) {
	fi, err := os.Stat(l.join(p))
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return Info{}, fmt.Errorf("stat %s: %w", p, errdef.ErrBackend)
	}
	return Info{Length: fi.Size()}, nil
}

func (l *Local) Delete(_ context.Context, p string) error {
	if err := os.Remove(l.join(p)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", p, errdef.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", p, errdef.ErrBackend)
	}
	return nil
}
