// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📥 fetchArchive downloads a zip archive and extracts it into a scratch
// directory. Archives that wrap everything in a single top-level directory
// (the GitHub layout) are flattened to that directory.
func fetchArchive(ctx context.Context, url string) (string, func(), error) {
	noop := func() {}

	body, err := downloadFile(ctx, url)
	if err != nil {
		return "", noop, err
	}
	defer body.Close()

	zipFile, err := os.CreateTemp("", "syncrc-archive-*.zip")
	if err != nil {
		return "", noop, errors.Errorf("creating archive temp file: %w", err)
	}
	defer os.Remove(zipFile.Name())

	if _, err := io.Copy(zipFile, body); err != nil {
		zipFile.Close()
		return "", noop, errors.Errorf("saving archive: %w", err)
	}
	if err := zipFile.Close(); err != nil {
		return "", noop, errors.Errorf("closing archive file: %w", err)
	}

	scratch, err := os.MkdirTemp("", "syncrc-archive-")
	if err != nil {
		return "", noop, errors.Errorf("creating extraction directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(scratch) }

	if err := extractZip(zipFile.Name(), scratch); err != nil {
		return "", cleanup, errors.Errorf("extracting archive from %s: %w", url, err)
	}

	return flattenSingleDir(scratch), cleanup, nil
}

// 🔍 downloadFile downloads a file from a URL with context support
func downloadFile(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.Errorf("downloading file: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// extractZip unpacks archive into dest, refusing entries that escape it.
func extractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return errors.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(dest, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return errors.Errorf("zip entry escapes extraction directory: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.Errorf("creating parent directory for %s: %w", target, err)
		}

		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Errorf("opening zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return errors.Errorf("creating %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return errors.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// flattenSingleDir returns the sole top-level directory of dir when the
// archive wrapped its contents in one, and dir itself otherwise.
func flattenSingleDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || !entries[0].IsDir() {
		return dir
	}
	return filepath.Join(dir, entries[0].Name())
}
