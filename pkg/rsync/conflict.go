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

package rsync

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// 🛟 preserveConflicts is the two-way pre-pass: when a file exists on both
// sides with different bytes, the destination version is copied aside in the
// source tree as "<name>.conflict-<mtime>" before either direction runs.
// Purely byte-content driven, independent of any filter rules, best effort.
func preserveConflicts(ctx context.Context, src, dst string) error {
	logger := zerolog.Ctx(ctx)

	return filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable destination entry never blocks the sync.
			logger.Warn().Err(err).Str("path", path).Msg("skipping destination entry in conflict pre-pass")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return nil
		}
		srcPath := filepath.Join(src, rel)

		srcBytes, err := os.ReadFile(srcPath)
		if err != nil {
			// Only files present on both sides can conflict.
			return nil
		}
		dstBytes, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("reading destination file in conflict pre-pass")
			return nil
		}

		if bytes.Equal(srcBytes, dstBytes) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		conflict := fmt.Sprintf("%s.conflict-%d", srcPath, info.ModTime().Unix())

		if err := os.WriteFile(conflict, dstBytes, 0o644); err != nil {
			logger.Warn().Err(err).Str("path", conflict).Msg("writing conflict copy")
			return nil
		}

		logger.Info().Str("path", conflict).Msg("preserved destination conflict copy")
		return nil
	})
}
