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
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🌐 Resolve turns a source argument into a local directory the transfer can
// read from. Local paths pass through untouched; git URLs are shallow-cloned;
// archive URLs are downloaded and extracted; "github.com/owner/repo[@ref]"
// shorthand is resolved to an archive through the GitHub API.
//
// The returned cleanup removes any scratch directories and must be called on
// every exit path, including fetch failures surfaced through err.
func Resolve(ctx context.Context, src string) (dir string, cleanup func(), err error) {
	logger := zerolog.Ctx(ctx)
	noop := func() {}

	switch {
	case looksLikeGitURL(src):
		logger.Debug().Str("source", src).Msg("resolving git source")
		return cloneGit(ctx, src)

	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		logger.Debug().Str("source", src).Msg("resolving archive source")
		return fetchArchive(ctx, src)

	case isGitHubShorthand(src):
		logger.Debug().Str("source", src).Msg("resolving github shorthand source")
		url, err := archiveURLForGitHub(ctx, src)
		if err != nil {
			return "", noop, err
		}
		return fetchArchive(ctx, url)

	default:
		abs, err := filepath.Abs(src)
		if err != nil {
			return "", noop, errors.Errorf("resolving source path: %w", err)
		}
		return abs, noop, nil
	}
}

// looksLikeGitURL mirrors the heuristics users expect: scp-style git
// addresses, git protocol URLs, anything ending in .git, and bare github.com
// URLs that are not archive downloads.
func looksLikeGitURL(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "git@") || strings.HasPrefix(s, "git://") {
		return true
	}
	if strings.HasSuffix(s, ".git") {
		return true
	}
	return strings.HasPrefix(s, "https://github.com/") && !strings.Contains(s, ".zip")
}

// cloneGit shallow-clones url into a scratch directory.
func cloneGit(ctx context.Context, url string) (string, func(), error) {
	scratch, err := os.MkdirTemp("", "syncrc-git-clone-")
	if err != nil {
		return "", func() {}, errors.Errorf("creating clone directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(scratch) }

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, scratch)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", cleanup, errors.Errorf("cloning git repo %s: %w: %s", url, err, strings.TrimSpace(string(out)))
	}

	return scratch, cleanup, nil
}
