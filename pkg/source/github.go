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
	"strings"

	"github.com/google/go-github/v60/github"
	"gitlab.com/tozd/go/errors"
)

// isGitHubShorthand recognizes "github.com/owner/repo" optionally suffixed
// with "@ref". Full URLs are handled by the git/archive branches instead.
func isGitHubShorthand(s string) bool {
	if !strings.HasPrefix(s, "github.com/") {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(s, "github.com/"), "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// 📦 archiveURLForGitHub resolves the shorthand to a zipball URL through the
// GitHub API. GITHUB_TOKEN is honored when present so private repositories
// work too.
func archiveURLForGitHub(ctx context.Context, shorthand string) (string, error) {
	rest := strings.TrimPrefix(shorthand, "github.com/")

	ref := ""
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		ref = rest[at+1:]
		rest = rest[:at]
	}

	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		return "", errors.Errorf("invalid github shorthand: %s", shorthand)
	}
	owner, repo := parts[0], parts[1]

	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}

	url, _, err := client.Repositories.GetArchiveLink(ctx, owner, repo, github.Zipball, &github.RepositoryContentGetOptions{
		Ref: ref,
	}, 3)
	if err != nil {
		return "", errors.Errorf("getting archive link for %s: %w", shorthand, err)
	}

	return url.String(), nil
}
