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

package filter

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// 🎯 Match reports whether one glob pattern matches one relative path.
//
// Scoping mirrors conventional ignore-file semantics: a pattern containing a
// slash matches against the full relative path, a bare pattern matches the
// basename at any depth. A trailing "/**" or "/" matches the path itself and
// everything strictly beneath it.
func Match(glob, relPath string) bool {
	g := strings.TrimSpace(glob)
	g = strings.TrimPrefix(g, "./")
	if g == "" {
		return false
	}

	subject := strings.TrimPrefix(relPath, "./")
	subject = strings.Trim(subject, "/")

	// The leading '/' only selected full-path scoping, which "contains a
	// slash" already captures. Strip it before matching.
	pathScoped := strings.Contains(g, "/")
	g = strings.TrimPrefix(g, "/")
	if !pathScoped {
		subject = path.Base(subject)
	}

	if g == "" {
		// Bare "/" names the transfer root itself, nothing beneath it. It
		// exists so the transfer tool descends into the root at all.
		return subject == "" || subject == "."
	}

	// Subtree forms: a trailing "/**" or "/" names a directory and everything
	// beneath it.
	if prefix, ok := strings.CutSuffix(g, "/**"); ok {
		return matchSubtree(prefix, subject)
	}
	if prefix, ok := strings.CutSuffix(g, "/"); ok {
		return matchSubtree(prefix, subject)
	}

	re, err := globRegexp(g)
	if err != nil {
		// A bad pattern degrades to a conservative wildcard match instead of
		// failing the whole run.
		matched, merr := doublestar.Match(g, subject)
		return merr == nil && matched
	}

	return re.MatchString(subject)
}

// matchSubtree reports whether subject is the directory named by prefix or
// lies anywhere beneath it. Literal prefixes compare directly; prefixes
// carrying glob tokens are translated so the glob matches the directory
// segment and the subtree alike.
func matchSubtree(prefix, subject string) bool {
	if !hasGlobMeta(prefix) {
		return subject == prefix || strings.HasPrefix(subject, prefix+"/")
	}

	re, err := regexp.Compile("^" + globRegexpBody(prefix) + "(/.*)?$")
	if err != nil {
		matched, merr := doublestar.Match(prefix+"/**", subject)
		return merr == nil && matched
	}
	return re.MatchString(subject)
}

// hasGlobMeta reports whether the pattern carries any glob token.
func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// globRegexp translates one glob into an anchored regular expression:
// "**" crosses directory separators, "*" and "?" do not, everything else is
// literal.
func globRegexp(glob string) (*regexp.Regexp, error) {
	return regexp.Compile("^" + globRegexpBody(glob) + "$")
}

// globRegexpBody is the unanchored translation.
func globRegexpBody(glob string) string {
	var b strings.Builder

	runes := []rune(glob)
	for i := 0; i < len(runes); {
		switch {
		case runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '*':
			b.WriteString(".*")
			i += 2
		case runes[i] == '*':
			b.WriteString("[^/]*")
			i++
		case runes[i] == '?':
			b.WriteString("[^/]")
			i++
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
			i++
		}
	}

	return b.String()
}
