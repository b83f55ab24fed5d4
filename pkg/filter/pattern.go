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

import "strings"

// 🧩 Pattern is one parsed user-supplied pattern line. It is built once by
// ParsePattern and never mutated afterwards.
type Pattern struct {
	Raw          string // original text, whitespace-trimmed
	Base         string // text without the '!' prefix and without a trailing "/**" or "/"
	ForceInclude bool   // leading '!': keep this path even if excluded earlier
	Anchored     bool   // leading '/': match from the transfer root only
	Recursive    bool   // trailing "/**"
	DirOnly      bool   // trailing '/' (without "/**")
}

// 📝 ParsePattern parses a single pattern line. The second return value is
// false for blank lines, which callers skip silently.
func ParsePattern(raw string) (Pattern, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Pattern{}, false
	}

	p := Pattern{Raw: text}

	base := text
	if strings.HasPrefix(base, "!") {
		p.ForceInclude = true
		base = strings.TrimPrefix(base, "!")
	}
	base = strings.TrimPrefix(base, "./")

	if strings.HasSuffix(base, "/**") {
		p.Recursive = true
		base = strings.TrimSuffix(base, "/**")
	} else if strings.HasSuffix(base, "/") {
		p.DirOnly = true
		base = strings.TrimRight(base, "/")
	}

	p.Anchored = strings.HasPrefix(base, "/")
	p.Base = base

	if p.Base == "" {
		return Pattern{}, false
	}

	return p, true
}

// 🔗 AncestorChain returns the anchored path for every ancestor segment of the
// pattern, shallowest first, ending with the pattern itself. A transfer tool
// that prunes directory descent on the first exclude match needs every one of
// these as an explicit include, or it will never reach the target.
func (p Pattern) AncestorChain() []string {
	trimmed := strings.Trim(p.Base, "/")
	if trimmed == "" {
		return nil
	}

	parts := strings.Split(trimmed, "/")
	chain := make([]string, 0, len(parts))
	acc := ""
	for _, part := range parts {
		acc += "/" + part
		chain = append(chain, acc)
	}
	return chain
}

// ensureSlashPrefix anchors a path to the transfer root.
func ensureSlashPrefix(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}
