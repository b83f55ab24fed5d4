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

// ⚖️ Decision is the outcome of evaluating one relative path against an
// ordered rule sequence.
type Decision int

const (
	// Neutral means no rule matched the path.
	Neutral Decision = iota
	// Included means the last matching rule was an include.
	Included
	// Excluded means the last matching rule was an exclude.
	Excluded
)

// String returns the lowercase name of the decision.
func (d Decision) String() string {
	switch d {
	case Included:
		return "include"
	case Excluded:
		return "exclude"
	default:
		return "neutral"
	}
}

// 🔍 Decide evaluates relPath against rules in order. Every rule is scanned;
// the last match wins, so an earlier broad exclude can be undone by a later
// narrow include and vice versa. Pure function, safe for concurrent use.
func Decide(relPath string, rules []Rule) Decision {
	decision := Neutral
	for _, r := range rules {
		if !Match(r.Glob, relPath) {
			continue
		}
		if r.Sign == Include {
			decision = Included
		} else {
			decision = Excluded
		}
	}
	return decision
}

// 🔍 Decide evaluates relPath against the rule set honoring its mode.
//
// Normal rule sets use the last-match-wins scan above. Whitelist-only rule
// sets are authored in the transfer tool's own order (include chains first,
// the catch-all exclude last), so they are evaluated the way the tool reads
// them: first match wins. Without this, the trailing catch-all would override
// every include on a full scan.
func (rs RuleSet) Decide(relPath string) Decision {
	if rs.Mode != ModeWhitelistOnly {
		return Decide(relPath, rs.Rules)
	}

	for _, r := range rs.Rules {
		if !Match(r.Glob, relPath) {
			continue
		}
		if r.Sign == Include {
			return Included
		}
		return Excluded
	}
	return Neutral
}
