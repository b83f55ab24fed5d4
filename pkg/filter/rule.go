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
	"fmt"
	"strings"
)

// ➕ Sign is the polarity of a compiled rule.
type Sign int

const (
	// Include marks a rule that keeps matching paths.
	Include Sign = iota
	// Exclude marks a rule that drops matching paths.
	Exclude
)

// String returns the rsync filter-file spelling of the sign.
func (s Sign) String() string {
	if s == Include {
		return "+"
	}
	return "-"
}

// 📏 Rule is one compiled, signed glob. Rules are evaluated strictly in
// sequence order; the order is never re-sorted.
type Rule struct {
	Sign Sign
	Glob string
}

// Line renders the rule as a filter-file line.
func (r Rule) Line() string {
	return fmt.Sprintf("%s %s", r.Sign, r.Glob)
}

// 🗂️ Mode selects how a RuleSet was compiled.
type Mode int

const (
	// ModeNormal compiles force-includes and excludes as written.
	ModeNormal Mode = iota
	// ModeWhitelistOnly treats every pattern as something to keep and drops
	// everything else via a final catch-all exclude.
	ModeWhitelistOnly
)

// 📚 RuleSet is an ordered sequence of rules plus the mode it was compiled
// under. In ModeWhitelistOnly the last rule is always the "- *" catch-all.
type RuleSet struct {
	Rules []Rule
	Mode  Mode
}

// Lines renders the rule set as filter-file lines, one per rule.
func (rs RuleSet) Lines() []string {
	lines := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		lines[i] = r.Line()
	}
	return lines
}

// 🛠️ Compile turns user patterns plus default excludes into an ordered rule
// set. Patterns keep their input order. A force-include pattern ("!X") expands
// into the root include, an include for every ancestor of X, X itself, and a
// recursive include for X/**. A plain pattern becomes a single verbatim
// exclude.
func Compile(patterns []string, defaultExcludes []string) RuleSet {
	var rules []Rule

	for _, raw := range patterns {
		p, ok := ParsePattern(raw)
		if !ok {
			continue
		}

		if !p.ForceInclude {
			rules = append(rules, Rule{Sign: Exclude, Glob: p.Raw})
			continue
		}

		rules = append(rules, includeChain(p)...)
	}

	rules = append(rules, defaultExcludeRules(defaultExcludes)...)

	return RuleSet{Rules: rules, Mode: ModeNormal}
}

// 🛠️ CompileWhitelist compiles whitelist-only rules: every entry is kept
// (polarity on the entry is ignored), default excludes follow, and the
// mandatory catch-all exclude terminates the sequence. Empty entries are
// skipped silently.
func CompileWhitelist(entries []string, defaultExcludes []string) RuleSet {
	var rules []Rule

	for _, raw := range entries {
		p, ok := ParsePattern(raw)
		if !ok {
			continue
		}
		rules = append(rules, includeChain(p)...)
	}

	rules = append(rules, defaultExcludeRules(defaultExcludes)...)
	rules = append(rules, Rule{Sign: Exclude, Glob: "*"})

	return RuleSet{Rules: rules, Mode: ModeWhitelistOnly}
}

// includeChain emits the root include, the ancestor chain, and the recursive
// include for one kept pattern. Duplicate ancestor rules across overlapping
// patterns are harmless: re-matching the same sign is idempotent under
// last-match-wins.
func includeChain(p Pattern) []Rule {
	base := ensureSlashPrefix(p.Base)

	rules := []Rule{{Sign: Include, Glob: "/"}}
	for _, ancestor := range p.AncestorChain() {
		rules = append(rules, Rule{Sign: Include, Glob: ancestor})
	}
	rules = append(rules, Rule{Sign: Include, Glob: base + "/**"})
	return rules
}

// defaultExcludeRules appends caller defaults, honoring the raw-rule escape:
// a string that is already sign-prefixed is taken as a literal rule rather
// than being re-prefixed.
func defaultExcludeRules(defaults []string) []Rule {
	var rules []Rule
	for _, ex := range defaults {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}
		if strings.HasPrefix(ex, "+") || strings.HasPrefix(ex, "-") {
			if r, ok := parseRuleLine(ex); ok {
				rules = append(rules, r)
			}
			continue
		}
		rules = append(rules, Rule{Sign: Exclude, Glob: ex})
	}
	return rules
}

// 📖 ParseRuleLines re-parses filter-file lines back into rules. Lines with a
// sign but no following space are accepted as a fallback; anything else is an
// implicit exclude. Blank lines are skipped.
func ParseRuleLines(lines []string) []Rule {
	var rules []Rule
	for _, line := range lines {
		if r, ok := parseRuleLine(line); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

func parseRuleLine(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Rule{}, false
	}

	switch {
	case strings.HasPrefix(line, "+ "):
		return Rule{Sign: Include, Glob: strings.TrimSpace(line[2:])}, true
	case strings.HasPrefix(line, "- "):
		return Rule{Sign: Exclude, Glob: strings.TrimSpace(line[2:])}, true
	case strings.HasPrefix(line, "+"):
		return Rule{Sign: Include, Glob: strings.TrimSpace(line[1:])}, true
	case strings.HasPrefix(line, "-"):
		return Rule{Sign: Exclude, Glob: strings.TrimSpace(line[1:])}, true
	default:
		return Rule{Sign: Exclude, Glob: line}, true
	}
}
