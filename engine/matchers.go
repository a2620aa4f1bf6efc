package engine

import (
	"regexp"
	"sort"
	"strings"

	"memweave/taxonomy"
)

// namePat matches a capitalized subject token: a proper name or the
// start of a multi-word name.
const namePat = `[A-Z][a-zA-Z'\-]{1,24}`

// matchers holds the compiled patterns for the prefix/title extraction
// shapes. Each base-category pattern exists in two variants, with and
// without the extended vocabulary; the gate decides which one runs.
// Windowed categories scan trigger occurrences directly and need no
// regex.
type matchers struct {
	charTitle    *regexp.Regexp
	charTitleExt *regexp.Regexp
	charNamed    *regexp.Regexp
	charNamedExt *regexp.Regexp
	charDesc     *regexp.Regexp

	locPrefix    *regexp.Regexp
	locPrefixExt *regexp.Regexp

	eventClause    *regexp.Regexp
	eventClauseExt *regexp.Regexp

	relOf      *regexp.Regexp
	relOfExt   *regexp.Regexp
	relVerb    *regexp.Regexp
	roleClause *regexp.Regexp

	itemAction *regexp.Regexp

	// Lowercased lookup sets for importance adjustments.
	charExt        map[string]struct{}
	locExt         map[string]struct{}
	itemExt        map[string]struct{}
	itemSpecial    map[string]struct{}
	eventExt       map[string]struct{}
	eventHighlight map[string]struct{}
	relExt         map[string]struct{}
	roleDominant   map[string]struct{}
}

func newMatchers(t *taxonomy.Taxonomy) *matchers {
	m := &matchers{}

	if spec := t.Spec(taxonomy.Character); spec != nil {
		base := alternation(spec.Triggers)
		full := alternation(spec.Triggers, spec.ExtendedTriggers)
		m.charTitle = compile(`\b(` + namePat + `) the (` + base + `)\b`)
		m.charTitleExt = compile(`\b(` + namePat + `) the (` + full + `)\b`)
		m.charNamed = compile(`\b(` + base + `) (?:named|called) (` + namePat + `)\b`)
		m.charNamedExt = compile(`\b(` + full + `) (?:named|called) (` + namePat + `)\b`)
		if conn := alternation(spec.Connectives); conn != "" {
			m.charDesc = compile(`\b(` + namePat + `) (?:` + conn + `) ([^.!?;\n]{2,60})`)
		}
		m.charExt = lowerSet(spec.ExtendedTriggers)
	}

	if spec := t.Spec(taxonomy.Location); spec != nil {
		base := alternation(spec.Triggers)
		full := alternation(spec.Triggers, spec.ExtendedTriggers)
		m.locPrefix = compile(`\b((?:` + namePat + ` ){0,2})(` + base + `)\b`)
		m.locPrefixExt = compile(`\b((?:` + namePat + ` ){0,2})(` + full + `)\b`)
		m.locExt = lowerSet(spec.ExtendedTriggers)
	}

	if spec := t.Spec(taxonomy.Item); spec != nil {
		if conn := alternation(spec.Connectives); conn != "" {
			m.itemAction = compile(`\b(` + conn + `) (?:a |an |the |her |his |their |my )?([^.!?;,\n]{2,30})`)
		}
		m.itemExt = lowerSet(spec.ExtendedTriggers)
		m.itemSpecial = lowerSet(spec.Details)
	}

	if spec := t.Spec(taxonomy.Event); spec != nil {
		base := alternation(spec.Triggers)
		full := alternation(spec.Triggers, spec.ExtendedTriggers)
		m.eventClause = compile(`(?i)([^.!?;\n]{5,80}?)\b(` + base + `)\b([^.!?;\n]{0,50})`)
		m.eventClauseExt = compile(`(?i)([^.!?;\n]{5,80}?)\b(` + full + `)\b([^.!?;\n]{0,50})`)
		m.eventExt = lowerSet(spec.ExtendedTriggers)
		m.eventHighlight = lowerSet(spec.Details)
	}

	if spec := t.Spec(taxonomy.Relationship); spec != nil {
		base := alternation(spec.Triggers)
		full := alternation(spec.Triggers, spec.ExtendedTriggers)
		m.relOf = compile(`\b(` + namePat + `)'s (` + base + `)\b`)
		m.relOfExt = compile(`\b(` + namePat + `)'s (` + full + `)\b`)
		if conn := alternation(spec.Connectives); conn != "" {
			m.relVerb = compile(`\b(` + namePat + `) (` + conn + `) (` + namePat + `)\b`)
		}
		m.relExt = lowerSet(spec.ExtendedTriggers)
	}

	if spec := t.Spec(taxonomy.Role); spec != nil {
		roles := alternation(spec.Triggers, spec.Secondary)
		conn := alternation(spec.Connectives)
		if conn == "" {
			conn = `is|becomes`
		}
		m.roleClause = compile(`\b(` + namePat + `) (?:` + conn + `) (?:a |an |the |her |his |their |my )?(` + roles + `)\b`)
		m.roleDominant = lowerSet(spec.Triggers)
	}

	return m
}

func lowerSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

func inSet(set map[string]struct{}, w string) bool {
	_, ok := set[strings.ToLower(w)]
	return ok
}

// alternation joins vocabularies into one quoted regex alternation,
// longest entry first so multi-word triggers win over their prefixes.
func alternation(lists ...[]string) string {
	seen := make(map[string]struct{})
	var all []string
	for _, list := range lists {
		for _, w := range list {
			lw := strings.ToLower(w)
			if _, ok := seen[lw]; ok {
				continue
			}
			seen[lw] = struct{}{}
			all = append(all, lw)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) > len(all[j])
		}
		return all[i] < all[j]
	})
	for i, w := range all {
		all[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(all, "|")
}

func compile(pattern string) *regexp.Regexp {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
