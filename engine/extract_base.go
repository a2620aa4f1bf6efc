package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"memweave/taxonomy"
)

// Base-category extractors. Each is a pure function over the normalized
// text, its lowercase form and the originating user utterance; all
// output collisions are folded downstream by the post-processor.

func (e *Engine) extractCharacters(text, lower, userCtx string, explicit bool) []Fact {
	var facts []Fact
	spec := e.tax.Spec(taxonomy.Character)
	if spec == nil {
		return nil
	}

	title, named := e.match.charTitle, e.match.charNamed
	if explicit {
		title, named = e.match.charTitleExt, e.match.charNamedExt
	}

	add := func(name, role string) {
		if !validName(e.tax, name) {
			return
		}
		importance := e.characterImportance(name, lower)
		if inSet(e.match.charExt, role) {
			importance = 0.95
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Character,
			KeyName:    name,
			Content:    "Role: " + role,
			Context:    userCtx,
			Importance: importance,
		})
	}

	if title != nil {
		for _, m := range title.FindAllStringSubmatch(text, -1) {
			add(m[1], m[2]) // "Alice the guard"
		}
	}
	if named != nil {
		for _, m := range named.FindAllStringSubmatch(text, -1) {
			add(m[2], m[1]) // "a guard named Alice"
		}
	}

	if e.match.charDesc != nil {
		for _, m := range e.match.charDesc.FindAllStringSubmatch(text, -1) {
			name, desc := m[1], strings.TrimSpace(m[2])
			if !validName(e.tax, name) || e.tax.IsGenericPhrase(desc) {
				continue
			}
			facts = append(facts, Fact{
				Category:   taxonomy.Character,
				KeyName:    name,
				Content:    "Description: " + desc,
				Context:    userCtx,
				Importance: e.characterImportance(name, lower),
			})
		}
	}

	// Appearance details only attach in extended turns, mirroring the
	// wider descriptor vocabulary there.
	if explicit {
		for i := range facts {
			if app := e.scanAppearance(text, facts[i].KeyName, spec.Details); app != "" {
				facts[i].Content += "\nAppearance: " + app
				facts[i].Importance = clamp01(facts[i].Importance + 0.1)
			}
		}
	}

	return facts
}

// scanAppearance collects detail-keyword windows that mention the
// character by name.
func (e *Engine) scanAppearance(text, name string, details []string) string {
	lowerName := strings.ToLower(name)
	var parts []string
	seen := make(map[string]struct{})
	for _, kw := range details {
		kw = strings.ToLower(kw)
		for _, sp := range wordSpans(text, kw) {
			win := windowAround(text, sp.start, sp.end, 40)
			if !strings.Contains(strings.ToLower(win), lowerName) {
				continue
			}
			if _, ok := seen[win]; ok {
				continue
			}
			seen[win] = struct{}{}
			parts = append(parts, win)
		}
	}
	return strings.Join(parts, "; ")
}

func (e *Engine) characterImportance(name, lower string) float64 {
	count := countWordOccurrences(lower, strings.ToLower(name))
	bonus := float64(count) * 0.1
	if bonus > 0.2 {
		bonus = 0.2
	}
	return clamp01(e.tax.Weight(taxonomy.Character) + bonus)
}

func (e *Engine) extractLocations(text, lower, userCtx string, explicit bool) []Fact {
	re := e.match.locPrefix
	if explicit {
		re = e.match.locPrefixExt
	}
	if re == nil {
		return nil
	}
	spec := e.tax.Spec(taxonomy.Location)

	var facts []Fact
	seen := make(map[string]struct{})
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		prefix := text[m[2]:m[3]]
		trigger := text[m[4]:m[5]]
		key := strings.TrimSpace(prefix + trigger)
		if utf8.RuneCountInString(key) < e.tax.Filters.MinKeyLen {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		importance := e.locationImportance(key, lower)
		if inSet(e.match.locExt, trigger) {
			importance = 0.9
		}
		content := "Type: " + trigger
		if desc := locationDescription(text, m[5], spec.Connectives); desc != "" {
			content += "\nDescription: " + desc
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Location,
			KeyName:    key,
			Content:    content,
			Context:    userCtx,
			Importance: importance,
		})
	}
	return facts
}

// locationDescription captures the clause following a place mention
// when it opens with one of the descriptive connectives.
func locationDescription(text string, from int, connectives []string) string {
	clause := windowAround(text, from, from, 60)
	clause = strings.TrimSpace(clause)
	lowerClause := strings.ToLower(clause)
	for _, conn := range connectives {
		conn = strings.ToLower(conn)
		if strings.HasPrefix(lowerClause, conn+" ") {
			desc := strings.TrimSpace(clause[len(conn):])
			if utf8.RuneCountInString(desc) >= 5 {
				return desc
			}
		}
	}
	return ""
}

func (e *Engine) locationImportance(key, lower string) float64 {
	count := countWordOccurrences(lower, strings.ToLower(key))
	bonus := float64(count) * 0.05
	if bonus > 0.2 {
		bonus = 0.2
	}
	return clamp01(e.tax.Weight(taxonomy.Location) + bonus)
}

func (e *Engine) extractItems(text, userCtx string, explicit bool) []Fact {
	spec := e.tax.Spec(taxonomy.Item)
	if spec == nil {
		return nil
	}
	triggers := spec.Triggers
	if explicit {
		triggers = append(append([]string{}, triggers...), spec.ExtendedTriggers...)
	}

	var facts []Fact
	seen := make(map[string]struct{})
	for _, trigger := range triggers {
		lt := strings.ToLower(trigger)
		win := firstWindow(text, lt, 40)
		if win == "" {
			continue
		}
		if _, ok := seen[lt]; ok {
			continue
		}
		seen[lt] = struct{}{}

		importance := e.tax.Weight(taxonomy.Item)
		switch {
		case inSet(e.match.itemExt, lt):
			importance = 0.9
		case containsAnySet(strings.ToLower(win), e.match.itemSpecial):
			importance = clamp01(importance + 0.2)
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Item,
			KeyName:    lt,
			Content:    win,
			Context:    userCtx,
			Importance: importance,
		})
	}

	// "owns a silver locket" style: the verb form catches items the
	// trigger vocabulary does not name.
	if e.match.itemAction != nil {
		for _, m := range e.match.itemAction.FindAllStringSubmatch(text, -1) {
			action, phrase := m[1], strings.TrimSpace(m[2])
			key := strings.ToLower(phrase)
			if _, ok := seen[key]; ok {
				continue
			}
			n := utf8.RuneCountInString(key)
			if n < e.tax.Filters.MinKeyLen || n > 30 || e.tax.IsStopWord(key) {
				continue
			}
			seen[key] = struct{}{}
			facts = append(facts, Fact{
				Category:   taxonomy.Item,
				KeyName:    key,
				Content:    "Acquired: " + action + " " + phrase,
				Context:    userCtx,
				Importance: e.tax.Weight(taxonomy.Item),
			})
		}
	}
	return facts
}

func containsAnySet(s string, set map[string]struct{}) bool {
	for w := range set {
		if len(wordSpans(s, w)) > 0 {
			return true
		}
	}
	return false
}

func (e *Engine) extractEvents(text, userCtx string, explicit bool) []Fact {
	re := e.match.eventClause
	if explicit {
		re = e.match.eventClauseExt
	}
	if re == nil {
		return nil
	}

	var facts []Fact
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		clause := strings.TrimSpace(m[1] + m[2] + m[3])
		if utf8.RuneCountInString(clause) < 10 {
			continue
		}
		trigger := strings.ToLower(m[2])

		importance := e.tax.Weight(taxonomy.Event)
		switch {
		case inSet(e.match.eventExt, trigger):
			importance = 0.95
		case inSet(e.match.eventHighlight, trigger):
			importance = clamp01(importance + 0.1)
		}
		// Key on trigger + clause digest: rerunning extraction on the
		// same text regenerates the same key and merges cleanly.
		facts = append(facts, Fact{
			Category:   taxonomy.Event,
			KeyName:    fmt.Sprintf("event_%s_%s", trigger, fnvKey(clause)),
			Content:    clause,
			Context:    userCtx,
			Importance: importance,
		})
	}
	return facts
}

func (e *Engine) extractRelationships(text, userCtx string, explicit bool) []Fact {
	re := e.match.relOf
	if explicit {
		re = e.match.relOfExt
	}

	var facts []Fact
	if re != nil {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			person, rel := m[1], m[2]
			if !validName(e.tax, person) {
				continue
			}
			importance := e.tax.Weight(taxonomy.Relationship)
			if inSet(e.match.relExt, rel) {
				importance = 0.95
			}
			facts = append(facts, Fact{
				Category:   taxonomy.Relationship,
				KeyName:    person + "_" + strings.ToLower(rel),
				Content:    fmt.Sprintf("%s has a %s", person, rel),
				Context:    userCtx,
				Importance: importance,
			})
		}
	}

	if e.match.relVerb != nil {
		for _, m := range e.match.relVerb.FindAllStringSubmatch(text, -1) {
			p1, p2 := m[1], m[3]
			if !validName(e.tax, p1) || !validName(e.tax, p2) {
				continue
			}
			facts = append(facts, Fact{
				Category:   taxonomy.Relationship,
				KeyName:    p1 + "-" + p2,
				Content:    m[0],
				Context:    userCtx,
				Importance: e.tax.Weight(taxonomy.Relationship),
			})
		}
	}
	return facts
}
