package engine

import (
	"sort"
	"strings"
	"unicode/utf8"

	"memweave/storage"
	"memweave/taxonomy"
)

// FormatRelevantContext queries the store for facts lexically relevant
// to the utterance and renders them as a prompt-injectable block. Zero
// matches, missing storage and store failures all yield the empty
// string so callers can skip injection with a plain emptiness check.
func (e *Engine) FormatRelevantContext(scope storage.Scope, utterance string) string {
	facts, err := e.relevantFacts(scope, utterance)
	if err != nil {
		e.log.Error("memory retrieval failed",
			"chat_id", scope.ChatID, "mode", scope.Mode, "err", err)
		return ""
	}
	if len(facts) == 0 {
		return ""
	}
	return renderContext(facts)
}

// relevantFacts runs one keyword search per utterance token and merges
// the results by row id.
func (e *Engine) relevantFacts(scope storage.Scope, utterance string) ([]Fact, error) {
	repos := e.repos()
	if repos == nil {
		return nil, nil
	}
	limit := e.Config.RecallLimit

	byID := make(map[int64]Fact)
	for _, token := range queryTokens(e.tax, utterance) {
		recs, err := repos.Facts().SearchByKeyword(scope, token, limit)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			if _, ok := byID[rec.ID]; !ok {
				byID[rec.ID] = factFromRecord(rec)
			}
		}
	}

	facts := make([]Fact, 0, len(byID))
	for _, f := range byID {
		facts = append(facts, f)
	}
	sort.Slice(facts, func(i, j int) bool {
		if facts[i].Importance != facts[j].Importance {
			return facts[i].Importance > facts[j].Importance
		}
		return facts[i].ID < facts[j].ID
	})
	if len(facts) > limit {
		facts = facts[:limit]
	}
	return facts, nil
}

// queryTokens splits an utterance into lowercase search keywords,
// dropping stop words and fragments too short to be selective.
func queryTokens(t *taxonomy.Taxonomy, utterance string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(utterance)) {
		tok = strings.Trim(tok, `.,!?;:"'()`)
		if utf8.RuneCountInString(tok) < 2 || t.IsStopWord(tok) {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func renderContext(facts []Fact) string {
	grouped := make(map[taxonomy.Category][]Fact)
	for _, f := range facts {
		grouped[f.Category] = append(grouped[f.Category], f)
	}

	var b strings.Builder
	b.WriteString("Relevant memories from earlier in this conversation:\n")
	for _, cat := range taxonomy.Order {
		section := grouped[cat]
		if len(section) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(taxonomy.DisplayName(cat))
		b.WriteString(":\n")
		for _, f := range section {
			b.WriteString("- ")
			b.WriteString(f.KeyName)
			b.WriteString(": ")
			b.WriteString(foldNewlines(f.Content))
			b.WriteString("\n")
		}
	}
	b.WriteString("\nStay consistent with these established facts.")
	return b.String()
}
