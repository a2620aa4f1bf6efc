package engine

import (
	"fmt"
	"strings"
	"time"

	"memweave/storage"
	"memweave/taxonomy"
)

// PersistFacts inserts one batch of extracted facts. Failures are
// per-fact: a broken insert is logged and skipped so sibling facts are
// still attempted. Returns how many facts landed.
func (e *Engine) PersistFacts(scope storage.Scope, facts []Fact) int {
	repos := e.repos()
	if repos == nil {
		return 0
	}
	persisted := 0
	for _, f := range facts {
		if _, err := repos.Facts().Insert(scope, f.record(scope)); err != nil {
			e.log.Error("fact insert failed",
				"chat_id", scope.ChatID, "mode", scope.Mode,
				"category", f.Category, "key", f.KeyName, "err", err)
			continue
		}
		persisted++
	}
	return persisted
}

// DeclareFact stores a user-declared fact with importance pinned at
// 1.0. The content is classified into a declared category by its
// keywords; unmatched declarations land in user_info. Merging never
// lowers importance, so a declared fact stays pinned even when later
// auto-extractions collide with it.
func (e *Engine) DeclareFact(scope storage.Scope, content string) (int64, error) {
	repos := e.repos()
	if repos == nil {
		return 0, ErrNoStorage
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, fmt.Errorf("declare: empty content")
	}

	category := classifyDeclaration(content)
	return repos.Facts().Insert(scope, storage.FactRecord{
		ChatID:     scope.ChatID,
		Mode:       scope.Mode,
		Category:   string(category),
		KeyName:    string(category),
		Content:    content,
		Context:    "user-declared",
		Importance: 1.0,
	})
}

func classifyDeclaration(content string) taxonomy.Category {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "safeword"), strings.Contains(lower, "safe word"):
		return taxonomy.Safeword
	case strings.Contains(lower, "call me"), strings.Contains(lower, "my name"),
		strings.Contains(lower, "nickname"):
		return taxonomy.Nickname
	case strings.Contains(lower, "don't like"), strings.Contains(lower, "dislike"),
		strings.Contains(lower, "hate"):
		return taxonomy.Dislike
	case strings.Contains(lower, "i like"), strings.Contains(lower, "i love"),
		strings.Contains(lower, "favorite"), strings.Contains(lower, "prefer"):
		return taxonomy.Like
	default:
		return taxonomy.UserInfo
	}
}

// ListAll returns every fact in the scope, most important first.
func (e *Engine) ListAll(scope storage.Scope) ([]Fact, error) {
	repos := e.repos()
	if repos == nil {
		return nil, ErrNoStorage
	}
	recs, err := repos.Facts().ListAll(scope)
	if err != nil {
		return nil, err
	}
	out := make([]Fact, 0, len(recs))
	for _, rec := range recs {
		out = append(out, factFromRecord(rec))
	}
	return out, nil
}

// ForgetByID deletes one fact. A miss is a no-op false, not an error.
func (e *Engine) ForgetByID(scope storage.Scope, id int64) (bool, error) {
	repos := e.repos()
	if repos == nil {
		return false, ErrNoStorage
	}
	return repos.Facts().DeleteByID(scope, id)
}

// ForgetMatching deletes every fact whose key or content contains the
// keyword. An empty keyword deletes nothing.
func (e *Engine) ForgetMatching(scope storage.Scope, keyword string) (int64, error) {
	repos := e.repos()
	if repos == nil {
		return 0, ErrNoStorage
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return 0, nil
	}
	recs, err := repos.Facts().SearchByKeyword(scope, keyword, 1<<30)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for _, rec := range recs {
		ok, err := repos.Facts().DeleteByID(scope, rec.ID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// ResetScope wipes all facts in the scope in one atomic statement.
func (e *Engine) ResetScope(scope storage.Scope) (int64, error) {
	repos := e.repos()
	if repos == nil {
		return 0, ErrNoStorage
	}
	return repos.Facts().DeleteAllInScope(scope)
}

// Count returns the number of facts in the scope.
func (e *Engine) Count(scope storage.Scope) (int64, error) {
	repos := e.repos()
	if repos == nil {
		return 0, ErrNoStorage
	}
	return repos.Facts().Count(scope)
}

// ExportScope serializes every fact in the scope into a flat text
// report grouped by category, with importance and last-mentioned
// timestamps. Content keeps its raw newlines here; the export is for
// humans, not for prompts.
func (e *Engine) ExportScope(scope storage.Scope) (string, error) {
	facts, err := e.ListAll(scope)
	if err != nil {
		return "", err
	}

	grouped := make(map[taxonomy.Category][]Fact)
	for _, f := range facts {
		grouped[f.Category] = append(grouped[f.Category], f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Memory export for chat %s (mode %s): %d facts\n",
		scope.ChatID, scope.Mode, len(facts))
	for _, cat := range taxonomy.Order {
		section := grouped[cat]
		if len(section) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n== %s ==\n", taxonomy.DisplayName(cat))
		for _, f := range section {
			fmt.Fprintf(&b, "* %s (importance %.2f, last mentioned %s)\n",
				f.KeyName, f.Importance, f.LastMentioned.Format("2006-01-02 15:04"))
			for _, line := range strings.Split(f.Content, "\n") {
				fmt.Fprintf(&b, "  %s\n", line)
			}
		}
	}
	return b.String(), nil
}

// RecordUsage logs one turn's token spend for the scope.
func (e *Engine) RecordUsage(scope storage.Scope, promptTokens, completionTokens int64) error {
	repos := e.repos()
	if repos == nil {
		return ErrNoStorage
	}
	return repos.Usage().Record(scope, promptTokens, completionTokens)
}

// CleanupUsage drops usage rows older than the configured retention
// window. Facts are never touched; they have no TTL.
func (e *Engine) CleanupUsage() (int64, error) {
	repos := e.repos()
	if repos == nil {
		return 0, ErrNoStorage
	}
	cutoff := time.Now().Add(-e.Config.UsageRetention)
	return repos.Usage().CleanupBefore(cutoff)
}
