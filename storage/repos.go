package storage

import (
	"strings"
	"time"
)

// Scope is the partition key for all memory operations: the
// conversation owner plus the active conversation mode. No operation
// observes or mutates rows outside its scope.
type Scope struct {
	ChatID string
	Mode   string
}

// FactRecord is the persisted memory unit.
type FactRecord struct {
	ID            int64
	UUID          string
	ChatID        string
	Mode          string
	Category      string
	KeyName       string
	Content       string
	Context       string
	Importance    float64
	LastMentioned time.Time
	DateCreated   time.Time
}

// Repos is the repository contract a driver must satisfy.
type Repos interface {
	Facts() FactRepo
	Usage() UsageRepo
}

// FactRepo is the store adapter contract for memory facts. Insert
// merges with an existing (scope, category, key_name) row: content
// lines are unioned, importance keeps the maximum and last_mentioned is
// refreshed. Importance is clamped to [0,1] at every write.
type FactRepo interface {
	Insert(scope Scope, f FactRecord) (int64, error)
	ListAll(scope Scope) ([]FactRecord, error)
	SearchByKeyword(scope Scope, keyword string, limit int) ([]FactRecord, error)
	DeleteByID(scope Scope, id int64) (bool, error)
	DeleteAllInScope(scope Scope) (int64, error)
	Count(scope Scope) (int64, error)
}

// UsageRepo records per-turn token usage. Usage rows are the only data
// with a retention window; facts never expire on their own.
type UsageRepo interface {
	Record(scope Scope, promptTokens, completionTokens int64) error
	CleanupBefore(cutoff time.Time) (int64, error)
}

// mergeLines unions two newline-joined content blocks, preserving the
// order of first appearance and dropping exact duplicate lines.
func mergeLines(existing, incoming string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, block := range []string{existing, incoming} {
		for _, line := range strings.Split(block, "\n") {
			if line == "" {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func decodeAnyTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		return parseTimeString(x)
	case []byte:
		return parseTimeString(string(x))
	default:
		return time.Time{}, false
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05", // SQLite datetime('now')
		"2006-01-02 15:04:05.999999999",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
