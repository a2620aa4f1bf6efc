package engine

import (
	"time"

	"memweave/storage"
	"memweave/taxonomy"
)

// Fact is one extracted or declared memory. Before persistence only
// Category, KeyName, Content, Context and Importance are set; the store
// fills in the rest.
type Fact struct {
	ID            int64
	Category      taxonomy.Category
	KeyName       string
	Content       string
	Context       string
	Importance    float64
	LastMentioned time.Time
	CreatedAt     time.Time
}

func factFromRecord(rec storage.FactRecord) Fact {
	return Fact{
		ID:            rec.ID,
		Category:      taxonomy.Category(rec.Category),
		KeyName:       rec.KeyName,
		Content:       rec.Content,
		Context:       rec.Context,
		Importance:    rec.Importance,
		LastMentioned: rec.LastMentioned,
		CreatedAt:     rec.DateCreated,
	}
}

func (f Fact) record(scope storage.Scope) storage.FactRecord {
	return storage.FactRecord{
		ChatID:     scope.ChatID,
		Mode:       scope.Mode,
		Category:   string(f.Category),
		KeyName:    f.KeyName,
		Content:    f.Content,
		Context:    f.Context,
		Importance: f.Importance,
	}
}
