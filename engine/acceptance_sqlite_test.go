package engine_test

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"memweave/engine"
	"memweave/storage"
	"memweave/taxonomy"
)

var dbSeq int

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:memweave_test_%d?mode=memory&cache=shared", dbSeq)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := engine.New(engine.WithStorageConn(db))
	if err := e.Build(); err != nil {
		t.Fatalf("migrate/build: %v", err)
	}
	return e
}

func TestAcceptance_ExtractPersistRetrieve(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-1", Mode: "general"}

	text := strings.Repeat("The lanterns swayed in the wind. ", 16) +
		"Alice the guard waved them through the northern gate."
	facts := e.ExtractMemories(text, "who is at the gate", "general")
	if len(facts) == 0 {
		t.Fatalf("expected facts from extraction")
	}
	if n := e.PersistFacts(scope, facts); n != len(facts) {
		t.Fatalf("persisted %d of %d facts", n, len(facts))
	}

	block := e.FormatRelevantContext(scope, "tell me about Alice")
	if !strings.Contains(block, "Alice") {
		t.Fatalf("context block missing Alice:\n%s", block)
	}
	if !strings.Contains(block, "Characters:") {
		t.Fatalf("context block missing category section:\n%s", block)
	}
}

func TestAcceptance_IdempotentMerge(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-merge", Mode: "general"}

	text := strings.Repeat("Dust hung in the afternoon light. ", 16) +
		"Greta the healer cleaned her instruments in the chapel."
	batch := e.ExtractMemories(text, "", "general")
	if len(batch) == 0 {
		t.Fatalf("expected facts from extraction")
	}

	e.PersistFacts(scope, batch)
	once, err := e.ListAll(scope)
	if err != nil {
		t.Fatalf("list after first persist: %v", err)
	}

	e.PersistFacts(scope, e.ExtractMemories(text, "", "general"))
	twice, err := e.ListAll(scope)
	if err != nil {
		t.Fatalf("list after second persist: %v", err)
	}

	if len(once) != len(twice) {
		t.Fatalf("fact count changed on re-persist: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].KeyName != twice[i].KeyName || once[i].Content != twice[i].Content ||
			once[i].Importance != twice[i].Importance {
			t.Fatalf("fact %q changed on re-persist", once[i].KeyName)
		}
	}
}

func TestAcceptance_ScopeIsolation(t *testing.T) {
	e := newTestEngine(t)
	a := storage.Scope{ChatID: "chat-a", Mode: "general"}
	b := storage.Scope{ChatID: "chat-b", Mode: "general"}
	c := storage.Scope{ChatID: "chat-a", Mode: "adult"}

	if _, err := e.DeclareFact(a, "I like quiet mornings"); err != nil {
		t.Fatalf("declare: %v", err)
	}

	for _, other := range []storage.Scope{b, c} {
		facts, err := e.ListAll(other)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(facts) != 0 {
			t.Fatalf("scope %v leaked facts: %#v", other, facts)
		}
		if block := e.FormatRelevantContext(other, "quiet mornings"); block != "" {
			t.Fatalf("scope %v leaked context: %q", other, block)
		}
	}
}

func TestAcceptance_PinInvariant(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-pin", Mode: "general"}

	id, err := e.DeclareFact(scope, "I like rainy evenings")
	if err != nil {
		t.Fatalf("declare: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected row id")
	}

	// A colliding auto-extracted fact with lower importance must not
	// dilute the pinned declaration.
	e.PersistFacts(scope, []engine.Fact{{
		Category:   taxonomy.Like,
		KeyName:    string(taxonomy.Like),
		Content:    "mentioned enjoying storms",
		Context:    "auto-extracted",
		Importance: 0.4,
	}})

	facts, err := e.ListAll(scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected single merged fact, got %d", len(facts))
	}
	if facts[0].Importance != 1.0 {
		t.Fatalf("pinned importance lost: %v", facts[0].Importance)
	}
	if !strings.Contains(facts[0].Content, "I like rainy evenings") ||
		!strings.Contains(facts[0].Content, "mentioned enjoying storms") {
		t.Fatalf("merge lost a content line: %q", facts[0].Content)
	}
}

func TestAcceptance_EmptyResultContract(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-empty", Mode: "general"}

	if block := e.FormatRelevantContext(scope, "anything whatsoever"); block != "" {
		t.Fatalf("expected empty string, got %q", block)
	}
}

func TestAcceptance_RetrievalRelevance(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-rel", Mode: "general"}

	e.PersistFacts(scope, []engine.Fact{
		{Category: taxonomy.Character, KeyName: "Alice", Content: "a guard", Importance: 0.8},
		{Category: taxonomy.Character, KeyName: "Bob", Content: "a merchant", Importance: 0.8},
	})

	block := e.FormatRelevantContext(scope, "tell me about Alice")
	if !strings.Contains(block, "Alice") {
		t.Fatalf("block missing Alice:\n%s", block)
	}
	if strings.Contains(block, "Bob") {
		t.Fatalf("block leaked Bob:\n%s", block)
	}
}

func TestAcceptance_ForgetAndReset(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-forget", Mode: "general"}

	e.PersistFacts(scope, []engine.Fact{
		{Category: taxonomy.Character, KeyName: "Alice", Content: "a guard", Importance: 0.8},
		{Category: taxonomy.Character, KeyName: "Bob", Content: "a merchant", Importance: 0.8},
		{Category: taxonomy.Location, KeyName: "tavern", Content: "Type: tavern", Importance: 0.6},
	})

	if n, err := e.ForgetMatching(scope, ""); err != nil || n != 0 {
		t.Fatalf("empty keyword must be a no-op, got n=%d err=%v", n, err)
	}
	if n, err := e.ForgetMatching(scope, "merchant"); err != nil || n != 1 {
		t.Fatalf("forget matching: n=%d err=%v", n, err)
	}

	facts, _ := e.ListAll(scope)
	ok, err := e.ForgetByID(scope, facts[0].ID)
	if err != nil || !ok {
		t.Fatalf("forget by id: ok=%v err=%v", ok, err)
	}
	if ok, _ := e.ForgetByID(scope, 999999); ok {
		t.Fatalf("forgetting a missing id must report false")
	}

	if n, err := e.ResetScope(scope); err != nil || n != 1 {
		t.Fatalf("reset: n=%d err=%v", n, err)
	}
	if n, _ := e.Count(scope); n != 0 {
		t.Fatalf("scope not empty after reset: %d", n)
	}
}

func TestAcceptance_ExportScope(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-export", Mode: "general"}

	if _, err := e.DeclareFact(scope, "call me Kit"); err != nil {
		t.Fatalf("declare: %v", err)
	}
	e.PersistFacts(scope, []engine.Fact{
		{Category: taxonomy.Character, KeyName: "Alice", Content: "Role: guard\nDescription: sharp-eyed", Importance: 0.8},
	})

	report, err := e.ExportScope(scope)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{
		"Memory export for chat chat-export (mode general): 2 facts",
		"== Preferred names ==",
		"== Characters ==",
		"* Alice (importance 0.80",
		"  Role: guard",
		"  Description: sharp-eyed",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("export missing %q:\n%s", want, report)
		}
	}
}

func TestAcceptance_UsageLog(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-usage", Mode: "general"}

	if err := e.RecordUsage(scope, 120, 340); err != nil {
		t.Fatalf("record usage: %v", err)
	}
	// Fresh rows are inside the retention window.
	if n, err := e.CleanupUsage(); err != nil || n != 0 {
		t.Fatalf("cleanup removed fresh rows: n=%d err=%v", n, err)
	}
	// A future cutoff sweeps them.
	n, err := e.Storage.Repos().Usage().CleanupBefore(time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("cleanup before future cutoff: n=%d err=%v", n, err)
	}
}

func TestAcceptance_Pipeline(t *testing.T) {
	e := newTestEngine(t)
	scope := storage.Scope{ChatID: "chat-pipe", Mode: "general"}

	p := engine.NewPipeline(e)
	p.Enqueue(engine.Turn{
		Scope: scope,
		Response: strings.Repeat("The rain drummed on the roof. ", 16) +
			"Alice the guard barred the tavern door.",
		UserInput: "what happens next",
		Mode:      "general",
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := e.Count(scope)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for pipeline to persist facts")
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
