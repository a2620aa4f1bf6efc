package engine

import (
	"strings"
)

// ExtractMemories mines one finished assistant turn for durable facts.
// It is pure over its inputs and the taxonomy and performs no I/O;
// persistence is the caller's job, normally via PersistFacts. Any
// internal failure degrades to zero facts, never to an error: a missed
// extraction is a quality loss, not a correctness loss.
func (e *Engine) ExtractMemories(aiResponse, userUtterance, mode string) (facts []Fact) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("memory extraction failed", "mode", mode, "panic", r)
			facts = nil
		}
	}()

	text := normalizeText(aiResponse)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	explicit := e.explicitAllowed(text, mode)

	var candidates []Fact
	candidates = append(candidates, e.extractCharacters(text, lower, userUtterance, explicit)...)
	candidates = append(candidates, e.extractLocations(text, lower, userUtterance, explicit)...)
	candidates = append(candidates, e.extractItems(text, userUtterance, explicit)...)
	candidates = append(candidates, e.extractEvents(text, userUtterance, explicit)...)
	candidates = append(candidates, e.extractRelationships(text, userUtterance, explicit)...)

	if explicit {
		candidates = append(candidates, e.extractBodyFeatures(text, userUtterance)...)
		candidates = append(candidates, e.extractClothing(text, userUtterance)...)
		candidates = append(candidates, e.extractActions(text, userUtterance)...)
		candidates = append(candidates, e.extractSensations(text, userUtterance)...)
		candidates = append(candidates, e.extractRoles(text, userUtterance)...)
		candidates = append(candidates, e.extractScenarios(text, userUtterance)...)
		candidates = append(candidates, e.extractPreferences(text, userUtterance)...)
	}

	facts = e.postprocess(candidates, text)
	e.log.Debug("extraction finished",
		"mode", mode, "candidates", len(candidates), "kept", len(facts), "extended", explicit)
	return facts
}
