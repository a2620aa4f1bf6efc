// Package taxonomy holds the pattern vocabulary that drives memory
// extraction: per-category trigger words, descriptor connectives,
// importance weights and retention caps. The table is plain data so it
// can be extended or localized without touching extraction logic; a
// built-in English table ships embedded and custom tables load from
// YAML.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category classifies a fact. The set is closed; unknown categories in
// a loaded table are rejected.
type Category string

const (
	Character    Category = "character"
	Location     Category = "location"
	Item         Category = "item"
	Event        Category = "event"
	Relationship Category = "relationship"
	BodyFeature  Category = "body_feature"
	Clothing     Category = "clothing"
	Action       Category = "action"
	Sensation    Category = "sensation"
	Role         Category = "role"
	Scenario     Category = "scenario"
	Preference   Category = "preference"

	// Declared-only categories. Never produced by extraction; created
	// through the user-facing declare operation with importance 1.0.
	UserInfo Category = "user_info"
	Like     Category = "like"
	Dislike  Category = "dislike"
	Nickname Category = "nickname"
	Safeword Category = "safeword"
)

// Order is the canonical category ordering used when rendering grouped
// facts. Declared categories come first so pinned user facts lead the
// context block.
var Order = []Category{
	UserInfo, Like, Dislike, Nickname, Safeword,
	Character, Relationship, Role, Location, Scenario,
	Item, Event, BodyFeature, Clothing, Action, Sensation, Preference,
}

var displayNames = map[Category]string{
	Character:    "Characters",
	Location:     "Locations",
	Item:         "Items",
	Event:        "Events",
	Relationship: "Relationships",
	BodyFeature:  "Body features",
	Clothing:     "Clothing",
	Action:       "Actions",
	Sensation:    "Sensations",
	Role:         "Roles",
	Scenario:     "Scenes",
	Preference:   "Preferences",
	UserInfo:     "User info",
	Like:         "User likes",
	Dislike:      "User dislikes",
	Nickname:     "Preferred names",
	Safeword:     "Safewords",
}

// DisplayName returns the section heading for a category.
func DisplayName(c Category) string {
	if n, ok := displayNames[c]; ok {
		return n
	}
	return string(c)
}

// CategorySpec is the vocabulary and tuning for one extractable
// category.
type CategorySpec struct {
	// Weight is the base importance attached to candidates, in (0,1].
	Weight float64 `yaml:"weight"`
	// Cap is the per-batch retention ceiling after ranking.
	Cap int `yaml:"cap"`
	// Extended marks categories that are only active when the
	// content-mode gate allows the extended set.
	Extended bool `yaml:"extended,omitempty"`
	// Triggers is the base trigger vocabulary.
	Triggers []string `yaml:"triggers"`
	// ExtendedTriggers widen Triggers when the gate is open.
	ExtendedTriggers []string `yaml:"extended_triggers,omitempty"`
	// Connectives are descriptor/linking words ("is called", "owns",
	// clothing states) whose meaning depends on the category shape.
	Connectives []string `yaml:"connectives,omitempty"`
	// Details is a secondary descriptor vocabulary (appearance words,
	// size qualifiers, materials, event highlights).
	Details []string `yaml:"details,omitempty"`
	// Secondary is a second trigger list where a category scans two
	// vocabularies (reactions, mental states, submissive roles, props).
	Secondary []string `yaml:"secondary,omitempty"`
}

// Filters are the key-name validity rules shared by all extractors.
type Filters struct {
	MinKeyLen      int      `yaml:"min_key_len"`
	MaxKeyLen      int      `yaml:"max_key_len"`
	StopWords      []string `yaml:"stop_words"`
	NonNames       []string `yaml:"non_names"`
	GenericPhrases []string `yaml:"generic_phrases"`
}

// Taxonomy is one versioned vocabulary table.
type Taxonomy struct {
	Version       int                        `yaml:"version"`
	ExtendedModes []string                   `yaml:"extended_modes"`
	Filters       Filters                    `yaml:"filters"`
	Categories    map[Category]*CategorySpec `yaml:"categories"`

	stopWords     map[string]struct{}
	nonNames      map[string]struct{}
	extendedModes map[string]struct{}
	explicitSuper []string
}

//go:embed default.yaml
var defaultTable []byte

// Default returns the built-in English taxonomy. It panics only if the
// embedded table is corrupt, which is a build defect, not a runtime
// condition.
func Default() *Taxonomy {
	t, err := Load(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded default table invalid: %v", err))
	}
	return t
}

// Load parses and validates a YAML taxonomy table.
func Load(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.index()
	return &t, nil
}

// LoadFile reads a taxonomy table from disk.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Load(data)
}

func (t *Taxonomy) validate() error {
	if t.Version < 1 {
		return fmt.Errorf("taxonomy: version must be >= 1, got %d", t.Version)
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy: no categories defined")
	}
	known := make(map[Category]struct{}, len(Order))
	for _, c := range Order {
		known[c] = struct{}{}
	}
	for c, spec := range t.Categories {
		if _, ok := known[c]; !ok {
			return fmt.Errorf("taxonomy: unknown category %q", c)
		}
		if spec == nil {
			return fmt.Errorf("taxonomy: category %q has no spec", c)
		}
		if spec.Weight <= 0 || spec.Weight > 1 {
			return fmt.Errorf("taxonomy: category %q weight %v outside (0,1]", c, spec.Weight)
		}
		if spec.Cap <= 0 {
			return fmt.Errorf("taxonomy: category %q cap must be positive", c)
		}
		if len(spec.Triggers) == 0 {
			return fmt.Errorf("taxonomy: category %q has no triggers", c)
		}
	}
	if t.Filters.MinKeyLen <= 0 {
		return fmt.Errorf("taxonomy: filters.min_key_len must be positive")
	}
	if t.Filters.MaxKeyLen < t.Filters.MinKeyLen {
		return fmt.Errorf("taxonomy: filters.max_key_len below min_key_len")
	}
	return nil
}

func (t *Taxonomy) index() {
	t.stopWords = lowerSet(t.Filters.StopWords)
	t.nonNames = lowerSet(t.Filters.NonNames)
	t.extendedModes = lowerSet(t.ExtendedModes)

	// The explicit superset mirrors what the original detector scans:
	// extended triggers of the base categories plus the body, action,
	// sensation and role vocabularies.
	seen := make(map[string]struct{})
	add := func(words []string) {
		for _, w := range words {
			lw := strings.ToLower(w)
			if _, ok := seen[lw]; !ok {
				seen[lw] = struct{}{}
				t.explicitSuper = append(t.explicitSuper, lw)
			}
		}
	}
	for _, c := range []Category{Character, Location, Item, Event, Relationship} {
		if spec := t.Categories[c]; spec != nil {
			add(spec.ExtendedTriggers)
		}
	}
	for _, c := range []Category{BodyFeature, Action, Sensation, Role} {
		if spec := t.Categories[c]; spec != nil {
			add(spec.Triggers)
			add(spec.Secondary)
		}
	}
}

func lowerSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}

// Spec returns the spec for a category, or nil when the table does not
// define it.
func (t *Taxonomy) Spec(c Category) *CategorySpec { return t.Categories[c] }

// Weight returns the base importance for a category, 0 when undefined.
func (t *Taxonomy) Weight(c Category) float64 {
	if spec := t.Categories[c]; spec != nil {
		return spec.Weight
	}
	return 0
}

// Cap returns the per-batch retention ceiling for a category. Declared
// and undefined categories fall back to a small default, matching the
// original limiter.
func (t *Taxonomy) Cap(c Category) int {
	if spec := t.Categories[c]; spec != nil {
		return spec.Cap
	}
	return 5
}

// IsExtendedMode reports whether a declared conversation mode activates
// the extended category set unconditionally.
func (t *Taxonomy) IsExtendedMode(mode string) bool {
	_, ok := t.extendedModes[strings.ToLower(mode)]
	return ok
}

// ExplicitTriggers returns the lowercase explicit-content keyword
// superset used by the content-mode gate.
func (t *Taxonomy) ExplicitTriggers() []string { return t.explicitSuper }

// IsStopWord reports whether a token is filtered from key names and
// retrieval queries.
func (t *Taxonomy) IsStopWord(w string) bool {
	_, ok := t.stopWords[strings.ToLower(w)]
	return ok
}

// IsNonName reports whether a token is on the excluded generic-word
// list for subject names.
func (t *Taxonomy) IsNonName(w string) bool {
	_, ok := t.nonNames[strings.ToLower(w)]
	return ok
}

// IsGenericPhrase reports whether a captured description is too generic
// to keep.
func (t *Taxonomy) IsGenericPhrase(phrase string) bool {
	lp := strings.ToLower(phrase)
	for _, g := range t.Filters.GenericPhrases {
		if strings.Contains(lp, g) {
			return true
		}
	}
	return false
}
