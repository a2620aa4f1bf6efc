package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable(t *testing.T) {
	tax := Default()
	require.NotNil(t, tax)
	assert.Equal(t, 1, tax.Version)

	// Weights and caps of the built-in table.
	for _, tc := range []struct {
		cat    Category
		weight float64
		cap    int
	}{
		{Character, 0.8, 10},
		{Location, 0.6, 8},
		{Item, 0.7, 10},
		{Event, 0.9, 10},
		{Relationship, 0.85, 10},
		{BodyFeature, 0.95, 15},
		{Clothing, 0.85, 12},
		{Action, 0.98, 15},
		{Sensation, 0.95, 15},
		{Role, 0.97, 12},
		{Scenario, 0.9, 12},
		{Preference, 0.99, 15},
	} {
		assert.Equal(t, tc.weight, tax.Weight(tc.cat), "weight of %s", tc.cat)
		assert.Equal(t, tc.cap, tax.Cap(tc.cat), "cap of %s", tc.cat)
	}

	// Declared categories have no spec and fall back to the default cap.
	assert.Nil(t, tax.Spec(Safeword))
	assert.Equal(t, 5, tax.Cap(Safeword))
}

func TestExtendedModes(t *testing.T) {
	tax := Default()
	assert.True(t, tax.IsExtendedMode("adult"))
	assert.True(t, tax.IsExtendedMode("Roleplay"))
	assert.True(t, tax.IsExtendedMode("confession"))
	assert.False(t, tax.IsExtendedMode("general"))
	assert.False(t, tax.IsExtendedMode(""))
}

func TestExplicitTriggerSuperset(t *testing.T) {
	tax := Default()
	super := make(map[string]struct{}, len(tax.ExplicitTriggers()))
	for _, w := range tax.ExplicitTriggers() {
		super[w] = struct{}{}
	}

	// Extended triggers of base categories and the body/action/
	// sensation/role vocabularies are in; clothing vocabulary is not.
	for _, want := range []string{"collar", "dungeon", "mistress", "caress", "moan", "longing"} {
		_, ok := super[want]
		assert.True(t, ok, "superset missing %q", want)
	}
	for _, absent := range []string{"gown", "tavern", "sword"} {
		_, ok := super[absent]
		assert.False(t, ok, "superset should not contain %q", absent)
	}
}

func TestFilters(t *testing.T) {
	tax := Default()
	assert.True(t, tax.IsStopWord("The"))
	assert.False(t, tax.IsStopWord("tavern"))
	assert.True(t, tax.IsNonName("someone"))
	assert.True(t, tax.IsGenericPhrase("it was kind of dark"))
	assert.False(t, tax.IsGenericPhrase("a sharp-eyed innkeeper"))
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad version": `
version: 0
categories:
  character: {weight: 0.8, cap: 10, triggers: [guard]}
filters: {min_key_len: 2, max_key_len: 15}
`,
		"unknown category": `
version: 1
categories:
  dragons: {weight: 0.8, cap: 10, triggers: [wyrm]}
filters: {min_key_len: 2, max_key_len: 15}
`,
		"weight out of range": `
version: 1
categories:
  character: {weight: 1.5, cap: 10, triggers: [guard]}
filters: {min_key_len: 2, max_key_len: 15}
`,
		"missing triggers": `
version: 1
categories:
  character: {weight: 0.8, cap: 10, triggers: []}
filters: {min_key_len: 2, max_key_len: 15}
`,
		"inverted key bounds": `
version: 1
categories:
  character: {weight: 0.8, cap: 10, triggers: [guard]}
filters: {min_key_len: 10, max_key_len: 2}
`,
		"not yaml": `{{{`,
	}
	for name, src := range cases {
		_, err := Load([]byte(src))
		assert.Error(t, err, name)
	}
}

func TestLoadCustomTable(t *testing.T) {
	src := `
version: 2
extended_modes: [noir]
filters:
  min_key_len: 2
  max_key_len: 20
  stop_words: [the]
categories:
  character:
    weight: 0.7
    cap: 4
    triggers: [detective, informant]
    connectives: [is called]
`
	tax, err := Load([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, 2, tax.Version)
	assert.True(t, tax.IsExtendedMode("noir"))
	assert.Equal(t, 0.7, tax.Weight(Character))
	assert.Equal(t, 4, tax.Cap(Character))
	assert.Equal(t, 20, tax.Filters.MaxKeyLen)
}

func TestDisplayNames(t *testing.T) {
	assert.Equal(t, "Characters", DisplayName(Character))
	assert.Equal(t, "Body features", DisplayName(BodyFeature))
	assert.Equal(t, "unknown", DisplayName(Category("unknown")))
}
