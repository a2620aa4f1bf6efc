package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memweave/taxonomy"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return New()
}

func factsByCategory(facts []Fact, cat taxonomy.Category) []Fact {
	var out []Fact
	for _, f := range facts {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

func TestExtractCharacterTitle(t *testing.T) {
	e := testEngine(t)
	facts := e.ExtractMemories(
		"Mira the innkeeper greeted them warmly. Mira poured two mugs of ale and told them the road north was washed out, so the story went on for quite a while as the fire crackled and the rain kept falling outside the windows of the common room all through the evening and into the night.",
		"we enter the inn", "general")

	chars := factsByCategory(facts, taxonomy.Character)
	require.NotEmpty(t, chars)
	assert.Equal(t, "Mira", chars[0].KeyName)
	assert.Contains(t, chars[0].Content, "Role: innkeeper")
}

func TestExtractCharacterNamedForm(t *testing.T) {
	e := testEngine(t)
	facts := e.ExtractMemories(
		strings.Repeat("The road stretched on. ", 20)+"They met a blacksmith called Torvald near the old mill.",
		"", "general")

	chars := factsByCategory(facts, taxonomy.Character)
	require.NotEmpty(t, chars)
	assert.Equal(t, "Torvald", chars[0].KeyName)
}

func TestExtractDeterministicEventKeys(t *testing.T) {
	e := testEngine(t)
	text := strings.Repeat("The candles flickered. ", 15) +
		"After three days of fighting the party finally defeated the pale dragon at dawn."

	first := e.ExtractMemories(text, "", "general")
	second := e.ExtractMemories(text, "", "general")

	firstEvents := factsByCategory(first, taxonomy.Event)
	secondEvents := factsByCategory(second, taxonomy.Event)
	require.NotEmpty(t, firstEvents)
	require.Equal(t, len(firstEvents), len(secondEvents))
	for i := range firstEvents {
		assert.Equal(t, firstEvents[i].KeyName, secondEvents[i].KeyName)
		assert.Equal(t, firstEvents[i].Content, secondEvents[i].Content)
		assert.True(t, strings.HasPrefix(firstEvents[i].KeyName, "event_"))
	}
}

func TestExtendedGateBoundary(t *testing.T) {
	e := testEngine(t)
	// "gown" is a clothing trigger but not part of the explicit keyword
	// superset, so in a base mode the gate stays closed.
	text := strings.Repeat("Nothing much happened. ", 15) +
		"Her emerald gown caught the light."

	base := e.ExtractMemories(text, "", "general")
	assert.Empty(t, factsByCategory(base, taxonomy.Clothing))

	extended := e.ExtractMemories(text, "", "roleplay")
	clothing := factsByCategory(extended, taxonomy.Clothing)
	require.NotEmpty(t, clothing)
	assert.Equal(t, "gown", clothing[0].KeyName)
}

func TestGateOpensOnTriggerInText(t *testing.T) {
	e := testEngine(t)
	// "collar" is an extended item trigger and a member of the explicit
	// superset: it opens the gate even in a base mode.
	assert.True(t, e.explicitAllowed("she fastened the collar", "general"))
	assert.False(t, e.explicitAllowed("she fastened the necklace clasp", "general"))
	assert.True(t, e.explicitAllowed("anything at all", "adult"))
	assert.True(t, e.explicitAllowed("anything at all", "Roleplay"))
}

func TestCategoryCapEnforced(t *testing.T) {
	e := testEngine(t)
	names := []string{
		"Alden", "Boris", "Cedric", "Doran", "Edwin", "Falk", "Gerta",
		"Hilda", "Ivo", "Jorun", "Kara", "Loth", "Marek", "Nessa",
		"Odette", "Perrin", "Quill", "Rurik", "Sable", "Tamsin",
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n + " the guard stood watch. ")
	}

	facts := e.ExtractMemories(b.String(), "", "general")
	chars := factsByCategory(facts, taxonomy.Character)
	assert.Len(t, chars, e.Taxonomy().Cap(taxonomy.Character))
}

func TestImportanceClampedAndScaled(t *testing.T) {
	e := testEngine(t)
	short := "Rolf the guard nodded."
	facts := e.ExtractMemories(short, "", "general")
	require.NotEmpty(t, facts)
	for _, f := range facts {
		assert.GreaterOrEqual(t, f.Importance, 0.0)
		assert.LessOrEqual(t, f.Importance, 1.0)
	}
	// Well under the scale length: importance must be scaled down.
	assert.Less(t, facts[0].Importance, e.Taxonomy().Weight(taxonomy.Character))
}

func TestCharacterFrequencyBonus(t *testing.T) {
	e := testEngine(t)
	pad := strings.Repeat("The rain fell on the cobblestones. ", 15)
	once := e.ExtractMemories(pad+"Brina the merchant haggled.", "", "general")
	thrice := e.ExtractMemories(pad+"Brina the merchant haggled. Brina laughed. Brina won.", "", "general")

	a := factsByCategory(once, taxonomy.Character)
	b := factsByCategory(thrice, taxonomy.Character)
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.Greater(t, b[0].Importance, a[0].Importance)
}

func TestMergeCandidatesUnionsLines(t *testing.T) {
	in := []Fact{
		{Category: taxonomy.Character, KeyName: "Mira", Content: "Role: innkeeper", Importance: 0.8},
		{Category: taxonomy.Character, KeyName: "Mira", Content: "Description: tall and sharp-eyed", Importance: 0.9},
		{Category: taxonomy.Character, KeyName: "Mira", Content: "Role: innkeeper", Importance: 0.5},
	}
	out := mergeCandidates(in)
	require.Len(t, out, 1)
	assert.Equal(t, "Role: innkeeper\nDescription: tall and sharp-eyed", out[0].Content)
	assert.Equal(t, 0.9, out[0].Importance)
}

func TestIdempotentCandidateSet(t *testing.T) {
	e := testEngine(t)
	text := strings.Repeat("Smoke curled from the chimney. ", 10) +
		"Greta the healer treated the wounded knight in the chapel near the market square."

	a := e.ExtractMemories(text, "hello", "general")
	b := e.ExtractMemories(text, "hello", "general")
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestExtractEmptyAndHostileInput(t *testing.T) {
	e := testEngine(t)
	assert.Empty(t, e.ExtractMemories("", "", "general"))
	assert.Empty(t, e.ExtractMemories("   \n\t  ", "", "general"))
	// Pathological input must terminate and stay bounded.
	long := strings.Repeat("guard ", 5000)
	facts := e.ExtractMemories(long, "", "general")
	for _, f := range facts {
		assert.LessOrEqual(t, f.Importance, 1.0)
	}
}

func TestQueryTokens(t *testing.T) {
	tax := taxonomy.Default()
	tokens := queryTokens(tax, "Tell me about Alice, the guard!")
	assert.Equal(t, []string{"tell", "about", "alice", "guard"}, tokens)
	assert.Empty(t, queryTokens(tax, "a an the"))
}

func TestValidName(t *testing.T) {
	tax := taxonomy.Default()
	assert.True(t, validName(tax, "Mira"))
	assert.False(t, validName(tax, "A"))
	assert.False(t, validName(tax, "12345"))
	assert.False(t, validName(tax, "Something"))
	assert.False(t, validName(tax, "TheNameIsFarTooLongToKeep"))
}

func TestWordSpansFoldWideningRunes(t *testing.T) {
	// 'Ⱥ' (U+023A) is two bytes; its lowercase form 'ⱥ' (U+2C65) is
	// three. Spans must index the string being sliced, not a lowered
	// copy whose offsets have drifted.
	text := strings.Repeat("Ⱥ", 10) + " a silver Sword hung there"
	spans := wordSpans(text, "sword")
	require.Len(t, spans, 1)
	assert.Equal(t, "Sword", text[spans[0].start:spans[0].end])

	assert.Empty(t, wordSpans("swordsman drills", "sword"))
}

func TestExtractionSurvivesWideningRunes(t *testing.T) {
	e := testEngine(t)
	text := strings.Repeat("Ⱥ", 40) + " the stranger finally handed over a sword"
	facts := e.ExtractMemories(text, "", "general")

	items := factsByCategory(facts, taxonomy.Item)
	require.NotEmpty(t, items)
	assert.Contains(t, items[0].Content, "sword")
}

func TestWindowAroundCutsAtPunctuation(t *testing.T) {
	text := "It was late. The silver sword gleamed on the wall, untouched. Nobody spoke."
	at := strings.Index(text, "sword")
	win := windowAround(text, at, at+len("sword"), 40)
	assert.Equal(t, "The silver sword gleamed on the wall", win)
}

func TestRoleExtractionDynamic(t *testing.T) {
	e := testEngine(t)
	text := strings.Repeat("The fire burned low. ", 15) +
		"Selene is the mistress of the house, and Wren becomes her pet."

	facts := e.ExtractMemories(text, "", "roleplay")
	roles := factsByCategory(facts, taxonomy.Role)
	require.Len(t, roles, 2)

	byKey := map[string]Fact{}
	for _, f := range roles {
		byKey[f.KeyName] = f
	}
	require.Contains(t, byKey, "Selene")
	require.Contains(t, byKey, "Wren")
	assert.Contains(t, byKey["Selene"].Content, "Dynamic: dominant")
	assert.Contains(t, byKey["Wren"].Content, "Dynamic: submissive")
}

func TestDeclaredClassification(t *testing.T) {
	assert.Equal(t, taxonomy.Safeword, classifyDeclaration("My safeword is ember"))
	assert.Equal(t, taxonomy.Nickname, classifyDeclaration("Please call me Kit"))
	assert.Equal(t, taxonomy.Dislike, classifyDeclaration("I hate sudden loud noises"))
	assert.Equal(t, taxonomy.Like, classifyDeclaration("I like slow-burn stories"))
	assert.Equal(t, taxonomy.UserInfo, classifyDeclaration("I work night shifts"))
}
