package engine

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"

	"memweave/taxonomy"
)

// normalizeText collapses whitespace runs into single spaces so the
// matchers see one continuous line.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isClauseCut(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':', '\n':
		return true
	}
	return false
}

// span is a byte range inside the scanned text.
type span struct {
	start, end int
}

// wordSpans returns the byte spans at which word appears in text as a
// whole word, compared rune by rune under case folding. word must
// already be lowercase. Matching runs against the text that will be
// sliced: lowercasing a copy first can widen runes (U+023A 'Ⱥ' is two
// bytes, its lower form three) and shift every offset after them.
func wordSpans(text, word string) []span {
	if word == "" {
		return nil
	}
	first, _ := utf8.DecodeRuneInString(word)
	var out []span
	for at := 0; at < len(text); {
		r, size := utf8.DecodeRuneInString(text[at:])
		if unicode.ToLower(r) != first {
			at += size
			continue
		}
		end, ok := foldMatch(text, at, word)
		if !ok {
			at += size
			continue
		}
		before, _ := utf8.DecodeLastRuneInString(text[:at])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (at == 0 || !isWordChar(before)) && (end == len(text) || !isWordChar(after)) {
			out = append(out, span{start: at, end: end})
			at = end
			continue
		}
		at += size
	}
	return out
}

// foldMatch reports whether word matches text at byte offset at,
// returning the offset just past the match.
func foldMatch(text string, at int, word string) (int, bool) {
	i := at
	for _, wr := range word {
		if i >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.ToLower(r) != wr {
			return 0, false
		}
		i += size
	}
	return i, true
}

func countWordOccurrences(text, word string) int {
	return len(wordSpans(text, word))
}

// windowAround cuts a bounded window of the original text around a
// trigger occurrence: at most radius runes to each side, stopping early
// at clause punctuation. start and end are byte offsets of the trigger.
func windowAround(text string, start, end, radius int) string {
	lo := start
	for n := 0; n < radius && lo > 0; n++ {
		r, size := utf8.DecodeLastRuneInString(text[:lo])
		if isClauseCut(r) {
			break
		}
		lo -= size
	}
	hi := end
	for n := 0; n < radius && hi < len(text); n++ {
		r, size := utf8.DecodeRuneInString(text[hi:])
		if isClauseCut(r) {
			break
		}
		hi += size
	}
	return strings.TrimSpace(text[lo:hi])
}

// firstWindow returns the window around the first whole-word occurrence
// of trigger, or "" when the trigger is absent. trigger must be
// lowercase.
func firstWindow(text, trigger string, radius int) string {
	spans := wordSpans(text, trigger)
	if len(spans) == 0 {
		return ""
	}
	return windowAround(text, spans[0].start, spans[0].end, radius)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// validName applies the shared subject-name rules: rune length within
// the configured bounds, not a stop word, not purely numeric, not on
// the generic non-name list.
func validName(t *taxonomy.Taxonomy, name string) bool {
	n := utf8.RuneCountInString(name)
	if n < t.Filters.MinKeyLen || n > t.Filters.MaxKeyLen {
		return false
	}
	if isNumeric(name) {
		return false
	}
	if t.IsStopWord(name) || t.IsNonName(name) {
		return false
	}
	return true
}

// fnvKey is a short stable digest used to build deterministic event
// keys, so re-running extraction on the same text reproduces the same
// key set.
func fnvKey(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
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

// foldNewlines renders merged multi-line content on a single line.
func foldNewlines(s string) string {
	return strings.ReplaceAll(s, "\n", "; ")
}
