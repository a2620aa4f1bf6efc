package engine

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// postprocess folds raw candidates into the final batch: merge
// collisions, scale importance by source-text length, rank and enforce
// per-category caps.
func (e *Engine) postprocess(candidates []Fact, sourceText string) []Fact {
	merged := mergeCandidates(candidates)

	// Short turns yield proportionally weaker facts, so one-line
	// utterances cannot mint maximal-importance memories.
	factor := float64(utf8.RuneCountInString(sourceText)) / float64(e.Config.ScaleLength)
	if factor > 1 {
		factor = 1
	}
	for i := range merged {
		merged[i].Importance = clamp01(merged[i].Importance * factor)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Importance != merged[j].Importance {
			return merged[i].Importance > merged[j].Importance
		}
		if merged[i].Category != merged[j].Category {
			return merged[i].Category < merged[j].Category
		}
		return merged[i].KeyName < merged[j].KeyName
	})

	counts := make(map[string]int)
	out := merged[:0]
	for _, f := range merged {
		cat := string(f.Category)
		if counts[cat] >= e.tax.Cap(f.Category) {
			continue
		}
		counts[cat]++
		out = append(out, f)
	}
	return out
}

// mergeCandidates groups candidates by (category, key), unions their
// content lines in first-seen order and keeps the max importance.
func mergeCandidates(candidates []Fact) []Fact {
	type slot struct{ idx int }
	index := make(map[string]slot, len(candidates))
	var out []Fact
	for _, c := range candidates {
		key := string(c.Category) + "\x00" + c.KeyName
		if s, ok := index[key]; ok {
			existing := &out[s.idx]
			existing.Content = mergeContent(existing.Content, c.Content)
			if c.Importance > existing.Importance {
				existing.Importance = c.Importance
			}
			continue
		}
		index[key] = slot{idx: len(out)}
		out = append(out, c)
	}
	return out
}

func mergeContent(a, b string) string {
	seen := make(map[string]struct{})
	var lines []string
	for _, block := range []string{a, b} {
		for _, line := range strings.Split(block, "\n") {
			if line == "" {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
