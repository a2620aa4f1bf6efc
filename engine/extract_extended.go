package engine

import (
	"strings"
	"unicode/utf8"

	"memweave/taxonomy"
)

// Extended-category extractors. These only run when the content-mode
// gate is open; their importance weights sit above the base categories
// because missed facts here are costlier than false positives.

func (e *Engine) extractBodyFeatures(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.BodyFeature)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, part := range spec.Triggers {
		lp := strings.ToLower(part)
		win := firstWindow(text, lp, 40)
		n := utf8.RuneCountInString(win)
		if n <= 5 || n >= 80 {
			continue
		}
		content := win
		if q := firstFromList(strings.ToLower(win), spec.Details); q != "" {
			content += "\nQuality: " + q
		}
		facts = append(facts, Fact{
			Category:   taxonomy.BodyFeature,
			KeyName:    "body_" + lp,
			Content:    content,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	return facts
}

func (e *Engine) extractClothing(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Clothing)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, garment := range spec.Triggers {
		lg := strings.ToLower(garment)
		win := firstWindow(text, lg, 40)
		if utf8.RuneCountInString(win) <= 3 {
			continue
		}
		lw := strings.ToLower(win)
		content := win
		if state := firstFromList(lw, spec.Connectives); state != "" {
			content += "\nState: " + state
		}
		if material := firstFromList(lw, spec.Details); material != "" {
			content += "\nMaterial: " + material
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Clothing,
			KeyName:    lg,
			Content:    content,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	return facts
}

func (e *Engine) extractActions(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Action)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, verb := range spec.Triggers {
		lv := strings.ToLower(verb)
		win := firstWindow(text, lv, 30)
		if utf8.RuneCountInString(win) <= 5 {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Action,
			KeyName:    "act_" + lv,
			Content:    win,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	for _, reaction := range spec.Secondary {
		lr := strings.ToLower(reaction)
		win := firstWindow(text, lr, 40)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Action,
			KeyName:    "reaction_" + lr,
			Content:    win,
			Context:    userCtx,
			Importance: 0.92,
		})
	}
	return facts
}

func (e *Engine) extractSensations(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Sensation)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, s := range spec.Triggers {
		ls := strings.ToLower(s)
		win := firstWindow(text, ls, 40)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Sensation,
			KeyName:    "sense_" + ls,
			Content:    win,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	for _, m := range spec.Secondary {
		lm := strings.ToLower(m)
		win := firstWindow(text, lm, 40)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Sensation,
			KeyName:    "feeling_" + lm,
			Content:    win,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	return facts
}

func (e *Engine) extractRoles(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Role)
	if spec == nil || e.match.roleClause == nil {
		return nil
	}
	var facts []Fact
	for _, m := range e.match.roleClause.FindAllStringSubmatch(text, -1) {
		person, role := m[1], m[2]
		if !validName(e.tax, person) {
			continue
		}
		dynamic := "submissive"
		if inSet(e.match.roleDominant, role) {
			dynamic = "dominant"
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Role,
			KeyName:    person,
			Content:    "Role: " + role + "\nDynamic: " + dynamic,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	return facts
}

func (e *Engine) extractScenarios(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Scenario)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, setting := range spec.Triggers {
		ls := strings.ToLower(setting)
		win := firstWindow(text, ls, 50)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Scenario,
			KeyName:    "scene_" + ls,
			Content:    win,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	for _, prop := range spec.Secondary {
		lp := strings.ToLower(prop)
		win := firstWindow(text, lp, 40)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Scenario,
			KeyName:    "prop_" + lp,
			Content:    win,
			Context:    userCtx,
			Importance: 0.88,
		})
	}
	return facts
}

func (e *Engine) extractPreferences(text, userCtx string) []Fact {
	spec := e.tax.Spec(taxonomy.Preference)
	if spec == nil {
		return nil
	}
	var facts []Fact
	for _, p := range spec.Triggers {
		lp := strings.ToLower(p)
		win := firstWindow(text, lp, 50)
		if win == "" {
			continue
		}
		facts = append(facts, Fact{
			Category:   taxonomy.Preference,
			KeyName:    "preference_" + strings.ReplaceAll(lp, " ", "_"),
			Content:    win,
			Context:    userCtx,
			Importance: spec.Weight,
		})
	}
	return facts
}

// firstFromList returns the first vocabulary entry present in the
// window.
func firstFromList(win string, words []string) string {
	for _, w := range words {
		lw := strings.ToLower(w)
		if len(wordSpans(win, lw)) > 0 {
			return lw
		}
	}
	return ""
}
