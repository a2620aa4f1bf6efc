package engine

// explicitAllowed decides whether the extended category set is active
// for this turn. A declared extended mode opens the gate
// unconditionally; otherwise the text itself must contain a member of
// the explicit-trigger superset. Pure classifier: a false positive only
// widens extraction, a false negative suppresses extended categories
// for one turn.
func (e *Engine) explicitAllowed(text, mode string) bool {
	if e.tax.IsExtendedMode(mode) {
		return true
	}
	for _, kw := range e.tax.ExplicitTriggers() {
		if len(wordSpans(text, kw)) > 0 {
			return true
		}
	}
	return false
}
