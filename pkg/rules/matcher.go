package rules

// Lookup resolves a rule string to its compiled pattern
type Lookup func(rule string) (*Pattern, bool)

// Matching returns the rules among candidates whose pattern accepts rawURL,
// preserving the order of candidates. Rules lookup cannot resolve are skipped.
func Matching(candidates []string, lookup Lookup, rawURL string) []string {
	var matched []string
	for _, rule := range candidates {
		p, ok := lookup(rule)
		if !ok {
			continue
		}
		if p.Test(rawURL) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// AnyMatch reports whether any of the candidate rules accepts rawURL
func AnyMatch(candidates []string, lookup Lookup, rawURL string) bool {
	for _, rule := range candidates {
		if p, ok := lookup(rule); ok && p.Test(rawURL) {
			return true
		}
	}
	return false
}
