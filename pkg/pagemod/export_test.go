package pagemod

import "github.com/arthur-debert/pagemod/pkg/rules"

// CountCompiles wraps the manager's rule compiler and returns the number of
// compilations per rule.
func CountCompiles(m *Manager) map[string]int {
	counts := make(map[string]int)
	next := m.compile
	m.compile = func(rule string) (*rules.Pattern, error) {
		counts[rule]++
		return next(rule)
	}
	return counts
}
