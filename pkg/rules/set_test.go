// Test Type: Unit Test
// Description: Tests for rule sets and their change events

package rules_test

import (
	"testing"

	"github.com/arthur-debert/pagemod/pkg/rules"
	"github.com/stretchr/testify/assert"
)

func TestSet_AddRemoveEmitOnlyChanges(t *testing.T) {
	set := rules.NewSet()
	var added, removed []string
	set.OnAdd(func(r string) { added = append(added, r) })
	set.OnRemove(func(r string) { removed = append(removed, r) })

	got := set.Add("b.org", "a.org", "b.org")
	assert.Equal(t, []string{"b.org", "a.org"}, got)
	assert.Equal(t, []string{"b.org", "a.org"}, added)

	assert.Empty(t, set.Add("a.org"), "re-adding is a no-op")
	assert.Equal(t, []string{"a.org", "b.org"}, set.List())

	assert.Equal(t, []string{"a.org"}, set.Remove("a.org", "missing.org"))
	assert.Equal(t, []string{"a.org"}, removed)
	assert.False(t, set.Has("a.org"))
	assert.True(t, set.Has("b.org"))
	assert.Equal(t, 1, set.Len())
}

func TestSet_CancelledListener(t *testing.T) {
	set := rules.NewSet()
	calls := 0
	sub := set.OnAdd(func(string) { calls++ })
	sub.Cancel()

	set.Add("a.org")
	assert.Equal(t, 0, calls)
}

func TestMatching(t *testing.T) {
	compiled := map[string]*rules.Pattern{
		"example.com":        rules.MustCompile("example.com"),
		"http://other.org/*": rules.MustCompile("http://other.org/*"),
		"*":                  rules.MustCompile("*"),
	}
	lookup := func(rule string) (*rules.Pattern, bool) {
		p, ok := compiled[rule]
		return p, ok
	}

	candidates := []string{"*", "example.com", "http://other.org/*", "unknown"}
	assert.Equal(t, []string{"*", "example.com"}, rules.Matching(candidates, lookup, "http://example.com/x"))
	assert.Empty(t, rules.Matching(candidates, lookup, "file:///etc/passwd"))

	assert.True(t, rules.AnyMatch([]string{"http://other.org/*"}, lookup, "http://other.org/a"))
	assert.False(t, rules.AnyMatch([]string{"unknown"}, lookup, "http://other.org/a"))
}
