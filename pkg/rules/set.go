package rules

import (
	"sort"
	"sync"

	"github.com/arthur-debert/pagemod/pkg/events"
)

// Set is the collection of rule strings owned by one page modification. It
// emits an event for every rule actually added or removed, so owners can keep
// subscriptions and derived artifacts in step with its contents.
type Set struct {
	mu      sync.Mutex
	items   map[string]struct{}
	added   events.Topic[string]
	removed events.Topic[string]
}

// NewSet creates an empty rule set
func NewSet() *Set {
	return &Set{items: make(map[string]struct{})}
}

// OnAdd registers fn for rules entering the set
func (s *Set) OnAdd(fn func(rule string)) events.Subscription {
	return s.added.On(fn)
}

// OnRemove registers fn for rules leaving the set
func (s *Set) OnRemove(fn func(rule string)) events.Subscription {
	return s.removed.On(fn)
}

// Add inserts rules not already present and returns the ones that were new
func (s *Set) Add(rules ...string) []string {
	var added []string
	for _, rule := range rules {
		s.mu.Lock()
		_, exists := s.items[rule]
		if !exists {
			s.items[rule] = struct{}{}
		}
		s.mu.Unlock()

		if exists {
			continue
		}
		added = append(added, rule)
		s.added.Emit(rule)
	}
	return added
}

// Remove deletes the given rules and returns the ones that were present
func (s *Set) Remove(rules ...string) []string {
	var removed []string
	for _, rule := range rules {
		s.mu.Lock()
		_, exists := s.items[rule]
		delete(s.items, rule)
		s.mu.Unlock()

		if !exists {
			continue
		}
		removed = append(removed, rule)
		s.removed.Emit(rule)
	}
	return removed
}

// Has reports whether rule is in the set
func (s *Set) Has(rule string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[rule]
	return ok
}

// List returns the rules in sorted order
func (s *Set) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]string, 0, len(s.items))
	for rule := range s.items {
		list = append(list, rule)
	}
	sort.Strings(list)
	return list
}

// Len returns the number of rules
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
