package testutil

import (
	"sort"
	"sync"
)

// StyleSheets is an in-memory host.StyleSheetService
type StyleSheets struct {
	mu            sync.Mutex
	sheets        map[string]string
	registrations int
	// Err, when set, makes Register fail
	Err error
}

// NewStyleSheets creates an empty service
func NewStyleSheets() *StyleSheets {
	return &StyleSheets{sheets: make(map[string]string)}
}

func (s *StyleSheets) Register(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.sheets[id] = content
	s.registrations++
	return nil
}

func (s *StyleSheets) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sheets, id)
}

func (s *StyleSheets) IsRegistered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sheets[id]
	return ok
}

// Content returns the registered content of id
func (s *StyleSheets) Content(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheets[id]
}

// IDs returns the registered identifiers in sorted order
func (s *StyleSheets) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.sheets))
	for id := range s.sheets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Registrations returns how many times Register succeeded
func (s *StyleSheets) Registrations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations
}
