package stylesheet

import (
	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/arthur-debert/pagemod/pkg/registry"
	"github.com/arthur-debert/pagemod/pkg/rules"
	"github.com/rs/zerolog"
)

// Manager registers synthesized sheets with the host style-sheet service.
// Identical sheets produced for different owners share one host
// registration, which is dropped when the last owner releases it.
type Manager struct {
	service host.StyleSheetService
	sheets  *registry.RefCounted[Sheet]
	logger  zerolog.Logger
}

// NewManager creates a Manager backed by service
func NewManager(service host.StyleSheetService) *Manager {
	return &Manager{
		service: service,
		sheets:  registry.NewRefCounted[Sheet](),
		logger:  logging.GetLogger("stylesheet"),
	}
}

// Replace releases previousID, then registers the sheet synthesized from
// body and patterns. The old and new sheets are never merged.
func (m *Manager) Replace(previousID, body string, patterns []*rules.Pattern) (Sheet, error) {
	m.Release(previousID)

	sheet := Synthesize(body, patterns)
	_, err := m.sheets.Acquire(sheet.ID, func(id string) (Sheet, error) {
		if err := m.service.Register(id, sheet.Content); err != nil {
			return Sheet{}, errors.Wrap(err, errors.ErrStyleSheet, "failed to register style sheet").
				WithDetail("rules", len(patterns))
		}
		m.logger.Debug().
			Int("rules", len(patterns)).
			Int("bytes", len(sheet.Content)).
			Msg("Registered style sheet")
		return sheet, nil
	})
	if err != nil {
		return Sheet{}, err
	}
	return sheet, nil
}

// Release drops one owner of id and unregisters it from the host once
// nobody owns it any more.
func (m *Manager) Release(id string) {
	if id == "" {
		return
	}
	if !m.sheets.Release(id) {
		return
	}
	if m.service.IsRegistered(id) {
		m.service.Unregister(id)
		m.logger.Debug().Msg("Unregistered style sheet")
	}
}

// IsRegistered reports whether the host currently has id registered
func (m *Manager) IsRegistered(id string) bool {
	return id != "" && m.service.IsRegistered(id)
}

// Owners returns how many owners currently hold id
func (m *Manager) Owners(id string) int {
	return m.sheets.Refs(id)
}

// Clear unregisters every sheet still held, regardless of owners
func (m *Manager) Clear() {
	for _, id := range m.sheets.List() {
		if m.service.IsRegistered(id) {
			m.service.Unregister(id)
		}
	}
	m.sheets.Clear()
}
