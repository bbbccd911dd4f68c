package pagemod

import (
	"sort"
	"sync"

	"github.com/arthur-debert/pagemod/internal/version"
	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/arthur-debert/pagemod/pkg/registry"
	"github.com/arthur-debert/pagemod/pkg/rules"
	"github.com/arthur-debert/pagemod/pkg/stylesheet"
	"github.com/arthur-debert/pagemod/pkg/urlio"
	"github.com/rs/zerolog"
)

// Option configures a Manager
type Option func(*Manager)

// WithLogger replaces the manager's component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithDiagnosticSink sets where errors go when a definition has no error
// listener
func WithDiagnosticSink(sink func(error)) Option {
	return func(m *Manager) { m.diagnostics = sink }
}

// WithReader sets the reader used for style files
func WithReader(reader host.URLReader) Option {
	return func(m *Manager) { m.reader = reader }
}

// WithStyleSheets replaces the style sheet manager
func WithStyleSheets(styles *stylesheet.Manager) Option {
	return func(m *Manager) { m.styles = styles }
}

// Manager owns the shared rule registry and routes new documents to the
// definitions subscribed to a matching rule.
type Manager struct {
	host        host.Host
	reader      host.URLReader
	styles      *stylesheet.Manager
	diagnostics func(error)
	logger      zerolog.Logger
	compile     func(string) (*rules.Pattern, error)

	patterns    *registry.RefCounted[*rules.Pattern]
	definitions registry.Registry[*Definition]

	mu     sync.Mutex
	topics map[string][]*Definition
	source events.Subscription
}

// NewManager creates a Manager over the host collaborators. The document
// stream is subscribed to lazily, when the first definition registers.
func NewManager(h host.Host, opts ...Option) (*Manager, error) {
	switch {
	case h.Documents == nil:
		return nil, errors.New(errors.ErrInvalidInput, "host has no document source")
	case h.Tabs == nil:
		return nil, errors.New(errors.ErrInvalidInput, "host has no tab enumerator")
	case h.Workers == nil:
		return nil, errors.New(errors.ErrInvalidInput, "host has no worker factory")
	case h.StyleSheets == nil:
		return nil, errors.New(errors.ErrInvalidInput, "host has no style sheet service")
	}

	m := &Manager{
		host:        h,
		reader:      h.Reader,
		logger:      logging.GetLogger("pagemod"),
		compile:     rules.Compile,
		patterns:    registry.NewRefCounted[*rules.Pattern](),
		definitions: registry.New[*Definition](),
		topics:      make(map[string][]*Definition),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.reader == nil {
		m.reader = urlio.NewReader(nil)
	}
	if m.styles == nil {
		m.styles = stylesheet.NewManager(h.StyleSheets)
	}
	if m.diagnostics == nil {
		m.diagnostics = logging.DiagnosticSink(m.logger)
	}

	m.logger.Debug().Str("version", version.String()).Msg("Manager created")
	return m, nil
}

// On subscribes def to documents matching pattern, compiling the pattern on
// its first subscription. Subscribing twice is a no-op.
func (m *Manager) On(pattern string, def *Definition) error {
	return m.subscribe(pattern, def, nil)
}

// subscribe adds def to the pattern's topic. A non-nil compiled pattern is
// stored as is when the rule is not in the registry yet.
func (m *Manager) subscribe(pattern string, def *Definition, compiled *rules.Pattern) error {
	if def == nil {
		return errors.New(errors.ErrInvalidInput, "definition cannot be nil")
	}
	if !m.definitions.Has(def.id) {
		return errors.Newf(errors.ErrNotFound, "definition %s is not registered", def.id).
			WithDetail("definition", def.id)
	}

	build := func(rule string) (*rules.Pattern, error) {
		if compiled != nil {
			return compiled, nil
		}
		return m.compile(rule)
	}
	if _, err := m.patterns.Acquire(pattern, build); err != nil {
		return err
	}

	m.mu.Lock()
	for _, d := range m.topics[pattern] {
		if d == def {
			m.mu.Unlock()
			m.patterns.Release(pattern)
			return nil
		}
	}
	m.topics[pattern] = append(m.topics[pattern], def)
	m.mu.Unlock()

	m.logger.Trace().Str("rule", pattern).Str("definition", def.id).Msg("Subscribed")
	return nil
}

// Off removes def's subscription to pattern. The compiled pattern is purged
// when its last subscriber leaves.
func (m *Manager) Off(pattern string, def *Definition) {
	m.mu.Lock()
	subs := m.topics[pattern]
	found := false
	for i, d := range subs {
		if d == def {
			subs = append(subs[:i:i], subs[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		m.mu.Unlock()
		return
	}
	if len(subs) == 0 {
		delete(m.topics, pattern)
	} else {
		m.topics[pattern] = subs
	}
	m.mu.Unlock()

	if m.patterns.Release(pattern) {
		m.logger.Debug().Str("rule", pattern).Msg("Rule purged")
	}
}

// Close unsubscribes from the document stream and forgets every rule,
// subscription and definition. Registered style sheets are unregistered and
// the forgotten definitions no longer own them. A later definition starts
// the manager again.
func (m *Manager) Close() {
	m.mu.Lock()
	source := m.source
	m.source = nil
	m.topics = make(map[string][]*Definition)
	m.mu.Unlock()

	if source != nil {
		source.Cancel()
	}
	orphans := m.definitions.Values()
	m.definitions.Clear()
	for _, d := range orphans {
		d.detach()
	}
	m.patterns.Clear()
	m.styles.Clear()
	m.logger.Debug().Msg("Manager closed")
}

// Rules returns the compiled rules currently in use, in sorted order
func (m *Manager) Rules() []string {
	return m.patterns.List()
}

// Pattern returns the compiled pattern for rule
func (m *Manager) Pattern(rule string) (*rules.Pattern, bool) {
	return m.patterns.Get(rule)
}

// Refs returns how many subscriptions hold rule
func (m *Manager) Refs(rule string) int {
	return m.patterns.Refs(rule)
}

// Subscribers returns how many definitions subscribe to rule
func (m *Manager) Subscribers(rule string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics[rule])
}

// Definitions returns the registered definitions ordered by ID
func (m *Manager) Definitions() []*Definition {
	return m.definitions.Values()
}

// Listening reports whether the manager is subscribed to the document stream
func (m *Manager) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source != nil
}

func (m *Manager) register(def *Definition) error {
	if err := m.definitions.Register(def.id, def); err != nil {
		return err
	}

	m.mu.Lock()
	listening := m.source != nil
	m.mu.Unlock()
	if listening {
		return nil
	}

	sub := m.host.Documents.OnDocumentCreated(m.dispatch)
	m.mu.Lock()
	if m.source == nil {
		m.source = sub
		sub = nil
	}
	m.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	} else {
		m.logger.Debug().Msg("Listening for new documents")
	}
	return nil
}

func (m *Manager) deregister(def *Definition) {
	_ = m.definitions.Remove(def.id)
}

func (m *Manager) registered(def *Definition) bool {
	return m.definitions.Has(def.id)
}

func (m *Manager) lookup(rule string) (*rules.Pattern, bool) {
	return m.patterns.Get(rule)
}

// dispatch routes one new document. Each matching definition sees the
// document once, however many of its rules match.
func (m *Manager) dispatch(doc host.Document) {
	if doc == nil {
		return
	}
	win := doc.Window()
	if win == nil {
		return
	}
	if _, ok := m.host.Tabs.TabForWindow(win); !ok {
		return
	}

	m.mu.Lock()
	topics := make(map[string][]*Definition, len(m.topics))
	names := make([]string, 0, len(m.topics))
	for name, subs := range m.topics {
		names = append(names, name)
		topics[name] = append([]*Definition(nil), subs...)
	}
	m.mu.Unlock()
	sort.Strings(names)

	url := doc.URL()
	seen := make(map[*Definition]bool)
	var targets []*Definition
	for _, name := range rules.Matching(names, m.lookup, url) {
		for _, def := range topics[name] {
			if !seen[def] {
				seen[def] = true
				targets = append(targets, def)
			}
		}
	}
	if len(targets) == 0 {
		return
	}

	m.logger.Debug().Str("url", url).Int("definitions", len(targets)).Msg("Routing document")
	for _, def := range targets {
		m.deliver(def, doc)
	}
}

func (m *Manager) deliver(def *Definition, doc host.Document) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Str("definition", def.id).
				Str("url", doc.URL()).
				Interface("panic", r).
				Msg("Document handler failed")
		}
	}()
	def.handleDocument(doc)
}

// compileRules compiles every rule not in the registry yet, so a bad rule is
// reported before anything changes. Duplicates are compiled once.
func (m *Manager) compileRules(patterns []string) (map[string]*rules.Pattern, error) {
	compiled := make(map[string]*rules.Pattern, len(patterns))
	for _, rule := range patterns {
		if _, ok := compiled[rule]; ok {
			continue
		}
		if p, ok := m.lookup(rule); ok {
			compiled[rule] = p
			continue
		}
		p, err := m.compile(rule)
		if err != nil {
			return nil, err
		}
		compiled[rule] = p
	}
	return compiled, nil
}
