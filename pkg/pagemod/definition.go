package pagemod

import (
	"sort"
	"sync"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/logging"
	"github.com/arthur-debert/pagemod/pkg/rules"
	"github.com/arthur-debert/pagemod/pkg/stylesheet"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Definition is one page modification: a rule set plus the script and style
// injected into the documents it matches. Identity is the pointer; the ID is
// only used for registry keys and logs.
type Definition struct {
	id      string
	manager *Manager
	logger  zerolog.Logger

	rules         *rules.Set
	script        []string
	scriptFile    []string
	scriptOptions map[string]interface{}
	styleBody     string
	phase         Phase
	attachTo      Attachments

	attached events.Topic[host.Worker]
	errs     events.Topic[error]
	ruleSubs []events.Subscription

	mu       sync.Mutex
	disposed bool
	sheetID  string
	workers  map[string]host.Worker
	staged   map[string]*rules.Pattern
	pending  map[uint64]events.Subscription
	waitSeq  uint64
}

// NewDefinition validates opts, registers the definition and subscribes it
// to its rules. With AttachExisting the already open tabs are processed
// before it returns.
func (m *Manager) NewDefinition(opts Options) (*Definition, error) {
	attachTo, err := ParseAttachments(opts.AttachTo)
	if err != nil {
		return nil, err
	}
	phase, err := ParsePhase(string(opts.ScriptPhase))
	if err != nil {
		return nil, err
	}
	if err := validateLocalURLs("scriptFile", opts.ScriptFile); err != nil {
		return nil, err
	}
	if err := validateLocalURLs("styleFile", opts.StyleFile); err != nil {
		return nil, err
	}
	compiled, err := m.compileRules(opts.Rules)
	if err != nil {
		return nil, err
	}

	d := &Definition{
		id:            uuid.New().String(),
		manager:       m,
		rules:         rules.NewSet(),
		script:        append([]string(nil), opts.Script...),
		scriptFile:    append([]string(nil), opts.ScriptFile...),
		scriptOptions: opts.ScriptOptions,
		phase:         phase,
		attachTo:      attachTo,
		workers:       make(map[string]host.Worker),
		pending:       make(map[uint64]events.Subscription),
	}
	d.logger = logging.GetLogger("pagemod").With().Str("definition", d.id).Logger()

	var files []string
	for _, u := range opts.StyleFile {
		content, err := m.reader.Read(u)
		if err != nil {
			return nil, err
		}
		files = append(files, content)
	}
	d.styleBody = stylesheet.Body(files, opts.Style)

	if opts.OnAttach != nil {
		d.OnAttach(opts.OnAttach)
	}
	if opts.OnError != nil {
		d.OnError(opts.OnError)
	}

	d.ruleSubs = []events.Subscription{
		d.rules.OnAdd(d.onRuleAdd),
		d.rules.OnRemove(d.onRuleRemove),
	}

	if err := m.register(d); err != nil {
		return nil, err
	}
	d.addCompiled(compiled, opts.Rules)

	if d.styleBody != "" {
		if err := d.refreshStyle(); err != nil {
			d.Dispose()
			return nil, err
		}
	}

	d.logger.Debug().
		Strs("rules", d.rules.List()).
		Str("phase", string(phase)).
		Msg("Definition registered")

	// Existing documents are processed after registration so the
	// registration guard in handleDocument lets them through.
	if attachTo.Has(AttachExisting) {
		d.applyOnExisting()
	}
	return d, nil
}

// ID returns the definition's generated identifier
func (d *Definition) ID() string { return d.id }

// Rules returns the current rule strings in sorted order
func (d *Definition) Rules() []string { return d.rules.List() }

// AttachTo returns the attachment policy
func (d *Definition) AttachTo() Attachments { return append(Attachments(nil), d.attachTo...) }

// ScriptPhase returns the readiness phase scripts run at
func (d *Definition) ScriptPhase() Phase { return d.phase }

// StyleSheetID returns the identifier of the registered style sheet, or ""
func (d *Definition) StyleSheetID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sheetID
}

// Workers returns the number of live workers
func (d *Definition) Workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Registered reports whether the definition still receives documents
func (d *Definition) Registered() bool {
	d.mu.Lock()
	disposed := d.disposed
	d.mu.Unlock()
	return !disposed && d.manager.registered(d)
}

// OnAttach registers fn for every worker the definition creates
func (d *Definition) OnAttach(fn func(host.Worker)) events.Subscription {
	return d.attached.On(fn)
}

// OnError registers fn for uncaught worker errors. While no error listener
// is registered errors go to the manager's diagnostic sink.
func (d *Definition) OnError(fn func(error)) events.Subscription {
	return d.errs.On(fn)
}

// AddRules adds rules to the definition. The whole batch is compiled before
// anything changes, so a bad rule leaves the definition untouched.
func (d *Definition) AddRules(patterns ...string) error {
	if !d.Registered() {
		return errors.New(errors.ErrClosed, "definition is disposed").
			WithDetail("definition", d.id)
	}
	compiled, err := d.manager.compileRules(patterns)
	if err != nil {
		return err
	}
	if added := d.addCompiled(compiled, patterns); len(added) == 0 {
		return nil
	}
	return d.refreshStyle()
}

// RemoveRules removes rules from the definition. Unknown rules are ignored.
func (d *Definition) RemoveRules(patterns ...string) error {
	if removed := d.rules.Remove(patterns...); len(removed) == 0 {
		return nil
	}
	if !d.Registered() {
		return nil
	}
	return d.refreshStyle()
}

// Dispose unregisters the style sheet, drops every rule, leaves the manager
// and destroys the live workers. Calling it again does nothing.
func (d *Definition) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	sheetID := d.sheetID
	d.sheetID = ""
	pending := d.takePending()
	d.mu.Unlock()

	for _, sub := range pending {
		sub.Cancel()
	}
	d.manager.styles.Release(sheetID)
	d.rules.Remove(d.rules.List()...)
	for _, sub := range d.ruleSubs {
		sub.Cancel()
	}
	d.manager.deregister(d)

	d.mu.Lock()
	workers := make([]host.Worker, 0, len(d.workers))
	for _, id := range sortedWorkerIDs(d.workers) {
		workers = append(workers, d.workers[id])
	}
	d.workers = make(map[string]host.Worker)
	d.mu.Unlock()

	for _, w := range workers {
		w.Destroy()
	}
	d.attached.Clear()
	d.errs.Clear()
	d.logger.Debug().Int("workers", len(workers)).Msg("Definition disposed")
}

// detach runs when the manager forgets d on Close. The sheet was already
// unregistered by the manager, so d gives up its ID and stops waiting for
// documents. Dispose still destroys the workers.
func (d *Definition) detach() {
	d.mu.Lock()
	d.sheetID = ""
	pending := d.takePending()
	d.mu.Unlock()

	for _, sub := range pending {
		sub.Cancel()
	}
}

// takePending empties the pending listener set. d.mu must be held.
func (d *Definition) takePending() []events.Subscription {
	subs := make([]events.Subscription, 0, len(d.pending))
	for _, sub := range d.pending {
		subs = append(subs, sub)
	}
	d.pending = make(map[uint64]events.Subscription)
	return subs
}

// addCompiled adds rules, handing the patterns compiled during validation to
// the manager so no rule is compiled twice.
func (d *Definition) addCompiled(compiled map[string]*rules.Pattern, patterns []string) []string {
	d.mu.Lock()
	d.staged = compiled
	d.mu.Unlock()

	added := d.rules.Add(patterns...)

	d.mu.Lock()
	d.staged = nil
	d.mu.Unlock()
	return added
}

func (d *Definition) onRuleAdd(rule string) {
	d.mu.Lock()
	compiled := d.staged[rule]
	d.mu.Unlock()

	if err := d.manager.subscribe(rule, d, compiled); err != nil {
		d.report(err)
	}
}

func (d *Definition) onRuleRemove(rule string) {
	d.manager.Off(rule, d)
}

// refreshStyle replaces the registered sheet with one scoped to the current
// rules. Definitions without a style payload have no sheet.
func (d *Definition) refreshStyle() error {
	if d.styleBody == "" {
		return nil
	}

	var patterns []*rules.Pattern
	for _, rule := range d.rules.List() {
		if p, ok := d.manager.lookup(rule); ok {
			patterns = append(patterns, p)
		}
	}

	d.mu.Lock()
	previous := d.sheetID
	d.sheetID = ""
	d.mu.Unlock()

	sheet, err := d.manager.styles.Replace(previous, d.styleBody, patterns)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.sheetID = sheet.ID
	d.mu.Unlock()
	return nil
}

// report delivers err to the error listeners, or to the diagnostic sink
// when there are none.
func (d *Definition) report(err error) {
	if d.errs.Emit(err) == 0 {
		d.manager.diagnostics(err)
	}
}

func sortedWorkerIDs(workers map[string]host.Worker) []string {
	ids := make([]string, 0, len(workers))
	for id := range workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
