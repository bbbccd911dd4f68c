package testutil

import (
	"sync"

	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/urlio"
	"github.com/spf13/afero"
)

// Host is an in-memory browser host implementing every collaborator the
// engine consumes. Documents are created explicitly by tests; creation
// events fire synchronously.
type Host struct {
	mu      sync.Mutex
	created events.Topic[host.Document]
	tabs    []*Tab

	Styles  *StyleSheets
	Workers *WorkerFactory
	// FS backs the URL reader returned by Bundle
	FS afero.Fs
	// Reader overrides the URL reader returned by Bundle when set
	Reader host.URLReader
}

// NewHost creates an empty host with no open tabs
func NewHost() *Host {
	return &Host{
		Styles:  NewStyleSheets(),
		Workers: NewWorkerFactory(),
		FS:      afero.NewMemMapFs(),
	}
}

// Bundle returns the collaborators in the form the engine consumes
func (h *Host) Bundle() host.Host {
	reader := h.Reader
	if reader == nil {
		reader = urlio.NewReader(h.FS)
	}
	return host.Host{
		Documents:   h,
		Tabs:        h,
		Workers:     h.Workers,
		StyleSheets: h.Styles,
		Reader:      reader,
	}
}

func (h *Host) OnDocumentCreated(fn func(host.Document)) events.Subscription {
	return h.created.On(fn)
}

// DocumentListeners returns the number of document-creation subscribers
func (h *Host) DocumentListeners() int {
	return h.created.Count()
}

func (h *Host) Tabs() []host.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()

	tabs := make([]host.Tab, 0, len(h.tabs))
	for _, t := range h.tabs {
		tabs = append(tabs, t)
	}
	return tabs
}

func (h *Host) TabForWindow(w host.Window) (host.Tab, bool) {
	win, ok := w.(*Window)
	if !ok || win == nil {
		return nil, false
	}
	top := win.top()

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.tabs {
		if t.window == top {
			return t, true
		}
	}
	return nil, false
}

// OpenTab adds a tab that already shows url in the given state. No creation
// event fires: the document predates any listener.
func (h *Host) OpenTab(url string, state host.ReadyState) *Tab {
	win := newWindow(nil)
	win.doc = &Document{url: url, state: state, window: win}
	tab := &Tab{window: win}

	h.mu.Lock()
	h.tabs = append(h.tabs, tab)
	h.mu.Unlock()
	return tab
}

// NewTab opens a tab and loads url in it, firing a creation event
func (h *Host) NewTab(url string) (*Tab, *Document) {
	win := newWindow(nil)
	tab := &Tab{window: win}

	h.mu.Lock()
	h.tabs = append(h.tabs, tab)
	h.mu.Unlock()

	return tab, h.Navigate(tab, url)
}

// Navigate loads url in tab. The previous document unloads, detaching its
// workers, and a creation event fires for the new document.
func (h *Host) Navigate(tab *Tab, url string) *Document {
	return h.load(tab.window, url)
}

// OpenFrame loads url in a new frame nested in parent
func (h *Host) OpenFrame(parent *Window, url string) *Document {
	return h.load(newWindow(parent), url)
}

// CloseTab removes tab and unloads its document
func (h *Host) CloseTab(tab *Tab) {
	h.mu.Lock()
	for i, t := range h.tabs {
		if t == tab {
			h.tabs = append(h.tabs[:i], h.tabs[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	if doc := tab.window.current(); doc != nil {
		h.Workers.unload(doc)
	}
}

// LoadDetached fires a creation event for a document rendered in a window
// that belongs to no tab
func (h *Host) LoadDetached(url string) *Document {
	return h.load(newWindow(nil), url)
}

// LoadWindowless fires a creation event for a document without a window
func (h *Host) LoadWindowless(url string) *Document {
	doc := &Document{url: url}
	h.created.Emit(doc)
	return doc
}

func (h *Host) load(win *Window, url string) *Document {
	doc := &Document{url: url, window: win}

	win.mu.Lock()
	previous := win.doc
	win.doc = doc
	win.mu.Unlock()

	if previous != nil {
		h.Workers.unload(previous)
	}
	h.created.Emit(doc)
	return doc
}
