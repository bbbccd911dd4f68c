package testutil

import (
	"sync"

	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
)

// Document is an in-memory host.Document
type Document struct {
	mu     sync.Mutex
	url    string
	state  host.ReadyState
	window *Window
}

func (d *Document) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *Document) ReadyState() host.ReadyState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Document) Window() host.Window {
	if d.window == nil {
		return nil
	}
	return d.window
}

// SetReadyState moves the document to state and dispatches the matching
// readiness events to its window and every ancestor window, the way a
// capturing listener on a parent sees frame events.
func (d *Document) SetReadyState(state host.ReadyState) {
	d.mu.Lock()
	previous := d.state
	d.state = state
	d.mu.Unlock()

	if d.window == nil {
		return
	}
	if previous < host.Interactive && state >= host.Interactive {
		d.window.bubble(host.Event{Name: host.EventDOMContentLoaded, Target: d})
	}
	if previous < host.Complete && state >= host.Complete {
		d.window.bubble(host.Event{Name: host.EventLoad, Target: d})
	}
}

// Fire dispatches an arbitrary event for d, without changing its state
func (d *Document) Fire(name string) {
	if d.window != nil {
		d.window.bubble(host.Event{Name: name, Target: d})
	}
}

// Window is an in-memory host.Window
type Window struct {
	mu        sync.Mutex
	doc       *Document
	parent    *Window
	listeners map[string]*events.Topic[host.Event]
}

func newWindow(parent *Window) *Window {
	return &Window{
		parent:    parent,
		listeners: make(map[string]*events.Topic[host.Event]),
	}
}

func (w *Window) Document() host.Document {
	doc := w.current()
	if doc == nil {
		return nil
	}
	return doc
}

func (w *Window) current() *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

func (w *Window) IsTop() bool { return w.parent == nil }

func (w *Window) AddEventListener(name string, fn func(host.Event)) events.Subscription {
	w.mu.Lock()
	topic, ok := w.listeners[name]
	if !ok {
		topic = &events.Topic[host.Event]{}
		w.listeners[name] = topic
	}
	w.mu.Unlock()
	return topic.On(fn)
}

// ListenerCount returns the number of listeners registered for name
func (w *Window) ListenerCount(name string) int {
	w.mu.Lock()
	topic, ok := w.listeners[name]
	w.mu.Unlock()
	if !ok {
		return 0
	}
	return topic.Count()
}

func (w *Window) bubble(ev host.Event) {
	for win := w; win != nil; win = win.parent {
		win.mu.Lock()
		topic := win.listeners[ev.Name]
		win.mu.Unlock()
		if topic != nil {
			topic.Emit(ev)
		}
	}
}

func (w *Window) top() *Window {
	win := w
	for win.parent != nil {
		win = win.parent
	}
	return win
}

// Tab is an in-memory host.Tab
type Tab struct {
	window *Window
}

func (t *Tab) URL() string {
	if doc := t.window.current(); doc != nil {
		return doc.URL()
	}
	return ""
}

func (t *Tab) ContentWindow() host.Window { return t.window }

// Window returns the concrete top-level window of the tab
func (t *Tab) Window() *Window { return t.window }

// Document returns the document currently loaded in the tab
func (t *Tab) Document() *Document { return t.window.current() }
