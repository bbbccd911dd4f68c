package host

import "github.com/arthur-debert/pagemod/pkg/events"

// Tab is a top-level browsing container
type Tab interface {
	URL() string
	ContentWindow() Window
}

// Tabs enumerates browsing containers across every open host window
type Tabs interface {
	// Tabs returns every currently open tab
	Tabs() []Tab
	// TabForWindow returns the tab rendering window, if any
	TabForWindow(w Window) (Tab, bool)
}

// WorkerOptions is everything the worker factory needs to start a worker
type WorkerOptions struct {
	Window        Window
	Script        []string
	ScriptFile    []string
	ScriptOptions map[string]interface{}
	// OnError receives uncaught errors raised by the injected script
	OnError func(error)
}

// Worker is an isolated execution context running injected script against
// one document.
type Worker interface {
	ID() string
	// OnDetach fires exactly once, when the document unloads or the worker
	// is destroyed.
	OnDetach(fn func()) events.Subscription
	// Destroy is idempotent
	Destroy()
}

// WorkerFactory starts workers. The returned worker is already running.
type WorkerFactory interface {
	NewWorker(opts WorkerOptions) (Worker, error)
}

// StyleSheetService manages user-level style sheets keyed by identifier
type StyleSheetService interface {
	Register(id, content string) error
	Unregister(id string)
	IsRegistered(id string) bool
}

// URLReader reads a resource synchronously
type URLReader interface {
	Read(url string) (string, error)
}

// Host bundles the collaborators required by the engine
type Host struct {
	Documents   DocumentSource
	Tabs        Tabs
	Workers     WorkerFactory
	StyleSheets StyleSheetService
	// Reader is optional; when nil the engine uses its own URL reader
	Reader URLReader
}
