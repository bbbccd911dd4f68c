package host

import "github.com/arthur-debert/pagemod/pkg/events"

// ReadyState is the loading phase of a document. Phases only move forward.
type ReadyState int

const (
	Loading ReadyState = iota
	Interactive
	Complete
)

func (s ReadyState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Interactive:
		return "interactive"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Readiness transition event names dispatched on a window
const (
	EventDOMContentLoaded = "DOMContentLoaded"
	EventLoad             = "load"
)

// Event is a readiness transition delivered to a window listener. Target is
// the document that transitioned, which may belong to a nested frame.
type Event struct {
	Name   string
	Target Document
}

// Document is a live document handle
type Document interface {
	URL() string
	ReadyState() ReadyState
	// Window returns the window rendering the document, or nil for
	// documents that are never rendered (XML data documents and the like).
	Window() Window
}

// Window hosts a document, either as the top-level document of its
// container or as a nested frame.
type Window interface {
	Document() Document
	IsTop() bool
	AddEventListener(name string, fn func(Event)) events.Subscription
}

// DocumentSource is the global "document created" notification stream
type DocumentSource interface {
	OnDocumentCreated(fn func(Document)) events.Subscription
}
