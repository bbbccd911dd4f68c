package pagemod

import (
	"strings"

	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/host"
)

// Phase is the document readiness point at which a script runs
type Phase string

const (
	// PhaseStart runs the script as soon as the document is created
	PhaseStart Phase = "start"
	// PhaseReady waits for DOMContentLoaded
	PhaseReady Phase = "ready"
	// PhaseEnd waits for load
	PhaseEnd Phase = "end"
)

// DefaultPhase is used when no phase is configured
const DefaultPhase = PhaseEnd

// ParsePhase validates a phase name. The empty string selects DefaultPhase.
func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case "":
		return DefaultPhase, nil
	case PhaseStart, PhaseReady, PhaseEnd:
		return Phase(s), nil
	}
	return "", errors.Newf(errors.ErrConfigInvalid,
		"The `scriptPhase` option must be one of: start, ready, end (got %q)", s).
		WithDetail("option", "scriptPhase")
}

// SatisfiedBy reports whether a document in state has already passed p.
// A complete document satisfies every phase.
func (p Phase) SatisfiedBy(state host.ReadyState) bool {
	switch {
	case p == PhaseStart:
		return true
	case state == host.Complete:
		return true
	case p == PhaseReady:
		return state == host.Interactive
	}
	return false
}

// Event returns the readiness event that completes p
func (p Phase) Event() string {
	if p == PhaseReady {
		return host.EventDOMContentLoaded
	}
	return host.EventLoad
}

// Attachment is a category of document a definition applies to
type Attachment string

const (
	AttachExisting Attachment = "existing"
	AttachTop      Attachment = "top"
	AttachFrame    Attachment = "frame"
)

// DefaultAttachTo is used when no attachment policy is configured
var DefaultAttachTo = []Attachment{AttachTop, AttachFrame}

// Attachments is a validated attachment policy
type Attachments []Attachment

// Has reports whether a is part of the policy
func (as Attachments) Has(a Attachment) bool {
	for _, v := range as {
		if v == a {
			return true
		}
	}
	return false
}

// ParseAttachments validates an attachment policy. An empty list selects
// DefaultAttachTo.
func ParseAttachments(values []Attachment) (Attachments, error) {
	if len(values) == 0 {
		return append(Attachments(nil), DefaultAttachTo...), nil
	}

	var out Attachments
	for _, v := range values {
		switch v {
		case AttachExisting, AttachTop, AttachFrame:
		default:
			return nil, errors.Newf(errors.ErrConfigInvalid,
				"The `attachTo` option valid accept only following values: existing, top, frame (got %q)", v).
				WithDetail("option", "attachTo")
		}
		if !out.Has(v) {
			out = append(out, v)
		}
	}
	if !out.Has(AttachTop) && !out.Has(AttachFrame) {
		return nil, errors.New(errors.ErrConfigInvalid,
			"The `attachTo` option must always contain at least `top` or `frame` value").
			WithDetail("option", "attachTo")
	}
	return out, nil
}

// Options configures a Definition
type Options struct {
	// Rules select the documents the definition applies to
	Rules []string
	// Script is inline script text
	Script []string
	// ScriptFile lists local URLs of script files
	ScriptFile []string
	// Style is inline style text
	Style []string
	// StyleFile lists local URLs of style files, read at construction
	StyleFile []string
	// ScriptOptions is passed untouched to every worker
	ScriptOptions map[string]interface{}
	ScriptPhase   Phase
	AttachTo      []Attachment
	OnAttach      func(host.Worker)
	OnError       func(error)
}

var localSchemes = []string{"data:", "file:", "resource:"}

// validateLocalURLs checks that every entry of a file option names a local
// resource: a data:, file: or resource: URL, or a plain path.
func validateLocalURLs(option string, urls []string) error {
	for _, u := range urls {
		if isLocalURL(u) {
			continue
		}
		return errors.Newf(errors.ErrConfigInvalid,
			"The `%s` option must be a local URL or an array of URLs (got %q)", option, u).
			WithDetail("option", option)
	}
	return nil
}

func isLocalURL(u string) bool {
	if strings.TrimSpace(u) == "" {
		return false
	}
	lower := strings.ToLower(u)
	for _, scheme := range localSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return !strings.Contains(u, "://")
}
