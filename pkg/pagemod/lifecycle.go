package pagemod

import (
	"github.com/arthur-debert/pagemod/pkg/errors"
	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/arthur-debert/pagemod/pkg/rules"
)

// handleDocument runs for every routed document. The worker is created right
// away when the document already satisfies the phase; otherwise a one-shot
// listener waits for the readiness event targeting this document.
func (d *Definition) handleDocument(doc host.Document) {
	if !d.Registered() {
		return
	}
	win := doc.Window()
	if win == nil {
		return
	}

	if win.IsTop() {
		if !d.attachTo.Has(AttachTop) {
			return
		}
	} else if !d.attachTo.Has(AttachFrame) {
		return
	}

	if d.phase.SatisfiedBy(doc.ReadyState()) {
		d.createWorker(win)
		return
	}

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.waitSeq++
	key := d.waitSeq
	d.pending[key] = events.Nop
	d.mu.Unlock()

	d.logger.Trace().Str("url", doc.URL()).Str("event", d.phase.Event()).Msg("Waiting for document")
	sub := events.OnceWhere(
		func(fn func(host.Event)) events.Subscription {
			return win.AddEventListener(d.phase.Event(), fn)
		},
		func(ev host.Event) bool { return ev.Target == doc },
		func(host.Event) {
			d.mu.Lock()
			delete(d.pending, key)
			d.mu.Unlock()
			d.createWorker(win)
		},
	)

	// The placeholder is gone when the listener already fired, or when
	// Dispose or Close took the pending set in the meantime.
	d.mu.Lock()
	_, waiting := d.pending[key]
	if waiting {
		d.pending[key] = sub
	}
	d.mu.Unlock()
	if !waiting {
		sub.Cancel()
	}
}

// applyOnExisting treats every open tab matching one of the rules as if its
// document had just been created.
func (d *Definition) applyOnExisting() {
	candidates := d.rules.List()
	for _, tab := range d.manager.host.Tabs.Tabs() {
		if !rules.AnyMatch(candidates, d.manager.lookup, tab.URL()) {
			continue
		}
		win := tab.ContentWindow()
		if win == nil {
			continue
		}
		if doc := win.Document(); doc != nil {
			d.handleDocument(doc)
		}
	}
}

func (d *Definition) createWorker(win host.Window) {
	// A listener registered before Dispose can still fire.
	if !d.Registered() {
		return
	}

	worker, err := d.manager.host.Workers.NewWorker(host.WorkerOptions{
		Window:        win,
		Script:        d.script,
		ScriptFile:    d.scriptFile,
		ScriptOptions: d.scriptOptions,
		OnError:       d.onWorkerError,
	})
	if err != nil {
		d.report(errors.Wrap(err, errors.ErrWorkerRuntime, "failed to create worker").
			WithDetail("definition", d.id))
		return
	}

	id := worker.ID()
	d.mu.Lock()
	d.workers[id] = worker
	d.mu.Unlock()

	worker.OnDetach(func() {
		d.mu.Lock()
		delete(d.workers, id)
		d.mu.Unlock()
		worker.Destroy()
	})

	d.logger.Debug().Str("worker", id).Msg("Worker attached")
	d.attached.Emit(worker)
}

func (d *Definition) onWorkerError(err error) {
	if err == nil {
		return
	}
	d.report(errors.Wrap(err, errors.ErrWorkerRuntime, "uncaught error in content script").
		WithDetail("definition", d.id))
}
