package testutil

import (
	"sync"

	"github.com/arthur-debert/pagemod/pkg/events"
	"github.com/arthur-debert/pagemod/pkg/host"
	"github.com/google/uuid"
)

// Worker is a recorded in-memory host.Worker
type Worker struct {
	mu        sync.Mutex
	id        string
	opts      host.WorkerOptions
	doc       *Document
	detach    events.Topic[struct{}]
	detached  bool
	destroyed bool
}

func (w *Worker) ID() string { return w.id }

func (w *Worker) OnDetach(fn func()) events.Subscription {
	return w.detach.On(func(struct{}) { fn() })
}

func (w *Worker) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.mu.Unlock()
	w.fireDetach()
}

func (w *Worker) fireDetach() {
	w.mu.Lock()
	if w.detached {
		w.mu.Unlock()
		return
	}
	w.detached = true
	w.mu.Unlock()
	w.detach.Emit(struct{}{})
}

// Options returns the options the worker was created with
func (w *Worker) Options() host.WorkerOptions { return w.opts }

// Document returns the document the worker runs against
func (w *Worker) Document() *Document { return w.doc }

// Destroyed reports whether Destroy was called
func (w *Worker) Destroyed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.destroyed
}

// Detached reports whether the detach notification fired
func (w *Worker) Detached() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.detached
}

// Fail simulates an uncaught error raised by the injected script
func (w *Worker) Fail(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

// WorkerFactory records every worker it creates
type WorkerFactory struct {
	mu      sync.Mutex
	workers []*Worker
	// Err, when set, makes NewWorker fail
	Err error
}

// NewWorkerFactory creates an empty factory
func NewWorkerFactory() *WorkerFactory {
	return &WorkerFactory{}
}

func (f *WorkerFactory) NewWorker(opts host.WorkerOptions) (host.Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	w := &Worker{id: uuid.New().String(), opts: opts}
	if win, ok := opts.Window.(*Window); ok && win != nil {
		w.doc = win.current()
	}
	f.workers = append(f.workers, w)
	return w, nil
}

// Created returns every worker created so far
func (f *WorkerFactory) Created() []*Worker {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Worker, len(f.workers))
	copy(out, f.workers)
	return out
}

// For returns the workers created for doc
func (f *WorkerFactory) For(doc *Document) []*Worker {
	var out []*Worker
	for _, w := range f.Created() {
		if w.doc == doc {
			out = append(out, w)
		}
	}
	return out
}

// Live returns the workers that have not detached
func (f *WorkerFactory) Live() []*Worker {
	var out []*Worker
	for _, w := range f.Created() {
		if !w.Detached() {
			out = append(out, w)
		}
	}
	return out
}

func (f *WorkerFactory) unload(doc *Document) {
	for _, w := range f.For(doc) {
		w.fireDetach()
	}
}
