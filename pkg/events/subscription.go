package events

import "sync"

// Subscription is a registered listener that can be removed again.
// Cancel is idempotent.
type Subscription interface {
	Cancel()
}

type funcSubscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps cancel so it runs at most once
func NewSubscription(cancel func()) Subscription {
	return &funcSubscription{cancel: cancel}
}

func (s *funcSubscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Nop is a subscription with nothing to cancel
var Nop Subscription = NewSubscription(nil)

// OnceWhere registers fn through subscribe and delivers only the first value
// accepted by match. The underlying subscription is cancelled right after
// that delivery, also when subscribe delivers synchronously.
func OnceWhere[T any](subscribe func(func(T)) Subscription, match func(T) bool, fn func(T)) Subscription {
	var (
		mu    sync.Mutex
		fired bool
		sub   Subscription
	)

	handler := func(v T) {
		if match != nil && !match(v) {
			return
		}
		mu.Lock()
		if fired {
			mu.Unlock()
			return
		}
		fired = true
		s := sub
		mu.Unlock()

		if s != nil {
			s.Cancel()
		}
		fn(v)
	}

	inner := subscribe(handler)
	if inner == nil {
		inner = Nop
	}

	mu.Lock()
	sub = inner
	alreadyFired := fired
	mu.Unlock()

	if alreadyFired {
		inner.Cancel()
	}
	return inner
}
