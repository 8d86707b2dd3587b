package scene

import (
	"sync"
)

// Pending is the single internal representation of an in-flight asset load.
// Host loaders vary between callback and future styles; both are wrapped into
// this type at the boundary. Completion is one-shot and sticky: Result is
// valid from the moment Done is closed, and callbacks registered after
// completion fire immediately.
type Pending struct {
	mu       sync.Mutex
	done     chan struct{}
	tmpl     Template
	err      error
	resolved bool
	waiters  []func(Template, error)
}

// NewPending creates an unresolved load.
func NewPending() *Pending {
	return &Pending{
		done: make(chan struct{}),
	}
}

// Resolved creates an already-completed load, useful for loaders with a
// synchronous fast path or cache hit.
func Resolved(tmpl Template, err error) *Pending {
	p := NewPending()
	p.Complete(tmpl, err)
	return p
}

// Complete resolves the load with a template or an error. Exactly one of the
// two should be set. Completing twice is a no-op so racy host callbacks
// cannot corrupt state.
func (p *Pending) Complete(tmpl Template, err error) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.tmpl = tmpl
	p.err = err
	waiters := p.waiters
	p.waiters = nil
	close(p.done)
	p.mu.Unlock()

	for _, fn := range waiters {
		fn(tmpl, err)
	}
}

// Done returns a channel closed on completion.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result returns the outcome. Only meaningful after Done is closed.
func (p *Pending) Result() (Template, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tmpl, p.err
}

// IsResolved reports whether the load has completed.
func (p *Pending) IsResolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// OnComplete registers a callback invoked with the outcome. If the load has
// already completed the callback runs synchronously.
func (p *Pending) OnComplete(fn func(Template, error)) {
	p.mu.Lock()
	if p.resolved {
		tmpl, err := p.tmpl, p.err
		p.mu.Unlock()
		fn(tmpl, err)
		return
	}
	p.waiters = append(p.waiters, fn)
	p.mu.Unlock()
}
