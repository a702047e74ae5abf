// Package handle owns native handles (window, device context, GL context,
// Objective-C objects) and guarantees that each one is released exactly once.
package handle

import (
	"sync"
	"sync/atomic"
)

type shared[T comparable] struct {
	mu      sync.Mutex
	h       T
	refs    int
	retain  func(T)
	release func(T)
}

// Owned is one owner's reference to a native handle.
//
// A zero handle is the absent state: Get reports false and the release
// function is never called with it. Release is idempotent per owner.
type Owned[T comparable] struct {
	s        *shared[T]
	released atomic.Bool
}

// New takes ownership of h. The native object is released when the last
// owner created through Clone calls Release.
func New[T comparable](h T, release func(T)) *Owned[T] {
	return newOwned(h, nil, release)
}

// NewRetained takes ownership of a handle to a natively reference-counted
// object. Clone calls retain and every Release calls release, so the native
// count tracks the number of live owners.
func NewRetained[T comparable](h T, retain, release func(T)) *Owned[T] {
	return newOwned(h, retain, release)
}

// Absent returns an owner that holds nothing.
func Absent[T comparable]() *Owned[T] {
	var zero T
	return newOwned(zero, nil, nil)
}

func newOwned[T comparable](h T, retain, release func(T)) *Owned[T] {
	var zero T
	s := &shared[T]{h: h, retain: retain, release: release}
	if h != zero {
		s.refs = 1
	}
	return &Owned[T]{s: s}
}

// Get returns the handle and whether it is present and not yet released by
// this owner.
func (o *Owned[T]) Get() (T, bool) {
	var zero T
	if o == nil || o.s == nil || o.released.Load() {
		return zero, false
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if o.s.h == zero {
		return zero, false
	}
	return o.s.h, true
}

// Valid reports whether Get would succeed.
func (o *Owned[T]) Valid() bool {
	_, ok := o.Get()
	return ok
}

// Clone returns a new owner of the same handle. Cloning an absent or
// released owner returns an absent owner.
func (o *Owned[T]) Clone() *Owned[T] {
	var zero T
	if o == nil || o.s == nil || o.released.Load() {
		return Absent[T]()
	}
	o.s.mu.Lock()
	if o.s.h == zero || o.s.refs == 0 {
		o.s.mu.Unlock()
		return Absent[T]()
	}
	o.s.refs++
	h, retain := o.s.h, o.s.retain
	o.s.mu.Unlock()

	if retain != nil {
		retain(h)
	}
	return &Owned[T]{s: o.s}
}

// Release gives up this owner's reference. It never fails and does nothing
// when called again.
func (o *Owned[T]) Release() {
	var zero T
	if o == nil || o.s == nil || !o.released.CompareAndSwap(false, true) {
		return
	}
	o.s.mu.Lock()
	if o.s.h == zero || o.s.refs == 0 {
		o.s.mu.Unlock()
		return
	}
	o.s.refs--
	h, release := o.s.h, o.s.release
	last := o.s.refs == 0
	if last {
		o.s.h = zero
	}
	o.s.mu.Unlock()

	if release == nil {
		return
	}
	// Natively counted objects drop one native reference per owner.
	if o.s.retain != nil || last {
		release(h)
	}
}

// Refs reports the number of live owners.
func (o *Owned[T]) Refs() int {
	if o == nil || o.s == nil {
		return 0
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	return o.s.refs
}
