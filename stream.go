package glwindow

import (
	"iter"
	"sync"
)

type fetchKind int

const (
	// fetchEmpty means no native event was available. Only non-blocking
	// fetches return it.
	fetchEmpty fetchKind = iota
	// fetchDropped means a native event was consumed but translated to
	// nothing.
	fetchDropped
	fetchEvents
	fetchWake
	// fetchGone means the native source no longer exists.
	fetchGone
)

type fetched struct {
	kind   fetchKind
	events []Event
}

// nativeSource reads and translates native events for one window. Only the
// window's pump thread calls fetch.
type nativeSource interface {
	fetch(block bool) fetched
}

// eventStream turns a nativeSource into poll and wait sequences. Events
// beyond the first produced by one native event wait in pending and are
// delivered before the source is read again.
type eventStream struct {
	src     nativeSource
	observe func(Event)

	mu      sync.Mutex
	pending []Event
}

func newEventStream(src nativeSource, observe func(Event)) *eventStream {
	return &eventStream{src: src, observe: observe}
}

func (s *eventStream) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, false
	}
	ev := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return ev, true
}

// deliver queues all but the first event and returns the first.
func (s *eventStream) deliver(events []Event) Event {
	if len(events) > 1 {
		s.mu.Lock()
		s.pending = append(s.pending, events[1:]...)
		s.mu.Unlock()
	}
	return events[0]
}

// next returns the next event. With block unset it returns false once the
// native source is empty; with block set it returns false only when the
// source is gone.
func (s *eventStream) next(block bool) (Event, bool) {
	if ev, ok := s.pop(); ok {
		return ev, true
	}
	for {
		f := s.src.fetch(block)
		switch f.kind {
		case fetchEvents:
			if len(f.events) == 0 {
				continue
			}
			return s.deliver(f.events), true
		case fetchWake:
			return s.afterWake(), true
		case fetchDropped:
			continue
		case fetchGone:
			return nil, false
		default:
			if !block {
				return nil, false
			}
		}
	}
}

// afterWake coalesces a wakeup with whatever arrived alongside it. A real
// event wins; Awakened is produced only when nothing else is pending.
func (s *eventStream) afterWake() Event {
	for {
		f := s.src.fetch(false)
		switch f.kind {
		case fetchEvents:
			if len(f.events) > 0 {
				return s.deliver(f.events)
			}
		case fetchWake, fetchDropped:
			continue
		}
		return Awakened{}
	}
}

func (s *eventStream) sequence(block bool) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := s.next(block)
			if !ok {
				return
			}
			if s.observe != nil {
				s.observe(ev)
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// poll drains queued events and then reads the native source without
// blocking until it is empty.
func (s *eventStream) poll() iter.Seq[Event] { return s.sequence(false) }

// wait drains queued events and then blocks for more. It ends only when the
// native source is gone.
func (s *eventStream) wait() iter.Seq[Event] { return s.sequence(true) }
