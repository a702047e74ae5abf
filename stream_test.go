package glwindow

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptSource replays fixed fetch results, then reports empty or gone.
type scriptSource struct {
	script []fetched
	blocks []bool
}

func (s *scriptSource) fetch(block bool) fetched {
	s.blocks = append(s.blocks, block)
	if len(s.script) == 0 {
		if block {
			return fetched{kind: fetchGone}
		}
		return fetched{kind: fetchEmpty}
	}
	f := s.script[0]
	s.script = s.script[1:]
	return f
}

func collect(seq func(func(Event) bool)) []Event {
	var out []Event
	for ev := range seq {
		out = append(out, ev)
	}
	return out
}

func TestStreamPollStopsWhenEmpty(t *testing.T) {
	src := &scriptSource{script: []fetched{
		{kind: fetchEvents, events: []Event{Focused{Focused: true}}},
		{kind: fetchEvents},
		{kind: fetchDropped},
		{kind: fetchEmpty},
		{kind: fetchEvents, events: []Event{Closed{}}},
	}}
	s := newEventStream(src, nil)

	assert.Equal(t, []Event{Focused{Focused: true}}, collect(s.poll()))
	assert.NotContains(t, src.blocks, true)
	assert.Equal(t, []Event{Closed{}}, collect(s.poll()))
}

func TestStreamWaitSkipsEmptyAndEndsWhenGone(t *testing.T) {
	src := &scriptSource{script: []fetched{
		{kind: fetchEmpty},
		{kind: fetchEvents, events: []Event{Moved{X: 1}, Resized{Width: 2, Height: 3}}},
	}}
	var observed []Event
	s := newEventStream(src, func(ev Event) { observed = append(observed, ev) })

	events := collect(s.wait())
	assert.Equal(t, []Event{Moved{X: 1}, Resized{Width: 2, Height: 3}}, events)
	assert.Equal(t, events, observed)
}

func TestStreamWakeCoalescing(t *testing.T) {
	tests := []struct {
		name   string
		script []fetched
		want   Event
	}{
		{
			name:   "alone",
			script: []fetched{{kind: fetchWake}},
			want:   Awakened{},
		},
		{
			name: "real event wins",
			script: []fetched{
				{kind: fetchWake},
				{kind: fetchDropped},
				{kind: fetchWake},
				{kind: fetchEvents, events: []Event{Closed{}}},
			},
			want: Closed{},
		},
		{
			name:   "source gone after wake",
			script: []fetched{{kind: fetchWake}, {kind: fetchGone}},
			want:   Awakened{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newEventStream(&scriptSource{script: tt.script}, nil)
			ev, ok := s.next(true)
			require.True(t, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestSyncQueue(t *testing.T) {
	q := newSyncQueue[int]()
	_, ok := q.tryPop()
	assert.False(t, ok)

	assert.True(t, q.push(1))
	assert.True(t, q.push(2))
	v, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	q.close()
	assert.True(t, q.isClosed())
	assert.False(t, q.push(3))
	v, ok = q.pop()
	require.True(t, ok, "items queued before close stay readable")
	assert.Equal(t, 2, v)
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestSyncQueueCloseWakesWaiters(t *testing.T) {
	q := newSyncQueue[int]()
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.pop()
			assert.False(t, ok)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("blocked pops were not released")
	}
}

func TestRunOnPumpThread(t *testing.T) {
	looped := make(chan int, 1)
	v, err := runOnPumpThread(func() (int, error) { return 42, nil }, func(v int) { looped <- v })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, <-looped)
}

func TestRunOnPumpThreadBuildFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := runOnPumpThread(func() (int, error) { return 0, boom }, func(int) { t.Error("loop must not run") })
	assert.ErrorIs(t, err, boom)

	_, err = runOnPumpThread(func() (int, error) { panic("bad state") }, func(int) { t.Error("loop must not run") })
	assert.ErrorIs(t, err, ErrOsError)
	assert.Contains(t, err.Error(), "bad state")
}
