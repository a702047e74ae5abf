package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnedReleasesOnce(t *testing.T) {
	var released []uintptr
	o := New(uintptr(0x10), func(h uintptr) { released = append(released, h) })

	h, ok := o.Get()
	require.True(t, ok)
	assert.Equal(t, uintptr(0x10), h)

	o.Release()
	o.Release()
	assert.Equal(t, []uintptr{0x10}, released)
	assert.False(t, o.Valid())
}

func TestOwnedAbsentNeverReleased(t *testing.T) {
	calls := 0
	o := New(uintptr(0), func(uintptr) { calls++ })
	assert.False(t, o.Valid())
	o.Release()
	assert.Zero(t, calls)

	c := o.Clone()
	assert.False(t, c.Valid())
	c.Release()
	assert.Zero(t, calls)

	var nilOwner *Owned[uintptr]
	assert.False(t, nilOwner.Valid())
	nilOwner.Release()
}

func TestOwnedSharedCountReleasesOnLastOwner(t *testing.T) {
	calls := 0
	o := New(uintptr(7), func(uintptr) { calls++ })
	c1 := o.Clone()
	c2 := c1.Clone()
	assert.Equal(t, 3, o.Refs())

	o.Release()
	c1.Release()
	assert.Zero(t, calls)
	assert.True(t, c2.Valid())

	c2.Release()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, c2.Refs())
}

func TestOwnedRetainedTracksNativeCount(t *testing.T) {
	native := 1
	o := NewRetained(uintptr(42),
		func(uintptr) { native++ },
		func(uintptr) { native-- },
	)
	c := o.Clone()
	assert.Equal(t, 2, native)

	c.Release()
	assert.Equal(t, 1, native)
	assert.True(t, o.Valid())

	o.Release()
	assert.Equal(t, 0, native)

	// A released owner cannot resurrect the handle.
	assert.False(t, o.Clone().Valid())
}

func TestOwnedConcurrentRelease(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	o := New(uintptr(1), func(uintptr) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	owners := []*Owned[uintptr]{o}
	for range 15 {
		owners = append(owners, o.Clone())
	}

	var wg sync.WaitGroup
	for _, ow := range owners {
		wg.Add(2)
		go func() { defer wg.Done(); ow.Release() }()
		go func() { defer wg.Done(); ow.Release() }()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}
