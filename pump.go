package glwindow

import (
	"fmt"
	"runtime"
)

// runOnPumpThread runs build on a new goroutine locked to its own OS thread
// and blocks until build has produced exactly one value or error. On success
// the same thread then runs loop, which owns the native message pump for the
// rest of the window's life. The thread is never unlocked, so it exits with
// the goroutine once loop returns.
func runOnPumpThread[T any](build func() (T, error), loop func(T)) (T, error) {
	type result struct {
		v   T
		err error
	}
	handoff := make(chan result, 1)

	go func() {
		runtime.LockOSThread()

		v, err := func() (v T, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: panic on pump thread: %v", ErrOsError, r)
				}
			}()
			return build()
		}()

		handoff <- result{v: v, err: err}
		if err != nil {
			return
		}
		loop(v)
	}()

	r := <-handoff
	return r.v, r.err
}
