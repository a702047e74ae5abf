package glwindow

import "weak"

// WindowProxy wakes a window's event loop from any goroutine. It does not
// keep the window alive, and it may be copied freely.
type WindowProxy struct {
	target weak.Pointer[Window]
}

func newWindowProxy(w *Window) WindowProxy {
	return WindowProxy{target: weak.Make(w)}
}

// WakeupEventLoop makes a goroutine blocked in WaitEvents yield Awakened, or
// the next real event if one arrives first. It returns ErrWindowClosed once
// the window has been closed or collected.
func (p WindowProxy) WakeupEventLoop() error {
	w := p.target.Value()
	if w == nil {
		return ErrWindowClosed
	}
	return w.with(w.native.wakeup)
}
