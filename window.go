package glwindow

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"
)

// Window is a native window with an attached rendering context. Its methods
// are safe to call from any goroutine; OpenGL calls still follow the usual
// rule that a context is current on one thread at a time. On macOS AppKit
// only accepts calls from the main thread, so there every method except
// CreateWindowProxy must be called from the goroutine that created the
// window while it stays locked to the main OS thread.
type Window struct {
	platform *Platform
	native   nativeWindow
	ctx      *glContext
	state    *windowState
	events   *eventStream
	log      *slog.Logger

	// mu guards closed. Readers hold it across native calls so Close waits
	// for them before tearing the window down.
	mu     sync.RWMutex
	closed bool

	resizeMu sync.Mutex
	onResize func(width, height int)
}

// NewWindow creates a window on the default platform.
func NewWindow(attrs WindowAttributes, reqs PixelFormatRequirements, gl GLAttributes, extras PlatformExtras) (*Window, error) {
	return DefaultPlatform().NewWindow(attrs, reqs, gl, extras)
}

// NewWindow validates the request, opens the backend if needed, builds the
// native window and negotiates its context. Nothing native is allocated when
// validation or the sharing check fails.
func (p *Platform) NewWindow(attrs WindowAttributes, reqs PixelFormatRequirements, gl GLAttributes, extras PlatformExtras) (*Window, error) {
	log := extras.logger()

	if err := validateAttributes(attrs, reqs, gl); err != nil {
		return nil, creationErr(StageValidate, err)
	}
	ic, err := loadIcon(attrs.IconPath)
	if err != nil {
		return nil, creationErr(StageValidate, err)
	}

	b := p.backend()
	variant, err := b.variantFor(gl.Request)
	if err != nil {
		return nil, creationErr(StageBackend, err)
	}

	share, unshare, err := p.shareTarget(gl.ShareWith, variant)
	if err != nil {
		return nil, creationErr(StageContext, err)
	}
	defer unshare()

	cfg := &windowConfig{
		attrs:   attrs,
		pf:      reqs,
		gl:      gl,
		variant: variant,
		share:   share,
		extras:  extras,
		icon:    ic,
		log:     log,
	}
	native, err := b.newWindow(cfg)
	if err != nil {
		return nil, creationErr(StageWindow, err)
	}

	w := &Window{
		platform: p,
		native:   native,
		ctx:      newGLContext(variant, gl.Request.API, native.pixelFormat(), native.context()),
		state:    newWindowState(attrs),
		log:      log,
	}
	w.events = newEventStream(native, w.observe)

	log.Debug("window created",
		"backend", b.kind(),
		"context", variant,
		"format", native.pixelFormat())
	return w, nil
}

// shareTarget resolves the context to share objects with. Sharing is only
// possible between windows of the same platform and context variant. The
// shared context cannot be destroyed until done is called.
func (p *Platform) shareTarget(other *Window, variant ContextVariant) (n nativeContext, done func(), err error) {
	done = func() {}
	if other == nil {
		return nil, done, nil
	}
	if other.platform != p {
		return nil, done, fmt.Errorf("%w: windows belong to different platforms", ErrSharingUnsupported)
	}
	if other.ctx.variant != variant {
		return nil, done, fmt.Errorf("%w: %s with %s", ErrSharingUnsupported, variant, other.ctx.variant)
	}
	n, release, err := other.ctx.acquire("share")
	if err != nil {
		return nil, done, err
	}
	return n, release, nil
}

func (w *Window) observe(ev Event) {
	r, ok := ev.(Resized)
	if !ok {
		return
	}
	w.resizeMu.Lock()
	fn := w.onResize
	w.resizeMu.Unlock()
	if fn != nil {
		fn(r.Width, r.Height)
	}
}

// SetResizeCallback registers fn to run, on the goroutine reading events,
// for every Resized event before it is yielded. A nil fn removes it.
func (w *Window) SetResizeCallback(fn func(width, height int)) {
	w.resizeMu.Lock()
	defer w.resizeMu.Unlock()
	w.onResize = fn
}

// with runs fn under the read lock, or returns ErrWindowClosed.
func (w *Window) with(fn func() error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWindowClosed
	}
	return fn()
}

// PollEvents yields queued and immediately available events without
// blocking. The sequence ends once nothing is pending.
func (w *Window) PollEvents() iter.Seq[Event] {
	return w.events.poll()
}

// WaitEvents yields events, blocking while none are available. It ends only
// when the window is closed. A wakeup from a WindowProxy yields Awakened
// unless a real event is available at the same time.
func (w *Window) WaitEvents() iter.Seq[Event] {
	return w.events.wait()
}

// CreateWindowProxy returns a handle that can wake this window's event loop
// from any goroutine.
func (w *Window) CreateWindowProxy() WindowProxy {
	return newWindowProxy(w)
}

func (w *Window) SetTitle(title string) error {
	return w.with(func() error {
		if err := w.native.setTitle(title); err != nil {
			return err
		}
		w.state.setTitle(title)
		return nil
	})
}

func (w *Window) Show() error {
	return w.with(func() error {
		if err := w.native.show(); err != nil {
			return err
		}
		w.state.setVisible(true)
		return nil
	})
}

func (w *Window) Hide() error {
	return w.with(func() error {
		if err := w.native.hide(); err != nil {
			return err
		}
		w.state.setVisible(false)
		return nil
	})
}

// Position returns the top-left corner of the window frame in screen
// coordinates.
func (w *Window) Position() (x, y int, err error) {
	err = w.with(func() (err error) {
		x, y, err = w.native.position()
		return err
	})
	return x, y, err
}

func (w *Window) SetPosition(x, y int) error {
	return w.with(func() error { return w.native.setPosition(x, y) })
}

// InnerSize returns the size of the drawable area in pixels.
func (w *Window) InnerSize() (width, height int, err error) {
	err = w.with(func() (err error) {
		width, height, err = w.native.innerSize()
		return err
	})
	return width, height, err
}

// OuterSize returns the size of the window including its decorations.
func (w *Window) OuterSize() (width, height int, err error) {
	err = w.with(func() (err error) {
		width, height, err = w.native.outerSize()
		return err
	})
	return width, height, err
}

// SetInnerSize resizes the drawable area.
func (w *Window) SetInnerSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("set inner size %dx%d: %w", width, height, ErrNotSupported)
	}
	return w.with(func() error { return w.native.setInnerSize(width, height) })
}

// SetCursor changes the cursor shape. Setting the current shape again does
// nothing.
func (w *Window) SetCursor(c MouseCursor) error {
	if c < 0 || c >= cursorCount {
		return fmt.Errorf("set cursor %d: %w", int(c), ErrNotSupported)
	}
	return w.with(func() error {
		prev, changed := w.state.setCursor(c)
		if !changed {
			return nil
		}
		if err := w.native.setCursor(c); err != nil {
			w.state.restoreCursor(c, prev)
			return fmt.Errorf("set cursor %s: %w", c, err)
		}
		return nil
	})
}

// Cursor returns the last cursor shape set.
func (w *Window) Cursor() MouseCursor {
	c, _ := w.state.snapshot()
	return c
}

// SetCursorState hides or grabs the cursor. Only the native steps needed to
// move from the current mode are performed, so repeating a mode is free.
func (w *Window) SetCursorState(st CursorState) error {
	if st < CursorNormal || st > CursorGrab {
		return fmt.Errorf("set cursor state %d: %w", int(st), ErrNotSupported)
	}
	return w.with(func() error {
		prev := w.state.setCursorState(st)
		actions := cursorTransition(prev, st)
		if len(actions) == 0 {
			return nil
		}
		if err := w.native.applyCursorActions(actions); err != nil {
			w.state.restoreCursorState(st, prev)
			return fmt.Errorf("set cursor state %s: %w", st, err)
		}
		return nil
	})
}

// CursorState returns the current cursor capture mode.
func (w *Window) CursorState() CursorState {
	_, st := w.state.snapshot()
	return st
}

// SetCursorPosition moves the cursor to a point relative to the window's
// drawable area.
func (w *Window) SetCursorPosition(x, y int) error {
	return w.with(func() error {
		if err := w.native.setCursorPosition(x, y); err != nil {
			return fmt.Errorf("set cursor position: %w", err)
		}
		return nil
	})
}

// HiDPIFactor is the ratio of pixels to logical points. It is 1 on a
// closed window.
func (w *Window) HiDPIFactor() float64 {
	f := 1.0
	_ = w.with(func() error {
		if v := w.native.hidpiFactor(); v > 0 {
			f = v
		}
		return nil
	})
	return f
}

// Attributes returns the creation attributes as updated by SetTitle, Show
// and Hide.
func (w *Window) Attributes() WindowAttributes {
	return w.state.attributes()
}

// MakeCurrent makes the window's context current on the calling thread. The
// caller should keep the goroutine locked to its OS thread while the
// context is in use.
func (w *Window) MakeCurrent() error {
	return w.ctx.makeCurrent()
}

// IsCurrent reports whether the window's context is current on the calling
// thread.
func (w *Window) IsCurrent() bool {
	return w.ctx.isCurrent()
}

// SwapBuffers presents the back buffer. The context must be current on the
// calling thread.
func (w *Window) SwapBuffers() error {
	return w.ctx.swapBuffers()
}

// GetProcAddress returns the address of a GL entry point, or 0 when it is
// unavailable.
func (w *Window) GetProcAddress(name string) uintptr {
	return w.ctx.procAddress(name)
}

// API returns the API family of the window's context.
func (w *Window) API() API { return w.ctx.api }

// ContextVariant returns the native context family.
func (w *Window) ContextVariant() ContextVariant { return w.ctx.variant }

// PixelFormat returns the format the driver granted.
func (w *Window) PixelFormat() PixelFormat { return w.ctx.format }

// ContextState returns the lifecycle state of the window's context as seen
// from the calling thread.
func (w *Window) ContextState() ContextState { return w.ctx.state() }

// NativeDisplay returns the backend's display handle: an Xlib Display*, an
// HINSTANCE, or an NSApplication. It is 0 after Close.
func (w *Window) NativeDisplay() uintptr {
	d, _ := w.nativeHandles()
	return d
}

// NativeWindow returns the backend's window handle: an X Window, an HWND, or
// an NSWindow. It is 0 after Close.
func (w *Window) NativeWindow() uintptr {
	_, win := w.nativeHandles()
	return win
}

func (w *Window) nativeHandles() (display, window uintptr) {
	_ = w.with(func() error {
		display, window = w.native.nativeHandles()
		return nil
	})
	return display, window
}

// Close destroys the context, surface and window in that order. It is safe
// to call more than once. A goroutine blocked in WaitEvents sees the
// sequence end. Context calls in flight finish before the context is
// released. On macOS Close must run on the main thread, like every other
// Window method.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.ctx.destroy()
	w.native.destroy()
	w.log.Debug("window closed")
}
