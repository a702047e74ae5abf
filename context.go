package glwindow

import (
	"fmt"
	"sync"
)

// ContextVariant is the native context family backing a window.
type ContextVariant int

const (
	VariantGLX ContextVariant = iota
	VariantEGL
	VariantWGL
	VariantNSGL
)

func (v ContextVariant) String() string {
	switch v {
	case VariantGLX:
		return "GLX"
	case VariantEGL:
		return "EGL"
	case VariantWGL:
		return "WGL"
	case VariantNSGL:
		return "NSGL"
	default:
		return fmt.Sprintf("ContextVariant(%d)", int(v))
	}
}

// ContextState is the lifecycle state of a rendering context.
type ContextState int

const (
	ContextUncreated ContextState = iota
	ContextCreated
	ContextCurrent
	ContextDestroyed
)

func (s ContextState) String() string {
	switch s {
	case ContextUncreated:
		return "uncreated"
	case ContextCreated:
		return "created"
	case ContextCurrent:
		return "current"
	case ContextDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("ContextState(%d)", int(s))
	}
}

// nativeContext is one backend's rendering context bound to its surface.
type nativeContext interface {
	makeCurrent() error
	// isCurrent reports whether this context occupies the calling thread's
	// current context slot.
	isCurrent() bool
	swapBuffers() error
	procAddress(name string) uintptr
	release()
}

// glContext tracks the lifecycle of a nativeContext. Current is never cached:
// it is read from the native slot, since another context becoming current on
// the same thread leaves this one Created.
type glContext struct {
	variant ContextVariant
	api     API
	format  PixelFormat

	// mu is held for reading across every native call, so destroy waits
	// for them before releasing the context.
	mu        sync.RWMutex
	native    nativeContext
	destroyed bool
}

func newGLContext(variant ContextVariant, api API, format PixelFormat, native nativeContext) *glContext {
	return &glContext{variant: variant, api: api, format: format, native: native}
}

// acquire returns the native context with the read lock held. The caller
// must call done once it no longer uses the context.
func (c *glContext) acquire(op string) (n nativeContext, done func(), err error) {
	if c == nil {
		return nil, nil, &ContextError{Op: op, Err: ErrContextDestroyed}
	}
	c.mu.RLock()
	if c.destroyed || c.native == nil {
		c.mu.RUnlock()
		return nil, nil, &ContextError{Op: op, Err: ErrContextDestroyed}
	}
	return c.native, c.mu.RUnlock, nil
}

// use runs fn with the native context kept alive.
func (c *glContext) use(op string, fn func(nativeContext) error) error {
	n, done, err := c.acquire(op)
	if err != nil {
		return err
	}
	defer done()
	return fn(n)
}

func (c *glContext) makeCurrent() error {
	return c.use("make current", func(n nativeContext) error {
		if err := n.makeCurrent(); err != nil {
			return &ContextError{Op: "make current", Err: err}
		}
		return nil
	})
}

func (c *glContext) isCurrent() bool {
	current := false
	_ = c.use("is current", func(n nativeContext) error {
		current = n.isCurrent()
		return nil
	})
	return current
}

func (c *glContext) swapBuffers() error {
	return c.use("swap buffers", func(n nativeContext) error {
		if !n.isCurrent() {
			return &ContextError{Op: "swap buffers", Err: ErrContextNotCurrent}
		}
		if err := n.swapBuffers(); err != nil {
			return &ContextError{Op: "swap buffers", Err: err}
		}
		return nil
	})
}

func (c *glContext) procAddress(name string) uintptr {
	var addr uintptr
	_ = c.use("get proc address", func(n nativeContext) error {
		addr = n.procAddress(name)
		return nil
	})
	return addr
}

func (c *glContext) state() ContextState {
	if c == nil {
		return ContextUncreated
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.destroyed:
		return ContextDestroyed
	case c.native == nil:
		return ContextUncreated
	case c.native.isCurrent():
		return ContextCurrent
	default:
		return ContextCreated
	}
}

// destroy releases the native context once, after in-flight calls finish.
func (c *glContext) destroy() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.native != nil {
		c.native.release()
		c.native = nil
	}
}
