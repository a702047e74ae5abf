package glwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// BackendKind names the native windowing system behind a Platform.
type BackendKind int

const (
	BackendX11 BackendKind = iota
	BackendWin32
	BackendCocoa
	// BackendError means no native backend could be opened. Every creation
	// call on it fails.
	BackendError
)

func (k BackendKind) String() string {
	switch k {
	case BackendX11:
		return "x11"
	case BackendWin32:
		return "win32"
	case BackendCocoa:
		return "cocoa"
	case BackendError:
		return "error"
	default:
		return fmt.Sprintf("BackendKind(%d)", int(k))
	}
}

// backend is one native windowing system. Implementations live in the build
// tagged files of each OS.
type backend interface {
	kind() BackendKind
	// variantFor picks the context family for a request. It must not
	// allocate native resources.
	variantFor(req GLRequest) (ContextVariant, error)
	newWindow(cfg *windowConfig) (nativeWindow, error)
	monitors() ([]MonitorID, error)
}

// nativeWindow is one backend window together with its surface and
// context. Every method other than fetch may be called from any goroutine.
type nativeWindow interface {
	nativeSource

	context() nativeContext
	pixelFormat() PixelFormat

	setTitle(title string) error
	show() error
	hide() error
	position() (x, y int, err error)
	setPosition(x, y int) error
	innerSize() (width, height int, err error)
	outerSize() (width, height int, err error)
	setInnerSize(width, height int) error

	setCursor(c MouseCursor) error
	applyCursorActions(actions []cursorAction) error
	setCursorPosition(x, y int) error

	hidpiFactor() float64

	// wakeup makes a blocked fetch return fetchWake. It is safe from any
	// goroutine.
	wakeup() error

	// destroy releases the surface and window and makes later fetches
	// return fetchGone. The context has already been released.
	destroy()

	nativeHandles() (display, window uintptr)
}

// windowConfig is everything a backend needs to build one window.
type windowConfig struct {
	attrs   WindowAttributes
	pf      PixelFormatRequirements
	gl      GLAttributes
	variant ContextVariant
	share   nativeContext
	extras  PlatformExtras
	icon    *icon
	log     *slog.Logger
}

// errorBackend stands in when no native backend could be opened.
type errorBackend struct {
	cause error
}

func (b *errorBackend) err() error {
	if b.cause == nil {
		return ErrNoBackendAvailable
	}
	return fmt.Errorf("%w: %w", ErrNoBackendAvailable, b.cause)
}

func (b *errorBackend) kind() BackendKind { return BackendError }

func (b *errorBackend) variantFor(GLRequest) (ContextVariant, error) {
	return 0, creationErr(StageBackend, b.err())
}

func (b *errorBackend) newWindow(*windowConfig) (nativeWindow, error) {
	return nil, creationErr(StageBackend, b.err())
}

func (b *errorBackend) monitors() ([]MonitorID, error) {
	return nil, b.err()
}

// Platform selects and owns one native backend. The backend is opened on
// first use and never reopened; a failure is remembered and returned by
// every later call.
type Platform struct {
	open func(log *slog.Logger) (backend, error)
	log  *slog.Logger

	once sync.Once
	b    backend
}

var defaultPlatform = sync.OnceValue(func() *Platform {
	return newPlatform(openNativeBackend, nil)
})

// DefaultPlatform returns the process wide Platform.
func DefaultPlatform() *Platform { return defaultPlatform() }

func newPlatform(open func(*slog.Logger) (backend, error), log *slog.Logger) *Platform {
	if log == nil {
		log = slog.Default()
	}
	return &Platform{open: open, log: log}
}

func (p *Platform) backend() backend {
	p.once.Do(func() {
		b, err := p.open(p.log)
		if err == nil && b == nil {
			err = errors.New("backend opener returned nothing")
		}
		if err != nil {
			p.log.Warn("no native windowing backend", "error", err)
			b = &errorBackend{cause: err}
		} else {
			p.log.Debug("windowing backend selected", "backend", b.kind())
		}
		p.b = b
	})
	return p.b
}

// Backend reports the selected backend. For BackendError the error explains
// why no native backend was available.
func (p *Platform) Backend() (BackendKind, error) {
	b := p.backend()
	if eb, ok := b.(*errorBackend); ok {
		return BackendError, eb.err()
	}
	return b.kind(), nil
}

// AvailableMonitors lists the connected displays.
func (p *Platform) AvailableMonitors() ([]MonitorID, error) {
	return p.backend().monitors()
}

// PrimaryMonitor returns the primary display.
func (p *Platform) PrimaryMonitor() (MonitorID, error) {
	monitors, err := p.AvailableMonitors()
	if err != nil {
		return MonitorID{}, err
	}
	return primaryOf(monitors)
}

// AvailableMonitors lists the displays of the default platform.
func AvailableMonitors() ([]MonitorID, error) {
	return DefaultPlatform().AvailableMonitors()
}

// PrimaryMonitor returns the primary display of the default platform.
func PrimaryMonitor() (MonitorID, error) {
	return DefaultPlatform().PrimaryMonitor()
}
