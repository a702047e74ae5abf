package glwindow

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for a native windowing system. All of its contexts
// share one current slot, as if every call came from the same thread.
type fakeBackend struct {
	variant    ContextVariant
	variantErr error
	newErr     error
	monitorSet []MonitorID
	monitorErr error
	// formats replaces fakeFormats when set.
	formats []PixelFormat
	// building runs at the start of every newWindow.
	building func(cfg *windowConfig)

	current atomic.Pointer[fakeContext]

	mu      sync.Mutex
	created []*fakeWindow
}

func (b *fakeBackend) kind() BackendKind { return BackendX11 }

func (b *fakeBackend) variantFor(GLRequest) (ContextVariant, error) {
	return b.variant, b.variantErr
}

func (b *fakeBackend) newWindow(cfg *windowConfig) (nativeWindow, error) {
	if b.building != nil {
		b.building(cfg)
	}
	if b.newErr != nil {
		return nil, b.newErr
	}
	formats := b.formats
	if formats == nil {
		formats = fakeFormats
	}
	candidates := make([]formatCandidate[int], len(formats))
	for i, f := range formats {
		candidates[i] = formatCandidate[int]{id: i, format: f}
	}
	chosen, err := negotiatePixelFormat(cfg.pf, candidates)
	if err != nil {
		return nil, creationErr(StagePixelFormat, err)
	}

	w := &fakeWindow{
		cfg:    cfg,
		format: chosen.format,
		queue:  newSyncQueue[fetched](),
		scale:  2,
		width:  cfg.attrs.Width,
		height: cfg.attrs.Height,
	}
	w.ctx = &fakeContext{slot: &b.current, journal: w.record}
	b.mu.Lock()
	b.created = append(b.created, w)
	b.mu.Unlock()
	return w, nil
}

func (b *fakeBackend) monitors() ([]MonitorID, error) {
	return b.monitorSet, b.monitorErr
}

func (b *fakeBackend) windows() []*fakeWindow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*fakeWindow(nil), b.created...)
}

// fakeFormats is what the fake driver offers, in driver order.
var fakeFormats = []PixelFormat{
	{ColorBits: 16, DepthBits: 16},
	{HardwareAccelerated: true, ColorBits: 24, AlphaBits: 8, DepthBits: 24, StencilBits: 8, DoubleBuffer: true},
	{HardwareAccelerated: true, ColorBits: 30, AlphaBits: 2, DepthBits: 32, DoubleBuffer: true, Multisampling: 4, SRGB: true},
}

type fakeContext struct {
	slot    *atomic.Pointer[fakeContext]
	journal func(string)
	swaps   atomic.Int32

	// gate, when set, blocks swapBuffers until it is closed.
	gate     chan struct{}
	entered  chan struct{}
	released atomic.Bool
	// swappedReleased records a swap that ran on a released context.
	swappedReleased atomic.Bool
}

func (c *fakeContext) makeCurrent() error {
	c.slot.Store(c)
	return nil
}

func (c *fakeContext) isCurrent() bool { return c.slot.Load() == c }

func (c *fakeContext) swapBuffers() error {
	if c.gate != nil {
		close(c.entered)
		<-c.gate
	}
	if c.released.Load() {
		c.swappedReleased.Store(true)
	}
	c.swaps.Add(1)
	return nil
}

func (c *fakeContext) procAddress(name string) uintptr {
	if name == "glClear" {
		return 0x1000
	}
	return 0
}

func (c *fakeContext) release() {
	c.released.Store(true)
	c.slot.CompareAndSwap(c, nil)
	c.journal("release context")
}

// fakeWindow feeds fetch from a queue the test pushes into.
type fakeWindow struct {
	cfg    *windowConfig
	ctx    *fakeContext
	format PixelFormat
	queue  *syncQueue[fetched]
	scale  float64

	mu            sync.Mutex
	journal       []string
	cursors       []MouseCursor
	cursorActions [][]cursorAction
	cursorErr     error
	title         string
	visible       bool
	x, y          int
	width, height int
}

func (w *fakeWindow) record(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journal = append(w.journal, s)
}

func (w *fakeWindow) entries() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.journal...)
}

func (w *fakeWindow) push(events ...Event) {
	w.queue.push(fetched{kind: fetchEvents, events: events})
}

func (w *fakeWindow) fetch(block bool) fetched {
	var (
		f  fetched
		ok bool
	)
	if block {
		f, ok = w.queue.pop()
	} else {
		f, ok = w.queue.tryPop()
	}
	if ok {
		return f
	}
	if w.queue.isClosed() {
		return fetched{kind: fetchGone}
	}
	return fetched{kind: fetchEmpty}
}

func (w *fakeWindow) context() nativeContext   { return w.ctx }
func (w *fakeWindow) pixelFormat() PixelFormat { return w.format }

func (w *fakeWindow) setTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
	return nil
}

func (w *fakeWindow) show() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
	return nil
}

func (w *fakeWindow) hide() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	return nil
}

func (w *fakeWindow) position() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y, nil
}

func (w *fakeWindow) setPosition(x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.x, w.y = x, y
	return nil
}

func (w *fakeWindow) innerSize() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height, nil
}

func (w *fakeWindow) outerSize() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width + 2, w.height + 30, nil
}

func (w *fakeWindow) setInnerSize(width, height int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	return nil
}

func (w *fakeWindow) setCursor(c MouseCursor) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cursorErr != nil {
		return w.cursorErr
	}
	w.cursors = append(w.cursors, c)
	return nil
}

func (w *fakeWindow) applyCursorActions(actions []cursorAction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cursorErr != nil {
		return w.cursorErr
	}
	w.cursorActions = append(w.cursorActions, actions)
	return nil
}

func (w *fakeWindow) setCursorPosition(x, y int) error { return nil }

func (w *fakeWindow) hidpiFactor() float64 { return w.scale }

func (w *fakeWindow) wakeup() error {
	if !w.queue.push(fetched{kind: fetchWake}) {
		return ErrWindowClosed
	}
	return nil
}

func (w *fakeWindow) destroy() {
	w.record("destroy window")
	w.queue.close()
}

func (w *fakeWindow) nativeHandles() (uintptr, uintptr) { return 1, 2 }

// newFakePlatform returns a platform over b and a counter of backend opens.
func newFakePlatform(b *fakeBackend) (*Platform, *atomic.Int32) {
	var opens atomic.Int32
	p := newPlatform(func(*slog.Logger) (backend, error) {
		opens.Add(1)
		if b == nil {
			return nil, errors.New("no display")
		}
		return b, nil
	}, slog.New(slog.DiscardHandler))
	return p, &opens
}

func newFakeWindow(t *testing.T, p *Platform, b *fakeBackend) (*Window, *fakeWindow) {
	t.Helper()
	w, err := p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), DefaultGLAttributes(),
		PlatformExtras{Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	t.Cleanup(w.Close)
	created := b.windows()
	return w, created[len(created)-1]
}
