package glwindow

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowValidatesBeforeOpeningBackend(t *testing.T) {
	p, opens := newFakePlatform(&fakeBackend{})

	attrs := DefaultWindowAttributes()
	attrs.MinWidth = 100
	_, err := p.NewWindow(attrs, DefaultPixelFormatRequirements(), DefaultGLAttributes(), PlatformExtras{})
	require.ErrorIs(t, err, ErrNotSupported)
	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageValidate, cerr.Stage)

	gl := DefaultGLAttributes()
	gl.Robustness = RobustLoseContextOnReset
	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	assert.ErrorIs(t, err, ErrRobustnessNotSupported)

	reqs := DefaultPixelFormatRequirements()
	reqs.Multisampling = 3
	_, err = p.NewWindow(DefaultWindowAttributes(), reqs, DefaultGLAttributes(), PlatformExtras{})
	assert.ErrorIs(t, err, ErrNotSupported)

	gl = DefaultGLAttributes()
	gl.Request = GLRequest{API: APIOpenGL, Major: 5}
	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	assert.ErrorIs(t, err, ErrOpenGLVersionNotSupported)

	assert.Zero(t, opens.Load())
}

func TestBackendFailureIsRemembered(t *testing.T) {
	p, opens := newFakePlatform(nil)

	kind, err := p.Backend()
	assert.Equal(t, BackendError, kind)
	assert.ErrorIs(t, err, ErrNoBackendAvailable)

	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), DefaultGLAttributes(), PlatformExtras{})
	assert.ErrorIs(t, err, ErrNoBackendAvailable)
	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageBackend, cerr.Stage)

	_, err = p.AvailableMonitors()
	assert.ErrorIs(t, err, ErrNoBackendAvailable)
	assert.Equal(t, int32(1), opens.Load())
}

func TestBackendOpenedOnce(t *testing.T) {
	b := &fakeBackend{}
	p, opens := newFakePlatform(b)
	newFakeWindow(t, p, b)
	newFakeWindow(t, p, b)

	kind, err := p.Backend()
	require.NoError(t, err)
	assert.Equal(t, BackendX11, kind)
	assert.Equal(t, int32(1), opens.Load())
}

func TestNewWindowStages(t *testing.T) {
	b := &fakeBackend{variantErr: ErrOpenGLVersionNotSupported}
	p, _ := newFakePlatform(b)
	_, err := p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), DefaultGLAttributes(), PlatformExtras{})
	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageBackend, cerr.Stage)

	b.variantErr = nil
	b.newErr = osErr("XCreateWindow", errors.New("BadMatch"))
	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), DefaultGLAttributes(), PlatformExtras{})
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StageWindow, cerr.Stage)
	assert.ErrorIs(t, err, ErrOsError)
	assert.Contains(t, err.Error(), "BadMatch")
}

func TestSharing(t *testing.T) {
	b := &fakeBackend{variant: VariantGLX}
	p, _ := newFakePlatform(b)
	first, native := newFakeWindow(t, p, b)

	gl := DefaultGLAttributes()
	gl.ShareWith = first
	second, err := p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	require.NoError(t, err)
	defer second.Close()
	created := b.windows()
	assert.Same(t, native.ctx, created[1].cfg.share)

	b.variant = VariantEGL
	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	assert.ErrorIs(t, err, ErrSharingUnsupported)
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.Len(t, b.windows(), 2, "no native window may be created when sharing fails")

	other, _ := newFakePlatform(&fakeBackend{variant: VariantGLX})
	_, err = other.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	assert.ErrorIs(t, err, ErrSharingUnsupported)

	b.variant = VariantGLX
	first.Close()
	_, err = p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	assert.ErrorIs(t, err, ErrContextDestroyed)
}

func TestContextLifecycle(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	a, _ := newFakeWindow(t, p, b)
	c, _ := newFakeWindow(t, p, b)

	assert.Equal(t, ContextCreated, a.ContextState())
	assert.ErrorIs(t, a.SwapBuffers(), ErrContextNotCurrent)

	require.NoError(t, a.MakeCurrent())
	assert.True(t, a.IsCurrent())
	assert.Equal(t, ContextCurrent, a.ContextState())
	require.NoError(t, a.SwapBuffers())

	require.NoError(t, c.MakeCurrent())
	assert.Equal(t, ContextCreated, a.ContextState())
	assert.Equal(t, ContextCurrent, c.ContextState())
	var ctxErr *ContextError
	require.ErrorAs(t, a.SwapBuffers(), &ctxErr)
	assert.Equal(t, "swap buffers", ctxErr.Op)

	assert.NotZero(t, c.GetProcAddress("glClear"))
	assert.Zero(t, c.GetProcAddress("glNotThere"))

	c.Close()
	assert.Equal(t, ContextDestroyed, c.ContextState())
	assert.ErrorIs(t, c.MakeCurrent(), ErrContextDestroyed)
	assert.ErrorIs(t, c.SwapBuffers(), ErrContextDestroyed)
	assert.False(t, c.IsCurrent())
	assert.Zero(t, c.GetProcAddress("glClear"))
}

func TestContextAccessors(t *testing.T) {
	b := &fakeBackend{variant: VariantEGL}
	p, _ := newFakePlatform(b)
	w, _ := newFakeWindow(t, p, b)

	assert.Equal(t, APIOpenGL, w.API())
	assert.Equal(t, VariantEGL, w.ContextVariant())
	assert.Equal(t, uint8(24), w.PixelFormat().ColorBits)
	assert.True(t, w.PixelFormat().DoubleBuffer)
}

func TestCloseOrderAndIdempotence(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)
	require.NoError(t, w.MakeCurrent())

	w.Close()
	w.Close()
	assert.Equal(t, []string{"release context", "destroy window"}, native.entries())
	assert.Nil(t, b.current.Load())
}

func TestClosedWindowRejectsCalls(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, _ := newFakeWindow(t, p, b)
	proxy := w.CreateWindowProxy()
	w.Close()

	assert.ErrorIs(t, w.SetTitle("x"), ErrWindowClosed)
	assert.ErrorIs(t, w.Show(), ErrWindowClosed)
	assert.ErrorIs(t, w.Hide(), ErrWindowClosed)
	assert.ErrorIs(t, w.SetPosition(1, 2), ErrWindowClosed)
	assert.ErrorIs(t, w.SetInnerSize(10, 10), ErrWindowClosed)
	assert.ErrorIs(t, w.SetCursor(CursorHand), ErrWindowClosed)
	assert.ErrorIs(t, w.SetCursorState(CursorGrab), ErrWindowClosed)
	assert.ErrorIs(t, w.SetCursorPosition(1, 1), ErrWindowClosed)
	_, _, err := w.Position()
	assert.ErrorIs(t, err, ErrWindowClosed)
	_, _, err = w.InnerSize()
	assert.ErrorIs(t, err, ErrWindowClosed)
	_, _, err = w.OuterSize()
	assert.ErrorIs(t, err, ErrWindowClosed)

	assert.ErrorIs(t, proxy.WakeupEventLoop(), ErrWindowClosed)
	assert.Equal(t, 1.0, w.HiDPIFactor())
	assert.Zero(t, w.NativeDisplay())
	assert.Zero(t, w.NativeWindow())

	var events []Event
	for ev := range w.PollEvents() {
		events = append(events, ev)
	}
	assert.Empty(t, events)
}

func TestGeometryAndAttributes(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	require.NoError(t, w.SetPosition(10, 20))
	x, y, err := w.Position()
	require.NoError(t, err)
	assert.Equal(t, [2]int{10, 20}, [2]int{x, y})

	require.NoError(t, w.SetInnerSize(640, 480))
	width, height, err := w.InnerSize()
	require.NoError(t, err)
	assert.Equal(t, [2]int{640, 480}, [2]int{width, height})
	width, height, err = w.OuterSize()
	require.NoError(t, err)
	assert.Equal(t, [2]int{642, 510}, [2]int{width, height})

	assert.ErrorIs(t, w.SetInnerSize(0, 480), ErrNotSupported)

	require.NoError(t, w.SetTitle("renamed"))
	require.NoError(t, w.Hide())
	attrs := w.Attributes()
	assert.Equal(t, "renamed", attrs.Title)
	assert.False(t, attrs.Visible)
	assert.Equal(t, "renamed", native.title)

	assert.Equal(t, 2.0, w.HiDPIFactor())
	assert.Equal(t, uintptr(1), w.NativeDisplay())
	assert.Equal(t, uintptr(2), w.NativeWindow())
}

func TestSetCursorSkipsRepeats(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	require.NoError(t, w.SetCursor(CursorHand))
	require.NoError(t, w.SetCursor(CursorHand))
	require.NoError(t, w.SetCursor(CursorDefault))
	assert.Equal(t, []MouseCursor{CursorHand, CursorDefault}, native.cursors)
	assert.ErrorIs(t, w.SetCursor(cursorCount), ErrNotSupported)

	native.cursorErr = errors.New("no such cursor")
	assert.Error(t, w.SetCursor(CursorWait))
	assert.Equal(t, CursorDefault, w.Cursor(), "a failed change keeps the previous shape")
}

func TestSetCursorStateAppliesTransitions(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	require.NoError(t, w.SetCursorState(CursorGrab))
	require.NoError(t, w.SetCursorState(CursorGrab))
	require.NoError(t, w.SetCursorState(CursorNormal))
	assert.Equal(t, [][]cursorAction{
		{actionHide, actionGrab},
		{actionUngrab, actionShow},
	}, native.cursorActions)
	assert.Equal(t, CursorNormal, w.CursorState())

	native.cursorErr = errors.New("grab failed")
	assert.Error(t, w.SetCursorState(CursorHide))
	assert.Equal(t, CursorNormal, w.CursorState())
	assert.ErrorIs(t, w.SetCursorState(CursorState(7)), ErrNotSupported)
}

func TestPollEvents(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	native.push(ReceivedCharacter{Char: 'a'}, KeyboardInput{State: Pressed, Key: KeyA})
	native.queue.push(fetched{kind: fetchDropped})
	native.push(Focused{Focused: true})

	var events []Event
	for ev := range w.PollEvents() {
		events = append(events, ev)
	}
	assert.Equal(t, []Event{
		ReceivedCharacter{Char: 'a'},
		KeyboardInput{State: Pressed, Key: KeyA},
		Focused{Focused: true},
	}, events)

	for range w.PollEvents() {
		t.Fatal("nothing should be pending")
	}
}

func TestPollStopKeepsRemainingEvents(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	native.push(MouseMoved{Position: Position{X: 1}}, MouseMoved{Position: Position{X: 2}})
	for range w.PollEvents() {
		break
	}
	var events []Event
	for ev := range w.PollEvents() {
		events = append(events, ev)
	}
	assert.Equal(t, []Event{MouseMoved{Position: Position{X: 2}}}, events)
}

func TestResizeCallback(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	var sizes [][2]int
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })
	native.push(Resized{Width: 10, Height: 20}, Moved{X: 1, Y: 1}, Resized{Width: 30, Height: 40})
	for range w.PollEvents() {
	}
	assert.Equal(t, [][2]int{{10, 20}, {30, 40}}, sizes)

	w.SetResizeCallback(nil)
	native.push(Resized{Width: 1, Height: 1})
	for range w.PollEvents() {
	}
	assert.Len(t, sizes, 2)
}

func TestWakeupYieldsAwakened(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, _ := newFakeWindow(t, p, b)

	got := make(chan Event, 1)
	go func() {
		for ev := range w.WaitEvents() {
			got <- ev
			return
		}
	}()
	require.NoError(t, w.CreateWindowProxy().WakeupEventLoop())

	select {
	case ev := <-got:
		assert.Equal(t, Awakened{}, ev)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitEvents did not wake up")
	}
}

func TestWakeupCoalescesWithRealEvent(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	require.NoError(t, w.CreateWindowProxy().WakeupEventLoop())
	require.NoError(t, w.CreateWindowProxy().WakeupEventLoop())
	native.push(Closed{})

	for ev := range w.WaitEvents() {
		assert.Equal(t, Closed{}, ev)
		break
	}
}

func TestCloseEndsWaitEvents(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)
	native.push(Focused{Focused: true})

	done := make(chan []Event)
	go func() {
		var events []Event
		for ev := range w.WaitEvents() {
			events = append(events, ev)
		}
		done <- events
	}()

	time.Sleep(10 * time.Millisecond)
	w.Close()
	select {
	case events := <-done:
		assert.Equal(t, []Event{Focused{Focused: true}}, events)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitEvents did not end after Close")
	}
}

func TestMonitors(t *testing.T) {
	b := &fakeBackend{monitorSet: []MonitorID{
		{name: "left", native: NativeMonitorID{Numeric: 1}, width: 1920, height: 1080},
		{name: "right", native: NativeMonitorID{Numeric: 2}, x: 1920, width: 2560, height: 1440, primary: true},
	}}
	p, _ := newFakePlatform(b)

	all, err := p.AvailableMonitors()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	primary, err := p.PrimaryMonitor()
	require.NoError(t, err)
	assert.Equal(t, "right", primary.Name())
	x, y := primary.Position()
	assert.Equal(t, [2]int{1920, 0}, [2]int{x, y})

	b.monitorSet = nil
	_, err = p.PrimaryMonitor()
	assert.ErrorIs(t, err, ErrOsError)
}

func TestPlatformLoggerDefault(t *testing.T) {
	p := newPlatform(func(*slog.Logger) (backend, error) { return &fakeBackend{}, nil }, nil)
	assert.NotNil(t, p.log)
	kind, err := p.Backend()
	require.NoError(t, err)
	assert.Equal(t, "x11", kind.String())
}

func TestPixelFormatMeetsRequirements(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, _ := newFakeWindow(t, p, b)

	pf := w.PixelFormat()
	assert.GreaterOrEqual(t, pf.DepthBits, uint8(24))
	assert.GreaterOrEqual(t, pf.StencilBits, uint8(8))
	assert.True(t, pf.DoubleBuffer)
	assert.True(t, pf.HardwareAccelerated)
	assert.Zero(t, pf.Multisampling, "the closest fit carries no extra samples")

	reqs := DefaultPixelFormatRequirements()
	reqs.AlphaBits = 0
	reqs.StencilBits = 0
	reqs.Multisampling = 4
	ms, err := p.NewWindow(DefaultWindowAttributes(), reqs, DefaultGLAttributes(), PlatformExtras{})
	require.NoError(t, err)
	defer ms.Close()
	assert.Equal(t, uint16(4), ms.PixelFormat().Multisampling)
	assert.GreaterOrEqual(t, ms.PixelFormat().DepthBits, uint8(24))

	reqs = DefaultPixelFormatRequirements()
	reqs.DepthBits = 64
	_, err = p.NewWindow(DefaultWindowAttributes(), reqs, DefaultGLAttributes(), PlatformExtras{})
	var cerr *CreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, StagePixelFormat, cerr.Stage)
	assert.ErrorIs(t, err, ErrNoAvailablePixelFormat)
	assert.Len(t, b.windows(), 2)
}

func TestCloseWaitsForContextCalls(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)
	require.NoError(t, w.MakeCurrent())

	native.ctx.gate = make(chan struct{})
	native.ctx.entered = make(chan struct{})
	swapped := make(chan error, 1)
	go func() { swapped <- w.SwapBuffers() }()
	<-native.ctx.entered

	closed := make(chan struct{})
	go func() {
		w.Close()
		close(closed)
	}()
	assert.Never(t, func() bool {
		select {
		case <-closed:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond, "Close must wait for the swap in flight")
	assert.False(t, native.ctx.released.Load())

	close(native.ctx.gate)
	require.NoError(t, <-swapped)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the swap finished")
	}
	assert.True(t, native.ctx.released.Load())
	assert.False(t, native.ctx.swappedReleased.Load())
	assert.Equal(t, ContextDestroyed, w.ContextState())
}

func TestSharedContextKeptDuringCreation(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	first, native := newFakeWindow(t, p, b)

	closed := make(chan struct{})
	b.building = func(cfg *windowConfig) {
		go func() {
			first.Close()
			close(closed)
		}()
		assert.Never(t, func() bool { return native.ctx.released.Load() },
			50*time.Millisecond, 5*time.Millisecond, "the shared context must outlive creation")
	}

	gl := DefaultGLAttributes()
	gl.ShareWith = first
	second, err := p.NewWindow(DefaultWindowAttributes(), DefaultPixelFormatRequirements(), gl, PlatformExtras{})
	require.NoError(t, err)
	defer second.Close()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("closing the shared window did not finish")
	}
	assert.True(t, native.ctx.released.Load())
}

func TestSetCursorEveryShapeOnce(t *testing.T) {
	b := &fakeBackend{}
	p, _ := newFakePlatform(b)
	w, native := newFakeWindow(t, p, b)

	for _, c := range AllCursors() {
		require.NoError(t, w.SetCursor(c))
		require.NoError(t, w.SetCursor(c))
		assert.Equal(t, c, w.Cursor())
	}
	// The window starts with the default shape, so only the others reach
	// the backend.
	assert.Equal(t, AllCursors()[1:], native.cursors)
}
