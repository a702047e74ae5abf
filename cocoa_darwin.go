//go:build darwin

package glwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
	"github.com/tinyrange/glwindow/internal/handle"
)

// NS geometry mirrors (keep alignment explicit).
type nsPoint struct {
	X float64
	Y float64
}

type nsSize struct {
	W float64
	H float64
}

type nsRect struct {
	Origin nsPoint
	Size   nsSize
}

// Cocoa constants (subset).
const (
	nsWindowStyleBorderless  = 0
	nsWindowStyleTitled      = 1 << 0
	nsWindowStyleClosable    = 1 << 1
	nsWindowStyleMiniaturize = 1 << 2
	nsWindowStyleResizable   = 1 << 3

	nsBackingStoreBuffered = 2

	nsEventMaskAny = ^uint(0)

	nsMainMenuWindowLevel = 24
)

const delegateClassName = "GLWindowDelegate"

var (
	initOnce sync.Once
	initErr  error

	openglFramework uintptr

	cgWarpMouseCursorPosition             func(nsPoint) int32
	cgAssociateMouseAndMouseCursorPosition func(bool) int32

	delegateClass objc.Class

	// Cached selectors.
	selAlloc                   objc.SEL
	selInit                    objc.SEL
	selRelease                 objc.SEL
	selRetain                  objc.SEL
	selSharedApplication       objc.SEL
	selNextEventMatchingMask   objc.SEL
	selSetActivationPolicy     objc.SEL
	selActivateIgnoringOthers  objc.SEL
	selFinishLaunching         objc.SEL
	selDistantPast             objc.SEL
	selDistantFuture           objc.SEL
	selStringWithUTF8String    objc.SEL
	selUTF8String              objc.SEL
	selInitWithContentRect     objc.SEL
	selMakeKeyAndOrderFront    objc.SEL
	selOrderOut                objc.SEL
	selClose                   objc.SEL
	selSetTitle                objc.SEL
	selSetAcceptsMouseMoved    objc.SEL
	selSetReleasedWhenClosed   objc.SEL
	selSetDelegate             objc.SEL
	selSetOpaque               objc.SEL
	selSetBackgroundColor      objc.SEL
	selClearColor              objc.SEL
	selSetLevel                objc.SEL
	selCenter                  objc.SEL
	selContentView             objc.SEL
	selBounds                  objc.SEL
	selFrame                   objc.SEL
	selSetFrameTopLeftPoint    objc.SEL
	selSetContentSize          objc.SEL
	selContentRectForFrameRect objc.SEL
	selConvertRectToBacking    objc.SEL
	selBackingScaleFactor      objc.SEL
	selIsKeyWindow             objc.SEL
	selWindowNumber            objc.SEL
	selSendEvent               objc.SEL
	selPostEventAtStart        objc.SEL
	selOtherEvent              objc.SEL
	selWantsBestResolution     objc.SEL
	selSetProcessName          objc.SEL
	selProcessInfo             objc.SEL
	selInitWithContentsOfFile  objc.SEL
	selSetApplicationIconImage objc.SEL
	selWindowShouldClose       objc.SEL

	// NSEvent.
	selEventType       objc.SEL
	selEventKeyCode    objc.SEL
	selEventFlags      objc.SEL
	selEventButtonNum  objc.SEL
	selEventCharacters objc.SEL
	selEventLocation   objc.SEL
	selEventScrollDX   objc.SEL
	selEventScrollDY   objc.SEL
	selEventPrecise    objc.SEL
	selEventPhase      objc.SEL
	selEventPressure   objc.SEL
	selEventStage      objc.SEL
	selEventSubtype    objc.SEL

	// NSScreen.
	selScreens           objc.SEL
	selCount             objc.SEL
	selObjectAtIndex     objc.SEL
	selDeviceDescription objc.SEL
	selObjectForKey      objc.SEL
	selUnsignedIntValue  objc.SEL
	selLocalizedName     objc.SEL

	// NSCursor.
	selSet    objc.SEL
	selHide   objc.SEL
	selUnhide objc.SEL
)

func ensureRuntime() error {
	initOnce.Do(func() {
		if err := loadObjc(); err != nil {
			initErr = err
			return
		}
		loadSelectors()
		initErr = registerDelegateClass()
	})
	return initErr
}

func loadObjc() error {
	// Load libobjc and AppKit so the symbols are available.
	if _, err := purego.Dlopen("/usr/lib/libobjc.A.dylib", purego.RTLD_GLOBAL); err != nil {
		return err
	}
	if _, err := purego.Dlopen("/System/Library/Frameworks/AppKit.framework/AppKit", purego.RTLD_GLOBAL); err != nil {
		return err
	}
	cg, err := purego.Dlopen("/System/Library/Frameworks/CoreGraphics.framework/CoreGraphics", purego.RTLD_GLOBAL)
	if err != nil {
		return err
	}
	purego.RegisterLibFunc(&cgWarpMouseCursorPosition, cg, "CGWarpMouseCursorPosition")
	purego.RegisterLibFunc(&cgAssociateMouseAndMouseCursorPosition, cg, "CGAssociateMouseAndMouseCursorPosition")

	if openglFramework, err = purego.Dlopen("/System/Library/Frameworks/OpenGL.framework/OpenGL", purego.RTLD_GLOBAL); err != nil {
		return err
	}
	return nil
}

func loadSelectors() {
	selAlloc = objc.RegisterName("alloc")
	selInit = objc.RegisterName("init")
	selRelease = objc.RegisterName("release")
	selRetain = objc.RegisterName("retain")
	selSharedApplication = objc.RegisterName("sharedApplication")
	selNextEventMatchingMask = objc.RegisterName("nextEventMatchingMask:untilDate:inMode:dequeue:")
	selSetActivationPolicy = objc.RegisterName("setActivationPolicy:")
	selActivateIgnoringOthers = objc.RegisterName("activateIgnoringOtherApps:")
	selFinishLaunching = objc.RegisterName("finishLaunching")
	selDistantPast = objc.RegisterName("distantPast")
	selDistantFuture = objc.RegisterName("distantFuture")
	selStringWithUTF8String = objc.RegisterName("stringWithUTF8String:")
	selUTF8String = objc.RegisterName("UTF8String")
	selInitWithContentRect = objc.RegisterName("initWithContentRect:styleMask:backing:defer:")
	selMakeKeyAndOrderFront = objc.RegisterName("makeKeyAndOrderFront:")
	selOrderOut = objc.RegisterName("orderOut:")
	selClose = objc.RegisterName("close")
	selSetTitle = objc.RegisterName("setTitle:")
	selSetAcceptsMouseMoved = objc.RegisterName("setAcceptsMouseMovedEvents:")
	selSetReleasedWhenClosed = objc.RegisterName("setReleasedWhenClosed:")
	selSetDelegate = objc.RegisterName("setDelegate:")
	selSetOpaque = objc.RegisterName("setOpaque:")
	selSetBackgroundColor = objc.RegisterName("setBackgroundColor:")
	selClearColor = objc.RegisterName("clearColor")
	selSetLevel = objc.RegisterName("setLevel:")
	selCenter = objc.RegisterName("center")
	selContentView = objc.RegisterName("contentView")
	selBounds = objc.RegisterName("bounds")
	selFrame = objc.RegisterName("frame")
	selSetFrameTopLeftPoint = objc.RegisterName("setFrameTopLeftPoint:")
	selSetContentSize = objc.RegisterName("setContentSize:")
	selContentRectForFrameRect = objc.RegisterName("contentRectForFrameRect:")
	selConvertRectToBacking = objc.RegisterName("convertRectToBacking:")
	selBackingScaleFactor = objc.RegisterName("backingScaleFactor")
	selIsKeyWindow = objc.RegisterName("isKeyWindow")
	selWindowNumber = objc.RegisterName("windowNumber")
	selSendEvent = objc.RegisterName("sendEvent:")
	selPostEventAtStart = objc.RegisterName("postEvent:atStart:")
	selOtherEvent = objc.RegisterName("otherEventWithType:location:modifierFlags:timestamp:windowNumber:context:subtype:data1:data2:")
	selWantsBestResolution = objc.RegisterName("setWantsBestResolutionOpenGLSurface:")
	selSetProcessName = objc.RegisterName("setProcessName:")
	selProcessInfo = objc.RegisterName("processInfo")
	selInitWithContentsOfFile = objc.RegisterName("initWithContentsOfFile:")
	selSetApplicationIconImage = objc.RegisterName("setApplicationIconImage:")
	selWindowShouldClose = objc.RegisterName("windowShouldClose:")

	selEventType = objc.RegisterName("type")
	selEventKeyCode = objc.RegisterName("keyCode")
	selEventFlags = objc.RegisterName("modifierFlags")
	selEventButtonNum = objc.RegisterName("buttonNumber")
	selEventCharacters = objc.RegisterName("characters")
	selEventLocation = objc.RegisterName("locationInWindow")
	selEventScrollDX = objc.RegisterName("scrollingDeltaX")
	selEventScrollDY = objc.RegisterName("scrollingDeltaY")
	selEventPrecise = objc.RegisterName("hasPreciseScrollingDeltas")
	selEventPhase = objc.RegisterName("phase")
	selEventPressure = objc.RegisterName("pressure")
	selEventStage = objc.RegisterName("stage")
	selEventSubtype = objc.RegisterName("subtype")

	selScreens = objc.RegisterName("screens")
	selCount = objc.RegisterName("count")
	selObjectAtIndex = objc.RegisterName("objectAtIndex:")
	selDeviceDescription = objc.RegisterName("deviceDescription")
	selObjectForKey = objc.RegisterName("objectForKey:")
	selUnsignedIntValue = objc.RegisterName("unsignedIntValue")
	selLocalizedName = objc.RegisterName("localizedName")

	selSet = objc.RegisterName("set")
	selHide = objc.RegisterName("hide")
	selUnhide = objc.RegisterName("unhide")

	loadNSGLSelectors()
}

// registerDelegateClass creates the window delegate, which turns the close
// button into a Closed event instead of closing the window.
func registerDelegateClass() error {
	var err error
	delegateClass, err = objc.RegisterClass(
		delegateClassName,
		objc.GetClass("NSObject"),
		nil,
		nil,
		[]objc.MethodDef{
			{Cmd: selWindowShouldClose, Fn: windowShouldClose},
		},
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", delegateClassName, err)
	}
	return nil
}

// liveWindows maps an NSWindow to its cocoaWindow for the delegate.
var liveWindows sync.Map

func windowShouldClose(self objc.ID, _cmd objc.SEL, sender objc.ID) bool {
	if v, ok := liveWindows.Load(sender); ok {
		v.(*cocoaWindow).closeRequested.Store(true)
	}
	return false
}

func nsString(v string) objc.ID {
	return objc.ID(objc.GetClass("NSString")).Send(selStringWithUTF8String, v+"\x00")
}

func nsStringToGo(v objc.ID) string {
	if v == 0 {
		return ""
	}
	ptr := objc.Send[*byte](v, selUTF8String)
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(ptr), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(ptr, n))
}

// autoreleasePool runs fn inside a fresh NSAutoreleasePool.
func autoreleasePool(fn func()) {
	pool := objc.ID(objc.GetClass("NSAutoreleasePool")).Send(selAlloc).Send(selInit)
	defer pool.Send(selRelease)
	fn()
}

// cocoaBackend drives NSApplication from the thread that created the first
// window. AppKit objects are only touched from that thread, except for the
// event posted by wakeup.
type cocoaBackend struct {
	log *slog.Logger
	app objc.ID

	delegate objc.ID
	runMode  objc.ID

	// windows maps a window number to its *cocoaWindow so events pulled by
	// one window's fetch reach the window they belong to.
	windows sync.Map
}

func openNativeBackend(log *slog.Logger) (backend, error) {
	if err := ensureRuntime(); err != nil {
		return nil, osErr("load cocoa", err)
	}
	app := objc.ID(objc.GetClass("NSApplication")).Send(selSharedApplication)
	if app == 0 {
		return nil, osErr("NSApplication sharedApplication", errors.New("nsapplication unavailable"))
	}
	b := &cocoaBackend{
		log:      log,
		app:      app,
		delegate: objc.ID(delegateClass).Send(selAlloc).Send(selInit),
		runMode:  nsString("kCFRunLoopDefaultMode").Send(selRetain),
	}
	app.Send(selFinishLaunching)
	log.Debug("cocoa application ready")
	return b, nil
}

func (b *cocoaBackend) kind() BackendKind { return BackendCocoa }

func (b *cocoaBackend) variantFor(req GLRequest) (ContextVariant, error) {
	if req.API != APIOpenGL {
		return 0, fmt.Errorf("%w: %s on cocoa", ErrOpenGLVersionNotSupported, req)
	}
	return VariantNSGL, nil
}

// applyExtras sets the process wide activation policy and name.
func (b *cocoaBackend) applyExtras(extras PlatformExtras) {
	b.app.Send(selSetActivationPolicy, int(extras.ActivationPolicy))
	if extras.AppName != "" {
		info := objc.ID(objc.GetClass("NSProcessInfo")).Send(selProcessInfo)
		info.Send(selSetProcessName, nsString(extras.AppName))
	}
}

// screens returns the NSScreen objects, main screen first.
func screens() []objc.ID {
	arr := objc.ID(objc.GetClass("NSScreen")).Send(selScreens)
	n := objc.Send[uint](arr, selCount)
	out := make([]objc.ID, 0, n)
	for i := uint(0); i < n; i++ {
		out = append(out, arr.Send(selObjectAtIndex, i))
	}
	return out
}

func screenNumber(screen objc.ID) uint32 {
	desc := screen.Send(selDeviceDescription)
	num := desc.Send(selObjectForKey, nsString("NSScreenNumber"))
	return objc.Send[uint32](num, selUnsignedIntValue)
}

// primaryHeight is the height in points of the screen holding the menu bar,
// which anchors the flipped global coordinate space.
func primaryHeight() float64 {
	all := screens()
	if len(all) == 0 {
		return 0
	}
	return objc.Send[nsRect](all[0], selFrame).Size.H
}

func (b *cocoaBackend) monitors() ([]MonitorID, error) {
	var monitors []MonitorID
	autoreleasePool(func() {
		all := screens()
		if len(all) == 0 {
			return
		}
		top := objc.Send[nsRect](all[0], selFrame).Size.H
		for i, s := range all {
			frame := objc.Send[nsRect](s, selFrame)
			scale := objc.Send[float64](s, selBackingScaleFactor)
			if scale <= 0 {
				scale = 1
			}
			num := screenNumber(s)
			name := nsStringToGo(s.Send(selLocalizedName))
			if name == "" {
				name = fmt.Sprintf("Display %d", num)
			}
			monitors = append(monitors, MonitorID{
				name:    name,
				native:  NativeMonitorID{Numeric: num},
				x:       int(frame.Origin.X * scale),
				y:       int((top - frame.Origin.Y - frame.Size.H) * scale),
				width:   int(frame.Size.W * scale),
				height:  int(frame.Size.H * scale),
				primary: i == 0,
				backend: BackendCocoa,
				device:  fmt.Sprint(num),
			})
		}
	})
	if len(monitors) == 0 {
		return nil, osErr("NSScreen screens", errors.New("no screens"))
	}
	return monitors, nil
}

// nextEvent dequeues one NSEvent, waiting for one when block is set.
func (b *cocoaBackend) nextEvent(block bool) objc.ID {
	date := objc.ID(objc.GetClass("NSDate")).Send(selDistantPast)
	if block {
		date = objc.ID(objc.GetClass("NSDate")).Send(selDistantFuture)
	}
	return objc.Send[objc.ID](b.app, selNextEventMatchingMask, nsEventMaskAny, date, b.runMode, true)
}

// dispatch translates ev into the queue of the window it targets and
// forwards it to AppKit. Key events are not forwarded: with no text view in
// the responder chain every key press would beep.
func (b *cocoaBackend) dispatch(ev objc.ID) {
	typ := objc.Send[uint64](ev, selEventType)
	num := objc.Send[int](ev, selWindowNumber)

	var target *cocoaWindow
	if v, ok := b.windows.Load(num); ok {
		target = v.(*cocoaWindow)
	}
	if target != nil {
		target.receive(typ, ev)
	}

	switch typ {
	case nsEventTypeKeyDown, nsEventTypeKeyUp, nsEventTypeFlagsChanged, nsEventTypeApplicationDefined:
	default:
		b.app.Send(selSendEvent, ev)
	}
}

// cocoaCursor returns the NSCursor for c.
func cocoaCursor(c MouseCursor) objc.ID {
	name := "arrowCursor"
	switch c {
	case CursorText:
		name = "IBeamCursor"
	case CursorVerticalText:
		name = "IBeamCursorForVerticalLayout"
	case CursorCrosshair, CursorCell:
		name = "crosshairCursor"
	case CursorHand:
		name = "pointingHandCursor"
	case CursorGrabHand, CursorMove, CursorAllScroll:
		name = "openHandCursor"
	case CursorGrabbing:
		name = "closedHandCursor"
	case CursorNotAllowed, CursorNoDrop:
		name = "operationNotAllowedCursor"
	case CursorContextMenu:
		name = "contextualMenuCursor"
	case CursorCopy:
		name = "dragCopyCursor"
	case CursorAlias:
		name = "dragLinkCursor"
	case CursorEResize:
		name = "resizeRightCursor"
	case CursorWResize:
		name = "resizeLeftCursor"
	case CursorNResize:
		name = "resizeUpCursor"
	case CursorSResize:
		name = "resizeDownCursor"
	case CursorEwResize, CursorColResize, CursorNeswResize, CursorNwseResize,
		CursorNeResize, CursorNwResize, CursorSeResize, CursorSwResize:
		name = "resizeLeftRightCursor"
	case CursorNsResize, CursorRowResize:
		name = "resizeUpDownCursor"
	}
	return objc.ID(objc.GetClass("NSCursor")).Send(objc.RegisterName(name))
}

type cocoaWindow struct {
	b   *cocoaBackend
	log *slog.Logger

	win    *handle.Owned[objc.ID]
	view   objc.ID
	number int

	ctx    *nsglContext
	format PixelFormat

	// tr, prev and pending are only used on the window's thread.
	tr      cocoaTranslator
	prev    cocoaWindowState
	pending *syncQueue[fetched]

	closeRequested atomic.Bool
	closed         atomic.Bool
}

func (b *cocoaBackend) newWindow(cfg *windowConfig) (_ nativeWindow, retErr error) {
	// AppKit objects belong to the thread that creates them.
	runtime.LockOSThread()

	w := &cocoaWindow{
		b:       b,
		log:     cfg.log,
		win:     handle.Absent[objc.ID](),
		pending: newSyncQueue[fetched](),
	}
	defer func() {
		if retErr != nil {
			w.teardown()
		}
	}()
	b.applyExtras(cfg.extras)

	style := uint(nsWindowStyleTitled | nsWindowStyleClosable | nsWindowStyleMiniaturize | nsWindowStyleResizable)
	if !cfg.attrs.Decorations {
		style = nsWindowStyleBorderless
	}
	width, height := cfg.attrs.size()
	frame := nsRect{Size: nsSize{W: float64(width), H: float64(height)}}

	var screen objc.ID
	if m := cfg.attrs.Monitor; m != nil {
		if m.backend != BackendCocoa {
			return nil, creationErr(StageWindow, fmt.Errorf("%w: monitor from %s backend", ErrNotSupported, m.backend))
		}
		for _, s := range screens() {
			if screenNumber(s) == m.native.Numeric {
				screen = s
			}
		}
		if screen == 0 {
			return nil, creationErr(StageWindow, fmt.Errorf("%w: monitor %s is gone", ErrNotSupported, m.name))
		}
		style = nsWindowStyleBorderless
		frame = objc.Send[nsRect](screen, selFrame)
	}

	win := objc.ID(objc.GetClass("NSWindow")).Send(selAlloc)
	win = win.Send(selInitWithContentRect, frame, style, uint(nsBackingStoreBuffered), false)
	if win == 0 {
		return nil, creationErr(StageWindow, osErr("NSWindow initWithContentRect", nil))
	}
	w.win = handle.New(win, func(h objc.ID) { h.Send(selRelease) })
	w.number = objc.Send[int](win, selWindowNumber)
	liveWindows.Store(win, w)
	b.windows.Store(w.number, w)

	win.Send(selSetReleasedWhenClosed, false)
	win.Send(selSetAcceptsMouseMoved, true)
	win.Send(selSetDelegate, b.delegate)
	if screen != 0 {
		win.Send(selSetLevel, nsMainMenuWindowLevel+1)
	} else {
		win.Send(selCenter)
	}
	title := cfg.attrs.Title
	if title == "" {
		title = defaultTitle
	}
	win.Send(selSetTitle, nsString(title))
	if cfg.attrs.Transparent {
		win.Send(selSetOpaque, false)
		win.Send(selSetBackgroundColor, objc.ID(objc.GetClass("NSColor")).Send(selClearColor))
	}
	if path := cfg.attrs.IconPath; path != "" {
		img := objc.ID(objc.GetClass("NSImage")).Send(selAlloc).Send(selInitWithContentsOfFile, nsString(path))
		if img != 0 {
			b.app.Send(selSetApplicationIconImage, img)
			img.Send(selRelease)
		}
	}

	w.view = win.Send(selContentView)
	if w.view == 0 {
		return nil, creationErr(StageWindow, osErr("NSWindow contentView", errors.New("window missing content view")))
	}
	w.view.Send(selWantsBestResolution, true)

	pf, format, err := nsglChoosePixelFormat(cfg.pf, cfg.gl.Request)
	if err != nil {
		return nil, creationErr(StagePixelFormat, err)
	}
	w.format = format
	if w.ctx, err = newNSGLContext(pf, w.view, cfg.gl, cfg.share); err != nil {
		return nil, creationErr(StageContext, err)
	}

	if cfg.attrs.Visible {
		win.Send(selMakeKeyAndOrderFront, objc.ID(0))
		b.app.Send(selActivateIgnoringOthers, true)
	}
	w.prev = w.sample()
	w.prev.Closed = false
	return w, nil
}

func (w *cocoaWindow) window() (objc.ID, error) {
	win, ok := w.win.Get()
	if !ok || w.closed.Load() {
		return 0, ErrWindowClosed
	}
	return win, nil
}

// sample reads the window level state that AppKit reports through the
// delegate and the window frame.
func (w *cocoaWindow) sample() cocoaWindowState {
	win, ok := w.win.Get()
	if !ok {
		return w.prev
	}
	width, height := w.backingSize()
	x, y := w.topLeft(win)
	return cocoaWindowState{
		Key:    objc.Send[bool](win, selIsKeyWindow),
		Closed: w.closeRequested.Swap(false),
		Width:  width,
		Height: height,
		X:      x,
		Y:      y,
	}
}

func (w *cocoaWindow) scale() float64 {
	win, ok := w.win.Get()
	if !ok {
		return 1
	}
	if s := objc.Send[float64](win, selBackingScaleFactor); s > 0 {
		return s
	}
	return 1
}

// backingSize returns the current pixel dimensions, accounting for Retina scale.
func (w *cocoaWindow) backingSize() (int, int) {
	if w.view == 0 {
		return 0, 0
	}
	bounds := objc.Send[nsRect](w.view, selBounds)
	backing := objc.Send[nsRect](w.view, selConvertRectToBacking, bounds)
	return int(backing.Size.W), int(backing.Size.H)
}

// topLeft returns the frame's top-left corner in pixels with a top-left
// global origin.
func (w *cocoaWindow) topLeft(win objc.ID) (int, int) {
	frame := objc.Send[nsRect](win, selFrame)
	s := w.scale()
	return int(frame.Origin.X * s), int((primaryHeight() - frame.Origin.Y - frame.Size.H) * s)
}

// receive translates an NSEvent addressed to this window.
func (w *cocoaWindow) receive(typ uint64, ev objc.ID) {
	ce := &cocoaEvent{Type: typ}
	switch typ {
	case nsEventTypeKeyDown, nsEventTypeKeyUp, nsEventTypeFlagsChanged:
		ce.KeyCode = uint16(objc.Send[uint64](ev, selEventKeyCode))
		ce.Flags = objc.Send[uint64](ev, selEventFlags)
		if typ == nsEventTypeKeyDown {
			ce.Characters = nsStringToGo(ev.Send(selEventCharacters))
		}
	case nsEventTypeApplicationDefined:
		ce.Subtype = objc.Send[int16](ev, selEventSubtype)
	case nsEventTypePressure:
		ce.Pressure = objc.Send[float32](ev, selEventPressure)
		ce.Stage = objc.Send[int64](ev, selEventStage)
	default:
		loc := objc.Send[nsPoint](ev, selEventLocation)
		ce.X, ce.Y = loc.X, loc.Y
		ce.ViewHeight = objc.Send[nsRect](w.view, selBounds).Size.H
		ce.Scale = w.scale()
		switch typ {
		case nsEventTypeLeftMouseDown, nsEventTypeLeftMouseUp,
			nsEventTypeRightMouseDown, nsEventTypeRightMouseUp,
			nsEventTypeOtherMouseDown, nsEventTypeOtherMouseUp:
			ce.ButtonNumber = objc.Send[int64](ev, selEventButtonNum)
		case nsEventTypeScrollWheel:
			ce.DeltaX = objc.Send[float64](ev, selEventScrollDX)
			ce.DeltaY = objc.Send[float64](ev, selEventScrollDY)
			ce.Precise = objc.Send[bool](ev, selEventPrecise)
			ce.Phase = objc.Send[uint64](ev, selEventPhase)
		}
	}

	events, wake := w.tr.translate(ce)
	switch {
	case wake:
		w.pending.push(fetched{kind: fetchWake})
	case len(events) > 0:
		w.pending.push(fetched{kind: fetchEvents, events: events})
	default:
		w.log.Debug("dropped cocoa event", "type", typ)
	}
}

func (w *cocoaWindow) fetch(block bool) fetched {
	if w.closed.Load() {
		return fetched{kind: fetchGone}
	}
	var out fetched
	autoreleasePool(func() {
		for {
			if f, ok := w.pending.tryPop(); ok {
				out = f
				return
			}
			next := w.sample()
			events := cocoaWindowDiff(w.prev, next)
			if next.Width != w.prev.Width || next.Height != w.prev.Height {
				w.ctx.update()
			}
			w.prev = next
			if len(events) > 0 {
				out = fetched{kind: fetchEvents, events: events}
				return
			}
			if w.closed.Load() {
				out = fetched{kind: fetchGone}
				return
			}

			ev := w.b.nextEvent(block)
			if ev == 0 {
				if block {
					continue
				}
				out = fetched{kind: fetchEmpty}
				return
			}
			w.b.dispatch(ev)
		}
	})
	return out
}

func (w *cocoaWindow) context() nativeContext  { return w.ctx }
func (w *cocoaWindow) pixelFormat() PixelFormat { return w.format }

func (w *cocoaWindow) setTitle(title string) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	autoreleasePool(func() { win.Send(selSetTitle, nsString(title)) })
	return nil
}

func (w *cocoaWindow) show() error {
	win, err := w.window()
	if err != nil {
		return err
	}
	win.Send(selMakeKeyAndOrderFront, objc.ID(0))
	return nil
}

func (w *cocoaWindow) hide() error {
	win, err := w.window()
	if err != nil {
		return err
	}
	win.Send(selOrderOut, objc.ID(0))
	return nil
}

func (w *cocoaWindow) position() (int, int, error) {
	win, err := w.window()
	if err != nil {
		return 0, 0, err
	}
	x, y := w.topLeft(win)
	return x, y, nil
}

func (w *cocoaWindow) setPosition(x, y int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	s := w.scale()
	win.Send(selSetFrameTopLeftPoint, nsPoint{X: float64(x) / s, Y: primaryHeight() - float64(y)/s})
	return nil
}

func (w *cocoaWindow) innerSize() (int, int, error) {
	if _, err := w.window(); err != nil {
		return 0, 0, err
	}
	width, height := w.backingSize()
	return width, height, nil
}

func (w *cocoaWindow) outerSize() (int, int, error) {
	win, err := w.window()
	if err != nil {
		return 0, 0, err
	}
	frame := objc.Send[nsRect](win, selFrame)
	s := w.scale()
	return int(frame.Size.W * s), int(frame.Size.H * s), nil
}

func (w *cocoaWindow) setInnerSize(width, height int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	s := w.scale()
	win.Send(selSetContentSize, nsSize{W: float64(width) / s, H: float64(height) / s})
	w.ctx.update()
	return nil
}

func (w *cocoaWindow) setCursor(c MouseCursor) error {
	if _, err := w.window(); err != nil {
		return err
	}
	cocoaCursor(c).Send(selSet)
	return nil
}

func (w *cocoaWindow) applyCursorActions(actions []cursorAction) error {
	if _, err := w.window(); err != nil {
		return err
	}
	cursor := objc.ID(objc.GetClass("NSCursor"))
	for _, a := range actions {
		switch a {
		case actionHide:
			cursor.Send(selHide)
		case actionShow:
			cursor.Send(selUnhide)
		case actionGrab:
			if cgAssociateMouseAndMouseCursorPosition(false) != 0 {
				return osErr("CGAssociateMouseAndMouseCursorPosition", nil)
			}
		case actionUngrab:
			cgAssociateMouseAndMouseCursorPosition(true)
		}
	}
	return nil
}

// setCursorPosition warps to a point in the content view, given in pixels
// from its top-left corner.
func (w *cocoaWindow) setCursorPosition(x, y int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	content := objc.Send[nsRect](win, selContentRectForFrameRect, objc.Send[nsRect](win, selFrame))
	s := w.scale()
	p := nsPoint{
		X: content.Origin.X + float64(x)/s,
		Y: primaryHeight() - content.Origin.Y - content.Size.H + float64(y)/s,
	}
	if cgWarpMouseCursorPosition(p) != 0 {
		return osErr("CGWarpMouseCursorPosition", nil)
	}
	return nil
}

func (w *cocoaWindow) hidpiFactor() float64 { return w.scale() }

func (w *cocoaWindow) wakeup() error {
	if _, err := w.window(); err != nil {
		return err
	}
	return w.postWake()
}

// postWake posts an application-defined event for this window. postEvent is
// safe from any thread.
func (w *cocoaWindow) postWake() error {
	var posted bool
	autoreleasePool(func() {
		ev := objc.ID(objc.GetClass("NSEvent")).Send(selOtherEvent,
			uint(nsEventTypeApplicationDefined),
			nsPoint{},
			uint(0),
			float64(0),
			w.number,
			objc.ID(0),
			int16(cocoaWakeSubtype),
			0, 0,
		)
		if ev == 0 {
			return
		}
		w.b.app.Send(selPostEventAtStart, ev, false)
		posted = true
	})
	if !posted {
		return osErr("NSEvent otherEventWithType", nil)
	}
	return nil
}

func (w *cocoaWindow) destroy() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	// A blocked fetch on the window's thread returns after this event.
	if err := w.postWake(); err != nil {
		w.log.Debug("wake on close", "error", err)
	}
	w.teardown()
}

// teardown closes and releases the window. The context has been released
// by then.
func (w *cocoaWindow) teardown() {
	w.pending.close()
	win, ok := w.win.Get()
	if !ok {
		return
	}
	w.b.windows.Delete(w.number)
	liveWindows.Delete(win)
	win.Send(selSetDelegate, objc.ID(0))
	win.Send(selOrderOut, objc.ID(0))
	win.Send(selClose)
	w.win.Release()
}

func (w *cocoaWindow) nativeHandles() (uintptr, uintptr) {
	win, _ := w.win.Get()
	return uintptr(w.b.app), uintptr(win)
}
