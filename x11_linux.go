//go:build linux

package glwindow

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/tinyrange/glwindow/internal/handle"
)

// X cursor font glyphs.
const (
	xcXCursor           = 0
	xcArrow             = 2
	xcBottomLeftCorner  = 12
	xcBottomRightCorner = 14
	xcBottomSide        = 16
	xcCrosshair         = 34
	xcFleur             = 52
	xcHand1             = 58
	xcHand2             = 60
	xcLeftPtr           = 68
	xcLeftSide          = 70
	xcPlus              = 90
	xcQuestionArrow     = 92
	xcRightSide         = 96
	xcSbHDoubleArrow    = 108
	xcSbVDoubleArrow    = 116
	xcTopLeftCorner     = 134
	xcTopRightCorner    = 136
	xcTopSide           = 138
	xcWatch             = 150
	xcXterm             = 152
)

func x11CursorShape(c MouseCursor) uint32 {
	switch c {
	case CursorArrow:
		return xcArrow
	case CursorCrosshair, CursorZoomIn, CursorZoomOut:
		return xcCrosshair
	case CursorHand:
		return xcHand2
	case CursorGrabHand:
		return xcHand1
	case CursorMove, CursorAllScroll, CursorGrabbing:
		return xcFleur
	case CursorText, CursorVerticalText:
		return xcXterm
	case CursorWait, CursorProgress:
		return xcWatch
	case CursorHelp:
		return xcQuestionArrow
	case CursorNotAllowed, CursorNoDrop:
		return xcXCursor
	case CursorCell:
		return xcPlus
	case CursorEResize:
		return xcRightSide
	case CursorWResize:
		return xcLeftSide
	case CursorNResize:
		return xcTopSide
	case CursorSResize:
		return xcBottomSide
	case CursorNeResize, CursorNeswResize:
		return xcTopRightCorner
	case CursorNwResize:
		return xcTopLeftCorner
	case CursorSeResize, CursorNwseResize:
		return xcBottomRightCorner
	case CursorSwResize:
		return xcBottomLeftCorner
	case CursorEwResize, CursorColResize:
		return xcSbHDoubleArrow
	case CursorNsResize, CursorRowResize:
		return xcSbVDoubleArrow
	default:
		return xcLeftPtr
	}
}

type x11Window struct {
	b   *x11Backend
	log *slog.Logger

	dpy  uintptr
	conn *handle.Owned[uintptr]
	win  *handle.Owned[uintptr]
	cmap *handle.Owned[uintptr]

	ctx    nativeContext
	format PixelFormat

	// tr is only used by fetch.
	tr     x11Translator
	closed atomic.Bool

	cursorMu sync.Mutex
	shape    uintptr
	blank    uintptr
	hidden   bool
}

func (b *x11Backend) newWindow(cfg *windowConfig) (_ nativeWindow, retErr error) {
	// The X error slot is process wide, so creations take turns.
	b.createMu.Lock()
	defer b.createMu.Unlock()

	w := &x11Window{
		b:    b,
		log:  cfg.log,
		dpy:  b.dpy,
		conn: b.conn.Clone(),
		win:  handle.Absent[uintptr](),
		cmap: handle.Absent[uintptr](),
	}
	defer func() {
		if retErr != nil {
			w.teardown()
		}
	}()
	if !w.conn.Valid() {
		return nil, creationErr(StageBackend, fmt.Errorf("%w: display closed", ErrNoBackendAvailable))
	}

	var (
		chosen formatCandidate[uintptr]
		vi     *XVisualInfo
		edpy   uintptr
		err    error
	)
	switch cfg.variant {
	case VariantGLX:
		chosen, vi, err = glxChooseConfig(b.dpy, b.screen, cfg.pf, cfg.attrs.Transparent)
	case VariantEGL:
		if edpy, err = b.egl(); err == nil {
			chosen, vi, err = eglChooseConfig(edpy, b.dpy, cfg.pf, cfg.gl.Request.Major)
		}
	default:
		err = fmt.Errorf("%w: %s on x11", ErrNotSupported, cfg.variant)
	}
	if err != nil {
		return nil, creationErr(StagePixelFormat, err)
	}
	defer xFree(unsafe.Pointer(vi))

	x, y := 0, 0
	width, height := cfg.attrs.size()
	if m := cfg.attrs.Monitor; m != nil {
		if m.backend != BackendX11 {
			return nil, creationErr(StageWindow, fmt.Errorf("%w: monitor from %s backend", ErrNotSupported, m.backend))
		}
		x, y, width, height = m.x, m.y, m.width, m.height
	}

	cmap := xCreateColormap(b.dpy, b.root, vi.Visual, 0)
	w.cmap = handle.New(cmap, func(h uintptr) { xFreeColormap(b.dpy, h) })

	swa := xSetWindowAttributes{
		Colormap: cmap,
		EventMask: keyPressMask | keyReleaseMask | buttonPressMask | buttonReleaseMask |
			pointerMotionMask | exposureMask | structureNotifyMask | focusChangeMask,
	}
	valueMask := uint64(cwBorderPixel | cwColormap | cwEventMask)
	if cfg.attrs.Transparent {
		valueMask |= cwBackPixel
	}

	clearXError()
	win := xCreateWindow(
		b.dpy, b.root,
		int32(x), int32(y),
		uint32(width), uint32(height),
		0,
		vi.Depth,
		inputOutput,
		vi.Visual,
		valueMask,
		unsafe.Pointer(&swa),
	)
	if xerr := takeXError(b.dpy); win == 0 || xerr != nil {
		return nil, creationErr(StageWindow, osErr("XCreateWindow", xerr))
	}
	w.win = handle.New(win, func(h uintptr) { xDestroyWindow(b.dpy, h) })

	wmDelete := uintptr(b.wmDelete)
	xSetWMProtocols(b.dpy, win, &wmDelete, 1)
	w.applyHints(cfg)

	switch cfg.variant {
	case VariantGLX:
		w.ctx, err = newGLXContext(b.dpy, b.screen, win, chosen.id, cfg.gl, cfg.share)
	case VariantEGL:
		w.ctx, err = newEGLContext(edpy, chosen.id, win, cfg.gl, cfg.share)
	}
	if err != nil {
		return nil, creationErr(StageContext, err)
	}
	w.format = chosen.format
	w.tr = x11Translator{wmDelete: uint64(b.wmDelete), wakeAtom: uint64(b.wakeAtom)}

	if cfg.attrs.Visible {
		xMapRaised(b.dpy, win)
	}
	xFlush(b.dpy)
	return w, nil
}

// applyHints sets the window manager properties. Failures only lose a
// cosmetic hint, so they are logged.
func (w *x11Window) applyHints(cfg *windowConfig) {
	win, _ := w.win.Get()
	xw := xproto.Window(win)
	xu := w.b.xu

	title := cfg.attrs.Title
	if title == "" {
		title = defaultTitle
	}
	xStoreName(w.dpy, win, title)
	if err := ewmh.WmNameSet(xu, xw, title); err != nil {
		w.log.Debug("set _NET_WM_NAME", "error", err)
	}
	if name := cfg.extras.ClassName; name != "" {
		if err := icccm.WmClassSet(xu, xw, &icccm.WmClass{Instance: name, Class: name}); err != nil {
			w.log.Debug("set WM_CLASS", "error", err)
		}
	}
	if !cfg.attrs.Decorations {
		hints := &motif.Hints{Flags: motif.HintDecorations, Decoration: motif.DecorationNone}
		if err := motif.WmHintsSet(xu, xw, hints); err != nil {
			w.log.Debug("set _MOTIF_WM_HINTS", "error", err)
		}
	}
	if ic := cfg.icon; ic != nil {
		data := make([]uint, len(ic.argb))
		for i, px := range ic.argb {
			data[i] = uint(px)
		}
		icons := []ewmh.WmIcon{{Width: uint(ic.width), Height: uint(ic.height), Data: data}}
		if err := ewmh.WmIconSet(xu, xw, icons); err != nil {
			w.log.Debug("set _NET_WM_ICON", "error", err)
		}
	}
	if cfg.attrs.Monitor != nil {
		if err := ewmh.WmStateSet(xu, xw, []string{"_NET_WM_STATE_FULLSCREEN"}); err != nil {
			w.log.Debug("set _NET_WM_STATE", "error", err)
		}
	}
}

func (w *x11Window) fetch(block bool) fetched {
	win, ok := w.win.Get()
	if !ok || w.closed.Load() {
		return fetched{kind: fetchGone}
	}

	var ev xEvent
	if block {
		xIfEvent(w.dpy, &ev, x11WindowPredicate, win)
	} else if xCheckIfEvent(w.dpy, &ev, x11WindowPredicate, win) == 0 {
		return fetched{kind: fetchEmpty}
	}
	if w.closed.Load() {
		return fetched{kind: fetchGone}
	}

	events, wake := w.tr.translate(decodeXEvent(&ev))
	switch {
	case wake:
		return fetched{kind: fetchWake}
	case len(events) == 0:
		w.log.Debug("dropped x11 event", "type", ev.i32(0))
		return fetched{kind: fetchDropped}
	}
	return fetched{kind: fetchEvents, events: events}
}

// decodeXEvent copies the fields translation needs out of a raw XEvent.
func decodeXEvent(ev *xEvent) *x11Event {
	out := &x11Event{Type: ev.i32(0)}
	switch out.Type {
	case x11KeyPress, x11KeyRelease:
		out.Keycode = ev.u32(xevKeycode)
		var buf [32]byte
		var sym uint64
		n := xLookupString(ev, &buf[0], int32(len(buf)), &sym, 0)
		out.Keysym = sym
		if out.Type == x11KeyPress && n > 0 {
			out.Text = append([]byte(nil), buf[:n]...)
		}
	case x11ButtonPress, x11ButtonRelease:
		out.Button = ev.u32(xevKeycode)
		out.X, out.Y = ev.i32(xevX), ev.i32(xevY)
	case x11MotionNotify:
		out.X, out.Y = ev.i32(xevX), ev.i32(xevY)
	case x11ConfigureNotify:
		out.X, out.Y = ev.i32(xevConfigureX), ev.i32(xevConfigureY)
		out.Width, out.Height = ev.i32(xevConfigureW), ev.i32(xevConfigureH)
	case x11ClientMessage:
		out.MessageType = ev.u64(xevMessageType)
		out.Format = ev.i32(xevFormat)
		out.Data0 = ev.u64(xevClientData0)
	}
	return out
}

func (w *x11Window) context() nativeContext  { return w.ctx }
func (w *x11Window) pixelFormat() PixelFormat { return w.format }

func (w *x11Window) window() (uintptr, error) {
	win, ok := w.win.Get()
	if !ok {
		return 0, ErrWindowClosed
	}
	return win, nil
}

func (w *x11Window) setTitle(title string) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xStoreName(w.dpy, win, title)
	xFlush(w.dpy)
	if err := ewmh.WmNameSet(w.b.xu, xproto.Window(win), title); err != nil {
		return osErr("set _NET_WM_NAME", err)
	}
	return nil
}

func (w *x11Window) show() error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xMapRaised(w.dpy, win)
	xFlush(w.dpy)
	return nil
}

func (w *x11Window) hide() error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xUnmapWindow(w.dpy, win)
	xFlush(w.dpy)
	return nil
}

// frameExtents returns the decoration sizes, or zeros when the window
// manager does not publish them.
func (w *x11Window) frameExtents(win uintptr) ewmh.FrameExtents {
	ext, err := ewmh.FrameExtentsGet(w.b.xu, xproto.Window(win))
	if err != nil || ext == nil {
		return ewmh.FrameExtents{}
	}
	return *ext
}

func (w *x11Window) position() (int, int, error) {
	win, err := w.window()
	if err != nil {
		return 0, 0, err
	}
	var x, y int32
	var child uintptr
	if xTranslateCoordinates(w.dpy, win, w.b.root, 0, 0, &x, &y, &child) == 0 {
		return 0, 0, osErr("XTranslateCoordinates", nil)
	}
	ext := w.frameExtents(win)
	return int(x) - ext.Left, int(y) - ext.Top, nil
}

func (w *x11Window) setPosition(x, y int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xMoveWindow(w.dpy, win, int32(x), int32(y))
	xFlush(w.dpy)
	return nil
}

func (w *x11Window) innerSize() (int, int, error) {
	win, err := w.window()
	if err != nil {
		return 0, 0, err
	}
	var root uintptr
	var x, y int32
	var width, height, border, depth uint32
	if xGetGeometry(w.dpy, win, &root, &x, &y, &width, &height, &border, &depth) == 0 {
		return 0, 0, osErr("XGetGeometry", nil)
	}
	return int(width), int(height), nil
}

func (w *x11Window) outerSize() (int, int, error) {
	width, height, err := w.innerSize()
	if err != nil {
		return 0, 0, err
	}
	win, _ := w.win.Get()
	ext := w.frameExtents(win)
	return width + ext.Left + ext.Right, height + ext.Top + ext.Bottom, nil
}

func (w *x11Window) setInnerSize(width, height int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xResizeWindow(w.dpy, win, uint32(width), uint32(height))
	xFlush(w.dpy)
	return nil
}

func (w *x11Window) setCursor(c MouseCursor) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	cur := xCreateFontCursor(w.dpy, x11CursorShape(c))
	if cur == 0 {
		return osErr("XCreateFontCursor", nil)
	}

	w.cursorMu.Lock()
	old := w.shape
	w.shape = cur
	if !w.hidden {
		xDefineCursor(w.dpy, win, cur)
	}
	w.cursorMu.Unlock()

	if old != 0 {
		xFreeCursor(w.dpy, old)
	}
	xFlush(w.dpy)
	return nil
}

// blankCursor returns an invisible cursor, creating it on first use. The
// caller holds cursorMu.
func (w *x11Window) blankCursor(win uintptr) uintptr {
	if w.blank != 0 {
		return w.blank
	}
	var bits [8]byte
	pix := xCreateBitmapFromData(w.dpy, win, &bits[0], 8, 8)
	if pix == 0 {
		return 0
	}
	var black xColor
	w.blank = xCreatePixmapCursor(w.dpy, pix, pix, &black, &black, 0, 0)
	xFreePixmap(w.dpy, pix)
	return w.blank
}

func (w *x11Window) applyCursorActions(actions []cursorAction) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	defer xFlush(w.dpy)

	for _, a := range actions {
		switch a {
		case actionHide:
			blank := w.blankCursor(win)
			if blank == 0 {
				return osErr("create blank cursor", nil)
			}
			xDefineCursor(w.dpy, win, blank)
			w.hidden = true
		case actionShow:
			// A zero shape restores the parent's cursor.
			xDefineCursor(w.dpy, win, w.shape)
			w.hidden = false
		case actionGrab:
			r := xGrabPointer(w.dpy, win, 1,
				buttonPressMask|buttonReleaseMask|pointerMotionMask,
				grabModeAsync, grabModeAsync, win, 0, 0)
			if r != grabSuccess {
				return fmt.Errorf("%w: XGrabPointer returned %d", ErrOsError, r)
			}
		case actionUngrab:
			xUngrabPointer(w.dpy, 0)
		}
	}
	return nil
}

func (w *x11Window) setCursorPosition(x, y int) error {
	win, err := w.window()
	if err != nil {
		return err
	}
	xWarpPointer(w.dpy, 0, win, 0, 0, 0, 0, int32(x), int32(y))
	xFlush(w.dpy)
	return nil
}

func (w *x11Window) hidpiFactor() float64 { return w.b.scale }

// wakeup posts the wake ClientMessage through the xgb connection, so it
// never contends with a thread blocked inside Xlib.
func (w *x11Window) wakeup() error {
	win, err := w.window()
	if err != nil || w.closed.Load() {
		return ErrWindowClosed
	}
	xw := xproto.Window(win)
	if err := w.b.sendClientMessage(xw, xw, w.b.wakeAtom, 0); err != nil {
		return osErr("send wakeup", err)
	}
	return nil
}

func (w *x11Window) destroy() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	// Unblock a fetch waiting in XIfEvent before the window goes away.
	if win, ok := w.win.Get(); ok {
		xw := xproto.Window(win)
		if err := w.b.sendClientMessage(xw, xw, w.b.wakeAtom, 0); err != nil {
			w.log.Debug("wake on close", "error", err)
		}
	}
	w.teardown()
}

// teardown releases the window, its colormap and the display reference, in
// that order. The context has been released by then.
func (w *x11Window) teardown() {
	w.cursorMu.Lock()
	if w.shape != 0 {
		xFreeCursor(w.dpy, w.shape)
		w.shape = 0
	}
	if w.blank != 0 {
		xFreeCursor(w.dpy, w.blank)
		w.blank = 0
	}
	w.cursorMu.Unlock()

	w.win.Release()
	w.cmap.Release()
	xFlush(w.dpy)
	w.conn.Release()
}

func (w *x11Window) nativeHandles() (uintptr, uintptr) {
	win, _ := w.win.Get()
	return w.dpy, win
}
