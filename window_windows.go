//go:build windows

package glwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/tinyrange/glwindow/internal/handle"
	"golang.org/x/sys/windows"
)

func win32CursorID(c MouseCursor) uintptr {
	switch c {
	case CursorCrosshair, CursorCell, CursorZoomIn, CursorZoomOut:
		return idcCross
	case CursorHand, CursorGrabHand, CursorGrabbing:
		return idcHand
	case CursorMove, CursorAllScroll:
		return idcSizeAll
	case CursorText, CursorVerticalText:
		return idcIBeam
	case CursorWait:
		return idcWait
	case CursorProgress:
		return idcAppStarting
	case CursorHelp:
		return idcHelp
	case CursorNotAllowed, CursorNoDrop:
		return idcNo
	case CursorNResize, CursorSResize, CursorNsResize, CursorRowResize:
		return idcSizeNS
	case CursorEResize, CursorWResize, CursorEwResize, CursorColResize:
		return idcSizeWE
	case CursorNeResize, CursorSwResize, CursorNeswResize:
		return idcSizeNESW
	case CursorNwResize, CursorSeResize, CursorNwseResize:
		return idcSizeNWSE
	case CursorAlias, CursorCopy, CursorContextMenu:
		return idcUpArrow
	default:
		return idcArrow
	}
}

type pumpCall struct {
	fn   func() error
	done chan error
}

// win32Window lives on its own pump thread. The window procedure translates
// messages into events, which fetch reads from a queue on any goroutine.
// Calls that must run on the owning thread go through onPump.
type win32Window struct {
	b   *win32Backend
	log *slog.Logger

	// hwnd, hdc and threadID are set during construction and never change.
	hwnd     windows.HWND
	hdc      uintptr
	threadID uint32
	style    uint32
	exStyle  uint32

	win  *handle.Owned[windows.HWND]
	dc   *handle.Owned[uintptr]
	icon *handle.Owned[uintptr]

	ctx    *wglContext
	format PixelFormat

	// tr is only used by the window procedure.
	tr     win32Translator
	events *syncQueue[fetched]
	closed atomic.Bool
	done   chan struct{}

	callMu sync.Mutex
	calls  []pumpCall

	cursor  atomic.Uintptr
	hidden  atomic.Bool
	grabbed bool

	// fullscreenDevice is the display whose mode was changed.
	fullscreenDevice string
}

func (b *win32Backend) newWindow(cfg *windowConfig) (nativeWindow, error) {
	className := b.className
	if name := cfg.extras.ClassName; name != "" {
		if err := b.registerClass(name); err != nil {
			return nil, creationErr(StageWindow, err)
		}
		className = name
	}
	if m := cfg.attrs.Monitor; m != nil && m.backend != BackendWin32 {
		return nil, creationErr(StageWindow, fmt.Errorf("%w: monitor from %s backend", ErrNotSupported, m.backend))
	}

	w := &win32Window{
		b:      b,
		log:    cfg.log,
		win:    handle.Absent[windows.HWND](),
		dc:     handle.Absent[uintptr](),
		icon:   handle.Absent[uintptr](),
		tr:     win32Translator{wakeMsg: b.wakeMsg},
		events: newSyncQueue[fetched](),
		done:   make(chan struct{}),
	}
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)
	w.cursor.Store(cursor)

	built, err := runOnPumpThread(func() (*win32Window, error) {
		if err := w.build(cfg, className); err != nil {
			w.teardown()
			return nil, err
		}
		return w, nil
	}, (*win32Window).pump)
	if err != nil {
		return nil, err
	}
	return built, nil
}

// build creates the window, its pixel format and its context on the pump
// thread.
func (w *win32Window) build(cfg *windowConfig, className string) error {
	w.threadID = currentThreadID()
	w.b.creating.Store(w.threadID, w)
	defer w.b.creating.Delete(w.threadID)

	w.style = wsClipSiblings | wsClipChildren
	if cfg.attrs.Decorations && cfg.attrs.Monitor == nil {
		w.style |= wsOverlappedWindow
	} else {
		w.style |= wsPopup
	}
	w.exStyle = wsExAppWindow

	x, y := int32(cwUseDefault), int32(cwUseDefault)
	width, height := cfg.attrs.size()
	if m := cfg.attrs.Monitor; m != nil {
		if err := w.enterFullscreen(m); err != nil {
			return creationErr(StageWindow, err)
		}
		x, y, width, height = int32(m.x), int32(m.y), m.width, m.height
	}
	r := rect{right: int32(width), bottom: int32(height)}
	procAdjustWindowRectEx.Call(uintptr(unsafe.Pointer(&r)), uintptr(w.style), 0, uintptr(w.exStyle))

	title := cfg.attrs.Title
	if title == "" {
		title = defaultTitle
	}
	clearLastError()
	hwnd, _, _ := procCreateWindowEx.Call(
		uintptr(w.exStyle),
		uintptr(unsafe.Pointer(utf16Ptr(className))),
		uintptr(unsafe.Pointer(utf16Ptr(title))),
		uintptr(w.style),
		uintptr(x), uintptr(y),
		uintptr(r.right-r.left), uintptr(r.bottom-r.top),
		0, 0,
		uintptr(w.b.instance),
		0,
	)
	if hwnd == 0 {
		return creationErr(StageWindow, winErr("CreateWindowExW"))
	}
	w.hwnd = windows.HWND(hwnd)
	w.b.windows.Store(w.hwnd, w)
	w.win = handle.New(w.hwnd, func(h windows.HWND) { procDestroyWindow.Call(uintptr(h)) })

	hdc, _, _ := procGetDC.Call(hwnd)
	if hdc == 0 {
		return creationErr(StageWindow, winErr("GetDC"))
	}
	w.hdc = hdc
	w.dc = handle.New(hdc, func(h uintptr) { procReleaseDC.Call(hwnd, h) })

	if cfg.attrs.Transparent {
		if err := w.enableBlurBehind(); err != nil {
			w.log.Debug("enable transparency", "error", err)
		}
	}
	if cfg.icon != nil {
		if err := w.setIcon(cfg.icon); err != nil {
			w.log.Debug("set window icon", "error", err)
		}
	}

	chosen, err := wglChoosePixelFormat(hdc, cfg.pf)
	if err != nil {
		return creationErr(StagePixelFormat, err)
	}
	if err := wglSetPixelFormat(hdc, chosen.id); err != nil {
		return creationErr(StagePixelFormat, err)
	}
	w.format = chosen.format

	if w.ctx, err = newWGLContext(hdc, cfg.gl, cfg.share); err != nil {
		return creationErr(StageContext, err)
	}

	if cfg.attrs.Visible {
		procShowWindow.Call(hwnd, swShow)
	}
	return nil
}

// enterFullscreen switches the monitor to its current resolution as an
// exclusive fullscreen mode.
func (w *win32Window) enterFullscreen(m *MonitorID) error {
	var dm devMode
	dm.size = uint16(unsafe.Sizeof(dm))
	dm.fields = dmPelsWidth | dmPelsHeight | dmBitsPerPel
	dm.pelsWidth = uint32(m.width)
	dm.pelsHeight = uint32(m.height)
	dm.bitsPerPel = 32

	device := utf16Ptr(m.device)
	if r, _, _ := procChangeDisplaySettingsEx.Call(uintptr(unsafe.Pointer(device)), uintptr(unsafe.Pointer(&dm)), 0, cdsFullscreen, 0); int32(r) != dispChangeSuccessful {
		return fmt.Errorf("%w: ChangeDisplaySettingsExW returned %d", ErrOsError, int32(r))
	}
	w.fullscreenDevice = m.device
	return nil
}

func (w *win32Window) enableBlurBehind() error {
	if err := mustFindProc(procDwmEnableBlurBehindWindow); err != nil {
		return err
	}
	region, _, _ := procCreateRectRgn.Call(0, 0, ^uintptr(0), ^uintptr(0))
	defer procDeleteObject.Call(region)
	bb := dwmBlurBehind{
		flags:      dwmBBEnable | dwmBBBlurRegion,
		enable:     1,
		blurRegion: windows.Handle(region),
	}
	if hr, _, _ := procDwmEnableBlurBehindWindow.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&bb))); hr != 0 {
		return osErr("DwmEnableBlurBehindWindow", windows.Errno(hr))
	}
	return nil
}

// setIcon builds a 32 bit icon with an all zero AND mask, so the alpha
// channel alone decides transparency.
func (w *win32Window) setIcon(ic *icon) error {
	stride := (ic.width + 15) / 16 * 2
	mask := make([]byte, stride*ic.height)
	bits := ic.bgra()

	clearLastError()
	h, _, _ := procCreateIcon.Call(
		uintptr(w.b.instance),
		uintptr(ic.width), uintptr(ic.height),
		1, 32,
		uintptr(unsafe.Pointer(&mask[0])),
		uintptr(unsafe.Pointer(&bits[0])),
	)
	if h == 0 {
		return winErr("CreateIcon")
	}
	w.icon = handle.New(h, func(h uintptr) { procDestroyIcon.Call(h) })
	procSendMessage.Call(uintptr(w.hwnd), wmSetIcon, iconSmall, h)
	procSendMessage.Call(uintptr(w.hwnd), wmSetIcon, iconBig, h)
	return nil
}

// pump runs the thread's message loop until WM_DESTROY posts WM_QUIT.
func (w *win32Window) pump() {
	defer close(w.done)
	defer w.events.close()

	var m msg
	for {
		r, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// handle runs inside the window procedure. It reports false when the
// message should also reach DefWindowProcW.
func (w *win32Window) handle(message uint32, wParam, lParam uintptr) (uintptr, bool) {
	switch message {
	case wmRunOnPump:
		w.drainCalls()
		return 0, true
	case wmSetCursor:
		if loword(lParam) != htClient {
			return 0, false
		}
		cur := w.cursor.Load()
		if w.hidden.Load() {
			cur = 0
		}
		procSetCursor.Call(cur)
		return 1, true
	case wmDestroy:
		w.b.windows.Delete(w.hwnd)
		procPostQuitMessage.Call(0)
		return 0, true
	}

	events, wake := w.tr.translate(&win32Message{Msg: message, WParam: wParam, LParam: lParam})
	switch {
	case wake:
		w.events.push(fetched{kind: fetchWake})
		return 0, true
	case len(events) > 0:
		w.events.push(fetched{kind: fetchEvents, events: events})
	}
	// Closing is left to the application.
	if message == wmClose {
		return 0, true
	}
	return 0, false
}

func (w *win32Window) fetch(block bool) fetched {
	if w.closed.Load() {
		return fetched{kind: fetchGone}
	}
	var (
		f  fetched
		ok bool
	)
	if block {
		f, ok = w.events.pop()
	} else {
		f, ok = w.events.tryPop()
	}
	switch {
	case ok:
		return f
	case w.events.isClosed():
		return fetched{kind: fetchGone}
	}
	return fetched{kind: fetchEmpty}
}

// onPump runs fn on the window's thread and waits for its result.
func (w *win32Window) onPump(fn func() error) error {
	if currentThreadID() == w.threadID {
		return fn()
	}
	call := pumpCall{fn: fn, done: make(chan error, 1)}
	w.callMu.Lock()
	w.calls = append(w.calls, call)
	w.callMu.Unlock()

	clearLastError()
	if r, _, _ := procPostMessage.Call(uintptr(w.hwnd), wmRunOnPump, 0, 0); r == 0 {
		return winErr("PostMessageW")
	}
	select {
	case err := <-call.done:
		return err
	case <-w.done:
		return ErrWindowClosed
	}
}

func (w *win32Window) drainCalls() {
	w.callMu.Lock()
	calls := w.calls
	w.calls = nil
	w.callMu.Unlock()

	for _, c := range calls {
		c.done <- c.fn()
	}
}

func (w *win32Window) live() error {
	if w.closed.Load() {
		return ErrWindowClosed
	}
	return nil
}

func (w *win32Window) context() nativeContext  { return w.ctx }
func (w *win32Window) pixelFormat() PixelFormat { return w.format }

func (w *win32Window) setTitle(title string) error {
	if err := w.live(); err != nil {
		return err
	}
	return w.onPump(func() error {
		clearLastError()
		if r, _, _ := procSetWindowText.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(utf16Ptr(title)))); r == 0 {
			return winErr("SetWindowTextW")
		}
		return nil
	})
}

func (w *win32Window) show() error { return w.showWindow(swShow) }
func (w *win32Window) hide() error { return w.showWindow(swHide) }

func (w *win32Window) showWindow(cmd uintptr) error {
	if err := w.live(); err != nil {
		return err
	}
	return w.onPump(func() error {
		procShowWindow.Call(uintptr(w.hwnd), cmd)
		return nil
	})
}

func (w *win32Window) windowRect() (rect, error) {
	var r rect
	if err := w.live(); err != nil {
		return r, err
	}
	clearLastError()
	if ok, _, _ := procGetWindowRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r))); ok == 0 {
		return r, winErr("GetWindowRect")
	}
	return r, nil
}

func (w *win32Window) position() (int, int, error) {
	r, err := w.windowRect()
	if err != nil {
		return 0, 0, err
	}
	return int(r.left), int(r.top), nil
}

func (w *win32Window) setPosition(x, y int) error {
	return w.setWindowPos(int32(x), int32(y), 0, 0, swpNoSize)
}

func (w *win32Window) innerSize() (int, int, error) {
	if err := w.live(); err != nil {
		return 0, 0, err
	}
	var r rect
	clearLastError()
	if ok, _, _ := procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r))); ok == 0 {
		return 0, 0, winErr("GetClientRect")
	}
	return int(r.right - r.left), int(r.bottom - r.top), nil
}

func (w *win32Window) outerSize() (int, int, error) {
	r, err := w.windowRect()
	if err != nil {
		return 0, 0, err
	}
	return int(r.right - r.left), int(r.bottom - r.top), nil
}

// setInnerSize grows the requested client size by the frame before resizing.
func (w *win32Window) setInnerSize(width, height int) error {
	r := rect{right: int32(width), bottom: int32(height)}
	procAdjustWindowRectEx.Call(uintptr(unsafe.Pointer(&r)), uintptr(w.style), 0, uintptr(w.exStyle))
	return w.setWindowPos(0, 0, r.right-r.left, r.bottom-r.top, swpNoMove)
}

func (w *win32Window) setWindowPos(x, y, cx, cy int32, flags uintptr) error {
	if err := w.live(); err != nil {
		return err
	}
	return w.onPump(func() error {
		clearLastError()
		if r, _, _ := procSetWindowPos.Call(uintptr(w.hwnd), 0,
			uintptr(x), uintptr(y), uintptr(cx), uintptr(cy),
			flags|swpNoZOrder|swpNoActivate); r == 0 {
			return winErr("SetWindowPos")
		}
		return nil
	})
}

func (w *win32Window) setCursor(c MouseCursor) error {
	if err := w.live(); err != nil {
		return err
	}
	clearLastError()
	cur, _, _ := procLoadCursor.Call(0, win32CursorID(c))
	if cur == 0 {
		return winErr("LoadCursorW")
	}
	w.cursor.Store(cur)
	return w.onPump(func() error {
		if !w.hidden.Load() {
			procSetCursor.Call(cur)
		}
		return nil
	})
}

// clipToClient confines the pointer to the client area in screen
// coordinates.
func (w *win32Window) clipToClient() error {
	var r rect
	clearLastError()
	if ok, _, _ := procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r))); ok == 0 {
		return winErr("GetClientRect")
	}
	tl := point{r.left, r.top}
	br := point{r.right, r.bottom}
	procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&tl)))
	procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&br)))
	screen := rect{left: tl.x, top: tl.y, right: br.x, bottom: br.y}
	if ok, _, _ := procClipCursor.Call(uintptr(unsafe.Pointer(&screen))); ok == 0 {
		return winErr("ClipCursor")
	}
	return nil
}

func (w *win32Window) applyCursorActions(actions []cursorAction) error {
	if err := w.live(); err != nil {
		return err
	}
	return w.onPump(func() error {
		for _, a := range actions {
			switch a {
			case actionHide:
				w.hidden.Store(true)
				procSetCursor.Call(0)
			case actionShow:
				w.hidden.Store(false)
				procSetCursor.Call(w.cursor.Load())
			case actionGrab:
				if err := w.clipToClient(); err != nil {
					return err
				}
				w.grabbed = true
			case actionUngrab:
				procClipCursor.Call(0)
				w.grabbed = false
			}
		}
		return nil
	})
}

func (w *win32Window) setCursorPosition(x, y int) error {
	if err := w.live(); err != nil {
		return err
	}
	p := point{int32(x), int32(y)}
	procClientToScreen.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&p)))
	clearLastError()
	if r, _, _ := procSetCursorPos.Call(uintptr(p.x), uintptr(p.y)); r == 0 {
		return winErr("SetCursorPos")
	}
	return nil
}

// hidpiFactor uses GetDpiForWindow (Windows 10 1607+) and falls back to the
// device context's logical DPI.
func (w *win32Window) hidpiFactor() float64 {
	if procGetDpiForWindow.Find() == nil {
		if dpi, _, _ := procGetDpiForWindow.Call(uintptr(w.hwnd)); dpi > 0 {
			return float64(dpi) / 96
		}
	}
	if dpi, _, _ := procGetDeviceCaps.Call(w.hdc, logPixelsX); dpi > 0 {
		return float64(dpi) / 96
	}
	return 1
}

func (w *win32Window) wakeup() error {
	if err := w.live(); err != nil {
		return err
	}
	clearLastError()
	if r, _, _ := procPostMessage.Call(uintptr(w.hwnd), uintptr(w.b.wakeMsg), 0, 0); r == 0 {
		return winErr("PostMessageW")
	}
	return nil
}

// destroy tears the window down on its pump thread and waits for the pump
// to exit. Blocked fetches return fetchGone straight away.
func (w *win32Window) destroy() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.events.close()
	err := w.onPump(func() error {
		w.teardown()
		return nil
	})
	if err != nil && !errors.Is(err, ErrWindowClosed) {
		w.log.Warn("destroy window", "error", err)
		return
	}
	<-w.done
}

// teardown runs on the pump thread. It restores the display mode and
// releases the device context, window and icon. The context has been
// released by then.
func (w *win32Window) teardown() {
	if w.grabbed {
		procClipCursor.Call(0)
		w.grabbed = false
	}
	if w.fullscreenDevice != "" {
		procChangeDisplaySettingsEx.Call(uintptr(unsafe.Pointer(utf16Ptr(w.fullscreenDevice))), 0, 0, 0, 0)
		w.fullscreenDevice = ""
	}
	w.dc.Release()
	w.win.Release()
	w.icon.Release()
}

func (w *win32Window) nativeHandles() (uintptr, uintptr) {
	return uintptr(w.b.instance), uintptr(w.hwnd)
}
