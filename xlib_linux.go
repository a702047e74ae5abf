//go:build linux

package glwindow

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	inputOutput = 1

	keyPressMask        = 1 << 0
	keyReleaseMask      = 1 << 1
	buttonPressMask     = 1 << 2
	buttonReleaseMask   = 1 << 3
	pointerMotionMask   = 1 << 6
	exposureMask        = 1 << 15
	structureNotifyMask = 1 << 17
	focusChangeMask     = 1 << 21

	cwBackPixel   = 1 << 1
	cwBorderPixel = 1 << 3
	cwEventMask   = 1 << 11
	cwColormap    = 1 << 13

	visualIDMask = 0x1

	grabModeAsync = 1
	grabSuccess   = 0
)

// Offsets into an XEvent on LP64.
const (
	xevWindow       = 32
	xevX            = 64
	xevY            = 68
	xevKeycode      = 84 // also XButtonEvent.button
	xevConfigureX   = 48
	xevConfigureY   = 52
	xevConfigureW   = 56
	xevConfigureH   = 60
	xevMessageType  = 40
	xevFormat       = 48
	xevClientData0  = 56
	xErrorCodeOff   = 32
	xErrorRequestOf = 33
)

// xEvent is sizeof(XEvent): 24 longs.
type xEvent [24]uint64

func (e *xEvent) at(off uintptr) unsafe.Pointer { return unsafe.Add(unsafe.Pointer(e), off) }
func (e *xEvent) i32(off uintptr) int32        { return *(*int32)(e.at(off)) }
func (e *xEvent) u32(off uintptr) uint32       { return *(*uint32)(e.at(off)) }
func (e *xEvent) u64(off uintptr) uint64       { return *(*uint64)(e.at(off)) }

type XVisualInfo struct {
	Visual       uintptr
	VisualID     uint64
	Screen       int32
	Depth        int32
	Class        int32
	RedMask      uint64
	GreenMask    uint64
	BlueMask     uint64
	ColormapSize int32
	BitsPerRGB   int32
}

type xSetWindowAttributes struct {
	BackgroundPixmap uintptr
	BackgroundPixel  uint64
	BorderPixmap     uint64
	BorderPixel      uint64
	BitGravity       int32
	WinGravity       int32
	BackingStore     int32
	BackingPlanes    uint64
	BackingPixel     uint64
	SaveUnder        int32
	EventMask        int64
	DoNotPropagate   int64
	OverrideRedirect int32
	Colormap         uintptr
	Cursor           uintptr
}

type xColor struct {
	Pixel            uint64
	Red, Green, Blue uint16
	Flags            uint8
	pad              uint8
}

var (
	x11lib uintptr
	gllib  uintptr
	egllib uintptr

	xInitThreads           func() int32
	xOpenDisplay           func(*byte) uintptr
	xCloseDisplay          func(uintptr) int32
	xDefaultScreen         func(uintptr) int32
	xRootWindow            func(uintptr, int32) uintptr
	xCreateColormap        func(uintptr, uintptr, uintptr, int32) uintptr
	xFreeColormap          func(uintptr, uintptr) int32
	xCreateWindow          func(uintptr, uintptr, int32, int32, uint32, uint32, uint32, int32, uint32, uintptr, uint64, unsafe.Pointer) uintptr
	xDestroyWindow         func(uintptr, uintptr) int32
	xMapRaised             func(uintptr, uintptr) int32
	xUnmapWindow           func(uintptr, uintptr) int32
	xStoreName             func(uintptr, uintptr, string) int32
	xSetWMProtocols        func(uintptr, uintptr, *uintptr, int32) int32
	xSelectInput           func(uintptr, uintptr, int64) int32
	xFlush                 func(uintptr) int32
	xSync                  func(uintptr, int32) int32
	xIfEvent               func(uintptr, *xEvent, uintptr, uintptr) int32
	xCheckIfEvent          func(uintptr, *xEvent, uintptr, uintptr) int32
	xLookupString          func(*xEvent, *byte, int32, *uint64, uintptr) int32
	xGetGeometry           func(uintptr, uintptr, *uintptr, *int32, *int32, *uint32, *uint32, *uint32, *uint32) int32
	xTranslateCoordinates  func(uintptr, uintptr, uintptr, int32, int32, *int32, *int32, *uintptr) int32
	xMoveWindow            func(uintptr, uintptr, int32, int32) int32
	xResizeWindow          func(uintptr, uintptr, uint32, uint32) int32
	xCreateFontCursor      func(uintptr, uint32) uintptr
	xDefineCursor          func(uintptr, uintptr, uintptr) int32
	xFreeCursor            func(uintptr, uintptr) int32
	xCreateBitmapFromData  func(uintptr, uintptr, *byte, uint32, uint32) uintptr
	xCreatePixmapCursor    func(uintptr, uintptr, uintptr, *xColor, *xColor, uint32, uint32) uintptr
	xFreePixmap            func(uintptr, uintptr) int32
	xGrabPointer           func(uintptr, uintptr, int32, uint32, int32, int32, uintptr, uintptr, uint64) int32
	xUngrabPointer         func(uintptr, uint64) int32
	xWarpPointer           func(uintptr, uintptr, uintptr, int32, int32, uint32, uint32, int32, int32) int32
	xFree                  func(unsafe.Pointer) int32
	xGetVisualInfo         func(uintptr, int64, *XVisualInfo, *int32) *XVisualInfo
	xSetErrorHandler       func(uintptr) uintptr
	xGetErrorText          func(uintptr, int32, *byte, int32) int32
	xDisplayWidth          func(uintptr, int32) int32
	xDisplayWidthMM        func(uintptr, int32) int32
	xDisplayHeight         func(uintptr, int32) int32
	xResourceManagerString func(uintptr) *byte

	// x11WindowPredicate matches events whose window field equals the
	// predicate argument.
	x11WindowPredicate uintptr
	// x11ErrorHandler records protocol errors instead of exiting.
	x11ErrorHandler uintptr
)

var (
	libsOnce sync.Once
	libsErr  error
)

// ensureLibs loads libX11 and libGL once. libEGL is optional.
func ensureLibs() error {
	libsOnce.Do(func() {
		var err error
		x11lib, err = purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			libsErr = fmt.Errorf("load libX11: %w", err)
			return
		}
		registerX11()

		gllib, err = purego.Dlopen("libGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			libsErr = fmt.Errorf("load libGL: %w", err)
			return
		}
		registerGLX()

		if egllib, err = purego.Dlopen("libEGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL); err == nil {
			registerEGL()
		} else {
			egllib = 0
		}

		x11WindowPredicate = purego.NewCallback(func(_, ev, arg uintptr) uintptr {
			if *(*uintptr)(unsafe.Pointer(ev + xevWindow)) == arg {
				return 1
			}
			return 0
		})
		x11ErrorHandler = purego.NewCallback(recordXError)
	})
	return libsErr
}

func registerX11() {
	purego.RegisterLibFunc(&xInitThreads, x11lib, "XInitThreads")
	purego.RegisterLibFunc(&xOpenDisplay, x11lib, "XOpenDisplay")
	purego.RegisterLibFunc(&xCloseDisplay, x11lib, "XCloseDisplay")
	purego.RegisterLibFunc(&xDefaultScreen, x11lib, "XDefaultScreen")
	purego.RegisterLibFunc(&xRootWindow, x11lib, "XRootWindow")
	purego.RegisterLibFunc(&xCreateColormap, x11lib, "XCreateColormap")
	purego.RegisterLibFunc(&xFreeColormap, x11lib, "XFreeColormap")
	purego.RegisterLibFunc(&xCreateWindow, x11lib, "XCreateWindow")
	purego.RegisterLibFunc(&xDestroyWindow, x11lib, "XDestroyWindow")
	purego.RegisterLibFunc(&xMapRaised, x11lib, "XMapRaised")
	purego.RegisterLibFunc(&xUnmapWindow, x11lib, "XUnmapWindow")
	purego.RegisterLibFunc(&xStoreName, x11lib, "XStoreName")
	purego.RegisterLibFunc(&xSetWMProtocols, x11lib, "XSetWMProtocols")
	purego.RegisterLibFunc(&xSelectInput, x11lib, "XSelectInput")
	purego.RegisterLibFunc(&xFlush, x11lib, "XFlush")
	purego.RegisterLibFunc(&xSync, x11lib, "XSync")
	purego.RegisterLibFunc(&xIfEvent, x11lib, "XIfEvent")
	purego.RegisterLibFunc(&xCheckIfEvent, x11lib, "XCheckIfEvent")
	purego.RegisterLibFunc(&xLookupString, x11lib, "XLookupString")
	purego.RegisterLibFunc(&xGetGeometry, x11lib, "XGetGeometry")
	purego.RegisterLibFunc(&xTranslateCoordinates, x11lib, "XTranslateCoordinates")
	purego.RegisterLibFunc(&xMoveWindow, x11lib, "XMoveWindow")
	purego.RegisterLibFunc(&xResizeWindow, x11lib, "XResizeWindow")
	purego.RegisterLibFunc(&xCreateFontCursor, x11lib, "XCreateFontCursor")
	purego.RegisterLibFunc(&xDefineCursor, x11lib, "XDefineCursor")
	purego.RegisterLibFunc(&xFreeCursor, x11lib, "XFreeCursor")
	purego.RegisterLibFunc(&xCreateBitmapFromData, x11lib, "XCreateBitmapFromData")
	purego.RegisterLibFunc(&xCreatePixmapCursor, x11lib, "XCreatePixmapCursor")
	purego.RegisterLibFunc(&xFreePixmap, x11lib, "XFreePixmap")
	purego.RegisterLibFunc(&xGrabPointer, x11lib, "XGrabPointer")
	purego.RegisterLibFunc(&xUngrabPointer, x11lib, "XUngrabPointer")
	purego.RegisterLibFunc(&xWarpPointer, x11lib, "XWarpPointer")
	purego.RegisterLibFunc(&xFree, x11lib, "XFree")
	purego.RegisterLibFunc(&xGetVisualInfo, x11lib, "XGetVisualInfo")
	purego.RegisterLibFunc(&xSetErrorHandler, x11lib, "XSetErrorHandler")
	purego.RegisterLibFunc(&xGetErrorText, x11lib, "XGetErrorText")
	purego.RegisterLibFunc(&xDisplayWidth, x11lib, "XDisplayWidth")
	purego.RegisterLibFunc(&xDisplayWidthMM, x11lib, "XDisplayWidthMM")
	purego.RegisterLibFunc(&xDisplayHeight, x11lib, "XDisplayHeight")
	// Try to register XResourceManagerString, but don't fail if it's not available
	if _, err := purego.Dlsym(x11lib, "XResourceManagerString"); err == nil {
		purego.RegisterLibFunc(&xResourceManagerString, x11lib, "XResourceManagerString")
	}
}

// xErrorSlot holds the first protocol error since it was last cleared. Xlib
// calls the handler from whichever thread is flushing, so it is guarded.
type xErrorSlot struct {
	mu  sync.Mutex
	err error
}

// record keeps err unless an earlier error is still pending.
func (s *xErrorSlot) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *xErrorSlot) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

func (s *xErrorSlot) take() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.err = nil
	return err
}

// xErrorState is the one slot the process-wide handler writes to. Window
// creation is serialized by the backend, but an asynchronous error from
// another window's request can still land in it.
var xErrorState xErrorSlot

func recordXError(dpy, ev uintptr) uintptr {
	code := *(*uint8)(unsafe.Pointer(ev + xErrorCodeOff))
	request := *(*uint8)(unsafe.Pointer(ev + xErrorRequestOf))
	var buf [256]byte
	xGetErrorText(dpy, int32(code), &buf[0], int32(len(buf)))
	xErrorState.record(fmt.Errorf("X error %d (%s) in request %d", code, gostring(&buf[0]), request))
	return 0
}

// clearXError forgets any recorded protocol error.
func clearXError() {
	xErrorState.clear()
}

// takeXError syncs with the server and returns the first error raised since
// clearXError.
func takeXError(dpy uintptr) error {
	xSync(dpy, 0)
	return xErrorState.take()
}

func gostring(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var bytes []byte
	for p := ptr; *p != 0; p = (*byte)(unsafe.Add(unsafe.Pointer(p), 1)) {
		bytes = append(bytes, *p)
	}
	return string(bytes)
}
