//go:build windows

package glwindow

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	csVRedraw = 0x0001
	csHRedraw = 0x0002
	csOwnDC   = 0x0020

	wsOverlappedWindow = 0x00CF0000
	wsPopup            = 0x80000000
	wsClipSiblings     = 0x04000000
	wsClipChildren     = 0x02000000
	wsExAppWindow      = 0x00040000

	swHide = 0
	swShow = 5

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoZOrder   = 0x0004
	swpNoActivate = 0x0010

	cwUseDefault = -0x80000000

	wmDestroy   = 0x0002
	wmSetCursor = 0x0020
	wmSetIcon   = 0x0080
	wmApp       = 0x8000

	// wmRunOnPump drains the window's pending calls on its pump thread.
	wmRunOnPump = wmApp + 1

	htClient = 1

	iconSmall = 0
	iconBig   = 1

	logPixelsX = 88

	enumCurrentSettings  = 0xFFFFFFFF
	cdsFullscreen        = 0x00000004
	dispChangeSuccessful = 0

	dmBitsPerPel = 0x00040000
	dmPelsWidth  = 0x00080000
	dmPelsHeight = 0x00100000

	displayDeviceActive  = 0x00000001
	displayDevicePrimary = 0x00000004

	dwmBBEnable     = 0x00000001
	dwmBBBlurRegion = 0x00000002
)

// Stock cursors for LoadCursorW.
const (
	idcArrow       = 32512
	idcIBeam       = 32513
	idcWait        = 32514
	idcCross       = 32515
	idcUpArrow     = 32516
	idcSizeNWSE    = 32642
	idcSizeNESW    = 32643
	idcSizeWE      = 32644
	idcSizeNS      = 32645
	idcSizeAll     = 32646
	idcNo          = 32648
	idcHand        = 32649
	idcAppStarting = 32650
	idcHelp        = 32651
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type point struct {
	x, y int32
}

type msg struct {
	hwnd     windows.HWND
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type rect struct {
	left, top, right, bottom int32
}

type pixelFormatDescriptor struct {
	nSize           uint16
	nVersion        uint16
	dwFlags         uint32
	iPixelType      byte
	cColorBits      byte
	cRedBits        byte
	cRedShift       byte
	cGreenBits      byte
	cGreenShift     byte
	cBlueBits       byte
	cBlueShift      byte
	cAlphaBits      byte
	cAlphaShift     byte
	cAccumBits      byte
	cAccumRedBits   byte
	cAccumGreenBits byte
	cAccumBlueBits  byte
	cAccumAlphaBits byte
	cDepthBits      byte
	cStencilBits    byte
	cAuxBuffers     byte
	iLayerType      byte
	bReserved       byte
	dwLayerMask     uint32
	dwVisibleMask   uint32
	dwDamageMask    uint32
}

// devMode is DEVMODEW with the display fields of the union.
type devMode struct {
	deviceName         [32]uint16
	specVersion        uint16
	driverVersion      uint16
	size               uint16
	driverExtra        uint16
	fields             uint32
	positionX          int32
	positionY          int32
	displayOrientation uint32
	displayFixedOutput uint32
	color              int16
	duplex             int16
	yResolution        int16
	ttOption           int16
	collate            int16
	formName           [32]uint16
	logPixels          uint16
	bitsPerPel         uint32
	pelsWidth          uint32
	pelsHeight         uint32
	displayFlags       uint32
	displayFrequency   uint32
	icmMethod          uint32
	icmIntent          uint32
	mediaType          uint32
	ditherType         uint32
	reserved1          uint32
	reserved2          uint32
	panningWidth       uint32
	panningHeight      uint32
}

type displayDevice struct {
	cb           uint32
	deviceName   [32]uint16
	deviceString [128]uint16
	stateFlags   uint32
	deviceID     [128]uint16
	deviceKey    [128]uint16
}

type dwmBlurBehind struct {
	flags                 uint32
	enable                int32
	blurRegion            windows.Handle
	transitionOnMaximized int32
}

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	opengl32 = windows.NewLazySystemDLL("opengl32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	dwmapi   = windows.NewLazySystemDLL("dwmapi.dll")

	procRegisterClassEx         = user32.NewProc("RegisterClassExW")
	procCreateWindowEx          = user32.NewProc("CreateWindowExW")
	procDefWindowProc           = user32.NewProc("DefWindowProcW")
	procDestroyWindow           = user32.NewProc("DestroyWindow")
	procShowWindow              = user32.NewProc("ShowWindow")
	procGetClientRect           = user32.NewProc("GetClientRect")
	procGetWindowRect           = user32.NewProc("GetWindowRect")
	procSetWindowPos            = user32.NewProc("SetWindowPos")
	procSetWindowText           = user32.NewProc("SetWindowTextW")
	procAdjustWindowRectEx      = user32.NewProc("AdjustWindowRectEx")
	procGetMessage              = user32.NewProc("GetMessageW")
	procTranslateMessage        = user32.NewProc("TranslateMessage")
	procDispatchMessage         = user32.NewProc("DispatchMessageW")
	procPostMessage             = user32.NewProc("PostMessageW")
	procSendMessage             = user32.NewProc("SendMessageW")
	procPostQuitMessage         = user32.NewProc("PostQuitMessage")
	procRegisterWindowMessage   = user32.NewProc("RegisterWindowMessageW")
	procGetDC                   = user32.NewProc("GetDC")
	procReleaseDC               = user32.NewProc("ReleaseDC")
	procClientToScreen          = user32.NewProc("ClientToScreen")
	procLoadCursor              = user32.NewProc("LoadCursorW")
	procSetCursor               = user32.NewProc("SetCursor")
	procSetCursorPos            = user32.NewProc("SetCursorPos")
	procClipCursor              = user32.NewProc("ClipCursor")
	procCreateIcon              = user32.NewProc("CreateIcon")
	procDestroyIcon             = user32.NewProc("DestroyIcon")
	procGetDpiForWindow         = user32.NewProc("GetDpiForWindow")
	procEnumDisplayDevices      = user32.NewProc("EnumDisplayDevicesW")
	procEnumDisplaySettingsEx   = user32.NewProc("EnumDisplaySettingsExW")
	procChangeDisplaySettingsEx = user32.NewProc("ChangeDisplaySettingsExW")

	procDescribePixelFormat = gdi32.NewProc("DescribePixelFormat")
	procSetPixelFormat      = gdi32.NewProc("SetPixelFormat")
	procSwapBuffers         = gdi32.NewProc("SwapBuffers")
	procGetDeviceCaps       = gdi32.NewProc("GetDeviceCaps")
	procCreateRectRgn       = gdi32.NewProc("CreateRectRgn")
	procDeleteObject        = gdi32.NewProc("DeleteObject")

	procWglCreateContext     = opengl32.NewProc("wglCreateContext")
	procWglMakeCurrent       = opengl32.NewProc("wglMakeCurrent")
	procWglDeleteContext     = opengl32.NewProc("wglDeleteContext")
	procWglGetProcAddress    = opengl32.NewProc("wglGetProcAddress")
	procWglGetCurrentContext = opengl32.NewProc("wglGetCurrentContext")
	procWglShareLists        = opengl32.NewProc("wglShareLists")

	procGetModuleHandle    = kernel32.NewProc("GetModuleHandleW")
	procGetCurrentThreadID = kernel32.NewProc("GetCurrentThreadId")
	procSetLastError       = kernel32.NewProc("SetLastError")
	procGetLastError       = kernel32.NewProc("GetLastError")

	procDwmEnableBlurBehindWindow = dwmapi.NewProc("DwmEnableBlurBehindWindow")
)

func mustFindProc(p *windows.LazyProc) error {
	if err := p.Find(); err != nil {
		return fmt.Errorf("missing procedure %q: %w", p.Name, err)
	}
	return nil
}

func clearLastError() {
	procSetLastError.Call(0)
}

func lastError() error {
	r, _, _ := procGetLastError.Call()
	if r == 0 {
		return nil
	}
	return windows.Errno(r)
}

// winErr wraps the thread's last error for a failed call.
func winErr(op string) error {
	return osErr(op, lastError())
}

func currentThreadID() uint32 {
	r, _, _ := procGetCurrentThreadID.Call()
	return uint32(r)
}

func utf16Ptr(s string) *uint16 {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		// Strings with NUL are truncated at the NUL.
		p, _ = windows.UTF16PtrFromString("")
	}
	return p
}

func moduleHandle() windows.Handle {
	h, _, _ := procGetModuleHandle.Call(0)
	return windows.Handle(h)
}

// win32Backend registers one window class per process and routes window
// procedure calls to the owning window.
type win32Backend struct {
	log       *slog.Logger
	instance  windows.Handle
	wndProc   uintptr
	wakeMsg   uint32
	className string

	classMu sync.Mutex
	classes map[string]bool

	// windows maps HWND to *win32Window.
	windows sync.Map
	// creating maps a pump thread id to the window it is constructing, so
	// messages sent during CreateWindowExW find their target.
	creating sync.Map
}

func openNativeBackend(log *slog.Logger) (backend, error) {
	for _, p := range []*windows.LazyProc{
		procRegisterClassEx, procCreateWindowEx, procGetMessage,
		procDescribePixelFormat, procSetPixelFormat, procWglCreateContext,
	} {
		if err := mustFindProc(p); err != nil {
			return nil, err
		}
	}

	b := &win32Backend{
		log:       log,
		instance:  moduleHandle(),
		className: fmt.Sprintf("GLWindowClass_%d", os.Getpid()),
		classes:   make(map[string]bool),
	}
	b.wndProc = windows.NewCallback(b.windowProc)

	clearLastError()
	wake, _, _ := procRegisterWindowMessage.Call(uintptr(unsafe.Pointer(utf16Ptr("GLWINDOW_WAKEUP"))))
	if wake == 0 {
		return nil, winErr("RegisterWindowMessageW")
	}
	b.wakeMsg = uint32(wake)

	if err := b.registerClass(b.className); err != nil {
		return nil, err
	}
	log.Debug("win32 backend ready", "class", b.className)
	return b, nil
}

// registerClass registers name once per process.
func (b *win32Backend) registerClass(name string) error {
	b.classMu.Lock()
	defer b.classMu.Unlock()
	if b.classes[name] {
		return nil
	}
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)
	wc := wndClassEx{
		style:         csOwnDC | csHRedraw | csVRedraw,
		lpfnWndProc:   b.wndProc,
		hInstance:     b.instance,
		hCursor:       windows.Handle(cursor),
		lpszClassName: utf16Ptr(name),
	}
	wc.cbSize = uint32(unsafe.Sizeof(wc))

	clearLastError()
	if r, _, _ := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
		return winErr("RegisterClassExW")
	}
	b.classes[name] = true
	return nil
}

func (b *win32Backend) kind() BackendKind { return BackendWin32 }

func (b *win32Backend) variantFor(req GLRequest) (ContextVariant, error) {
	if req.API != APIOpenGL {
		return 0, fmt.Errorf("%w: %s on win32", ErrOpenGLVersionNotSupported, req)
	}
	return VariantWGL, nil
}

// windowProc dispatches to the window that owns hwnd.
func (b *win32Backend) windowProc(hwnd windows.HWND, message uint32, wParam, lParam uintptr) uintptr {
	var w *win32Window
	if v, ok := b.windows.Load(hwnd); ok {
		w = v.(*win32Window)
	} else if v, ok := b.creating.Load(currentThreadID()); ok {
		w = v.(*win32Window)
		w.hwnd = hwnd
		b.windows.Store(hwnd, w)
	}
	if w != nil {
		if r, handled := w.handle(message, wParam, lParam); handled {
			return r
		}
	}
	r, _, _ := procDefWindowProc.Call(uintptr(hwnd), uintptr(message), wParam, lParam)
	return r
}
