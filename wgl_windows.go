//go:build windows

package glwindow

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/tinyrange/glwindow/internal/handle"
	"golang.org/x/sys/windows"
)

const (
	pfdDoubleBuffer       = 0x00000001
	pfdStereo             = 0x00000002
	pfdDrawToWindow       = 0x00000004
	pfdSupportOpenGL      = 0x00000020
	pfdGenericFormat      = 0x00000040
	pfdGenericAccelerated = 0x00001000
	pfdTypeRGBA           = 0
	pfdMainPlane          = 0

	wglContextMajorVersionArb    = 0x2091
	wglContextMinorVersionArb    = 0x2092
	wglContextFlagsArb           = 0x2094
	wglContextProfileMaskArb     = 0x9126
	wglContextCoreProfileBitArb  = 0x00000001
	wglContextDebugBitArb        = 0x00000001
	wglContextRobustAccessBitArb = 0x00000004
	wglContextResetStrategyArb   = 0x8256
	wglNoResetNotificationArb    = 0x8261
	wglLoseContextOnResetArb     = 0x8252
	wglContextOpenGLNoErrorArb   = 0x31B3
)

// wglChoosePixelFormat enumerates the device's pixel formats through
// DescribePixelFormat and negotiates one. The legacy descriptor carries no
// multisample or sRGB information, so those fields are always zero.
func wglChoosePixelFormat(hdc uintptr, reqs PixelFormatRequirements) (formatCandidate[int32], error) {
	var none formatCandidate[int32]
	var pfd pixelFormatDescriptor
	size := unsafe.Sizeof(pfd)

	clearLastError()
	count, _, _ := procDescribePixelFormat.Call(hdc, 1, size, uintptr(unsafe.Pointer(&pfd)))
	if count == 0 {
		return none, winErr("DescribePixelFormat")
	}

	var candidates []formatCandidate[int32]
	for i := int32(1); i <= int32(count); i++ {
		if r, _, _ := procDescribePixelFormat.Call(hdc, uintptr(i), size, uintptr(unsafe.Pointer(&pfd))); r == 0 {
			continue
		}
		if pfd.dwFlags&(pfdDrawToWindow|pfdSupportOpenGL) != pfdDrawToWindow|pfdSupportOpenGL {
			continue
		}
		if pfd.iPixelType != pfdTypeRGBA || pfd.iLayerType != pfdMainPlane {
			continue
		}
		generic := pfd.dwFlags&pfdGenericFormat != 0
		candidates = append(candidates, formatCandidate[int32]{id: i, format: PixelFormat{
			HardwareAccelerated: !generic || pfd.dwFlags&pfdGenericAccelerated != 0,
			ColorBits:           pfd.cRedBits + pfd.cGreenBits + pfd.cBlueBits,
			AlphaBits:           pfd.cAlphaBits,
			DepthBits:           pfd.cDepthBits,
			StencilBits:         pfd.cStencilBits,
			Stereoscopy:         pfd.dwFlags&pfdStereo != 0,
			DoubleBuffer:        pfd.dwFlags&pfdDoubleBuffer != 0,
		}})
	}
	return negotiatePixelFormat(reqs, candidates)
}

// wglSetPixelFormat applies a negotiated format to the device context. A
// window's format can only be set once.
func wglSetPixelFormat(hdc uintptr, id int32) error {
	var pfd pixelFormatDescriptor
	if r, _, _ := procDescribePixelFormat.Call(hdc, uintptr(id), unsafe.Sizeof(pfd), uintptr(unsafe.Pointer(&pfd))); r == 0 {
		return winErr("DescribePixelFormat")
	}
	clearLastError()
	if r, _, _ := procSetPixelFormat.Call(hdc, uintptr(id), uintptr(unsafe.Pointer(&pfd))); r == 0 {
		return winErr("SetPixelFormat")
	}
	return nil
}

// wglVersionCandidates lists the versions tried for a request. A zero major
// version tries the newest core profiles first.
func wglVersionCandidates(req GLRequest) [][2]int {
	if req.Major != 0 {
		return [][2]int{{req.Major, req.Minor}}
	}
	return [][2]int{{4, 6}, {4, 5}, {4, 3}, {4, 1}, {3, 3}, {3, 2}}
}

func wglContextAttribs(major, minor int, gl GLAttributes, exts extensionList) []int32 {
	attribs := []int32{
		wglContextMajorVersionArb, int32(major),
		wglContextMinorVersionArb, int32(minor),
	}
	if major > 3 || major == 3 && minor >= 2 {
		attribs = append(attribs, wglContextProfileMaskArb, wglContextCoreProfileBitArb)
	}

	var flags int32
	if gl.Debug {
		flags |= wglContextDebugBitArb
	}
	if exts.has("WGL_ARB_create_context_robustness") {
		switch gl.Robustness {
		case TryRobustNoResetNotification:
			flags |= wglContextRobustAccessBitArb
			attribs = append(attribs, wglContextResetStrategyArb, wglNoResetNotificationArb)
		case TryRobustLoseContextOnReset:
			flags |= wglContextRobustAccessBitArb
			attribs = append(attribs, wglContextResetStrategyArb, wglLoseContextOnResetArb)
		}
	}
	if gl.Robustness == NoError && exts.has("WGL_ARB_create_context_no_error") {
		attribs = append(attribs, wglContextOpenGLNoErrorArb, 1)
	}
	if flags != 0 {
		attribs = append(attribs, wglContextFlagsArb, flags)
	}
	return append(attribs, 0)
}

// wglProc resolves a WGL extension entry point. It needs a current context.
func wglProc(name string) uintptr {
	p, err := windows.BytePtrFromString(name)
	if err != nil {
		return 0
	}
	addr, _, _ := procWglGetProcAddress.Call(uintptr(unsafe.Pointer(p)))
	// Some drivers return small sentinel values instead of NULL.
	switch int(addr) {
	case 0, 1, 2, 3, -1:
		return 0
	}
	return addr
}

type wglContext struct {
	hdc uintptr
	ctx *handle.Owned[uintptr]
}

// newWGLContext creates a context on hdc, whose pixel format is already
// set. A legacy context is made current first so the ARB entry points can
// be loaded; it is kept only when no ARB context could be created and the
// request allows it. The calling thread is left with no current context.
func newWGLContext(hdc uintptr, gl GLAttributes, share nativeContext) (*wglContext, error) {
	var shareCtx uintptr
	if s, ok := share.(*wglContext); ok {
		shareCtx, _ = s.ctx.Get()
	}

	clearLastError()
	legacy, _, _ := procWglCreateContext.Call(hdc)
	if legacy == 0 {
		return nil, winErr("wglCreateContext")
	}
	if r, _, _ := procWglMakeCurrent.Call(hdc, legacy); r == 0 {
		err := winErr("wglMakeCurrent")
		procWglDeleteContext.Call(legacy)
		return nil, err
	}
	defer procWglMakeCurrent.Call(0, 0)

	var exts extensionList
	if addr := wglProc("wglGetExtensionsStringARB"); addr != 0 {
		r, _, _ := syscall.SyscallN(addr, hdc)
		if r != 0 {
			exts = extensionList(windows.BytePtrToString((*byte)(unsafe.Pointer(r))))
		}
	}

	ctx := uintptr(0)
	// Do not convert the proc address to a Go func; call it directly.
	if addr := wglProc("wglCreateContextAttribsARB"); addr != 0 {
		for _, v := range wglVersionCandidates(gl.Request) {
			attribs := wglContextAttribs(v[0], v[1], gl, exts)
			r, _, _ := syscall.SyscallN(addr, hdc, shareCtx, uintptr(unsafe.Pointer(&attribs[0])))
			if r != 0 {
				ctx = r
				break
			}
		}
	}

	if ctx == 0 {
		// Legacy contexts cannot honor an explicit modern version.
		if gl.Request.Major >= 3 {
			procWglMakeCurrent.Call(0, 0)
			procWglDeleteContext.Call(legacy)
			return nil, fmt.Errorf("%w: %s", ErrOpenGLVersionNotSupported, gl.Request)
		}
		if shareCtx != 0 {
			if r, _, _ := procWglShareLists.Call(shareCtx, legacy); r == 0 {
				err := winErr("wglShareLists")
				procWglMakeCurrent.Call(0, 0)
				procWglDeleteContext.Call(legacy)
				return nil, err
			}
		}
		ctx = legacy
	} else {
		procWglMakeCurrent.Call(hdc, ctx)
		procWglDeleteContext.Call(legacy)
	}

	c := &wglContext{
		hdc: hdc,
		ctx: handle.New(ctx, func(h uintptr) { procWglDeleteContext.Call(h) }),
	}
	if gl.VSync {
		// wglSwapIntervalEXT acts on the current context, which ctx is here.
		if addr := wglProc("wglSwapIntervalEXT"); addr != 0 {
			syscall.SyscallN(addr, 1)
		}
	}
	return c, nil
}

func (c *wglContext) makeCurrent() error {
	ctx, ok := c.ctx.Get()
	if !ok {
		return ErrContextDestroyed
	}
	clearLastError()
	if r, _, _ := procWglMakeCurrent.Call(c.hdc, ctx); r == 0 {
		return winErr("wglMakeCurrent")
	}
	return nil
}

func (c *wglContext) isCurrent() bool {
	ctx, ok := c.ctx.Get()
	if !ok {
		return false
	}
	cur, _, _ := procWglGetCurrentContext.Call()
	return cur == ctx
}

func (c *wglContext) swapBuffers() error {
	clearLastError()
	if r, _, _ := procSwapBuffers.Call(c.hdc); r == 0 {
		return winErr("SwapBuffers")
	}
	return nil
}

// procAddress falls back to the opengl32 exports, which wglGetProcAddress
// does not return for GL 1.1 functions.
func (c *wglContext) procAddress(name string) uintptr {
	if addr := wglProc(name); addr != 0 {
		return addr
	}
	p := opengl32.NewProc(name)
	if p.Find() != nil {
		return 0
	}
	return p.Addr()
}

func (c *wglContext) release() {
	if c.isCurrent() {
		procWglMakeCurrent.Call(0, 0)
	}
	c.ctx.Release()
}
