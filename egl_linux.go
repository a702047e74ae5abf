//go:build linux

package glwindow

import (
	"fmt"

	"github.com/ebitengine/purego"
	"github.com/tinyrange/glwindow/internal/handle"
)

const (
	eglNone                = 0x3038
	eglAlphaSize           = 0x3021
	eglBlueSize            = 0x3022
	eglGreenSize           = 0x3023
	eglRedSize             = 0x3024
	eglDepthSize           = 0x3025
	eglStencilSize         = 0x3026
	eglConfigCaveat        = 0x3027
	eglNativeVisualID      = 0x302E
	eglSamples             = 0x3031
	eglSampleBuffers       = 0x3032
	eglSurfaceType         = 0x3033
	eglRenderableType      = 0x3040
	eglSlowConfig          = 0x3050
	eglWindowBit           = 0x0004
	eglOpenGLES2Bit        = 0x0004
	eglOpenGLES3Bit        = 0x0040
	eglOpenGLESAPI         = 0x30A0
	eglContextMajor        = 0x3098
	eglContextMinor        = 0x30FB
	eglContextDebug        = 0x31B0
	eglContextRobustAccess = 0x31B2
	eglResetStrategy       = 0x31BD
	eglNoResetNotification = 0x31BE
	eglLoseContextOnReset  = 0x31BF
	eglTrue                = 1
)

var (
	eglGetDisplay          func(uintptr) uintptr
	eglInitialize          func(uintptr, *int32, *int32) uint32
	eglTerminate           func(uintptr) uint32
	eglBindAPI             func(uint32) uint32
	eglGetConfigs          func(uintptr, *uintptr, int32, *int32) uint32
	eglGetConfigAttrib     func(uintptr, uintptr, int32, *int32) uint32
	eglCreateWindowSurface func(uintptr, uintptr, uintptr, *int32) uintptr
	eglDestroySurface      func(uintptr, uintptr) uint32
	eglCreateContext       func(uintptr, uintptr, uintptr, *int32) uintptr
	eglDestroyContext      func(uintptr, uintptr) uint32
	eglMakeCurrent         func(uintptr, uintptr, uintptr, uintptr) uint32
	eglGetCurrentContext   func() uintptr
	eglSwapBuffers         func(uintptr, uintptr) uint32
	eglSwapInterval        func(uintptr, int32) uint32
	eglGetProcAddress      func(string) uintptr
	eglGetError            func() int32
)

func registerEGL() {
	purego.RegisterLibFunc(&eglGetDisplay, egllib, "eglGetDisplay")
	purego.RegisterLibFunc(&eglInitialize, egllib, "eglInitialize")
	purego.RegisterLibFunc(&eglTerminate, egllib, "eglTerminate")
	purego.RegisterLibFunc(&eglBindAPI, egllib, "eglBindAPI")
	purego.RegisterLibFunc(&eglGetConfigs, egllib, "eglGetConfigs")
	purego.RegisterLibFunc(&eglGetConfigAttrib, egllib, "eglGetConfigAttrib")
	purego.RegisterLibFunc(&eglCreateWindowSurface, egllib, "eglCreateWindowSurface")
	purego.RegisterLibFunc(&eglDestroySurface, egllib, "eglDestroySurface")
	purego.RegisterLibFunc(&eglCreateContext, egllib, "eglCreateContext")
	purego.RegisterLibFunc(&eglDestroyContext, egllib, "eglDestroyContext")
	purego.RegisterLibFunc(&eglMakeCurrent, egllib, "eglMakeCurrent")
	purego.RegisterLibFunc(&eglGetCurrentContext, egllib, "eglGetCurrentContext")
	purego.RegisterLibFunc(&eglSwapBuffers, egllib, "eglSwapBuffers")
	purego.RegisterLibFunc(&eglSwapInterval, egllib, "eglSwapInterval")
	purego.RegisterLibFunc(&eglGetProcAddress, egllib, "eglGetProcAddress")
	purego.RegisterLibFunc(&eglGetError, egllib, "eglGetError")
}

// eglContextLost is reported after a power management event or GPU reset.
const eglContextLost = 0x300E

func eglErr(op string) error {
	code := eglGetError()
	if code == eglContextLost {
		return fmt.Errorf("%s: %w", op, ErrContextLost)
	}
	return osErr(op, fmt.Errorf("EGL error 0x%x", code))
}

// openEGLDisplay initializes EGL on an Xlib display.
func openEGLDisplay(xdpy uintptr) (uintptr, error) {
	if egllib == 0 {
		return 0, fmt.Errorf("%w: libEGL not available", ErrOpenGLVersionNotSupported)
	}
	edpy := eglGetDisplay(xdpy)
	if edpy == 0 {
		return 0, eglErr("eglGetDisplay")
	}
	var major, minor int32
	if eglInitialize(edpy, &major, &minor) == 0 {
		return 0, eglErr("eglInitialize")
	}
	return edpy, nil
}

// eglChooseConfig negotiates a window-capable GLES config and returns it with
// the X visual it must be rendered through.
func eglChooseConfig(edpy, xdpy uintptr, reqs PixelFormatRequirements, major int) (formatCandidate[uintptr], *XVisualInfo, error) {
	var none formatCandidate[uintptr]
	var n int32
	if eglGetConfigs(edpy, nil, 0, &n) == 0 || n == 0 {
		return none, nil, fmt.Errorf("eglGetConfigs: %w", ErrNoAvailablePixelFormat)
	}
	configs := make([]uintptr, n)
	if eglGetConfigs(edpy, &configs[0], n, &n) == 0 {
		return none, nil, eglErr("eglGetConfigs")
	}

	renderable := int32(eglOpenGLES2Bit)
	if major >= 3 {
		renderable = eglOpenGLES3Bit
	}
	attr := func(cfg uintptr, name int32) int32 {
		var v int32
		if eglGetConfigAttrib(edpy, cfg, name, &v) == 0 {
			return 0
		}
		return v
	}

	var candidates []formatCandidate[uintptr]
	for _, cfg := range configs[:n] {
		if attr(cfg, eglSurfaceType)&eglWindowBit == 0 || attr(cfg, eglRenderableType)&renderable == 0 {
			continue
		}
		if attr(cfg, eglNativeVisualID) == 0 {
			continue
		}
		f := PixelFormat{
			HardwareAccelerated: attr(cfg, eglConfigCaveat) != eglSlowConfig,
			ColorBits:           uint8(attr(cfg, eglRedSize) + attr(cfg, eglGreenSize) + attr(cfg, eglBlueSize)),
			AlphaBits:           uint8(attr(cfg, eglAlphaSize)),
			DepthBits:           uint8(attr(cfg, eglDepthSize)),
			StencilBits:         uint8(attr(cfg, eglStencilSize)),
			// Window surfaces are always back buffered.
			DoubleBuffer: true,
		}
		if attr(cfg, eglSampleBuffers) != 0 {
			f.Multisampling = uint16(attr(cfg, eglSamples))
		}
		candidates = append(candidates, formatCandidate[uintptr]{id: cfg, format: f})
	}

	chosen, err := negotiatePixelFormat(reqs, candidates)
	if err != nil {
		return none, nil, err
	}

	template := XVisualInfo{VisualID: uint64(attr(chosen.id, eglNativeVisualID))}
	var count int32
	vi := xGetVisualInfo(xdpy, visualIDMask, &template, &count)
	if vi == nil || count == 0 {
		return none, nil, osErr("XGetVisualInfo", nil)
	}
	return chosen, vi, nil
}

type eglContext struct {
	edpy    uintptr
	surface *handle.Owned[uintptr]
	ctx     *handle.Owned[uintptr]
}

func newEGLContext(edpy, cfg, win uintptr, gl GLAttributes, share nativeContext) (*eglContext, error) {
	if eglBindAPI(eglOpenGLESAPI) == 0 {
		return nil, eglErr("eglBindAPI")
	}
	surface := eglCreateWindowSurface(edpy, cfg, win, nil)
	if surface == 0 {
		return nil, eglErr("eglCreateWindowSurface")
	}

	var shareCtx uintptr
	if s, ok := share.(*eglContext); ok {
		shareCtx, _ = s.ctx.Get()
	}

	major := gl.Request.Major
	if major == 0 {
		major = 3
	}
	ctx := eglCreateContext(edpy, cfg, shareCtx, &eglContextAttribs(major, gl.Request.Minor, gl)[0])
	if ctx == 0 && gl.Request.Major == 0 {
		// No explicit version: settle for GLES 2.
		ctx = eglCreateContext(edpy, cfg, shareCtx, &eglContextAttribs(2, 0, gl)[0])
	}
	if ctx == 0 {
		eglDestroySurface(edpy, surface)
		return nil, fmt.Errorf("%w: %w", ErrOpenGLVersionNotSupported, eglErr("eglCreateContext"))
	}

	c := &eglContext{
		edpy:    edpy,
		surface: handle.New(surface, func(h uintptr) { eglDestroySurface(edpy, h) }),
		ctx:     handle.New(ctx, func(h uintptr) { eglDestroyContext(edpy, h) }),
	}
	if gl.VSync {
		// eglSwapInterval applies to the current surface.
		if eglMakeCurrent(edpy, surface, surface, ctx) != 0 {
			eglSwapInterval(edpy, 1)
			eglMakeCurrent(edpy, 0, 0, 0)
		}
	}
	return c, nil
}

func eglContextAttribs(major, minor int, gl GLAttributes) []int32 {
	attribs := []int32{eglContextMajor, int32(major)}
	if minor != 0 {
		attribs = append(attribs, eglContextMinor, int32(minor))
	}
	if gl.Debug {
		attribs = append(attribs, eglContextDebug, eglTrue)
	}
	switch gl.Robustness {
	case TryRobustNoResetNotification:
		attribs = append(attribs, eglContextRobustAccess, eglTrue, eglResetStrategy, eglNoResetNotification)
	case TryRobustLoseContextOnReset:
		attribs = append(attribs, eglContextRobustAccess, eglTrue, eglResetStrategy, eglLoseContextOnReset)
	}
	return append(attribs, eglNone)
}

func (c *eglContext) makeCurrent() error {
	ctx, ok := c.ctx.Get()
	surface, sok := c.surface.Get()
	if !ok || !sok {
		return ErrContextDestroyed
	}
	if eglMakeCurrent(c.edpy, surface, surface, ctx) == 0 {
		return eglErr("eglMakeCurrent")
	}
	return nil
}

func (c *eglContext) isCurrent() bool {
	ctx, ok := c.ctx.Get()
	return ok && eglGetCurrentContext() == ctx
}

func (c *eglContext) swapBuffers() error {
	surface, ok := c.surface.Get()
	if !ok {
		return ErrContextDestroyed
	}
	if eglSwapBuffers(c.edpy, surface) == 0 {
		return eglErr("eglSwapBuffers")
	}
	return nil
}

func (c *eglContext) procAddress(name string) uintptr {
	return eglGetProcAddress(name)
}

// release drops the context and then its surface.
func (c *eglContext) release() {
	if c.isCurrent() {
		eglMakeCurrent(c.edpy, 0, 0, 0)
	}
	c.ctx.Release()
	c.surface.Release()
}
