//go:build linux

package glwindow

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/tinyrange/glwindow/internal/handle"
)

const (
	glxNone                = 0
	glxStereo              = 6
	glxDoubleBuffer        = 5
	glxRedSize             = 8
	glxGreenSize           = 9
	glxBlueSize            = 10
	glxAlphaSize           = 11
	glxDepthSize           = 12
	glxStencilSize         = 13
	glxConfigCaveat        = 0x20
	glxSlowConfig          = 0x8001
	glxDrawableType        = 0x8010
	glxRenderType          = 0x8011
	glxXRenderable         = 0x8012
	glxRGBAType            = 0x8014
	glxWindowBit           = 0x1
	glxRGBABit             = 0x1
	glxSampleBuffers       = 100000
	glxSamples             = 100001
	glxFramebufferSRGBARB  = 0x20B2
	glxTrue                = 1
	glxContextMajorARB     = 0x2091
	glxContextMinorARB     = 0x2092
	glxContextFlagsARB     = 0x2094
	glxContextProfileARB   = 0x9126
	glxContextCoreBit      = 0x1
	glxContextDebugBit     = 0x1
	glxContextRobustBit    = 0x4
	glxResetStrategyARB    = 0x8256
	glxNoResetNotification = 0x8261
	glxLoseContextOnReset  = 0x8252
	glxContextNoErrorARB   = 0x31B3
)

var (
	glxChooseFBConfig        func(uintptr, int32, *int32, *int32) *uintptr
	glxGetFBConfigAttrib     func(uintptr, uintptr, int32, *int32) int32
	glxGetVisualFromFBConfig func(uintptr, uintptr) *XVisualInfo
	glxCreateNewContext      func(uintptr, uintptr, int32, uintptr, int32) uintptr
	glxMakeCurrent           func(uintptr, uintptr, uintptr) int32
	glxSwapBuffers           func(uintptr, uintptr)
	glxDestroyContext        func(uintptr, uintptr)
	glxGetCurrentContext     func() uintptr
	glxGetCurrentDrawable    func() uintptr
	glxGetProcAddressARB     func(string) uintptr
	glxQueryExtensionsString func(uintptr, int32) *byte
)

func registerGLX() {
	purego.RegisterLibFunc(&glxChooseFBConfig, gllib, "glXChooseFBConfig")
	purego.RegisterLibFunc(&glxGetFBConfigAttrib, gllib, "glXGetFBConfigAttrib")
	purego.RegisterLibFunc(&glxGetVisualFromFBConfig, gllib, "glXGetVisualFromFBConfig")
	purego.RegisterLibFunc(&glxCreateNewContext, gllib, "glXCreateNewContext")
	purego.RegisterLibFunc(&glxMakeCurrent, gllib, "glXMakeCurrent")
	purego.RegisterLibFunc(&glxSwapBuffers, gllib, "glXSwapBuffers")
	purego.RegisterLibFunc(&glxDestroyContext, gllib, "glXDestroyContext")
	purego.RegisterLibFunc(&glxGetCurrentContext, gllib, "glXGetCurrentContext")
	purego.RegisterLibFunc(&glxGetCurrentDrawable, gllib, "glXGetCurrentDrawable")
	purego.RegisterLibFunc(&glxGetProcAddressARB, gllib, "glXGetProcAddressARB")
	purego.RegisterLibFunc(&glxQueryExtensionsString, gllib, "glXQueryExtensionsString")
}

// glxChooseConfig enumerates the window-capable RGBA framebuffer configs and
// negotiates one. When transparent is set only configs with a 32 bit visual
// are considered.
func glxChooseConfig(dpy uintptr, screen int32, reqs PixelFormatRequirements, transparent bool) (formatCandidate[uintptr], *XVisualInfo, error) {
	var none formatCandidate[uintptr]
	attribs := []int32{
		glxXRenderable, glxTrue,
		glxDrawableType, glxWindowBit,
		glxRenderType, glxRGBABit,
		glxNone,
	}
	var n int32
	configs := glxChooseFBConfig(dpy, screen, &attribs[0], &n)
	if configs == nil || n == 0 {
		return none, nil, fmt.Errorf("glXChooseFBConfig: %w", ErrNoAvailablePixelFormat)
	}
	defer xFree(unsafe.Pointer(configs))

	exts := extensionList(gostring(glxQueryExtensionsString(dpy, screen)))
	srgbCapable := exts.has("GLX_ARB_framebuffer_sRGB") || exts.has("GLX_EXT_framebuffer_sRGB")

	attr := func(cfg uintptr, name int32) int32 {
		var v int32
		if glxGetFBConfigAttrib(dpy, cfg, name, &v) != 0 {
			return 0
		}
		return v
	}

	var candidates []formatCandidate[uintptr]
	for _, cfg := range unsafe.Slice(configs, n) {
		if transparent {
			vi := glxGetVisualFromFBConfig(dpy, cfg)
			if vi == nil {
				continue
			}
			depth := vi.Depth
			xFree(unsafe.Pointer(vi))
			if depth != 32 {
				continue
			}
		}
		f := PixelFormat{
			HardwareAccelerated: attr(cfg, glxConfigCaveat) != glxSlowConfig,
			ColorBits:           uint8(attr(cfg, glxRedSize) + attr(cfg, glxGreenSize) + attr(cfg, glxBlueSize)),
			AlphaBits:           uint8(attr(cfg, glxAlphaSize)),
			DepthBits:           uint8(attr(cfg, glxDepthSize)),
			StencilBits:         uint8(attr(cfg, glxStencilSize)),
			Stereoscopy:         attr(cfg, glxStereo) != 0,
			DoubleBuffer:        attr(cfg, glxDoubleBuffer) != 0,
			SRGB:                srgbCapable && attr(cfg, glxFramebufferSRGBARB) != 0,
		}
		if attr(cfg, glxSampleBuffers) != 0 {
			f.Multisampling = uint16(attr(cfg, glxSamples))
		}
		candidates = append(candidates, formatCandidate[uintptr]{id: cfg, format: f})
	}

	chosen, err := negotiatePixelFormat(reqs, candidates)
	if err != nil {
		return none, nil, err
	}
	vi := glxGetVisualFromFBConfig(dpy, chosen.id)
	if vi == nil {
		return none, nil, osErr("glXGetVisualFromFBConfig", nil)
	}
	return chosen, vi, nil
}

// glxVersionCandidates lists the versions tried for a request. A zero
// major version tries the newest core profiles first.
func glxVersionCandidates(req GLRequest) [][2]int {
	if req.Major != 0 {
		return [][2]int{{req.Major, req.Minor}}
	}
	return [][2]int{{4, 6}, {4, 5}, {4, 3}, {4, 1}, {3, 3}, {3, 2}}
}

type glxContext struct {
	dpy uintptr
	win uintptr
	ctx *handle.Owned[uintptr]
}

// newGLXContext creates a context for cfg, preferring
// glXCreateContextAttribsARB and falling back to a legacy context when the
// request allows it.
func newGLXContext(dpy uintptr, screen int32, win uintptr, cfg uintptr, gl GLAttributes, share nativeContext) (*glxContext, error) {
	var shareCtx uintptr
	if s, ok := share.(*glxContext); ok {
		shareCtx, _ = s.ctx.Get()
	}

	exts := extensionList(gostring(glxQueryExtensionsString(dpy, screen)))

	var ctx uintptr
	if addr := glxGetProcAddressARB("glXCreateContextAttribsARB"); addr != 0 && exts.has("GLX_ARB_create_context") {
		var createContextAttribs func(uintptr, uintptr, uintptr, int32, *int32) uintptr
		purego.RegisterFunc(&createContextAttribs, addr)

		for _, v := range glxVersionCandidates(gl.Request) {
			attribs := glxContextAttribs(v[0], v[1], gl, exts)
			clearXError()
			ctx = createContextAttribs(dpy, cfg, shareCtx, 1, &attribs[0])
			if err := takeXError(dpy); err != nil {
				ctx = 0
			}
			if ctx != 0 {
				break
			}
		}
	}

	if ctx == 0 {
		// Legacy contexts cannot honor an explicit modern version.
		if gl.Request.Major >= 3 {
			return nil, fmt.Errorf("%w: %s", ErrOpenGLVersionNotSupported, gl.Request)
		}
		clearXError()
		ctx = glxCreateNewContext(dpy, cfg, glxRGBAType, shareCtx, 1)
		if xerr := takeXError(dpy); ctx == 0 || xerr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotSupported, osErr("glXCreateNewContext", xerr))
		}
	}

	c := &glxContext{
		dpy: dpy,
		win: win,
		ctx: handle.New(ctx, func(h uintptr) { glxDestroyContext(dpy, h) }),
	}
	if gl.VSync {
		c.setSwapInterval(1, exts)
	}
	return c, nil
}

func glxContextAttribs(major, minor int, gl GLAttributes, exts extensionList) []int32 {
	attribs := []int32{
		glxContextMajorARB, int32(major),
		glxContextMinorARB, int32(minor),
	}
	if major > 3 || major == 3 && minor >= 2 {
		attribs = append(attribs, glxContextProfileARB, glxContextCoreBit)
	}

	var flags int32
	if gl.Debug {
		flags |= glxContextDebugBit
	}
	if exts.has("GLX_ARB_create_context_robustness") {
		switch gl.Robustness {
		case TryRobustNoResetNotification:
			flags |= glxContextRobustBit
			attribs = append(attribs, glxResetStrategyARB, glxNoResetNotification)
		case TryRobustLoseContextOnReset:
			flags |= glxContextRobustBit
			attribs = append(attribs, glxResetStrategyARB, glxLoseContextOnReset)
		}
	}
	if gl.Robustness == NoError && exts.has("GLX_ARB_create_context_no_error") {
		attribs = append(attribs, glxContextNoErrorARB, glxTrue)
	}
	if flags != 0 {
		attribs = append(attribs, glxContextFlagsARB, flags)
	}
	return append(attribs, glxNone)
}

// setSwapInterval tries the EXT, MESA and SGI extensions in turn. The
// latter two act on the current context, so it is made current briefly and
// the previous binding restored.
func (c *glxContext) setSwapInterval(interval int32, exts extensionList) {
	if exts.has("GLX_EXT_swap_control") {
		if addr := glxGetProcAddressARB("glXSwapIntervalEXT"); addr != 0 {
			var swapIntervalEXT func(uintptr, uintptr, int32)
			purego.RegisterFunc(&swapIntervalEXT, addr)
			swapIntervalEXT(c.dpy, c.win, interval)
			return
		}
	}

	var name string
	switch {
	case exts.has("GLX_MESA_swap_control"):
		name = "glXSwapIntervalMESA"
	case exts.has("GLX_SGI_swap_control"):
		name = "glXSwapIntervalSGI"
	default:
		return
	}
	addr := glxGetProcAddressARB(name)
	if addr == 0 {
		return
	}
	var swapInterval func(int32) int32
	purego.RegisterFunc(&swapInterval, addr)

	ctx, ok := c.ctx.Get()
	if !ok {
		return
	}
	prevCtx, prevDrawable := glxGetCurrentContext(), glxGetCurrentDrawable()
	if glxMakeCurrent(c.dpy, c.win, ctx) == 0 {
		return
	}
	swapInterval(interval)
	glxMakeCurrent(c.dpy, prevDrawable, prevCtx)
}

func (c *glxContext) makeCurrent() error {
	ctx, ok := c.ctx.Get()
	if !ok {
		return ErrContextDestroyed
	}
	if glxMakeCurrent(c.dpy, c.win, ctx) == 0 {
		return osErr("glXMakeCurrent", nil)
	}
	return nil
}

func (c *glxContext) isCurrent() bool {
	ctx, ok := c.ctx.Get()
	return ok && glxGetCurrentContext() == ctx
}

func (c *glxContext) swapBuffers() error {
	glxSwapBuffers(c.dpy, c.win)
	return nil
}

func (c *glxContext) procAddress(name string) uintptr {
	return glxGetProcAddressARB(name)
}

func (c *glxContext) release() {
	if c.isCurrent() {
		glxMakeCurrent(c.dpy, 0, 0)
	}
	c.ctx.Release()
}
