//go:build darwin

package glwindow

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
	"github.com/tinyrange/glwindow/internal/handle"
)

// NSOpenGL pixel format attributes.
const (
	nsOpenGLPFADoubleBuffer      = 5
	nsOpenGLPFAStereo            = 6
	nsOpenGLPFAColorSize         = 8
	nsOpenGLPFAAlphaSize         = 11
	nsOpenGLPFADepthSize         = 12
	nsOpenGLPFAStencilSize       = 13
	nsOpenGLPFASampleBuffers     = 55
	nsOpenGLPFASamples           = 56
	nsOpenGLPFAMultisample       = 59
	nsOpenGLPFAAccelerated       = 73
	nsOpenGLPFAOpenGLProfile     = 99
	nsOpenGLProfileVersionLegacy = 0x1000
	nsOpenGLProfileVersion32Core = 0x3200
	nsOpenGLProfileVersion41Core = 0x4100

	nsOpenGLCPSwapInterval = 222
)

var (
	selInitWithAttributes    objc.SEL
	selInitWithFormat        objc.SEL
	selGetValuesForAttribute objc.SEL
	selSetValuesForParameter objc.SEL
	selSetView               objc.SEL
	selMakeCurrentContext    objc.SEL
	selClearCurrentContext   objc.SEL
	selCurrentContext        objc.SEL
	selClearDrawable         objc.SEL
	selFlushBuffer           objc.SEL
	selUpdate                objc.SEL
)

// loadNSGLSelectors is called by loadSelectors.
func loadNSGLSelectors() {
	selInitWithAttributes = objc.RegisterName("initWithAttributes:")
	selInitWithFormat = objc.RegisterName("initWithFormat:shareContext:")
	selGetValuesForAttribute = objc.RegisterName("getValues:forAttribute:forVirtualScreen:")
	selSetValuesForParameter = objc.RegisterName("setValues:forParameter:")
	selSetView = objc.RegisterName("setView:")
	selMakeCurrentContext = objc.RegisterName("makeCurrentContext")
	selClearCurrentContext = objc.RegisterName("clearCurrentContext")
	selCurrentContext = objc.RegisterName("currentContext")
	selClearDrawable = objc.RegisterName("clearDrawable")
	selFlushBuffer = objc.RegisterName("flushBuffer")
	selUpdate = objc.RegisterName("update")
}

// nsglProfiles lists the profiles tried for a request. macOS offers legacy
// 2.1, core 3.2 and core 4.1 only.
func nsglProfiles(req GLRequest) ([]uint32, error) {
	switch {
	case req.Major == 0:
		return []uint32{nsOpenGLProfileVersion41Core, nsOpenGLProfileVersion32Core, nsOpenGLProfileVersionLegacy}, nil
	case req.Major < 3:
		return []uint32{nsOpenGLProfileVersionLegacy}, nil
	case req.Major == 3 && req.Minor <= 2:
		return []uint32{nsOpenGLProfileVersion32Core}, nil
	case req.Major == 3 || req.Major == 4 && req.Minor <= 1:
		return []uint32{nsOpenGLProfileVersion41Core}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrOpenGLVersionNotSupported, req)
}

func nsglPixelAttribs(reqs PixelFormatRequirements, profile uint32) []uint32 {
	attrs := []uint32{
		nsOpenGLPFAOpenGLProfile, profile,
		nsOpenGLPFAColorSize, uint32(reqs.ColorBits),
		nsOpenGLPFAAlphaSize, uint32(reqs.AlphaBits),
		nsOpenGLPFADepthSize, uint32(reqs.DepthBits),
		nsOpenGLPFAStencilSize, uint32(reqs.StencilBits),
	}
	if reqs.HardwareAccelerated {
		attrs = append(attrs, nsOpenGLPFAAccelerated)
	}
	if reqs.Buffering != BufferingSingle {
		attrs = append(attrs, nsOpenGLPFADoubleBuffer)
	}
	if reqs.Stereoscopy {
		attrs = append(attrs, nsOpenGLPFAStereo)
	}
	if reqs.Multisampling > 0 {
		attrs = append(attrs,
			nsOpenGLPFAMultisample,
			nsOpenGLPFASampleBuffers, 1,
			nsOpenGLPFASamples, uint32(reqs.Multisampling),
		)
	}
	return append(attrs, 0)
}

// nsglChoosePixelFormat lets AppKit pick the closest format and reads back
// what it granted. The result still has to meet the hard requirements.
func nsglChoosePixelFormat(reqs PixelFormatRequirements, req GLRequest) (*handle.Owned[objc.ID], PixelFormat, error) {
	profiles, err := nsglProfiles(req)
	if err != nil {
		return nil, PixelFormat{}, err
	}

	var pf objc.ID
	for _, profile := range profiles {
		attrs := nsglPixelAttribs(reqs, profile)
		pf = objc.ID(objc.GetClass("NSOpenGLPixelFormat")).Send(selAlloc)
		pf = pf.Send(selInitWithAttributes, unsafe.Pointer(&attrs[0]))
		if pf != 0 {
			break
		}
	}
	if pf == 0 {
		return nil, PixelFormat{}, fmt.Errorf("%w: NSOpenGLPixelFormat initWithAttributes", ErrNoAvailablePixelFormat)
	}

	value := func(attr int32) int32 {
		var v int32
		pf.Send(selGetValuesForAttribute, unsafe.Pointer(&v), attr, int32(0))
		return v
	}
	colorAlpha := value(nsOpenGLPFAColorSize)
	alpha := value(nsOpenGLPFAAlphaSize)
	format := PixelFormat{
		HardwareAccelerated: value(nsOpenGLPFAAccelerated) != 0,
		// ColorSize counts the alpha channel.
		ColorBits:    uint8(max(colorAlpha-alpha, 0)),
		AlphaBits:    uint8(alpha),
		DepthBits:    uint8(value(nsOpenGLPFADepthSize)),
		StencilBits:  uint8(value(nsOpenGLPFAStencilSize)),
		Stereoscopy:  value(nsOpenGLPFAStereo) != 0,
		DoubleBuffer: value(nsOpenGLPFADoubleBuffer) != 0,
		// AppKit framebuffers are always sRGB capable.
		SRGB: true,
	}
	if value(nsOpenGLPFASampleBuffers) != 0 {
		format.Multisampling = uint16(value(nsOpenGLPFASamples))
	}

	owned := handle.New(pf, func(h objc.ID) { h.Send(selRelease) })
	if _, err := negotiatePixelFormat(reqs, []formatCandidate[objc.ID]{{id: pf, format: format}}); err != nil {
		owned.Release()
		return nil, PixelFormat{}, err
	}
	return owned, format, nil
}

type nsglContext struct {
	ctx *handle.Owned[objc.ID]
}

// newNSGLContext creates a context on pf bound to view and takes over the
// pixel format.
func newNSGLContext(pf *handle.Owned[objc.ID], view objc.ID, gl GLAttributes, share nativeContext) (*nsglContext, error) {
	defer pf.Release()
	format, _ := pf.Get()

	var shareCtx objc.ID
	if s, ok := share.(*nsglContext); ok {
		shareCtx, _ = s.ctx.Get()
	}

	ctx := objc.ID(objc.GetClass("NSOpenGLContext")).Send(selAlloc)
	ctx = ctx.Send(selInitWithFormat, format, shareCtx)
	if ctx == 0 {
		return nil, fmt.Errorf("%w: NSOpenGLContext initWithFormat", ErrOpenGLVersionNotSupported)
	}
	ctx.Send(selSetView, view)

	if gl.VSync {
		swap := int32(1)
		ctx.Send(selSetValuesForParameter, unsafe.Pointer(&swap), nsOpenGLCPSwapInterval)
	}
	return &nsglContext{ctx: handle.New(ctx, func(h objc.ID) { h.Send(selRelease) })}, nil
}

// update resizes the drawable after the view changed size.
func (c *nsglContext) update() {
	if ctx, ok := c.ctx.Get(); ok {
		ctx.Send(selUpdate)
	}
}

func (c *nsglContext) makeCurrent() error {
	ctx, ok := c.ctx.Get()
	if !ok {
		return ErrContextDestroyed
	}
	ctx.Send(selMakeCurrentContext)
	return nil
}

func (c *nsglContext) isCurrent() bool {
	ctx, ok := c.ctx.Get()
	if !ok {
		return false
	}
	cur := objc.ID(objc.GetClass("NSOpenGLContext")).Send(selCurrentContext)
	return cur == ctx
}

func (c *nsglContext) swapBuffers() error {
	ctx, ok := c.ctx.Get()
	if !ok {
		return ErrContextDestroyed
	}
	ctx.Send(selFlushBuffer)
	return nil
}

// procAddress looks the symbol up in the OpenGL framework, which exports
// every entry point the platform supports.
func (c *nsglContext) procAddress(name string) uintptr {
	addr, err := purego.Dlsym(openglFramework, name)
	if err != nil {
		return 0
	}
	return addr
}

func (c *nsglContext) release() {
	ctx, ok := c.ctx.Get()
	if !ok {
		return
	}
	if c.isCurrent() {
		objc.ID(objc.GetClass("NSOpenGLContext")).Send(selClearCurrentContext)
	}
	ctx.Send(selClearDrawable)
	c.ctx.Release()
}
