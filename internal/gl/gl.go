// Package gl binds the handful of OpenGL entry points the demo draws with.
// Entry points are resolved through the proc address function of a current
// context, so the same binding works for GLX, EGL, WGL and NSGL.
package gl

import (
	"fmt"
	"strings"
	"unsafe"
)

const (
	// ColorBufferBit is a mask used with Clear to clear the color buffer.
	ColorBufferBit = 0x00004000
	// DepthBufferBit is a mask used with Clear to clear the depth buffer.
	DepthBufferBit = 0x00000100

	// ScissorTest restricts Clear and drawing to the Scissor box.
	ScissorTest = 0x0C11

	// GetString parameters.
	//
	// Vendor returns the company responsible for the GL implementation.
	Vendor = 0x1F00
	// Renderer names the renderer, usually the GPU.
	Renderer = 0x1F01
	// Version returns the GL version string of the current context.
	Version = 0x1F02

	// NoError is returned by GetError when no error is recorded.
	NoError = 0
)

// ProcAddressFunc resolves an entry point by name. It returns zero when the
// current context does not provide it.
type ProcAddressFunc func(name string) uintptr

// OpenGL describes the subset of OpenGL entry points used by the demo.
//
// All methods operate on the context that was current when Load was called
// and must be invoked while it is current on the calling thread.
type OpenGL interface {
	// ClearColor sets the clear color used by Clear when clearing the color buffer.
	ClearColor(r, g, b, a float32)

	// Clear clears buffers to preset values (e.g., ColorBufferBit).
	Clear(mask uint32)

	// Viewport sets the viewport transform in window pixels.
	Viewport(x, y, width, height int32)

	// Scissor sets the scissor box used when ScissorTest is enabled.
	Scissor(x, y, width, height int32)

	Enable(capability uint32)
	Disable(capability uint32)

	// GetError returns and clears the oldest recorded error.
	GetError() uint32

	// GetString returns a static string describing the implementation.
	GetString(name uint32) string
}

// entryPoints lists every symbol Load needs.
var entryPoints = []string{
	"glClearColor",
	"glClear",
	"glViewport",
	"glScissor",
	"glEnable",
	"glDisable",
	"glGetError",
	"glGetString",
}

// resolve looks up every entry point and reports all missing ones at once.
func resolve(getProcAddress ProcAddressFunc) (map[string]uintptr, error) {
	if getProcAddress == nil {
		return nil, fmt.Errorf("gl: no proc address function")
	}
	addrs := make(map[string]uintptr, len(entryPoints))
	var missing []string
	for _, name := range entryPoints {
		addr := getProcAddress(name)
		if addr == 0 {
			missing = append(missing, name)
			continue
		}
		addrs[name] = addr
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("gl: missing entry points: %s", strings.Join(missing, ", "))
	}
	return addrs, nil
}

func gostring(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var bytes []byte
	for p := ptr; *p != 0; p = (*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + 1)) {
		bytes = append(bytes, *p)
	}
	return string(bytes)
}
