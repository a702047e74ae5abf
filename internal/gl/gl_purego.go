//go:build !windows

package gl

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// openGL holds Go funcs bound to the context's entry points.
type openGL struct {
	clearColor func(float32, float32, float32, float32)
	clear      func(uint32)
	viewport   func(int32, int32, int32, int32)
	scissor    func(int32, int32, int32, int32)
	enable     func(uint32)
	disable    func(uint32)
	getError   func() uint32
	getString  func(uint32) uintptr
}

func (gl *openGL) ClearColor(r, g, b, a float32) {
	gl.clearColor(r, g, b, a)
}

func (gl *openGL) Clear(mask uint32) {
	gl.clear(mask)
}

func (gl *openGL) Viewport(x, y, width, height int32) {
	gl.viewport(x, y, width, height)
}

func (gl *openGL) Scissor(x, y, width, height int32) {
	gl.scissor(x, y, width, height)
}

func (gl *openGL) Enable(capability uint32) {
	gl.enable(capability)
}

func (gl *openGL) Disable(capability uint32) {
	gl.disable(capability)
}

func (gl *openGL) GetError() uint32 {
	return gl.getError()
}

func (gl *openGL) GetString(name uint32) string {
	return gostring((*byte)(unsafe.Pointer(gl.getString(name))))
}

// Load binds the entry points of the current context.
func Load(getProcAddress ProcAddressFunc) (OpenGL, error) {
	addrs, err := resolve(getProcAddress)
	if err != nil {
		return nil, err
	}
	gl := &openGL{}
	purego.RegisterFunc(&gl.clearColor, addrs["glClearColor"])
	purego.RegisterFunc(&gl.clear, addrs["glClear"])
	purego.RegisterFunc(&gl.viewport, addrs["glViewport"])
	purego.RegisterFunc(&gl.scissor, addrs["glScissor"])
	purego.RegisterFunc(&gl.enable, addrs["glEnable"])
	purego.RegisterFunc(&gl.disable, addrs["glDisable"])
	purego.RegisterFunc(&gl.getError, addrs["glGetError"])
	purego.RegisterFunc(&gl.getString, addrs["glGetString"])
	return gl, nil
}
