//go:build windows

package gl

import (
	"math"
	"syscall"
	"unsafe"
)

// openGL calls the entry points directly. The first four arguments are
// mirrored into the float registers by the syscall trampoline, which is
// enough for every float taking call here.
type openGL struct {
	clearColor uintptr
	clear      uintptr
	viewport   uintptr
	scissor    uintptr
	enable     uintptr
	disable    uintptr
	getError   uintptr
	getString  uintptr
}

func (gl *openGL) ClearColor(r, g, b, a float32) {
	syscall.SyscallN(gl.clearColor, f32(r), f32(g), f32(b), f32(a))
}

func (gl *openGL) Clear(mask uint32) {
	syscall.SyscallN(gl.clear, uintptr(mask))
}

func (gl *openGL) Viewport(x, y, width, height int32) {
	syscall.SyscallN(gl.viewport, uintptr(x), uintptr(y), uintptr(width), uintptr(height))
}

func (gl *openGL) Scissor(x, y, width, height int32) {
	syscall.SyscallN(gl.scissor, uintptr(x), uintptr(y), uintptr(width), uintptr(height))
}

func (gl *openGL) Enable(capability uint32) {
	syscall.SyscallN(gl.enable, uintptr(capability))
}

func (gl *openGL) Disable(capability uint32) {
	syscall.SyscallN(gl.disable, uintptr(capability))
}

func (gl *openGL) GetError() uint32 {
	r, _, _ := syscall.SyscallN(gl.getError)
	return uint32(r)
}

func (gl *openGL) GetString(name uint32) string {
	ptr, _, _ := syscall.SyscallN(gl.getString, uintptr(name))
	return gostring((*byte)(unsafe.Pointer(ptr)))
}

// Load binds the entry points of the current context.
func Load(getProcAddress ProcAddressFunc) (OpenGL, error) {
	addrs, err := resolve(getProcAddress)
	if err != nil {
		return nil, err
	}
	return &openGL{
		clearColor: addrs["glClearColor"],
		clear:      addrs["glClear"],
		viewport:   addrs["glViewport"],
		scissor:    addrs["glScissor"],
		enable:     addrs["glEnable"],
		disable:    addrs["glDisable"],
		getError:   addrs["glGetError"],
		getString:  addrs["glGetString"],
	}, nil
}

func f32(v float32) uintptr {
	return uintptr(math.Float32bits(v))
}
