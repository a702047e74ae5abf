package glwindow

import (
	"fmt"
	"log/slog"
)

const (
	defaultWidth  = 800
	defaultHeight = 600
	defaultTitle  = "glwindow"
)

// WindowAttributes describe the native window.
type WindowAttributes struct {
	// Width and Height of the client area. Zero selects 800x600.
	Width, Height int

	Title       string
	Decorations bool
	Transparent bool
	Visible     bool

	// Monitor, when set, opens the window fullscreen on that display.
	Monitor *MonitorID

	// Size constraints are not supported by any backend and must be left
	// zero.
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int

	// IconPath names a PNG or BMP file used as the window icon.
	IconPath string
}

// DefaultWindowAttributes returns a visible, decorated, opaque 800x600 window.
func DefaultWindowAttributes() WindowAttributes {
	return WindowAttributes{
		Width:       defaultWidth,
		Height:      defaultHeight,
		Title:       defaultTitle,
		Decorations: true,
		Visible:     true,
	}
}

func (a WindowAttributes) size() (int, int) {
	w, h := a.Width, a.Height
	if w == 0 {
		w = defaultWidth
	}
	if h == 0 {
		h = defaultHeight
	}
	return w, h
}

// Buffering selects single or double buffering.
type Buffering int

const (
	BufferingAny Buffering = iota
	BufferingDouble
	BufferingSingle
)

// PixelFormatRequirements are the minimums a negotiated format must meet.
type PixelFormatRequirements struct {
	HardwareAccelerated bool

	ColorBits   uint8
	AlphaBits   uint8
	DepthBits   uint8
	StencilBits uint8

	Buffering Buffering

	// Multisampling is the minimum sample count. Zero disables it.
	Multisampling uint16
	Stereoscopy   bool
	SRGB          bool
}

// DefaultPixelFormatRequirements asks for a hardware accelerated, double
// buffered RGBA8 format with a 24 bit depth and 8 bit stencil buffer.
func DefaultPixelFormatRequirements() PixelFormatRequirements {
	return PixelFormatRequirements{
		HardwareAccelerated: true,
		ColorBits:           24,
		AlphaBits:           8,
		DepthBits:           24,
		StencilBits:         8,
		Buffering:           BufferingDouble,
	}
}

// API is a rendering API family.
type API int

const (
	APIOpenGL API = iota
	APIOpenGLES
)

func (a API) String() string {
	switch a {
	case APIOpenGL:
		return "OpenGL"
	case APIOpenGLES:
		return "OpenGL ES"
	default:
		return fmt.Sprintf("API(%d)", int(a))
	}
}

// GLRequest names an API and version. A zero Major asks for the newest
// version the driver provides.
type GLRequest struct {
	API   API
	Major int
	Minor int
}

func (r GLRequest) String() string {
	if r.Major == 0 {
		return r.API.String() + " latest"
	}
	return fmt.Sprintf("%s %d.%d", r.API, r.Major, r.Minor)
}

// Robustness selects the context's behavior on GPU resets and out of bounds
// access.
type Robustness int

const (
	NotRobust Robustness = iota
	NoError
	RobustNoResetNotification
	TryRobustNoResetNotification
	RobustLoseContextOnReset
	TryRobustLoseContextOnReset
)

func (r Robustness) String() string {
	switch r {
	case NotRobust:
		return "not robust"
	case NoError:
		return "no error"
	case RobustNoResetNotification:
		return "robust no reset notification"
	case TryRobustNoResetNotification:
		return "try robust no reset notification"
	case RobustLoseContextOnReset:
		return "robust lose context on reset"
	case TryRobustLoseContextOnReset:
		return "try robust lose context on reset"
	default:
		return fmt.Sprintf("Robustness(%d)", int(r))
	}
}

// GLAttributes configure the rendering context.
type GLAttributes struct {
	Request    GLRequest
	VSync      bool
	Robustness Robustness
	Debug      bool

	// ShareWith, when set, makes the new context share objects with the
	// context of an existing window.
	ShareWith *Window
}

// DefaultGLAttributes requests the newest OpenGL without vsync.
func DefaultGLAttributes() GLAttributes {
	return GLAttributes{Request: GLRequest{API: APIOpenGL}}
}

// ActivationPolicy is the macOS application activation policy.
type ActivationPolicy int

const (
	ActivationPolicyRegular ActivationPolicy = iota
	ActivationPolicyAccessory
	ActivationPolicyProhibited
)

// PlatformExtras carry backend specific options. Backends ignore the fields
// that do not apply to them.
type PlatformExtras struct {
	Logger *slog.Logger

	// ActivationPolicy and AppName apply to macOS.
	ActivationPolicy ActivationPolicy
	AppName          string

	// ClassName sets WM_CLASS on X11 and the window class name on Win32.
	ClassName string
}

func (e PlatformExtras) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// validateAttributes rejects unsupported combinations before any native
// resource exists.
func validateAttributes(attrs WindowAttributes, reqs PixelFormatRequirements, gl GLAttributes) error {
	if attrs.Width < 0 || attrs.Height < 0 {
		return fmt.Errorf("%w: negative window size %dx%d", ErrNotSupported, attrs.Width, attrs.Height)
	}
	if attrs.MinWidth != 0 || attrs.MinHeight != 0 || attrs.MaxWidth != 0 || attrs.MaxHeight != 0 {
		return fmt.Errorf("%w: min/max window dimensions", ErrNotSupported)
	}
	if reqs.Multisampling > 0 && reqs.Multisampling&(reqs.Multisampling-1) != 0 {
		return fmt.Errorf("%w: multisampling must be a power of two, got %d", ErrNotSupported, reqs.Multisampling)
	}
	switch gl.Robustness {
	case NotRobust, NoError, TryRobustNoResetNotification, TryRobustLoseContextOnReset:
	case RobustNoResetNotification, RobustLoseContextOnReset:
		return fmt.Errorf("%w: %s", ErrRobustnessNotSupported, gl.Robustness)
	default:
		return fmt.Errorf("%w: unknown robustness %d", ErrNotSupported, int(gl.Robustness))
	}
	switch gl.Request.API {
	case APIOpenGL:
		if gl.Request.Major > 4 || gl.Request.Major < 0 {
			return fmt.Errorf("%w: %s", ErrOpenGLVersionNotSupported, gl.Request)
		}
	case APIOpenGLES:
		if gl.Request.Major > 3 || gl.Request.Major < 0 {
			return fmt.Errorf("%w: %s", ErrOpenGLVersionNotSupported, gl.Request)
		}
	default:
		return fmt.Errorf("%w: unknown API %d", ErrNotSupported, int(gl.Request.API))
	}
	return nil
}
