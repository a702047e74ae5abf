// Package config loads the demo's window configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tinyrange/glwindow"
)

// Config is the effective demo configuration after defaults are applied.
type Config struct {
	Window  WindowConfig
	Pixel   PixelConfig
	Context ContextConfig
	Cursor  CursorConfig

	// ClearColor is the RGBA color the demo clears to.
	ClearColor [4]float32
	// WakeInterval is how often a background goroutine wakes the event
	// loop, in milliseconds. Zero disables it.
	WakeInterval int
}

type WindowConfig struct {
	Title       string
	Width       int
	Height      int
	Decorations bool
	Transparent bool
	Visible     bool
	Fullscreen  bool
	Icon        string
	ClassName   string
	AppName     string
}

type PixelConfig struct {
	HardwareAccelerated bool
	ColorBits           int
	AlphaBits           int
	DepthBits           int
	StencilBits         int
	DoubleBuffer        bool
	Multisampling       int
	SRGB                bool
}

type ContextConfig struct {
	// API is "gl" or "gles".
	API        string
	Major      int
	Minor      int
	VSync      bool
	Debug      bool
	Robustness string
}

type CursorConfig struct {
	Shape string
	// State is "normal", "hide" or "grab".
	State string
}

// Default mirrors the library defaults.
func Default() *Config {
	attrs := glwindow.DefaultWindowAttributes()
	reqs := glwindow.DefaultPixelFormatRequirements()
	return &Config{
		Window: WindowConfig{
			Title:       "glwindow demo",
			Width:       attrs.Width,
			Height:      attrs.Height,
			Decorations: attrs.Decorations,
			Visible:     attrs.Visible,
		},
		Pixel: PixelConfig{
			HardwareAccelerated: reqs.HardwareAccelerated,
			ColorBits:           int(reqs.ColorBits),
			AlphaBits:           int(reqs.AlphaBits),
			DepthBits:           int(reqs.DepthBits),
			StencilBits:         int(reqs.StencilBits),
			DoubleBuffer:        true,
		},
		Context: ContextConfig{
			API:        "gl",
			VSync:      true,
			Robustness: glwindow.NotRobust.String(),
		},
		Cursor: CursorConfig{
			Shape: glwindow.CursorDefault.String(),
			State: glwindow.CursorNormal.String(),
		},
		ClearColor:   [4]float32{0.1, 0.12, 0.16, 1.0},
		WakeInterval: 1000,
	}
}

// Validate checks ranges and names. It reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window: size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	for name, bits := range map[string]int{
		"color_bits":   c.Pixel.ColorBits,
		"alpha_bits":   c.Pixel.AlphaBits,
		"depth_bits":   c.Pixel.DepthBits,
		"stencil_bits": c.Pixel.StencilBits,
	} {
		if bits < 0 || bits > 255 {
			errs = append(errs, fmt.Errorf("pixel: %s out of range: %d", name, bits))
		}
	}
	if c.Pixel.Multisampling < 0 || c.Pixel.Multisampling > 0xffff {
		errs = append(errs, fmt.Errorf("pixel: multisampling out of range: %d", c.Pixel.Multisampling))
	}
	if _, err := parseAPI(c.Context.API); err != nil {
		errs = append(errs, err)
	}
	if c.Context.Major < 0 || c.Context.Minor < 0 {
		errs = append(errs, fmt.Errorf("context: negative version %d.%d", c.Context.Major, c.Context.Minor))
	}
	if _, err := parseRobustness(c.Context.Robustness); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseCursor(c.Cursor.Shape); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseCursorState(c.Cursor.State); err != nil {
		errs = append(errs, err)
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("clear_color[%d] out of range: %v", i, v))
		}
	}
	if c.WakeInterval < 0 {
		errs = append(errs, fmt.Errorf("wake_interval must not be negative: %d", c.WakeInterval))
	}
	return errors.Join(errs...)
}

// WindowAttributes converts the window section. monitor is used only when
// fullscreen is requested.
func (c *Config) WindowAttributes(monitor *glwindow.MonitorID) glwindow.WindowAttributes {
	attrs := glwindow.WindowAttributes{
		Width:       c.Window.Width,
		Height:      c.Window.Height,
		Title:       c.Window.Title,
		Decorations: c.Window.Decorations,
		Transparent: c.Window.Transparent,
		Visible:     c.Window.Visible,
		IconPath:    c.Window.Icon,
	}
	if c.Window.Fullscreen {
		attrs.Monitor = monitor
	}
	return attrs
}

func (c *Config) PixelFormatRequirements() glwindow.PixelFormatRequirements {
	buffering := glwindow.BufferingSingle
	if c.Pixel.DoubleBuffer {
		buffering = glwindow.BufferingDouble
	}
	return glwindow.PixelFormatRequirements{
		HardwareAccelerated: c.Pixel.HardwareAccelerated,
		ColorBits:           uint8(c.Pixel.ColorBits),
		AlphaBits:           uint8(c.Pixel.AlphaBits),
		DepthBits:           uint8(c.Pixel.DepthBits),
		StencilBits:         uint8(c.Pixel.StencilBits),
		Buffering:           buffering,
		Multisampling:       uint16(c.Pixel.Multisampling),
		SRGB:                c.Pixel.SRGB,
	}
}

// GLAttributes converts the context section. Call Validate first; invalid
// names fall back to the defaults here.
func (c *Config) GLAttributes() glwindow.GLAttributes {
	api, _ := parseAPI(c.Context.API)
	robustness, _ := parseRobustness(c.Context.Robustness)
	return glwindow.GLAttributes{
		Request: glwindow.GLRequest{
			API:   api,
			Major: c.Context.Major,
			Minor: c.Context.Minor,
		},
		VSync:      c.Context.VSync,
		Robustness: robustness,
		Debug:      c.Context.Debug,
	}
}

func (c *Config) PlatformExtras() glwindow.PlatformExtras {
	return glwindow.PlatformExtras{
		ClassName: c.Window.ClassName,
		AppName:   c.Window.AppName,
	}
}

func (c *Config) MouseCursor() glwindow.MouseCursor {
	cursor, _ := parseCursor(c.Cursor.Shape)
	return cursor
}

func (c *Config) CursorState() glwindow.CursorState {
	st, _ := parseCursorState(c.Cursor.State)
	return st
}

func parseAPI(s string) (glwindow.API, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gl", "opengl":
		return glwindow.APIOpenGL, nil
	case "gles", "opengles":
		return glwindow.APIOpenGLES, nil
	}
	return glwindow.APIOpenGL, fmt.Errorf("context: unknown api %q", s)
}

func parseRobustness(s string) (glwindow.Robustness, error) {
	if strings.TrimSpace(s) == "" {
		return glwindow.NotRobust, nil
	}
	for r := glwindow.NotRobust; r <= glwindow.TryRobustLoseContextOnReset; r++ {
		if strings.EqualFold(r.String(), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return glwindow.NotRobust, fmt.Errorf("context: unknown robustness %q", s)
}

func parseCursor(s string) (glwindow.MouseCursor, error) {
	if strings.TrimSpace(s) == "" {
		return glwindow.CursorDefault, nil
	}
	for _, c := range glwindow.AllCursors() {
		if strings.EqualFold(c.String(), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return glwindow.CursorDefault, fmt.Errorf("cursor: unknown shape %q", s)
}

func parseCursorState(s string) (glwindow.CursorState, error) {
	for _, st := range []glwindow.CursorState{glwindow.CursorNormal, glwindow.CursorHide, glwindow.CursorGrab} {
		if strings.EqualFold(st.String(), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	if strings.TrimSpace(s) == "" {
		return glwindow.CursorNormal, nil
	}
	return glwindow.CursorNormal, fmt.Errorf("cursor: unknown state %q", s)
}
