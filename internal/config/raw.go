package config

// RawConfig mirrors the YAML file. Nil fields keep the default.
type RawConfig struct {
	Window       *RawWindow  `yaml:"window"`
	Pixel        *RawPixel   `yaml:"pixel"`
	Context      *RawContext `yaml:"context"`
	Cursor       *RawCursor  `yaml:"cursor"`
	ClearColor   []float32   `yaml:"clear_color"`
	WakeInterval *int        `yaml:"wake_interval"`
}

type RawWindow struct {
	Title       *string `yaml:"title"`
	Width       *int    `yaml:"width"`
	Height      *int    `yaml:"height"`
	Decorations *bool   `yaml:"decorations"`
	Transparent *bool   `yaml:"transparent"`
	Visible     *bool   `yaml:"visible"`
	Fullscreen  *bool   `yaml:"fullscreen"`
	Icon        *string `yaml:"icon"`
	ClassName   *string `yaml:"class_name"`
	AppName     *string `yaml:"app_name"`
}

type RawPixel struct {
	HardwareAccelerated *bool `yaml:"hardware_accelerated"`
	ColorBits           *int  `yaml:"color_bits"`
	AlphaBits           *int  `yaml:"alpha_bits"`
	DepthBits           *int  `yaml:"depth_bits"`
	StencilBits         *int  `yaml:"stencil_bits"`
	DoubleBuffer        *bool `yaml:"double_buffer"`
	Multisampling       *int  `yaml:"multisampling"`
	SRGB                *bool `yaml:"srgb"`
}

type RawContext struct {
	API        *string `yaml:"api"`
	Major      *int    `yaml:"major"`
	Minor      *int    `yaml:"minor"`
	VSync      *bool   `yaml:"vsync"`
	Debug      *bool   `yaml:"debug"`
	Robustness *string `yaml:"robustness"`
}

type RawCursor struct {
	Shape *string `yaml:"shape"`
	State *string `yaml:"state"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// apply overlays the fields present in r onto cfg.
func (r RawConfig) apply(cfg *Config) {
	if w := r.Window; w != nil {
		set(&cfg.Window.Title, w.Title)
		set(&cfg.Window.Width, w.Width)
		set(&cfg.Window.Height, w.Height)
		set(&cfg.Window.Decorations, w.Decorations)
		set(&cfg.Window.Transparent, w.Transparent)
		set(&cfg.Window.Visible, w.Visible)
		set(&cfg.Window.Fullscreen, w.Fullscreen)
		set(&cfg.Window.Icon, w.Icon)
		set(&cfg.Window.ClassName, w.ClassName)
		set(&cfg.Window.AppName, w.AppName)
	}
	if p := r.Pixel; p != nil {
		set(&cfg.Pixel.HardwareAccelerated, p.HardwareAccelerated)
		set(&cfg.Pixel.ColorBits, p.ColorBits)
		set(&cfg.Pixel.AlphaBits, p.AlphaBits)
		set(&cfg.Pixel.DepthBits, p.DepthBits)
		set(&cfg.Pixel.StencilBits, p.StencilBits)
		set(&cfg.Pixel.DoubleBuffer, p.DoubleBuffer)
		set(&cfg.Pixel.Multisampling, p.Multisampling)
		set(&cfg.Pixel.SRGB, p.SRGB)
	}
	if c := r.Context; c != nil {
		set(&cfg.Context.API, c.API)
		set(&cfg.Context.Major, c.Major)
		set(&cfg.Context.Minor, c.Minor)
		set(&cfg.Context.VSync, c.VSync)
		set(&cfg.Context.Debug, c.Debug)
		set(&cfg.Context.Robustness, c.Robustness)
	}
	if c := r.Cursor; c != nil {
		set(&cfg.Cursor.Shape, c.Shape)
		set(&cfg.Cursor.State, c.State)
	}
	copy(cfg.ClearColor[:], r.ClearColor)
	set(&cfg.WakeInterval, r.WakeInterval)
}
