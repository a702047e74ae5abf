// Command glwindow-demo opens a window, clears it with OpenGL and logs the
// events it receives.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/tinyrange/glwindow"
	"github.com/tinyrange/glwindow/internal/config"
	"github.com/tinyrange/glwindow/internal/gl"
)

func init() {
	// Cocoa needs the main thread, and GL contexts are current per thread.
	runtime.LockOSThread()
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("config", "glwindow.yaml", "path to the YAML window configuration")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn or error")
	listMonitors := fs.Bool("monitors", false, "list monitors and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "log level: %v\n", err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, *configPath, *listMonitors); err != nil {
		log.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, configPath string, listMonitors bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if listMonitors {
		monitors, err := glwindow.AvailableMonitors()
		if err != nil {
			return fmt.Errorf("monitors: %w", err)
		}
		for _, m := range monitors {
			w, h := m.Dimensions()
			x, y := m.Position()
			fmt.Printf("%s\t%dx%d+%d+%d\tprimary=%t\n", m, w, h, x, y, m.Primary())
		}
		return nil
	}

	var monitor *glwindow.MonitorID
	if cfg.Window.Fullscreen {
		m, err := glwindow.PrimaryMonitor()
		if err != nil {
			return fmt.Errorf("primary monitor: %w", err)
		}
		monitor = &m
	}

	extras := cfg.PlatformExtras()
	extras.Logger = log
	win, err := glwindow.NewWindow(cfg.WindowAttributes(monitor), cfg.PixelFormatRequirements(), cfg.GLAttributes(), extras)
	if err != nil {
		var cerr *glwindow.CreationError
		if errors.As(err, &cerr) {
			log.Error("window creation failed", "stage", cerr.Stage)
		}
		return err
	}
	defer win.Close()

	if err := win.SetCursor(cfg.MouseCursor()); err != nil {
		log.Warn("set cursor", "err", err)
	}
	if err := win.SetCursorState(cfg.CursorState()); err != nil {
		log.Warn("set cursor state", "err", err)
	}

	if err := win.MakeCurrent(); err != nil {
		return fmt.Errorf("make current: %w", err)
	}
	opengl, err := gl.Load(win.GetProcAddress)
	if err != nil {
		return err
	}

	log.Info("context ready",
		"vendor", opengl.GetString(gl.Vendor),
		"renderer", opengl.GetString(gl.Renderer),
		"version", opengl.GetString(gl.Version),
		"format", win.PixelFormat(),
		"scale", win.HiDPIFactor())

	r := &renderer{gl: opengl, clear: cfg.ClearColor}
	r.width, r.height, err = win.InnerSize()
	if err != nil {
		return err
	}
	win.SetResizeCallback(func(width, height int) {
		r.width, r.height = width, height
	})

	stop := make(chan struct{})
	defer close(stop)
	if cfg.WakeInterval > 0 {
		go wakeLoop(log, win.CreateWindowProxy(), time.Duration(cfg.WakeInterval)*time.Millisecond, stop)
	}

	if err := r.draw(win); err != nil {
		return err
	}
	for ev := range win.WaitEvents() {
		switch ev := ev.(type) {
		case glwindow.Closed:
			log.Info("close requested")
			return nil
		case glwindow.KeyboardInput:
			log.Debug("key", "key", ev.Key, "scancode", ev.ScanCode, "state", ev.State)
			if ev.Key == glwindow.KeyEscape && ev.State == glwindow.Pressed {
				return nil
			}
		case glwindow.MouseMoved:
			r.cursor, r.hasCursor = ev.Position, true
		case glwindow.Awakened:
			r.tick++
		default:
			log.Debug("event", "type", fmt.Sprintf("%T", ev), "event", ev)
		}
		if err := r.draw(win); err != nil {
			return err
		}
	}
	return nil
}

// wakeLoop wakes the window's event loop at a fixed interval until stop is
// closed or the window goes away.
func wakeLoop(log *slog.Logger, proxy glwindow.WindowProxy, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := proxy.WakeupEventLoop(); err != nil {
				log.Debug("wake loop stopped", "err", err)
				return
			}
		}
	}
}

type renderer struct {
	gl    gl.OpenGL
	clear [4]float32

	width, height int
	cursor        glwindow.Position
	hasCursor     bool
	tick          int
}

// draw clears the window and marks the cursor with a small square whose
// shade changes on every wakeup.
func (r *renderer) draw(win *glwindow.Window) error {
	r.gl.Viewport(0, 0, int32(r.width), int32(r.height))
	r.gl.ClearColor(r.clear[0], r.clear[1], r.clear[2], r.clear[3])
	r.gl.Clear(gl.ColorBufferBit | gl.DepthBufferBit)

	if r.hasCursor {
		const size = 32
		shade := float32(r.tick%4+1) / 4
		x := int32(r.cursor.X) - size/2
		// GL's origin is bottom-left.
		y := int32(r.height) - int32(r.cursor.Y) - size/2
		r.gl.Enable(gl.ScissorTest)
		r.gl.Scissor(x, y, size, size)
		r.gl.ClearColor(shade, 0.6, 1-shade, 1)
		r.gl.Clear(gl.ColorBufferBit)
		r.gl.Disable(gl.ScissorTest)
	}

	if code := r.gl.GetError(); code != gl.NoError {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return win.SwapBuffers()
}
