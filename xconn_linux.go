//go:build linux

package glwindow

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/tinyrange/glwindow/internal/handle"
)

const wakeAtomName = "_GLWINDOW_WAKEUP"

// x11Backend is one Xlib display shared by every window, plus an xgb
// connection to the same server. Xlib owns windows, GLX and input; xgb sets
// properties, wakes event loops and queries RandR without taking the Xlib
// display lock.
type x11Backend struct {
	log *slog.Logger

	// conn is shared by every window. The backend keeps its own reference
	// for the life of the process, so the display is never closed.
	conn   *handle.Owned[uintptr]
	dpy    uintptr
	xu     *xgbutil.XUtil
	screen int32
	root   uintptr

	wmDelete xproto.Atom
	wakeAtom xproto.Atom
	scale    float64

	eglOnce sync.Once
	eglDpy  uintptr
	eglErr  error

	randrOnce sync.Once
	randrErr  error

	// createMu serializes window creation, which reads xErrorState.
	createMu sync.Mutex
}

func openNativeBackend(log *slog.Logger) (backend, error) {
	if err := ensureLibs(); err != nil {
		return nil, err
	}
	// Windows are driven from several goroutines.
	if xInitThreads() == 0 {
		return nil, osErr("XInitThreads", nil)
	}
	xSetErrorHandler(x11ErrorHandler)

	dpy := xOpenDisplay(nil)
	if dpy == 0 {
		return nil, osErr("XOpenDisplay", nil)
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		xCloseDisplay(dpy)
		return nil, osErr("connect X side channel", err)
	}

	b := &x11Backend{
		log:    log,
		dpy:    dpy,
		xu:     xu,
		screen: xDefaultScreen(dpy),
	}
	b.root = xRootWindow(dpy, b.screen)

	if b.wmDelete, err = xprop.Atm(xu, "WM_DELETE_WINDOW"); err != nil {
		b.closeDisplay(dpy)
		return nil, osErr("intern WM_DELETE_WINDOW", err)
	}
	if b.wakeAtom, err = xprop.Atm(xu, wakeAtomName); err != nil {
		b.closeDisplay(dpy)
		return nil, osErr("intern "+wakeAtomName, err)
	}
	b.scale = b.calculateScale()
	b.conn = handle.New(dpy, b.closeDisplay)

	log.Debug("x11 display opened", "screen", b.screen, "scale", b.scale)
	return b, nil
}

func (b *x11Backend) closeDisplay(dpy uintptr) {
	if b.eglDpy != 0 {
		eglTerminate(b.eglDpy)
	}
	b.xu.Conn().Close()
	xCloseDisplay(dpy)
	b.log.Debug("x11 display closed")
}

func (b *x11Backend) kind() BackendKind { return BackendX11 }

func (b *x11Backend) variantFor(req GLRequest) (ContextVariant, error) {
	switch req.API {
	case APIOpenGL:
		return VariantGLX, nil
	case APIOpenGLES:
		if egllib == 0 {
			return 0, fmt.Errorf("%w: %s needs libEGL", ErrOpenGLVersionNotSupported, req)
		}
		return VariantEGL, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNotSupported, req)
}

// egl initializes EGL on the shared display the first time a GLES window is
// created.
func (b *x11Backend) egl() (uintptr, error) {
	b.eglOnce.Do(func() {
		b.eglDpy, b.eglErr = openEGLDisplay(b.dpy)
	})
	return b.eglDpy, b.eglErr
}

// calculateScale calculates the display scale factor based on DPI.
// It tries, in order: the GTK_SCALE, GDK_SCALE and QT_SCALE_FACTOR
// environment variables, Xft.dpi from the X resources, and the screen's
// physical size. It defaults to 1.
func (b *x11Backend) calculateScale() float64 {
	if s := envScale(); s > 0 {
		return s
	}
	if xResourceManagerString != nil {
		if dpi := parseXftDPI(gostring(xResourceManagerString(b.dpy))); dpi > 0 {
			return roundScale(dpi / 96)
		}
	}
	if s := physicalScale(int(xDisplayWidth(b.dpy, b.screen)), int(xDisplayWidthMM(b.dpy, b.screen))); s > 0 {
		return s
	}
	return 1
}

// sendClientMessage delivers a 32 bit ClientMessage through the xgb
// connection. It is built by hand since the xgbutil request helpers assert
// on int data.
func (b *x11Backend) sendClientMessage(dest, win xproto.Window, typ xproto.Atom, mask uint32, data ...uint32) error {
	buf := make([]uint32, 5)
	copy(buf, data)
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(buf),
	}
	return xproto.SendEventChecked(b.xu.Conn(), false, dest, mask, string(ev.Bytes())).Check()
}

func (b *x11Backend) monitors() ([]MonitorID, error) {
	monitors, err := b.randrMonitors()
	if err == nil && len(monitors) > 0 {
		return monitors, nil
	}
	if err != nil {
		b.log.Debug("randr unavailable, using screen size", "error", err)
	}
	return []MonitorID{{
		native:  NativeMonitorID{Numeric: uint32(b.screen)},
		width:   int(xDisplayWidth(b.dpy, b.screen)),
		height:  int(xDisplayHeight(b.dpy, b.screen)),
		primary: true,
		backend: BackendX11,
	}}, nil
}

// randrMonitors lists the enabled CRTCs.
func (b *x11Backend) randrMonitors() ([]MonitorID, error) {
	conn := b.xu.Conn()
	b.randrOnce.Do(func() { b.randrErr = randr.Init(conn) })
	if b.randrErr != nil {
		return nil, fmt.Errorf("randr init failed: %w", b.randrErr)
	}

	resources, err := randr.GetScreenResources(conn, b.xu.RootWin()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, b.xu.RootWin()).Reply(); err == nil {
		primary = reply.Output
	}

	var monitors []MonitorID
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(conn, info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}
		isPrimary := false
		for _, o := range info.Outputs {
			if o == primary && primary != 0 {
				isPrimary = true
			}
		}
		monitors = append(monitors, MonitorID{
			name:    name,
			native:  NativeMonitorID{Numeric: uint32(i)},
			x:       int(info.X),
			y:       int(info.Y),
			width:   int(info.Width),
			height:  int(info.Height),
			primary: isPrimary,
			backend: BackendX11,
			device:  strconv.FormatUint(uint64(crtc), 10),
		})
	}
	if len(monitors) == 0 {
		return nil, errors.New("no enabled CRTCs")
	}
	return monitors, nil
}
