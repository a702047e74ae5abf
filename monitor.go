package glwindow

import (
	"fmt"
	"strconv"
)

// NativeMonitorID identifies a monitor the way its backend does: X11 and
// Cocoa use a number, Win32 a device name.
type NativeMonitorID struct {
	Numeric uint32
	Name    string
	// Named is set when Name, not Numeric, identifies the monitor.
	Named bool
}

func (id NativeMonitorID) String() string {
	if id.Named {
		return id.Name
	}
	return strconv.FormatUint(uint64(id.Numeric), 10)
}

// MonitorID is a snapshot of one display taken at enumeration time. It is
// not refreshed when the display configuration changes.
type MonitorID struct {
	name          string
	native        NativeMonitorID
	x, y          int
	width, height int
	primary       bool
	backend       BackendKind

	// device is the backend's own handle for fullscreen requests: an X
	// RandR CRTC, a Win32 device name, or a CGDirectDisplayID.
	device string
}

// Name returns a human readable display name, or "" when unknown.
func (m MonitorID) Name() string { return m.name }

// NativeID returns the backend specific identifier.
func (m MonitorID) NativeID() NativeMonitorID { return m.native }

// Dimensions returns the display size in physical pixels.
func (m MonitorID) Dimensions() (width, height int) { return m.width, m.height }

// Position returns the top-left corner of the display in the virtual
// desktop.
func (m MonitorID) Position() (x, y int) { return m.x, m.y }

// Primary reports whether this is the primary display.
func (m MonitorID) Primary() bool { return m.primary }

func (m MonitorID) String() string {
	return fmt.Sprintf("%s %q %dx%d+%d+%d", m.native, m.name, m.width, m.height, m.x, m.y)
}

// primaryOf returns the monitor flagged primary, or the first one.
func primaryOf(monitors []MonitorID) (MonitorID, error) {
	if len(monitors) == 0 {
		return MonitorID{}, fmt.Errorf("enumerate monitors: %w: no monitors", ErrOsError)
	}
	for _, m := range monitors {
		if m.primary {
			return m, nil
		}
	}
	return monitors[0], nil
}
