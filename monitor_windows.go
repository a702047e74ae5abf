//go:build windows

package glwindow

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

// monitors lists the active display adapters. The name is the attached
// monitor's description when the driver reports one.
func (b *win32Backend) monitors() ([]MonitorID, error) {
	var monitors []MonitorID
	for i := uint32(0); ; i++ {
		var adapter displayDevice
		adapter.cb = uint32(unsafe.Sizeof(adapter))
		if r, _, _ := procEnumDisplayDevices.Call(0, uintptr(i), uintptr(unsafe.Pointer(&adapter)), 0); r == 0 {
			break
		}
		if adapter.stateFlags&displayDeviceActive == 0 {
			continue
		}

		var dm devMode
		dm.size = uint16(unsafe.Sizeof(dm))
		if r, _, _ := procEnumDisplaySettingsEx.Call(
			uintptr(unsafe.Pointer(&adapter.deviceName[0])),
			enumCurrentSettings,
			uintptr(unsafe.Pointer(&dm)),
			0,
		); r == 0 {
			continue
		}

		device := windows.UTF16ToString(adapter.deviceName[:])
		name := windows.UTF16ToString(adapter.deviceString[:])
		var mon displayDevice
		mon.cb = uint32(unsafe.Sizeof(mon))
		if r, _, _ := procEnumDisplayDevices.Call(uintptr(unsafe.Pointer(&adapter.deviceName[0])), 0, uintptr(unsafe.Pointer(&mon)), 0); r != 0 {
			if s := windows.UTF16ToString(mon.deviceString[:]); s != "" {
				name = s
			}
		}

		monitors = append(monitors, MonitorID{
			name:    name,
			native:  NativeMonitorID{Name: device, Named: true},
			x:       int(dm.positionX),
			y:       int(dm.positionY),
			width:   int(dm.pelsWidth),
			height:  int(dm.pelsHeight),
			primary: adapter.stateFlags&displayDevicePrimary != 0,
			backend: BackendWin32,
			device:  device,
		})
	}
	if len(monitors) == 0 {
		return nil, osErr("EnumDisplayDevicesW", errors.New("no active displays"))
	}
	return monitors, nil
}
