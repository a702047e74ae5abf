package glwindow

import "unicode/utf16"

const (
	wmMove        = 0x0003
	wmSize        = 0x0005
	wmSetFocus    = 0x0007
	wmKillFocus   = 0x0008
	wmClose       = 0x0010
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmChar        = 0x0102
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020A
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C
	wmMouseHWheel = 0x020E

	wheelDelta = 120
)

// win32Message is one window procedure invocation.
type win32Message struct {
	Msg    uint32
	WParam uintptr
	LParam uintptr
}

func loword(v uintptr) uint16 { return uint16(v & 0xffff) }
func hiword(v uintptr) uint16 { return uint16((v >> 16) & 0xffff) }

// lparamPoint decodes the signed client coordinates packed in lParam.
func lparamPoint(lParam uintptr) Position {
	return Position{X: float64(int16(loword(lParam))), Y: float64(int16(hiword(lParam)))}
}

// win32Translator holds the per-window state message translation needs.
type win32Translator struct {
	wakeMsg uint32

	// highSurrogate holds the first half of a UTF-16 pair delivered as two
	// WM_CHAR messages.
	highSurrogate uint16
}

func (t *win32Translator) translate(m *win32Message) (events []Event, wake bool) {
	if m == nil {
		return nil, false
	}
	if t.wakeMsg != 0 && m.Msg == t.wakeMsg {
		return nil, true
	}

	switch m.Msg {
	case wmClose:
		return []Event{Closed{}}, false

	case wmSize:
		return []Event{Resized{Width: int(loword(m.LParam)), Height: int(hiword(m.LParam))}}, false

	case wmMove:
		return []Event{Moved{X: int(int16(loword(m.LParam))), Y: int(int16(hiword(m.LParam)))}}, false

	case wmSetFocus:
		return []Event{Focused{Focused: true}}, false

	case wmKillFocus:
		return []Event{Focused{Focused: false}}, false

	case wmKeyDown, wmSysKeyDown, wmKeyUp, wmSysKeyUp:
		scan := uint32((m.LParam >> 16) & 0xff)
		extended := m.LParam&(1<<24) != 0
		state := Pressed
		if m.Msg == wmKeyUp || m.Msg == wmSysKeyUp {
			state = Released
		}
		return []Event{KeyboardInput{
			State:    state,
			ScanCode: scan,
			Key:      win32VirtualKeyToKey(uint32(m.WParam), scan, extended),
		}}, false

	case wmChar:
		u := uint16(m.WParam)
		switch {
		case utf16.IsSurrogate(rune(u)) && u < 0xdc00:
			t.highSurrogate = u
			return nil, false
		case utf16.IsSurrogate(rune(u)):
			high := t.highSurrogate
			t.highSurrogate = 0
			if high == 0 {
				return nil, false
			}
			return []Event{ReceivedCharacter{Char: utf16.DecodeRune(rune(high), rune(u))}}, false
		}
		t.highSurrogate = 0
		return []Event{ReceivedCharacter{Char: rune(u)}}, false

	case wmMouseMove:
		return []Event{MouseMoved{Position: lparamPoint(m.LParam)}}, false

	case wmLButtonDown, wmLButtonUp, wmRButtonDown, wmRButtonUp,
		wmMButtonDown, wmMButtonUp, wmXButtonDown, wmXButtonUp:
		var button Button
		state := Pressed
		switch m.Msg {
		case wmLButtonDown:
			button = ButtonLeft
		case wmLButtonUp:
			button, state = ButtonLeft, Released
		case wmRButtonDown:
			button = ButtonRight
		case wmRButtonUp:
			button, state = ButtonRight, Released
		case wmMButtonDown:
			button = ButtonMiddle
		case wmMButtonUp:
			button, state = ButtonMiddle, Released
		default:
			// XBUTTON1 = 0x0001, XBUTTON2 = 0x0002 in high word
			switch hiword(m.WParam) {
			case 1:
				button = Button4
			case 2:
				button = Button5
			default:
				return nil, false
			}
			if m.Msg == wmXButtonUp {
				state = Released
			}
		}
		return []Event{MouseInput{State: state, Button: button, Position: lparamPoint(m.LParam), HasPosition: true}}, false

	case wmMouseWheel, wmMouseHWheel:
		// Wheel messages carry screen coordinates, so no position is
		// attached.
		notches := float32(int16(hiword(m.WParam))) / wheelDelta
		delta := ScrollDelta{Kind: LineDelta, Y: notches}
		if m.Msg == wmMouseHWheel {
			delta = ScrollDelta{Kind: LineDelta, X: notches}
		}
		return []Event{MouseWheel{Delta: delta, Phase: PhaseMoved}}, false
	}
	return nil, false
}
