package glwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestX11Translate(t *testing.T) {
	tr := &x11Translator{wmDelete: 100, wakeAtom: 200}

	tests := []struct {
		name string
		ev   x11Event
		want []Event
		wake bool
	}{
		{
			name: "key press with text",
			ev:   x11Event{Type: x11KeyPress, Keycode: 38, Keysym: 'a', Text: []byte("a")},
			want: []Event{ReceivedCharacter{Char: 'a'}, KeyboardInput{State: Pressed, ScanCode: 38, Key: KeyA}},
		},
		{
			name: "unicode keysym",
			ev:   x11Event{Type: x11KeyPress, Keycode: 10, Keysym: 0x010020ac},
			want: []Event{ReceivedCharacter{Char: '€'}, KeyboardInput{State: Pressed, ScanCode: 10}},
		},
		{
			name: "escape produces no text",
			ev:   x11Event{Type: x11KeyPress, Keycode: 9, Keysym: 0xff1b, Text: []byte{0x1b}},
			want: []Event{KeyboardInput{State: Pressed, ScanCode: 9, Key: KeyEscape}},
		},
		{
			name: "key release",
			ev:   x11Event{Type: x11KeyRelease, Keycode: 50, Keysym: 0xffe1},
			want: []Event{KeyboardInput{State: Released, ScanCode: 50, Key: KeyLeftShift}},
		},
		{
			name: "left button",
			ev:   x11Event{Type: x11ButtonPress, Button: 1, X: 5, Y: 6},
			want: []Event{MouseInput{State: Pressed, Button: ButtonLeft, Position: Position{X: 5, Y: 6}, HasPosition: true}},
		},
		{
			name: "right button release",
			ev:   x11Event{Type: x11ButtonRelease, Button: 3},
			want: []Event{MouseInput{State: Released, Button: ButtonRight, HasPosition: true}},
		},
		{
			name: "wheel up",
			ev:   x11Event{Type: x11ButtonPress, Button: 4, X: 1, Y: 2},
			want: []Event{MouseWheel{Delta: ScrollDelta{Kind: LineDelta, Y: 1}, Phase: PhaseMoved, Position: Position{X: 1, Y: 2}, HasPosition: true}},
		},
		{
			name: "wheel release ignored",
			ev:   x11Event{Type: x11ButtonRelease, Button: 5},
		},
		{
			name: "horizontal wheel",
			ev:   x11Event{Type: x11ButtonPress, Button: 7},
			want: []Event{MouseWheel{Delta: ScrollDelta{Kind: LineDelta, X: -1}, Phase: PhaseMoved, HasPosition: true}},
		},
		{
			name: "unknown button",
			ev:   x11Event{Type: x11ButtonPress, Button: 12},
		},
		{
			name: "motion",
			ev:   x11Event{Type: x11MotionNotify, X: 7, Y: 8},
			want: []Event{MouseMoved{Position: Position{X: 7, Y: 8}}},
		},
		{
			name: "focus out",
			ev:   x11Event{Type: x11FocusOut},
			want: []Event{Focused{Focused: false}},
		},
		{
			name: "delete window",
			ev:   x11Event{Type: x11ClientMessage, Format: 32, MessageType: 1, Data0: 100},
			want: []Event{Closed{}},
		},
		{
			name: "wake",
			ev:   x11Event{Type: x11ClientMessage, Format: 32, MessageType: 200},
			wake: true,
		},
		{
			name: "wrong format",
			ev:   x11Event{Type: x11ClientMessage, Format: 8, MessageType: 200},
		},
		{
			name: "destroyed",
			ev:   x11Event{Type: x11DestroyNotify},
			want: []Event{Closed{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, wake := tr.translate(&tt.ev)
			assert.Equal(t, tt.want, events)
			assert.Equal(t, tt.wake, wake)
		})
	}
}

func TestX11ConfigureOnlyReportsChanges(t *testing.T) {
	tr := &x11Translator{}

	events, _ := tr.translate(&x11Event{Type: x11ConfigureNotify, X: 0, Y: 0, Width: 800, Height: 600})
	assert.Equal(t, []Event{Resized{Width: 800, Height: 600}, Moved{X: 0, Y: 0}}, events)

	events, _ = tr.translate(&x11Event{Type: x11ConfigureNotify, X: 0, Y: 0, Width: 800, Height: 600})
	assert.Empty(t, events)

	events, _ = tr.translate(&x11Event{Type: x11ConfigureNotify, X: 10, Y: 0, Width: 800, Height: 600})
	assert.Equal(t, []Event{Moved{X: 10, Y: 0}}, events)

	events, _ = tr.translate(&x11Event{Type: x11ConfigureNotify, X: 10, Y: 0, Width: 640, Height: 600})
	assert.Equal(t, []Event{Resized{Width: 640, Height: 600}}, events)

	events, wake := tr.translate(nil)
	assert.Nil(t, events)
	assert.False(t, wake)
}

func TestX11Keysyms(t *testing.T) {
	assert.Equal(t, KeyQ, x11KeysymToKey('q'))
	assert.Equal(t, KeyQ, x11KeysymToKey('Q'))
	assert.Equal(t, Key7, x11KeysymToKey('7'))
	assert.Equal(t, KeyF12, x11KeysymToKey(0xffc9))
	assert.Equal(t, KeyUnknown, x11KeysymToKey(0x12345))
}

func makeLParam(lo, hi int16) uintptr {
	return uintptr(uint16(lo)) | uintptr(uint16(hi))<<16
}

func TestWin32Translate(t *testing.T) {
	tr := &win32Translator{wakeMsg: 0xc123}

	tests := []struct {
		name string
		msg  win32Message
		want []Event
		wake bool
	}{
		{"close", win32Message{Msg: wmClose}, []Event{Closed{}}, false},
		{"wake", win32Message{Msg: 0xc123}, nil, true},
		{"size", win32Message{Msg: wmSize, LParam: makeLParam(640, 480)}, []Event{Resized{Width: 640, Height: 480}}, false},
		{"move negative", win32Message{Msg: wmMove, LParam: makeLParam(-10, 20)}, []Event{Moved{X: -10, Y: 20}}, false},
		{"focus", win32Message{Msg: wmSetFocus}, []Event{Focused{Focused: true}}, false},
		{
			"key down",
			win32Message{Msg: wmKeyDown, WParam: 'A', LParam: 0x1e << 16},
			[]Event{KeyboardInput{State: Pressed, ScanCode: 0x1e, Key: KeyA}},
			false,
		},
		{
			"right control up",
			win32Message{Msg: wmKeyUp, WParam: vkControl, LParam: 0x1d<<16 | 1<<24},
			[]Event{KeyboardInput{State: Released, ScanCode: 0x1d, Key: KeyRightControl}},
			false,
		},
		{
			"right shift",
			win32Message{Msg: wmSysKeyDown, WParam: vkShift, LParam: 0x36 << 16},
			[]Event{KeyboardInput{State: Pressed, ScanCode: 0x36, Key: KeyRightShift}},
			false,
		},
		{"char", win32Message{Msg: wmChar, WParam: 'x'}, []Event{ReceivedCharacter{Char: 'x'}}, false},
		{"mouse move", win32Message{Msg: wmMouseMove, LParam: makeLParam(3, -4)}, []Event{MouseMoved{Position: Position{X: 3, Y: -4}}}, false},
		{
			"middle up",
			win32Message{Msg: wmMButtonUp, LParam: makeLParam(1, 2)},
			[]Event{MouseInput{State: Released, Button: ButtonMiddle, Position: Position{X: 1, Y: 2}, HasPosition: true}},
			false,
		},
		{
			"xbutton2 down",
			win32Message{Msg: wmXButtonDown, WParam: 2 << 16},
			[]Event{MouseInput{State: Pressed, Button: Button5, HasPosition: true}},
			false,
		},
		{"xbutton unknown", win32Message{Msg: wmXButtonDown, WParam: 3 << 16}, nil, false},
		{
			"wheel down",
			win32Message{Msg: wmMouseWheel, WParam: uintptr(uint16(0xff88)) << 16},
			[]Event{MouseWheel{Delta: ScrollDelta{Kind: LineDelta, Y: -1}, Phase: PhaseMoved}},
			false,
		},
		{
			"horizontal wheel",
			win32Message{Msg: wmMouseHWheel, WParam: 240 << 16},
			[]Event{MouseWheel{Delta: ScrollDelta{Kind: LineDelta, X: 2}, Phase: PhaseMoved}},
			false,
		},
		{"unhandled", win32Message{Msg: 0x0400}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, wake := tr.translate(&tt.msg)
			assert.Equal(t, tt.want, events)
			assert.Equal(t, tt.wake, wake)
		})
	}
}

func TestWin32SurrogatePairs(t *testing.T) {
	tr := &win32Translator{}

	events, _ := tr.translate(&win32Message{Msg: wmChar, WParam: 0xd83d})
	assert.Empty(t, events)
	events, _ = tr.translate(&win32Message{Msg: wmChar, WParam: 0xde00})
	assert.Equal(t, []Event{ReceivedCharacter{Char: '😀'}}, events)

	// A lone low surrogate is dropped.
	events, _ = tr.translate(&win32Message{Msg: wmChar, WParam: 0xde00})
	assert.Empty(t, events)
}

func TestCocoaTranslate(t *testing.T) {
	base := cocoaEvent{ViewHeight: 100, Scale: 2}
	with := func(f func(*cocoaEvent)) cocoaEvent {
		ev := base
		f(&ev)
		return ev
	}

	tests := []struct {
		name string
		ev   cocoaEvent
		want []Event
		wake bool
	}{
		{
			name: "key down",
			ev:   with(func(e *cocoaEvent) { e.Type, e.KeyCode, e.Characters = nsEventTypeKeyDown, 0x00, "a" }),
			want: []Event{ReceivedCharacter{Char: 'a'}, KeyboardInput{State: Pressed, ScanCode: 0, Key: KeyA}},
		},
		{
			name: "key up",
			ev:   with(func(e *cocoaEvent) { e.Type, e.KeyCode = nsEventTypeKeyUp, 0x35 }),
			want: []Event{KeyboardInput{State: Released, ScanCode: 0x35, Key: KeyEscape}},
		},
		{
			name: "left click flips y and scales",
			ev:   with(func(e *cocoaEvent) { e.Type, e.X, e.Y = nsEventTypeLeftMouseDown, 10, 30 }),
			want: []Event{MouseInput{State: Pressed, Button: ButtonLeft, Position: Position{X: 20, Y: 140}, HasPosition: true}},
		},
		{
			name: "other mouse up",
			ev:   with(func(e *cocoaEvent) { e.Type, e.ButtonNumber = nsEventTypeOtherMouseUp, 2 }),
			want: []Event{MouseInput{State: Released, Button: ButtonMiddle, Position: Position{Y: 200}, HasPosition: true}},
		},
		{
			name: "unknown button",
			ev:   with(func(e *cocoaEvent) { e.Type, e.ButtonNumber = nsEventTypeOtherMouseDown, 9 }),
		},
		{
			name: "drag",
			ev:   with(func(e *cocoaEvent) { e.Type, e.X, e.Y = nsEventTypeLeftMouseDragged, 1, 100 }),
			want: []Event{MouseMoved{Position: Position{X: 2, Y: 0}}},
		},
		{
			name: "precise scroll begins",
			ev: with(func(e *cocoaEvent) {
				e.Type, e.DeltaY, e.Precise, e.Phase = nsEventTypeScrollWheel, 3, true, nsEventPhaseBegan
			}),
			want: []Event{MouseWheel{
				Delta:       ScrollDelta{Kind: PixelDelta, Y: 6},
				Phase:       PhaseStarted,
				Position:    Position{Y: 200},
				HasPosition: true,
			}},
		},
		{
			name: "wheel notch",
			ev:   with(func(e *cocoaEvent) { e.Type, e.DeltaX = nsEventTypeScrollWheel, -1 }),
			want: []Event{MouseWheel{Delta: ScrollDelta{Kind: LineDelta, X: -2}, Phase: PhaseMoved}},
		},
		{
			name: "pressure",
			ev:   with(func(e *cocoaEvent) { e.Type, e.Pressure, e.Stage = nsEventTypePressure, 0.5, 1 }),
			want: []Event{TouchpadPressure{Pressure: 0.5, Stage: 1}},
		},
		{
			name: "wake",
			ev:   with(func(e *cocoaEvent) { e.Type, e.Subtype = nsEventTypeApplicationDefined, cocoaWakeSubtype }),
			wake: true,
		},
		{
			name: "foreign application event",
			ev:   with(func(e *cocoaEvent) { e.Type, e.Subtype = nsEventTypeApplicationDefined, 1 }),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &cocoaTranslator{}
			events, wake := tr.translate(&tt.ev)
			assert.Equal(t, tt.want, events)
			assert.Equal(t, tt.wake, wake)
		})
	}
}

func TestCocoaFlagsChanged(t *testing.T) {
	tr := &cocoaTranslator{}

	events, _ := tr.translate(&cocoaEvent{Type: nsEventTypeFlagsChanged, KeyCode: 0x38, Flags: nsEventModifierFlagShift})
	assert.Equal(t, []Event{KeyboardInput{State: Pressed, ScanCode: 0x38, Key: KeyLeftShift}}, events)

	events, _ = tr.translate(&cocoaEvent{Type: nsEventTypeFlagsChanged, KeyCode: 0x37,
		Flags: nsEventModifierFlagShift | nsEventModifierFlagCommand})
	assert.Equal(t, []Event{KeyboardInput{State: Pressed, ScanCode: 0x37, Key: KeyLeftSuper}}, events)

	events, _ = tr.translate(&cocoaEvent{Type: nsEventTypeFlagsChanged, KeyCode: 0x3a, Flags: nsEventModifierFlagOption})
	assert.Equal(t, []Event{
		KeyboardInput{State: Released, ScanCode: 0x3a, Key: KeyLeftShift},
		KeyboardInput{State: Released, ScanCode: 0x3a, Key: KeyLeftSuper},
		KeyboardInput{State: Pressed, ScanCode: 0x3a, Key: KeyLeftAlt},
	}, events)

	events, _ = tr.translate(&cocoaEvent{Type: nsEventTypeFlagsChanged, Flags: nsEventModifierFlagOption})
	assert.Empty(t, events)
}

func TestCocoaWindowDiff(t *testing.T) {
	prev := cocoaWindowState{Key: true, Width: 800, Height: 600}
	assert.Empty(t, cocoaWindowDiff(prev, prev))

	next := prev
	next.Key = false
	next.Width = 1024
	next.X, next.Y = 5, 6
	assert.Equal(t, []Event{
		Focused{Focused: false},
		Resized{Width: 1024, Height: 600},
		Moved{X: 5, Y: 6},
	}, cocoaWindowDiff(prev, next))

	closed := prev
	closed.Closed = true
	assert.Equal(t, []Event{Closed{}}, cocoaWindowDiff(prev, closed))
	assert.Empty(t, cocoaWindowDiff(closed, closed))
}

func TestCocoaPhase(t *testing.T) {
	assert.Equal(t, PhaseStarted, cocoaPhase(nsEventPhaseMayBegin))
	assert.Equal(t, PhaseStarted, cocoaPhase(nsEventPhaseBegan))
	assert.Equal(t, PhaseMoved, cocoaPhase(nsEventPhaseChanged))
	assert.Equal(t, PhaseEnded, cocoaPhase(nsEventPhaseEnded))
	assert.Equal(t, PhaseMoved, cocoaPhase(nsEventPhaseCancelled))
	assert.Equal(t, PhaseMoved, cocoaPhase(nsEventPhaseNone))
}
