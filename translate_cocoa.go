package glwindow

// Subset of NSEventType values we care about.
// https://developer.apple.com/documentation/appkit/nsevent/eventtype
const (
	nsEventTypeLeftMouseDown      = 1
	nsEventTypeLeftMouseUp        = 2
	nsEventTypeRightMouseDown     = 3
	nsEventTypeRightMouseUp       = 4
	nsEventTypeMouseMoved         = 5
	nsEventTypeLeftMouseDragged   = 6
	nsEventTypeRightMouseDragged  = 7
	nsEventTypeKeyDown            = 10
	nsEventTypeKeyUp              = 11
	nsEventTypeFlagsChanged       = 12
	nsEventTypeApplicationDefined = 15
	nsEventTypeScrollWheel        = 22
	nsEventTypeOtherMouseDown     = 25
	nsEventTypeOtherMouseUp       = 26
	nsEventTypeOtherMouseDragged  = 27
	nsEventTypePressure           = 34
)

// Subset of NSEventModifierFlags values we care about.
// https://developer.apple.com/documentation/appkit/nseventmodifierflags
const (
	nsEventModifierFlagShift   = 1 << 17
	nsEventModifierFlagControl = 1 << 18
	nsEventModifierFlagOption  = 1 << 19
	nsEventModifierFlagCommand = 1 << 20
)

// cocoaWakeSubtype tags the application-defined event a WindowProxy posts.
const cocoaWakeSubtype = 0x676c

// cocoaEvent is the data read out of one NSEvent. The Cocoa backend fills
// it; translation does not touch the Objective-C runtime.
type cocoaEvent struct {
	Type       uint64
	KeyCode    uint16
	Characters string
	Flags      uint64
	// Location is in view points with a bottom-left origin.
	X, Y       float64
	ViewHeight float64
	Scale      float64

	ButtonNumber int64
	DeltaX       float64
	DeltaY       float64
	Precise      bool
	Phase        uint64

	Pressure float32
	Stage    int64
	Subtype  int16
}

func cocoaFlagsToMods(flags uint64) Modifiers {
	var m Modifiers
	if flags&nsEventModifierFlagShift != 0 {
		m |= ModShift
	}
	if flags&nsEventModifierFlagControl != 0 {
		m |= ModControl
	}
	if flags&nsEventModifierFlagCommand != 0 {
		m |= ModSuper
	}
	if flags&nsEventModifierFlagOption != 0 {
		m |= ModAlt
	}
	return m
}

func cocoaButtonNumberToButton(n int64) (Button, bool) {
	switch n {
	case 0:
		return ButtonLeft, true
	case 1:
		return ButtonRight, true
	case 2:
		return ButtonMiddle, true
	case 3:
		return Button4, true
	case 4:
		return Button5, true
	default:
		return ButtonLeft, false
	}
}

// cocoaTranslator holds the per-window state NSEvent translation needs.
type cocoaTranslator struct {
	mods modifierTracker
}

// translate converts one NSEvent into zero or more events. wake reports an
// application-defined wakeup.
func (t *cocoaTranslator) translate(ev *cocoaEvent) (events []Event, wake bool) {
	if ev == nil {
		return nil, false
	}
	pos := viewToPixels(ev.X, ev.Y, ev.ViewHeight, ev.Scale)

	switch ev.Type {
	case nsEventTypeKeyDown:
		for _, r := range ev.Characters {
			events = append(events, ReceivedCharacter{Char: r})
		}
		events = append(events, KeyboardInput{
			State:    Pressed,
			ScanCode: uint32(ev.KeyCode),
			Key:      cocoaKeyCodes[ev.KeyCode],
		})
		return events, false

	case nsEventTypeKeyUp:
		return []Event{KeyboardInput{
			State:    Released,
			ScanCode: uint32(ev.KeyCode),
			Key:      cocoaKeyCodes[ev.KeyCode],
		}}, false

	case nsEventTypeFlagsChanged:
		return t.mods.update(cocoaFlagsToMods(ev.Flags), uint32(ev.KeyCode)), false

	case nsEventTypeLeftMouseDown, nsEventTypeRightMouseDown, nsEventTypeOtherMouseDown,
		nsEventTypeLeftMouseUp, nsEventTypeRightMouseUp, nsEventTypeOtherMouseUp:
		button, ok := cocoaButtonNumberToButton(ev.ButtonNumber)
		if !ok {
			return nil, false
		}
		state := Released
		switch ev.Type {
		case nsEventTypeLeftMouseDown, nsEventTypeRightMouseDown, nsEventTypeOtherMouseDown:
			state = Pressed
		}
		return []Event{MouseInput{State: state, Button: button, Position: pos, HasPosition: true}}, false

	case nsEventTypeMouseMoved, nsEventTypeLeftMouseDragged,
		nsEventTypeRightMouseDragged, nsEventTypeOtherMouseDragged:
		return []Event{MouseMoved{Position: pos}}, false

	case nsEventTypeScrollWheel:
		wheel := MouseWheel{
			Delta: scrollDelta(ev.DeltaX, ev.DeltaY, ev.Precise, ev.Scale),
			Phase: cocoaPhase(ev.Phase),
		}
		if wheel.Phase == PhaseStarted {
			wheel.Position, wheel.HasPosition = pos, true
		}
		return []Event{wheel}, false

	case nsEventTypePressure:
		return []Event{TouchpadPressure{Pressure: ev.Pressure, Stage: ev.Stage}}, false

	case nsEventTypeApplicationDefined:
		return nil, ev.Subtype == cocoaWakeSubtype
	}
	return nil, false
}

// cocoaWindowState is the window-level state sampled after each NSEvent.
type cocoaWindowState struct {
	Key           bool
	Closed        bool
	Width, Height int
	X, Y          int
}

// cocoaWindowDiff reports the window-level events implied by a change of
// sampled state.
func cocoaWindowDiff(prev, next cocoaWindowState) []Event {
	var events []Event
	if next.Closed && !prev.Closed {
		events = append(events, Closed{})
	}
	if next.Key != prev.Key {
		events = append(events, Focused{Focused: next.Key})
	}
	if next.Width != prev.Width || next.Height != prev.Height {
		events = append(events, Resized{Width: next.Width, Height: next.Height})
	}
	if next.X != prev.X || next.Y != prev.Y {
		events = append(events, Moved{X: next.X, Y: next.Y})
	}
	return events
}
