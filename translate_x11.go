package glwindow

import "unicode/utf8"

// X event type codes.
const (
	x11KeyPress        = 2
	x11KeyRelease      = 3
	x11ButtonPress     = 4
	x11ButtonRelease   = 5
	x11MotionNotify    = 6
	x11FocusIn         = 9
	x11FocusOut        = 10
	x11DestroyNotify   = 17
	x11ConfigureNotify = 22
	x11ClientMessage   = 33
)

// x11Event is the data read out of one XEvent.
type x11Event struct {
	Type int32

	// Key events.
	Keycode uint32
	Keysym  uint64
	// Text is the Latin-1 output of XLookupString.
	Text []byte

	// Button and motion events, window relative.
	Button uint32
	X, Y   int32

	// ConfigureNotify.
	Width, Height int32

	// ClientMessage.
	MessageType uint64
	Format      int32
	Data0       uint64
}

// x11Translator holds the per-window state XEvent translation needs.
type x11Translator struct {
	wmDelete uint64
	wakeAtom uint64

	configured bool
	x, y       int32
	w, h       int32
}

func x11Button(b uint32) (Button, bool) {
	switch b {
	case 1:
		return ButtonLeft, true
	case 2:
		return ButtonMiddle, true
	case 3:
		return ButtonRight, true
	case 8:
		return Button4, true
	case 9:
		return Button5, true
	default:
		return ButtonLeft, false
	}
}

// x11Scroll returns the line delta for the wheel buttons 4 to 7.
func x11Scroll(b uint32) (ScrollDelta, bool) {
	switch b {
	case 4:
		return ScrollDelta{Kind: LineDelta, Y: 1}, true
	case 5:
		return ScrollDelta{Kind: LineDelta, Y: -1}, true
	case 6:
		return ScrollDelta{Kind: LineDelta, X: 1}, true
	case 7:
		return ScrollDelta{Kind: LineDelta, X: -1}, true
	default:
		return ScrollDelta{}, false
	}
}

// x11KeysymRune returns the character a key press produced. Keysyms in the
// Unicode range carry the code point directly; otherwise the Latin-1 text
// from XLookupString is used.
func x11KeysymRune(sym uint64, text []byte) []rune {
	if sym&0xff000000 == 0x01000000 {
		r := rune(sym & 0x00ffffff)
		if utf8.ValidRune(r) {
			return []rune{r}
		}
	}
	runes := make([]rune, 0, len(text))
	for _, b := range text {
		r := rune(b)
		// Control characters other than tab, enter and backspace are not text.
		if r < 0x20 && r != '\t' && r != '\r' && r != '\b' || r == 0x7f {
			continue
		}
		runes = append(runes, r)
	}
	return runes
}

func (t *x11Translator) translate(ev *x11Event) (events []Event, wake bool) {
	if ev == nil {
		return nil, false
	}
	pos := Position{X: float64(ev.X), Y: float64(ev.Y)}

	switch ev.Type {
	case x11KeyPress:
		for _, r := range x11KeysymRune(ev.Keysym, ev.Text) {
			events = append(events, ReceivedCharacter{Char: r})
		}
		events = append(events, KeyboardInput{State: Pressed, ScanCode: ev.Keycode, Key: x11KeysymToKey(ev.Keysym)})
		return events, false

	case x11KeyRelease:
		return []Event{KeyboardInput{State: Released, ScanCode: ev.Keycode, Key: x11KeysymToKey(ev.Keysym)}}, false

	case x11ButtonPress, x11ButtonRelease:
		if delta, ok := x11Scroll(ev.Button); ok {
			// Wheel buttons send a press and release per notch.
			if ev.Type == x11ButtonRelease {
				return nil, false
			}
			return []Event{MouseWheel{Delta: delta, Phase: PhaseMoved, Position: pos, HasPosition: true}}, false
		}
		button, ok := x11Button(ev.Button)
		if !ok {
			return nil, false
		}
		state := Released
		if ev.Type == x11ButtonPress {
			state = Pressed
		}
		return []Event{MouseInput{State: state, Button: button, Position: pos, HasPosition: true}}, false

	case x11MotionNotify:
		return []Event{MouseMoved{Position: pos}}, false

	case x11FocusIn:
		return []Event{Focused{Focused: true}}, false

	case x11FocusOut:
		return []Event{Focused{Focused: false}}, false

	case x11ConfigureNotify:
		if !t.configured || ev.Width != t.w || ev.Height != t.h {
			events = append(events, Resized{Width: int(ev.Width), Height: int(ev.Height)})
		}
		if !t.configured || ev.X != t.x || ev.Y != t.y {
			events = append(events, Moved{X: int(ev.X), Y: int(ev.Y)})
		}
		t.configured = true
		t.x, t.y, t.w, t.h = ev.X, ev.Y, ev.Width, ev.Height
		return events, false

	case x11ClientMessage:
		if ev.Format != 32 {
			return nil, false
		}
		if ev.Data0 == t.wmDelete && t.wmDelete != 0 {
			return []Event{Closed{}}, false
		}
		if ev.MessageType == t.wakeAtom && t.wakeAtom != 0 {
			return nil, true
		}
		return nil, false

	case x11DestroyNotify:
		return []Event{Closed{}}, false
	}
	return nil, false
}
