package glwindow

import "fmt"

// Event is one normalized window-system occurrence. The concrete types are
// the exported structs in this file.
type Event interface {
	isEvent()
}

// ElementState is the state of a key or button.
type ElementState int

const (
	Released ElementState = iota
	Pressed
)

func (s ElementState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// Button represents a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	Button4 // Additional mouse button (often back button)
	Button5 // Additional mouse button (often forward button)
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case Button4:
		return "button4"
	case Button5:
		return "button5"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

// Position is a window-local point in pixels with a top-left origin.
type Position struct {
	X, Y float64
}

// DeltaKind distinguishes wheel notches from precise pixel scrolling.
type DeltaKind int

const (
	LineDelta DeltaKind = iota
	PixelDelta
)

// ScrollDelta is the amount scrolled. Positive Y scrolls up, positive X
// scrolls right.
type ScrollDelta struct {
	Kind DeltaKind
	X, Y float32
}

// TouchPhase is the gesture phase of a scroll.
type TouchPhase int

const (
	PhaseStarted TouchPhase = iota
	PhaseMoved
	PhaseEnded
	PhaseCancelled
)

func (p TouchPhase) String() string {
	switch p {
	case PhaseStarted:
		return "started"
	case PhaseMoved:
		return "moved"
	case PhaseEnded:
		return "ended"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("TouchPhase(%d)", int(p))
	}
}

// Closed is delivered when the user asks to close the window.
type Closed struct{}

// Focused reports a change of keyboard focus.
type Focused struct {
	Focused bool
}

// Resized reports the new client area size in pixels.
type Resized struct {
	Width, Height int
}

// Moved reports the new window position in screen pixels.
type Moved struct {
	X, Y int
}

// KeyboardInput is a physical key transition. Key is KeyUnknown when the
// native key code has no virtual key.
type KeyboardInput struct {
	State    ElementState
	ScanCode uint32
	Key      Key
}

// ReceivedCharacter carries one code point of text input.
type ReceivedCharacter struct {
	Char rune
}

// MouseInput is a mouse button transition. Position is valid only when
// HasPosition is set.
type MouseInput struct {
	State       ElementState
	Button      Button
	Position    Position
	HasPosition bool
}

// MouseMoved reports the pointer position.
type MouseMoved struct {
	Position Position
}

// MouseWheel reports a scroll. Position is valid only when HasPosition is
// set, which happens at the start of a gesture.
type MouseWheel struct {
	Delta       ScrollDelta
	Phase       TouchPhase
	Position    Position
	HasPosition bool
}

// TouchpadPressure reports force touch pressure.
type TouchpadPressure struct {
	Pressure float32
	Stage    int64
}

// Awakened is delivered when a WindowProxy woke a blocked wait and no real
// event was pending.
type Awakened struct{}

func (Closed) isEvent()            {}
func (Focused) isEvent()           {}
func (Resized) isEvent()           {}
func (Moved) isEvent()             {}
func (KeyboardInput) isEvent()     {}
func (ReceivedCharacter) isEvent() {}
func (MouseInput) isEvent()        {}
func (MouseMoved) isEvent()        {}
func (MouseWheel) isEvent()        {}
func (TouchpadPressure) isEvent()  {}
func (Awakened) isEvent()          {}
