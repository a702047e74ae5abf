package glwindow

import (
	"fmt"
	"sync"
)

// MouseCursor is a cursor shape.
type MouseCursor int

const (
	CursorDefault MouseCursor = iota
	CursorCrosshair
	CursorHand
	CursorArrow
	CursorMove
	CursorText
	CursorWait
	CursorHelp
	CursorProgress
	CursorNotAllowed
	CursorContextMenu
	CursorCell
	CursorVerticalText
	CursorAlias
	CursorCopy
	CursorNoDrop
	CursorGrabHand
	CursorGrabbing
	CursorAllScroll
	CursorZoomIn
	CursorZoomOut
	CursorEResize
	CursorNResize
	CursorNeResize
	CursorNwResize
	CursorSResize
	CursorSeResize
	CursorSwResize
	CursorWResize
	CursorEwResize
	CursorNsResize
	CursorNeswResize
	CursorNwseResize
	CursorColResize
	CursorRowResize

	cursorCount
)

// AllCursors lists every cursor shape.
func AllCursors() []MouseCursor {
	out := make([]MouseCursor, 0, cursorCount)
	for c := CursorDefault; c < cursorCount; c++ {
		out = append(out, c)
	}
	return out
}

func (c MouseCursor) String() string {
	names := [cursorCount]string{
		"default", "crosshair", "hand", "arrow", "move", "text", "wait", "help",
		"progress", "not-allowed", "context-menu", "cell", "vertical-text",
		"alias", "copy", "no-drop", "grab", "grabbing", "all-scroll", "zoom-in",
		"zoom-out", "e-resize", "n-resize", "ne-resize", "nw-resize", "s-resize",
		"se-resize", "sw-resize", "w-resize", "ew-resize", "ns-resize",
		"nesw-resize", "nwse-resize", "col-resize", "row-resize",
	}
	if c >= 0 && c < cursorCount {
		return names[c]
	}
	return fmt.Sprintf("MouseCursor(%d)", int(c))
}

// CursorState is the cursor capture mode.
type CursorState int

const (
	// CursorNormal shows the cursor and lets it leave the window.
	CursorNormal CursorState = iota
	// CursorHide hides the cursor while it is over the window.
	CursorHide
	// CursorGrab hides the cursor and confines it to the window.
	CursorGrab
)

func (s CursorState) String() string {
	switch s {
	case CursorNormal:
		return "normal"
	case CursorHide:
		return "hide"
	case CursorGrab:
		return "grab"
	default:
		return fmt.Sprintf("CursorState(%d)", int(s))
	}
}

// cursorAction is one native step of a capture mode change.
type cursorAction int

const (
	actionShow cursorAction = iota
	actionHide
	actionGrab
	actionUngrab
)

// cursorTransition returns the native steps that move the capture mode from
// one state to another. Grabbing implies hiding.
func cursorTransition(from, to CursorState) []cursorAction {
	switch {
	case from == to:
		return nil
	case from == CursorNormal && to == CursorHide:
		return []cursorAction{actionHide}
	case from == CursorNormal && to == CursorGrab:
		return []cursorAction{actionHide, actionGrab}
	case from == CursorHide && to == CursorNormal:
		return []cursorAction{actionShow}
	case from == CursorHide && to == CursorGrab:
		return []cursorAction{actionGrab}
	case from == CursorGrab && to == CursorNormal:
		return []cursorAction{actionUngrab, actionShow}
	case from == CursorGrab && to == CursorHide:
		return []cursorAction{actionUngrab}
	}
	return nil
}

// windowState is the part of a window mutated from more than one thread.
// The lock is never held across a native call.
type windowState struct {
	mu          sync.Mutex
	cursor      MouseCursor
	cursorState CursorState
	attrs       WindowAttributes
}

func newWindowState(attrs WindowAttributes) *windowState {
	return &windowState{attrs: attrs}
}

func (s *windowState) snapshot() (MouseCursor, CursorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.cursorState
}

func (s *windowState) attributes() WindowAttributes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attrs
}

// setCursor records c and returns the previous shape and whether it changed.
func (s *windowState) setCursor(c MouseCursor) (MouseCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cursor
	s.cursor = c
	return prev, prev != c
}

// setCursorState records st and returns the previous mode.
func (s *windowState) setCursorState(st CursorState) CursorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cursorState
	s.cursorState = st
	return prev
}

// restoreCursor puts prev back if the shape is still want. A concurrent
// writer that already replaced want is left alone.
func (s *windowState) restoreCursor(want, prev MouseCursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == want {
		s.cursor = prev
	}
}

func (s *windowState) restoreCursorState(want, prev CursorState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorState == want {
		s.cursorState = prev
	}
}

func (s *windowState) setTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs.Title = title
}

func (s *windowState) setVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs.Visible = v
}
