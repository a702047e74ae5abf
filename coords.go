package glwindow

// viewToPixels converts a point in bottom-left origin view units into the
// top-left origin pixel space every event uses.
func viewToPixels(x, y, viewHeight, scale float64) Position {
	if scale <= 0 {
		scale = 1
	}
	return Position{X: x * scale, Y: (viewHeight - y) * scale}
}

// scrollDelta classifies a scroll as pixels when the device reports precise
// deltas and as lines otherwise. Both are multiplied by scale.
func scrollDelta(dx, dy float64, precise bool, scale float64) ScrollDelta {
	if scale <= 0 {
		scale = 1
	}
	kind := LineDelta
	if precise {
		kind = PixelDelta
	}
	return ScrollDelta{Kind: kind, X: float32(dx * scale), Y: float32(dy * scale)}
}

// NSEventPhase bits.
const (
	nsEventPhaseNone      = 0
	nsEventPhaseBegan     = 1 << 0
	nsEventPhaseChanged   = 1 << 2
	nsEventPhaseEnded     = 1 << 3
	nsEventPhaseCancelled = 1 << 4
	nsEventPhaseMayBegin  = 1 << 5
)

// cocoaPhase maps a gesture phase. Anything other than a beginning or an
// end, including no phase at all, is Moved.
func cocoaPhase(phase uint64) TouchPhase {
	switch {
	case phase&(nsEventPhaseMayBegin|nsEventPhaseBegan) != 0:
		return PhaseStarted
	case phase&nsEventPhaseEnded != 0:
		return PhaseEnded
	default:
		return PhaseMoved
	}
}
