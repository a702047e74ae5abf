package glwindow

// Modifiers is a set of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModSuper
	ModAlt
)

// modifierKeys lists modifiers in the order their transitions are emitted.
var modifierKeys = [...]struct {
	mod Modifiers
	key Key
}{
	{ModShift, KeyLeftShift},
	{ModControl, KeyLeftControl},
	{ModSuper, KeyLeftSuper},
	{ModAlt, KeyLeftAlt},
}

// modifierTracker turns absolute modifier snapshots into key transitions.
// Each window owns one.
type modifierTracker struct {
	held Modifiers
}

// update records next as the held set and returns one KeyboardInput per
// modifier whose state flipped since the previous snapshot.
func (t *modifierTracker) update(next Modifiers, scanCode uint32) []Event {
	changed := t.held ^ next
	if changed == 0 {
		return nil
	}
	var events []Event
	for _, m := range modifierKeys {
		if changed&m.mod == 0 {
			continue
		}
		state := Released
		if next&m.mod != 0 {
			state = Pressed
		}
		events = append(events, KeyboardInput{State: state, ScanCode: scanCode, Key: m.key})
	}
	t.held = next
	return events
}
