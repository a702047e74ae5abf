package glwindow

import "fmt"

// Key represents a virtual keyboard key.
type Key int

const (
	KeyUnknown Key = iota

	// Letters
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ

	// Numbers
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15

	// Modifier keys
	KeyLeftShift
	KeyRightShift
	KeyLeftControl
	KeyRightControl
	KeyLeftAlt
	KeyRightAlt
	KeyLeftSuper  // Windows key on Windows, Command key on macOS
	KeyRightSuper // Windows key on Windows, Command key on macOS

	// Special keys
	KeySpace
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyTab
	KeyCapsLock
	KeyScrollLock
	KeyNumLock
	KeyPrintScreen
	KeyPause

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Navigation keys
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Punctuation and symbols
	KeyGraveAccent  // `
	KeyMinus        // -
	KeyEqual        // =
	KeyLeftBracket  // [
	KeyRightBracket // ]
	KeyBackslash    // \
	KeySemicolon    // ;
	KeyApostrophe   // '
	KeyComma        // ,
	KeyPeriod       // .
	KeySlash        // /

	// Numpad keys
	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadDecimal  // .
	KeyNumpadDivide   // /
	KeyNumpadMultiply // *
	KeyNumpadSubtract // -
	KeyNumpadAdd      // +
	KeyNumpadEnter
	KeyNumpadEqual // =

	keyCount
)

var keyNames = [keyCount]string{
	KeyUnknown: "Unknown",
	KeyA:       "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",
	Key0: "0", Key1: "1", Key2: "2", Key3: "3", Key4: "4",
	Key5: "5", Key6: "6", Key7: "7", Key8: "8", Key9: "9",
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5",
	KeyF6: "F6", KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10",
	KeyF11: "F11", KeyF12: "F12", KeyF13: "F13", KeyF14: "F14", KeyF15: "F15",
	KeyLeftShift: "LeftShift", KeyRightShift: "RightShift",
	KeyLeftControl: "LeftControl", KeyRightControl: "RightControl",
	KeyLeftAlt: "LeftAlt", KeyRightAlt: "RightAlt",
	KeyLeftSuper: "LeftSuper", KeyRightSuper: "RightSuper",
	KeySpace: "Space", KeyEnter: "Enter", KeyEscape: "Escape",
	KeyBackspace: "Backspace", KeyDelete: "Delete", KeyTab: "Tab",
	KeyCapsLock: "CapsLock", KeyScrollLock: "ScrollLock", KeyNumLock: "NumLock",
	KeyPrintScreen: "PrintScreen", KeyPause: "Pause",
	KeyUp: "Up", KeyDown: "Down", KeyLeft: "Left", KeyRight: "Right",
	KeyHome: "Home", KeyEnd: "End", KeyPageUp: "PageUp", KeyPageDown: "PageDown",
	KeyInsert:      "Insert",
	KeyGraveAccent: "GraveAccent", KeyMinus: "Minus", KeyEqual: "Equal",
	KeyLeftBracket: "LeftBracket", KeyRightBracket: "RightBracket",
	KeyBackslash: "Backslash", KeySemicolon: "Semicolon", KeyApostrophe: "Apostrophe",
	KeyComma: "Comma", KeyPeriod: "Period", KeySlash: "Slash",
	KeyNumpad0: "Numpad0", KeyNumpad1: "Numpad1", KeyNumpad2: "Numpad2",
	KeyNumpad3: "Numpad3", KeyNumpad4: "Numpad4", KeyNumpad5: "Numpad5",
	KeyNumpad6: "Numpad6", KeyNumpad7: "Numpad7", KeyNumpad8: "Numpad8",
	KeyNumpad9: "Numpad9", KeyNumpadDecimal: "NumpadDecimal",
	KeyNumpadDivide: "NumpadDivide", KeyNumpadMultiply: "NumpadMultiply",
	KeyNumpadSubtract: "NumpadSubtract", KeyNumpadAdd: "NumpadAdd",
	KeyNumpadEnter: "NumpadEnter", KeyNumpadEqual: "NumpadEqual",
}

func (k Key) String() string {
	if k >= 0 && k < keyCount {
		return keyNames[k]
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// cocoaKeyCodes maps macOS virtual key codes (kVK_*) to keys.
//
// Keycode reference:
// https://developer.apple.com/library/archive/technotes/tn2450/_index.html
var cocoaKeyCodes = map[uint16]Key{
	0x00: KeyA, 0x01: KeyS, 0x02: KeyD, 0x03: KeyF, 0x04: KeyH, 0x05: KeyG,
	0x06: KeyZ, 0x07: KeyX, 0x08: KeyC, 0x09: KeyV, 0x0b: KeyB, 0x0c: KeyQ,
	0x0d: KeyW, 0x0e: KeyE, 0x0f: KeyR, 0x10: KeyY, 0x11: KeyT,
	0x12: Key1, 0x13: Key2, 0x14: Key3, 0x15: Key4, 0x16: Key6, 0x17: Key5,
	0x18: KeyEqual, 0x19: Key9, 0x1a: Key7, 0x1b: KeyMinus, 0x1c: Key8,
	0x1d: Key0, 0x1e: KeyRightBracket, 0x1f: KeyO, 0x20: KeyU,
	0x21: KeyLeftBracket, 0x22: KeyI, 0x23: KeyP, 0x24: KeyEnter, 0x25: KeyL,
	0x26: KeyJ, 0x27: KeyApostrophe, 0x28: KeyK, 0x29: KeySemicolon,
	0x2a: KeyBackslash, 0x2b: KeyComma, 0x2c: KeySlash, 0x2d: KeyN, 0x2e: KeyM,
	0x2f: KeyPeriod, 0x30: KeyTab, 0x31: KeySpace, 0x32: KeyGraveAccent,
	0x33: KeyBackspace, 0x35: KeyEscape, 0x36: KeyRightSuper, 0x37: KeyLeftSuper,
	0x38: KeyLeftShift, 0x39: KeyCapsLock, 0x3a: KeyLeftAlt, 0x3b: KeyLeftControl,
	0x3c: KeyRightShift, 0x3d: KeyRightAlt, 0x3e: KeyRightControl,
	0x41: KeyNumpadDecimal, 0x43: KeyNumpadMultiply, 0x45: KeyNumpadAdd,
	0x47: KeyNumLock, 0x4b: KeyNumpadDivide, 0x4c: KeyNumpadEnter,
	0x4e: KeyNumpadSubtract, 0x51: KeyNumpadEqual,
	0x52: KeyNumpad0, 0x53: KeyNumpad1, 0x54: KeyNumpad2, 0x55: KeyNumpad3,
	0x56: KeyNumpad4, 0x57: KeyNumpad5, 0x58: KeyNumpad6, 0x59: KeyNumpad7,
	0x5b: KeyNumpad8, 0x5c: KeyNumpad9,
	0x60: KeyF5, 0x61: KeyF6, 0x62: KeyF7, 0x63: KeyF3, 0x64: KeyF8, 0x65: KeyF9,
	0x67: KeyF11, 0x69: KeyF13, 0x6b: KeyF14, 0x6d: KeyF10, 0x6f: KeyF12,
	0x71: KeyF15, 0x72: KeyInsert, 0x73: KeyHome, 0x74: KeyPageUp,
	0x75: KeyDelete, 0x76: KeyF4, 0x77: KeyEnd, 0x78: KeyF2, 0x79: KeyPageDown,
	0x7a: KeyF1, 0x7b: KeyLeft, 0x7c: KeyRight, 0x7d: KeyDown, 0x7e: KeyUp,
}

// x11Keysyms maps X keysyms to keys. Letters are handled separately so both
// cases map to the same key.
var x11Keysyms = map[uint64]Key{
	0x0020: KeySpace, 0x0027: KeyApostrophe, 0x002c: KeyComma, 0x002d: KeyMinus,
	0x002e: KeyPeriod, 0x002f: KeySlash, 0x003b: KeySemicolon, 0x003d: KeyEqual,
	0x005b: KeyLeftBracket, 0x005c: KeyBackslash, 0x005d: KeyRightBracket,
	0x0060: KeyGraveAccent,
	0xff08: KeyBackspace, 0xff09: KeyTab, 0xff0d: KeyEnter, 0xff13: KeyPause,
	0xff14: KeyScrollLock, 0xff1b: KeyEscape,
	0xff50: KeyHome, 0xff51: KeyLeft, 0xff52: KeyUp, 0xff53: KeyRight,
	0xff54: KeyDown, 0xff55: KeyPageUp, 0xff56: KeyPageDown, 0xff57: KeyEnd,
	0xff61: KeyPrintScreen, 0xff63: KeyInsert, 0xff7f: KeyNumLock,
	0xff8d: KeyNumpadEnter, 0xffaa: KeyNumpadMultiply, 0xffab: KeyNumpadAdd,
	0xffad: KeyNumpadSubtract, 0xffae: KeyNumpadDecimal, 0xffaf: KeyNumpadDivide,
	0xffb0: KeyNumpad0, 0xffb1: KeyNumpad1, 0xffb2: KeyNumpad2, 0xffb3: KeyNumpad3,
	0xffb4: KeyNumpad4, 0xffb5: KeyNumpad5, 0xffb6: KeyNumpad6, 0xffb7: KeyNumpad7,
	0xffb8: KeyNumpad8, 0xffb9: KeyNumpad9, 0xffbd: KeyNumpadEqual,
	0xffbe: KeyF1, 0xffbf: KeyF2, 0xffc0: KeyF3, 0xffc1: KeyF4, 0xffc2: KeyF5,
	0xffc3: KeyF6, 0xffc4: KeyF7, 0xffc5: KeyF8, 0xffc6: KeyF9, 0xffc7: KeyF10,
	0xffc8: KeyF11, 0xffc9: KeyF12, 0xffca: KeyF13, 0xffcb: KeyF14, 0xffcc: KeyF15,
	0xffe1: KeyLeftShift, 0xffe2: KeyRightShift, 0xffe3: KeyLeftControl,
	0xffe4: KeyRightControl, 0xffe5: KeyCapsLock, 0xffe7: KeyLeftSuper,
	0xffe8: KeyRightSuper, 0xffe9: KeyLeftAlt, 0xffea: KeyRightAlt,
	0xffeb: KeyLeftSuper, 0xffec: KeyRightSuper, 0xffff: KeyDelete,
}

func x11KeysymToKey(sym uint64) Key {
	switch {
	case sym >= 'a' && sym <= 'z':
		return KeyA + Key(sym-'a')
	case sym >= 'A' && sym <= 'Z':
		return KeyA + Key(sym-'A')
	case sym >= '0' && sym <= '9':
		return Key0 + Key(sym-'0')
	}
	return x11Keysyms[sym]
}

const (
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12 // Alt key
)

// win32VirtualKeys maps Windows virtual key codes to keys. The generic
// shift, control and alt codes are resolved by win32VirtualKeyToKey.
var win32VirtualKeys = map[uint32]Key{
	0x08: KeyBackspace, 0x09: KeyTab, 0x0d: KeyEnter, 0x13: KeyPause,
	0x14: KeyCapsLock, 0x1b: KeyEscape, 0x20: KeySpace, 0x21: KeyPageUp,
	0x22: KeyPageDown, 0x23: KeyEnd, 0x24: KeyHome, 0x25: KeyLeft, 0x26: KeyUp,
	0x27: KeyRight, 0x28: KeyDown, 0x2c: KeyPrintScreen, 0x2d: KeyInsert,
	0x2e: KeyDelete, 0x5b: KeyLeftSuper, 0x5c: KeyRightSuper,
	0x60: KeyNumpad0, 0x61: KeyNumpad1, 0x62: KeyNumpad2, 0x63: KeyNumpad3,
	0x64: KeyNumpad4, 0x65: KeyNumpad5, 0x66: KeyNumpad6, 0x67: KeyNumpad7,
	0x68: KeyNumpad8, 0x69: KeyNumpad9, 0x6a: KeyNumpadMultiply,
	0x6b: KeyNumpadAdd, 0x6d: KeyNumpadSubtract, 0x6e: KeyNumpadDecimal,
	0x6f: KeyNumpadDivide,
	0x70: KeyF1, 0x71: KeyF2, 0x72: KeyF3, 0x73: KeyF4, 0x74: KeyF5, 0x75: KeyF6,
	0x76: KeyF7, 0x77: KeyF8, 0x78: KeyF9, 0x79: KeyF10, 0x7a: KeyF11,
	0x7b: KeyF12, 0x7c: KeyF13, 0x7d: KeyF14, 0x7e: KeyF15,
	0x90: KeyNumLock, 0x91: KeyScrollLock,
	0xa0: KeyLeftShift, 0xa1: KeyRightShift, 0xa2: KeyLeftControl,
	0xa3: KeyRightControl, 0xa4: KeyLeftAlt, 0xa5: KeyRightAlt,
	0xba: KeySemicolon, 0xbb: KeyEqual, 0xbc: KeyComma, 0xbd: KeyMinus,
	0xbe: KeyPeriod, 0xbf: KeySlash, 0xc0: KeyGraveAccent,
	0xdb: KeyLeftBracket, 0xdc: KeyBackslash, 0xdd: KeyRightBracket,
	0xde: KeyApostrophe,
}

// win32VirtualKeyToKey resolves a virtual key using the scan code and the
// extended-key flag (bit 24 of lParam) to tell left and right modifiers
// apart.
func win32VirtualKeyToKey(vk uint32, scanCode uint32, extended bool) Key {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return KeyA + Key(vk-'A')
	case vk >= '0' && vk <= '9':
		return Key0 + Key(vk-'0')
	case vk == vkShift:
		// Right shift has its own scan code rather than the extended flag.
		if scanCode == 0x36 {
			return KeyRightShift
		}
		return KeyLeftShift
	case vk == vkControl:
		if extended {
			return KeyRightControl
		}
		return KeyLeftControl
	case vk == vkMenu:
		if extended {
			return KeyRightAlt
		}
		return KeyLeftAlt
	case vk == 0x0d && extended:
		return KeyNumpadEnter
	}
	return win32VirtualKeys[vk]
}
