//go:build linux

package x11input

import (
	"strings"

	"github.com/travisseymour/exptbimanual/internal/adapters/linuxinput"

	"github.com/BurntSushi/xgb/xproto"
)

// keysymNames maps X keysym strings (lower-cased) to kernel key names so
// the X11 source produces the same tokens as evdev devices.
var keysymNames = map[string]string{
	"escape":       "KEY_ESC",
	"return":       "KEY_ENTER",
	"tab":          "KEY_TAB",
	"space":        "KEY_SPACE",
	"backspace":    "KEY_BACKSPACE",
	"shift_l":      "KEY_LEFTSHIFT",
	"shift_r":      "KEY_RIGHTSHIFT",
	"control_l":    "KEY_LEFTCTRL",
	"control_r":    "KEY_RIGHTCTRL",
	"alt_l":        "KEY_LEFTALT",
	"alt_r":        "KEY_RIGHTALT",
	"super_l":      "KEY_LEFTMETA",
	"super_r":      "KEY_RIGHTMETA",
	"caps_lock":    "KEY_CAPSLOCK",
	"num_lock":     "KEY_NUMLOCK",
	"scroll_lock":  "KEY_SCROLLLOCK",
	"page_up":      "KEY_PAGEUP",
	"prior":        "KEY_PAGEUP",
	"page_down":    "KEY_PAGEDOWN",
	"next":         "KEY_PAGEDOWN",
	"insert":       "KEY_INSERT",
	"delete":       "KEY_DELETE",
	"home":         "KEY_HOME",
	"end":          "KEY_END",
	"up":           "KEY_UP",
	"down":         "KEY_DOWN",
	"left":         "KEY_LEFT",
	"right":        "KEY_RIGHT",
	"menu":         "KEY_MENU",
	"pause":        "KEY_PAUSE",
	"minus":        "KEY_MINUS",
	"equal":        "KEY_EQUAL",
	"bracketleft":  "KEY_LEFTBRACE",
	"bracketright": "KEY_RIGHTBRACE",
	"semicolon":    "KEY_SEMICOLON",
	"apostrophe":   "KEY_APOSTROPHE",
	"grave":        "KEY_GRAVE",
	"backslash":    "KEY_BACKSLASH",
	"comma":        "KEY_COMMA",
	"period":       "KEY_DOT",
	"slash":        "KEY_SLASH",
	"kp_add":       "KEY_KPPLUS",
	"kp_subtract":  "KEY_KPMINUS",
	"kp_multiply":  "KEY_KPASTERISK",
	"kp_divide":    "KEY_KPSLASH",
	"kp_decimal":   "KEY_KPDOT",
	"kp_enter":     "KEY_KPENTER",
}

var buttonNames = map[xproto.Button]string{
	xproto.Button(xproto.ButtonIndex1): "BTN_LEFT",
	xproto.Button(xproto.ButtonIndex2): "BTN_MIDDLE",
	xproto.Button(xproto.ButtonIndex3): "BTN_RIGHT",
	8:                                  "BTN_SIDE",
	9:                                  "BTN_EXTRA",
}

// keysymToCode converts a keysym string from keybind.LookupString to a
// kernel key code.
func keysymToCode(keysym string) (uint16, bool) {
	raw := strings.ToLower(strings.TrimSpace(keysym))
	if raw == "" {
		return 0, false
	}

	name, ok := keysymNames[raw]
	switch {
	case ok:
	case len(raw) == 1 && (isLetter(raw[0]) || isDigit(raw[0])):
		name = "KEY_" + strings.ToUpper(raw)
	case raw[0] == 'f' && isDigits(raw[1:]):
		name = "KEY_" + strings.ToUpper(raw)
	case strings.HasPrefix(raw, "kp_") && len(raw) == 4 && isDigit(raw[3]):
		name = "KEY_KP" + raw[3:]
	default:
		return 0, false
	}
	return linuxinput.CodeFromName(name)
}

func buttonToCode(button xproto.Button) (uint16, bool) {
	name, ok := buttonNames[button]
	if !ok {
		return 0, false
	}
	return linuxinput.CodeFromName(name)
}

func isLetter(b byte) bool { return b >= 'a' && b <= 'z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if !isDigit(value[i]) {
			return false
		}
	}
	return true
}
