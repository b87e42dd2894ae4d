package linuxinput

// Kernel input codes used for classification (linux/input-event-codes.h).
const (
	codeKeyA uint16 = 30
	codeRelX uint16 = 0x00
	codeRelY uint16 = 0x01
)

type Role int

const (
	RoleNone Role = iota
	RoleKeyboard
	RoleMouse
)

func (r Role) String() string {
	switch r {
	case RoleKeyboard:
		return "keyboard"
	case RoleMouse:
		return "mouse"
	default:
		return "other"
	}
}

// Capabilities lists the event codes a device reports per event class.
type Capabilities struct {
	KeyCodes     map[uint16]struct{}
	RelativeAxes map[uint16]struct{}
	AbsoluteAxes map[uint16]struct{}
}

func NewCapabilities(keys, rel, abs []uint16) Capabilities {
	return Capabilities{
		KeyCodes:     codeSet(keys),
		RelativeAxes: codeSet(rel),
		AbsoluteAxes: codeSet(abs),
	}
}

func (c Capabilities) HasKey(code uint16) bool {
	_, ok := c.KeyCodes[code]
	return ok
}

func (c Capabilities) HasRelativeAxis(code uint16) bool {
	_, ok := c.RelativeAxes[code]
	return ok
}

func (c Capabilities) HasAbsoluteAxes() bool {
	return len(c.AbsoluteAxes) > 0
}

// IsKeyboard reports an alphanumeric keyboard: one that can send KEY_A.
func (c Capabilities) IsKeyboard() bool {
	return c.HasKey(codeKeyA)
}

// IsMouse reports a relative pointer with both X and Y motion.
func (c Capabilities) IsMouse() bool {
	return c.HasRelativeAxis(codeRelX) && c.HasRelativeAxis(codeRelY)
}

// Classify assigns exactly one role, keyboard first.
func Classify(c Capabilities) Role {
	switch {
	case c.IsKeyboard():
		return RoleKeyboard
	case c.IsMouse():
		return RoleMouse
	default:
		return RoleNone
	}
}

// partition splits items into keyboards and mice and returns the selected
// roles concatenated, keyboards first. Items that are not selected are
// passed to discard.
func partition[T any](items []T, caps func(T) Capabilities, includeKeyboards, includeMice bool, discard func(T)) []T {
	var keyboards, mice []T
	for _, item := range items {
		switch Classify(caps(item)) {
		case RoleKeyboard:
			keyboards = append(keyboards, item)
		case RoleMouse:
			mice = append(mice, item)
		default:
			discard(item)
		}
	}

	selected := make([]T, 0, len(keyboards)+len(mice))
	if includeKeyboards {
		selected = append(selected, keyboards...)
	} else {
		for _, item := range keyboards {
			discard(item)
		}
	}
	if includeMice {
		selected = append(selected, mice...)
	} else {
		for _, item := range mice {
			discard(item)
		}
	}
	return selected
}

func codeSet(codes []uint16) map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}
