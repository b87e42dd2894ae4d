package response

import "fmt"

const (
	EventTypeSyn uint16 = 0x00
	EventTypeKey uint16 = 0x01
	EventTypeRel uint16 = 0x02

	KeyLeftCtrl  uint16 = 29
	KeyX         uint16 = 45
	KeyRightCtrl uint16 = 97

	BtnLeft   uint16 = 0x110
	BtnRight  uint16 = 0x111
	BtnMiddle uint16 = 0x112

	ValueRelease int32 = 0
	ValuePress   int32 = 1
	ValueRepeat  int32 = 2
)

// ExitValue marks the record emitted for the Ctrl+X kill combo.
const ExitValue = "__EXIT__"

type Source string

const (
	Keyboard Source = "keyboard"
	Mouse    Source = "mouse"
)

// Event is a raw input event as read from a device.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// InputRecord is one normalized press. It is comparable, so identical
// presses collapse when used as a map key.
type InputRecord struct {
	Source Source  `json:"type"`
	Device string  `json:"device"`
	Value  string  `json:"value"`
	Time   float64 `json:"time"`
}

// ExitRecord returns the fixed shutdown marker.
func ExitRecord() InputRecord {
	return InputRecord{Source: Keyboard, Device: "", Value: ExitValue, Time: 0}
}

func (r InputRecord) IsExit() bool {
	return r.Value == ExitValue
}

func (r InputRecord) String() string {
	label := "key"
	if r.Source == Mouse {
		label = "button"
	}
	return fmt.Sprintf("InputRecord(type=%q, device=%q, %s=%s, time=%0.3f)", string(r.Source), r.Device, label, r.Value, r.Time)
}

// Device is a single input device owned by exactly one capture thread.
type Device interface {
	Name() string
	Path() string
	ReadEvent() (Event, error)
	Grab() error
	Release() error
	Close() error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
