//go:build linux

package x11input

import (
	"errors"
	"fmt"
	"io"

	"github.com/travisseymour/exptbimanual/internal/core/response"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

const (
	DevicePath = "x11-global"
	DeviceName = "X11 Global Input"
)

// ErrGrab is returned when the X server refuses the keyboard or pointer
// grab. Without a grab the root window receives no input.
var ErrGrab = errors.New("x11 input grab failed")

// Device reads the X server's core keyboard and pointer as one input
// device for sessions that cannot open /dev/input.
type Device struct {
	xu   *xgbutil.XUtil
	conn *xgb.Conn
	root xproto.Window

	pressed map[uint16]struct{}
	pending []xgb.Event
}

var _ response.Device = (*Device)(nil)

func Open() (*Device, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	keybind.Initialize(xu)

	return &Device{
		xu:      xu,
		conn:    conn,
		root:    xu.RootWin(),
		pressed: make(map[uint16]struct{}),
	}, nil
}

func (d *Device) Name() string { return DeviceName }
func (d *Device) Path() string { return DevicePath }

func (d *Device) Grab() error {
	kbd, err := xproto.GrabKeyboard(
		d.conn,
		false,
		d.root,
		xproto.TimeCurrentTime,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
	).Reply()
	if err != nil {
		return fmt.Errorf("%w: keyboard: %w", ErrGrab, err)
	}
	if kbd.Status != xproto.GrabStatusSuccess {
		return fmt.Errorf("%w: keyboard status=%d", ErrGrab, kbd.Status)
	}

	ptr, err := xproto.GrabPointer(
		d.conn,
		false,
		d.root,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync,
		xproto.GrabModeAsync,
		xproto.WindowNone,
		xproto.CursorNone,
		xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		_ = xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check()
		return fmt.Errorf("%w: pointer: %w", ErrGrab, err)
	}
	if ptr.Status != xproto.GrabStatusSuccess {
		_ = xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check()
		return fmt.Errorf("%w: pointer status=%d", ErrGrab, ptr.Status)
	}
	return nil
}

func (d *Device) Release() error {
	return errors.Join(
		xproto.UngrabPointerChecked(d.conn, xproto.TimeCurrentTime).Check(),
		xproto.UngrabKeyboardChecked(d.conn, xproto.TimeCurrentTime).Check(),
	)
}

func (d *Device) Close() error {
	d.conn.Close()
	return nil
}

// ReadEvent blocks until the next key or button transition. X11 reports
// autorepeat as a release immediately followed by a press with the same
// timestamp; that pair is folded into a single repeat event.
func (d *Device) ReadEvent() (response.Event, error) {
	for {
		event, err := d.next(true)
		if err != nil {
			return response.Event{}, err
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			code, ok := d.keyCode(ev.Detail)
			if !ok {
				continue
			}
			if _, down := d.pressed[code]; down {
				return keyEvent(code, response.ValueRepeat), nil
			}
			d.pressed[code] = struct{}{}
			return keyEvent(code, response.ValuePress), nil
		case xproto.KeyReleaseEvent:
			code, ok := d.keyCode(ev.Detail)
			if !ok {
				continue
			}
			if d.isAutorepeat(ev) {
				return keyEvent(code, response.ValueRepeat), nil
			}
			delete(d.pressed, code)
			return keyEvent(code, response.ValueRelease), nil
		case xproto.ButtonPressEvent:
			if code, ok := buttonToCode(ev.Detail); ok {
				return keyEvent(code, response.ValuePress), nil
			}
		case xproto.ButtonReleaseEvent:
			if code, ok := buttonToCode(ev.Detail); ok {
				return keyEvent(code, response.ValueRelease), nil
			}
		}
	}
}

func (d *Device) next(block bool) (xgb.Event, error) {
	if len(d.pending) > 0 {
		event := d.pending[0]
		d.pending = d.pending[1:]
		return event, nil
	}
	var (
		event xgb.Event
		xerr  xgb.Error
	)
	if block {
		event, xerr = d.conn.WaitForEvent()
	} else {
		event, xerr = d.conn.PollForEvent()
	}
	if xerr != nil {
		return nil, fmt.Errorf("x11 event error: %s", xerr.Error())
	}
	if event == nil && block {
		return nil, fmt.Errorf("x11 connection closed: %w", io.EOF)
	}
	return event, nil
}

// isAutorepeat consumes the press that follows an autorepeat release.
func (d *Device) isAutorepeat(release xproto.KeyReleaseEvent) bool {
	event, err := d.next(false)
	if err != nil || event == nil {
		return false
	}
	if press, ok := event.(xproto.KeyPressEvent); ok && press.Detail == release.Detail && press.Time == release.Time {
		return true
	}
	d.pending = append(d.pending, event)
	return false
}

// keyCode looks the keycode up without modifiers so Shift or Ctrl do not
// change the reported key.
func (d *Device) keyCode(keycode xproto.Keycode) (uint16, bool) {
	return keysymToCode(keybind.LookupString(d.xu, 0, keycode))
}

func keyEvent(code uint16, value int32) response.Event {
	return response.Event{Type: response.EventTypeKey, Code: code, Value: value}
}
