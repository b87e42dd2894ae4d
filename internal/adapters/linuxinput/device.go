//go:build linux

package linuxinput

import (
	"fmt"
	"io"

	"github.com/travisseymour/exptbimanual/internal/core/response"

	evdev "github.com/holoplot/go-evdev"
)

// Device is an opened evdev node. It satisfies response.Device and is owned
// by the capture thread it is handed to.
type Device struct {
	dev     *evdev.InputDevice
	name    string
	path    string
	caps    Capabilities
	virtual bool
}

var _ response.Device = (*Device)(nil)

func (d *Device) Name() string { return d.name }
func (d *Device) Path() string { return d.path }

func (d *Device) Capabilities() Capabilities { return d.caps }

func (d *Device) Role() Role { return Classify(d.caps) }

func (d *Device) Info() DeviceInfo {
	return DeviceInfo{
		Path:      d.path,
		Name:      d.name,
		Role:      d.Role(),
		IsVirtual: d.virtual,
		IsPointer: d.caps.IsMouse() || d.caps.HasAbsoluteAxes(),
	}
}

// ReadEvent blocks until the kernel delivers the next event.
func (d *Device) ReadEvent() (response.Event, error) {
	event, err := d.dev.ReadOne()
	if err != nil {
		if isDeviceGoneError(err) {
			return response.Event{}, fmt.Errorf("%s went away: %w", d.path, io.EOF)
		}
		return response.Event{}, err
	}
	return response.Event{
		Type:  uint16(event.Type),
		Code:  uint16(event.Code),
		Value: event.Value,
	}, nil
}

func (d *Device) Grab() error {
	return d.dev.Grab()
}

func (d *Device) Release() error {
	return d.dev.Ungrab()
}

func (d *Device) Close() error {
	return d.dev.Close()
}

// Devices converts opened devices for response.StartCapture.
func Devices(devices []*Device) []response.Device {
	out := make([]response.Device, 0, len(devices))
	for _, dev := range devices {
		out = append(out, dev)
	}
	return out
}
