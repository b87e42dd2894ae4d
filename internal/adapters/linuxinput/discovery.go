//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/travisseymour/exptbimanual/internal/core/response"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

// ErrDeviceOpen marks a device that could not be opened during enumeration.
var ErrDeviceOpen = errors.New("cannot open input device")

type DeviceInfo struct {
	Path      string
	Name      string
	Role      Role
	IsVirtual bool
	IsPointer bool
}

// ListInputDevices describes every readable input device without keeping
// any of them open.
func ListInputDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := openDevice(path.Path, path.Name)
		if err != nil {
			continue
		}
		devices = append(devices, dev.Info())
		_ = dev.Close()
	}

	return devices, nil
}

// FindDevices opens every input device and keeps the keyboards and mice
// selected by the flags, keyboards first. A device that cannot be opened is
// logged and skipped; the rest are closed.
func FindDevices(includeKeyboards, includeMice bool, logger response.Logger) ([]*Device, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	opened := make([]*Device, 0, len(paths))
	var (
		permissionDenied int
		firstDenied      error
	)
	for _, path := range paths {
		dev, err := openDevice(path.Path, path.Name)
		if err != nil {
			if isPermissionError(err) {
				if firstDenied == nil {
					firstDenied = err
				}
				permissionDenied++
			}
			logger.Debug("Could not open input device", "path", path.Path, "err", err)
			continue
		}
		opened = append(opened, dev)
	}

	selected := partition(opened, (*Device).Capabilities, includeKeyboards, includeMice, func(dev *Device) {
		_ = dev.Close()
	})
	for _, dev := range selected {
		logger.Info("Using input device", "path", dev.Path(), "name", dev.Name(), "role", dev.Role().String())
	}
	if len(selected) == 0 && permissionDenied > 0 {
		return nil, permissionDeniedError(permissionDenied, firstDenied)
	}
	return selected, nil
}

// permissionDeniedError keeps the errno of the first refused open so callers
// can match it with errors.Is.
func permissionDeniedError(count int, first error) error {
	return fmt.Errorf("%w: permission denied on %d devices: %w", ErrDeviceOpen, count, first)
}

func openDevice(path, fallbackName string) (*Device, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDeviceOpen, path, err)
	}

	name := fallbackName
	if actualName, err := dev.Name(); err == nil && actualName != "" {
		name = actualName
	}
	return &Device{
		dev:     dev,
		name:    name,
		path:    dev.Path(),
		caps:    deviceCapabilities(dev),
		virtual: deviceIsVirtual(dev, name),
	}, nil
}

func deviceCapabilities(dev *evdev.InputDevice) Capabilities {
	return NewCapabilities(
		codesOf(dev.CapableEvents(evdev.EV_KEY)),
		codesOf(dev.CapableEvents(evdev.EV_REL)),
		codesOf(dev.CapableEvents(evdev.EV_ABS)),
	)
}

func codesOf(codes []evdev.EvCode) []uint16 {
	out := make([]uint16, 0, len(codes))
	for _, code := range codes {
		out = append(out, uint16(code))
	}
	return out
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

func isDeviceGoneError(err error) bool {
	return errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENODEV)
}
