//go:build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/travisseymour/exptbimanual/internal/adapters/linuxinput"

	"golang.org/x/sys/unix"
)

func TestParseBackendChoice(t *testing.T) {
	for raw, want := range map[string]string{"": "auto", "EVDEV": "evdev", " x11 ": "x11", "auto": "auto"} {
		got, err := parseBackendChoice(raw)
		if err != nil || got != want {
			t.Fatalf("parseBackendChoice(%q) = %q, %v; want %q", raw, got, err, want)
		}
	}
}

func TestResolveExplicitBackend(t *testing.T) {
	if got := resolveLinuxBackend("x11"); got != "x11" {
		t.Fatalf("resolveLinuxBackend(x11) = %q", got)
	}
	if got := resolveLinuxBackend("evdev"); got != "evdev" {
		t.Fatalf("resolveLinuxBackend(evdev) = %q", got)
	}
}

func TestCaptureErrorMessageShowsPermissionHint(t *testing.T) {
	denied := &os.PathError{Op: "open", Path: "/dev/input/event0", Err: unix.EACCES}
	err := fmt.Errorf("%w: permission denied on 2 devices: %w", linuxinput.ErrDeviceOpen, denied)
	if got := captureErrorMessage(err); got != permissionDeniedHint() {
		t.Fatalf("captureErrorMessage() = %q, want the permission hint", got)
	}

	other := errors.New("no keyboards or mice found")
	if got := captureErrorMessage(other); got != other.Error() {
		t.Fatalf("captureErrorMessage() = %q, want %q", got, other.Error())
	}
}
