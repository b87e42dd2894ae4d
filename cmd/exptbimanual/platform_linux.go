//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/travisseymour/exptbimanual/internal/adapters/linuxinput"
	"github.com/travisseymour/exptbimanual/internal/adapters/x11input"
	"github.com/travisseymour/exptbimanual/internal/core/response"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "evdev", "x11":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (linux supports auto|evdev|x11)", value)
	}
}

func newResponseContext() *response.Context {
	return response.NewContext(linuxinput.MonotonicSeconds)
}

func listInputDevices(backend string) error {
	if resolveLinuxBackend(backend) == "x11" {
		fmt.Printf("%s: %s [virtual, pointer]\n", x11input.DevicePath, x11input.DeviceName)
		return nil
	}

	devices, err := linuxinput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		virtualTag := "physical"
		if dev.IsVirtual {
			virtualTag = "virtual"
		}
		fmt.Printf("%s: %s [%s, %s]\n", dev.Path, dev.Name, dev.Role, virtualTag)
	}
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied opening input devices. Add your user to the input group or run with access to /dev/input. On X11 --backend x11 works without it."
}

func startCaptureFromConfig(cfg config, rc *response.Context, logger *slog.Logger) (captureRuntime, error) {
	switch resolveLinuxBackend(cfg.backend) {
	case "x11":
		return startX11Capture(cfg, rc, logger)
	default:
		return startEvdevCapture(cfg, rc, logger)
	}
}

func startEvdevCapture(cfg config, rc *response.Context, logger *slog.Logger) (captureRuntime, error) {
	runtime, err := linuxinput.NewRuntime(
		rc,
		linuxinput.RuntimeConfig{
			Keyboards:   cfg.keyboards,
			Mice:        cfg.mice,
			GrabDevices: cfg.grabDevices,
			JoinTimeout: response.DefaultJoinTimeout,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		_ = runtime.Stop()
		return nil, err
	}

	logger.Info("Backend", "name", "evdev")
	if cfg.grabDevices {
		logger.Info("Grab mode enabled")
	} else {
		logger.Info("Grab mode disabled")
	}
	logger.Info("Press Ctrl+X or Ctrl+C to stop")
	return runtime, nil
}

// x11Capture runs one capture thread over the X server's core devices.
type x11Capture struct {
	rc      *response.Context
	threads *response.Threads
	logger  *slog.Logger
}

func startX11Capture(cfg config, rc *response.Context, logger *slog.Logger) (captureRuntime, error) {
	dev, err := x11input.Open()
	if err != nil {
		return nil, err
	}

	opts := response.DefaultOptions()
	opts.KeyName = linuxinput.KeyName
	opts.Grab = cfg.grabDevices
	opts.Logger = logger

	threads := response.StartCapture([]response.Device{dev}, rc, opts)
	logger.Info("Backend", "name", "x11")
	if !cfg.grabDevices {
		logger.Warn("X11 without grab only sees input sent to the root window")
	}
	logger.Info("Press Ctrl+X or Ctrl+C to stop")
	return &x11Capture{rc: rc, threads: threads, logger: logger}, nil
}

func (c *x11Capture) Stop() error {
	err := response.StopCapture(c.rc, c.threads, response.DefaultJoinTimeout)
	if err != nil {
		c.logger.Warn("Capture shutdown incomplete", "err", err)
	}
	return err
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice != "auto" {
		return choice
	}

	// Readable evdev nodes win; X11 is the fallback for unprivileged
	// desktop sessions.
	if devices, err := linuxinput.ListInputDevices(); err == nil && len(devices) > 0 {
		return "evdev"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "evdev"
}
