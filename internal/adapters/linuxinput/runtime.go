//go:build linux

package linuxinput

import (
	"fmt"
	"sync"
	"time"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

type RuntimeConfig struct {
	Keyboards   bool
	Mice        bool
	GrabDevices bool
	JoinTimeout time.Duration
}

// Runtime owns the capture threads of the evdev backend.
type Runtime struct {
	ctx     *response.Context
	devices []*Device
	logger  response.Logger
	cfg     RuntimeConfig

	threads  *response.Threads
	stopOnce sync.Once
	stopErr  error
}

func NewRuntime(ctx *response.Context, cfg RuntimeConfig, logger response.Logger) (*Runtime, error) {
	if ctx == nil {
		return nil, fmt.Errorf("run context is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if !cfg.Keyboards && !cfg.Mice {
		return nil, fmt.Errorf("neither keyboards nor mice selected")
	}

	devices, err := FindDevices(cfg.Keyboards, cfg.Mice, logger)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no keyboards or mice found; use --list-devices to check permissions")
	}

	return &Runtime{ctx: ctx, devices: devices, logger: logger, cfg: cfg}, nil
}

func (r *Runtime) Start() error {
	if r.threads != nil {
		return fmt.Errorf("capture already started")
	}
	opts := response.DefaultOptions()
	opts.KeyName = KeyName
	opts.Grab = r.cfg.GrabDevices
	opts.Logger = r.logger
	r.threads = response.StartCapture(Devices(r.devices), r.ctx, opts)
	return nil
}

// Stop signals every capture thread and waits for them with the configured
// bound. Threads stuck in a read are abandoned.
func (r *Runtime) Stop() error {
	r.stopOnce.Do(func() {
		if r.threads == nil {
			r.ctx.Stop()
			for _, dev := range r.devices {
				_ = dev.Close()
			}
			return
		}
		r.stopErr = response.StopCapture(r.ctx, r.threads, r.cfg.JoinTimeout)
		if r.stopErr != nil {
			r.logger.Warn("Capture shutdown incomplete", "err", r.stopErr)
		}
	})
	return r.stopErr
}

func (r *Runtime) Devices() []DeviceInfo {
	out := make([]DeviceInfo, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev.Info())
	}
	return out
}
