package main

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/travisseymour/exptbimanual/internal/adapters/sdldisplay"
	"github.com/travisseymour/exptbimanual/internal/core/response"
)

func init() {
	// SDL and the fyne driver both expect the main OS thread.
	runtime.LockOSThread()
}

type captureRuntime interface {
	Stop() error
}

// session owns everything that must be released on the way out, whether
// the block finishes or the frame loop exits the process.
type session struct {
	rc      *response.Context
	capture captureRuntime
	window  *sdldisplay.Window
	out     *dataFile
	logger  *slog.Logger

	once sync.Once
}

func (s *session) shutdown() {
	s.once.Do(func() {
		s.rc.Stop()
		if err := s.capture.Stop(); err != nil {
			s.logger.Debug("Capture stopped with errors", "err", err)
		}
		if err := s.window.Close(); err != nil {
			s.logger.Warn("Failed to close window", "err", err)
		}
		if err := s.out.Close(); err != nil {
			s.logger.Error("Failed to close data file", "path", s.out.Path(), "err", err)
		}
	})
}

func openWindow(info sessionInfo) (*sdldisplay.Window, error) {
	opts := sdldisplay.DefaultOptions()
	opts.Title = "Bimanual Response Task"
	opts.Width = int32(info.Width)
	opts.Height = int32(info.Height)
	opts.Fullscreen = info.Fullscreen
	return sdldisplay.Open(opts)
}
