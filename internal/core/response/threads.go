package response

import (
	"errors"
	"fmt"
	"time"
)

const DefaultJoinTimeout = time.Second

// Threads tracks the capture goroutines started by StartCapture.
type Threads struct {
	workers []*worker
	logger  Logger
}

type worker struct {
	name string
	path string
	done chan struct{}
	err  error
}

// StartCapture starts one capture goroutine per device. Each goroutine owns
// its device until it exits.
func StartCapture(devices []Device, ctx *Context, opts Options) *Threads {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger{}
	}
	t := &Threads{logger: logger, workers: make([]*worker, 0, len(devices))}
	for _, dev := range devices {
		capture := NewCapture(dev, ctx, opts)
		w := &worker{name: capture.name, path: dev.Path(), done: make(chan struct{})}
		t.workers = append(t.workers, w)
		go func() {
			defer close(w.done)
			w.err = capture.Run()
		}()
	}
	logger.Info("Capture started", "devices", len(devices))
	return t
}

// Len returns the number of capture goroutines started.
func (t *Threads) Len() int {
	if t == nil {
		return 0
	}
	return len(t.workers)
}

// Err returns the read errors of the threads that have already exited.
func (t *Threads) Err() error {
	if t == nil {
		return nil
	}
	var errs []error
	for _, w := range t.workers {
		select {
		case <-w.done:
			if w.err != nil {
				errs = append(errs, w.err)
			}
		default:
		}
	}
	return errors.Join(errs...)
}

// StopCapture sets the stop signal and waits for every capture goroutine,
// each for at most timeout. Goroutines still blocked in a device read are
// abandoned and reported with ErrShutdownTimeout.
func StopCapture(ctx *Context, threads *Threads, timeout time.Duration) error {
	ctx.Stop()
	if threads == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}

	var errs []error
	for _, w := range threads.workers {
		timer := time.NewTimer(timeout)
		select {
		case <-w.done:
			timer.Stop()
		case <-timer.C:
			threads.logger.Warn("Capture thread did not exit in time, abandoning it", "device", w.name, "path", w.path, "timeout", timeout)
			errs = append(errs, fmt.Errorf("%w: %s (%s)", ErrShutdownTimeout, w.name, w.path))
		}
	}
	threads.logger.Info("Capture stopped", "devices", len(threads.workers), "abandoned", len(errs))
	return errors.Join(errs...)
}
