package response

import (
	"fmt"
	"strconv"
	"strings"
)

type Options struct {
	// KeyName maps an EV_KEY code to its kernel name, e.g. "KEY_A".
	KeyName func(code uint16) string
	// Grab requests exclusive access to the device. A failed grab is logged
	// and capture continues ungrabbed.
	Grab bool
	// DebounceEnabled records the last press time per key. The bookkeeping
	// never suppresses a record.
	DebounceEnabled bool
	Logger          Logger
}

func DefaultOptions() Options {
	return Options{
		Grab:            true,
		DebounceEnabled: true,
	}
}

var mouseButtons = map[uint16]string{
	BtnLeft:   "1",
	BtnRight:  "2",
	BtnMiddle: "3",
}

// Capture turns the raw events of one device into records on the shared
// queue. All of its state belongs to the goroutine running it.
type Capture struct {
	dev     Device
	name    string
	ctx     *Context
	keyName func(code uint16) string
	logger  Logger

	grab     bool
	grabbed  bool
	debounce bool

	pressed   map[uint16]struct{}
	lastPress map[uint16]float64
}

func NewCapture(dev Device, ctx *Context, opts Options) *Capture {
	keyName := opts.KeyName
	if keyName == nil {
		keyName = fallbackKeyName
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger{}
	}
	return &Capture{
		dev:       dev,
		name:      dev.Name(),
		ctx:       ctx,
		keyName:   keyName,
		logger:    logger,
		grab:      opts.Grab,
		debounce:  opts.DebounceEnabled,
		pressed:   make(map[uint16]struct{}),
		lastPress: make(map[uint16]float64),
	}
}

// Run is the capture thread body. It returns nil when the stop signal ends
// the loop and an ErrDeviceRead error when the device fails. The device is
// released and closed before Run returns.
func (c *Capture) Run() (err error) {
	defer c.releaseDevice()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Capture thread crashed", "device", c.name, "path", c.dev.Path(), "panic", r)
			err = fmt.Errorf("%w: %s: panic: %v", ErrDeviceRead, c.name, r)
		}
	}()

	c.logger.Debug("Starting capture thread", "device", c.name, "path", c.dev.Path())
	if c.grab {
		if grabErr := c.dev.Grab(); grabErr != nil {
			c.logger.Warn("Could not grab device, capturing without grab", "device", c.name, "err", grabErr)
		} else {
			c.grabbed = true
			c.logger.Debug("Grabbed device", "device", c.name)
		}
	}

	for {
		if c.ctx.Stopped() {
			return nil
		}
		event, readErr := c.dev.ReadEvent()
		if readErr != nil {
			if c.ctx.Stopped() {
				return nil
			}
			c.logger.Error("Read failed, capture thread exiting", "device", c.name, "path", c.dev.Path(), "err", readErr)
			return fmt.Errorf("%w: %s: %w", ErrDeviceRead, c.name, readErr)
		}
		if c.ctx.Stopped() {
			return nil
		}
		if !c.HandleEvent(event) {
			return nil
		}
	}
}

// HandleEvent applies one raw event. It returns false once the kill combo
// has been seen and the thread must stop.
func (c *Capture) HandleEvent(event Event) bool {
	if event.Type != EventTypeKey {
		return true
	}

	switch event.Value {
	case ValueRelease:
		delete(c.pressed, event.Code)
		return true
	case ValuePress:
	default:
		return true
	}

	c.pressed[event.Code] = struct{}{}
	if event.Code == KeyX && c.ctrlDown() {
		c.logger.Info("Detected Ctrl+X, initiating shutdown", "device", c.name)
		c.ctx.Queue().Push(ExitRecord())
		c.ctx.Stop()
		return false
	}

	now := c.ctx.Now()
	source, token := c.classify(event.Code)
	if c.ctx.Allows(token) {
		c.ctx.Queue().Push(InputRecord{Source: source, Device: c.name, Value: token, Time: now})
	}
	if c.debounce {
		c.lastPress[event.Code] = now
	}
	return true
}

// LastPress returns the debounce timestamp recorded for a key.
func (c *Capture) LastPress(code uint16) (float64, bool) {
	t, ok := c.lastPress[code]
	return t, ok
}

func (c *Capture) ctrlDown() bool {
	_, left := c.pressed[KeyLeftCtrl]
	_, right := c.pressed[KeyRightCtrl]
	return left || right
}

func (c *Capture) classify(code uint16) (Source, string) {
	if button, ok := mouseButtons[code]; ok {
		return Mouse, button
	}
	name := c.keyName(code)
	if name == "" {
		name = fallbackKeyName(code)
	}
	return Keyboard, strings.ToUpper(strings.Replace(name, "KEY_", "", 1))
}

func (c *Capture) releaseDevice() {
	c.logger.Debug("Releasing and closing device", "device", c.name)
	if c.grabbed {
		if err := c.dev.Release(); err != nil {
			c.logger.Warn("Release failed", "device", c.name, "err", err)
		}
		c.grabbed = false
	}
	if err := c.dev.Close(); err != nil {
		c.logger.Warn("Close failed", "device", c.name, "err", err)
	}
}

func fallbackKeyName(code uint16) string {
	return "KEY_" + strconv.Itoa(int(code))
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
