package sdldisplay

import (
	"fmt"
	"image/color"
	"runtime"

	"github.com/travisseymour/exptbimanual/internal/core/runloop"

	"github.com/veandco/go-sdl2/sdl"
)

type Options struct {
	Title      string
	Width      int32
	Height     int32
	Fullscreen bool
	// HideCursor keeps the pointer off the stimulus area.
	HideCursor bool
}

func DefaultOptions() Options {
	return Options{
		Title:      "exptbimanual",
		Width:      1024,
		Height:     768,
		HideCursor: true,
	}
}

// Window is an SDL2 window with an accelerated renderer. All methods must
// be called from the goroutine that created it.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	closed   bool
}

var _ runloop.Display = (*Window)(nil)

// Open initialises SDL video and creates the window. It locks the calling
// goroutine to its OS thread, as SDL requires.
func Open(opts Options) (*Window, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	flags := uint32(sdl.WINDOW_SHOWN)
	if opts.Fullscreen {
		flags |= uint32(sdl.WINDOW_FULLSCREEN_DESKTOP)
	}
	title := opts.Title
	if title == "" {
		title = DefaultOptions().Title
	}
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultOptions().Width, DefaultOptions().Height
	}

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, width, height, flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, uint32(sdl.RENDERER_ACCELERATED))
	if err != nil {
		_ = window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if opts.HideCursor {
		_, _ = sdl.ShowCursor(sdl.DISABLE)
	}

	return &Window{window: window, renderer: renderer}, nil
}

// PollClose drains the SDL event queue and reports whether a quit event
// was among them. Key and button events are ignored here; responses come
// from the capture threads.
func (w *Window) PollClose() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			w.closed = true
		}
	}
	return w.closed
}

func (w *Window) Clear(c color.Color) {
	w.setColor(c)
	_ = w.renderer.Clear()
}

func (w *Window) Present() {
	w.renderer.Present()
}

func (w *Window) Ticks() uint64 {
	return uint64(sdl.GetTicks())
}

func (w *Window) Delay(ms uint32) {
	sdl.Delay(ms)
}

// Size returns the drawable size in pixels.
func (w *Window) Size() (int32, int32) {
	width, height, err := w.renderer.GetOutputSize()
	if err != nil {
		return w.window.GetSize()
	}
	return width, height
}

func (w *Window) FillRect(rect Rect, c color.Color) {
	w.setColor(c)
	_ = w.renderer.FillRect(&sdl.Rect{X: rect.X, Y: rect.Y, W: rect.W, H: rect.H})
}

// DrawCross draws a centred fixation cross.
func (w *Window) DrawCross(size, thickness int32, c color.Color) {
	width, height := w.Size()
	for _, rect := range CrossRects(width, height, size, thickness) {
		w.FillRect(rect, c)
	}
}

func (w *Window) Close() error {
	if w.renderer != nil {
		_ = w.renderer.Destroy()
		w.renderer = nil
	}
	var err error
	if w.window != nil {
		err = w.window.Destroy()
		w.window = nil
	}
	_, _ = sdl.ShowCursor(sdl.ENABLE)
	sdl.Quit()
	return err
}

func (w *Window) setColor(c color.Color) {
	rgba := toNRGBA(c)
	_ = w.renderer.SetDrawColor(rgba.R, rgba.G, rgba.B, rgba.A)
}
