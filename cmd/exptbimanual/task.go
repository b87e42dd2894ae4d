package main

import (
	"image/color"
	"log/slog"
	"math/rand"
	"time"

	"github.com/travisseymour/exptbimanual/internal/adapters/sdldisplay"
	"github.com/travisseymour/exptbimanual/internal/core/response"
	"github.com/travisseymour/exptbimanual/internal/core/runloop"
)

const (
	fixationDuration = 1000 * time.Millisecond
	stimulusTimeout  = 5 * time.Second
	feedbackDuration = 500 * time.Millisecond
)

// practiceKeys are the home-row response keys, two per hand, in screen
// order.
var practiceKeys = []string{"A", "S", "K", "L"}

var (
	colorFixation = color.White
	colorSlot     = color.NRGBA{R: 0x40, G: 0x40, B: 0x48, A: 0xff}
	colorTarget   = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	colorCorrect  = color.NRGBA{R: 0x2e, G: 0xc2, B: 0x5a, A: 0xff}
	colorWrong    = color.NRGBA{R: 0xd9, G: 0x3b, B: 0x3b, A: 0xff}
)

// surface is a display the practice block can draw shapes on.
type surface interface {
	runloop.Display
	Size() (int32, int32)
	FillRect(rect sdldisplay.Rect, c color.Color)
	DrawCross(size, thickness int32, c color.Color)
}

type practiceConfig struct {
	Trials      int
	RefreshRate int
	RunID       string
	Subject     int
	Session     int
	// Seed fixes the target sequence. Zero seeds from the clock.
	Seed int64
}

// practiceBlock runs fixation, stimulus and feedback loops for each trial.
type practiceBlock struct {
	surface   surface
	scheduler *runloop.Scheduler
	cfg       practiceConfig
	rng       *rand.Rand
	logger    *slog.Logger
}

func newPracticeBlock(s surface, rc *response.Context, logger *slog.Logger, cfg practiceConfig) *practiceBlock {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &practiceBlock{
		surface:   s,
		scheduler: runloop.NewScheduler(s, rc, logger),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

func (b *practiceBlock) Run(out rowWriter) ([]trialRow, error) {
	rows := make([]trialRow, 0, b.cfg.Trials)
	for trial := 1; trial <= b.cfg.Trials; trial++ {
		row := b.trial(trial)
		if err := out.Write(row); err != nil {
			return rows, err
		}
		b.logger.Info("Trial",
			"trial", row.Trial,
			"target", row.Target,
			"response", row.Response,
			"rt_ms", row.RTMS,
			"correct", row.Correct,
		)
		rows = append(rows, row)
	}
	return rows, nil
}

func (b *practiceBlock) trial(n int) trialRow {
	slot := b.rng.Intn(len(practiceKeys))
	target := practiceKeys[slot]

	fixation := b.loopConfig("fixation")
	fixation.Duration = fixationDuration
	fixation.Render = func() runloop.Fields {
		b.surface.DrawCross(40, 4, colorFixation)
		return nil
	}
	b.scheduler.Run(fixation)

	stimulus := b.loopConfig("stimulus")
	stimulus.Duration = stimulusTimeout
	stimulus.ResponseCount = 1
	stimulus.AllowedResponses = practiceKeys
	stimulus.TargetResponses = []string{target}
	stimulus.Policy = runloop.Exact
	stimulus.Render = b.stimulusRender(n, slot)
	res := b.scheduler.Run(stimulus)

	row := newTrialRow(b.cfg, n, target, res)

	feedback := b.loopConfig("feedback")
	feedback.Duration = feedbackDuration
	barColor := colorWrong
	if row.Correct && row.RTMS >= 0 {
		barColor = colorCorrect
	}
	feedback.Render = func() runloop.Fields {
		width, height := b.surface.Size()
		b.surface.FillRect(sdldisplay.Rect{X: width / 8, Y: height/2 - 20, W: width * 3 / 4, H: 40}, barColor)
		return nil
	}
	b.scheduler.Run(feedback)

	return row
}

func (b *practiceBlock) loopConfig(name string) runloop.Config {
	cfg := runloop.DefaultConfig()
	cfg.Name = name
	cfg.RefreshRate = b.cfg.RefreshRate
	return cfg
}

// stimulusRender draws the four response slots with the target lit. Trial
// metadata is reported on the first frame only.
func (b *practiceBlock) stimulusRender(trial, slot int) runloop.RenderFunc {
	first := true
	return func() runloop.Fields {
		width, height := b.surface.Size()
		boxHeight := height / 5
		for i := range practiceKeys {
			c := color.Color(colorSlot)
			if i == slot {
				c = colorTarget
			}
			b.surface.FillRect(sdldisplay.SlotRect(width, height, len(practiceKeys), i, boxHeight), c)
		}
		if !first {
			return nil
		}
		first = false
		return runloop.Fields{"trial": trial, "target": practiceKeys[slot], "slot": slot}
	}
}
