package runloop

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

// Scheduler runs frame loops on a single goroutine. It never touches
// devices; it only drains the shared queue.
type Scheduler struct {
	display Display
	rc      *response.Context
	logger  response.Logger
	exit    func(code int)
}

func NewScheduler(display Display, rc *response.Context, logger response.Logger) *Scheduler {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Scheduler{display: display, rc: rc, logger: logger, exit: os.Exit}
}

// SetExit replaces the process exit used for the close request and the
// exit marker.
func (s *Scheduler) SetExit(exit func(code int)) {
	s.exit = exit
}

// Run renders frames until a duration or response-count condition ends the
// loop and scores the responses. A close request, an exit marker or the
// stop signal terminates the process.
func (s *Scheduler) Run(cfg Config) Result {
	name := cfg.Name
	if name == "" {
		name = DefaultName
	}
	background := cfg.Background
	if background == nil {
		background = DefaultConfig().Background
	}

	responses := make(map[response.InputRecord]struct{})
	var (
		log  []response.InputRecord
		data []Fields
	)
	pace := newPacer(s.display, cfg.RefreshRate)
	start := s.display.Ticks()

	finish := func(reason StopReason) Result {
		stop := s.display.Ticks()
		set := sortedRecords(responses)
		return Result{
			Name:      name,
			Start:     start,
			Stop:      stop,
			Duration:  time.Duration(stop-start) * time.Millisecond,
			Responses: set,
			Log:       log,
			Target:    cfg.TargetResponses,
			Policy:    cfg.Policy,
			Correct:   Score(set, cfg.TargetResponses, cfg.Policy),
			Reason:    reason,
			Data:      data,
		}
	}

	// A stop signal raised between loops would otherwise vanish with the
	// queue clear below.
	if s.rc.Stopped() {
		s.logger.Info("Stop signal set, exiting", "loop", name)
		return s.terminate(finish(StopExitMarker))
	}
	s.rc.SetAllowedResponses(cfg.AllowedResponses)
	if cfg.ClearQueueFirst {
		s.rc.Queue().Clear()
	}

	for {
		if s.rc.Stopped() {
			s.logger.Info("Stop signal set, exiting", "loop", name)
			return s.terminate(finish(StopExitMarker))
		}
		if s.display.PollClose() {
			s.logger.Info("Window close requested, exiting", "loop", name)
			return s.terminate(finish(StopExternalClose))
		}

		s.display.Clear(background)
		if cfg.Render != nil {
			if fields := cfg.Render(); len(fields) > 0 {
				data = append(data, fields)
			}
		}

		if cfg.Duration > 0 && time.Duration(s.display.Ticks()-start)*time.Millisecond >= cfg.Duration {
			return finish(StopDuration)
		}

		for _, record := range s.rc.Queue().DrainAll() {
			if record.IsExit() {
				s.logger.Info("Exit marker received, exiting", "loop", name)
				return s.terminate(finish(StopExitMarker))
			}
			s.logger.Debug("Response", "loop", name, "record", record.String())
			responses[record] = struct{}{}
			log = append(log, record)
		}

		if cfg.ResponseCount > 0 && len(responses) >= cfg.ResponseCount {
			return finish(StopResponseCount)
		}

		s.display.Present()
		pace.tick()
	}
}

func (s *Scheduler) terminate(result Result) Result {
	s.rc.Stop()
	s.exit(0)
	return result
}

// Score compares observed response tokens with the target tokens. Tokens
// are compared case-insensitively. No target means correct.
func Score(responses []response.InputRecord, target []string, policy MatchPolicy) bool {
	if len(target) == 0 {
		return true
	}
	observed := make(map[string]struct{}, len(responses))
	for _, r := range responses {
		observed[strings.ToUpper(r.Value)] = struct{}{}
	}
	expected := make(map[string]struct{}, len(target))
	for _, t := range target {
		expected[strings.ToUpper(t)] = struct{}{}
	}

	for token := range observed {
		if _, ok := expected[token]; !ok {
			return false
		}
	}
	if policy == Exact {
		return len(observed) == len(expected)
	}
	return true
}

func sortedRecords(set map[response.InputRecord]struct{}) []response.InputRecord {
	out := make([]response.InputRecord, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		if out[i].Device != out[j].Device {
			return out[i].Device < out[j].Device
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// pacer holds each frame to the refresh rate, like a game clock tick.
type pacer struct {
	display Display
	frameMS uint64
	last    uint64
}

func newPacer(display Display, rate int) *pacer {
	p := &pacer{display: display, last: display.Ticks()}
	if rate > 0 {
		p.frameMS = uint64(1000 / rate)
	}
	return p
}

func (p *pacer) tick() {
	if p.frameMS == 0 {
		return
	}
	now := p.display.Ticks()
	if elapsed := now - p.last; elapsed < p.frameMS {
		p.display.Delay(uint32(p.frameMS - elapsed))
	}
	p.last = p.display.Ticks()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
