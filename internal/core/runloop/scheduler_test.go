package runloop

import (
	"image/color"
	"testing"
	"time"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

type fakeDisplay struct {
	now       uint64
	frameCost uint64
	frames    int
	clears    []color.Color
	closeAt   int
	// onPresent runs after a frame is presented, with the frame number.
	onPresent func(frame int)
}

func (d *fakeDisplay) PollClose() bool {
	return d.closeAt > 0 && d.frames+1 >= d.closeAt
}

func (d *fakeDisplay) Clear(c color.Color) {
	d.clears = append(d.clears, c)
	d.now += d.frameCost
}

func (d *fakeDisplay) Present() {
	d.frames++
	if d.onPresent != nil {
		d.onPresent(d.frames)
	}
}

func (d *fakeDisplay) Ticks() uint64 { return d.now }

func (d *fakeDisplay) Delay(ms uint32) { d.now += uint64(ms) }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func newTestScheduler(display *fakeDisplay) (*Scheduler, *response.Context, *[]int) {
	rc := response.NewContext(nil)
	s := NewScheduler(display, rc, noopLogger{})
	exits := &[]int{}
	s.SetExit(func(code int) { *exits = append(*exits, code) })
	return s, rc, exits
}

func key(value string, at float64) response.InputRecord {
	return response.InputRecord{Source: response.Keyboard, Device: "kbd", Value: value, Time: at}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		target    []string
		policy    MatchPolicy
		want      bool
	}{
		{name: "exact equal", responses: []string{"A", "K"}, target: []string{"A", "K"}, policy: Exact, want: true},
		{name: "exact missing", responses: []string{"A"}, target: []string{"A", "K"}, policy: Exact, want: false},
		{name: "exact extra", responses: []string{"A", "K", "S"}, target: []string{"A", "K"}, policy: Exact, want: false},
		{name: "subset partial", responses: []string{"A"}, target: []string{"A", "K"}, policy: Subset, want: true},
		{name: "subset foreign", responses: []string{"A", "S"}, target: []string{"A", "K"}, policy: Subset, want: false},
		{name: "subset empty observed", responses: nil, target: []string{"A"}, policy: Subset, want: true},
		{name: "case insensitive", responses: []string{"space"}, target: []string{"SPACE"}, policy: Exact, want: true},
		{name: "no target any", responses: []string{"Q"}, target: nil, policy: Exact, want: true},
		{name: "no target empty", responses: nil, target: nil, policy: Subset, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]response.InputRecord, 0, len(tc.responses))
			for i, v := range tc.responses {
				records = append(records, key(v, float64(i)))
			}
			if got := Score(records, tc.target, tc.policy); got != tc.want {
				t.Fatalf("Score(%v, %v, %v) = %v, want %v", tc.responses, tc.target, tc.policy, got, tc.want)
			}
		})
	}
}

func TestRunStopsOnDuration(t *testing.T) {
	display := &fakeDisplay{now: 1000, frameCost: 2}
	s, _, exits := newTestScheduler(display)

	cfg := DefaultConfig()
	cfg.Duration = 500 * time.Millisecond
	result := s.Run(cfg)

	if result.Reason != StopDuration {
		t.Fatalf("Reason = %v, want %v", result.Reason, StopDuration)
	}
	if result.Duration < 500*time.Millisecond {
		t.Fatalf("Duration = %v, want >= 500ms", result.Duration)
	}
	frame := time.Second / DefaultRefreshRate
	if result.Duration > 500*time.Millisecond+frame {
		t.Fatalf("Duration = %v, want within one frame of 500ms", result.Duration)
	}
	if result.Start != 1000 || result.Stop != 1000+uint64(result.Duration.Milliseconds()) {
		t.Fatalf("Start/Stop = %d/%d, Duration %v", result.Start, result.Stop, result.Duration)
	}
	if !result.Correct {
		t.Fatalf("no target configured, want correct")
	}
	if len(*exits) != 0 {
		t.Fatalf("exit called on a normal stop")
	}
}

func TestRunStopsOnResponseCount(t *testing.T) {
	display := &fakeDisplay{}
	s, rc, _ := newTestScheduler(display)
	display.onPresent = func(frame int) {
		switch frame {
		case 2:
			rc.Queue().Push(key("A", 0.1))
			rc.Queue().Push(key("A", 0.1))
		case 4:
			rc.Queue().Push(key("K", 0.2))
		}
	}

	cfg := DefaultConfig()
	cfg.Name = "draw_practice_screen"
	cfg.Duration = 10 * time.Second
	cfg.ResponseCount = 2
	cfg.TargetResponses = []string{"A", "K"}
	cfg.Policy = Exact
	result := s.Run(cfg)

	if result.Reason != StopResponseCount {
		t.Fatalf("Reason = %v, want %v", result.Reason, StopResponseCount)
	}
	if display.frames != 4 {
		t.Fatalf("presented %d frames, want 4", display.frames)
	}
	if len(result.Responses) != 2 {
		t.Fatalf("Responses = %v, want 2 distinct records", result.Responses)
	}
	if len(result.Log) != 3 {
		t.Fatalf("Log = %v, want 3 records including the duplicate", result.Log)
	}
	if !result.Correct {
		t.Fatalf("{A, K} vs {A, K} exact, want correct")
	}
	if result.Duration >= cfg.Duration {
		t.Fatalf("stopped by count but ran the full duration")
	}
	if result.Name != "draw_practice_screen" {
		t.Fatalf("Name = %q", result.Name)
	}
}

func TestRunAppliesAllowListAndClearsQueue(t *testing.T) {
	display := &fakeDisplay{}
	s, rc, _ := newTestScheduler(display)
	rc.Queue().Push(key("STALE", 0))
	display.onPresent = func(frame int) {
		if frame == 1 {
			rc.Queue().Push(key("S", 1))
		}
	}

	cfg := DefaultConfig()
	cfg.ResponseCount = 1
	cfg.AllowedResponses = []string{"a", "key_s"}
	cfg.TargetResponses = []string{"A", "K"}
	result := s.Run(cfg)

	if got := rc.AllowedResponses(); len(got) != 2 || got[0] != "A" || got[1] != "S" {
		t.Fatalf("AllowedResponses() = %v, want [A S]", got)
	}
	if len(result.Responses) != 1 || result.Responses[0].Value != "S" {
		t.Fatalf("Responses = %v, want only S", result.Responses)
	}
	if result.Correct {
		t.Fatalf("{S} vs {A, K} subset, want incorrect")
	}
}

func TestRunKeepsQueueWhenNotClearing(t *testing.T) {
	display := &fakeDisplay{}
	s, rc, _ := newTestScheduler(display)
	rc.Queue().Push(key("A", 0))

	cfg := DefaultConfig()
	cfg.ClearQueueFirst = false
	cfg.ResponseCount = 1
	result := s.Run(cfg)

	if result.Reason != StopResponseCount || display.frames != 0 {
		t.Fatalf("Reason = %v after %d frames, want response count on the first frame", result.Reason, display.frames)
	}
}

func TestRunCollectsRenderData(t *testing.T) {
	display := &fakeDisplay{}
	s, _, _ := newTestScheduler(display)

	calls := 0
	cfg := DefaultConfig()
	cfg.Duration = 100 * time.Millisecond
	cfg.Background = color.White
	cfg.Render = func() Fields {
		calls++
		if calls == 1 {
			return Fields{"stimulus": "FF1BW"}
		}
		return nil
	}
	result := s.Run(cfg)

	if len(result.Data) != 1 {
		t.Fatalf("Data = %v, want one entry", result.Data)
	}
	fields := result.Fields()
	if fields["stimulus"] != "FF1BW" || fields["display_func"] != DefaultName || fields["correct"] != true {
		t.Fatalf("Fields() = %v", fields)
	}
	for _, c := range display.clears {
		if c != color.White {
			t.Fatalf("cleared with %v, want white", c)
		}
	}
}

func TestRunExitMarkerTerminates(t *testing.T) {
	display := &fakeDisplay{}
	s, rc, exits := newTestScheduler(display)
	display.onPresent = func(frame int) {
		if frame == 1 {
			rc.Queue().Push(key("A", 1))
			rc.Queue().Push(response.ExitRecord())
		}
	}

	result := s.Run(DefaultConfig())

	if result.Reason != StopExitMarker {
		t.Fatalf("Reason = %v, want %v", result.Reason, StopExitMarker)
	}
	if len(*exits) != 1 || (*exits)[0] != 0 {
		t.Fatalf("exits = %v, want one exit(0)", *exits)
	}
	if !rc.Stopped() {
		t.Fatalf("exit marker must leave the stop signal set")
	}
}

func TestRunStopSignalTerminates(t *testing.T) {
	display := &fakeDisplay{}
	s, rc, exits := newTestScheduler(display)
	display.onPresent = func(frame int) {
		if frame == 2 {
			rc.Stop()
		}
	}

	result := s.Run(DefaultConfig())

	if result.Reason != StopExitMarker {
		t.Fatalf("Reason = %v, want %v", result.Reason, StopExitMarker)
	}
	if display.frames != 2 {
		t.Fatalf("presented %d frames, want 2", display.frames)
	}
	if len(*exits) != 1 || (*exits)[0] != 0 {
		t.Fatalf("exits = %v, want one exit(0)", *exits)
	}
}

// A kill combo that lands in the last frame of a duration-bound loop leaves
// its marker queued. The next loop must still exit instead of clearing it.
func TestRunStopSignalSurvivesQueueClear(t *testing.T) {
	display := &fakeDisplay{frameCost: 2}
	s, rc, exits := newTestScheduler(display)

	first := DefaultConfig()
	first.Duration = 500 * time.Millisecond
	first.Render = func() Fields {
		if display.now >= 500 && !rc.Stopped() {
			rc.Queue().Push(response.ExitRecord())
			rc.Stop()
		}
		return nil
	}
	if got := s.Run(first); got.Reason != StopDuration {
		t.Fatalf("first loop Reason = %v, want %v", got.Reason, StopDuration)
	}
	if len(*exits) != 0 {
		t.Fatalf("first loop exited early: %v", *exits)
	}

	framesBefore := display.frames
	second := DefaultConfig()
	second.Duration = 300 * time.Millisecond
	result := s.Run(second)

	if result.Reason != StopExitMarker {
		t.Fatalf("second loop Reason = %v, want %v", result.Reason, StopExitMarker)
	}
	if len(*exits) != 1 {
		t.Fatalf("exits = %v, want one exit", *exits)
	}
	if display.frames != framesBefore {
		t.Fatalf("second loop presented %d frames after stop", display.frames-framesBefore)
	}
}

func TestNewSchedulerNilLogger(t *testing.T) {
	display := &fakeDisplay{closeAt: 1}
	s := NewScheduler(display, response.NewContext(nil), nil)
	s.SetExit(func(int) {})
	if got := s.Run(DefaultConfig()); got.Reason != StopExternalClose {
		t.Fatalf("Reason = %v, want %v", got.Reason, StopExternalClose)
	}
}

func TestRunExternalCloseTerminates(t *testing.T) {
	display := &fakeDisplay{closeAt: 3}
	s, rc, exits := newTestScheduler(display)

	result := s.Run(DefaultConfig())

	if result.Reason != StopExternalClose {
		t.Fatalf("Reason = %v, want %v", result.Reason, StopExternalClose)
	}
	if display.frames != 2 {
		t.Fatalf("presented %d frames, want 2", display.frames)
	}
	if len(*exits) != 1 || !rc.Stopped() {
		t.Fatalf("close request must exit and set the stop signal")
	}
}

func TestPacerHoldsRefreshRate(t *testing.T) {
	display := &fakeDisplay{}
	p := newPacer(display, 50)
	for i := 0; i < 10; i++ {
		display.now += 5
		p.tick()
	}
	if display.now != 200 {
		t.Fatalf("clock at %dms after 10 frames at 50Hz, want 200", display.now)
	}
}
