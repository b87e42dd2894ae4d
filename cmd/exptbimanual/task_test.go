package main

import (
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/travisseymour/exptbimanual/internal/adapters/sdldisplay"
	"github.com/travisseymour/exptbimanual/internal/core/response"
	"github.com/travisseymour/exptbimanual/internal/core/runloop"
)

// fakeSurface advances a virtual millisecond clock and, when respond is
// set, queues that key after every presented frame.
type fakeSurface struct {
	rc        *response.Context
	now       uint64
	frameCost uint64
	respond   string

	fills   int
	crosses int
}

func (s *fakeSurface) PollClose() bool      { return false }
func (s *fakeSurface) Clear(color.Color)    {}
func (s *fakeSurface) Ticks() uint64        { return s.now }
func (s *fakeSurface) Delay(ms uint32)      { s.now += uint64(ms) }
func (s *fakeSurface) Size() (int32, int32) { return 800, 600 }

func (s *fakeSurface) FillRect(sdldisplay.Rect, color.Color) { s.fills++ }
func (s *fakeSurface) DrawCross(int32, int32, color.Color)   { s.crosses++ }

func (s *fakeSurface) Present() {
	s.now += s.frameCost
	if s.respond == "" {
		return
	}
	s.rc.Queue().Push(response.InputRecord{
		Source: response.Keyboard,
		Device: "fake-kbd",
		Value:  s.respond,
		Time:   float64(s.now) / 1000,
	})
}

type memoryRows struct {
	rows []trialRow
}

func (m *memoryRows) Write(row trialRow) error {
	m.rows = append(m.rows, row)
	return nil
}

func newTestBlock(t *testing.T, respond string, trials int) (*practiceBlock, *fakeSurface) {
	t.Helper()
	rc := response.NewContext(func() float64 { return 0 })
	surface := &fakeSurface{rc: rc, now: 1000, frameCost: 2, respond: respond}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	block := newPracticeBlock(surface, rc, logger, practiceConfig{
		Trials:      trials,
		RefreshRate: 60,
		RunID:       "run-1",
		Subject:     3,
		Session:     2,
		Seed:        7,
	})
	block.scheduler.SetExit(func(code int) {
		t.Fatalf("practice block tried to exit with code %d", code)
	})
	return block, surface
}

func TestPracticeBlockScoresResponses(t *testing.T) {
	block, surface := newTestBlock(t, "A", 6)
	out := &memoryRows{}

	rows, err := block.Run(out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rows) != 6 || len(out.rows) != 6 {
		t.Fatalf("rows=%d written=%d, want 6", len(rows), len(out.rows))
	}

	for _, row := range rows {
		if row.RunID != "run-1" || row.Subject != 3 || row.Session != 2 {
			t.Fatalf("row identity = %+v", row)
		}
		if row.Response != "A" || row.Device != "fake-kbd" {
			t.Fatalf("trial %d response = %q from %q", row.Trial, row.Response, row.Device)
		}
		if row.StopReason != string(runloop.StopResponseCount) {
			t.Fatalf("trial %d stop reason = %q", row.Trial, row.StopReason)
		}
		// One 2 ms frame padded to the 16 ms frame period.
		if row.RTMS != 16 {
			t.Fatalf("trial %d rt = %d, want 16", row.Trial, row.RTMS)
		}
		if row.Correct != (row.Target == "A") {
			t.Fatalf("trial %d target=%s correct=%v", row.Trial, row.Target, row.Correct)
		}
	}
	if surface.crosses == 0 || surface.fills == 0 {
		t.Fatalf("nothing drawn: crosses=%d fills=%d", surface.crosses, surface.fills)
	}
}

func TestPracticeBlockTimeout(t *testing.T) {
	block, _ := newTestBlock(t, "", 1)
	rows, err := block.Run(&memoryRows{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	row := rows[0]
	if row.StopReason != string(runloop.StopDuration) || row.RTMS != -1 || row.Correct || row.Response != "" {
		t.Fatalf("timed-out row = %+v", row)
	}
	if got := row.LoopStop - row.LoopStart; got < uint64(stimulusTimeout.Milliseconds()) {
		t.Fatalf("stimulus loop ran %d ms, want >= %d", got, stimulusTimeout.Milliseconds())
	}
}

func TestPracticeBlockSeedRepeatsTargets(t *testing.T) {
	first, _ := newTestBlock(t, "A", 5)
	second, _ := newTestBlock(t, "A", 5)
	a, _ := first.Run(&memoryRows{})
	b, _ := second.Run(&memoryRows{})
	for i := range a {
		if a[i].Target != b[i].Target {
			t.Fatalf("trial %d targets differ: %s vs %s", i+1, a[i].Target, b[i].Target)
		}
	}
}
