package runloop

import (
	"image/color"
	"time"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

// Display is the rendering side the loop drives once per frame.
type Display interface {
	// PollClose reports whether the user asked to close the window.
	PollClose() bool
	Clear(c color.Color)
	Present()
	// Ticks is a monotonic millisecond clock.
	Ticks() uint64
	Delay(ms uint32)
}

// Fields is a free-form record returned by a render callback.
type Fields map[string]any

// RenderFunc draws one frame. A non-empty return value is appended to the
// loop's data log.
type RenderFunc func() Fields

type MatchPolicy int

const (
	// Subset is correct when every observed token is a target token.
	Subset MatchPolicy = iota
	// Exact is correct when observed and target tokens are the same set.
	Exact
)

func (p MatchPolicy) String() string {
	switch p {
	case Exact:
		return "exact"
	default:
		return "subset"
	}
}

type StopReason string

const (
	StopDuration      StopReason = "duration"
	StopResponseCount StopReason = "response_count"
	StopExternalClose StopReason = "external_close"
	StopExitMarker    StopReason = "exit_marker"
)

type Config struct {
	// Name identifies the render callback in the result.
	Name   string
	Render RenderFunc
	// Duration stops the loop once this much time has elapsed. Zero
	// disables the check.
	Duration time.Duration
	// ResponseCount stops the loop once this many distinct responses have
	// arrived. Zero disables the check.
	ResponseCount int
	// AllowedResponses replaces the capture allow-list before the first
	// frame. Empty means unrestricted.
	AllowedResponses []string
	// TargetResponses is the expected response set. Empty means any
	// response, including none, is correct.
	TargetResponses []string
	Policy          MatchPolicy
	ClearQueueFirst bool
	RefreshRate     int
	Background      color.Color
}

const (
	DefaultName        = "frame"
	DefaultRefreshRate = 60
)

func DefaultConfig() Config {
	return Config{
		Name:            DefaultName,
		Policy:          Subset,
		ClearQueueFirst: true,
		RefreshRate:     DefaultRefreshRate,
		Background:      color.Black,
	}
}

type Result struct {
	Name      string
	Start     uint64
	Stop      uint64
	Duration  time.Duration
	Responses []response.InputRecord
	// Log holds every drained record in arrival order, duplicates included.
	Log     []response.InputRecord
	Target  []string
	Policy  MatchPolicy
	Correct bool
	Reason  StopReason
	Data    []Fields
}

// Fields flattens the render data and the loop summary into one record.
// Summary keys win over render keys of the same name.
func (r Result) Fields() Fields {
	out := Fields{}
	for _, data := range r.Data {
		for k, v := range data {
			out[k] = v
		}
	}
	out["display_func"] = r.Name
	out["loop_start"] = r.Start
	out["stop"] = r.Stop
	out["duration"] = r.Duration.Milliseconds()
	out["responses"] = r.Responses
	out["correct_responses"] = r.Target
	out["match_policy"] = r.Policy.String()
	out["correct"] = r.Correct
	out["stop_reason"] = string(r.Reason)
	return out
}
