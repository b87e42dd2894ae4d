package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/travisseymour/exptbimanual/internal/core/runloop"
)

// trialRow is one line of the session's JSON-lines data file.
type trialRow struct {
	RunID      string `json:"run_id"`
	Subject    int    `json:"subject"`
	Session    int    `json:"session"`
	Trial      int    `json:"trial"`
	Target     string `json:"target"`
	Response   string `json:"response"`
	Device     string `json:"device"`
	RTMS       int64  `json:"rt_ms"`
	Correct    bool   `json:"correct"`
	StopReason string `json:"stop_reason"`
	LoopStart  uint64 `json:"loop_start"`
	LoopStop   uint64 `json:"loop_stop"`
}

func newRunID() string {
	return uuid.NewString()
}

// newTrialRow scores one stimulus loop. RT is only set when the loop ended
// on a response; a timed-out trial has RT -1.
func newTrialRow(cfg practiceConfig, trial int, target string, res runloop.Result) trialRow {
	row := trialRow{
		RunID:      cfg.RunID,
		Subject:    cfg.Subject,
		Session:    cfg.Session,
		Trial:      trial,
		Target:     target,
		RTMS:       -1,
		Correct:    res.Correct,
		StopReason: string(res.Reason),
		LoopStart:  res.Start,
		LoopStop:   res.Stop,
	}
	if len(res.Responses) > 0 {
		row.Response = res.Responses[0].Value
		row.Device = res.Responses[0].Device
	}
	if res.Reason == runloop.StopResponseCount {
		row.RTMS = res.Duration.Milliseconds()
	}
	return row
}

type rowWriter interface {
	Write(row trialRow) error
}

type dataFile struct {
	f    *os.File
	enc  *json.Encoder
	path string
}

func dataFilePath(dir string, subject, session int) string {
	return filepath.Join(dir, fmt.Sprintf("%d_%d.jsonl", subject, session))
}

// openDataFile appends to the subject/session file so a restarted session
// keeps its earlier rows.
func openDataFile(dir string, subject, session int) (*dataFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	path := dataFilePath(dir, subject, session)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	return &dataFile{f: f, enc: json.NewEncoder(f), path: path}, nil
}

func (d *dataFile) Path() string { return d.path }

func (d *dataFile) Write(row trialRow) error {
	if err := d.enc.Encode(row); err != nil {
		return fmt.Errorf("failed to write trial %d: %w", row.Trial, err)
	}
	return nil
}

func (d *dataFile) Close() error {
	if err := d.f.Sync(); err != nil {
		_ = d.f.Close()
		return err
	}
	return d.f.Close()
}

func printSummary(w io.Writer, rows []trialRow) {
	var (
		correct  int
		answered int
		totalRT  int64
	)
	for _, row := range rows {
		if row.Correct {
			correct++
		}
		if row.RTMS >= 0 {
			answered++
			totalRT += row.RTMS
		}
	}
	fmt.Fprintf(w, "Trials: %d  Correct: %d\n", len(rows), correct)
	if answered > 0 {
		mean := time.Duration(totalRT/int64(answered)) * time.Millisecond
		fmt.Fprintf(w, "Mean RT: %s\n", mean)
	}
}
