package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

type config struct {
	backend     string
	keyboards   bool
	mice        bool
	listDevices bool
	grabDevices bool
	refreshRate int
	width       int
	height      int
	fullscreen  bool
	windowed    bool
	trials      int
	dataDir     string
	subject     int
	session     int
	ui          bool
	logLevel    slog.Level
}

func newSlogLogger(level slog.Level) *slog.Logger {
	if !debugLogsEnabled() {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func parseConfig(args []string, stderr io.Writer) (config, error) {
	cfg := config{}
	flags := flag.NewFlagSet("exptbimanual", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var backendRaw string
	var logLevelRaw string
	var noGrab bool
	var cliMode bool

	flags.StringVar(&backendRaw, "backend", "auto", "Input backend: auto|evdev|x11.")
	flags.BoolVar(&cfg.keyboards, "keyboards", true, "Capture keyboards.")
	flags.BoolVar(&cfg.mice, "mice", true, "Capture mice.")
	flags.BoolVar(&cfg.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.BoolVar(&cfg.grabDevices, "grab", true, "Grab input devices so keystrokes do not reach other applications.")
	flags.BoolVar(&noGrab, "no-grab", false, "Disable device grabbing.")
	flags.IntVar(&cfg.refreshRate, "refresh-rate", 60, "Frame loop rate in Hz.")
	flags.IntVar(&cfg.width, "width", 0, "Window width in pixels (default: last session or 1024).")
	flags.IntVar(&cfg.height, "height", 0, "Window height in pixels (default: last session or 768).")
	flags.BoolVar(&cfg.fullscreen, "fullscreen", false, "Open the task window fullscreen.")
	flags.BoolVar(&cfg.windowed, "windowed", false, "Open the task window windowed, overriding a saved fullscreen setting.")
	flags.IntVar(&cfg.trials, "trials", 8, "Number of practice trials.")
	flags.StringVar(&cfg.dataDir, "data-dir", "data", "Directory for JSON-lines result files.")
	flags.IntVar(&cfg.subject, "subject", 0, "Participant number (asked in the setup dialog when --ui).")
	flags.IntVar(&cfg.session, "session", 0, "Session number (asked in the setup dialog when --ui).")
	flags.BoolVar(&cfg.ui, "ui", true, "Show the session setup dialog. Use --ui=false or --cli to skip it.")
	flags.BoolVar(&cliMode, "cli", false, "Skip the setup dialog.")
	flags.StringVar(&logLevelRaw, "log-level", "info", "Log verbosity (default: info). Allowed: debug, info, warning, error.")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if flags.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if noGrab {
		cfg.grabDevices = false
	}
	if cliMode {
		cfg.ui = false
	}
	if !cfg.keyboards && !cfg.mice {
		return cfg, fmt.Errorf("--keyboards=false and --mice=false leave nothing to capture")
	}
	if cfg.refreshRate <= 0 {
		return cfg, fmt.Errorf("--refresh-rate must be > 0")
	}
	if cfg.width < 0 || cfg.height < 0 {
		return cfg, fmt.Errorf("--width and --height must be >= 0")
	}
	if cfg.fullscreen && cfg.windowed {
		return cfg, fmt.Errorf("--fullscreen and --windowed are mutually exclusive")
	}
	if cfg.trials <= 0 {
		return cfg, fmt.Errorf("--trials must be > 0")
	}
	if cfg.subject < 0 || cfg.session < 0 {
		return cfg, fmt.Errorf("--subject and --session must be >= 0")
	}
	if strings.TrimSpace(cfg.dataDir) == "" {
		return cfg, fmt.Errorf("--data-dir must not be empty")
	}

	parsedLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return cfg, err
	}
	backendChoice, err := parseBackendChoice(backendRaw)
	if err != nil {
		return cfg, err
	}

	cfg.backend = backendChoice
	cfg.logLevel = parsedLevel
	return cfg, nil
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

// captureErrorMessage turns a capture start failure into the line shown to
// the operator.
func captureErrorMessage(err error) string {
	if isPermissionError(err) {
		return permissionDeniedHint()
	}
	return err.Error()
}

func run(args []string, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.listDevices {
		if err := listInputDevices(cfg.backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	stored, err := loadSessionSettings()
	if err != nil {
		fmt.Fprintln(stderr, "WARNING", err)
	}
	info := mergeSessionInfo(cfg, stored)

	if cfg.ui {
		chosen, ok, err := runSetupDialog(info)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if !ok {
			return 0
		}
		info = chosen
	}
	if err := saveSessionSettings(info); err != nil {
		fmt.Fprintln(stderr, "WARNING", err)
	}

	logger := newSlogLogger(cfg.logLevel)
	runID := newRunID()
	logger.Info("Session", "run", runID, "subject", info.Subject, "session", info.Session)

	rc := newResponseContext()
	capture, err := startCaptureFromConfig(cfg, rc, logger)
	if err != nil {
		fmt.Fprintln(stderr, captureErrorMessage(err))
		return 1
	}

	out, err := openDataFile(cfg.dataDir, info.Subject, info.Session)
	if err != nil {
		_ = capture.Stop()
		fmt.Fprintln(stderr, err)
		return 1
	}

	win, err := openWindow(info)
	if err != nil {
		_ = capture.Stop()
		_ = out.Close()
		fmt.Fprintln(stderr, err)
		return 1
	}

	sess := &session{
		rc:      rc,
		capture: capture,
		window:  win,
		out:     out,
		logger:  logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		// The frame loop owns the window; it sees the stop signal on its
		// next frame and shuts the session down.
		rc.Queue().Push(response.ExitRecord())
		rc.Stop()
	}()

	block := newPracticeBlock(sess.window, rc, logger, practiceConfig{
		Trials:      cfg.trials,
		RefreshRate: cfg.refreshRate,
		RunID:       runID,
		Subject:     info.Subject,
		Session:     info.Session,
	})
	block.scheduler.SetExit(func(code int) {
		sess.shutdown()
		os.Exit(code)
	})

	rows, err := block.Run(out)
	sess.shutdown()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	printSummary(os.Stdout, rows)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
