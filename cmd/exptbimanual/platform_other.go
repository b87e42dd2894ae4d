//go:build !linux

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/travisseymour/exptbimanual/internal/core/response"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid --backend %q (unsupported platform)", value)
}

func newResponseContext() *response.Context {
	return response.NewContext(nil)
}

func listInputDevices(_ string) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}

func startCaptureFromConfig(_ config, _ *response.Context, _ *slog.Logger) (captureRuntime, error) {
	return nil, fmt.Errorf("input capture is not supported on this platform")
}
