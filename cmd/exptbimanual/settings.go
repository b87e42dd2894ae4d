package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultWidth  = 1024
	defaultHeight = 768
)

// sessionSettings is what the launcher remembers between runs.
type sessionSettings struct {
	Subject    int  `json:"subject"`
	Session    int  `json:"session"`
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
}

type sessionInfo = sessionSettings

func sessionSettingsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".exptbimanual-settings.json"), nil
	}
	return filepath.Join(configDir, "exptbimanual", "settings.json"), nil
}

func loadSessionSettings() (*sessionSettings, error) {
	path, err := sessionSettingsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg sessionSettings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return &cfg, nil
}

func saveSessionSettings(cfg sessionSettings) error {
	path, err := sessionSettingsPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	return nil
}

// mergeSessionInfo starts from the saved settings and lets explicit flags
// win.
func mergeSessionInfo(cfg config, stored *sessionSettings) sessionInfo {
	info := sessionInfo{Subject: 1, Session: 1, Width: defaultWidth, Height: defaultHeight}
	if stored != nil {
		if stored.Subject > 0 {
			info.Subject = stored.Subject
		}
		if stored.Session > 0 {
			info.Session = stored.Session
		}
		if stored.Width > 0 && stored.Height > 0 {
			info.Width, info.Height = stored.Width, stored.Height
		}
		info.Fullscreen = stored.Fullscreen
	}

	if cfg.subject > 0 {
		info.Subject = cfg.subject
	}
	if cfg.session > 0 {
		info.Session = cfg.session
	}
	if cfg.width > 0 {
		info.Width = cfg.width
	}
	if cfg.height > 0 {
		info.Height = cfg.height
	}
	if cfg.fullscreen {
		info.Fullscreen = true
	}
	if cfg.windowed {
		info.Fullscreen = false
	}
	return info
}
