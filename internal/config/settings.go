package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Settings are optional runtime tweaks
type Settings struct {
	LogCloudSet LogCloudSet `json:"logCloudSet"`
}

// LogCloudSet selects slots whose changes are logged
type LogCloudSet struct {
	Active    bool     `json:"active"`
	Variables []string `json:"variables"`
}

// LogSlots returns the slot labels to log, or nil when logging is off
func (s Settings) LogSlots() []string {
	if !s.LogCloudSet.Active {
		return nil
	}
	return s.LogCloudSet.Variables
}

// LoadSettings reads the settings file. A missing file yields defaults.
func LoadSettings(path string) (Settings, error) {
	var settings Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	return settings, nil
}
