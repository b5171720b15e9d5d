package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Prefs are the display preferences of the interactive editor.
type Prefs struct {
	Color       bool              `toml:"color"`
	ShowIDs     bool              `toml:"show_ids"`
	Prompt      string            `toml:"prompt"`
	HistoryFile string            `toml:"history_file"`
	TypeColors  map[string]string `toml:"type_colors"`
}

// DefaultPrefs returns the preferences used when no file exists.
func DefaultPrefs() Prefs {
	return Prefs{
		Color:       true,
		Prompt:      "mindmap> ",
		HistoryFile: filepath.Join("data", ".mindmap_history"),
		TypeColors: map[string]string{
			string(model.NodeTypeDefault):  "white",
			string(model.NodeTypeIdea):     "yellow",
			string(model.NodeTypeTask):     "green",
			string(model.NodeTypeQuestion): "magenta",
			string(model.NodeTypeNote):     "cyan",
		},
	}
}

// LoadPrefs reads preferences from a TOML file. A missing file is created with defaults.
// Keys absent from the file keep their default values.
func LoadPrefs(path string) (Prefs, error) {
	prefs := DefaultPrefs()
	if path == "" {
		return prefs, nil
	}

	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, SavePrefs(path, prefs)
		}
		return DefaultPrefs(), fmt.Errorf("failed to read preferences: %w", err)
	}
	return prefs, nil
}

// SavePrefs writes preferences as TOML, creating the directory when needed.
func SavePrefs(path string, prefs Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(prefs); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
