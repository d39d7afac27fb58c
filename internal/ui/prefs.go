package ui

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Prefs is the only client state kept across runs.
type Prefs struct {
	DarkMode bool `toml:"dark_mode"`
}

func DefaultPrefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskflow", "ui.toml"), nil
}

// LoadPrefs reads path. A missing file yields zero Prefs.
func LoadPrefs(path string) (Prefs, error) {
	var p Prefs
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("read prefs %s: %w", path, err)
	}
	return p, nil
}

func SavePrefs(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		_ = f.Close()
		return fmt.Errorf("write prefs %s: %w", path, err)
	}
	return f.Close()
}
