// Package prefs persists user choices made inside the UI, currently the
// last selected grid view. Preferences live in ~/.config/nowline/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/cwarden/nowline/internal/view"
)

type Prefs struct {
	View string `toml:"view"`
}

const defaultPrefsPath = "~/.config/nowline/prefs.toml"

// DefaultPath is where prefs live unless prefs_file says otherwise.
func DefaultPath() string {
	return defaultPrefsPath
}

// SelectedView returns the stored view, or fallback when none is stored or
// the stored name is not a supported view.
func (p Prefs) SelectedView(fallback view.View) view.View {
	if strings.TrimSpace(p.View) == "" {
		return fallback
	}
	v, err := view.Parse(p.View)
	if err != nil {
		return fallback
	}
	return v
}

// Load reads the prefs file at path, or the default path when empty. A
// missing file is not an error. Any other failure returns zero Prefs along
// with the error, so callers can warn and carry on with defaults.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{}, err
	}

	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, fmt.Errorf("decode %s: %w", resolved, err)
	}
	return p, nil
}

func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return os.WriteFile(resolved, data, 0o644)
}

// resolvePath expands a leading ~ and makes path absolute.
func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(path, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("prefs path %s: %w", path, err)
		}
		path = filepath.Join(home, rest)
	}
	return filepath.Abs(path)
}
