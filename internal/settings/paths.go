package settings

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func userDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", errors.New("user config directory not found")
	}
	return filepath.Join(dir, "dailysim"), nil
}

// UserPath is the per-user settings file, used when no dailysim.yaml sits
// in the working directory.
func UserPath() (string, error) {
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultPath), nil
}

// Resolve picks the settings file to read. An explicit path always wins;
// otherwise ./dailysim.yaml, then the user file, then ./dailysim.yaml again
// so Load falls back to defaults.
func Resolve(explicit string) string {
	if explicit != "" && explicit != DefaultPath {
		return explicit
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	if p, err := UserPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return DefaultPath
}

// Save writes s as YAML, replacing path through a temp file and rename.
func Save(path string, s Settings) error {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "dailysim-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	cleanup = false
	return nil
}
