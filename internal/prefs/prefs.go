package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const prefsFile = "menu.json"

// Menu holds user choices the menu remembers between runs.
type Menu struct {
	Series string `json:"series,omitempty"`
}

func prefsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "menutree")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, prefsFile), nil
}

func Save(p Menu) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func Load() (Menu, error) {
	path, err := prefsPath()
	if err != nil {
		return Menu{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Menu{}, nil
		}
		return Menu{}, err
	}
	var p Menu
	if err := json.Unmarshal(data, &p); err != nil {
		return Menu{}, err
	}
	return p, nil
}

// SaveSeries stores the selected template gallery series.
func SaveSeries(key string) error {
	p, err := Load()
	if err != nil {
		return err
	}
	p.Series = key
	return Save(p)
}
