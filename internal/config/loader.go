package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProfileFile is the default profile file name.
const DefaultProfileFile = ".davsnap"

// ErrProfileNotFound is returned when the profile file does not exist.
var ErrProfileNotFound = errors.New("profile file not found")

// LoadProfileFile loads share profiles from a YAML file.
// If the file does not exist, it returns ErrProfileNotFound; callers
// decide whether that is fatal based on whether the path was explicit.
func LoadProfileFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if f.Shares == nil {
		f.Shares = make(map[string]ShareProfile)
	}

	return &f, nil
}

// FindProfileFile searches for the profile file in the following order:
// 1. If profilePath is specified, use it directly
// 2. Look for .davsnap in the current directory
// 3. Look for .davsnap in the user's home directory
//
// Returns the path if found, or empty string otherwise.
func FindProfileFile(profilePath string) string {
	if profilePath != "" {
		if _, err := os.Stat(profilePath); err == nil {
			return profilePath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdProfile := filepath.Join(cwd, DefaultProfileFile)
		if _, err := os.Stat(cwdProfile); err == nil {
			return cwdProfile
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeProfile := filepath.Join(home, DefaultProfileFile)
		if _, err := os.Stat(homeProfile); err == nil {
			return homeProfile
		}
	}

	return ""
}
