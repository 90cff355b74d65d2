package config

import (
	"os"
	"path/filepath"
)

const appName = "tipsheet"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultPolicyPath returns the default policy file path.
func DefaultPolicyPath() string {
	return filepath.Join(XDGConfigHome(), appName, "policy.yaml")
}

// DefaultHistoryPath returns the default path for the run history database.
func DefaultHistoryPath() string {
	return filepath.Join(XDGDataHome(), appName, "history.db")
}
