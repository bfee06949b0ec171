package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tasktree"

// DefaultConfigDir returns the OS-appropriate directory holding the config
// file.
//
//   - macOS:   ~/Library/Application Support/tasktree
//   - Linux:   $XDG_CONFIG_HOME/tasktree (fallback ~/.config/tasktree)
//   - Windows: %APPDATA%\tasktree (fallback ~\tasktree)
func DefaultConfigDir() string {
	return configDirForOS(runtime.GOOS)
}

// DefaultStateDir returns the OS-appropriate directory for logs.
//
//   - macOS:   ~/Library/Logs/tasktree
//   - Linux:   $XDG_STATE_HOME/tasktree (fallback ~/.local/state/tasktree)
//   - Windows: %LOCALAPPDATA%\tasktree (fallback %APPDATA%\tasktree)
func DefaultStateDir() string {
	return stateDirForOS(runtime.GOOS)
}

func configDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, appName)
	default:
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, ".config", appName)
	}
}

func stateDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Logs", appName)
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, appName)
	default: // linux, freebsd, etc.
		if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
			return filepath.Join(dir, appName)
		}
		return filepath.Join(home, ".local", "state", appName)
	}
}
