package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "repoharness"
)

// GetConfigDir returns the platform-specific config directory for the application
// On Linux: ~/.config/repoharness/
// On macOS: ~/Library/Application Support/repoharness/
// On Windows: %AppData%\repoharness\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetCacheDir returns the platform-specific cache directory for the application
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetSnapshotDir returns the directory failed repositories are archived to
// Format: <cache_dir>/snapshots/
func GetSnapshotDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "snapshots"), nil
}

// GetTempRoot returns the directory test repositories are allocated under
// Format: <os temp dir>/repoharness/
func GetTempRoot() string {
	return filepath.Join(os.TempDir(), AppName)
}
