// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "REELCTL_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden through the REELCTL_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Reelctl))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Reelctl))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Preferences resolves the file holding persisted playback preferences (volume, loop, rate, dark mask).
func Preferences() string {
	return filepath.Join(Config(), "preferences.json")
}

// History resolves the file recording what was played and where it stopped.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Screenshots resolves the directory screenshots are written to.
func Screenshots() string {
	return ensureDir(filepath.Join(Cache(), "screenshots"))
}

// Temp resolves a volatile directory for transient artifacts such as IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Reelctl))
}
