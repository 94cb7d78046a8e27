package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.huddle, or $HUDDLE_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("HUDDLE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".huddle")
}

// Dir returns the profile directory.
func Dir(profile string) string {
	return filepath.Join(BaseDir(), "profiles", profile)
}

// SocketPath returns the daemon's Unix socket for a profile.
func SocketPath(profile string) string {
	return filepath.Join(Dir(profile), "daemon.sock")
}

// HubDBPath returns the SQLite database backing the profile's hub store.
func HubDBPath(profile string) string {
	return filepath.Join(Dir(profile), "hub.db")
}

// ProfileConfigPath returns the per-profile settings file.
func ProfileConfigPath(profile string) string {
	return filepath.Join(Dir(profile), "profile.toml")
}

// EnvPath returns the per-profile secrets file.
func EnvPath(profile string) string {
	return filepath.Join(Dir(profile), ".env")
}

// LogDir returns the log directory for a profile.
func LogDir(profile string) string {
	return filepath.Join(Dir(profile), "logs")
}

// LogPath returns the log file for one binary of a profile.
func LogPath(profile, binary string) string {
	return filepath.Join(LogDir(profile), binary+".log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree.
func EnsureDir(profile string) error {
	for _, d := range []string{Dir(profile), LogDir(profile)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
