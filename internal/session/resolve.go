package session

import (
	"os"

	"github.com/matheus3301/huddle/internal/config"
)

const DefaultProfile = "main"

// EnvProfile selects the profile when no flag is given.
const EnvProfile = "HUDDLE_PROFILE"

// Resolve picks the active profile, first match wins: the --profile flag,
// $HUDDLE_PROFILE, default_profile in config.toml, then "main".
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if v := os.Getenv(EnvProfile); v != "" {
		return v
	}
	if cfg, err := config.Load(ConfigPath()); err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultProfile
}
