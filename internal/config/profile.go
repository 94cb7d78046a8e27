package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendHub   = "hub"
	BackendRedis = "redis"
	BackendRTDB  = "rtdb"
)

// Notify strategies of the sync engine.
const (
	NotifyWatermark = "watermark"
	NotifyLast      = "last"
)

// Submit modes.
const (
	SubmitFireAndForget = "fire-and-forget"
	SubmitAwait         = "await"
)

// MinBackgroundInterval is the shortest interval the host allows for a
// periodic background task.
const MinBackgroundInterval = 15 * time.Minute

// Environment variables that override profile values.
const (
	EnvTelegramToken = "HUDDLE_TELEGRAM_TOKEN"
	EnvRTDBAuth      = "HUDDLE_RTDB_AUTH"
	EnvRedisURL      = "HUDDLE_REDIS_URL"
	EnvTelegramChat  = "HUDDLE_TELEGRAM_CHAT_ID"
)

// Profile is the per-profile profile.toml.
type Profile struct {
	TimeZone      string        `toml:"time_zone"`
	Store         Store         `toml:"store"`
	Sync          Sync          `toml:"sync"`
	Submit        Submit        `toml:"submit"`
	Background    Background    `toml:"background"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
}

// Store selects the backend the daemon serves the messages collection from.
type Store struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	RTDBURL  string `toml:"rtdb_url"`
	RTDBAuth string `toml:"rtdb_auth"`
}

type Sync struct {
	Notify        string `toml:"notify"`
	NotifyInitial bool   `toml:"notify_initial"`
}

type Submit struct {
	Mode string `toml:"mode"`
}

type Background struct {
	Enabled         bool          `toml:"enabled"`
	MinimumInterval time.Duration `toml:"minimum_interval"`
	StopOnTerminate bool          `toml:"stop_on_terminate"`
	StartOnBoot     bool          `toml:"start_on_boot"`
	Timeout         time.Duration `toml:"timeout"`
}

type Notifications struct {
	Enabled   bool          `toml:"enabled"`
	RateEvery time.Duration `toml:"rate_every"`
	RateBurst int           `toml:"rate_burst"`
	Telegram  Telegram      `toml:"telegram"`
}

type Telegram struct {
	Token  string `toml:"token"`
	ChatID int64  `toml:"chat_id"`
	APIURL string `toml:"api_url"`
}

type Metrics struct {
	// Listen is the address of the Prometheus endpoint; empty disables it.
	Listen string `toml:"listen"`
}

// DefaultProfile returns the settings used for keys absent from profile.toml.
func DefaultProfile() *Profile {
	return &Profile{
		Store: Store{Backend: BackendHub},
		Sync:  Sync{Notify: NotifyWatermark},
		Submit: Submit{
			Mode: SubmitFireAndForget,
		},
		Background: Background{
			Enabled:         true,
			MinimumInterval: 15 * time.Minute,
			StopOnTerminate: false,
			StartOnBoot:     true,
			Timeout:         30 * time.Second,
		},
		Notifications: Notifications{
			Enabled:   true,
			RateEvery: 2 * time.Second,
			RateBurst: 5,
		},
	}
}

// LoadProfile reads profile.toml over the defaults, then applies overrides
// from the .env file at envPath and from the process environment, in that
// order. Missing files are not an error.
func LoadProfile(path, envPath string) (*Profile, error) {
	p := DefaultProfile()
	if _, err := toml.DecodeFile(path, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	env := map[string]string{}
	if envPath != "" {
		fileEnv, err := godotenv.Read(envPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, k := range []string{EnvTelegramToken, EnvRTDBAuth, EnvRedisURL, EnvTelegramChat} {
		if v := os.Getenv(k); v != "" {
			env[k] = v
		}
	}
	if err := p.applyEnv(env); err != nil {
		return nil, err
	}
	return p, p.Validate()
}

func (p *Profile) applyEnv(env map[string]string) error {
	if v := env[EnvTelegramToken]; v != "" {
		p.Notifications.Telegram.Token = v
	}
	if v := env[EnvTelegramChat]; v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTelegramChat, err)
		}
		p.Notifications.Telegram.ChatID = id
	}
	if v := env[EnvRTDBAuth]; v != "" {
		p.Store.RTDBAuth = v
	}
	if v := env[EnvRedisURL]; v != "" {
		p.Store.RedisURL = v
	}
	return nil
}

// Validate rejects settings no component can run with.
func (p *Profile) Validate() error {
	switch p.Store.Backend {
	case BackendHub:
	case BackendRedis:
		if p.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	case BackendRTDB:
		if p.Store.RTDBURL == "" {
			return errors.New("store.rtdb_url is required for the rtdb backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", p.Store.Backend)
	}
	if p.Sync.Notify != NotifyWatermark && p.Sync.Notify != NotifyLast {
		return fmt.Errorf("unknown sync.notify strategy %q", p.Sync.Notify)
	}
	if p.Submit.Mode != SubmitFireAndForget && p.Submit.Mode != SubmitAwait {
		return fmt.Errorf("unknown submit.mode %q", p.Submit.Mode)
	}
	if p.Background.MinimumInterval < MinBackgroundInterval {
		return fmt.Errorf("background.minimum_interval must be at least %s", MinBackgroundInterval)
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone used for HH:MM labels, defaulting to local time.
func (p *Profile) Location() (*time.Location, error) {
	if p.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time_zone: %w", err)
	}
	return loc, nil
}

// SaveStore replaces the [store] table of the profile.toml at path, leaving
// every other setting as written. Environment overrides are not applied, so
// secrets kept in .env never end up in the file.
func SaveStore(path string, st Store) error {
	p := DefaultProfile()
	if _, err := toml.DecodeFile(path, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	p.Store = st
	if err := p.Validate(); err != nil {
		return err
	}
	return Save(path, p)
}
