package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := &Config{DefaultProfile: "work"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want %q", loaded.DefaultProfile, "work")
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultProfile != "" {
		t.Errorf("DefaultProfile = %q, want empty", cfg.DefaultProfile)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_profile = ["), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed TOML")
	}
}

func TestSetDefaultProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := SetDefaultProfile(path, "work"); err != nil {
		t.Fatalf("SetDefaultProfile() error = %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultProfile != "work" {
		t.Errorf("DefaultProfile = %q, want work", cfg.DefaultProfile)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("leftover temp files: %v", entries)
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, &Config{DefaultProfile: "main"}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	dir := t.TempDir()
	p, err := LoadProfile(filepath.Join(dir, "profile.toml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Store.Backend != BackendHub {
		t.Errorf("Backend = %q, want hub", p.Store.Backend)
	}
	if p.Background.MinimumInterval != 900*time.Second {
		t.Errorf("MinimumInterval = %s, want 15m", p.Background.MinimumInterval)
	}
	if p.Background.StopOnTerminate || !p.Background.StartOnBoot {
		t.Errorf("Background = %+v, want stop_on_terminate=false start_on_boot=true", p.Background)
	}
	if p.Sync.Notify != NotifyWatermark || p.Submit.Mode != SubmitFireAndForget {
		t.Errorf("Sync/Submit = %+v/%+v", p.Sync, p.Submit)
	}
}

func TestLoadProfileOverridesAndEnv(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	envPath := filepath.Join(dir, ".env")

	toml := `
time_zone = "America/Sao_Paulo"

[store]
backend = "redis"
redis_url = "redis://from-toml:6379/0"

[sync]
notify = "last"

[background]
minimum_interval = "30m"

[notifications.telegram]
chat_id = 42
`
	if err := os.WriteFile(path, []byte(toml), 0600); err != nil {
		t.Fatal(err)
	}
	env := "HUDDLE_TELEGRAM_TOKEN=123:abc\nHUDDLE_REDIS_URL=redis://from-env:6379/1\n"
	if err := os.WriteFile(envPath, []byte(env), 0600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path, envPath)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Store.RedisURL != "redis://from-env:6379/1" {
		t.Errorf("RedisURL = %q, want env override", p.Store.RedisURL)
	}
	if p.Notifications.Telegram.Token != "123:abc" || p.Notifications.Telegram.ChatID != 42 {
		t.Errorf("Telegram = %+v", p.Notifications.Telegram)
	}
	if p.Sync.Notify != NotifyLast {
		t.Errorf("Notify = %q, want last", p.Sync.Notify)
	}
	if p.Background.MinimumInterval != 30*time.Minute {
		t.Errorf("MinimumInterval = %s, want 30m", p.Background.MinimumInterval)
	}
	if !p.Background.StartOnBoot {
		t.Error("StartOnBoot default lost when [background] table present")
	}
	loc, err := p.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc.String() != "America/Sao_Paulo" {
		t.Errorf("Location() = %s", loc)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"unknown backend", func(p *Profile) { p.Store.Backend = "mongo" }},
		{"redis without url", func(p *Profile) { p.Store.Backend = BackendRedis }},
		{"rtdb without url", func(p *Profile) { p.Store.Backend = BackendRTDB }},
		{"unknown strategy", func(p *Profile) { p.Sync.Notify = "diff" }},
		{"unknown submit mode", func(p *Profile) { p.Submit.Mode = "sync" }},
		{"zero interval", func(p *Profile) { p.Background.MinimumInterval = 0 }},
		{"interval below 15m", func(p *Profile) { p.Background.MinimumInterval = time.Minute }},
		{"bad zone", func(p *Profile) { p.TimeZone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.mutate(p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
	if err := DefaultProfile().Validate(); err != nil {
		t.Errorf("default profile invalid: %v", err)
	}
	p := DefaultProfile()
	p.Background.MinimumInterval = MinBackgroundInterval
	if err := p.Validate(); err != nil {
		t.Errorf("interval at the minimum rejected: %v", err)
	}
}

func TestSaveStoreKeepsOtherSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	if err := os.WriteFile(path, []byte("time_zone = \"UTC\"\n[background]\nminimum_interval = \"20m\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvRedisURL, "redis://:secret@elsewhere:6379")

	if err := SaveStore(path, Store{Backend: BackendRTDB, RTDBURL: "https://chat.firebaseio.com"}); err != nil {
		t.Fatalf("SaveStore() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("environment secret written to profile.toml:\n%s", data)
	}

	p, err := LoadProfile(path, "")
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if p.Store.Backend != BackendRTDB || p.Store.RTDBURL != "https://chat.firebaseio.com" {
		t.Errorf("store = %+v", p.Store)
	}
	if p.TimeZone != "UTC" || p.Background.MinimumInterval != 20*time.Minute {
		t.Errorf("other settings lost: tz %q, interval %v", p.TimeZone, p.Background.MinimumInterval)
	}
}

func TestSaveStoreRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := SaveStore(path, Store{Backend: BackendRedis}); err == nil {
		t.Fatal("SaveStore() accepted redis without url")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file written for invalid store: %v", err)
	}
}
