package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.huddle/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
}

// Load reads the global config at path. A missing file yields an empty
// config.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// SetDefaultProfile records name as the profile used when none is given.
func SetDefaultProfile(path, name string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	cfg.DefaultProfile = name
	return Save(path, cfg)
}

// Save writes v as TOML to path, creating parent dirs as needed. The file is
// replaced atomically so readers never see a partial write.
func Save(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := f.Chmod(0600); err != nil {
		_ = f.Close()
		return err
	}
	encErr := toml.NewEncoder(f).Encode(v)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		encErr = closeErr
	}
	if encErr != nil {
		return encErr
	}
	return os.Rename(tmp, path)
}
