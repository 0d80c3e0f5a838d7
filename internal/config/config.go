// Package config loads and stores the mod manager's settings.
//
// Settings come from a TOML file in the user's config directory, then from
// TMM_* environment variables, then from command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/goopsie/teraModTools/internal/atomicfile"
)

// Defaults.
const (
	DirName             = "tera-mod-manager"
	FileName            = "settings.toml"
	DefaultProcessName  = "TERA.exe"
	DefaultPollInterval = time.Second
	DefaultLogLevel     = "info"
)

// ErrUnknownKey is returned by Set for a key that is not a setting.
var ErrUnknownKey = errors.New("unknown setting")

// Duration is a time.Duration stored as a string such as "1s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Settings is the persisted configuration.
type Settings struct {
	RootDir       string   `toml:"root_dir" env:"TMM_ROOT_DIR"`
	WaitForLaunch bool     `toml:"wait_for_launch" env:"TMM_WAIT_FOR_LAUNCH"`
	ProcessName   string   `toml:"process_name" env:"TMM_PROCESS_NAME"`
	PollInterval  Duration `toml:"poll_interval" env:"TMM_POLL_INTERVAL"`
	LogLevel      string   `toml:"log_level" env:"TMM_LOG_LEVEL"`
	SnapshotDir   string   `toml:"snapshot_dir,omitempty" env:"TMM_SNAPSHOT_DIR"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		ProcessName:  DefaultProcessName,
		PollInterval: Duration{DefaultPollInterval},
		LogLevel:     DefaultLogLevel,
	}
}

// DefaultPath returns the settings file location in the user's config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, DirName, FileName), nil
}

// Load reads the settings file at path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s, err := LoadFile(path)
	if err != nil {
		return s, err
	}
	if err := ParseEnv(&s); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// LoadFile reads the settings file at path over the defaults without
// looking at the environment.
func LoadFile(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// ParseEnv applies TMM_* environment variables to target.
func ParseEnv(target *Settings) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the settings are usable.
func (s Settings) Validate() error {
	if s.ProcessName == "" {
		return errors.New("process_name must not be empty")
	}
	if s.PollInterval.Duration <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval)
	}
	return nil
}

// Save writes the settings to path as TOML, creating the directory.
func (s Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Keys lists the setting names accepted by Set and Get.
func Keys() []string {
	return []string{"root_dir", "wait_for_launch", "process_name", "poll_interval", "log_level", "snapshot_dir"}
}

// Get returns the value of a setting formatted as Set accepts it.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case "root_dir":
		return s.RootDir, nil
	case "wait_for_launch":
		return strconv.FormatBool(s.WaitForLaunch), nil
	case "process_name":
		return s.ProcessName, nil
	case "poll_interval":
		return s.PollInterval.String(), nil
	case "log_level":
		return s.LogLevel, nil
	case "snapshot_dir":
		return s.SnapshotDir, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set assigns a setting from its string form.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "root_dir":
		s.RootDir = value
	case "wait_for_launch":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("wait_for_launch: %w", err)
		}
		s.WaitForLaunch = v
	case "process_name":
		s.ProcessName = value
	case "poll_interval":
		if err := s.PollInterval.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
	case "log_level":
		s.LogLevel = value
	case "snapshot_dir":
		s.SnapshotDir = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.Validate()
}
