// Package config loads chime's YAML settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jwulff/chime/internal/audio"
)

const (
	appName        = "chime"
	configFileName = "config.yaml"
	socketFileName = "chime.sock"
)

// Timer target bounds, in seconds.
const (
	TimerMinSeconds  = 5
	TimerMaxSeconds  = 300
	TimerStepSeconds = 5
)

// Config is the effective configuration.
type Config struct {
	RecorderCommand   []string
	PlayerCommand     []string
	DefaultSound      string
	AlarmPollInterval time.Duration
	TimerPollInterval time.Duration
	TickInterval      time.Duration
	TimerDefault      time.Duration
	SocketPath        string
	LogFile           string
	LogLevel          slog.Level
	MimeType          string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RecorderCommand:   audio.DefaultRecorderCommand(),
		PlayerCommand:     audio.DefaultPlayerCommand(),
		AlarmPollInterval: time.Second,
		TimerPollInterval: 10 * time.Millisecond,
		TickInterval:      100 * time.Millisecond,
		TimerDefault:      60 * time.Second,
		SocketPath:        DefaultSocketPath(),
		LogLevel:          slog.LevelInfo,
		MimeType:          audio.DefaultMimeType,
	}
}

type yamlConfig struct {
	RecorderCommand     []string `yaml:"recorder_command,omitempty"`
	PlayerCommand       []string `yaml:"player_command,omitempty"`
	DefaultSound        string   `yaml:"default_sound,omitempty"`
	AlarmPollIntervalMS int      `yaml:"alarm_poll_interval_ms,omitempty"`
	TimerPollIntervalMS int      `yaml:"timer_poll_interval_ms,omitempty"`
	TickIntervalMS      int      `yaml:"tick_interval_ms,omitempty"`
	TimerDefaultSeconds int      `yaml:"timer_default_seconds,omitempty"`
	SocketPath          string   `yaml:"socket_path,omitempty"`
	LogFile             string   `yaml:"log_file,omitempty"`
	LogLevel            string   `yaml:"log_level,omitempty"`
	MimeType            string   `yaml:"mime_type,omitempty"`
}

// Path resolves the config file location: an explicit path wins, then
// $CHIME_CONFIG, then the user config directory.
func Path(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if p := os.Getenv("CHIME_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// DefaultSocketPath returns $CHIME_SOCKET, or chime.sock under the runtime
// or cache directory.
func DefaultSocketPath() string {
	if p := os.Getenv("CHIME_SOCKET"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			cache = os.TempDir()
		}
		dir = cache
	}
	return filepath.Join(dir, appName, socketFileName)
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var file yamlConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	apply(&cfg, file)
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	out, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	file := yamlConfig{
		RecorderCommand:     cfg.RecorderCommand,
		PlayerCommand:       cfg.PlayerCommand,
		DefaultSound:        cfg.DefaultSound,
		AlarmPollIntervalMS: int(cfg.AlarmPollInterval / time.Millisecond),
		TimerPollIntervalMS: int(cfg.TimerPollInterval / time.Millisecond),
		TickIntervalMS:      int(cfg.TickInterval / time.Millisecond),
		TimerDefaultSeconds: int(cfg.TimerDefault / time.Second),
		SocketPath:          cfg.SocketPath,
		LogFile:             cfg.LogFile,
		LogLevel:            strings.ToLower(cfg.LogLevel.String()),
		MimeType:            cfg.MimeType,
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("marshal config yaml: %w", err)
	}
	return out, nil
}

func apply(cfg *Config, file yamlConfig) {
	if len(file.RecorderCommand) > 0 {
		cfg.RecorderCommand = file.RecorderCommand
	}
	if len(file.PlayerCommand) > 0 {
		cfg.PlayerCommand = file.PlayerCommand
	}
	cfg.DefaultSound = file.DefaultSound

	if ms := file.AlarmPollIntervalMS; ms >= 100 && ms <= 60_000 {
		cfg.AlarmPollInterval = time.Duration(ms) * time.Millisecond
	}
	if ms := file.TimerPollIntervalMS; ms >= 1 && ms <= 1_000 {
		cfg.TimerPollInterval = time.Duration(ms) * time.Millisecond
	}
	if ms := file.TickIntervalMS; ms >= 10 && ms <= 10_000 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if s := file.TimerDefaultSeconds; s >= TimerMinSeconds && s <= TimerMaxSeconds && s%TimerStepSeconds == 0 {
		cfg.TimerDefault = time.Duration(s) * time.Second
	}

	if file.SocketPath != "" {
		cfg.SocketPath = file.SocketPath
	}
	cfg.LogFile = file.LogFile
	if level, ok := parseLevel(file.LogLevel); ok {
		cfg.LogLevel = level
	}
	if strings.HasPrefix(file.MimeType, "audio/") {
		cfg.MimeType = file.MimeType
	}
}

func parseLevel(s string) (slog.Level, bool) {
	var level slog.Level
	if s == "" {
		return level, false
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, false
	}
	return level, true
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// DefaultSoundAsset loads the configured default sound, or returns nil to
// use the built-in chime.
func (c Config) DefaultSoundAsset() (*audio.Asset, error) {
	if c.DefaultSound == "" {
		return nil, nil
	}
	asset, err := audio.LoadFile(c.DefaultSound)
	if err != nil {
		return nil, fmt.Errorf("load default sound: %w", err)
	}
	return asset, nil
}
