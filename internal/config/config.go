// Package config provides configuration management for zenpath.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/xvierd/zenpath/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. ZENPATH_MEDIA_BACKEND.
const EnvPrefix = "ZENPATH"

const (
	BackendFFPlay    = "ffplay"
	BackendSimulated = "simulated"
)

// Config holds all configuration for the zenpath application.
type Config struct {
	Timer    TimerConfig    `mapstructure:"timer"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Media    MediaConfig    `mapstructure:"media"`
	Bell     BellConfig     `mapstructure:"bell"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Log      LogConfig      `mapstructure:"log"`
	Theme    ThemeConfig    `mapstructure:"theme"`
}

// TimerConfig holds countdown settings.
type TimerConfig struct {
	DefaultMode string `mapstructure:"default_mode"`
	ShowQuotes  bool   `mapstructure:"show_quotes"`
}

// PlaybackConfig holds player settings.
type PlaybackConfig struct {
	FallbackDuration        Duration `mapstructure:"fallback_duration"`
	HandoffDelay            Duration `mapstructure:"handoff_delay"`
	CancelHandoffOnNavigate bool     `mapstructure:"cancel_handoff_on_navigate"`
	PlayTimeout             Duration `mapstructure:"play_timeout"`
}

// MediaConfig selects and configures the media backend.
type MediaConfig struct {
	Backend          string   `mapstructure:"backend"`
	FFPlayPath       string   `mapstructure:"ffplay_path"`
	FFProbePath      string   `mapstructure:"ffprobe_path"`
	PositionInterval Duration `mapstructure:"position_interval"`
	AssetDir         string   `mapstructure:"asset_dir"`
}

// BellConfig holds bell settings.
type BellConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Asset         string   `mapstructure:"asset"`
	ToneFrequency float64  `mapstructure:"tone_frequency"`
	ToneDuration  Duration `mapstructure:"tone_duration"`
	Desktop       bool     `mapstructure:"desktop"`
}

// CatalogConfig holds the track catalog location. An empty path selects the
// built-in catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ThemeConfig holds theme customization settings.
type ThemeConfig struct {
	Mode             string   `mapstructure:"mode"`
	ColorAccent      string   `mapstructure:"color_accent"`
	ColorExpiring    string   `mapstructure:"color_expiring"`
	ColorOvertime    string   `mapstructure:"color_overtime"`
	ColorWarning     string   `mapstructure:"color_warning"`
	ColorTitle       string   `mapstructure:"color_title"`
	ColorPaused      string   `mapstructure:"color_paused"`
	ColorHelp        string   `mapstructure:"color_help"`
	BackgroundColors []string `mapstructure:"background_colors"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		Mode:             "dark",
		ColorAccent:      "#C9A86A",
		ColorExpiring:    "#E05D5D",
		ColorOvertime:    "#F0A202",
		ColorWarning:     "#E05D5D",
		ColorTitle:       "#E8E1D3",
		ColorPaused:      "#6B7280",
		ColorHelp:        "#95A5A6",
		BackgroundColors: []string{"#4E6E58", "#7C6A9E", "#A0705A"},
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timer: TimerConfig{
			DefaultMode: string(domain.SharingSupplement),
			ShowQuotes:  true,
		},
		Playback: PlaybackConfig{
			FallbackDuration:        Duration(domain.FallbackDurationSeconds * time.Second),
			HandoffDelay:            Duration(600 * time.Millisecond),
			CancelHandoffOnNavigate: true,
			PlayTimeout:             Duration(5 * time.Second),
		},
		Media: MediaConfig{
			Backend:          BackendFFPlay,
			FFPlayPath:       "ffplay",
			FFProbePath:      "ffprobe",
			PositionInterval: Duration(250 * time.Millisecond),
			AssetDir:         "~/.zenpath/audio",
		},
		Bell: BellConfig{
			Enabled:       true,
			Asset:         "bell.mp3",
			ToneFrequency: 880,
			ToneDuration:  Duration(400 * time.Millisecond),
			Desktop:       false,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "~/.zenpath/zenpath.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Validate checks values that the rest of the application relies on.
func (c *Config) Validate() error {
	if _, err := domain.ParseSharingMode(c.Timer.DefaultMode); err != nil {
		return fmt.Errorf("timer.default_mode: %w", err)
	}
	switch c.Media.Backend {
	case BackendFFPlay, BackendSimulated:
	default:
		return fmt.Errorf("media.backend %q: must be one of %s, %s", c.Media.Backend, BackendFFPlay, BackendSimulated)
	}
	if c.Playback.HandoffDelay < 0 {
		return errors.New("playback.handoff_delay must not be negative")
	}
	if c.Playback.FallbackDuration < Duration(time.Second) {
		return errors.New("playback.fallback_duration must be at least 1s")
	}
	if c.Media.PositionInterval <= 0 {
		return errors.New("media.position_interval must be positive")
	}
	switch c.Theme.Mode {
	case "dark", "light":
	default:
		return fmt.Errorf("theme.mode %q: must be dark or light", c.Theme.Mode)
	}
	return nil
}

// DefaultMode returns the configured starting sharing mode.
func (c *Config) DefaultMode() domain.SharingMode {
	m, err := domain.ParseSharingMode(c.Timer.DefaultMode)
	if err != nil {
		return domain.SharingSupplement
	}
	return m
}

// Load loads the configuration from the default config file, creating it
// with defaults when missing.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath. A .env file in the
// working directory or next to the config file is applied first, and
// ZENPATH_* environment variables override file values.
func LoadFrom(configPath string) (*Config, error) {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := loadDotEnv(".env", filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// decode unmarshals v, parsing Duration fields through their text form.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv applies the first .env files found. Existing environment
// variables win.
func loadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)
	return v
}

func (c *Config) expandPaths() error {
	var err error
	if c.Media.AssetDir, err = ExpandHome(c.Media.AssetDir); err != nil {
		return err
	}
	if c.Log.File, err = ExpandHome(c.Log.File); err != nil {
		return err
	}
	if c.Catalog.Path, err = ExpandHome(c.Catalog.Path); err != nil {
		return err
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo saves the configuration to configPath.
func SaveTo(configPath string, cfg *Config) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	for key, value := range settings(cfg) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Set changes one key in the config file at configPath. Environment
// overrides are not persisted, and the result must still be a valid
// configuration.
func Set(configPath, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := settings(DefaultConfig())[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}

	v := newViper(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	v.Set(key, value)

	updated, err := decode(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return SaveTo(configPath, updated)
}

// Keys returns every config key in sorted order.
func Keys() []string {
	s := settings(DefaultConfig())
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Settings returns the flattened key/value view of cfg, durations as text.
func Settings(cfg *Config) map[string]any {
	return settings(cfg)
}

func settings(cfg *Config) map[string]any {
	return map[string]any{
		"timer.default_mode":                  cfg.Timer.DefaultMode,
		"timer.show_quotes":                   cfg.Timer.ShowQuotes,
		"playback.fallback_duration":          cfg.Playback.FallbackDuration.String(),
		"playback.handoff_delay":              cfg.Playback.HandoffDelay.String(),
		"playback.cancel_handoff_on_navigate": cfg.Playback.CancelHandoffOnNavigate,
		"playback.play_timeout":               cfg.Playback.PlayTimeout.String(),
		"media.backend":                       cfg.Media.Backend,
		"media.ffplay_path":                   cfg.Media.FFPlayPath,
		"media.ffprobe_path":                  cfg.Media.FFProbePath,
		"media.position_interval":             cfg.Media.PositionInterval.String(),
		"media.asset_dir":                     cfg.Media.AssetDir,
		"bell.enabled":                        cfg.Bell.Enabled,
		"bell.asset":                          cfg.Bell.Asset,
		"bell.tone_frequency":                 cfg.Bell.ToneFrequency,
		"bell.tone_duration":                  cfg.Bell.ToneDuration.String(),
		"bell.desktop":                        cfg.Bell.Desktop,
		"catalog.path":                        cfg.Catalog.Path,
		"log.level":                           cfg.Log.Level,
		"log.file":                            cfg.Log.File,
		"log.max_size_mb":                     cfg.Log.MaxSizeMB,
		"log.max_backups":                     cfg.Log.MaxBackups,
		"log.max_age_days":                    cfg.Log.MaxAgeDays,
		"log.compress":                        cfg.Log.Compress,
		"theme.mode":                          cfg.Theme.Mode,
		"theme.color_accent":                  cfg.Theme.ColorAccent,
		"theme.color_expiring":                cfg.Theme.ColorExpiring,
		"theme.color_overtime":                cfg.Theme.ColorOvertime,
		"theme.color_warning":                 cfg.Theme.ColorWarning,
		"theme.color_title":                   cfg.Theme.ColorTitle,
		"theme.color_paused":                  cfg.Theme.ColorPaused,
		"theme.color_help":                    cfg.Theme.ColorHelp,
		"theme.background_colors":             cfg.Theme.BackgroundColors,
	}
}

// GetDataDir returns the directory holding the config and log files.
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".zenpath"), nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config.toml"), nil
}

// setDefaults sets default values for viper. Every key needs a default so
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	for key, value := range settings(DefaultConfig()) {
		v.SetDefault(key, value)
	}
}
