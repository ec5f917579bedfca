// Package config provides configuration management for FlixVoice
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	User      UserConfig      `mapstructure:"user"`
	Voice     VoiceSettings   `mapstructure:"voice"`
	Location  LocationConfig  `mapstructure:"location"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// UserConfig identifies the user
type UserConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"` // used by personalized responses
}

// LocationConfig configures place search and the fallback position
type LocationConfig struct {
	HomeLat      float64 `mapstructure:"home_lat"`
	HomeLng      float64 `mapstructure:"home_lng"`
	CatalogFile  string  `mapstructure:"catalog_file"` // empty uses the built-in catalog
	SearchRadius float64 `mapstructure:"search_radius"`
}

// CaptureConfig configures speech capture
type CaptureConfig struct {
	RestartDelay   time.Duration `mapstructure:"restart_delay"`
	InterimResults bool          `mapstructure:"interim_results"`
	FilterFillers  bool          `mapstructure:"filter_fillers"`
}

// SpeechConfig configures the local synthesizer
type SpeechConfig struct {
	Engine string `mapstructure:"engine"` // auto, espeak-ng, say
	Rate   int    `mapstructure:"rate"`   // words per minute at speed 1.0
}

// ProcessorConfig configures the command processor
type ProcessorConfig struct {
	NavigationDelay time.Duration `mapstructure:"navigation_delay"`
}

// ServerConfig configures the host bridge server
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	MetricsPath    string   `mapstructure:"metrics_path"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures logging
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"` // empty disables the log file
	Console bool   `mapstructure:"console"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{
			ID: "default-user",
		},
		Voice: DefaultVoiceSettings(),
		Location: LocationConfig{
			HomeLat:      25.2048,
			HomeLng:      55.2708,
			SearchRadius: 2000,
		},
		Capture: CaptureConfig{
			RestartDelay:   250 * time.Millisecond,
			InterimResults: true,
			FilterFillers:  true,
		},
		Speech: SpeechConfig{
			Engine: "auto",
			Rate:   175,
		},
		Processor: ProcessorConfig{
			NavigationDelay: time.Second,
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8765",
			MetricsPath: "/metrics",
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// ConfigDir returns the configuration directory
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flixvoice"
	}
	return filepath.Join(home, ".flixvoice")
}

// ConfigPath returns the default configuration file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads configuration from path, or from the default locations when
// path is empty. Environment variables prefixed with FLIXVOICE_ override
// file values. A missing default config file is created with defaults.
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		cfg, err := decode(v)
		if err != nil {
			return nil, err
		}
		// Best effort: a read-only home still runs on defaults
		_ = cfg.Save(ConfigPath())
		return cfg, nil
	}

	return decode(v)
}

// Save writes the configuration as YAML to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	bind(c, v.Set)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch re-reads the config file at path whenever it changes and passes the
// decoded result to onChange. Decode errors are passed with a nil config.
func Watch(path string, onChange func(*Config, error)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	bind(DefaultConfig(), v.SetDefault)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FLIXVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Voice = cfg.Voice.Normalize()
	if err := cfg.Voice.Validate(); err != nil {
		return nil, fmt.Errorf("invalid voice settings: %w", err)
	}
	return cfg, nil
}

// bind feeds every configuration key to set. It is used both for defaults and
// for writing the file, so the two never drift apart.
func bind(c *Config, set func(key string, value any)) {
	set("user.id", c.User.ID)
	set("user.name", c.User.Name)

	set("voice.enabled", c.Voice.Enabled)
	set("voice.wake_word", string(c.Voice.WakeWord))
	set("voice.custom_wake_word", c.Voice.CustomWakeWord)
	set("voice.language", string(c.Voice.Language))
	set("voice.voice_gender", string(c.Voice.VoiceGender))
	set("voice.speed", c.Voice.Speed)
	set("voice.volume", c.Voice.Volume)
	set("voice.auto_response", c.Voice.AutoResponse)
	set("voice.location_services", c.Voice.LocationServices)
	set("voice.read_notifications", c.Voice.ReadNotifications)
	set("voice.personalized_responses", c.Voice.PersonalizedResponses)
	set("voice.voice_shortcuts", shortcutValues(c.Voice.Shortcuts))

	set("location.home_lat", c.Location.HomeLat)
	set("location.home_lng", c.Location.HomeLng)
	set("location.catalog_file", c.Location.CatalogFile)
	set("location.search_radius", c.Location.SearchRadius)

	set("capture.restart_delay", c.Capture.RestartDelay.String())
	set("capture.interim_results", c.Capture.InterimResults)
	set("capture.filter_fillers", c.Capture.FilterFillers)

	set("speech.engine", c.Speech.Engine)
	set("speech.rate", c.Speech.Rate)

	set("processor.navigation_delay", c.Processor.NavigationDelay.String())

	set("server.addr", c.Server.Addr)
	set("server.metrics_path", c.Server.MetricsPath)
	set("server.allowed_origins", c.Server.AllowedOrigins)

	set("log.level", c.Log.Level)
	set("log.dir", c.Log.Dir)
	set("log.console", c.Log.Console)
}

// shortcutValues renders shortcuts as plain maps so they are written with
// the same keys they are decoded from.
func shortcutValues(in []VoiceShortcut) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, sc := range in {
		out = append(out, map[string]any{"phrase": sc.Phrase, "command": sc.Command})
	}
	return out
}
