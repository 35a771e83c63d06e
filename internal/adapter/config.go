package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EngineType identifies the adaptive playback engine
type EngineType string

const (
	EngineMPV  EngineType = "mpv"  // mpv controlled over its JSON IPC socket
	EngineExec EngineType = "exec" // fire-and-forget external player
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Player  PlayerConfig  `mapstructure:"player"`
	Cast    CastConfig    `mapstructure:"cast"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

// ServerConfig holds catalog API configuration
type ServerConfig struct {
	APIBase           string        `mapstructure:"api_base"`            // Must end with "/" (normalised on load)
	Timeout           time.Duration `mapstructure:"timeout"`             // Per-request timeout
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 disables client pacing
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command        string     `mapstructure:"command"` // Direct files; empty = auto-detect
	Args           []string   `mapstructure:"args"`
	AdaptiveEngine EngineType `mapstructure:"adaptive_engine"` // "mpv" or "exec"
	MPVCommand     string     `mapstructure:"mpv_command"`
}

// CastConfig holds cast discovery configuration
type CastConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`   // Adaptive adapter waits this long for cast devices
	PollInterval  time.Duration `mapstructure:"poll_interval"`  // Polling interval during that wait
	BrowseTimeout time.Duration `mapstructure:"browse_timeout"` // mDNS browse window, 0 = until shutdown
}

// UIConfig holds UI configuration
type UIConfig struct {
	RestoreLocation bool `mapstructure:"restore_location"` // Reopen the last visited folder
	HistorySize     int  `mapstructure:"history_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// CacheConfig holds local persistence configuration
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty = memory only
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			APIBase: "",
			Timeout: 30 * time.Second,
		},
		Player: PlayerConfig{
			Command:        "",
			Args:           []string{},
			AdaptiveEngine: EngineMPV,
			MPVCommand:     "mpv",
		},
		Cast: CastConfig{
			Enabled:      true,
			WaitTimeout:  1500 * time.Millisecond,
			PollInterval: 100 * time.Millisecond,
		},
		UI: UIConfig{
			RestoreLocation: true,
			HistorySize:     50,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vidcat", "vidcat.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vidcat", "vidcat.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vidcat")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vidcat")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vidcat", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vidcat", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.New(), defaultConfigPath(), ".")
}

// LoadConfigFrom loads configuration using v, searching the given directories
func LoadConfigFrom(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides (VIDCAT_SERVER_API_BASE etc.)
	v.SetEnvPrefix("VIDCAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindEnvKeys registers keys so AutomaticEnv applies to Unmarshal
// even when no config file sets them.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.api_base", "server.timeout", "server.requests_per_second",
		"player.command", "player.adaptive_engine", "player.mpv_command",
		"cast.enabled", "cast.wait_timeout", "cast.poll_interval", "cast.browse_timeout",
		"ui.restore_location", "ui.history_size",
		"logging.file", "logging.level",
		"cache.dir",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks and normalises loaded values
func (c *Config) Validate() error {
	c.Server.APIBase = strings.TrimSpace(c.Server.APIBase)
	if c.Server.APIBase != "" && !strings.HasSuffix(c.Server.APIBase, "/") {
		c.Server.APIBase += "/"
	}

	switch c.Player.AdaptiveEngine {
	case EngineMPV, EngineExec:
	case "":
		c.Player.AdaptiveEngine = EngineMPV
	default:
		return fmt.Errorf("unknown adaptive engine: %s", c.Player.AdaptiveEngine)
	}

	if c.Cast.WaitTimeout < 0 {
		return fmt.Errorf("cast.wait_timeout must not be negative")
	}
	if c.Cast.PollInterval <= 0 {
		c.Cast.PollInterval = 100 * time.Millisecond
	}
	if c.UI.HistorySize <= 0 {
		c.UI.HistorySize = 50
	}

	return nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return writeConfig(cfg, filepath.Join(configPath, "config.yaml"))
}

// writeConfig writes cfg as YAML to file
func writeConfig(cfg *Config, file string) error {
	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.api_base", cfg.Server.APIBase)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.requests_per_second", cfg.Server.RequestsPerSecond)

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)
	v.Set("player.adaptive_engine", string(cfg.Player.AdaptiveEngine))
	v.Set("player.mpv_command", cfg.Player.MPVCommand)

	v.Set("cast.enabled", cfg.Cast.Enabled)
	v.Set("cast.wait_timeout", cfg.Cast.WaitTimeout.String())
	v.Set("cast.poll_interval", cfg.Cast.PollInterval.String())
	v.Set("cast.browse_timeout", cfg.Cast.BrowseTimeout.String())

	v.Set("ui.restore_location", cfg.UI.RestoreLocation)
	v.Set("ui.history_size", cfg.UI.HistorySize)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	v.Set("cache.dir", cfg.Cache.Dir)

	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if a catalog API base is set
func (c *Config) IsConfigured() bool {
	return c.Server.APIBase != ""
}

// ClearCache removes all cached data
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
