package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file
const (
	EnvAPIBaseURL = "AIMED_API_BASE_URL"
	EnvWSBaseURL  = "AIMED_WS_BASE_URL"
	EnvLogLevel   = "AIMED_LOG_LEVEL"
	EnvDBPath     = "AIMED_DB_PATH"
)

// Config represents the application configuration
type Config struct {
	API   APIConfig   `json:"api"`
	UI    UIConfig    `json:"ui"`
	Data  DataConfig  `json:"data"`
	Audio AudioConfig `json:"audio"`
	Log   LogConfig   `json:"log"`
}

// APIConfig points the client at the backend
type APIConfig struct {
	BaseURL   string `json:"base_url"`
	WSBaseURL string `json:"ws_base_url,omitempty"` // derived from BaseURL when empty
}

// UIConfig represents UI configuration
type UIConfig struct {
	Theme          string `json:"theme"`
	FontSize       int    `json:"font_size"`
	WindowWidth    int    `json:"window_width"`
	WindowHeight   int    `json:"window_height"`
	MinimizeToTray bool   `json:"minimize_to_tray"`
}

// DataConfig represents data storage configuration
type DataConfig struct {
	DBPath string `json:"db_path"`
}

// AudioConfig configures microphone capture and playback
type AudioConfig struct {
	FFmpegPath      string `json:"ffmpeg_path,omitempty"`
	FFplayPath      string `json:"ffplay_path,omitempty"`
	InputFormat     string `json:"input_format,omitempty"` // e.g. pulse, avfoundation, dshow
	InputDevice     string `json:"input_device,omitempty"`
	ChunkIntervalMS int    `json:"chunk_interval_ms"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `json:"level"`
}

// ChunkInterval returns the capture cadence, one second unless configured
func (c AudioConfig) ChunkInterval() time.Duration {
	if c.ChunkIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.ChunkIntervalMS) * time.Millisecond
}

// WebSocketBaseURL returns the configured socket base, or the API base with
// its scheme swapped to ws/wss.
func (c APIConfig) WebSocketBaseURL() string {
	if ws := strings.TrimRight(strings.TrimSpace(c.WSBaseURL), "/"); ws != "" {
		return ws
	}
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// LoadConfig loads configuration from file and applies environment overrides
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	config.ApplyEnv(os.Getenv)

	// Expand paths
	if config.Data.DBPath != "" {
		config.Data.DBPath = expandPath(config.Data.DBPath)
	}

	if config.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required (set it in the config file or " + EnvAPIBaseURL + ")")
	}

	return &config, nil
}

// LoadDotEnv loads variables from the given .env files; missing files are fine
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with non-empty environment variables
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if v := strings.TrimSpace(getenv(EnvAPIBaseURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvWSBaseURL)); v != "" {
		c.API.WSBaseURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(getenv(EnvDBPath)); v != "" {
		c.Data.DBPath = v
	}
}

// SaveConfig saves configuration to file
func SaveConfig(configPath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ and relative paths
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	// Expand ~
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	// Make absolute
	absPath, err := filepath.Abs(path)
	if err == nil {
		return absPath
	}

	return path
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to current directory
		return "./config/default.json"
	}

	return filepath.Join(configDir, "aimed", "config.json")
}

// DefaultConfig returns the configuration written on first run
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		UI: UIConfig{
			Theme:        "light",
			FontSize:     14,
			WindowWidth:  1100,
			WindowHeight: 760,
		},
		Data: DataConfig{
			DBPath: "./data/profile.db",
		},
		Audio: AudioConfig{
			ChunkIntervalMS: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// EnsureDefaultConfig creates a default config file if it doesn't exist
func EnsureDefaultConfig() (string, error) {
	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := SaveConfig(configPath, DefaultConfig()); err != nil {
		return "", err
	}

	return configPath, nil
}
