package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	defaultAddr             = "127.0.0.1"
	defaultPort             = ":8890"
	defaultAPIBaseURL       = "http://127.0.0.1:5000"
	defaultPlaceholderImage = "/static/images/placeholder.png"
	defaultTimeoutSeconds   = 10
	defaultMaxImageMB       = 8
	defaultMaxVideoMB       = 25
	defaultMaxVideoSeconds  = 10
	defaultMaxReplies       = 10
)

// ServerConfig configures the HTTP listener used by the dev server.
type ServerConfig struct {
	Addr string `json:"addr"`
	Port string `json:"port"`
}

// APIConfig points the UI at the quest backend.
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	CSRFToken      string `json:"csrf_token"`
	TokenPage      string `json:"token_page"`
	SessionCookie  string `json:"session_cookie"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MediaConfig carries the client-side upload limits and display fallbacks.
type MediaConfig struct {
	MaxImageMB       int    `json:"max_image_mb"`
	MaxVideoMB       int    `json:"max_video_mb"`
	MaxVideoSeconds  int    `json:"max_video_seconds"`
	MaxReplies       int    `json:"max_replies"`
	PlaceholderImage string `json:"placeholder_image"`
}

// ViewerConfig is the identity the dev server stamps onto the page so the
// detail modal can decide ownership without a login flow.
type ViewerConfig struct {
	UserID string `json:"user_id"`
	Admin  bool   `json:"admin"`
}

// Config represents the combined runtime settings parsed from config.json.
type Config struct {
	Server ServerConfig `json:"server"`
	API    APIConfig    `json:"api"`
	Media  MediaConfig  `json:"media"`
	Viewer ViewerConfig `json:"viewer"`
}

// Default returns a Config populated only with defaults.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads the JSON config at the given path and fills in defaults for
// anything left blank.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// MustLoad is Load for callers that cannot continue without configuration.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.Port == "" {
		c.Server.Port = defaultPort
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Media.MaxImageMB <= 0 {
		c.Media.MaxImageMB = defaultMaxImageMB
	}
	if c.Media.MaxVideoMB <= 0 {
		c.Media.MaxVideoMB = defaultMaxVideoMB
	}
	if c.Media.MaxVideoSeconds <= 0 {
		c.Media.MaxVideoSeconds = defaultMaxVideoSeconds
	}
	if c.Media.MaxReplies <= 0 {
		c.Media.MaxReplies = defaultMaxReplies
	}
	if c.Media.PlaceholderImage == "" {
		c.Media.PlaceholderImage = defaultPlaceholderImage
	}
}
