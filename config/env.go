package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. QUESTUI_API_BASE_URL.
const EnvPrefix = "QUESTUI"

// envOverrides lists the settings that may come from the environment. Fields
// whose variable is unset keep the value already loaded.
type envOverrides struct {
	Addr           string `envconfig:"ADDR"`
	Port           string `envconfig:"PORT"`
	APIBaseURL     string `envconfig:"API_BASE_URL"`
	CSRFToken      string `envconfig:"CSRF_TOKEN"`
	TokenPage      string `envconfig:"TOKEN_PAGE"`
	SessionCookie  string `envconfig:"SESSION_COOKIE"`
	TimeoutSeconds int    `envconfig:"API_TIMEOUT_SECONDS"`
	ViewerID       string `envconfig:"VIEWER_ID"`
	ViewerAdmin    bool   `envconfig:"VIEWER_ADMIN"`
}

// LoadEnv loads the given .env files (missing files are skipped) and applies
// QUESTUI_* overrides on top of cfg. Variables already present in the process
// environment win over values from the files.
func LoadEnv(cfg Config, files ...string) (Config, error) {
	for _, file := range files {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return cfg, fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	env := envOverrides{
		Addr:           cfg.Server.Addr,
		Port:           cfg.Server.Port,
		APIBaseURL:     cfg.API.BaseURL,
		CSRFToken:      cfg.API.CSRFToken,
		TokenPage:      cfg.API.TokenPage,
		SessionCookie:  cfg.API.SessionCookie,
		TimeoutSeconds: cfg.API.TimeoutSeconds,
		ViewerID:       cfg.Viewer.UserID,
		ViewerAdmin:    cfg.Viewer.Admin,
	}
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return cfg, fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}

	cfg.Server.Addr = strings.TrimSpace(env.Addr)
	cfg.Server.Port = strings.TrimSpace(env.Port)
	cfg.API.BaseURL = strings.TrimSpace(env.APIBaseURL)
	cfg.API.CSRFToken = strings.TrimSpace(env.CSRFToken)
	cfg.API.TokenPage = strings.TrimSpace(env.TokenPage)
	cfg.API.SessionCookie = strings.TrimSpace(env.SessionCookie)
	cfg.API.TimeoutSeconds = env.TimeoutSeconds
	cfg.Viewer.UserID = strings.TrimSpace(env.ViewerID)
	cfg.Viewer.Admin = env.ViewerAdmin
	cfg.applyDefaults()
	return cfg, nil
}
