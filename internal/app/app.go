// Package app wires the quest UI dev server: the embedded gallery bundle, the
// backend proxy, metrics and request logging.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"quest-ui/config"
	"quest-ui/internal/apiproxy"
	"quest-ui/internal/httpserver"
	"quest-ui/internal/logging"
	"quest-ui/internal/questapi"
	"quest-ui/internal/ui"
)

const (
	defaultLogDir       = "data"
	defaultLogFileName  = "questui.log"
	defaultReadTimeout  = 10 * time.Second
	defaultTokenRefresh = 15 * time.Minute
	shutdownGrace       = 5 * time.Second
)

// Options controls how the application boots and where it loads configuration from.
type Options struct {
	// ConfigPath is the JSON config file. Empty runs on defaults plus env.
	ConfigPath   string
	EnvFiles     []string
	LogDir       string
	LogFile      string
	ReadTimeout  time.Duration
	TokenRefresh time.Duration
}

// Run wires dependencies together and blocks until the provided context is cancelled
// or the HTTP server exits with an error.
func Run(ctx context.Context, opts Options) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	opts = opts.withDefaults()

	logFilePath := filepath.Join(opts.LogDir, opts.LogFile)
	logFile, err := configureLogging(logFilePath)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logFile.Close()

	appCfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.New()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler, err := buildHandler(runCtx, appCfg, opts, logger)
	if err != nil {
		return err
	}

	srv, err := httpserver.New(httpserver.Config{
		Addr:        appCfg.Server.Addr,
		Port:        appCfg.Server.Port,
		ReadTimeout: opts.ReadTimeout,
		Logger:      logger,
		Handler:     handler,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	logger.Printf("Proxying %s to %s", strings.Join(apiproxy.DefaultPrefixes, ", "), appCfg.API.BaseURL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("Shutting down...")
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownGrace)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown: %v", err)
			_ = srv.Close()
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (o Options) withDefaults() Options {
	if o.LogDir == "" {
		o.LogDir = defaultLogDir
	}
	if o.LogFile == "" {
		o.LogFile = defaultLogFileName
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.TokenRefresh <= 0 {
		o.TokenRefresh = defaultTokenRefresh
	}
	return o
}

func loadConfig(opts Options) (config.Config, error) {
	cfg := config.Default()
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	return config.LoadEnv(cfg, opts.EnvFiles...)
}

// buildHandler assembles the dev server routes. The token refresher, when a
// token page is configured, runs until ctx is cancelled.
func buildHandler(ctx context.Context, cfg config.Config, opts Options, logger logging.Logger) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	proxy, err := apiproxy.New(apiproxy.Options{
		Target:        cfg.API.BaseURL,
		SessionCookie: cfg.API.SessionCookie,
		Metrics:       apiproxy.NewMetrics(reg),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build proxy: %w", err)
	}

	page := ui.Page{
		CSRFToken: cfg.API.CSRFToken,
		ViewerID:  cfg.Viewer.UserID,
		Admin:     cfg.Viewer.Admin,
		Media: ui.MediaSettings{
			MaxImageMB:       cfg.Media.MaxImageMB,
			MaxVideoMB:       cfg.Media.MaxVideoMB,
			MaxVideoSeconds:  cfg.Media.MaxVideoSeconds,
			MaxReplies:       cfg.Media.MaxReplies,
			PlaceholderImage: cfg.Media.PlaceholderImage,
		},
	}
	if tokenPage := strings.TrimSpace(cfg.API.TokenPage); tokenPage != "" {
		client, err := questapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.SessionCookie, cfg.API.Timeout())
		if err != nil {
			return nil, fmt.Errorf("build token client: %w", err)
		}
		src, err := questapi.NewPageTokenSource(client, cfg.API.BaseURL, tokenPage)
		if err != nil {
			return nil, err
		}
		questapi.RefreshEvery(ctx, src, opts.TokenRefresh, logger)
		page.Tokens = src
	}

	mux := http.NewServeMux()
	for _, prefix := range apiproxy.DefaultPrefixes {
		mux.Handle(prefix, proxy)
	}
	mux.Handle("/metrics", apiproxy.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("/", ui.Handler(page))
	return logging.WithHTTPLogging(mux, logger), nil
}
