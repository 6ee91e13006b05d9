// Package apiproxy forwards the quest REST surface from the dev server to the
// real backend so the browser bundle can call it same-origin.
package apiproxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"quest-ui/internal/logging"
)

// DefaultPrefixes are the path prefixes forwarded to the backend.
var DefaultPrefixes = []string{"/quests/", "/static/"}

const backendUnavailable = "Quest backend unavailable"

// Options configures a Proxy.
type Options struct {
	// Target is the backend base URL, e.g. http://127.0.0.1:5000.
	Target string
	// Prefixes limits which paths are forwarded. Empty means DefaultPrefixes.
	Prefixes []string
	// SessionCookie, when set, is added to every forwarded request.
	SessionCookie string
	Transport     http.RoundTripper
	Metrics       *Metrics
	Logger        logging.Logger
}

// Proxy is an http.Handler that forwards matching requests to the backend.
type Proxy struct {
	target   *url.URL
	prefixes []string
	cookie   string
	logger   logging.Logger
	rp       *httputil.ReverseProxy
}

// New builds a Proxy for opts.Target.
func New(opts Options) (*Proxy, error) {
	raw := strings.TrimSpace(opts.Target)
	if raw == "" {
		return nil, errors.New("proxy target is required")
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", raw)
	}
	prefixes := opts.Prefixes
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	p := &Proxy{
		target:   target,
		prefixes: prefixes,
		cookie:   strings.TrimSpace(opts.SessionCookie),
		logger:   logging.WithPrefix(logging.OrDiscard(opts.Logger), "proxy"),
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		Transport:    opts.Metrics.RoundTripper(opts.Transport),
		ErrorHandler: p.fail,
		ErrorLog:     logging.AsStdLogger(p.logger),
	}
	return p, nil
}

// Matches reports whether path is forwarded.
func (p *Proxy) Matches(path string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ServeHTTP forwards matching requests and answers 404 for the rest.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.Matches(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.SetXForwarded()
	if p.cookie != "" {
		pr.Out.Header.Add("Cookie", p.cookie)
	}
}

func (p *Proxy) fail(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Printf("forward %s %s: %v", r.Method, r.URL.Path, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": backendUnavailable,
	})
}
