package questapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"quest-ui/internal/logging"
)

// ErrTokenNotFound is returned when a page carries no csrf-token meta tag.
var ErrTokenNotFound = errors.New("csrf token meta tag not found")

// TokenSource yields the current anti-forgery token. It is consulted on every
// request so rotated tokens are picked up without rebuilding the client.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	if f == nil {
		return "", nil
	}
	return f(ctx)
}

// StaticToken is a fixed token, typically passed on the command line.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// TokenFromHTML extracts the content of <meta name="csrf-token"> from a page.
func TokenFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	token, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrTokenNotFound
	}
	return strings.TrimSpace(token), nil
}

// PageTokenSource scrapes the token from a server-rendered page and caches it
// until Refresh is called.
type PageTokenSource struct {
	HTTPClient *http.Client
	PageURL    string

	mu    sync.Mutex
	token string
}

// NewPageTokenSource reads tokens from page, which may be absolute or relative
// to baseURL.
func NewPageTokenSource(client *http.Client, baseURL, page string) (*PageTokenSource, error) {
	ref, err := url.Parse(strings.TrimSpace(page))
	if err != nil {
		return nil, fmt.Errorf("parse token page: %w", err)
	}
	if !ref.IsAbs() {
		base, err := url.Parse(strings.TrimSpace(baseURL))
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("token page %q needs an absolute base url", page)
		}
		ref = base.ResolveReference(ref)
	}
	return &PageTokenSource{HTTPClient: client, PageURL: ref.String()}, nil
}

// Token returns the cached token, fetching the page on first use.
func (p *PageTokenSource) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	cached := p.token
	p.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	if err := p.Refresh(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, nil
}

// Refresh re-reads the page and replaces the cached token.
func (p *PageTokenSource) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.PageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/html")
	client := p.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	token, err := TokenFromHTML(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return nil
}

// Refresher is implemented by token sources that can be re-read on a timer.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshEvery calls r.Refresh on every tick until ctx is done. Failures are
// logged and the previous token stays in use.
func RefreshEvery(ctx context.Context, r Refresher, interval time.Duration, logger logging.Logger) {
	if r == nil || interval <= 0 {
		return
	}
	logger = logging.OrDiscard(logger)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.Refresh(ctx); err != nil && !IsCanceled(err) {
					logger.Printf("refresh csrf token: %v", err)
				}
			}
		}
	}()
}
