package questapi

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// NewHTTPClient returns a client whose cookie jar carries the backend session,
// so requests behave like the logged-in browser. cookie is a raw Cookie header
// value such as "session=abc; remember_token=xyz"; empty means anonymous.
func NewHTTPClient(baseURL, cookie string, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	client := &http.Client{Timeout: timeout, Jar: jar}

	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return client, nil
	}
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	cookies, err := http.ParseCookie(cookie)
	if err != nil {
		return nil, fmt.Errorf("parse session cookie: %w", err)
	}
	jar.SetCookies(base, cookies)
	return client, nil
}
