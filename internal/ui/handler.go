// Package ui serves the embedded browser bundle for the submission gallery.
package ui

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

//go:embed dist/*
var content embed.FS

const indexFile = "index.html"

// TokenSource yields the backend's current anti-forgery token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Page holds the per-deployment values stamped into index.html. When Tokens
// is set it is asked on every index request and CSRFToken is the fallback.
type Page struct {
	CSRFToken string
	Tokens    TokenSource
	ViewerID  string
	Admin     bool
	Media     MediaSettings
}

// MediaSettings are the upload and reply limits the browser controller
// enforces. Zero values are left unstamped so the controller defaults apply.
type MediaSettings struct {
	MaxImageMB       int
	MaxVideoMB       int
	MaxVideoSeconds  int
	MaxReplies       int
	PlaceholderImage string
}

// Handler serves the embedded UI assets. index.html is served with page
// stamped into its csrf meta tag and the modal's viewer dataset.
func Handler(page Page) http.Handler {
	sub, err := fs.Sub(content, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	index, err := renderIndex(sub, page)
	if err != nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		})
	}
	started := time.Now()
	fsys := http.FS(sub)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean(r.URL.Path)
		if p == "/" || p == "." {
			p = "/" + indexFile
		}
		p = strings.TrimPrefix(p, "/")
		if p == indexFile {
			body := index
			if fresh, ok := freshIndex(r.Context(), sub, page); ok {
				body = fresh
			}
			w.Header().Set("Cache-Control", "no-store")
			http.ServeContent(w, r, indexFile, started, bytes.NewReader(body))
			return
		}
		file, err := fsys.Open(p)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()
		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), file)
	})
}

func freshIndex(ctx context.Context, fsys fs.FS, page Page) ([]byte, bool) {
	if page.Tokens == nil {
		return nil, false
	}
	token, err := page.Tokens.Token(ctx)
	if err != nil || token == "" {
		return nil, false
	}
	page.CSRFToken = token
	out, err := renderIndex(fsys, page)
	return out, err == nil
}

func renderIndex(fsys fs.FS, page Page) ([]byte, error) {
	raw, err := fs.ReadFile(fsys, indexFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", indexFile, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", indexFile, err)
	}
	doc.Find(`meta[name="csrf-token"]`).SetAttr("content", page.CSRFToken)
	modal := doc.Find("#submissionDetailModal")
	modal.SetAttr("data-current-user-id", page.ViewerID)
	modal.SetAttr("data-is-admin", strconv.FormatBool(page.Admin))
	for attr, v := range map[string]int{
		"data-max-image-mb":      page.Media.MaxImageMB,
		"data-max-video-mb":      page.Media.MaxVideoMB,
		"data-max-video-seconds": page.Media.MaxVideoSeconds,
		"data-max-replies":       page.Media.MaxReplies,
	} {
		if v > 0 {
			modal.SetAttr(attr, strconv.Itoa(v))
		}
	}
	if placeholder := strings.TrimSpace(page.Media.PlaceholderImage); placeholder != "" {
		modal.SetAttr("data-placeholder-image", placeholder)
	}
	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", indexFile, err)
	}
	return []byte(out), nil
}
