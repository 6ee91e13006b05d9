// Package questapi is a typed client for the quest backend's submission endpoints.
package questapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"quest-ui/internal/logging"
)

const (
	// CSRFHeader is the header the backend reads the anti-forgery token from.
	CSRFHeader = "X-CSRFToken"
	// RequestIDHeader tags each call so server logs can be correlated.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
	defaultTimeout   = 10 * time.Second
)

// Client issues requests against the quest REST API. The zero value talks to
// relative paths with a default http.Client, which is what the browser build
// wants.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	Tokens     TokenSource
	Logger     logging.Logger
}

// SubmissionState fetches the authoritative like count and liked flag.
func (c *Client) SubmissionState(ctx context.Context, submissionID string) (SubmissionState, error) {
	var payload stateResponse
	status, err := c.do(ctx, http.MethodGet, "/quests/submissions/"+escape(submissionID), nil, "", &payload)
	if err != nil {
		return SubmissionState{}, err
	}
	if err := checkStatus(status, payload.Message); err != nil {
		return SubmissionState{}, err
	}
	return payload.SubmissionState, nil
}

// Replies lists the replies for a submission in server order.
func (c *Client) Replies(ctx context.Context, submissionID string) ([]Reply, error) {
	var payload repliesResponse
	status, err := c.do(ctx, http.MethodGet, submissionPath(submissionID, "replies"), nil, "", &payload)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(status, payload.Message); err != nil {
		return nil, err
	}
	if payload.Replies == nil {
		return []Reply{}, nil
	}
	return payload.Replies, nil
}

// Like marks the submission as liked by the current user.
func (c *Client) Like(ctx context.Context, submissionID string) (LikeResult, error) {
	return c.like(ctx, http.MethodPost, submissionID)
}

// Unlike removes the current user's like.
func (c *Client) Unlike(ctx context.Context, submissionID string) (LikeResult, error) {
	return c.like(ctx, http.MethodDelete, submissionID)
}

func (c *Client) like(ctx context.Context, method, submissionID string) (LikeResult, error) {
	var payload likeResponse
	status, err := c.do(ctx, method, submissionPath(submissionID, "like"), nil, "", &payload)
	if err != nil {
		return LikeResult{}, err
	}
	if err := checkEnvelope(status, payload.envelope); err != nil {
		return LikeResult{}, err
	}
	return payload.LikeResult, nil
}

// UpdateComment replaces the submission comment and returns the stored text.
func (c *Client) UpdateComment(ctx context.Context, submissionID, comment string) (CommentResult, error) {
	body, err := json.Marshal(map[string]string{"comment": comment})
	if err != nil {
		return CommentResult{}, fmt.Errorf("encode comment: %w", err)
	}
	var payload commentResponse
	status, err := c.do(ctx, http.MethodPut, submissionPath(submissionID, "comment"), bytes.NewReader(body), "application/json", &payload)
	if err != nil {
		return CommentResult{}, err
	}
	if err := checkEnvelope(status, payload.envelope); err != nil {
		return CommentResult{}, err
	}
	return payload.CommentResult, nil
}

// UpdateMedia replaces the submission image or video with a multipart upload.
func (c *Client) UpdateMedia(ctx context.Context, submissionID string, upload Upload) (MediaResult, error) {
	field := strings.TrimSpace(upload.Field)
	if field == "" {
		return MediaResult{}, fmt.Errorf("upload field is required")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.FileName))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return MediaResult{}, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(upload.Body); err != nil {
		return MediaResult{}, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return MediaResult{}, fmt.Errorf("close form: %w", err)
	}

	var payload mediaResponse
	status, err := c.do(ctx, http.MethodPut, submissionPath(submissionID, "photo"), &buf, mw.FormDataContentType(), &payload)
	if err != nil {
		return MediaResult{}, err
	}
	if err := checkEnvelope(status, payload.envelope); err != nil {
		return MediaResult{}, err
	}
	return payload.MediaResult, nil
}

// DeleteSubmission removes the submission.
func (c *Client) DeleteSubmission(ctx context.Context, submissionID string) error {
	var payload envelope
	status, err := c.do(ctx, http.MethodDelete, "/quests/quest/delete_submission/"+escape(submissionID), nil, "", &payload)
	if err != nil {
		return err
	}
	return checkEnvelope(status, payload)
}

// do performs the request and decodes the body into out. A body that is not
// valid JSON leaves out untouched instead of failing the call; callers then
// see the zero value and decide from the status code.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Tokens != nil {
		token, err := c.Tokens.Token(ctx)
		if err != nil {
			c.logger().Printf("csrf token unavailable for %s %s: %v", method, path, err)
		} else if token != "" {
			req.Header.Set(CSRFHeader, token)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			c.logger().Printf("decode %s %s response (status %d): %v", method, path, resp.StatusCode, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	return base + path
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) logger() logging.Logger {
	return logging.OrDiscard(c.Logger)
}

func submissionPath(submissionID, action string) string {
	return "/quests/submission/" + escape(submissionID) + "/" + action
}

func escape(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}
