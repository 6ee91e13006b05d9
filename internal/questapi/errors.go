package questapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when the backend answers with a non-2xx status or an
// explicit `success: false` body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("quest api: unexpected status %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("quest api: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the server-provided message carried by err, or fallback
// when there is none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

// IsCanceled reports whether err comes from a request whose context was
// cancelled because it was superseded.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func checkEnvelope(status int, env envelope) error {
	if status >= 200 && status < 300 && env.Success {
		return nil
	}
	return &APIError{Status: status, Message: strings.TrimSpace(env.Message)}
}

func checkStatus(status int, message string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &APIError{Status: status, Message: strings.TrimSpace(message)}
}
