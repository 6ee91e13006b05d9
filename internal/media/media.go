// Package media validates submission uploads before they leave the client.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const megabyte = 1 << 20

var (
	// ErrNoFile is returned when no file was selected.
	ErrNoFile = errors.New("no file selected")
	// ErrImageTooLarge is returned for images above Limits.MaxImageBytes.
	ErrImageTooLarge = errors.New("image exceeds size limit")
	// ErrVideoTooLarge is returned for videos above Limits.MaxVideoBytes.
	ErrVideoTooLarge = errors.New("video exceeds size limit")
	// ErrVideoTooLong is returned for videos above Limits.MaxVideoDuration.
	ErrVideoTooLong = errors.New("video exceeds duration limit")
	// ErrMetadataUnreadable is returned when the duration probe fails.
	ErrMetadataUnreadable = errors.New("unable to read video metadata")
)

// Limits bounds what may be uploaded.
type Limits struct {
	MaxImageBytes    int64
	MaxVideoBytes    int64
	MaxVideoDuration time.Duration
}

// DefaultLimits returns 8 MB images, 25 MB videos, 10 second videos.
func DefaultLimits() Limits {
	return Limits{
		MaxImageBytes:    8 * megabyte,
		MaxVideoBytes:    25 * megabyte,
		MaxVideoDuration: 10 * time.Second,
	}
}

// LimitsFrom builds Limits from megabyte and second counts, falling back to
// the defaults for non-positive values.
func LimitsFrom(imageMB, videoMB, videoSeconds int) Limits {
	limits := DefaultLimits()
	if imageMB > 0 {
		limits.MaxImageBytes = int64(imageMB) * megabyte
	}
	if videoMB > 0 {
		limits.MaxVideoBytes = int64(videoMB) * megabyte
	}
	if videoSeconds > 0 {
		limits.MaxVideoDuration = time.Duration(videoSeconds) * time.Second
	}
	return limits
}

// File is a candidate upload. Handle is opaque to this package and is passed
// back to the Prober; the browser build stores a js.Value there.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Handle      any
}

// IsVideo reports whether the file is a video by MIME type.
func (f File) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.ContentType)), "video/")
}

// FieldName is the multipart field the backend expects for this file.
func (f File) FieldName() string {
	if f.IsVideo() {
		return "video"
	}
	return "photo"
}

// Prober reads a video's duration.
type Prober interface {
	Duration(ctx context.Context, file File) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, file File) (time.Duration, error)

// Duration implements Prober.
func (f ProberFunc) Duration(ctx context.Context, file File) (time.Duration, error) {
	return f(ctx, file)
}

// Validate checks file against limits. Size is checked before the duration so
// oversized videos are rejected without probing. A nil prober, or one that
// fails, yields ErrMetadataUnreadable for videos.
func Validate(ctx context.Context, file File, limits Limits, prober Prober) error {
	if strings.TrimSpace(file.Name) == "" && file.Size == 0 {
		return ErrNoFile
	}
	if !file.IsVideo() {
		if limits.MaxImageBytes > 0 && file.Size > limits.MaxImageBytes {
			return ErrImageTooLarge
		}
		return nil
	}
	if limits.MaxVideoBytes > 0 && file.Size > limits.MaxVideoBytes {
		return ErrVideoTooLarge
	}
	if limits.MaxVideoDuration <= 0 {
		return nil
	}
	if prober == nil {
		return ErrMetadataUnreadable
	}
	duration, err := prober.Duration(ctx, file)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMetadataUnreadable, err)
	}
	if duration > limits.MaxVideoDuration {
		return ErrVideoTooLong
	}
	return nil
}

// Message returns the user-facing text for a validation error, quoting the
// limits that were applied. Other errors report their own text.
func Message(err error, limits Limits) string {
	defaults := DefaultLimits()
	if limits.MaxImageBytes <= 0 {
		limits.MaxImageBytes = defaults.MaxImageBytes
	}
	if limits.MaxVideoBytes <= 0 {
		limits.MaxVideoBytes = defaults.MaxVideoBytes
	}
	if limits.MaxVideoDuration <= 0 {
		limits.MaxVideoDuration = defaults.MaxVideoDuration
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFile):
		return "Please choose a photo or video first"
	case errors.Is(err, ErrImageTooLarge):
		return fmt.Sprintf("Image must be %s or smaller", megabytes(limits.MaxImageBytes))
	case errors.Is(err, ErrVideoTooLarge):
		return fmt.Sprintf("Video must be %s or smaller", megabytes(limits.MaxVideoBytes))
	case errors.Is(err, ErrVideoTooLong):
		return fmt.Sprintf("Video must be %s or shorter", seconds(limits.MaxVideoDuration))
	case errors.Is(err, ErrMetadataUnreadable):
		return "Unable to read video metadata"
	default:
		return err.Error()
	}
}

func megabytes(n int64) string {
	if n%megabyte == 0 {
		return fmt.Sprintf("%d MB", n/megabyte)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/megabyte)
}

func seconds(d time.Duration) string {
	if d == time.Second {
		return "1 second"
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int64(d/time.Second))
	}
	return fmt.Sprintf("%.1f seconds", d.Seconds())
}
