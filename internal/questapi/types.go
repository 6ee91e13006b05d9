package questapi

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID is an opaque identifier that the backend may encode as a JSON string or number.
type ID string

// UnmarshalJSON accepts both `"12"` and `12`.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// SubmissionState is the authoritative like state for a submission.
type SubmissionState struct {
	LikeCount          int  `json:"like_count"`
	LikedByCurrentUser bool `json:"liked_by_current_user"`
}

// Reply is a single entry in a submission's reply thread.
type Reply struct {
	ID          ID     `json:"id"`
	UserID      ID     `json:"user_id"`
	UserDisplay string `json:"user_display"`
	Content     string `json:"content"`
}

// LikeResult is returned by Like and Unlike.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// CommentResult carries the comment text as stored by the server.
type CommentResult struct {
	Comment string `json:"comment"`
}

// MediaResult carries the replacement media URL; exactly one of the fields is
// normally populated.
type MediaResult struct {
	ImageURL string `json:"image_url"`
	VideoURL string `json:"video_url"`
}

// Upload describes a file sent to the submission photo endpoint.
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Body        []byte
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type likeResponse struct {
	envelope
	LikeResult
}

type commentResponse struct {
	envelope
	CommentResult
}

type mediaResponse struct {
	envelope
	MediaResult
}

type stateResponse struct {
	envelope
	SubmissionState
}

type repliesResponse struct {
	envelope
	Replies []Reply `json:"replies"`
}

type postReplyResponse struct {
	envelope
	Reply Reply `json:"reply"`
}
