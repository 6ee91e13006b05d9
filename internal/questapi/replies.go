package questapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ReplyKind tags the result of posting a reply.
type ReplyKind int

const (
	// ReplyFailed covers transport failures and any rejection without a
	// dedicated kind.
	ReplyFailed ReplyKind = iota
	// ReplyPosted means the reply was stored; Reply is populated.
	ReplyPosted
	// ReplyLimitReached means the thread already holds the maximum number of replies.
	ReplyLimitReached
	// ReplyDuplicate means the same user already posted identical content.
	ReplyDuplicate
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyPosted:
		return "posted"
	case ReplyLimitReached:
		return "limit_reached"
	case ReplyDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// ReplyOutcome is the decoded response of PostReply.
type ReplyOutcome struct {
	Kind  ReplyKind
	Reply Reply
	// Err is set for ReplyFailed.
	Err error
}

// PostReply appends a reply to the submission thread. Business-rule
// rejections come back as outcomes; only ReplyFailed carries an error.
func (c *Client) PostReply(ctx context.Context, submissionID, content string) ReplyOutcome {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return ReplyOutcome{Kind: ReplyFailed, Err: fmt.Errorf("encode reply: %w", err)}
	}
	var payload postReplyResponse
	status, err := c.do(ctx, http.MethodPost, submissionPath(submissionID, "replies"), bytes.NewReader(body), "application/json", &payload)
	if err != nil {
		return ReplyOutcome{Kind: ReplyFailed, Err: err}
	}
	return classifyReply(status, payload)
}

func classifyReply(status int, payload postReplyResponse) ReplyOutcome {
	message := strings.ToLower(strings.TrimSpace(payload.Message))
	switch {
	case status == http.StatusConflict && strings.Contains(message, "duplicate"):
		return ReplyOutcome{Kind: ReplyDuplicate}
	case strings.Contains(message, "reply limit"):
		return ReplyOutcome{Kind: ReplyLimitReached}
	}
	if err := checkEnvelope(status, payload.envelope); err != nil {
		return ReplyOutcome{Kind: ReplyFailed, Err: err}
	}
	return ReplyOutcome{Kind: ReplyPosted, Reply: payload.Reply}
}
