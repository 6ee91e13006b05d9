package detail

import (
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"quest-ui/internal/gallery"
)

const (
	// NoCommentText is shown when a submission has no comment.
	NoCommentText = "No comment provided."
	// DefaultPlaceholderImage is used when neither a photo nor a video URL is set.
	DefaultPlaceholderImage = "/static/images/placeholder.png"
	// DefaultMaxReplies caps the reply thread.
	DefaultMaxReplies = 10

	anonymousName = "Anonymous"
	unknownReply  = "User"
)

// State is the lifecycle position of the open submission.
type State int

const (
	StateClosed State = iota
	StateLoading
	StateReady
	StateEditingComment
	StateEditingPhoto
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateEditingComment:
		return "editing_comment"
	case StateEditingPhoto:
		return "editing_photo"
	default:
		return "closed"
	}
}

// SubmissionView is what callers hand to Show. Album and AlbumIndex are
// optional; without an album the prev/next controls stay hidden.
type SubmissionView struct {
	gallery.Item
	ReadOnly   bool
	Album      *gallery.Album
	AlbumIndex int
}

// ViewAt builds the SubmissionView for the album entry at index.
func ViewAt(album *gallery.Album, index int, readOnly bool) (SubmissionView, bool) {
	item, ok := album.At(index)
	if !ok {
		return SubmissionView{}, false
	}
	return SubmissionView{Item: item, ReadOnly: readOnly, Album: album, AlbumIndex: index}, true
}

// MediaKind selects which media element is visible.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaVideo
)

// Media is the single media element shown for a submission.
type Media struct {
	Kind MediaKind
	URL  string
}

// Author is the attribution block. Empty social URLs are hidden.
type Author struct {
	UserID       string
	Name         string
	AvatarURL    string
	TwitterURL   string
	FacebookURL  string
	InstagramURL string
}

// Controls lists which interactive elements are present.
type Controls struct {
	EditPhoto   bool
	Delete      bool
	EditComment bool
	Like        bool
	Replies     bool
	ReplyForm   bool
}

// Nav is the album navigation state.
type Nav struct {
	Visible     bool
	PrevEnabled bool
	NextEnabled bool
}

// ReplyRow is a rendered reply.
type ReplyRow struct {
	ID      string
	UserID  string
	Author  string
	Content string
}

// Model is a complete snapshot of the detail modal. Views render it as a whole.
type Model struct {
	State        State
	SubmissionID string
	QuestID      string

	Media    Media
	Author   Author
	Comment  string
	Controls Controls
	Nav      Nav

	CommentEditing bool
	CommentDraft   string
	PhotoEditing   bool

	LikeCount   int
	Liked       bool
	LikePending bool

	Replies           []ReplyRow
	ReplyLimitReached bool
	ReplyPending      bool

	CommentSaving bool
	PhotoSaving   bool
	Deleting      bool
}

// ReplyFormEnabled reports whether the reply textarea and button accept input.
func (m Model) ReplyFormEnabled() bool {
	return m.Controls.ReplyForm && !m.ReplyLimitReached && !m.ReplyPending
}

func (m Model) clone() Model {
	out := m
	if m.Replies != nil {
		out.Replies = make([]ReplyRow, len(m.Replies))
		copy(out.Replies, m.Replies)
	}
	return out
}

var textPolicy = bluemonday.StrictPolicy()

// cleanText strips markup from user supplied text; views insert it as text.
func cleanText(value string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(value)))
}

func commentText(raw string) string {
	if text := cleanText(raw); text != "" {
		return text
	}
	return NoCommentText
}

func displayName(item gallery.Item) string {
	for _, candidate := range []string{item.UserDisplayName, item.UserUsername} {
		if name := cleanText(candidate); name != "" {
			return name
		}
	}
	return anonymousName
}

// socialURL returns value when it is an absolute http(s) URL, else "".
func socialURL(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parsed, err := url.Parse(value)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return ""
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return parsed.String()
}

func mediaFor(item gallery.Item, placeholder string) Media {
	if video := strings.TrimSpace(item.VideoURL); video != "" {
		return Media{Kind: MediaVideo, URL: video}
	}
	if image := strings.TrimSpace(item.URL); image != "" {
		return Media{Kind: MediaImage, URL: image}
	}
	return Media{Kind: MediaImage, URL: placeholder}
}

func replyRow(id, userID, display, content string) ReplyRow {
	author := cleanText(display)
	if author == "" {
		author = unknownReply
	}
	return ReplyRow{ID: id, UserID: userID, Author: author, Content: cleanText(content)}
}

// sameUser compares ids numerically, so "7" and "7.0" match and blanks never do.
func sameUser(a, b string) bool {
	x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return false
	}
	return x == y
}

func isAdminFlag(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "true")
}
