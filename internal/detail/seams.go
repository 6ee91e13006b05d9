package detail

import (
	"context"

	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

// API is the subset of the quest REST client the controller uses.
type API interface {
	SubmissionState(ctx context.Context, submissionID string) (questapi.SubmissionState, error)
	Replies(ctx context.Context, submissionID string) ([]questapi.Reply, error)
	Like(ctx context.Context, submissionID string) (questapi.LikeResult, error)
	Unlike(ctx context.Context, submissionID string) (questapi.LikeResult, error)
	PostReply(ctx context.Context, submissionID, content string) questapi.ReplyOutcome
	UpdateComment(ctx context.Context, submissionID, comment string) (questapi.CommentResult, error)
	UpdateMedia(ctx context.Context, submissionID string, upload questapi.Upload) (questapi.MediaResult, error)
	DeleteSubmission(ctx context.Context, submissionID string) error
}

var _ API = (*questapi.Client)(nil)

// View draws Model snapshots. Render is called with the controller lock held
// and must not call back into the controller synchronously.
type View interface {
	Render(Model)
	// ClearReplyInput empties the reply textarea after a successful post.
	ClearReplyInput()
}

// Modal is the lifecycle manager of the dialog hosting the view.
type Modal interface {
	Open()
	Close()
	Reset()
}

// Viewer is who is looking at the modal.
type Viewer struct {
	UserID string
	// Admin is the raw flag; "true" in any case grants admin rights.
	Admin string
}

// Session yields the current viewer. It is read on every Show.
type Session interface {
	Viewer() Viewer
}

// StaticSession is a fixed viewer.
type StaticSession Viewer

// Viewer implements Session.
func (s StaticSession) Viewer() Viewer { return Viewer(s) }

// NoticeKind classifies user-facing messages.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeWarning
	NoticeError
)

// Notifier surfaces messages to the user.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind NoticeKind, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }

// Confirmer asks a blocking yes/no question.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// FileReader loads the bytes of a selected file.
type FileReader interface {
	ReadFile(ctx context.Context, file media.File) ([]byte, error)
}

// Preloader warms the browser cache for an image URL. Failures are ignored.
type Preloader interface {
	Preload(url string)
}

// Hooks are callbacks into sibling panels.
type Hooks struct {
	// RefreshQuest reloads the quest detail panel after a delete.
	RefreshQuest func(questID string)
	// OpenProfile shows a user's profile panel.
	OpenProfile func(userID string)
}
