// Package detail implements the submission detail controller: the modal that
// shows one submission's media, comment, likes and replies, lets its owner
// edit or delete it, and walks an album of sibling submissions.
package detail

import (
	"context"
	"errors"
	"strings"
	"sync"

	"quest-ui/internal/gallery"
	"quest-ui/internal/logging"
	"quest-ui/internal/media"
)

var (
	ErrMissingSubmissionID = errors.New("submission id is required")
	ErrClosed              = errors.New("no submission is open")
	ErrDisposed            = errors.New("controller disposed")
	ErrReadOnly            = errors.New("submission is read-only")
	ErrNotPermitted        = errors.New("action not permitted for this viewer")
	ErrBusy                = errors.New("action already in progress")
	ErrEditInProgress      = errors.New("another edit is in progress")
	ErrNotEditing          = errors.New("not in edit mode")
	ErrReplyLimit          = errors.New("reply limit reached")
	ErrDuplicateReply      = errors.New("duplicate reply")
	ErrReplyFailed         = errors.New("reply failed")
	ErrNoNeighbour         = errors.New("no submission in that direction")
	ErrNoFileReader        = errors.New("no file reader configured")
)

const (
	// ReplyLimitNotice is shown once the thread is full.
	ReplyLimitNotice = "Reply limit reached. No more replies can be posted."
	// DuplicateReplyNotice is shown for a 409 duplicate reply.
	DuplicateReplyNotice = "You already posted that reply."
	// ConfirmDeletePrompt is the delete confirmation question.
	ConfirmDeletePrompt = "Are you sure you want to delete this submission?"
	// DeletedNotice confirms a successful delete.
	DeletedNotice = "Submission deleted successfully."

	msgLikeFailed    = "Failed to update like."
	msgCommentFailed = "Failed to update comment."
	msgPhotoFailed   = "Failed to update photo."
	msgDeleteFailed  = "Failed to delete submission."
	msgReplyFailed   = "Failed to post reply."
	msgReadFailed    = "Unable to read the selected file."
)

// Options wires a Controller to its collaborators. API, View and Modal are required.
type Options struct {
	API       API
	View      View
	Modal     Modal
	Session   Session
	Notifier  Notifier
	Confirmer Confirmer
	Files     FileReader
	Prober    media.Prober
	Preloader Preloader
	Hooks     Hooks
	Logger    logging.Logger

	Limits           media.Limits
	MaxReplies       int
	PlaceholderImage string
}

// fetchSlot owns the cancellation handle of one kind of background fetch.
type fetchSlot struct {
	cancel context.CancelFunc
}

// cancelAndReplace aborts the outstanding fetch of this kind, if any, and
// returns a fresh context for the next one.
func (s *fetchSlot) cancelAndReplace(parent context.Context) (context.Context, context.CancelFunc) {
	s.stop()
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	return ctx, cancel
}

func (s *fetchSlot) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// inflight records which mutating actions are awaiting the server for the
// currently open submission. It is replaced on every Show.
type inflight struct {
	like    bool
	comment bool
	photo   bool
	delete  bool
	reply   bool
}

// Controller drives one detail modal. It is safe for concurrent use; event
// handlers typically call its methods from their own goroutines.
type Controller struct {
	api         API
	view        View
	modal       Modal
	session     Session
	notifier    Notifier
	confirmer   Confirmer
	files       FileReader
	prober      media.Prober
	preloader   Preloader
	hooks       Hooks
	logger      logging.Logger
	limits      media.Limits
	maxReplies  int
	placeholder string

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu             sync.Mutex
	disposed       bool
	gen            uint64
	current        SubmissionView
	rawComment     string
	isOwner        bool
	isAdmin        bool
	model          Model
	pendingFetches int
	// likeSeq advances on every toggle; a state refresh started under an
	// older value is discarded.
	likeSeq        uint64
	localReplies   []ReplyRow
	likes          fetchSlot
	replies        fetchSlot
	busy           *inflight
}

// New binds a Controller to its collaborators.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.API == nil:
		return nil, errors.New("detail: API is required")
	case opts.View == nil:
		return nil, errors.New("detail: View is required")
	case opts.Modal == nil:
		return nil, errors.New("detail: Modal is required")
	}
	limits := opts.Limits
	if limits == (media.Limits{}) {
		limits = media.DefaultLimits()
	}
	maxReplies := opts.MaxReplies
	if maxReplies <= 0 {
		maxReplies = DefaultMaxReplies
	}
	placeholder := strings.TrimSpace(opts.PlaceholderImage)
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	session := opts.Session
	if session == nil {
		session = StaticSession{}
	}
	base, stop := context.WithCancel(context.Background())
	return &Controller{
		api:         opts.API,
		view:        opts.View,
		modal:       opts.Modal,
		session:     session,
		notifier:    opts.Notifier,
		confirmer:   opts.Confirmer,
		files:       opts.Files,
		prober:      opts.Prober,
		preloader:   opts.Preloader,
		hooks:       opts.Hooks,
		logger:      logging.WithPrefix(logging.OrDiscard(opts.Logger), "detail"),
		limits:      limits,
		maxReplies:  maxReplies,
		placeholder: placeholder,
		base:        base,
		stopBase:    stop,
		busy:        &inflight{},
		model:       Model{State: StateClosed},
	}, nil
}

// Show renders view in the modal, replacing whatever was shown before, and
// starts the background like and reply refreshes.
func (c *Controller) Show(view SubmissionView) error {
	view.ID = strings.TrimSpace(view.ID)
	if view.ID == "" {
		c.logger.Printf("show submission: %v", ErrMissingSubmissionID)
		return ErrMissingSubmissionID
	}
	viewer := c.session.Viewer()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		c.logger.Printf("show submission %s: %v", view.ID, ErrDisposed)
		return ErrDisposed
	}
	c.gen++
	gen := c.gen
	c.busy = &inflight{}
	c.current = view
	c.rawComment = view.Comment
	c.isOwner = sameUser(viewer.UserID, view.UserID)
	c.isAdmin = isAdminFlag(viewer.Admin)
	c.localReplies = nil
	c.model = c.freshModel(view)

	likeCtx, likeCancel := c.likes.cancelAndReplace(c.base)
	likeSeq := c.likeSeq
	c.replies.stop()
	c.pendingFetches = 1
	var replyCtx context.Context
	var replyCancel context.CancelFunc
	if !view.ReadOnly {
		replyCtx, replyCancel = c.replies.cancelAndReplace(c.base)
		c.pendingFetches++
	}
	c.syncLocked()
	c.renderLocked()
	c.wg.Add(c.pendingFetches)
	c.mu.Unlock()

	c.modal.Open()

	go c.refreshLikes(likeCtx, likeCancel, gen, likeSeq, view.ID)
	if replyCtx != nil {
		go c.refreshReplies(replyCtx, replyCancel, gen, view.ID)
	}
	c.preloadNext(view)
	return nil
}

// Next shows the following album entry.
func (c *Controller) Next() error { return c.step(1) }

// Prev shows the preceding album entry.
func (c *Controller) Prev() error { return c.step(-1) }

func (c *Controller) step(delta int) error {
	c.mu.Lock()
	if err := c.openLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	album, index, readOnly := c.current.Album, c.current.AlbumIndex, c.current.ReadOnly
	c.mu.Unlock()

	if !album.Valid(index) {
		return ErrNoNeighbour
	}
	view, ok := ViewAt(album, index+delta, readOnly)
	if !ok {
		return ErrNoNeighbour
	}
	return c.Show(view)
}

// Close hides the modal and abandons background work for the open submission.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.model.State == StateClosed {
		c.mu.Unlock()
		return
	}
	c.closeLocked()
	c.mu.Unlock()
	c.modal.Close()
}

// Dispose closes the controller for good and waits for background fetches.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	wasOpen := c.model.State != StateClosed
	if wasOpen {
		c.closeLocked()
	}
	c.disposed = true
	c.stopBase()
	c.mu.Unlock()
	if wasOpen {
		c.modal.Close()
	}
	c.wg.Wait()
}

// Wait blocks until all background refreshes have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Snapshot returns the current model.
func (c *Controller) Snapshot() Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.clone()
}

// OpenAuthor opens the profile of the submission's author.
func (c *Controller) OpenAuthor() {
	c.mu.Lock()
	userID := c.current.UserID
	c.mu.Unlock()
	c.OpenReplyAuthor(userID)
}

// OpenReplyAuthor opens the profile of userID.
func (c *Controller) OpenReplyAuthor(userID string) {
	userID = strings.TrimSpace(userID)
	if userID == "" || c.hooks.OpenProfile == nil {
		return
	}
	c.hooks.OpenProfile(userID)
}

func (c *Controller) freshModel(view SubmissionView) Model {
	avatar := strings.TrimSpace(view.UserProfilePicture)
	if avatar == "" {
		avatar = c.placeholder
	}
	m := Model{
		SubmissionID: view.ID,
		QuestID:      strings.TrimSpace(view.QuestID),
		Media:        mediaFor(view.Item, c.placeholder),
		Author: Author{
			UserID:       view.UserID,
			Name:         displayName(view.Item),
			AvatarURL:    avatar,
			TwitterURL:   socialURL(view.TwitterURL),
			FacebookURL:  socialURL(view.FacebookURL),
			InstagramURL: socialURL(view.InstagramURL),
		},
		Comment:   commentText(view.Comment),
		LikeCount: view.LikeCount,
		Liked:     view.Liked,
		Replies:   []ReplyRow{},
	}
	if view.Album.Valid(view.AlbumIndex) {
		m.Nav = Nav{
			Visible:     true,
			PrevEnabled: view.Album.HasPrev(view.AlbumIndex),
			NextEnabled: view.Album.HasNext(view.AlbumIndex),
		}
	}
	return m
}

// syncLocked recomputes control visibility and the lifecycle state.
func (c *Controller) syncLocked() {
	readOnly := c.current.ReadOnly
	canEdit := c.isOwner && !readOnly
	m := &c.model
	m.Controls = Controls{
		EditPhoto:   canEdit && !m.CommentEditing && !m.PhotoEditing,
		Delete:      c.isOwner || c.isAdmin,
		EditComment: canEdit && !m.PhotoEditing,
		Like:        !readOnly,
		Replies:     !readOnly,
		ReplyForm:   !readOnly && !c.isOwner,
	}
	switch {
	case m.CommentEditing:
		m.State = StateEditingComment
	case m.PhotoEditing:
		m.State = StateEditingPhoto
	case c.pendingFetches > 0:
		m.State = StateLoading
	default:
		m.State = StateReady
	}
}

func (c *Controller) renderLocked() {
	c.view.Render(c.model.clone())
}

func (c *Controller) openLocked() error {
	if c.disposed {
		return ErrDisposed
	}
	if c.model.State == StateClosed {
		return ErrClosed
	}
	return nil
}

func (c *Controller) closeLocked() {
	c.gen++
	c.likes.stop()
	c.replies.stop()
	c.pendingFetches = 0
	c.busy = &inflight{}
	c.current = SubmissionView{}
	c.rawComment = ""
	c.localReplies = nil
	c.isOwner, c.isAdmin = false, false
	c.model = Model{State: StateClosed}
	c.renderLocked()
}

func (c *Controller) notify(kind NoticeKind, message string) {
	if c.notifier == nil {
		c.logger.Printf("notice: %s", message)
		return
	}
	c.notifier.Notify(kind, message)
}

func (c *Controller) preloadNext(view SubmissionView) {
	if c.preloader == nil || !view.Album.HasNext(view.AlbumIndex) {
		return
	}
	next, ok := view.Album.At(view.AlbumIndex + 1)
	if !ok || strings.TrimSpace(next.VideoURL) != "" || strings.TrimSpace(next.URL) == "" {
		return
	}
	c.preloader.Preload(next.URL)
}

// albumTag names the album in log lines so navigation through one gallery can
// be followed.
func albumTag(album *gallery.Album) string {
	if id := album.ID(); id != "" {
		return " (album " + id + ")"
	}
	return ""
}

func (c *Controller) refreshLikes(ctx context.Context, cancel context.CancelFunc, gen, likeSeq uint64, id string) {
	defer c.wg.Done()
	defer cancel()

	state, err := c.api.SubmissionState(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || gen != c.gen {
		return
	}
	c.pendingFetches--
	switch {
	case err != nil:
		c.logger.Printf("refresh likes for submission %s%s: %v", id, albumTag(c.current.Album), err)
	case c.busy.like || likeSeq != c.likeSeq:
		// A toggle started after this request; its response wins.
	default:
		c.model.LikeCount = state.LikeCount
		c.model.Liked = state.LikedByCurrentUser
		c.current.Album.UpdateLike(id, state.LikeCount, state.LikedByCurrentUser)
	}
	c.syncLocked()
	c.renderLocked()
}

func (c *Controller) refreshReplies(ctx context.Context, cancel context.CancelFunc, gen uint64, id string) {
	defer c.wg.Done()
	defer cancel()

	replies, err := c.api.Replies(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || gen != c.gen {
		return
	}
	c.pendingFetches--
	if err != nil {
		c.logger.Printf("refresh replies for submission %s%s: %v", id, albumTag(c.current.Album), err)
	} else {
		rows := make([]ReplyRow, 0, len(replies)+len(c.localReplies))
		seen := make(map[string]struct{}, len(replies))
		for _, r := range replies {
			rows = append(rows, replyRow(r.ID.String(), r.UserID.String(), r.UserDisplay, r.Content))
			if r.ID != "" {
				seen[r.ID.String()] = struct{}{}
			}
		}
		// Replies posted while the list was loading go on top unless the
		// server already returned them.
		var local []ReplyRow
		for _, row := range c.localReplies {
			if _, ok := seen[row.ID]; row.ID != "" && ok {
				continue
			}
			local = append(local, row)
		}
		c.model.Replies = append(local, rows...)
		if len(c.model.Replies) >= c.maxReplies {
			c.model.ReplyLimitReached = true
		}
	}
	c.syncLocked()
	c.renderLocked()
}
