package detail

import (
	"context"
	"strings"

	"quest-ui/internal/gallery"
	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

// ToggleLike likes or unlikes the open submission depending on the state
// currently displayed, then shows the count and state the server returns.
func (c *Controller) ToggleLike(ctx context.Context) error {
	c.mu.Lock()
	if err := c.openLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.current.ReadOnly {
		c.mu.Unlock()
		return ErrReadOnly
	}
	busy := c.busy
	if busy.like {
		c.mu.Unlock()
		return ErrBusy
	}
	busy.like = true
	c.likeSeq++
	gen, id, album := c.gen, c.current.ID, c.current.Album
	unlike := c.model.Liked
	c.model.LikePending = true
	c.renderLocked()
	c.mu.Unlock()

	var (
		result questapi.LikeResult
		err    error
	)
	if unlike {
		result, err = c.api.Unlike(ctx, id)
	} else {
		result, err = c.api.Like(ctx, id)
	}

	c.mu.Lock()
	busy.like = false
	if err == nil {
		album.UpdateLike(id, result.LikeCount, result.Liked)
	}
	if gen == c.gen {
		c.model.LikePending = false
		if err == nil {
			c.model.LikeCount = result.LikeCount
			c.model.Liked = result.Liked
		}
		c.renderLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(NoticeError, questapi.UserMessage(err, msgLikeFailed))
		return err
	}
	return nil
}

// BeginCommentEdit swaps the comment for an editable draft.
func (c *Controller) BeginCommentEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ownerEditLocked(); err != nil {
		return err
	}
	if c.model.PhotoEditing {
		return ErrEditInProgress
	}
	if c.model.CommentEditing {
		return nil
	}
	c.model.CommentEditing = true
	c.model.CommentDraft = c.rawComment
	c.syncLocked()
	c.renderLocked()
	return nil
}

// CancelCommentEdit leaves comment edit mode without saving.
func (c *Controller) CancelCommentEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model.State == StateClosed || !c.model.CommentEditing {
		return
	}
	c.model.CommentEditing = false
	c.model.CommentDraft = ""
	c.syncLocked()
	c.renderLocked()
}

// SaveComment stores text as the new comment. On failure edit mode stays open
// with text as the draft.
func (c *Controller) SaveComment(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if err := c.ownerEditLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.model.CommentEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	busy := c.busy
	if busy.comment {
		c.mu.Unlock()
		return ErrBusy
	}
	busy.comment = true
	gen, id, album := c.gen, c.current.ID, c.current.Album
	c.model.CommentDraft = text
	c.model.CommentSaving = true
	c.renderLocked()
	c.mu.Unlock()

	result, err := c.api.UpdateComment(ctx, id, text)

	c.mu.Lock()
	busy.comment = false
	if err == nil {
		album.Update(id, func(item *gallery.Item) { item.Comment = result.Comment })
	}
	if gen == c.gen {
		c.model.CommentSaving = false
		if err == nil {
			c.rawComment = result.Comment
			c.current.Comment = result.Comment
			c.model.Comment = commentText(result.Comment)
			c.model.CommentEditing = false
			c.model.CommentDraft = ""
		}
		c.syncLocked()
		c.renderLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(NoticeError, questapi.UserMessage(err, msgCommentFailed))
		return err
	}
	return nil
}

// BeginPhotoEdit reveals the file picker.
func (c *Controller) BeginPhotoEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ownerEditLocked(); err != nil {
		return err
	}
	if c.model.CommentEditing {
		return ErrEditInProgress
	}
	if c.model.PhotoEditing {
		return nil
	}
	c.model.PhotoEditing = true
	c.syncLocked()
	c.renderLocked()
	return nil
}

// CancelPhotoEdit hides the file picker again.
func (c *Controller) CancelPhotoEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model.State == StateClosed || !c.model.PhotoEditing {
		return
	}
	c.model.PhotoEditing = false
	c.syncLocked()
	c.renderLocked()
}

// SavePhoto validates file and uploads it as the submission's new media.
// Files that break the size or duration limits never reach the network.
func (c *Controller) SavePhoto(ctx context.Context, file media.File) error {
	c.mu.Lock()
	if err := c.ownerEditLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.model.PhotoEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	busy := c.busy
	if busy.photo {
		c.mu.Unlock()
		return ErrBusy
	}
	busy.photo = true
	gen, id, album := c.gen, c.current.ID, c.current.Album
	c.model.PhotoSaving = true
	c.renderLocked()
	c.mu.Unlock()

	var (
		result  questapi.MediaResult
		message string
	)
	err := media.Validate(ctx, file, c.limits, c.prober)
	if err != nil {
		message = media.Message(err, c.limits)
	} else {
		var data []byte
		if data, err = c.readFile(ctx, file); err != nil {
			message = msgReadFailed
		} else {
			result, err = c.api.UpdateMedia(ctx, id, questapi.Upload{
				Field:       file.FieldName(),
				FileName:    file.Name,
				ContentType: file.ContentType,
				Body:        data,
			})
			if err != nil {
				message = questapi.UserMessage(err, msgPhotoFailed)
			}
		}
	}

	c.mu.Lock()
	busy.photo = false
	replaced := err == nil && (strings.TrimSpace(result.ImageURL) != "" || strings.TrimSpace(result.VideoURL) != "")
	if replaced {
		album.Update(id, func(item *gallery.Item) {
			item.URL, item.VideoURL = result.ImageURL, result.VideoURL
		})
	}
	if gen == c.gen {
		c.model.PhotoSaving = false
		if replaced {
			c.current.URL, c.current.VideoURL = result.ImageURL, result.VideoURL
			c.model.Media = mediaFor(c.current.Item, c.placeholder)
		}
		if err == nil {
			c.model.PhotoEditing = false
		}
		c.syncLocked()
		c.renderLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(NoticeError, message)
		return err
	}
	return nil
}

func (c *Controller) readFile(ctx context.Context, file media.File) ([]byte, error) {
	if c.files == nil {
		return nil, ErrNoFileReader
	}
	return c.files.ReadFile(ctx, file)
}

// Delete asks for confirmation and deletes the open submission. On success
// the modal is closed and reset and the parent quest panel is refreshed.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	if err := c.openLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.isOwner && !c.isAdmin {
		c.mu.Unlock()
		return ErrNotPermitted
	}
	busy := c.busy
	if busy.delete {
		c.mu.Unlock()
		return ErrBusy
	}
	busy.delete = true
	gen, id, questID := c.gen, c.current.ID, strings.TrimSpace(c.current.QuestID)
	c.mu.Unlock()

	if c.confirmer == nil || !c.confirmer.Confirm(ConfirmDeletePrompt) {
		c.mu.Lock()
		busy.delete = false
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	if gen == c.gen {
		c.model.Deleting = true
		c.renderLocked()
	}
	c.mu.Unlock()

	err := c.api.DeleteSubmission(ctx, id)

	c.mu.Lock()
	busy.delete = false
	stillShown := gen == c.gen
	if err != nil {
		if stillShown {
			c.model.Deleting = false
			c.renderLocked()
		}
		c.mu.Unlock()
		c.notify(NoticeError, questapi.UserMessage(err, msgDeleteFailed))
		return err
	}
	if stillShown {
		c.closeLocked()
	}
	c.mu.Unlock()

	if stillShown {
		c.modal.Close()
		c.modal.Reset()
	}
	if questID != "" && c.hooks.RefreshQuest != nil {
		c.hooks.RefreshQuest(questID)
	}
	c.notify(NoticeInfo, DeletedNotice)
	return nil
}

// PostReply posts content to the open submission's reply thread. Empty
// content and read-only views are no-ops.
func (c *Controller) PostReply(ctx context.Context, content string) error {
	text := strings.TrimSpace(content)

	c.mu.Lock()
	if err := c.openLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.current.ReadOnly || text == "" {
		c.mu.Unlock()
		return nil
	}
	if !c.model.Controls.ReplyForm {
		c.mu.Unlock()
		return ErrNotPermitted
	}
	if c.model.ReplyLimitReached {
		c.mu.Unlock()
		return ErrReplyLimit
	}
	busy := c.busy
	if busy.reply {
		c.mu.Unlock()
		return ErrBusy
	}
	busy.reply = true
	gen, id := c.gen, c.current.ID
	c.model.ReplyPending = true
	c.renderLocked()
	c.mu.Unlock()

	outcome := c.api.PostReply(ctx, id, text)

	var (
		err     error
		kind    NoticeKind
		message string
		posted  bool
	)
	c.mu.Lock()
	busy.reply = false
	current := gen == c.gen
	switch outcome.Kind {
	case questapi.ReplyPosted:
		posted = current
		if current {
			row := replyRow(outcome.Reply.ID.String(), outcome.Reply.UserID.String(), outcome.Reply.UserDisplay, outcome.Reply.Content)
			c.localReplies = append(c.localReplies, row)
			c.model.Replies = append([]ReplyRow{row}, c.model.Replies...)
			if len(c.model.Replies) >= c.maxReplies {
				c.model.ReplyLimitReached = true
			}
		}
	case questapi.ReplyLimitReached:
		err = ErrReplyLimit
		if current {
			c.model.ReplyLimitReached = true
		}
	case questapi.ReplyDuplicate:
		err = ErrDuplicateReply
		kind, message = NoticeWarning, DuplicateReplyNotice
	default:
		err = outcome.Err
		if err == nil {
			err = ErrReplyFailed
		}
		kind, message = NoticeError, questapi.UserMessage(outcome.Err, msgReplyFailed)
	}
	if current {
		c.model.ReplyPending = false
		c.renderLocked()
	}
	c.mu.Unlock()

	if posted {
		c.view.ClearReplyInput()
	}
	if message != "" {
		c.notify(kind, message)
	}
	return err
}

func (c *Controller) ownerEditLocked() error {
	if err := c.openLocked(); err != nil {
		return err
	}
	if c.current.ReadOnly {
		return ErrReadOnly
	}
	if !c.isOwner {
		return ErrNotPermitted
	}
	return nil
}
