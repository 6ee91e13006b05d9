package detail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-ui/internal/gallery"
	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

const megabyte = 1 << 20

func ownerViewer() Viewer   { return Viewer{UserID: "7"} }
func visitorViewer() Viewer { return Viewer{UserID: "99"} }

func submission(id string) SubmissionView {
	return SubmissionView{Item: gallery.Item{
		ID:              id,
		QuestID:         "q1",
		URL:             "/img/" + id + ".jpg",
		Comment:         "first try",
		UserID:          "7",
		UserDisplayName: "Ada",
	}}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{API: newFakeAPI(), View: &recordingView{}})
	assert.Error(t, err)
}

func TestShowRequiresID(t *testing.T) {
	h := newHarness(t, ownerViewer())
	assert.ErrorIs(t, h.ctrl.Show(SubmissionView{}), ErrMissingSubmissionID)
	assert.Equal(t, 0, h.modal.opens)
}

func TestShowOwnerSeesEditControls(t *testing.T) {
	h := newHarness(t, ownerViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	m := h.view.last()
	assert.True(t, m.Controls.EditPhoto)
	assert.True(t, m.Controls.EditComment)
	assert.True(t, m.Controls.Delete)
	assert.False(t, m.Controls.ReplyForm, "owners do not reply to themselves")
	assert.Equal(t, StateReady, m.State)
	assert.Equal(t, "s1", m.SubmissionID)
	assert.Equal(t, "q1", m.QuestID)
	assert.Equal(t, 1, h.modal.opens)
}

func TestShowNonOwnerNeverSeesEditControls(t *testing.T) {
	cases := []struct {
		readOnly bool
		editErr  error
	}{
		{false, ErrNotPermitted},
		{true, ErrReadOnly},
	}
	for _, tc := range cases {
		h := newHarness(t, visitorViewer())
		view := submission("s1")
		view.ReadOnly = tc.readOnly
		require.NoError(t, h.ctrl.Show(view))
		h.ctrl.Wait()

		m := h.view.last()
		assert.False(t, m.Controls.EditPhoto)
		assert.False(t, m.Controls.EditComment)
		assert.False(t, m.Controls.Delete)
		assert.ErrorIs(t, h.ctrl.BeginCommentEdit(), tc.editErr)
		assert.ErrorIs(t, h.ctrl.Delete(context.Background()), ErrNotPermitted)
	}
}

func TestOwnershipComparesNumerically(t *testing.T) {
	h := newHarness(t, Viewer{UserID: "7.0"})
	require.NoError(t, h.ctrl.Show(submission("s1")))
	assert.True(t, h.ctrl.Snapshot().Controls.EditPhoto)

	h = newHarness(t, Viewer{})
	view := submission("s1")
	view.UserID = ""
	require.NoError(t, h.ctrl.Show(view))
	assert.False(t, h.ctrl.Snapshot().Controls.Delete, "blank ids never match")
}

func TestAdminMayDeleteButNotEdit(t *testing.T) {
	h := newHarness(t, Viewer{UserID: "99", Admin: "TRUE"})
	require.NoError(t, h.ctrl.Show(submission("s1")))
	m := h.ctrl.Snapshot()
	assert.True(t, m.Controls.Delete)
	assert.False(t, m.Controls.EditPhoto)
	assert.False(t, m.Controls.EditComment)
}

func TestReadOnlySuppressesLikeAndReplies(t *testing.T) {
	h := newHarness(t, visitorViewer())
	view := submission("s1")
	view.ReadOnly = true
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	m := h.view.last()
	assert.False(t, m.Controls.Like)
	assert.False(t, m.Controls.Replies)
	assert.False(t, m.Controls.ReplyForm)
	assert.False(t, m.ReplyFormEnabled())

	assert.ErrorIs(t, h.ctrl.ToggleLike(context.Background()), ErrReadOnly)
	assert.NoError(t, h.ctrl.PostReply(context.Background(), "hello"))
	assert.Equal(t, 0, h.api.callCount("reply s1"))
	assert.Equal(t, 0, h.api.callCount("replies s1"), "read-only views skip the reply fetch")
	assert.Equal(t, 1, h.api.callCount("state s1"))
}

func TestMediaRendering(t *testing.T) {
	h := newHarness(t, ownerViewer(), func(o *Options) { o.PlaceholderImage = "/ph.png" })

	view := submission("s1")
	view.VideoURL = "/v/s1.mp4"
	require.NoError(t, h.ctrl.Show(view))
	assert.Equal(t, Media{Kind: MediaVideo, URL: "/v/s1.mp4"}, h.ctrl.Snapshot().Media)

	view = submission("s2")
	view.URL = ""
	require.NoError(t, h.ctrl.Show(view))
	m := h.ctrl.Snapshot()
	assert.Equal(t, Media{Kind: MediaImage, URL: "/ph.png"}, m.Media)
	assert.Equal(t, "/ph.png", m.Author.AvatarURL)
}

func TestAuthorBlockFallbacksAndSocialLinks(t *testing.T) {
	h := newHarness(t, visitorViewer())
	view := submission("s1")
	view.UserDisplayName = ""
	view.UserUsername = "ada_l"
	view.Comment = "   "
	view.TwitterURL = "https://twitter.com/ada"
	view.FacebookURL = "facebook.com/ada"
	view.InstagramURL = "javascript:alert(1)"
	require.NoError(t, h.ctrl.Show(view))

	m := h.ctrl.Snapshot()
	assert.Equal(t, "ada_l", m.Author.Name)
	assert.Equal(t, NoCommentText, m.Comment)
	assert.Equal(t, "https://twitter.com/ada", m.Author.TwitterURL)
	assert.Empty(t, m.Author.FacebookURL)
	assert.Empty(t, m.Author.InstagramURL)
}

func TestCommentMarkupIsStripped(t *testing.T) {
	h := newHarness(t, visitorViewer())
	view := submission("s1")
	view.Comment = `<script>alert(1)</script>did it &amp; <b>won</b>`
	require.NoError(t, h.ctrl.Show(view))
	assert.Equal(t, "did it & won", h.ctrl.Snapshot().Comment)
}

func albumOf(n int) *gallery.Album {
	items := make([]gallery.Item, n)
	for i := range items {
		items[i] = gallery.Item{ID: string(rune('a' + i)), UserID: "7", URL: "/img/" + string(rune('a'+i))}
	}
	return gallery.NewAlbum(items)
}

func TestAlbumNavigationBoundaries(t *testing.T) {
	h := newHarness(t, visitorViewer())
	album := albumOf(3)

	cases := []struct {
		index      int
		prev, next bool
	}{
		{0, false, true},
		{1, true, true},
		{2, true, false},
	}
	for _, tc := range cases {
		view, ok := ViewAt(album, tc.index, false)
		require.True(t, ok)
		require.NoError(t, h.ctrl.Show(view))
		nav := h.ctrl.Snapshot().Nav
		assert.True(t, nav.Visible)
		assert.Equal(t, tc.prev, nav.PrevEnabled, "prev at %d", tc.index)
		assert.Equal(t, tc.next, nav.NextEnabled, "next at %d", tc.index)
	}

	assert.ErrorIs(t, h.ctrl.Next(), ErrNoNeighbour)
	require.NoError(t, h.ctrl.Prev())
	assert.Equal(t, "b", h.ctrl.Snapshot().SubmissionID)

	require.NoError(t, h.ctrl.Show(submission("solo")))
	assert.False(t, h.ctrl.Snapshot().Nav.Visible)
	h.ctrl.Wait()
}

type recordingPreloader struct{ urls []string }

func (p *recordingPreloader) Preload(url string) { p.urls = append(p.urls, url) }

func TestNavigationCarriesReadOnlyAndPreloadsNext(t *testing.T) {
	pre := &recordingPreloader{}
	h := newHarness(t, visitorViewer(), func(o *Options) { o.Preloader = pre })
	view, _ := ViewAt(albumOf(3), 0, true)
	require.NoError(t, h.ctrl.Show(view))
	require.NoError(t, h.ctrl.Next())
	h.ctrl.Wait()

	m := h.ctrl.Snapshot()
	assert.Equal(t, "b", m.SubmissionID)
	assert.False(t, m.Controls.Like, "read-only carried forward")
	assert.Equal(t, []string{"/img/b", "/img/c"}, pre.urls)
}

func TestReopenActsOnLatestSubmission(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.likeResult = questapi.LikeResult{Liked: true, LikeCount: 1}
	require.NoError(t, h.ctrl.Show(submission("A")))
	require.NoError(t, h.ctrl.Show(submission("B")))

	require.NoError(t, h.ctrl.ToggleLike(context.Background()))
	assert.Equal(t, 0, h.api.callCount("like A"))
	assert.Equal(t, 1, h.api.callCount("like B"))
	h.ctrl.Wait()
	assert.Equal(t, "B", h.view.last().SubmissionID)
}

func TestStaleRepliesAreIgnored(t *testing.T) {
	h := newHarness(t, visitorViewer())
	gate := make(chan struct{})
	h.api.replyGate["A"] = gate
	h.api.replies["A"] = []questapi.Reply{{ID: "1", UserDisplay: "Old", Content: "for A"}}
	h.api.replies["B"] = []questapi.Reply{{ID: "2", UserDisplay: "New", Content: "for B"}}

	require.NoError(t, h.ctrl.Show(submission("A")))
	require.NoError(t, h.ctrl.Show(submission("B")))
	close(gate)
	h.ctrl.Wait()

	m := h.view.last()
	require.Len(t, m.Replies, 1)
	assert.Equal(t, "for B", m.Replies[0].Content)
	assert.Equal(t, StateReady, m.State)
}

func TestBackgroundLikeStateOverwritesStaleCount(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.states["s1"] = questapi.SubmissionState{LikeCount: 12, LikedByCurrentUser: true}
	album := gallery.NewAlbum([]gallery.Item{{ID: "s1", LikeCount: 3}})
	view, _ := ViewAt(album, 0, false)
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	m := h.ctrl.Snapshot()
	assert.Equal(t, 12, m.LikeCount)
	assert.True(t, m.Liked)
	item, _ := album.At(0)
	assert.Equal(t, 12, item.LikeCount)
}

func TestBackgroundFailuresAreSilent(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.stateErr = errors.New("offline")
	view := submission("s1")
	view.LikeCount = 4
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	assert.Equal(t, 4, h.ctrl.Snapshot().LikeCount)
	assert.Empty(t, h.notifier.all())
}

func TestBackgroundFailureLogNamesAlbum(t *testing.T) {
	logger := &recordingLogger{}
	h := newHarness(t, visitorViewer(), func(o *Options) { o.Logger = logger })
	h.api.stateErr = errors.New("offline")
	album := gallery.NewAlbum([]gallery.Item{{ID: "s1"}, {ID: "s2"}})
	view, _ := ViewAt(album, 0, false)
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	var found bool
	for _, line := range logger.all() {
		if strings.Contains(line, "refresh likes for submission s1 (album "+album.ID()+")") {
			found = true
		}
	}
	assert.True(t, found, "log lines: %v", logger.all())
}

func TestLikeAppliesServerState(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.likeResult = questapi.LikeResult{Liked: true, LikeCount: 5}
	album := gallery.NewAlbum([]gallery.Item{{ID: "s1", LikeCount: 1}, {ID: "s2"}})
	view, _ := ViewAt(album, 0, false)
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.ToggleLike(context.Background()))
	assert.Equal(t, 1, h.api.callCount("like s1"))

	m := h.view.last()
	assert.Equal(t, 5, m.LikeCount)
	assert.True(t, m.Liked)
	assert.False(t, m.LikePending)

	item, _ := album.At(0)
	assert.Equal(t, 5, item.LikeCount)
	assert.True(t, item.Liked)

	h.api.likeResult = questapi.LikeResult{Liked: false, LikeCount: 4}
	require.NoError(t, h.ctrl.ToggleLike(context.Background()))
	assert.Equal(t, 1, h.api.callCount("unlike s1"))
	assert.Equal(t, 4, h.ctrl.Snapshot().LikeCount)
}

func TestLateLikeStateDoesNotUndoToggle(t *testing.T) {
	h := newHarness(t, visitorViewer())
	gate := make(chan struct{})
	h.api.stateGate["s1"] = gate
	h.api.states["s1"] = questapi.SubmissionState{LikeCount: 4}
	h.api.likeResult = questapi.LikeResult{Liked: true, LikeCount: 5}
	album := gallery.NewAlbum([]gallery.Item{{ID: "s1", LikeCount: 4}})
	view, _ := ViewAt(album, 0, false)
	require.NoError(t, h.ctrl.Show(view))

	require.NoError(t, h.ctrl.ToggleLike(context.Background()))
	close(gate)
	h.ctrl.Wait()

	m := h.ctrl.Snapshot()
	assert.Equal(t, 5, m.LikeCount)
	assert.True(t, m.Liked)
	assert.Equal(t, StateReady, m.State)
	item, _ := album.At(0)
	assert.Equal(t, 5, item.LikeCount)
	assert.True(t, item.Liked)

	h.api.likeResult = questapi.LikeResult{Liked: false, LikeCount: 4}
	require.NoError(t, h.ctrl.ToggleLike(context.Background()))
	assert.Equal(t, 1, h.api.callCount("like s1"))
	assert.Equal(t, 1, h.api.callCount("unlike s1"))
}

func TestLikeFailureLeavesStateAndNotifies(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.likeErr = &questapi.APIError{Status: 403, Message: "Login required"}
	h.api.states["s1"] = questapi.SubmissionState{LikeCount: 2}
	view := submission("s1")
	require.NoError(t, h.ctrl.Show(view))
	h.ctrl.Wait()

	assert.Error(t, h.ctrl.ToggleLike(context.Background()))
	m := h.ctrl.Snapshot()
	assert.Equal(t, 2, m.LikeCount)
	assert.False(t, m.Liked)
	assert.Equal(t, []notice{{NoticeError, "Login required"}}, h.notifier.all())
}

func repliesN(n int) []questapi.Reply {
	out := make([]questapi.Reply, n)
	for i := range out {
		out[i] = questapi.Reply{ID: questapi.ID(string(rune('a' + i))), UserDisplay: "u", Content: "r"}
	}
	return out
}

func TestTenthReplyDisablesForm(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.replies["s1"] = repliesN(9)
	h.api.replyOutcome = questapi.ReplyOutcome{
		Kind:  questapi.ReplyPosted,
		Reply: questapi.Reply{ID: "new", UserID: "99", UserDisplay: "Me", Content: "tenth"},
	}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()
	require.True(t, h.ctrl.Snapshot().ReplyFormEnabled())

	require.NoError(t, h.ctrl.PostReply(context.Background(), "  tenth  "))
	m := h.view.last()
	require.Len(t, m.Replies, 10)
	assert.Equal(t, "tenth", m.Replies[0].Content, "new replies go on top")
	assert.True(t, m.ReplyLimitReached)
	assert.False(t, m.ReplyFormEnabled())
	assert.Equal(t, 1, h.view.clears)

	assert.ErrorIs(t, h.ctrl.PostReply(context.Background(), "eleventh"), ErrReplyLimit)
	assert.Equal(t, 1, h.api.callCount("reply s1"))
}

func TestServerLimitResponseDisablesForm(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.replyOutcome = questapi.ReplyOutcome{Kind: questapi.ReplyLimitReached}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	assert.ErrorIs(t, h.ctrl.PostReply(context.Background(), "hi"), ErrReplyLimit)
	assert.True(t, h.ctrl.Snapshot().ReplyLimitReached)
	assert.Empty(t, h.notifier.all(), "limit is not a generic error")
}

func TestDuplicateReplyKeepsFormEnabled(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.replyOutcome = questapi.ReplyOutcome{Kind: questapi.ReplyDuplicate}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	assert.ErrorIs(t, h.ctrl.PostReply(context.Background(), "hi"), ErrDuplicateReply)
	m := h.ctrl.Snapshot()
	assert.Empty(t, m.Replies)
	assert.True(t, m.ReplyFormEnabled())
	assert.Equal(t, []notice{{NoticeWarning, DuplicateReplyNotice}}, h.notifier.all())
	assert.Equal(t, 0, h.view.clears)
}

func TestGenericReplyFailure(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.api.replyOutcome = questapi.ReplyOutcome{Kind: questapi.ReplyFailed, Err: errors.New("boom")}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	assert.Error(t, h.ctrl.PostReply(context.Background(), "hi"))
	assert.Equal(t, []notice{{NoticeError, "Failed to post reply."}}, h.notifier.all())
	assert.True(t, h.ctrl.Snapshot().ReplyFormEnabled())
}

func TestEmptyReplyIsNoop(t *testing.T) {
	h := newHarness(t, visitorViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	assert.NoError(t, h.ctrl.PostReply(context.Background(), "   "))
	assert.Equal(t, 0, h.api.callCount("reply s1"))
	h.ctrl.Wait()
}

func TestReplyAuthorOpensProfile(t *testing.T) {
	h := newHarness(t, visitorViewer())
	h.ctrl.OpenReplyAuthor("42")
	h.ctrl.OpenReplyAuthor("")
	assert.Equal(t, []string{"42"}, h.profiles)
}

func TestCommentEditRoundTrip(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.commentResult = questapi.CommentResult{Comment: "second try"}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.BeginCommentEdit())
	m := h.ctrl.Snapshot()
	assert.Equal(t, StateEditingComment, m.State)
	assert.Equal(t, "first try", m.CommentDraft)
	assert.False(t, m.Controls.EditPhoto, "photo editing hidden while editing the comment")

	require.NoError(t, h.ctrl.SaveComment(context.Background(), " second try "))
	m = h.ctrl.Snapshot()
	assert.Equal(t, "second try", m.Comment)
	assert.False(t, m.CommentEditing)
	assert.Equal(t, StateReady, m.State)
}

func TestCommentSaveFailureStaysInEditMode(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.commentErr = &questapi.APIError{Status: 500}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.BeginCommentEdit())
	assert.Error(t, h.ctrl.SaveComment(context.Background(), "new"))
	m := h.ctrl.Snapshot()
	assert.True(t, m.CommentEditing)
	assert.Equal(t, "new", m.CommentDraft)
	assert.Equal(t, "first try", m.Comment)
	assert.Equal(t, []notice{{NoticeError, "Failed to update comment."}}, h.notifier.all())

	h.ctrl.CancelCommentEdit()
	assert.False(t, h.ctrl.Snapshot().CommentEditing)
}

func TestEmptyCommentFallsBack(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.commentResult = questapi.CommentResult{Comment: ""}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginCommentEdit())
	require.NoError(t, h.ctrl.SaveComment(context.Background(), ""))
	assert.Equal(t, NoCommentText, h.ctrl.Snapshot().Comment)
	h.ctrl.Wait()
}

func TestEditModesAreExclusive(t *testing.T) {
	h := newHarness(t, ownerViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginPhotoEdit())
	assert.ErrorIs(t, h.ctrl.BeginCommentEdit(), ErrEditInProgress)
	m := h.ctrl.Snapshot()
	assert.Equal(t, StateEditingPhoto, m.State)
	assert.False(t, m.Controls.EditComment)
	assert.False(t, m.Controls.EditPhoto)

	h.ctrl.CancelPhotoEdit()
	require.NoError(t, h.ctrl.BeginCommentEdit())
	assert.ErrorIs(t, h.ctrl.BeginPhotoEdit(), ErrEditInProgress)
	h.ctrl.Wait()
}

func TestOversizedImageRejectedBeforeNetwork(t *testing.T) {
	h := newHarness(t, ownerViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginPhotoEdit())

	err := h.ctrl.SavePhoto(context.Background(), media.File{Name: "pic.jpg", ContentType: "image/jpeg", Size: 9 * megabyte})
	assert.ErrorIs(t, err, media.ErrImageTooLarge)
	assert.Equal(t, 0, h.api.callCount("media s1"))
	assert.Equal(t, []notice{{NoticeError, "Image must be 8 MB or smaller"}}, h.notifier.all())
	assert.True(t, h.ctrl.Snapshot().PhotoEditing)
	h.ctrl.Wait()
}

func TestOverlongVideoRejected(t *testing.T) {
	h := newHarness(t, ownerViewer(), func(o *Options) {
		o.Prober = media.ProberFunc(func(context.Context, media.File) (time.Duration, error) { return 12 * time.Second, nil })
	})
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginPhotoEdit())

	err := h.ctrl.SavePhoto(context.Background(), media.File{Name: "clip.mp4", ContentType: "video/mp4", Size: megabyte})
	assert.ErrorIs(t, err, media.ErrVideoTooLong)
	assert.Equal(t, 0, h.api.callCount("media s1"))
	h.ctrl.Wait()
}

func TestVideoUploadSwapsMedia(t *testing.T) {
	h := newHarness(t, ownerViewer(), func(o *Options) {
		o.Prober = media.ProberFunc(func(context.Context, media.File) (time.Duration, error) { return 3 * time.Second, nil })
	})
	h.api.mediaResult = questapi.MediaResult{VideoURL: "/v/new.mp4"}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginPhotoEdit())

	require.NoError(t, h.ctrl.SavePhoto(context.Background(), media.File{Name: "clip.mp4", ContentType: "video/mp4", Size: megabyte}))
	require.Len(t, h.api.uploads, 1)
	assert.Equal(t, "video", h.api.uploads[0].Field)
	assert.Equal(t, []byte("mp4"), h.api.uploads[0].Body)

	m := h.ctrl.Snapshot()
	assert.Equal(t, Media{Kind: MediaVideo, URL: "/v/new.mp4"}, m.Media)
	assert.False(t, m.PhotoEditing)
	assert.True(t, m.Controls.EditPhoto)
	h.ctrl.Wait()
}

func TestPhotoUploadFailureKeepsEditing(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.mediaErr = &questapi.APIError{Status: 400, Message: "Unsupported file type"}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.BeginPhotoEdit())

	assert.Error(t, h.ctrl.SavePhoto(context.Background(), media.File{Name: "pic.jpg", ContentType: "image/jpeg", Size: 10}))
	m := h.ctrl.Snapshot()
	assert.True(t, m.PhotoEditing)
	assert.Equal(t, "/img/s1.jpg", m.Media.URL)
	assert.Equal(t, []notice{{NoticeError, "Unsupported file type"}}, h.notifier.all())
	h.ctrl.Wait()
}

func TestDeleteCascade(t *testing.T) {
	h := newHarness(t, ownerViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.Delete(context.Background()))
	assert.Equal(t, 1, h.api.callCount("delete s1"))
	assert.Equal(t, 1, h.modal.closes)
	assert.Equal(t, 1, h.modal.reset)
	assert.Equal(t, []string{"q1"}, h.refreshs)
	assert.Equal(t, []notice{{NoticeInfo, DeletedNotice}}, h.notifier.all())
	assert.Equal(t, StateClosed, h.view.last().State)
	assert.ErrorIs(t, h.ctrl.ToggleLike(context.Background()), ErrClosed)
}

func TestDeleteWithoutQuestSkipsRefresh(t *testing.T) {
	h := newHarness(t, ownerViewer())
	view := submission("s1")
	view.QuestID = ""
	require.NoError(t, h.ctrl.Show(view))
	require.NoError(t, h.ctrl.Delete(context.Background()))
	assert.Empty(t, h.refreshs)
	h.ctrl.Wait()
}

func TestDeleteDeclinedSendsNothing(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.confirm = false
	require.NoError(t, h.ctrl.Show(submission("s1")))
	require.NoError(t, h.ctrl.Delete(context.Background()))
	assert.Equal(t, 0, h.api.callCount("delete s1"))
	assert.Equal(t, 0, h.modal.closes)
	h.ctrl.Wait()
}

func TestDeleteFailureKeepsModalOpen(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.deleteErr = &questapi.APIError{Status: 403, Message: "Not allowed"}
	require.NoError(t, h.ctrl.Show(submission("s1")))
	assert.Error(t, h.ctrl.Delete(context.Background()))
	assert.Equal(t, 0, h.modal.closes)
	assert.Empty(t, h.refreshs)
	assert.False(t, h.ctrl.Snapshot().Deleting)
	assert.Equal(t, []notice{{NoticeError, "Not allowed"}}, h.notifier.all())
	h.ctrl.Wait()
}

func TestSecondDeleteWhileInFlightIsRejected(t *testing.T) {
	h := newHarness(t, ownerViewer())
	h.api.deleteGate = make(chan struct{})
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Wait()

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Delete(context.Background()) }()

	require.Eventually(t, func() bool { return h.api.callCount("delete s1") == 1 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.ctrl.Delete(context.Background()), ErrBusy)
	assert.True(t, h.ctrl.Snapshot().Deleting)

	close(h.api.deleteGate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, h.api.callCount("delete s1"))
}

func TestShowRacingDispose(t *testing.T) {
	for i := 0; i < 50; i++ {
		h := newHarness(t, visitorViewer())
		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := h.ctrl.Show(submission("s1"))
				if err != nil {
					assert.ErrorIs(t, err, ErrDisposed)
				}
			}()
		}
		h.ctrl.Dispose()
		wg.Wait()
		h.ctrl.Wait()
	}
}

func TestCloseAndDispose(t *testing.T) {
	h := newHarness(t, visitorViewer())
	require.NoError(t, h.ctrl.Show(submission("s1")))
	h.ctrl.Close()
	assert.Equal(t, 1, h.modal.closes)
	assert.Equal(t, StateClosed, h.ctrl.Snapshot().State)

	h.ctrl.Dispose()
	assert.ErrorIs(t, h.ctrl.Show(submission("s2")), ErrDisposed)
}
