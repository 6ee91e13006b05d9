//go:build js && wasm

package main

import (
	"html"
	"strconv"
	"strings"
	"syscall/js"

	"quest-ui/internal/detail"
)

const modalID = "submissionDetailModal"

// elements is the modal scaffold, looked up once at startup.
type elements struct {
	modal js.Value

	image js.Value
	video js.Value

	avatar        js.Value
	authorName    js.Value
	twitterLink   js.Value
	facebookLink  js.Value
	instagramLink js.Value

	comment             js.Value
	commentEditor       js.Value
	commentReadButtons  js.Value
	commentEditButtons  js.Value
	editCommentButton   js.Value
	saveCommentButton   js.Value
	cancelCommentButton js.Value

	editPhotoButton   js.Value
	photoControls     js.Value
	photoInput        js.Value
	savePhotoButton   js.Value
	cancelPhotoButton js.Value

	deleteButton js.Value

	likeButton js.Value
	likeCount  js.Value

	repliesSection  js.Value
	replyList       js.Value
	replyForm       js.Value
	replyInput      js.Value
	postReplyButton js.Value
	replyLimit      js.Value

	nav        js.Value
	prevButton js.Value
	nextButton js.Value

	closeButton js.Value
}

func byID(id string) js.Value {
	return document.Call("getElementById", id)
}

// bindElements resolves the scaffold. Only the modal and the media elements
// are required; every other control degrades to absent.
func bindElements() (elements, bool) {
	els := elements{
		modal:               byID(modalID),
		image:               byID("submissionImage"),
		video:               byID("submissionVideo"),
		avatar:              byID("submitterAvatar"),
		authorName:          byID("submitterName"),
		twitterLink:         byID("twitterLink"),
		facebookLink:        byID("facebookLink"),
		instagramLink:       byID("instagramLink"),
		comment:             byID("submissionComment"),
		commentEditor:       byID("submissionCommentEditor"),
		commentReadButtons:  byID("commentReadButtons"),
		commentEditButtons:  byID("commentEditButtons"),
		editCommentButton:   byID("editCommentButton"),
		saveCommentButton:   byID("saveCommentButton"),
		cancelCommentButton: byID("cancelCommentButton"),
		editPhotoButton:     byID("editPhotoButton"),
		photoControls:       byID("photoEditControls"),
		photoInput:          byID("photoInput"),
		savePhotoButton:     byID("savePhotoButton"),
		cancelPhotoButton:   byID("cancelPhotoButton"),
		deleteButton:        byID("deleteSubmissionButton"),
		likeButton:          byID("likeButton"),
		likeCount:           byID("likeCount"),
		repliesSection:      byID("repliesSection"),
		replyList:           byID("replyList"),
		replyForm:           byID("replyForm"),
		replyInput:          byID("replyInput"),
		postReplyButton:     byID("postReplyButton"),
		replyLimit:          byID("replyLimitNotice"),
		nav:                 byID("submissionNav"),
		prevButton:          byID("prevSubmission"),
		nextButton:          byID("nextSubmission"),
		closeButton:         byID("closeSubmissionModal"),
	}
	ok := els.modal.Truthy() && els.image.Truthy() && els.video.Truthy()
	return els, ok
}

// domView maps detail.Model snapshots onto the scaffold.
type domView struct {
	els         elements
	videoSrc    string
	wasEditing  bool
	lastReplies string
}

func newDOMView(els elements) *domView {
	return &domView{els: els}
}

func (v *domView) Render(m detail.Model) {
	els := v.els
	dataset := els.modal.Get("dataset")
	dataset.Set("submissionId", m.SubmissionID)
	dataset.Set("questId", m.QuestID)
	if m.State == detail.StateClosed {
		v.videoSrc = ""
		v.wasEditing = false
		v.lastReplies = ""
		return
	}

	v.renderMedia(m.Media)

	setAttr(els.avatar, "src", m.Author.AvatarURL)
	setText(els.authorName, m.Author.Name)
	setLink(els.twitterLink, m.Author.TwitterURL)
	setLink(els.facebookLink, m.Author.FacebookURL)
	setLink(els.instagramLink, m.Author.InstagramURL)

	setText(els.comment, m.Comment)
	setHidden(els.comment, m.CommentEditing)
	setHidden(els.commentEditor, !m.CommentEditing)
	setHidden(els.commentReadButtons, m.CommentEditing || !m.Controls.EditComment)
	setHidden(els.commentEditButtons, !m.CommentEditing)
	if m.CommentEditing && !v.wasEditing && els.commentEditor.Truthy() {
		els.commentEditor.Set("value", m.CommentDraft)
	}
	v.wasEditing = m.CommentEditing
	setDisabled(els.saveCommentButton, m.CommentSaving)

	setHidden(els.editPhotoButton, !m.Controls.EditPhoto)
	setHidden(els.photoControls, !m.PhotoEditing)
	if !m.PhotoEditing && els.photoInput.Truthy() {
		els.photoInput.Set("value", "")
	}
	setDisabled(els.savePhotoButton, m.PhotoSaving)

	setHidden(els.deleteButton, !m.Controls.Delete)
	setDisabled(els.deleteButton, m.Deleting)

	setHidden(els.likeButton, !m.Controls.Like)
	setDisabled(els.likeButton, m.LikePending)
	toggleClass(els.likeButton, "active", m.Liked)
	setText(els.likeCount, strconv.Itoa(m.LikeCount))

	setHidden(els.repliesSection, !m.Controls.Replies)
	setHidden(els.replyForm, !m.Controls.ReplyForm)
	setDisabled(els.replyInput, !m.ReplyFormEnabled())
	setDisabled(els.postReplyButton, !m.ReplyFormEnabled())
	setHidden(els.replyLimit, !m.ReplyLimitReached)
	if m.ReplyLimitReached {
		setText(els.replyLimit, detail.ReplyLimitNotice)
	}
	v.renderReplies(m.Replies)

	setHidden(els.nav, !m.Nav.Visible)
	setDisabled(els.prevButton, !m.Nav.PrevEnabled)
	setDisabled(els.nextButton, !m.Nav.NextEnabled)
}

func (v *domView) ClearReplyInput() {
	if v.els.replyInput.Truthy() {
		v.els.replyInput.Set("value", "")
	}
}

func (v *domView) renderMedia(m detail.Media) {
	els := v.els
	if m.Kind == detail.MediaVideo {
		setHidden(els.image, true)
		setHidden(els.video, false)
		if v.videoSrc != m.URL {
			v.videoSrc = m.URL
			els.video.Set("src", m.URL)
			els.video.Call("load")
		}
		return
	}
	if v.videoSrc != "" {
		els.video.Call("pause")
		els.video.Call("removeAttribute", "src")
		els.video.Call("load")
		v.videoSrc = ""
	}
	setHidden(els.video, true)
	setHidden(els.image, false)
	els.image.Set("src", m.URL)
}

func (v *domView) renderReplies(rows []detail.ReplyRow) {
	if !v.els.replyList.Truthy() {
		return
	}
	var builder strings.Builder
	for _, r := range rows {
		builder.WriteString(`<li class="reply">`)
		builder.WriteString(`<button type="button" class="reply-author" data-user-id="`)
		builder.WriteString(html.EscapeString(r.UserID))
		builder.WriteString(`">`)
		builder.WriteString(html.EscapeString(r.Author))
		builder.WriteString(`</button>`)
		builder.WriteString(`<p class="reply-content">`)
		builder.WriteString(html.EscapeString(r.Content))
		builder.WriteString(`</p></li>`)
	}
	markup := builder.String()
	if markup == v.lastReplies {
		return
	}
	v.lastReplies = markup
	v.els.replyList.Set("innerHTML", markup)
}

// domModal opens and closes the modal through the page's modal manager when
// present, falling back to toggling the element directly.
type domModal struct {
	els elements
}

func (m domModal) Open() {
	if fn := window.Get("openModal"); fn.Type() == js.TypeFunction {
		fn.Invoke(modalID)
		return
	}
	setHidden(m.els.modal, false)
	m.els.modal.Get("classList").Call("add", "open")
}

func (m domModal) Close() {
	if fn := window.Get("closeModal"); fn.Type() == js.TypeFunction {
		fn.Invoke(modalID)
		return
	}
	m.els.modal.Get("classList").Call("remove", "open")
	setHidden(m.els.modal, true)
}

func (m domModal) Reset() {
	if fn := window.Get("resetModalContent"); fn.Type() == js.TypeFunction {
		fn.Invoke()
	}
	setText(m.els.comment, "")
	setText(m.els.likeCount, "0")
	if m.els.replyList.Truthy() {
		m.els.replyList.Set("innerHTML", "")
	}
}

func setText(el js.Value, text string) {
	if el.Truthy() {
		el.Set("textContent", text)
	}
}

func setAttr(el js.Value, name, value string) {
	if el.Truthy() {
		el.Call("setAttribute", name, value)
	}
}

func setHidden(el js.Value, hidden bool) {
	if el.Truthy() {
		el.Set("hidden", hidden)
	}
}

func setDisabled(el js.Value, disabled bool) {
	if el.Truthy() {
		el.Set("disabled", disabled)
	}
}

func toggleClass(el js.Value, class string, on bool) {
	if el.Truthy() {
		el.Get("classList").Call("toggle", class, on)
	}
}

func setLink(el js.Value, href string) {
	if !el.Truthy() {
		return
	}
	if href == "" {
		el.Call("removeAttribute", "href")
		el.Set("hidden", true)
		return
	}
	el.Set("href", href)
	el.Set("hidden", false)
}
