//go:build js && wasm

// Command gallery is the browser build of the submission detail modal. It
// binds the modal scaffold in index.html once, exposes showSubmissionDetail
// on window, and drives internal/detail against the live DOM.
package main

import (
	"context"
	"strconv"
	"strings"
	"syscall/js"
	"time"

	"quest-ui/internal/detail"
	"quest-ui/internal/gallery"
	"quest-ui/internal/logging"
	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

const actionTimeout = 30 * time.Second

var (
	document = js.Global().Get("document")
	window   = js.Global()
	logger   = logging.WithPrefix(logging.New(), "gallery")
	handlers []js.Func
)

func main() {
	done := make(chan struct{})

	els, ok := bindElements()
	if !ok {
		logger.Printf("submission detail modal scaffold missing; detail view disabled")
		<-done
	}

	client := &questapi.Client{
		BaseURL: window.Get("location").Get("origin").String(),
		Tokens:  questapi.TokenFunc(metaToken),
		Logger:  logger,
	}
	view := newDOMView(els)
	settings := els.modal.Get("dataset")
	ctrl, err := detail.New(detail.Options{
		API:       client,
		View:      view,
		Modal:     domModal{els: els},
		Session:   datasetSession{modal: els.modal},
		Notifier:  detail.NotifierFunc(alert),
		Confirmer: detail.ConfirmFunc(confirm),
		Files:     browserFiles{},
		Prober:    videoProber{},
		Preloader: imagePreloader{},
		Hooks: detail.Hooks{
			RefreshQuest: func(questID string) { callGlobal("refreshQuestDetailModal", questID) },
			OpenProfile:  func(userID string) { callGlobal("showUserProfileModal", userID) },
		},
		Logger: logging.New(),
		Limits: media.LimitsFrom(
			datasetInt(settings, "maxImageMb"),
			datasetInt(settings, "maxVideoMb"),
			datasetInt(settings, "maxVideoSeconds"),
		),
		MaxReplies:       datasetInt(settings, "maxReplies"),
		PlaceholderImage: datasetString(settings, "placeholderImage"),
	})
	if err != nil {
		logger.Printf("build detail controller: %v", err)
		<-done
	}

	bindControls(els, ctrl, view)
	exposeGlobals(ctrl)
	<-done
}

func exposeGlobals(ctrl *detail.Controller) {
	expose("showSubmissionDetail", func(args []js.Value) {
		if len(args) == 0 {
			logger.Printf("showSubmissionDetail called without a submission")
			return
		}
		view := viewFromJS(args[0])
		go func() {
			if err := ctrl.Show(view); err != nil {
				logger.Printf("show submission: %v", err)
			}
		}()
	})
	expose("closeSubmissionDetail", func([]js.Value) {
		go ctrl.Close()
	})
}

func bindControls(els elements, ctrl *detail.Controller, view *domView) {
	onClick(els.likeButton, func(js.Value) {
		act("toggle like", func(ctx context.Context) error { return ctrl.ToggleLike(ctx) })
	})
	onClick(els.editCommentButton, func(js.Value) {
		act("edit comment", func(context.Context) error { return ctrl.BeginCommentEdit() })
	})
	onClick(els.cancelCommentButton, func(js.Value) { go ctrl.CancelCommentEdit() })
	onClick(els.saveCommentButton, func(js.Value) {
		text := els.commentEditor.Get("value").String()
		act("save comment", func(ctx context.Context) error { return ctrl.SaveComment(ctx, text) })
	})
	onClick(els.editPhotoButton, func(js.Value) {
		act("edit photo", func(context.Context) error { return ctrl.BeginPhotoEdit() })
	})
	onClick(els.cancelPhotoButton, func(js.Value) {
		els.photoInput.Set("value", "")
		go ctrl.CancelPhotoEdit()
	})
	onClick(els.savePhotoButton, func(js.Value) {
		file := selectedFile(els.photoInput)
		act("save photo", func(ctx context.Context) error { return ctrl.SavePhoto(ctx, file) })
	})
	onClick(els.deleteButton, func(js.Value) {
		act("delete submission", func(ctx context.Context) error { return ctrl.Delete(ctx) })
	})
	onClick(els.postReplyButton, func(js.Value) {
		text := els.replyInput.Get("value").String()
		act("post reply", func(ctx context.Context) error { return ctrl.PostReply(ctx, text) })
	})
	onClick(els.prevButton, func(js.Value) {
		act("previous submission", func(context.Context) error { return ctrl.Prev() })
	})
	onClick(els.nextButton, func(js.Value) {
		act("next submission", func(context.Context) error { return ctrl.Next() })
	})
	onClick(els.authorName, func(js.Value) { go ctrl.OpenAuthor() })
	onClick(els.closeButton, func(js.Value) { go ctrl.Close() })
	onClick(els.replyList, func(event js.Value) {
		target := event.Get("target")
		if !target.Truthy() || target.Get("closest").Type() != js.TypeFunction {
			return
		}
		author := target.Call("closest", "[data-user-id]")
		if !author.Truthy() {
			return
		}
		userID := author.Get("dataset").Get("userId").String()
		go ctrl.OpenReplyAuthor(userID)
	})
}

// act runs an action off the event loop; blocking inside a js.Func callback
// would deadlock the fetch it waits on.
func act(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Printf("%s: %v", name, err)
		}
	}()
}

func onClick(el js.Value, fn func(event js.Value)) {
	if !el.Truthy() {
		return
	}
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		var event js.Value
		if len(args) > 0 {
			event = args[0]
		}
		fn(event)
		return nil
	})
	handlers = append(handlers, f)
	el.Call("addEventListener", "click", f)
}

func expose(name string, fn func(args []js.Value)) {
	f := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn(args)
		return nil
	})
	handlers = append(handlers, f)
	window.Set(name, f)
}

func callGlobal(name string, arg string) {
	fn := window.Get(name)
	if fn.Type() != js.TypeFunction {
		logger.Printf("%s is not available", name)
		return
	}
	fn.Invoke(arg)
}

// viewFromJS converts the plain object callers pass to showSubmissionDetail.
func viewFromJS(v js.Value) detail.SubmissionView {
	view := detail.SubmissionView{
		Item:     itemFromJS(v),
		ReadOnly: jsBool(v, "read_only"),
	}
	items := v.Get("album_items")
	if items.Type() != js.TypeObject || items.Get("length").Type() != js.TypeNumber {
		return view
	}
	n := items.Get("length").Int()
	list := make([]gallery.Item, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, itemFromJS(items.Index(i)))
	}
	index := -1
	if raw := v.Get("album_index"); raw.Type() == js.TypeNumber {
		index = raw.Int()
	}
	if album := gallery.NewAlbum(list); album.Valid(index) {
		view.Album = album
		view.AlbumIndex = index
	}
	return view
}

func itemFromJS(v js.Value) gallery.Item {
	return gallery.Item{
		ID:                 jsString(v, "id"),
		QuestID:            jsString(v, "quest_id"),
		URL:                jsString(v, "url"),
		VideoURL:           jsString(v, "video_url"),
		Comment:            jsString(v, "comment"),
		UserID:             jsString(v, "user_id"),
		UserDisplayName:    jsString(v, "user_display_name"),
		UserUsername:       jsString(v, "user_username"),
		UserProfilePicture: jsString(v, "user_profile_picture"),
		TwitterURL:         jsString(v, "twitter_url"),
		FacebookURL:        jsString(v, "fb_url"),
		InstagramURL:       jsString(v, "instagram_url"),
		LikeCount:          jsInt(v, "like_count"),
		Liked:              jsBool(v, "liked_by_current_user"),
	}
}

func jsString(v js.Value, key string) string {
	if v.Type() != js.TypeObject {
		return ""
	}
	field := v.Get(key)
	switch field.Type() {
	case js.TypeString:
		return field.String()
	case js.TypeNumber:
		return strconv.FormatFloat(field.Float(), 'f', -1, 64)
	default:
		return ""
	}
}

func jsInt(v js.Value, key string) int {
	if v.Type() != js.TypeObject {
		return 0
	}
	field := v.Get(key)
	switch field.Type() {
	case js.TypeNumber:
		return field.Int()
	case js.TypeString:
		n, _ := strconv.Atoi(strings.TrimSpace(field.String()))
		return n
	default:
		return 0
	}
}

func jsBool(v js.Value, key string) bool {
	if v.Type() != js.TypeObject {
		return false
	}
	return v.Get(key).Truthy()
}

func selectedFile(input js.Value) media.File {
	if !input.Truthy() {
		return media.File{}
	}
	files := input.Get("files")
	if !files.Truthy() || files.Get("length").Int() == 0 {
		return media.File{}
	}
	f := files.Index(0)
	return media.File{
		Name:        f.Get("name").String(),
		ContentType: f.Get("type").String(),
		Size:        int64(f.Get("size").Float()),
		Handle:      f,
	}
}
