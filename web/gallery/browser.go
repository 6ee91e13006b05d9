//go:build js && wasm

package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"syscall/js"
	"time"

	"quest-ui/internal/detail"
	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

var errNoHandle = errors.New("selected file has no browser handle")

func alert(_ detail.NoticeKind, message string) {
	window.Call("alert", message)
}

func confirm(message string) bool {
	return window.Call("confirm", message).Truthy()
}

// metaToken reads the page's csrf-token meta tag at request time so tokens
// rotated by other scripts are picked up.
func metaToken(context.Context) (string, error) {
	meta := document.Call("querySelector", `meta[name="csrf-token"]`)
	if !meta.Truthy() {
		return "", questapi.ErrTokenNotFound
	}
	token := meta.Call("getAttribute", "content")
	if token.Type() != js.TypeString || strings.TrimSpace(token.String()) == "" {
		return "", questapi.ErrTokenNotFound
	}
	return strings.TrimSpace(token.String()), nil
}

// datasetSession reads the viewer from data-current-user-id and data-is-admin
// on the modal element.
type datasetSession struct {
	modal js.Value
}

func (s datasetSession) Viewer() detail.Viewer {
	dataset := s.modal.Get("dataset")
	return detail.Viewer{
		UserID: datasetString(dataset, "currentUserId"),
		Admin:  datasetString(dataset, "isAdmin"),
	}
}

func datasetString(dataset js.Value, key string) string {
	v := dataset.Get(key)
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

func datasetInt(dataset js.Value, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(datasetString(dataset, key)))
	if err != nil {
		return 0
	}
	return n
}

type browserFiles struct{}

func (browserFiles) ReadFile(ctx context.Context, file media.File) ([]byte, error) {
	blob, ok := file.Handle.(js.Value)
	if !ok || !blob.Truthy() {
		return nil, errNoHandle
	}
	buf, err := await(ctx, blob.Call("arrayBuffer"))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name, err)
	}
	bytes := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, bytes.Get("length").Int())
	js.CopyBytesToGo(data, bytes)
	return data, nil
}

// videoProber loads only the metadata of the selected file into a detached
// video element and reports its duration.
type videoProber struct{}

func (videoProber) Duration(ctx context.Context, file media.File) (time.Duration, error) {
	blob, ok := file.Handle.(js.Value)
	if !ok || !blob.Truthy() {
		return 0, errNoHandle
	}
	urlAPI := window.Get("URL")
	src := urlAPI.Call("createObjectURL", blob)
	video := document.Call("createElement", "video")
	video.Set("preload", "metadata")

	type probe struct {
		seconds float64
		err     error
	}
	ch := make(chan probe, 1)
	onLoad := js.FuncOf(func(js.Value, []js.Value) any {
		select {
		case ch <- probe{seconds: video.Get("duration").Float()}:
		default:
		}
		return nil
	})
	onError := js.FuncOf(func(js.Value, []js.Value) any {
		select {
		case ch <- probe{err: errors.New("video metadata could not be loaded")}:
		default:
		}
		return nil
	})
	defer func() {
		video.Set("onloadedmetadata", js.Null())
		video.Set("onerror", js.Null())
		video.Call("removeAttribute", "src")
		urlAPI.Call("revokeObjectURL", src)
		onLoad.Release()
		onError.Release()
	}()
	video.Set("onloadedmetadata", onLoad)
	video.Set("onerror", onError)
	video.Set("src", src)

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case p := <-ch:
		if p.err != nil {
			return 0, p.err
		}
		if math.IsNaN(p.seconds) || math.IsInf(p.seconds, 0) || p.seconds < 0 {
			return 0, fmt.Errorf("invalid video duration %v", p.seconds)
		}
		return time.Duration(p.seconds * float64(time.Second)), nil
	}
}

type imagePreloader struct{}

func (imagePreloader) Preload(url string) {
	img := js.Global().Get("Image").New()
	img.Set("src", url)
}

// await blocks until promise settles or ctx ends. The callbacks stay alive
// until the promise settles either way.
func await(ctx context.Context, promise js.Value) (js.Value, error) {
	type settled struct {
		value js.Value
		err   error
	}
	ch := make(chan settled, 1)
	onResolve := js.FuncOf(func(_ js.Value, args []js.Value) any {
		var v js.Value
		if len(args) > 0 {
			v = args[0]
		}
		ch <- settled{value: v}
		return nil
	})
	onReject := js.FuncOf(func(_ js.Value, args []js.Value) any {
		reason := "promise rejected"
		if len(args) > 0 && args[0].Truthy() {
			reason = args[0].Call("toString").String()
		}
		ch <- settled{err: errors.New(reason)}
		return nil
	})
	release := func() {
		onResolve.Release()
		onReject.Release()
	}
	promise.Call("then", onResolve, onReject)

	select {
	case s := <-ch:
		release()
		return s.value, s.err
	case <-ctx.Done():
		go func() {
			<-ch
			release()
		}()
		return js.Value{}, ctx.Err()
	}
}
