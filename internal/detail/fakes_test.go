package detail

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"quest-ui/internal/media"
	"quest-ui/internal/questapi"
)

type fakeAPI struct {
	mu sync.Mutex

	states    map[string]questapi.SubmissionState
	replies   map[string][]questapi.Reply
	replyGate map[string]chan struct{}
	stateGate map[string]chan struct{}
	stateErr  error

	likeResult questapi.LikeResult
	likeErr    error

	replyOutcome questapi.ReplyOutcome

	commentResult questapi.CommentResult
	commentErr    error

	mediaResult questapi.MediaResult
	mediaErr    error
	uploads     []questapi.Upload

	deleteErr  error
	deleteGate chan struct{}

	calls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		states:    map[string]questapi.SubmissionState{},
		replies:   map[string][]questapi.Reply{},
		replyGate: map[string]chan struct{}{},
		stateGate: map[string]chan struct{}{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// SubmissionState, like Replies, answers a gated call even after ctx is done.
func (f *fakeAPI) SubmissionState(ctx context.Context, id string) (questapi.SubmissionState, error) {
	f.record("state " + id)
	f.mu.Lock()
	gate := f.stateGate[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return questapi.SubmissionState{}, f.stateErr
	}
	return f.states[id], nil
}

// Replies ignores ctx on purpose: a gated call answers late even after it
// was cancelled, like a response already on the wire.
func (f *fakeAPI) Replies(ctx context.Context, id string) ([]questapi.Reply, error) {
	f.record("replies " + id)
	f.mu.Lock()
	gate := f.replyGate[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies[id], nil
}

func (f *fakeAPI) Like(ctx context.Context, id string) (questapi.LikeResult, error) {
	f.record("like " + id)
	return f.likeResult, f.likeErr
}

func (f *fakeAPI) Unlike(ctx context.Context, id string) (questapi.LikeResult, error) {
	f.record("unlike " + id)
	return f.likeResult, f.likeErr
}

func (f *fakeAPI) PostReply(ctx context.Context, id, content string) questapi.ReplyOutcome {
	f.record("reply " + id)
	return f.replyOutcome
}

func (f *fakeAPI) UpdateComment(ctx context.Context, id, comment string) (questapi.CommentResult, error) {
	f.record("comment " + id)
	return f.commentResult, f.commentErr
}

func (f *fakeAPI) UpdateMedia(ctx context.Context, id string, upload questapi.Upload) (questapi.MediaResult, error) {
	f.record("media " + id)
	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	f.mu.Unlock()
	return f.mediaResult, f.mediaErr
}

func (f *fakeAPI) DeleteSubmission(ctx context.Context, id string) error {
	f.record("delete " + id)
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	return f.deleteErr
}

type recordingView struct {
	mu      sync.Mutex
	renders []Model
	clears  int
}

func (v *recordingView) Render(m Model) {
	v.mu.Lock()
	v.renders = append(v.renders, m)
	v.mu.Unlock()
}

func (v *recordingView) ClearReplyInput() {
	v.mu.Lock()
	v.clears++
	v.mu.Unlock()
}

func (v *recordingView) last() Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renders[len(v.renders)-1]
}

type fakeModal struct {
	mu                   sync.Mutex
	opens, closes, reset int
}

func (m *fakeModal) Open()  { m.mu.Lock(); m.opens++; m.mu.Unlock() }
func (m *fakeModal) Close() { m.mu.Lock(); m.closes++; m.mu.Unlock() }
func (m *fakeModal) Reset() { m.mu.Lock(); m.reset++; m.mu.Unlock() }

type notice struct {
	kind    NoticeKind
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(kind NoticeKind, message string) {
	n.mu.Lock()
	n.notices = append(n.notices, notice{kind, message})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type bytesReader map[string][]byte

func (b bytesReader) ReadFile(ctx context.Context, file media.File) ([]byte, error) {
	data, ok := b[file.Name]
	if !ok {
		return nil, fmt.Errorf("no such file %s", file.Name)
	}
	return data, nil
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type harness struct {
	api      *fakeAPI
	view     *recordingView
	modal    *fakeModal
	notifier *recordingNotifier
	ctrl     *Controller
	refreshs []string
	profiles []string
	confirm  bool
}

func newHarness(t *testing.T, viewer Viewer, tweak ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		api:      newFakeAPI(),
		view:     &recordingView{},
		modal:    &fakeModal{},
		notifier: &recordingNotifier{},
		confirm:  true,
	}
	opts := Options{
		API:       h.api,
		View:      h.view,
		Modal:     h.modal,
		Session:   StaticSession(viewer),
		Notifier:  h.notifier,
		Confirmer: ConfirmFunc(func(string) bool { return h.confirm }),
		Files:     bytesReader{"clip.mp4": []byte("mp4"), "pic.jpg": []byte("jpg")},
		Hooks: Hooks{
			RefreshQuest: func(questID string) { h.refreshs = append(h.refreshs, questID) },
			OpenProfile:  func(userID string) { h.profiles = append(h.profiles, userID) },
		},
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	ctrl, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(ctrl.Dispose)
	h.ctrl = ctrl
	return h
}
