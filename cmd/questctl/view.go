package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"quest-ui/internal/detail"
)

// textView keeps the latest model; show prints it once the background
// refreshes have settled.
type textView struct {
	mu   sync.Mutex
	last detail.Model
}

func (v *textView) Render(m detail.Model) {
	v.mu.Lock()
	v.last = m
	v.mu.Unlock()
}

func (v *textView) ClearReplyInput() {}

func (v *textView) Model() detail.Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

type nopModal struct{}

func (nopModal) Open()  {}
func (nopModal) Close() {}
func (nopModal) Reset() {}

func printModel(w io.Writer, m detail.Model) {
	fmt.Fprintf(w, "Submission %s", m.SubmissionID)
	if m.QuestID != "" {
		fmt.Fprintf(w, " (quest %s)", m.QuestID)
	}
	fmt.Fprintln(w)

	kind := "image"
	if m.Media.Kind == detail.MediaVideo {
		kind = "video"
	}
	fmt.Fprintf(w, "  %-9s %s\n", kind+":", m.Media.URL)
	fmt.Fprintf(w, "  %-9s %s\n", "author:", m.Author.Name)
	for _, link := range []struct{ name, url string }{
		{"twitter", m.Author.TwitterURL},
		{"facebook", m.Author.FacebookURL},
		{"instagram", m.Author.InstagramURL},
	} {
		if link.url != "" {
			fmt.Fprintf(w, "  %-9s %s\n", link.name+":", link.url)
		}
	}
	fmt.Fprintf(w, "  %-9s %s\n", "comment:", m.Comment)

	if m.Controls.Like {
		liked := ""
		if m.Liked {
			liked = ", liked by you"
		}
		fmt.Fprintf(w, "  %-9s %d%s\n", "likes:", m.LikeCount, liked)
	}
	if m.Controls.Replies {
		fmt.Fprintf(w, "  %-9s %d\n", "replies:", len(m.Replies))
		for _, r := range m.Replies {
			fmt.Fprintf(w, "    %s: %s\n", r.Author, r.Content)
		}
		if m.ReplyLimitReached {
			fmt.Fprintf(w, "    %s\n", detail.ReplyLimitNotice)
		}
	}

	var controls []string
	for _, c := range []struct {
		name string
		on   bool
	}{
		{"edit-photo", m.Controls.EditPhoto},
		{"edit-comment", m.Controls.EditComment},
		{"delete", m.Controls.Delete},
		{"like", m.Controls.Like},
		{"reply", m.ReplyFormEnabled()},
	} {
		if c.on {
			controls = append(controls, c.name)
		}
	}
	if len(controls) == 0 {
		controls = []string{"none"}
	}
	fmt.Fprintf(w, "  %-9s %s\n", "controls:", strings.Join(controls, ", "))
}
