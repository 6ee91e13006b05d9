// Package gallery holds the client-side album used for prev/next browsing
// between sibling submissions.
package gallery

import (
	"sync"

	"github.com/google/uuid"
)

// Item is one album entry. Fields mirror what the thumbnail renderer knows
// about a submission; LikeCount and Liked are refreshed in place.
type Item struct {
	ID                 string
	QuestID            string
	URL                string
	VideoURL           string
	Comment            string
	UserID             string
	UserDisplayName    string
	UserUsername       string
	UserProfilePicture string
	TwitterURL         string
	FacebookURL        string
	InstagramURL       string
	LikeCount          int
	Liked              bool
}

// Album is an ordered sequence of sibling submissions. It is shared by every
// view opened from it, so like updates made while browsing survive navigation.
type Album struct {
	id    string
	mu    sync.RWMutex
	items []Item
}

// NewAlbum copies items into a new Album. It returns nil for an empty list.
func NewAlbum(items []Item) *Album {
	if len(items) == 0 {
		return nil
	}
	copied := make([]Item, len(items))
	copy(copied, items)
	return &Album{id: uuid.NewString(), items: copied}
}

// ID identifies the album for logging.
func (a *Album) ID() string {
	if a == nil {
		return ""
	}
	return a.id
}

// Len returns the number of entries.
func (a *Album) Len() int {
	if a == nil {
		return 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// At returns the entry at index.
func (a *Album) At(index int) (Item, bool) {
	if a == nil {
		return Item{}, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if index < 0 || index >= len(a.items) {
		return Item{}, false
	}
	return a.items[index], true
}

// Valid reports whether index addresses an entry.
func (a *Album) Valid(index int) bool {
	return index >= 0 && index < a.Len()
}

// HasPrev reports whether a previous entry exists before index.
func (a *Album) HasPrev(index int) bool {
	return a.Valid(index) && index > 0
}

// HasNext reports whether an entry exists after index.
func (a *Album) HasNext(index int) bool {
	return a.Valid(index) && index < a.Len()-1
}

// UpdateLike stores fresh like state for the entry with the given id.
// It reports whether an entry matched.
func (a *Album) UpdateLike(id string, count int, liked bool) bool {
	return a.Update(id, func(item *Item) {
		item.LikeCount = count
		item.Liked = liked
	})
}

// Update applies fn to every entry with the given id and reports whether any
// entry matched.
func (a *Album) Update(id string, fn func(*Item)) bool {
	if a == nil || id == "" || fn == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	updated := false
	for i := range a.items {
		if a.items[i].ID == id {
			fn(&a.items[i])
			updated = true
		}
	}
	return updated
}
