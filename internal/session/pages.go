package session

import (
	"sort"

	"github.com/spiffcs/scout/internal/constants"
)

// PageTracker records which primary pages of the current search are loaded.
// The zero value is not ready for use; call NewPageTracker.
type PageTracker struct {
	pages map[int]bool
}

// NewPageTracker returns a tracker in the reset state {1: false}.
func NewPageTracker() *PageTracker {
	t := &PageTracker{}
	t.Reset()
	return t
}

// IsLoaded reports whether page has been fully fetched.
func (t *PageTracker) IsLoaded(page int) bool {
	return t.pages[page]
}

// MarkLoaded records page as fully fetched.
func (t *PageTracker) MarkLoaded(page int) {
	t.pages[page] = true
}

// Reset reinitializes the tracker to {1: false}.
func (t *PageTracker) Reset() {
	t.pages = map[int]bool{constants.FirstPage: false}
}

// Highest returns the highest loaded page, or 0 when none is loaded.
func (t *PageTracker) Highest() int {
	highest := 0
	for p, loaded := range t.pages {
		if loaded && p > highest {
			highest = p
		}
	}
	return highest
}

// Loaded returns the loaded pages in ascending order.
func (t *PageTracker) Loaded() []int {
	var out []int
	for p, loaded := range t.pages {
		if loaded {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// Next returns the first page after the highest loaded one.
func (t *PageTracker) Next() int {
	return t.Highest() + 1
}
