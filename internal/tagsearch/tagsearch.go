// Package tagsearch drives the tag multi-select control: a remotely
// searched options list plus a local selection set.
package tagsearch

import (
	"context"
	"sync"

	"campus/internal/models"
)

// MinQueryLen is the length gate: shorter non-empty queries issue no
// request and keep the current options.
const MinQueryLen = 2

// Lister fetches the tag vocabulary. An empty query means unfiltered.
type Lister interface {
	ListTags(ctx context.Context, query string) ([]models.Tag, error)
}

// Searcher owns the options list and the selection. Responses are applied
// only when they belong to the latest issued query, so a slow response for
// an old query can never overwrite newer results.
type Searcher struct {
	mu       sync.Mutex
	lister   Lister
	gen      uint64
	query    string
	options  []models.Tag
	selected []models.Tag
}

// NewSearcher returns a Searcher with an empty options list. Callers
// usually follow up with Reset to load the unfiltered vocabulary.
func NewSearcher(lister Lister) *Searcher {
	return &Searcher{lister: lister}
}

// SetQuery records the query and refreshes the options list according to
// the length gate: empty resets to the unfiltered vocabulary, one rune
// keeps the current options without a request, two or more search remotely.
func (s *Searcher) SetQuery(ctx context.Context, query string) error {
	s.mu.Lock()
	s.query = query
	if len(query) > 0 && len(query) < MinQueryLen {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	tags, err := s.lister.ListTags(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer query was issued while this one was in flight; its
		// result wins regardless of arrival order.
		return nil
	}
	if err != nil {
		return err
	}
	s.options = tags
	return nil
}

// Reset loads the unfiltered vocabulary.
func (s *Searcher) Reset(ctx context.Context) error {
	return s.SetQuery(ctx, "")
}

// Query returns the last query passed to SetQuery.
func (s *Searcher) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Options returns a copy of the current options list.
func (s *Searcher) Options() []models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tag, len(s.options))
	copy(out, s.options)
	return out
}

// Select adds a tag to the selection. Selection is a set keyed by TagID;
// re-selecting is a no-op. Insertion order is kept for display.
func (s *Searcher) Select(tag models.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.selected {
		if t.TagID == tag.TagID {
			return
		}
	}
	s.selected = append(s.selected, tag)
}

// Deselect removes a tag from the selection by ID.
func (s *Searcher) Deselect(tagID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.selected[:0]
	for _, t := range s.selected {
		if t.TagID != tagID {
			kept = append(kept, t)
		}
	}
	s.selected = kept
}

// Selected returns a copy of the selection in insertion order.
func (s *Searcher) Selected() []models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Tag, len(s.selected))
	copy(out, s.selected)
	return out
}

// SelectedIDs returns the selected tag IDs in insertion order.
func (s *Searcher) SelectedIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(s.selected))
	for i, t := range s.selected {
		ids[i] = t.TagID
	}
	return ids
}
