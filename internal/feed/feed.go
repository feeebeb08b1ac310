// Package feed drives page-counter pagination over the home feed.
package feed

import (
	"context"
	"sync"

	"campus/internal/models"
)

// Source fetches one feed page. Pages start at 1; an empty result means the
// feed is exhausted.
type Source interface {
	ListPosts(ctx context.Context, page int) ([]models.Post, error)
}

// Paginator accumulates feed pages. LoadMore is single-flight: a second
// call while a fetch is in flight is a no-op, and a Refresh invalidates any
// fetch still in flight so a slow page response can neither duplicate nor
// reorder the list.
type Paginator struct {
	mu      sync.Mutex
	src     Source
	gen     uint64
	page    int
	hasMore bool
	loading bool
	posts   []models.Post
	seen    map[int]struct{}
}

// NewPaginator returns a Paginator positioned before the first page.
func NewPaginator(src Source) *Paginator {
	return &Paginator{
		src:     src,
		hasMore: true,
		seen:    make(map[int]struct{}),
	}
}

// Refresh resets to page 1 and replaces the list.
func (p *Paginator) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.loading = true
	p.mu.Unlock()

	posts, err := p.src.ListPosts(ctx, 1)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return nil
	}
	p.loading = false
	if err != nil {
		return err
	}

	p.page = 1
	p.posts = nil
	p.seen = make(map[int]struct{})
	p.appendLocked(posts)
	p.hasMore = len(posts) > 0
	return nil
}

// LoadMore fetches the next page and appends it. It is a no-op returning
// (0, nil) while a fetch is in flight or after the feed is exhausted. On
// failure the page counter is rolled back so the same page is retried next
// time.
func (p *Paginator) LoadMore(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.loading || !p.hasMore {
		p.mu.Unlock()
		return 0, nil
	}
	p.loading = true
	p.page++
	page := p.page
	gen := p.gen
	p.mu.Unlock()

	posts, err := p.src.ListPosts(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// A Refresh superseded this fetch; drop the result.
		return 0, nil
	}
	p.loading = false
	if err != nil {
		p.page--
		return 0, err
	}
	if len(posts) == 0 {
		p.hasMore = false
		return 0, nil
	}
	return p.appendLocked(posts), nil
}

// appendLocked appends posts, skipping IDs already present. Servers
// returning disjoint pages therefore never produce duplicates, and an
// overlapping page degrades to the unseen remainder.
func (p *Paginator) appendLocked(posts []models.Post) int {
	added := 0
	for _, post := range posts {
		if _, ok := p.seen[post.PostID]; ok {
			continue
		}
		p.seen[post.PostID] = struct{}{}
		p.posts = append(p.posts, post)
		added++
	}
	return added
}

// Posts returns a copy of the accumulated list in arrival order.
func (p *Paginator) Posts() []models.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Post, len(p.posts))
	copy(out, p.posts)
	return out
}

// Len returns the number of accumulated posts.
func (p *Paginator) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posts)
}

// HasMore reports whether another page may exist.
func (p *Paginator) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Loading reports whether a fetch is in flight.
func (p *Paginator) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Page returns the last successfully requested page number.
func (p *Paginator) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Patch runs fn against the cached copy of the post with the given ID, if
// present. Interaction controls use it to apply confirmed mutations.
func (p *Paginator) Patch(postID int, fn func(*models.Post)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.posts {
		if p.posts[i].PostID == postID {
			fn(&p.posts[i])
			return true
		}
	}
	return false
}
