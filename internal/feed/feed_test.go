package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"campus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type stubSource struct {
	mu    sync.Mutex
	pages map[int][]models.Post
	calls []int
	err   error
	// block, when set, is closed per page to release a pending fetch.
	block map[int]chan struct{}
}

func (s *stubSource) ListPosts(_ context.Context, page int) ([]models.Post, error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	gate := s.block[page]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.pages[page], nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func posts(ids ...int) []models.Post {
	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Post{PostID: id})
	}
	return out
}

func ids(posts []models.Post) []int {
	out := make([]int, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.PostID)
	}
	return out
}

func TestRefreshLoadsFirstPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{1: posts(3, 2, 1)}}
	p := NewPaginator(src)

	require.NoError(t, p.Refresh(context.Background()))

	assert.Equal(t, []int{3, 2, 1}, ids(p.Posts()))
	assert.Equal(t, 1, p.Page())
	assert.True(t, p.HasMore())
}

func TestRefreshOnEmptyFeed(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{}}
	p := NewPaginator(src)

	require.NoError(t, p.Refresh(context.Background()))

	assert.Zero(t, p.Len())
	assert.False(t, p.HasMore())
}

func TestLoadMoreAppendsNextPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{
		1: posts(6, 5, 4),
		2: posts(3, 2, 1),
	}}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, added)
	assert.Equal(t, []int{6, 5, 4, 3, 2, 1}, ids(p.Posts()))
	assert.Equal(t, 2, p.Page())
}

func TestLoadMoreStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{1: posts(2, 1)}}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.False(t, p.HasMore())

	// Exhausted feeds answer without another request.
	before := src.callCount()
	added, err = p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, before, src.callCount())
}

func TestLoadMoreIsSingleFlight(t *testing.T) {
	t.Parallel()

	slow := make(chan struct{})
	src := &stubSource{
		pages: map[int][]models.Post{
			1: posts(4, 3),
			2: posts(2, 1),
		},
		block: map[int]chan struct{}{2: slow},
	}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = p.LoadMore(context.Background())
	}()
	require.Eventually(t, p.Loading, waitFor, tick)

	// The second call while the first is in flight is a no-op.
	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added)

	close(slow)
	<-firstDone
	assert.Equal(t, []int{4, 3, 2, 1}, ids(p.Posts()))
	assert.Equal(t, []int{1, 2}, src.calls, "page 2 fetched exactly once")
}

func TestLoadMoreRollsBackPageOnError(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{
		1: posts(4, 3),
		2: posts(2, 1),
	}}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	src.err = models.NewNetworkError(assert.AnError)
	_, err := p.LoadMore(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, p.Page())
	assert.Equal(t, []int{4, 3}, ids(p.Posts()))

	// The retry asks for the same page again.
	src.err = nil
	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []int{1, 2, 2}, src.calls)
}

func TestRefreshSupersedesInFlightLoadMore(t *testing.T) {
	t.Parallel()

	slow := make(chan struct{})
	src := &stubSource{
		pages: map[int][]models.Post{
			1: posts(4, 3),
			2: posts(2, 1),
		},
		block: map[int]chan struct{}{2: slow},
	}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	moreDone := make(chan struct{})
	go func() {
		defer close(moreDone)
		added, err := p.LoadMore(context.Background())
		assert.NoError(t, err)
		assert.Zero(t, added, "superseded fetch must be dropped")
	}()
	require.Eventually(t, p.Loading, waitFor, tick)

	require.NoError(t, p.Refresh(context.Background()))
	close(slow)
	<-moreDone

	assert.Equal(t, []int{4, 3}, ids(p.Posts()))
	assert.Equal(t, 1, p.Page())
}

func TestOverlappingPagesDeduplicate(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{
		1: posts(5, 4, 3),
		2: posts(3, 2, 1),
	}}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	added, err := p.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []int{5, 4, 3, 2, 1}, ids(p.Posts()))
}

func TestPatchMutatesCachedPost(t *testing.T) {
	t.Parallel()

	src := &stubSource{pages: map[int][]models.Post{1: posts(2, 1)}}
	p := NewPaginator(src)
	require.NoError(t, p.Refresh(context.Background()))

	ok := p.Patch(2, func(post *models.Post) {
		post.Likes = append(post.Likes, models.PostLike{PostID: 2, UserID: 9})
	})
	require.True(t, ok)
	assert.Equal(t, 1, p.Posts()[0].LikeCount())

	assert.False(t, p.Patch(99, func(*models.Post) {}))
}
