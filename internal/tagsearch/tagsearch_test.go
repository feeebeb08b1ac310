package tagsearch

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

type stubLister struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]models.Tag
	err     error
	// block, when set, is closed per query to release a pending fetch.
	block map[string]chan struct{}
}

func (l *stubLister) ListTags(_ context.Context, query string) ([]models.Tag, error) {
	l.mu.Lock()
	l.calls = append(l.calls, query)
	gate := l.block[query]
	l.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.results[query], nil
}

func (l *stubLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

var vocabulary = []models.Tag{
	{TagID: 1, Name: "Databases"},
	{TagID: 2, Name: "Networking"},
	{TagID: 3, Name: "Robotics"},
}

func TestSetQueryLengthGate(t *testing.T) {
	t.Parallel()

	lister := &stubLister{results: map[string][]models.Tag{
		"":   vocabulary,
		"ro": {vocabulary[2]},
	}}
	s := NewSearcher(lister)
	require.NoError(t, s.Reset(context.Background()))
	require.Len(t, s.Options(), 3)

	// One rune is below the gate: no request, options untouched.
	require.NoError(t, s.SetQuery(context.Background(), "r"))
	assert.Equal(t, 1, lister.callCount())
	assert.Len(t, s.Options(), 3)
	assert.Equal(t, "r", s.Query())

	require.NoError(t, s.SetQuery(context.Background(), "ro"))
	assert.Equal(t, 2, lister.callCount())
	assert.Equal(t, []models.Tag{{TagID: 3, Name: "Robotics"}}, s.Options())

	// Emptying the query reloads the full vocabulary.
	require.NoError(t, s.SetQuery(context.Background(), ""))
	assert.Len(t, s.Options(), 3)
}

func TestStaleResponseDoesNotOverwriteNewerResult(t *testing.T) {
	t.Parallel()

	slow := make(chan struct{})
	lister := &stubLister{
		results: map[string][]models.Tag{
			"data": {vocabulary[0]},
			"net":  {vocabulary[1]},
		},
		block: map[string]chan struct{}{"data": slow},
	}
	s := NewSearcher(lister)

	firstDone := make(chan error, 1)
	go func() { firstDone <- s.SetQuery(context.Background(), "data") }()

	// Wait until the first fetch is issued, then supersede it.
	require.Eventually(t, func() bool { return lister.callCount() == 1 },
		waitFor, tick)
	require.NoError(t, s.SetQuery(context.Background(), "net"))
	assert.Equal(t, []models.Tag{{TagID: 2, Name: "Networking"}}, s.Options())

	// Release the stale fetch; its late result must be dropped.
	close(slow)
	require.NoError(t, <-firstDone)
	assert.Equal(t, []models.Tag{{TagID: 2, Name: "Networking"}}, s.Options())
}

func TestSetQueryPropagatesFetchError(t *testing.T) {
	t.Parallel()

	lister := &stubLister{
		results: map[string][]models.Tag{"": vocabulary},
	}
	s := NewSearcher(lister)
	require.NoError(t, s.Reset(context.Background()))

	lister.err = models.NewNetworkError(assert.AnError)
	err := s.SetQuery(context.Background(), "anything")
	require.Error(t, err)
	assert.Len(t, s.Options(), 3, "a failed search keeps the previous options")
}

func TestSelectionIsASetWithInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewSearcher(&stubLister{})

	s.Select(vocabulary[1])
	s.Select(vocabulary[0])
	s.Select(vocabulary[1]) // re-select is a no-op

	assert.Equal(t, []int{2, 1}, s.SelectedIDs())
	assert.Equal(t, []models.Tag{vocabulary[1], vocabulary[0]}, s.Selected())

	s.Deselect(2)
	assert.Equal(t, []int{1}, s.SelectedIDs())

	s.Deselect(99) // absent id is a no-op
	assert.Equal(t, []int{1}, s.SelectedIDs())
}

func TestSelectionSurvivesQueryChanges(t *testing.T) {
	t.Parallel()

	lister := &stubLister{results: map[string][]models.Tag{
		"":   vocabulary,
		"ro": {vocabulary[2]},
	}}
	s := NewSearcher(lister)
	require.NoError(t, s.Reset(context.Background()))

	s.Select(vocabulary[0])
	require.NoError(t, s.SetQuery(context.Background(), "ro"))

	assert.Equal(t, []int{1}, s.SelectedIDs(),
		"narrowing the options must not drop the selection")
}
