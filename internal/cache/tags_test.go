package cache

import (
	"context"
	"testing"

	"campus/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The cache package keeps one process-wide client, so these tests cannot
// run in parallel with each other.

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

var vocabulary = []models.Tag{
	{TagID: 1, Name: "Databases"},
	{TagID: 2, Name: "Networking"},
}

func countingLister(calls *int, result []models.Tag) TagListerFunc {
	return func(_ context.Context, _ string) ([]models.Tag, error) {
		*calls++
		return result, nil
	}
}

func TestVocabularyIsCachedAcrossCalls(t *testing.T) {
	withMiniredis(t)

	calls := 0
	lister := NewTagLister(countingLister(&calls, vocabulary))

	first, err := lister.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, vocabulary, first)
	assert.Equal(t, 1, calls)

	second, err := lister.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, vocabulary, second)
	assert.Equal(t, 1, calls, "the second unfiltered call is served from cache")
}

func TestFilteredSearchesBypassCache(t *testing.T) {
	withMiniredis(t)

	calls := 0
	lister := NewTagLister(countingLister(&calls, vocabulary))

	_, err := lister.ListTags(context.Background(), "net")
	require.NoError(t, err)
	_, err = lister.ListTags(context.Background(), "net")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCorruptVocabularyEntryIsRefetched(t *testing.T) {
	mr := withMiniredis(t)
	require.NoError(t, mr.Set(TagVocabularyKey, "{not json"))

	calls := 0
	lister := NewTagLister(countingLister(&calls, vocabulary))

	tags, err := lister.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, vocabulary, tags)
	assert.Equal(t, 1, calls)
}

func TestVocabularyExpires(t *testing.T) {
	mr := withMiniredis(t)

	calls := 0
	lister := NewTagLister(countingLister(&calls, vocabulary))

	_, err := lister.ListTags(context.Background(), "")
	require.NoError(t, err)

	mr.FastForward(TagTTL * 2)

	_, err = lister.ListTags(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDisabledCacheFallsThrough(t *testing.T) {
	SetClient(nil)

	calls := 0
	lister := NewTagLister(countingLister(&calls, vocabulary))

	for i := 0; i < 3; i++ {
		tags, err := lister.ListTags(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, vocabulary, tags)
	}
	assert.Equal(t, 3, calls, "without redis every call goes remote")
}

func TestUserProfileRoundTrip(t *testing.T) {
	withMiniredis(t)

	_, ok := GetUser(context.Background(), 7)
	assert.False(t, ok)

	user := &models.User{UserID: 7, Username: "ada", Email: "ada@example.com"}
	SetUser(context.Background(), user)

	cached, ok := GetUser(context.Background(), 7)
	require.True(t, ok)
	assert.Equal(t, user, cached)

	InvalidateUser(context.Background(), 7)
	_, ok = GetUser(context.Background(), 7)
	assert.False(t, ok)
}

func TestInitRedisWithBadURLDisablesCache(t *testing.T) {
	InitRedis("redis://%%%invalid")
	assert.Nil(t, GetClient())

	InitRedis("")
	assert.Nil(t, GetClient())
}
