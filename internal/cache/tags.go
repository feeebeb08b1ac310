package cache

import (
	"context"
	"encoding/json"

	"campus/internal/models"
)

// TagListerFunc fetches the tag vocabulary from the API.
type TagListerFunc func(ctx context.Context, query string) ([]models.Tag, error)

// TagLister is a cache-aside decorator over the API's tag listing. Only the
// unfiltered vocabulary is cached; filtered searches always go remote
// because their result space is unbounded.
type TagLister struct {
	next TagListerFunc
}

// NewTagLister wraps next with the vocabulary cache.
func NewTagLister(next TagListerFunc) *TagLister {
	return &TagLister{next: next}
}

// ListTags satisfies tagsearch.Lister.
func (l *TagLister) ListTags(ctx context.Context, query string) ([]models.Tag, error) {
	if query != "" {
		return l.next(ctx, query)
	}

	if raw := get(ctx, TagVocabularyKey); raw != "" {
		var tags []models.Tag
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags, nil
		}
		// A corrupt entry is dropped and refetched.
		Invalidate(ctx, TagVocabularyKey)
	}

	tags, err := l.next(ctx, "")
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(tags); err == nil {
		set(ctx, TagVocabularyKey, string(data), TagTTL)
	}
	return tags, nil
}

// GetUser returns a cached profile, if any.
func GetUser(ctx context.Context, userID int) (*models.User, bool) {
	raw := get(ctx, UserKey(userID))
	if raw == "" {
		return nil, false
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		Invalidate(ctx, UserKey(userID))
		return nil, false
	}
	return &user, true
}

// SetUser caches a profile.
func SetUser(ctx context.Context, user *models.User) {
	if user == nil {
		return
	}
	if data, err := json.Marshal(user); err == nil {
		set(ctx, UserKey(user.UserID), string(data), UserTTL)
	}
}

// InvalidateUser drops a cached profile, used after profile updates.
func InvalidateUser(ctx context.Context, userID int) {
	Invalidate(ctx, UserKey(userID))
}
