// Package interactions funnels like and comment intents through one
// mutation path. Every card component used to carry its own ad hoc
// handler, some optimistic and some not; here the discipline is uniform:
// nothing mutates locally until the server confirms, so there is never a
// divergent state to roll back.
package interactions

import (
	"context"
	"strings"

	"campus/internal/models"
	"campus/internal/observability"
)

// PostAPI is the slice of the API client the feed interactions need.
type PostAPI interface {
	ToggleLike(ctx context.Context, postID int) error
	AddComment(ctx context.Context, postID int, content string) (*models.Comment, error)
}

// ChannelAPI is the slice of the API client the channel interactions need.
type ChannelAPI interface {
	ToggleChannelLike(ctx context.Context, postID int) (bool, *models.ChannelPostLike, error)
	CommentChannelPost(ctx context.Context, postID int, content string) (*models.ChannelPostComment, error)
	DeleteChannelPost(ctx context.Context, postID int) error
}

// Gate decides whether a mutation may run. The session manager satisfies
// it; anonymous callers get ErrLoginRequired and the action never runs.
type Gate interface {
	RequireAuth(action func() error) error
}

// Reactor applies confirmed interaction results to the client's cached
// copies of posts.
type Reactor struct {
	posts    PostAPI
	channels ChannelAPI
	gate     Gate
	logger   *observability.Logger
}

// NewReactor wires the interaction path. channels may be nil for views
// without channel content.
func NewReactor(posts PostAPI, channels ChannelAPI, gate Gate, logger *observability.Logger) *Reactor {
	if logger == nil {
		logger = observability.GlobalLogger
	}
	return &Reactor{
		posts:    posts,
		channels: channels,
		gate:     gate,
		logger:   logger.Component("interactions"),
	}
}

// LikeResult describes the confirmed state after a toggle.
type LikeResult struct {
	Liked bool
	Count int
}

// ToggleLike flips userID's like on the cached post. The local like list is
// patched only after the server confirms; on failure the post is untouched
// and the error carries the classification.
func (r *Reactor) ToggleLike(ctx context.Context, post *models.Post, userID int) (LikeResult, error) {
	var result LikeResult
	err := r.gate.RequireAuth(func() error {
		if err := r.posts.ToggleLike(ctx, post.PostID); err != nil {
			return err
		}

		if post.LikedBy(userID) {
			kept := post.Likes[:0]
			for _, l := range post.Likes {
				if l.UserID != userID {
					kept = append(kept, l)
				}
			}
			post.Likes = kept
		} else {
			post.Likes = append(post.Likes, models.PostLike{PostID: post.PostID, UserID: userID})
		}

		result = LikeResult{Liked: post.LikedBy(userID), Count: post.LikeCount()}
		return nil
	})
	return result, err
}

// SubmitComment validates, submits and appends the server's comment to the
// cached post. Whitespace-only content is rejected locally with zero
// network calls.
func (r *Reactor) SubmitComment(ctx context.Context, post *models.Post, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	var comment *models.Comment
	err := r.gate.RequireAuth(func() error {
		created, err := r.posts.AddComment(ctx, post.PostID, content)
		if err != nil {
			return err
		}
		post.Comments = append(post.Comments, *created)
		comment = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ToggleChannelLike flips userID's like on the cached channel post. The
// server reports the outcome through the status code, so the confirmed
// result is applied rather than inferred.
func (r *Reactor) ToggleChannelLike(ctx context.Context, post *models.ChannelPost, userID int) (LikeResult, error) {
	var result LikeResult
	err := r.gate.RequireAuth(func() error {
		added, like, err := r.channels.ToggleChannelLike(ctx, post.PostID)
		if err != nil {
			return err
		}

		if added {
			entry := models.ChannelPostLike{PostID: post.PostID, UserID: userID}
			if like != nil {
				entry = *like
			}
			if !post.LikedBy(entry.UserID) {
				post.Likes = append(post.Likes, entry)
			}
		} else {
			kept := post.Likes[:0]
			for _, l := range post.Likes {
				if l.UserID != userID {
					kept = append(kept, l)
				}
			}
			post.Likes = kept
		}

		result = LikeResult{Liked: post.LikedBy(userID), Count: post.LikeCount()}
		return nil
	})
	return result, err
}

// SubmitChannelComment validates, submits and appends the server's comment
// to the cached channel post.
func (r *Reactor) SubmitChannelComment(ctx context.Context, post *models.ChannelPost, content string) (*models.ChannelPostComment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}

	var comment *models.ChannelPostComment
	err := r.gate.RequireAuth(func() error {
		created, err := r.channels.CommentChannelPost(ctx, post.PostID, content)
		if err != nil {
			return err
		}
		post.Comments = append(post.Comments, *created)
		comment = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteChannelPost removes a channel post after the server confirms.
func (r *Reactor) DeleteChannelPost(ctx context.Context, postID int) error {
	return r.gate.RequireAuth(func() error {
		return r.channels.DeleteChannelPost(ctx, postID)
	})
}
