package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"campus/internal/models"
)

type postsResponse struct {
	Posts []models.Post `json:"posts"`
}

// ListPosts fetches one feed page. Pages start at 1; an empty slice means
// the feed is exhausted.
func (c *Client) ListPosts(ctx context.Context, page int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{"page": {strconv.Itoa(page)}}
	var out postsResponse
	if err := c.getJSON(ctx, "posts.list", "/api/posts", query, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// SearchPostsInput filters the post search. Zero values are omitted.
type SearchPostsInput struct {
	Query  string
	Career int
	TagIDs []int
}

// SearchPosts queries posts by content, career and tags.
func (c *Client) SearchPosts(ctx context.Context, in SearchPostsInput) ([]models.Post, error) {
	query := url.Values{}
	if in.Query != "" {
		query.Set("q", in.Query)
	}
	if in.Career > 0 {
		query.Set("career", strconv.Itoa(in.Career))
	}
	if len(in.TagIDs) > 0 {
		// The API expects the tag id list JSON-encoded in one parameter.
		ids, err := json.Marshal(in.TagIDs)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		query.Set("tag_ids", string(ids))
	}

	var out postsResponse
	if err := c.getJSON(ctx, "posts.search", "/api/posts/search", query, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// FileUpload is one attachment for a new post.
type FileUpload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// CreatePostInput is the multipart payload for a new feed post.
type CreatePostInput struct {
	Content      string
	UniversityID int
	CareerID     int
	TagIDs       []int
	Files        []FileUpload
}

// CreatePost publishes a post with attachments and returns the new post ID.
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (int, error) {
	if in.Content == "" {
		return 0, models.NewValidationError("Content is required")
	}

	body, contentType, err := encodePostForm(in)
	if err != nil {
		return 0, err
	}

	var out struct {
		PostID int `json:"post_id"`
	}
	if err := c.do(ctx, "posts.create", http.MethodPost, "/api/posts", nil, body, contentType, &out); err != nil {
		return 0, err
	}
	return out.PostID, nil
}

func encodePostForm(in CreatePostInput) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"content":       in.Content,
		"university_id": strconv.Itoa(in.UniversityID),
		"career_id":     strconv.Itoa(in.CareerID),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", models.NewInternalError(err)
		}
	}
	if len(in.TagIDs) > 0 {
		ids, err := json.Marshal(in.TagIDs)
		if err != nil {
			return nil, "", models.NewInternalError(err)
		}
		if err := w.WriteField("tag_ids", string(ids)); err != nil {
			return nil, "", models.NewInternalError(err)
		}
	}

	for _, f := range in.Files {
		part, err := w.CreateFormFile("files[]", f.Name)
		if err != nil {
			return nil, "", models.NewInternalError(err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", models.NewInternalError(fmt.Errorf("read attachment %s: %w", f.Name, err))
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return buf, w.FormDataContentType(), nil
}

// ToggleLike flips the caller's like on a post. The server treats the call
// as a toggle; the response does not carry the resulting state, so callers
// apply their local flip only after this returns nil.
func (c *Client) ToggleLike(ctx context.Context, postID int) error {
	path := fmt.Sprintf("/api/posts/%d/likes", postID)
	return c.postJSON(ctx, "posts.like", path, struct{}{}, nil)
}

// AddComment appends a comment and returns the server's copy, which carries
// the assigned ID, timestamp and author.
func (c *Client) AddComment(ctx context.Context, postID int, content string) (*models.Comment, error) {
	req := struct {
		Content string `json:"content"`
	}{Content: content}

	var out struct {
		Comment models.Comment `json:"comment"`
	}
	path := fmt.Sprintf("/api/posts/%d/comments", postID)
	if err := c.postJSON(ctx, "posts.comment", path, req, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}
