package api

import (
	"context"
	"fmt"

	"campus/internal/models"
)

// CurrentUser fetches the authenticated user's own profile.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.getJSON(ctx, "users.me", "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfileInput carries profile fields to change. Zero values leave
// the field untouched server-side.
type UpdateProfileInput struct {
	Username     string `json:"username,omitempty"`
	Avatar       string `json:"img,omitempty"`
	UniversityID int    `json:"university_id,omitempty"`
	CareerID     int    `json:"career_id,omitempty"`
}

// UpdateProfile updates the authenticated user's profile and returns the
// server's copy.
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	if err := c.putJSON(ctx, "users.update", "/api/users/me", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword replaces the account password after verifying the current
// one server-side.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	req := struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}{CurrentPassword: current, NewPassword: next}
	return c.putJSON(ctx, "users.password", "/api/users/me/password", req, nil)
}

// UserProfile fetches another user's public profile.
func (c *Client) UserProfile(ctx context.Context, userID int) (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	path := fmt.Sprintf("/api/users/%d", userID)
	if err := c.getJSON(ctx, "users.profile", path, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UserPosts fetches a user's publications.
func (c *Client) UserPosts(ctx context.Context, userID int) ([]models.Post, error) {
	var out postsResponse
	path := fmt.Sprintf("/api/users/%d/posts", userID)
	if err := c.getJSON(ctx, "users.posts", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}
