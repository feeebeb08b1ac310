package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"campus/internal/models"
)

// ListChannels fetches the channels visible to the authenticated user.
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var out struct {
		Channels []models.Channel `json:"channels"`
	}
	if err := c.getJSON(ctx, "channels.list", "/api/channels", nil, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

// GetChannel fetches one channel with its membership.
func (c *Client) GetChannel(ctx context.Context, channelID int) (*models.Channel, error) {
	var out struct {
		Channel models.Channel `json:"channel"`
	}
	path := fmt.Sprintf("/api/channels/%d", channelID)
	if err := c.getJSON(ctx, "channels.get", path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Channel, nil
}

// ListChannelPosts fetches a channel's publications, newest first.
func (c *Client) ListChannelPosts(ctx context.Context, channelID int) ([]models.ChannelPost, error) {
	var out struct {
		Posts []models.ChannelPost `json:"posts"`
	}
	path := fmt.Sprintf("/api/channels/%d/posts", channelID)
	if err := c.getJSON(ctx, "channels.posts", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// CreateChannelPostInput is the multipart payload for a new channel post.
type CreateChannelPostInput struct {
	Content string
	Tags    []string
	Files   []FileUpload
}

// CreateChannelPost publishes a post inside a channel.
func (c *Client) CreateChannelPost(ctx context.Context, channelID int, in CreateChannelPostInput) (*models.ChannelPost, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.WriteField("content", in.Content); err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(in.Tags) > 0 {
		if err := w.WriteField("tags", strings.Join(in.Tags, ",")); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	for _, f := range in.Files {
		part, err := w.CreateFormFile("files[]", f.Name)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, models.NewInternalError(fmt.Errorf("read attachment %s: %w", f.Name, err))
		}
	}
	if err := w.Close(); err != nil {
		return nil, models.NewInternalError(err)
	}

	var out struct {
		Post models.ChannelPost `json:"post"`
	}
	path := fmt.Sprintf("/api/channels/%d/posts", channelID)
	if err := c.do(ctx, "channels.create_post", http.MethodPost, path, nil, buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// CommentChannelPost appends a comment to a channel post and returns the
// server's copy.
func (c *Client) CommentChannelPost(ctx context.Context, postID int, content string) (*models.ChannelPostComment, error) {
	req := struct {
		Content string `json:"content"`
	}{Content: content}

	var out struct {
		Comment models.ChannelPostComment `json:"comment"`
	}
	path := fmt.Sprintf("/api/channels/posts/%d/comments", postID)
	if err := c.postJSON(ctx, "channels.comment", path, req, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

// ToggleChannelLike flips the caller's like on a channel post. The status
// code carries the outcome: 201 means the like was added (the response body
// holds it), 200 means it was removed.
func (c *Client) ToggleChannelLike(ctx context.Context, postID int) (bool, *models.ChannelPostLike, error) {
	var out struct {
		Like *models.ChannelPostLike `json:"like"`
	}
	path := fmt.Sprintf("/api/channels/posts/%d/like", postID)
	status, err := c.doStatus(ctx, "channels.like", http.MethodPost, path, strings.NewReader("{}"), "application/json", &out)
	if err != nil {
		return false, nil, err
	}
	added := status == http.StatusCreated
	return added, out.Like, nil
}

// DeleteChannelPost removes a channel post (author or channel admin only).
func (c *Client) DeleteChannelPost(ctx context.Context, postID int) error {
	path := fmt.Sprintf("/api/channels/posts/%d", postID)
	return c.deleteJSON(ctx, "channels.delete_post", path, nil)
}

// PendingInvitations lists the caller's pending channel invitations.
func (c *Client) PendingInvitations(ctx context.Context) ([]models.ChannelInvitation, error) {
	var out struct {
		Invitations []models.ChannelInvitation `json:"invitations"`
	}
	if err := c.getJSON(ctx, "channels.invitations", "/api/channels/invitations", nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// RespondInvitation accepts or rejects a pending invitation.
func (c *Client) RespondInvitation(ctx context.Context, invitationID int, accept bool) error {
	action := "reject"
	if accept {
		action = "accept"
	}
	req := struct {
		Action string `json:"action"`
	}{Action: action}
	path := fmt.Sprintf("/api/channels/invitations/%d", invitationID)
	return c.postJSON(ctx, "channels.respond_invitation", path, req, nil)
}
