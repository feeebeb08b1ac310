package stub

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"campus/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (s *Server) isMember(channelID, userID uint) bool {
	var m channelMember
	err := s.db.Where("channel_id = ? AND user_id = ?", channelID, userID).First(&m).Error
	return err == nil
}

func (s *Server) isChannelAdmin(channelID, userID uint) bool {
	var m channelMember
	err := s.db.Where("channel_id = ? AND user_id = ? AND is_admin = ?", channelID, userID, true).
		First(&m).Error
	return err == nil
}

func (s *Server) listChannels(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var rows []channel
	err := s.db.
		Preload("Members").Preload("Members.User").
		Where("is_private = ? OR channel_id IN (?)", false,
			s.db.Model(&channelMember{}).Select("channel_id").Where("user_id = ?", userID)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	out := make([]models.Channel, 0, len(rows))
	for _, ch := range rows {
		out = append(out, wireChannel(ch))
	}
	return c.JSON(fiber.Map{"channels": out})
}

func (s *Server) getChannel(c *fiber.Ctx) error {
	channelID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var ch channel
	if err := s.db.Preload("Members").Preload("Members.User").First(&ch, channelID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Channel", channelID))
	}
	if ch.IsPrivate && !s.isMember(channelID, currentUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You do not have access to this channel"))
	}
	return c.JSON(fiber.Map{"channel": wireChannel(ch)})
}

func (s *Server) listChannelPosts(c *fiber.Ctx) error {
	channelID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var ch channel
	if err := s.db.First(&ch, channelID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Channel", channelID))
	}
	if ch.IsPrivate && !s.isMember(channelID, currentUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You do not have access to this channel"))
	}

	var rows []channelPost
	dbErr := s.db.
		Preload("User").
		Preload("Comments").Preload("Comments.User").
		Preload("Likes").
		Preload("Files").
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Find(&rows).Error
	if dbErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(dbErr))
	}

	out := make([]models.ChannelPost, 0, len(rows))
	for _, p := range rows {
		out = append(out, wireChannelPost(p))
	}
	return c.JSON(fiber.Map{"posts": out})
}

func (s *Server) createChannelPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	channelID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	if !s.isMember(channelID, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You do not have access to this channel"))
	}

	content := c.FormValue("content")
	if content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	p := channelPost{
		ChannelID: channelID,
		UserID:    userID,
		Content:   content,
		Tags:      c.FormValue("tags"),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["files[]"] {
			f := channelPostFile{
				PostID:   p.PostID,
				FileURL:  fmt.Sprintf("/files/channels/%d/%s", p.PostID, fh.Filename),
				FileType: fileType(fh.Filename),
				FileName: fh.Filename,
			}
			if err := s.db.Create(&f).Error; err != nil {
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			}
		}
	}

	if err := s.db.Preload("User").Preload("Files").First(&p, p.PostID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": wireChannelPost(p)})
}

func (s *Server) commentChannelPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment content is required"))
	}

	var p channelPost
	if err := s.db.First(&p, postID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}
	if !s.isMember(p.ChannelID, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You do not have access to this channel"))
	}

	cm := channelPostComment{
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&cm).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	if err := s.db.Preload("User").First(&cm, cm.CommentID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"comment": wireChannelPostComment(cm)})
}

func (s *Server) likeChannelPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var p channelPost
	if err := s.db.First(&p, postID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}
	if !s.isMember(p.ChannelID, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You do not have access to this channel"))
	}

	var existing channelPostLike
	err = s.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
	if err == nil {
		if err := s.db.Delete(&existing).Error; err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		return c.JSON(fiber.Map{"message": "Like removed"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	l := channelPostLike{PostID: postID, UserID: userID}
	if err := s.db.Create(&l).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"like": models.ChannelPostLike{
			LikeID: int(l.LikeID),
			PostID: int(l.PostID),
			UserID: int(l.UserID),
		},
	})
}

func (s *Server) deleteChannelPost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := parseID(c, "postId")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var p channelPost
	if err := s.db.First(&p, postID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}
	if p.UserID != userID && !s.isChannelAdmin(p.ChannelID, userID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("Only the author or a channel admin can delete this post"))
	}

	if err := s.db.Delete(&p).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

func (s *Server) pendingInvitations(c *fiber.Ctx) error {
	var rows []channelInvitation
	err := s.db.
		Preload("Channel").
		Where("invited_user = ? AND status = ?", currentUserID(c), models.InvitationPending).
		Find(&rows).Error
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	out := make([]models.ChannelInvitation, 0, len(rows))
	for _, inv := range rows {
		ch := wireChannel(inv.Channel)
		out = append(out, models.ChannelInvitation{
			InvitationID: int(inv.InvitationID),
			ChannelID:    int(inv.ChannelID),
			InvitedBy:    int(inv.InvitedBy),
			InvitedUser:  int(inv.InvitedUser),
			Status:       inv.Status,
			CreatedAt:    inv.CreatedAt,
			Channel:      &ch,
		})
	}
	return c.JSON(fiber.Map{"invitations": out})
}

func (s *Server) respondInvitation(c *fiber.Ctx) error {
	userID := currentUserID(c)
	invitationID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Action != "accept" && req.Action != "reject" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Action must be accept or reject"))
	}

	var inv channelInvitation
	if err := s.db.First(&inv, invitationID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Invitation", invitationID))
	}
	if inv.InvitedUser != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("This invitation is not yours"))
	}
	if inv.Status != models.InvitationPending {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("This invitation was already handled"))
	}

	if req.Action == "accept" {
		member := channelMember{
			ChannelID: inv.ChannelID,
			UserID:    userID,
			JoinedAt:  time.Now(),
		}
		if err := s.db.Create(&member).Error; err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		inv.Status = models.InvitationAccepted
	} else {
		inv.Status = models.InvitationRejected
	}
	inv.UpdatedAt = time.Now()

	if err := s.db.Save(&inv).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Invitation " + inv.Status})
}
