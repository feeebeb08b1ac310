package stub

import (
	"campus/internal/models"
	"campus/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func (s *Server) currentUser(c *fiber.Ctx) error {
	var u user
	if err := s.db.First(&u, currentUserID(c)).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", currentUserID(c)))
	}
	out := wireUser(u)
	out.Email = u.Email
	return c.JSON(fiber.Map{"user": out})
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var req struct {
		Username     string `json:"username"`
		Img          string `json:"img"`
		UniversityID int    `json:"university_id"`
		CareerID     int    `json:"career_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var u user
	if err := s.db.First(&u, currentUserID(c)).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", currentUserID(c)))
	}

	if req.Username != "" {
		if err := validation.ValidateUsername(req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		u.Username = req.Username
	}
	if req.Img != "" {
		u.Img = req.Img
	}
	if req.UniversityID > 0 {
		u.UniversityID = uint(req.UniversityID)
	}
	if req.CareerID > 0 {
		u.CareerID = uint(req.CareerID)
	}

	if err := s.db.Save(&u).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"user": wireUser(u)})
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Current and new passwords are required"))
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	var u user
	if err := s.db.First(&u, currentUserID(c)).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", currentUserID(c)))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.CurrentPassword)); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Current password is incorrect"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	u.Password = string(hashed)
	if err := s.db.Save(&u).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

func (s *Server) userProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var u user
	if err := s.db.First(&u, userID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", userID))
	}

	out := wireUser(u)
	var postCount, likeCount int64
	s.db.Model(&post{}).Where("user_id = ?", userID).Count(&postCount)
	s.db.Model(&like{}).
		Where("post_id IN (?)", s.db.Model(&post{}).Select("post_id").Where("user_id = ?", userID)).
		Count(&likeCount)
	out.Posts = int(postCount)
	out.Likes = int(likeCount)

	return c.JSON(fiber.Map{"user": out})
}

func (s *Server) userPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var rows []post
	dbErr := s.db.
		Preload("User").
		Preload("Comments").Preload("Comments.User").
		Preload("Likes").Preload("Likes.User").
		Preload("Files").
		Preload("Tags").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if dbErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(dbErr))
	}
	return c.JSON(fiber.Map{"posts": s.wirePosts(rows)})
}
