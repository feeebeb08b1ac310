package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"campus/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func (s *Server) listPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * feedPageSize

	var rows []post
	err := s.db.
		Preload("User").
		Preload("Comments").Preload("Comments.User").
		Preload("Likes").Preload("Likes.User").
		Preload("Files").
		Preload("Tags").
		Order("created_at DESC").
		Limit(feedPageSize).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"posts": s.wirePosts(rows)})
}

func (s *Server) searchPosts(c *fiber.Ctx) error {
	q := c.Query("q")
	careerID := c.Query("career")
	tagIDs := c.Query("tag_ids")

	db := s.db.
		Preload("User").
		Preload("Comments").Preload("Comments.User").
		Preload("Likes").Preload("Likes.User").
		Preload("Files").
		Preload("Tags")

	if q != "" {
		db = db.Where("content LIKE ?", "%"+q+"%")
	}
	if careerID != "" {
		db = db.Where("career_id = ?", careerID)
	}
	if tagIDs != "" {
		var ids []int
		if err := json.Unmarshal([]byte(tagIDs), &ids); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("tag_ids must be a JSON array of integers"))
		}
		if len(ids) > 0 {
			db = db.Where("post_id IN (?)",
				s.db.Table("post_tags").Select("post_id").Where("tag_id IN ?", ids))
		}
	}

	var rows []post
	if err := db.Order("created_at DESC").Find(&rows).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"posts": s.wirePosts(rows)})
}

func (s *Server) wirePosts(rows []post) []models.Post {
	out := make([]models.Post, 0, len(rows))
	for _, p := range rows {
		out = append(out, wirePost(s.db, p))
	}
	return out
}

func (s *Server) listTags(c *fiber.Ctx) error {
	q := c.Query("q")
	db := s.db.Order("name ASC")
	if q != "" {
		db = db.Where("name LIKE ?", "%"+q+"%")
	}

	var rows []tag
	if err := db.Find(&rows).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	out := make([]models.Tag, 0, len(rows))
	for _, t := range rows {
		out = append(out, models.Tag{TagID: int(t.TagID), Name: t.Name})
	}
	return c.JSON(out)
}

func (s *Server) createPost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	content := c.FormValue("content")
	if content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	universityID, _ := strconv.Atoi(c.FormValue("university_id"))
	careerID, _ := strconv.Atoi(c.FormValue("career_id"))

	p := post{
		UserID:       userID,
		Content:      content,
		UniversityID: uint(universityID),
		CareerID:     uint(careerID),
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	if raw := c.FormValue("tag_ids"); raw != "" {
		var ids []int
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("tag_ids must be a JSON array of integers"))
		}
		var tags []tag
		if err := s.db.Where("tag_id IN ?", ids).Find(&tags).Error; err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
		if err := s.db.Model(&p).Association("Tags").Append(&tags); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
	}

	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["files[]"] {
			// The stub keeps no binaries; it records metadata with a
			// synthetic URL so the client's rendering path has data.
			f := file{
				PostID:   p.PostID,
				FileURL:  fmt.Sprintf("/files/%d/%s", p.PostID, fh.Filename),
				FileType: fileType(fh.Filename),
				FileName: fh.Filename,
			}
			if err := s.db.Create(&f).Error; err != nil {
				return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
			}
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created",
		"post_id": p.PostID,
	})
}

func fileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	case ".pdf":
		return "pdf"
	case ".mp4", ".webm":
		return "video"
	default:
		return "file"
	}
}

func (s *Server) likePost(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var p post
	if err := s.db.First(&p, postID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}

	var existing like
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

	l := like{PostID: postID, UserID: userID, LikedAt: time.Now()}
	if err := s.db.Create(&l).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"message": "Like added"})
}

func (s *Server) addComment(c *fiber.Ctx) error {
	userID := currentUserID(c)
	postID, err := parseID(c, "id")
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

	var p post
	if err := s.db.First(&p, postID).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", postID))
	}

	cm := comment{
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

	return c.JSON(fiber.Map{"comment": wireComment(cm)})
}
