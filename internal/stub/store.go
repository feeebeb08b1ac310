package stub

import (
	"strings"
	"time"

	"campus/internal/models"

	"gorm.io/gorm"
)

// Storage rows. These are the stub's private schema; handlers convert them
// to the wire types in internal/models before responding.

type user struct {
	UserID       uint   `gorm:"primaryKey"`
	AccountName  string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null"`
	Img          string
	Role         string `gorm:"default:user"`
	UniversityID uint
	CareerID     uint
	CreatedAt    time.Time
}

type university struct {
	UniversityID uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
}

type career struct {
	CareerID     uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	UniversityID uint   `gorm:"not null"`
}

type tag struct {
	TagID uint   `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;not null"`
}

type post struct {
	PostID       uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	Content      string `gorm:"not null"`
	UniversityID uint
	CareerID     uint
	CreatedAt    time.Time

	User     user      `gorm:"foreignKey:UserID"`
	Comments []comment `gorm:"foreignKey:PostID"`
	Likes    []like    `gorm:"foreignKey:PostID"`
	Files    []file    `gorm:"foreignKey:PostID"`
	Tags     []tag     `gorm:"many2many:post_tags;foreignKey:PostID;joinForeignKey:post_id;References:TagID;joinReferences:tag_id"`
}

type comment struct {
	CommentID uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time

	User user `gorm:"foreignKey:UserID"`
}

type like struct {
	LikeID  uint `gorm:"primaryKey"`
	PostID  uint `gorm:"not null;index"`
	UserID  uint `gorm:"not null;index"`
	LikedAt time.Time

	User user `gorm:"foreignKey:UserID"`
}

type file struct {
	FileID   uint   `gorm:"primaryKey"`
	PostID   uint   `gorm:"not null;index"`
	FileURL  string `gorm:"not null"`
	FileType string `gorm:"not null"`
	FileName string
}

type channel struct {
	ChannelID    uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Description  string
	IsPrivate    bool
	CreatedBy    uint `gorm:"not null"`
	UniversityID uint
	CareerID     uint
	CreatedAt    time.Time

	Members []channelMember `gorm:"foreignKey:ChannelID"`
}

type channelMember struct {
	MemberID  uint `gorm:"primaryKey"`
	ChannelID uint `gorm:"not null;index"`
	UserID    uint `gorm:"not null;index"`
	IsAdmin   bool
	JoinedAt  time.Time

	User user `gorm:"foreignKey:UserID"`
}

type channelInvitation struct {
	InvitationID uint   `gorm:"primaryKey"`
	ChannelID    uint   `gorm:"not null"`
	InvitedBy    uint   `gorm:"not null"`
	InvitedUser  uint   `gorm:"not null;index"`
	Status       string `gorm:"default:pending"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Channel channel `gorm:"foreignKey:ChannelID"`
}

type channelPost struct {
	PostID    uint   `gorm:"primaryKey"`
	ChannelID uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Content   string `gorm:"not null"`
	// Tags are comma-joined plain strings; channel posts do not share the
	// feed's tag vocabulary.
	Tags      string
	CreatedAt time.Time

	User     user                 `gorm:"foreignKey:UserID"`
	Comments []channelPostComment `gorm:"foreignKey:PostID"`
	Likes    []channelPostLike    `gorm:"foreignKey:PostID"`
	Files    []channelPostFile    `gorm:"foreignKey:PostID"`
}

type channelPostComment struct {
	CommentID uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time

	User user `gorm:"foreignKey:UserID"`
}

type channelPostLike struct {
	LikeID uint `gorm:"primaryKey"`
	PostID uint `gorm:"not null;index"`
	UserID uint `gorm:"not null;index"`
}

type channelPostFile struct {
	FileID   uint   `gorm:"primaryKey"`
	PostID   uint   `gorm:"not null;index"`
	FileURL  string `gorm:"not null"`
	FileType string
	FileName string
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user{}, &university{}, &career{}, &tag{},
		&post{}, &comment{}, &like{}, &file{},
		&channel{}, &channelMember{}, &channelInvitation{},
		&channelPost{}, &channelPostComment{}, &channelPostLike{}, &channelPostFile{},
	)
}

// Wire conversions.

func wireUser(u user) models.User {
	return models.User{
		UserID:       int(u.UserID),
		Username:     u.Username,
		Avatar:       u.Img,
		Role:         u.Role,
		UniversityID: int(u.UniversityID),
		CareerID:     int(u.CareerID),
		CreatedAt:    u.CreatedAt,
	}
}

func wirePost(db *gorm.DB, p post) models.Post {
	out := models.Post{
		PostID:       int(p.PostID),
		UserID:       int(p.UserID),
		Content:      p.Content,
		CreatedAt:    p.CreatedAt,
		UniversityID: int(p.UniversityID),
		CareerID:     int(p.CareerID),
		User:         wireUser(p.User),
		Tags:         []models.Tag{},
		Comments:     []models.Comment{},
		Likes:        []models.PostLike{},
		Files:        []models.PostFile{},
	}

	var uni university
	if db.First(&uni, p.UniversityID).Error == nil {
		out.University = &models.University{Name: uni.Name}
	}
	var car career
	if db.First(&car, p.CareerID).Error == nil {
		out.Career = &models.Career{CareerID: int(car.CareerID), Name: car.Name}
	}

	for _, t := range p.Tags {
		out.Tags = append(out.Tags, models.Tag{TagID: int(t.TagID), Name: t.Name})
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, wireComment(c))
	}
	for _, l := range p.Likes {
		u := wireUser(l.User)
		out.Likes = append(out.Likes, models.PostLike{
			LikeID:  int(l.LikeID),
			PostID:  int(l.PostID),
			UserID:  int(l.UserID),
			LikedAt: l.LikedAt,
			User:    &u,
		})
	}
	for _, f := range p.Files {
		out.Files = append(out.Files, models.PostFile{
			FileID:   int(f.FileID),
			FileURL:  f.FileURL,
			FileType: f.FileType,
			FileName: f.FileName,
			PostID:   int(f.PostID),
		})
	}
	return out
}

func wireComment(c comment) models.Comment {
	return models.Comment{
		CommentID: int(c.CommentID),
		PostID:    int(c.PostID),
		UserID:    int(c.UserID),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		User:      wireUser(c.User),
	}
}

func wireChannel(ch channel) models.Channel {
	out := models.Channel{
		ChannelID:    int(ch.ChannelID),
		Name:         ch.Name,
		Description:  ch.Description,
		IsPrivate:    ch.IsPrivate,
		CreatedAt:    ch.CreatedAt,
		CreatedBy:    int(ch.CreatedBy),
		UniversityID: int(ch.UniversityID),
		CareerID:     int(ch.CareerID),
	}
	for _, m := range ch.Members {
		u := wireUser(m.User)
		out.Members = append(out.Members, models.ChannelMember{
			MemberID:  int(m.MemberID),
			ChannelID: int(m.ChannelID),
			UserID:    int(m.UserID),
			IsAdmin:   m.IsAdmin,
			JoinedAt:  m.JoinedAt,
			User:      &u,
		})
	}
	return out
}

func wireChannelPost(p channelPost) models.ChannelPost {
	out := models.ChannelPost{
		PostID:    int(p.PostID),
		ChannelID: int(p.ChannelID),
		UserID:    int(p.UserID),
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		Comments:  []models.ChannelPostComment{},
		Likes:     []models.ChannelPostLike{},
		Files:     []models.ChannelPostFile{},
	}
	u := wireUser(p.User)
	out.User = &u
	if p.Tags != "" {
		out.Tags = strings.Split(p.Tags, ",")
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, wireChannelPostComment(c))
	}
	for _, l := range p.Likes {
		out.Likes = append(out.Likes, models.ChannelPostLike{
			LikeID: int(l.LikeID),
			PostID: int(l.PostID),
			UserID: int(l.UserID),
		})
	}
	for _, f := range p.Files {
		out.Files = append(out.Files, models.ChannelPostFile{
			FileID:   int(f.FileID),
			PostID:   int(f.PostID),
			FileURL:  f.FileURL,
			FileType: f.FileType,
			FileName: f.FileName,
		})
	}
	return out
}

func wireChannelPostComment(c channelPostComment) models.ChannelPostComment {
	u := wireUser(c.User)
	return models.ChannelPostComment{
		CommentID: int(c.CommentID),
		PostID:    int(c.PostID),
		UserID:    int(c.UserID),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		User:      &u,
	}
}
