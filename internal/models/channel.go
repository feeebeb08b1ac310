package models

import "time"

// Invitation status values.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Channel is a scoped sub-community with its own posts and membership.
type Channel struct {
	ChannelID    int             `json:"ChannelID"`
	Name         string          `json:"Name"`
	Description  string          `json:"Description"`
	IsPrivate    bool            `json:"IsPrivate"`
	CreatedAt    time.Time       `json:"CreatedAt"`
	CreatedBy    int             `json:"CreatedBy"`
	UniversityID int             `json:"UniversityID,omitempty"`
	CareerID     int             `json:"CareerID,omitempty"`
	Creator      *User           `json:"Creator,omitempty"`
	Members      []ChannelMember `json:"Members,omitempty"`
}

// ChannelMember links a user into a channel.
type ChannelMember struct {
	MemberID  int       `json:"MemberID"`
	ChannelID int       `json:"ChannelID"`
	UserID    int       `json:"UserID"`
	IsAdmin   bool      `json:"IsAdmin"`
	JoinedAt  time.Time `json:"JoinedAt,omitempty"`
	User      *User     `json:"User,omitempty"`
}

// ChannelInvitation is a pending membership offer.
type ChannelInvitation struct {
	InvitationID int       `json:"InvitationID"`
	ChannelID    int       `json:"ChannelID"`
	InvitedBy    int       `json:"InvitedBy"`
	InvitedUser  int       `json:"InvitedUser"`
	Status       string    `json:"Status"`
	CreatedAt    time.Time `json:"CreatedAt,omitempty"`
	Channel      *Channel  `json:"Channel,omitempty"`
	Inviter      *User     `json:"Inviter,omitempty"`
}

// ChannelPost is a publication inside a channel. Unlike feed posts its tags
// are plain strings.
type ChannelPost struct {
	PostID    int                  `json:"PostID"`
	ChannelID int                  `json:"ChannelID"`
	UserID    int                  `json:"UserID"`
	Content   string               `json:"Content"`
	CreatedAt time.Time            `json:"CreatedAt"`
	Tags      []string             `json:"Tags,omitempty"`
	User      *User                `json:"User,omitempty"`
	Files     []ChannelPostFile    `json:"Files,omitempty"`
	Comments  []ChannelPostComment `json:"Comments,omitempty"`
	Likes     []ChannelPostLike    `json:"Likes,omitempty"`
}

// ChannelPostFile is an attachment on a channel post.
type ChannelPostFile struct {
	FileID   int    `json:"FileID"`
	PostID   int    `json:"PostID"`
	FileURL  string `json:"FileURL"`
	FileType string `json:"FileType"`
	FileName string `json:"FileName,omitempty"`
}

// ChannelPostComment belongs to exactly one channel post.
type ChannelPostComment struct {
	CommentID int       `json:"CommentID"`
	PostID    int       `json:"PostID"`
	UserID    int       `json:"UserID"`
	Content   string    `json:"Content"`
	CreatedAt time.Time `json:"CreatedAt"`
	User      *User     `json:"User,omitempty"`
}

// ChannelPostLike is one user's like on one channel post.
type ChannelPostLike struct {
	LikeID int `json:"LikeID"`
	PostID int `json:"PostID"`
	UserID int `json:"UserID"`
}

// LikedBy reports whether userID appears in the like list.
func (p *ChannelPost) LikedBy(userID int) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// LikeCount counts likes deduplicated by user ID.
func (p *ChannelPost) LikeCount() int {
	seen := make(map[int]struct{}, len(p.Likes))
	for _, l := range p.Likes {
		seen[l.UserID] = struct{}{}
	}
	return len(seen)
}
