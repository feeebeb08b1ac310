package models

import "time"

// Tag is immutable reference data fetched from the server. Posts hold a set
// of tags unique by TagID; order matters only for display.
type Tag struct {
	TagID int    `json:"TagID"`
	Name  string `json:"Name"`
}

// Post is a feed publication. The client holds it as a cache of server
// state: comments are append-only, likes are patched locally only after the
// server confirms a toggle.
type Post struct {
	PostID       int         `json:"PostID"`
	UserID       int         `json:"UserID"`
	Content      string      `json:"Content"`
	CreatedAt    time.Time   `json:"CreatedAt"`
	Tags         []Tag       `json:"Tags"`
	UniversityID int         `json:"UniversityID"`
	CareerID     int         `json:"CareerID"`
	University   *University `json:"University,omitempty"`
	Career       *Career     `json:"Career,omitempty"`
	User         User        `json:"User"`
	Comments     []Comment   `json:"Comments"`
	Likes        []PostLike  `json:"Likes"`
	Files        []PostFile  `json:"Files"`
}

// Comment belongs to exactly one post.
type Comment struct {
	CommentID int       `json:"CommentID"`
	PostID    int       `json:"PostID"`
	UserID    int       `json:"UserID"`
	Content   string    `json:"Content"`
	CreatedAt time.Time `json:"CreatedAt"`
	User      User      `json:"User"`
}

// PostLike is one user's like on one post. The server enforces uniqueness
// per user; the client still deduplicates by UserID before deriving state.
type PostLike struct {
	LikeID  int       `json:"LikeID"`
	PostID  int       `json:"PostID"`
	UserID  int       `json:"UserID"`
	LikedAt time.Time `json:"LikedAt,omitempty"`
	User    *User     `json:"User,omitempty"`
}

// PostFile is an attachment reference; the binary lives behind FileURL.
type PostFile struct {
	FileID   int    `json:"FileID"`
	FileURL  string `json:"FileURL"`
	FileType string `json:"FileType"`
	FileName string `json:"FileName,omitempty"`
	PostID   int    `json:"PostID"`
}

// LikedBy reports whether userID appears in the like list.
func (p *Post) LikedBy(userID int) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// LikeCount counts likes deduplicated by user ID.
func (p *Post) LikeCount() int {
	seen := make(map[int]struct{}, len(p.Likes))
	for _, l := range p.Likes {
		seen[l.UserID] = struct{}{}
	}
	return len(seen)
}
