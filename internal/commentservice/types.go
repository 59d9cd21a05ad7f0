package commentservice

import (
	"context"
	"database/sql"
	"time"
)

type Comment struct {
	ID     int `json:"id"`
	PostID int `json:"post_id"`
	UserID int `json:"user_id"`
	// ParentID is nil for a top-level comment. A reply's parent is always
	// itself top-level: nesting never exceeds one level.
	ParentID       *int      `json:"parent_id,omitempty"`
	Content        string    `json:"content"`
	AuthorNickname string    `json:"author_nickname"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// PostTitle and PostSlug are populated only by ListByUser.
	PostTitle string `json:"post_title,omitempty"`
	PostSlug  string `json:"post_slug,omitempty"`
}

// Thread is a top-level comment together with its direct replies in
// creation order.
type Thread struct {
	Comment
	Replies []Comment `json:"replies"`
}

// ModerationGate is consulted before comment writes.
type ModerationGate interface {
	CheckWriteAllowed(ctx context.Context, userID int) error
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m    *CommentModel
	gate ModerationGate
}
