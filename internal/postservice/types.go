package postservice

import (
	"context"
	"database/sql"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
)

type Status string

type Sort string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusPrivate   Status = "private"

	SortLatest  Sort = "latest"
	SortOldest  Sort = "oldest"
	SortPopular Sort = "popular"

	// PageSize is the fixed page size of the published feed.
	PageSize = 6
)

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

type Post struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	// Content is stored in Markdown format.
	Content      string    `json:"content"`
	Excerpt      string    `json:"excerpt"`
	CategoryID   *int      `json:"category_id,omitempty"`
	Category     *Category `json:"category,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	// AuthorName is a snapshot of the author's nickname at the time of
	// authorship, not a live reference.
	AuthorName  string    `json:"author_name"`
	UserID      int       `json:"user_id"`
	Status      Status    `json:"status"`
	PublishedAt time.Time `json:"published_at"`
	ViewCount   int       `json:"view_count"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	Version     int       `json:"version"`
}

// Filter selects and orders a page of the published feed.
type Filter struct {
	CategorySlug string
	Sort         Sort
	Page         int
}

// SearchResult holds the two independent result sets of a search: posts
// whose title matches and posts whose content matches. The content set never
// contains a post already present in the title set.
type SearchResult struct {
	TitleMatches   []Post `json:"title_matches"`
	ContentMatches []Post `json:"content_matches"`
}

// ModerationGate is consulted before every content write. It reports a
// permission error while the writing account is suspended.
type ModerationGate interface {
	CheckWriteAllowed(ctx context.Context, userID int) error
}

type PostModel struct {
	db *sql.DB
}

type PostService struct {
	m    *PostModel
	gate ModerationGate
	c    *common.Cache
}
