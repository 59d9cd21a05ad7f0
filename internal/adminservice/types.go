package adminservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
)

// UserSummary is the admin back-office view of an account.
type UserSummary struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Nickname       string     `json:"nickname"`
	Role           string     `json:"role"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Activated      bool       `json:"activated"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PostSummary is the admin back-office view of a post, any status included.
type PostSummary struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	AuthorName  string    `json:"author_name"`
	Status      string    `json:"status"`
	ViewCount   int       `json:"view_count"`
	PublishedAt time.Time `json:"published_at"`
}

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

type AdminModel struct {
	db *sql.DB
}

type AdminService struct {
	m      *AdminModel
	mb     common.MessageProducer
	c      *common.Cache
	logger *slog.Logger
}
