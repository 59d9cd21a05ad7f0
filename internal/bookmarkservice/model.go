package bookmarkservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var ErrPostForeignKey = errors.New("post_id does not exist")

type Bookmark struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkedPost is a bookmark joined with the current state of its post.
type BookmarkedPost struct {
	PostID       int       `json:"post_id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Excerpt      string    `json:"excerpt"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	AuthorName   string    `json:"author_name"`
	Status       string    `json:"status"`
	BookmarkedAt time.Time `json:"bookmarked_at"`
}

type BookmarkModel struct {
	db *sql.DB
}

func newBookmarkModel(db *sql.DB) *BookmarkModel {
	return &BookmarkModel{db: db}
}

func uniquePairViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == "bookmarks_user_id_post_id_key"
	}

	return false
}

// insert creates the (user, post) pair. A concurrent duplicate insert trips
// the unique constraint; the caller treats that as an already-bookmarked
// outcome, not a hard error.
func (m *BookmarkModel) insert(ctx context.Context, userID, postID int) (created bool, err error) {
	query := `
		INSERT INTO bookmarks (user_id, post_id)
		VALUES ($1, $2)`

	_, err = m.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		switch {
		case uniquePairViolation(err):
			return false, nil
		case foreignKeyError(err, "bookmarks_post_id_fkey"):
			return false, ErrPostForeignKey
		default:
			return false, err
		}
	}

	return true, nil
}

func foreignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" && pqErr.Constraint == name
	}

	return false
}

// remove deletes the pair and reports whether it existed.
func (m *BookmarkModel) remove(ctx context.Context, userID, postID int) (bool, error) {
	query := `
		DELETE FROM bookmarks
		WHERE user_id = $1 AND post_id = $2`

	res, err := m.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (m *BookmarkModel) exists(ctx context.Context, userID, postID int) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND post_id = $2)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, userID, postID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// listForUser returns the user's bookmarked posts, most recently bookmarked
// first. The inner join keeps the list free of dangling references: a
// bookmark whose post was deleted no longer exists at all.
func (m *BookmarkModel) listForUser(ctx context.Context, userID int) ([]BookmarkedPost, error) {
	query := `
		SELECT p.id, p.title, p.slug, p.excerpt, p.thumbnail_url, p.author_name, p.status, b.created_at
		FROM bookmarks b
		JOIN posts p ON b.post_id = p.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BookmarkedPost
	for rows.Next() {
		var bp BookmarkedPost
		var thumbnail sql.NullString

		err := rows.Scan(&bp.PostID, &bp.Title, &bp.Slug, &bp.Excerpt, &thumbnail, &bp.AuthorName, &bp.Status, &bp.BookmarkedAt)
		if err != nil {
			return nil, err
		}

		if thumbnail.Valid {
			url := thumbnail.String
			bp.ThumbnailURL = &url
		}

		posts = append(posts, bp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}
