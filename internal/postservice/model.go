package postservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrDuplicateSlug    = errors.New("duplicate slug")
	ErrEditConflict     = errors.New("edit conflict")
	ErrNotPermitted     = errors.New("not permitted")
	ErrCategoryNotFound = errors.New("category does not exist")
	ErrUserForeignKey   = errors.New("user_id does not exist")
)

func newPostModel(db *sql.DB) *PostModel {
	return &PostModel{db: db}
}

// ForeignKeyError is a helper function to check if the error is a foreign key constraint error.
func ForeignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

const postColumns = `
	p.id, p.title, p.slug, COALESCE(p.content, ''), p.excerpt, p.category_id, p.thumbnail_url,
	p.author_name, p.user_id, p.status, p.published_at, p.view_count, p.is_featured, p.created_at, p.version,
	c.id, c.name, c.slug, c.sort_order`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	var categoryID sql.NullInt64
	var thumbnail sql.NullString
	var catID sql.NullInt64
	var catName, catSlug sql.NullString
	var catOrder sql.NullInt64

	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &categoryID, &thumbnail,
		&p.AuthorName, &p.UserID, &p.Status, &p.PublishedAt, &p.ViewCount, &p.IsFeatured, &p.CreatedAt, &p.Version,
		&catID, &catName, &catSlug, &catOrder,
	)
	if err != nil {
		return nil, err
	}

	if categoryID.Valid {
		id := int(categoryID.Int64)
		p.CategoryID = &id
	}
	if thumbnail.Valid {
		url := thumbnail.String
		p.ThumbnailURL = &url
	}
	if catID.Valid {
		p.Category = &Category{
			ID:        int(catID.Int64),
			Name:      catName.String,
			Slug:      catSlug.String,
			SortOrder: int(catOrder.Int64),
		}
	}

	return &p, nil
}

func (m *PostModel) insert(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (title, slug, content, excerpt, category_id, thumbnail_url, author_name, user_id, status)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		RETURNING id, published_at, view_count, is_featured, created_at, version`

	var categoryID any
	if p.CategoryID != nil {
		categoryID = *p.CategoryID
	}

	var thumbnail any
	if p.ThumbnailURL != nil {
		thumbnail = *p.ThumbnailURL
	}

	args := []any{p.Title, p.Slug, p.Content, p.Excerpt, categoryID, thumbnail, p.AuthorName, p.UserID, p.Status}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.PublishedAt, &p.ViewCount, &p.IsFeatured, &p.CreatedAt, &p.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "posts_slug_key"):
			return ErrDuplicateSlug
		case ForeignKeyError(err, "posts_category_id_fkey"):
			return ErrCategoryNotFound
		case ForeignKeyError(err, "posts_user_id_fkey"):
			return ErrUserForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) getBySlug(ctx context.Context, slug string) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.slug = $1`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

func (m *PostModel) getByID(ctx context.Context, id int) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

func (m *PostModel) update(ctx context.Context, p *Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = NULLIF($2, ''), excerpt = $3, category_id = $4, thumbnail_url = $5, status = $6, version = version + 1
		WHERE id = $7 AND user_id = $8 AND version = $9
		RETURNING version`

	var categoryID any
	if p.CategoryID != nil {
		categoryID = *p.CategoryID
	}

	var thumbnail any
	if p.ThumbnailURL != nil {
		thumbnail = *p.ThumbnailURL
	}

	args := []any{p.Title, p.Content, p.Excerpt, categoryID, thumbnail, p.Status, p.ID, p.UserID, p.Version}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&p.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		case ForeignKeyError(err, "posts_category_id_fkey"):
			return ErrCategoryNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *PostModel) updateStatus(ctx context.Context, id int, status Status) error {
	query := `
		UPDATE posts
		SET status = $1, version = version + 1
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *PostModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		switch {
		case rows == 0:
			return ErrRecordNotFound
		default:
			return fmt.Errorf("expected 1 row to be affected, got %d", rows)
		}
	}

	return nil
}

func (m *PostModel) collectPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// listPublished returns a page of published posts, optionally restricted to
// a category, ordered by the requested sort. popular sorts by view count
// with recency as the tie-break.
func (m *PostModel) listPublished(ctx context.Context, categorySlug string, sort Sort, limit, offset int) ([]Post, error) {
	var order string
	switch sort {
	case SortOldest:
		order = "p.published_at ASC"
	case SortPopular:
		order = "p.view_count DESC, p.published_at DESC"
	default:
		order = "p.published_at DESC"
	}

	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status = 'published' AND ($1 = '' OR c.slug = $1)
		ORDER BY ` + order + `
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, categorySlug, limit, offset)
	if err != nil {
		return nil, err
	}

	return m.collectPosts(rows)
}

func (m *PostModel) listFeatured(ctx context.Context) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status = 'published' AND p.is_featured = true
		ORDER BY p.published_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return m.collectPosts(rows)
}

func (m *PostModel) listByUser(ctx context.Context, userID int) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.user_id = $1
		ORDER BY p.published_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return m.collectPosts(rows)
}

func (m *PostModel) searchByTitle(ctx context.Context, q string) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status = 'published' AND p.title ILIKE $1
		ORDER BY p.published_at DESC`

	rows, err := m.db.QueryContext(ctx, query, "%"+q+"%")
	if err != nil {
		return nil, err
	}

	return m.collectPosts(rows)
}

func (m *PostModel) searchByContent(ctx context.Context, q string) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN categories c ON p.category_id = c.id
		WHERE p.status = 'published' AND p.content ILIKE $1
		ORDER BY p.published_at DESC`

	rows, err := m.db.QueryContext(ctx, query, "%"+q+"%")
	if err != nil {
		return nil, err
	}

	return m.collectPosts(rows)
}

// incrementView bumps the view counter. The row-level UPDATE is atomic; the
// caller treats the whole operation as a non-critical side effect.
func (m *PostModel) incrementView(ctx context.Context, slug string) error {
	query := `
		UPDATE posts
		SET view_count = view_count + 1
		WHERE slug = $1`

	res, err := m.db.ExecContext(ctx, query, slug)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *PostModel) listCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT id, name, slug, sort_order
		FROM categories
		ORDER BY sort_order, id`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.SortOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}
