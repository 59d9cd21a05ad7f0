package adminservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrNotPermitted        = errors.New("not permitted")
	ErrDuplicateCategory   = errors.New("duplicate category slug")
	ErrStatusNotForceable  = errors.New("status cannot be forced")
	ErrSuspensionInThePast = errors.New("suspension end must be in the future")
)

func newAdminModel(db *sql.DB) *AdminModel {
	return &AdminModel{db: db}
}

func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == name
	}

	return false
}

func (m *AdminModel) listUsers(ctx context.Context) ([]UserSummary, error) {
	query := `
		SELECT id, username, email, nickname, role, suspended_until, activated, created_at
		FROM users
		ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserSummary
	for rows.Next() {
		var u UserSummary
		var suspended sql.NullTime

		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Nickname, &u.Role, &suspended, &u.Activated, &u.CreatedAt)
		if err != nil {
			return nil, err
		}

		if suspended.Valid {
			u.SuspendedUntil = &suspended.Time
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// suspend sets the suspension end and returns the account email for the
// notification.
func (m *AdminModel) suspend(ctx context.Context, id int, until time.Time) (string, error) {
	query := `
		UPDATE users
		SET suspended_until = $1
		WHERE id = $2
		RETURNING email`

	var email string
	err := m.db.QueryRowContext(ctx, query, until, id).Scan(&email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrRecordNotFound
		default:
			return "", err
		}
	}

	return email, nil
}

func (m *AdminModel) unsuspend(ctx context.Context, id int) (string, error) {
	query := `
		UPDATE users
		SET suspended_until = NULL
		WHERE id = $1
		RETURNING email`

	var email string
	err := m.db.QueryRowContext(ctx, query, id).Scan(&email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrRecordNotFound
		default:
			return "", err
		}
	}

	return email, nil
}

func (m *AdminModel) deleteUser(ctx context.Context, id int) error {
	query := `
		DELETE FROM users
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
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

func (m *AdminModel) listPosts(ctx context.Context) ([]PostSummary, error) {
	query := `
		SELECT id, title, slug, author_name, status, view_count, published_at
		FROM posts
		ORDER BY published_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostSummary
	for rows.Next() {
		var p PostSummary

		err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.AuthorName, &p.Status, &p.ViewCount, &p.PublishedAt)
		if err != nil {
			return nil, err
		}

		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (m *AdminModel) setPostStatus(ctx context.Context, id int, status string) error {
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

func (m *AdminModel) deletePost(ctx context.Context, id int) error {
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
	if rows == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (m *AdminModel) createCategory(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (name, slug, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := m.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.SortOrder).Scan(&c.ID)
	if err != nil {
		switch {
		case uniqueViolation(err, "categories_slug_key"):
			return ErrDuplicateCategory
		default:
			return err
		}
	}

	return nil
}

func (m *AdminModel) renameCategory(ctx context.Context, id int, name string) error {
	query := `
		UPDATE categories
		SET name = $1
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, name, id)
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

// deleteCategory removes a category. Referencing posts survive with their
// category reference cleared by the ON DELETE SET NULL constraint.
func (m *AdminModel) deleteCategory(ctx context.Context, id int) error {
	query := `
		DELETE FROM categories
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
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

func (m *AdminModel) signupEnabled(ctx context.Context) (bool, error) {
	query := `
		SELECT signup_enabled
		FROM site_settings
		WHERE id = 1`

	var enabled bool
	err := m.db.QueryRowContext(ctx, query).Scan(&enabled)
	if err != nil {
		return false, err
	}

	return enabled, nil
}

func (m *AdminModel) setSignupEnabled(ctx context.Context, enabled bool) error {
	query := `
		UPDATE site_settings
		SET signup_enabled = $1
		WHERE id = 1`

	_, err := m.db.ExecContext(ctx, query, enabled)
	return err
}
