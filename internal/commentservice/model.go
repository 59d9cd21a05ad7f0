package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNotPermitted   = errors.New("not permitted")
	ErrPostForeignKey = errors.New("post_id does not exist")
)

func newCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

func foreignKeyError(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23503" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *CommentModel) insert(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (post_id, user_id, parent_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	var parentID any
	if c.ParentID != nil {
		parentID = *c.ParentID
	}

	err := m.db.QueryRowContext(ctx, query, c.PostID, c.UserID, parentID, c.Content).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case foreignKeyError(err, "comments_post_id_fkey"):
			return ErrPostForeignKey
		default:
			return err
		}
	}

	return nil
}

func (m *CommentModel) getByID(ctx context.Context, id int) (*Comment, error) {
	query := `
		SELECT id, post_id, user_id, parent_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1`

	var c Comment
	var parentID sql.NullInt64

	err := m.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.PostID, &c.UserID, &parentID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if parentID.Valid {
		pid := int(parentID.Int64)
		c.ParentID = &pid
	}

	return &c, nil
}

func (m *CommentModel) update(ctx context.Context, id int, content string) error {
	query := `
		UPDATE comments
		SET content = $1, updated_at = now()
		WHERE id = $2`

	res, err := m.db.ExecContext(ctx, query, content, id)
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

func (m *CommentModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM comments
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

// listForPost returns the flat comment set of a post in creation order,
// joined with the current author nickname.
func (m *CommentModel) listForPost(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, u.nickname, c.created_at, c.updated_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		var parentID sql.NullInt64

		err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &parentID, &c.Content, &c.AuthorNickname, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if parentID.Valid {
			pid := int(parentID.Int64)
			c.ParentID = &pid
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// listByUser returns a user's comments joined with the post they belong to.
func (m *CommentModel) listByUser(ctx context.Context, userID int) ([]Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, c.created_at, c.updated_at, p.title, p.slug
		FROM comments c
		JOIN posts p ON c.post_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		var parentID sql.NullInt64

		err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &parentID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.PostTitle, &c.PostSlug)
		if err != nil {
			return nil, err
		}

		if parentID.Valid {
			pid := int(parentID.Int64)
			c.ParentID = &pid
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
