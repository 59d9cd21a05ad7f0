package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/userservice"
)

func NewCommentService(db *sql.DB, gate ModerationGate) *CommentService {
	return &CommentService{m: newCommentModel(db), gate: gate}
}

type AddCommentRequest struct {
	PostID   int    `json:"-"`
	AuthorID int    `json:"-"`
	Content  string `json:"content"`
	ParentID *int   `json:"parent_id"`
}

// AddComment creates a top-level comment or a single-level reply. Replying
// to a reply is rejected here, not just by UI convention: the parent must
// exist on the same post and itself be top-level.
func (s *CommentService) AddComment(ctx context.Context, req *AddCommentRequest) (*Comment, error) {
	if err := s.gate.CheckWriteAllowed(ctx, req.AuthorID); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	v.Check(v.CheckNotBlank(req.Content), "content", "must be provided")
	v.Check(req.PostID > 0, "post_id", "must be greater than zero")
	v.Check(req.AuthorID > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if req.ParentID != nil {
		parent, err := s.m.getByID(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				v.AddError("parent_id", "referenced comment does not exist")
				return nil, v.ValidationError()
			}
			return nil, err
		}

		if parent.PostID != req.PostID {
			v.AddError("parent_id", "referenced comment belongs to another post")
			return nil, v.ValidationError()
		}

		if parent.ParentID != nil {
			v.AddError("parent_id", "cannot reply to a reply")
			return nil, v.ValidationError()
		}
	}

	comment := &Comment{
		PostID:   req.PostID,
		UserID:   req.AuthorID,
		ParentID: req.ParentID,
		Content:  strings.TrimSpace(req.Content),
	}

	if err := s.m.insert(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// EditComment updates the content of a comment. Author only.
func (s *CommentService) EditComment(ctx context.Context, commentID, actorID int, content string) error {
	v := common.NewValidator()
	v.Check(v.CheckNotBlank(content), "content", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.gate.CheckWriteAllowed(ctx, actorID); err != nil {
		return err
	}

	comment, err := s.m.getByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != actorID {
		return ErrNotPermitted
	}

	return s.m.update(ctx, commentID, strings.TrimSpace(content))
}

// DeleteComment removes a comment. Author or administrator. Deleting a
// top-level comment removes its replies as well.
func (s *CommentService) DeleteComment(ctx context.Context, commentID int, actor *userservice.User) error {
	comment, err := s.m.getByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotPermitted
	}

	return s.m.delete(ctx, commentID)
}

// ListForPost returns the flat comment set of a post in creation order. Use
// BuildThread to fold it into the two-tier display shape.
func (s *CommentService) ListForPost(ctx context.Context, postID int) ([]Comment, error) {
	v := common.NewValidator()
	v.Check(postID > 0, "post_id", "must be greater than zero")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listForPost(ctx, postID)
}

// ListByUser returns a user's own comments with their posts (my-page).
func (s *CommentService) ListByUser(ctx context.Context, userID int) ([]Comment, error) {
	v := common.NewValidator()
	v.Check(userID > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listByUser(ctx, userID)
}
