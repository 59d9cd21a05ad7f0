package bookmarkservice

import (
	"context"
	"database/sql"

	"github.com/MDA04systack/devlog/internal/common"
)

type BookmarkService struct {
	m *BookmarkModel
}

func NewBookmarkService(db *sql.DB) *BookmarkService {
	return &BookmarkService{m: newBookmarkModel(db)}
}

// Toggle flips the bookmark state of (userID, postID) and returns the
// resulting membership: true if the post is now bookmarked. The operation is
// idempotent under rapid repetition; the unique pair constraint guarantees
// at most one row ever exists for the pair.
func (s *BookmarkService) Toggle(ctx context.Context, userID, postID int) (bool, error) {
	v := common.NewValidator()
	v.Check(userID > 0, "user_id", "must be greater than zero")
	v.Check(postID > 0, "post_id", "must be greater than zero")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	removed, err := s.m.remove(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if removed {
		return false, nil
	}

	// The pair did not exist; create it. A lost race against a concurrent
	// toggle surfaces as a benign duplicate insert.
	_, err = s.m.insert(ctx, userID, postID)
	if err != nil {
		return false, err
	}

	return true, nil
}

// IsBookmarked reports the current membership state of the pair.
func (s *BookmarkService) IsBookmarked(ctx context.Context, userID, postID int) (bool, error) {
	v := common.NewValidator()
	v.Check(userID > 0, "user_id", "must be greater than zero")
	v.Check(postID > 0, "post_id", "must be greater than zero")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	return s.m.exists(ctx, userID, postID)
}

// ListForUser returns the user's bookmarked posts in reverse-chronological
// bookmark-creation order.
func (s *BookmarkService) ListForUser(ctx context.Context, userID int) ([]BookmarkedPost, error) {
	v := common.NewValidator()
	v.Check(userID > 0, "user_id", "must be greater than zero")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listForUser(ctx, userID)
}
