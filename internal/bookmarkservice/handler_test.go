package bookmarkservice

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/postservice"
	"github.com/MDA04systack/devlog/internal/userservice"
)

func setupTestEnvironment(t *testing.T) (*BookmarkService, *sql.DB, int, int) {
	db := common.TestDB("file://../../migrations", t)

	var userId int
	err := db.QueryRow(`
		INSERT INTO users (username, email, nickname, password, activated)
		VALUES ('testuser', 'testuser@example.com', 'testuser-nick', $1, true)
		RETURNING id`, []byte("not-a-real-hash")).Scan(&userId)
	assert.NoError(t, err)

	var postId int
	err = db.QueryRow(`
		INSERT INTO posts (title, slug, content, author_name, user_id, status)
		VALUES ('Test Post', 'test-post', 'Content.', 'testuser-nick', $1, 'published')
		RETURNING id`, userId).Scan(&postId)
	assert.NoError(t, err)

	return NewBookmarkService(db), db, userId, postId
}

func TestToggle(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	// first toggle bookmarks
	bookmarked, err := s.Toggle(context.Background(), userId, postId)
	assert.NoError(t, err)
	assert.True(t, bookmarked)

	exists, err := s.IsBookmarked(context.Background(), userId, postId)
	assert.NoError(t, err)
	assert.True(t, exists)

	// second toggle removes
	bookmarked, err = s.Toggle(context.Background(), userId, postId)
	assert.NoError(t, err)
	assert.False(t, bookmarked)

	exists, err = s.IsBookmarked(context.Background(), userId, postId)
	assert.NoError(t, err)
	assert.False(t, exists)

	// third toggle bookmarks again, never producing a duplicate row
	bookmarked, err = s.Toggle(context.Background(), userId, postId)
	assert.NoError(t, err)
	assert.True(t, bookmarked)

	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestToggleMissingPost(t *testing.T) {
	s, _, userId, _ := setupTestEnvironment(t)

	_, err := s.Toggle(context.Background(), userId, 999)
	assert.Equal(t, ErrPostForeignKey, err)
}

func TestToggleInvalidInput(t *testing.T) {
	s, _, _, postId := setupTestEnvironment(t)

	_, err := s.Toggle(context.Background(), 0, postId)
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"user_id": "must be greater than zero"}}, err)
}

func TestListForUser(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	var secondPostId int
	err := db.QueryRow(`
		INSERT INTO posts (title, slug, content, author_name, user_id, status)
		VALUES ('Second Post', 'second-post', 'Content.', 'testuser-nick', $1, 'published')
		RETURNING id`, userId).Scan(&secondPostId)
	assert.NoError(t, err)

	_, err = s.Toggle(context.Background(), userId, postId)
	assert.NoError(t, err)

	_, err = s.Toggle(context.Background(), userId, secondPostId)
	assert.NoError(t, err)

	bookmarks, err := s.ListForUser(context.Background(), userId)
	assert.NoError(t, err)
	assert.Len(t, bookmarks, 2)

	// most recently bookmarked first
	assert.Equal(t, "second-post", bookmarks[0].Slug)
	assert.Equal(t, "test-post", bookmarks[1].Slug)
}

// allowAllGate stands in for the user service's moderation gate.
type allowAllGate struct{}

func (allowAllGate) CheckWriteAllowed(ctx context.Context, userID int) error {
	return nil
}

func TestListDropsDeletedPosts(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	var readerId int
	err := db.QueryRow(`
		INSERT INTO users (username, email, nickname, password, activated)
		VALUES ('reader', 'reader@example.com', 'reader-nick', $1, true)
		RETURNING id`, []byte("not-a-real-hash")).Scan(&readerId)
	assert.NoError(t, err)

	bookmarked, err := s.Toggle(context.Background(), readerId, postId)
	assert.NoError(t, err)
	assert.True(t, bookmarked)

	// the author deletes the post out from under the bookmark
	posts := postservice.NewPostService(db, allowAllGate{}, nil)
	err = posts.DeletePost(context.Background(), postId, &userservice.User{ID: userId})
	assert.NoError(t, err)

	bookmarks, err := s.ListForUser(context.Background(), readerId)
	assert.NoError(t, err)
	assert.Len(t, bookmarks, 0)

	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&count))
	assert.Equal(t, 0, count)
}
