package commentservice

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/userservice"
)

type allowAllGate struct{}

func (allowAllGate) CheckWriteAllowed(ctx context.Context, userID int) error {
	return nil
}

func setupTestUser(db *sql.DB, username string) (int, error) {
	query := `
		INSERT INTO users (username, email, nickname, password, activated)
		VALUES ($1, $1 || '@example.com', $1 || '-nick', $2, true)
		RETURNING id`

	var id int
	err := db.QueryRow(query, username, []byte("not-a-real-hash")).Scan(&id)
	return id, err
}

func setupTestPost(db *sql.DB, userId int) (int, error) {
	query := `
		INSERT INTO posts (title, slug, content, author_name, user_id, status)
		VALUES ('Test Post', 'test-post', 'Content.', 'testuser-nick', $1, 'published')
		RETURNING id`

	var id int
	err := db.QueryRow(query, userId).Scan(&id)
	return id, err
}

func setupTestEnvironment(t *testing.T) (*CommentService, *sql.DB, int, int) {
	db := common.TestDB("file://../../migrations", t)

	userId, err := setupTestUser(db, "testuser")
	assert.NoError(t, err)

	postId, err := setupTestPost(db, userId)
	assert.NoError(t, err)

	return NewCommentService(db, allowAllGate{}), db, userId, postId
}

func TestAddComment(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	parent, err := s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: userId,
		Content:  "top-level comment",
	})
	assert.NoError(t, err)
	assert.NotZero(t, parent.ID)
	assert.Nil(t, parent.ParentID)

	reply, err := s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: userId,
		Content:  "a reply",
		ParentID: &parent.ID,
	})
	assert.NoError(t, err)
	assert.Equal(t, parent.ID, *reply.ParentID)

	testCases := []struct {
		name        string
		req         *AddCommentRequest
		expectedErr error
	}{
		{
			name: "blank content",
			req: &AddCommentRequest{
				PostID:   postId,
				AuthorID: userId,
				Content:  "   ",
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"content": "must be provided"}},
		},
		{
			name: "reply to a reply",
			req: &AddCommentRequest{
				PostID:   postId,
				AuthorID: userId,
				Content:  "too deep",
				ParentID: &reply.ID,
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"parent_id": "cannot reply to a reply"}},
		},
		{
			name: "missing parent",
			req: &AddCommentRequest{
				PostID:   postId,
				AuthorID: userId,
				Content:  "orphan",
				ParentID: intptr(999),
			},
			expectedErr: common.ValidationError{Errors: map[string]string{"parent_id": "referenced comment does not exist"}},
		},
		{
			name: "missing post",
			req: &AddCommentRequest{
				PostID:   999,
				AuthorID: userId,
				Content:  "nowhere",
			},
			expectedErr: ErrPostForeignKey,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AddComment(context.Background(), tc.req)
			assert.Equal(t, tc.expectedErr, err)
		})
	}

	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestAddCommentParentOnAnotherPost(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	parent, err := s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: userId,
		Content:  "on the first post",
	})
	assert.NoError(t, err)

	var otherPostId int
	err = db.QueryRow(`
		INSERT INTO posts (title, slug, content, author_name, user_id, status)
		VALUES ('Other Post', 'other-post', 'Content.', 'testuser-nick', $1, 'published')
		RETURNING id`, userId).Scan(&otherPostId)
	assert.NoError(t, err)

	_, err = s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   otherPostId,
		AuthorID: userId,
		Content:  "cross-post reply",
		ParentID: &parent.ID,
	})
	assert.Equal(t, common.ValidationError{Errors: map[string]string{"parent_id": "referenced comment belongs to another post"}}, err)
}

func TestEditComment(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	otherId, err := setupTestUser(db, "otheruser")
	assert.NoError(t, err)

	comment, err := s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: userId,
		Content:  "original",
	})
	assert.NoError(t, err)

	err = s.EditComment(context.Background(), comment.ID, otherId, "hijacked")
	assert.Equal(t, ErrNotPermitted, err)

	err = s.EditComment(context.Background(), comment.ID, userId, "edited")
	assert.NoError(t, err)

	var content string
	assert.NoError(t, db.QueryRow("SELECT content FROM comments WHERE id = $1", comment.ID).Scan(&content))
	assert.Equal(t, "edited", content)

	err = s.EditComment(context.Background(), 999, userId, "nothing here")
	assert.Equal(t, ErrRecordNotFound, err)
}

func TestDeleteComment(t *testing.T) {
	s, db, userId, postId := setupTestEnvironment(t)

	otherId, err := setupTestUser(db, "otheruser")
	assert.NoError(t, err)

	parent, err := s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: userId,
		Content:  "to be deleted",
	})
	assert.NoError(t, err)

	_, err = s.AddComment(context.Background(), &AddCommentRequest{
		PostID:   postId,
		AuthorID: otherId,
		Content:  "reply that goes with it",
		ParentID: &parent.ID,
	})
	assert.NoError(t, err)

	stranger := &userservice.User{ID: otherId, Role: userservice.RoleUser}
	err = s.DeleteComment(context.Background(), parent.ID, stranger)
	assert.Equal(t, ErrNotPermitted, err)

	admin := &userservice.User{ID: otherId, Role: userservice.RoleAdmin}
	err = s.DeleteComment(context.Background(), parent.ID, admin)
	assert.NoError(t, err)

	// deleting the parent cascades to its replies
	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestListForPost(t *testing.T) {
	s, _, userId, postId := setupTestEnvironment(t)

	first, err := s.AddComment(context.Background(), &AddCommentRequest{PostID: postId, AuthorID: userId, Content: "first"})
	assert.NoError(t, err)

	_, err = s.AddComment(context.Background(), &AddCommentRequest{PostID: postId, AuthorID: userId, Content: "second"})
	assert.NoError(t, err)

	_, err = s.AddComment(context.Background(), &AddCommentRequest{PostID: postId, AuthorID: userId, Content: "reply", ParentID: &first.ID})
	assert.NoError(t, err)

	comments, err := s.ListForPost(context.Background(), postId)
	assert.NoError(t, err)
	assert.Len(t, comments, 3)
	assert.Equal(t, "testuser-nick", comments[0].AuthorNickname)

	threads := BuildThread(comments)
	assert.Len(t, threads, 2)
	assert.Len(t, threads[0].Replies, 1)
}
