package commentservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intptr(n int) *int {
	return &n
}

func TestBuildThread(t *testing.T) {
	comments := []Comment{
		{ID: 1, Content: "first"},
		{ID: 2, Content: "second"},
		{ID: 3, ParentID: intptr(1), Content: "reply to first"},
		{ID: 4, ParentID: intptr(1), Content: "another reply to first"},
		{ID: 5, ParentID: intptr(2), Content: "reply to second"},
	}

	threads := BuildThread(comments)

	assert.Len(t, threads, 2)

	assert.Equal(t, 1, threads[0].ID)
	assert.Len(t, threads[0].Replies, 2)
	assert.Equal(t, 3, threads[0].Replies[0].ID)
	assert.Equal(t, 4, threads[0].Replies[1].ID)

	assert.Equal(t, 2, threads[1].ID)
	assert.Len(t, threads[1].Replies, 1)
	assert.Equal(t, 5, threads[1].Replies[0].ID)
}

func TestBuildThreadEmpty(t *testing.T) {
	threads := BuildThread(nil)
	assert.Empty(t, threads)
}

func TestBuildThreadNoReplies(t *testing.T) {
	threads := BuildThread([]Comment{{ID: 1}, {ID: 2}})

	assert.Len(t, threads, 2)
	assert.Empty(t, threads[0].Replies)
	assert.Empty(t, threads[1].Replies)
}
