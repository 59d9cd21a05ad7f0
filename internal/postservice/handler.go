package postservice

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/userservice"
)

func NewPostService(db *sql.DB, gate ModerationGate, c *common.Cache) *PostService {
	return &PostService{m: newPostModel(db), gate: gate, c: c}
}

type CreatePostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CategoryID *int   `json:"category_id"`
	Status     Status `json:"status"`
	AuthorID   int    `json:"-"`
	AuthorName string `json:"-"`
}

// CreatePost creates a new post on behalf of AuthorID. The author's display
// name is snapshotted into the row, the slug is derived from the title and
// the creation instant, and the thumbnail is the first image reference found
// in the markdown content.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	if err := s.gate.CheckWriteAllowed(ctx, req.AuthorID); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	validateEditorial(v, req.Title, req.Content)
	validateStatus(v, req.Status)
	validateInt(v, req.AuthorID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled"
	}

	content := sanitizeMarkdown(req.Content)

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = makeExcerpt(content)
	}

	post := &Post{
		Title:        title,
		Slug:         makeSlug(title, time.Now()),
		Content:      content,
		Excerpt:      excerpt,
		CategoryID:   req.CategoryID,
		ThumbnailURL: extractThumbnail(content),
		AuthorName:   req.AuthorName,
		UserID:       req.AuthorID,
		Status:       req.Status,
	}

	if err := s.m.insert(ctx, post); err != nil {
		return nil, err
	}

	s.invalidateFeed()

	return post, nil
}

// GetPostBySlug returns a post. Drafts and private posts are visible only to
// their owner or an administrator; everyone else gets a not-found, so the
// existence of foreign private content is not leaked.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string, viewer *userservice.User) (*Post, error) {
	post, err := s.m.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if post.Status != StatusPublished && post.UserID != viewer.ID && !viewer.IsAdmin() {
		return nil, ErrRecordNotFound
	}

	return post, nil
}

type UpdatePostRequest struct {
	PostID     int    `json:"-"`
	EditorID   int    `json:"-"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CategoryID *int   `json:"category_id"`
	Status     Status `json:"status"`
}

// UpdatePost edits a post. Only the owner may edit, and a suspended owner is
// blocked by the moderation gate regardless of field validity.
func (s *PostService) UpdatePost(ctx context.Context, req *UpdatePostRequest) (*Post, error) {
	post, err := s.m.getByID(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	if post.UserID != req.EditorID {
		return nil, ErrNotPermitted
	}

	if err := s.gate.CheckWriteAllowed(ctx, req.EditorID); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	validateEditorial(v, req.Title, req.Content)
	validateStatus(v, req.Status)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled"
	}

	content := sanitizeMarkdown(req.Content)

	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = makeExcerpt(content)
	}

	post.Title = title
	post.Content = content
	post.Excerpt = excerpt
	post.CategoryID = req.CategoryID
	post.ThumbnailURL = extractThumbnail(content)
	post.Status = req.Status

	if err := s.m.update(ctx, post); err != nil {
		return nil, err
	}

	s.invalidateFeed()

	return post, nil
}

// ChangeStatus transitions a post between draft, published and private. The
// owner may set any status on their own post; an administrator may force
// published or private on any post, but never back to draft.
func (s *PostService) ChangeStatus(ctx context.Context, postID int, actor *userservice.User, status Status) error {
	v := common.NewValidator()
	validateStatus(v, status)
	validateInt(v, postID, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	post, err := s.m.getByID(ctx, postID)
	if err != nil {
		return err
	}

	switch {
	case post.UserID == actor.ID:
	case actor.IsAdmin():
		if status == StatusDraft {
			return ErrNotPermitted
		}
	default:
		return ErrNotPermitted
	}

	if err := s.m.updateStatus(ctx, postID, status); err != nil {
		return err
	}

	s.invalidateFeed()

	return nil
}

// DeletePost removes a post. Comments and bookmarks go with it by
// referential constraint. Owner or administrator only.
func (s *PostService) DeletePost(ctx context.Context, postID int, actor *userservice.User) error {
	post, err := s.m.getByID(ctx, postID)
	if err != nil {
		return err
	}

	if post.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotPermitted
	}

	if err := s.m.delete(ctx, postID); err != nil {
		return err
	}

	s.invalidateFeed()

	return nil
}

// IncrementView bumps the view counter for a post. Duplicate increments from
// the same reader are acceptable; callers treat failure as non-critical.
func (s *PostService) IncrementView(ctx context.Context, slug string) error {
	return s.m.incrementView(ctx, slug)
}

// ListPublished returns one page of the published feed.
func (s *PostService) ListPublished(ctx context.Context, filter Filter) ([]Post, error) {
	if filter.Sort == "" {
		filter.Sort = SortLatest
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	v := common.NewValidator()
	validateSort(v, filter.Sort)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	key := common.CacheKeyFeed(filter.CategorySlug, string(filter.Sort), filter.Page)
	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			return cached.([]Post), nil
		}
	}

	posts, err := s.m.listPublished(ctx, filter.CategorySlug, filter.Sort, PageSize, (filter.Page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, posts, time.Minute)
	}

	return posts, nil
}

// ListFeatured returns editorially flagged published posts.
func (s *PostService) ListFeatured(ctx context.Context) ([]Post, error) {
	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyFeaturedPosts()); ok {
			return cached.([]Post), nil
		}
	}

	posts, err := s.m.listFeatured(ctx)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyFeaturedPosts(), posts, time.Minute)
	}

	return posts, nil
}

// Search runs two independent case-insensitive substring matches over
// published posts, against title and content. A post matching both appears
// only in the title set.
func (s *PostService) Search(ctx context.Context, q string) (*SearchResult, error) {
	v := common.NewValidator()
	v.Check(v.CheckNotBlank(q), "q", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	q = strings.TrimSpace(q)

	titleMatches, err := s.m.searchByTitle(ctx, q)
	if err != nil {
		return nil, err
	}

	contentMatches, err := s.m.searchByContent(ctx, q)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(titleMatches))
	for _, p := range titleMatches {
		seen[p.ID] = struct{}{}
	}

	deduped := contentMatches[:0]
	for _, p := range contentMatches {
		if _, ok := seen[p.ID]; !ok {
			deduped = append(deduped, p)
		}
	}

	return &SearchResult{TitleMatches: titleMatches, ContentMatches: deduped}, nil
}

// ListByUser returns all posts owned by a user, drafts and private included.
func (s *PostService) ListByUser(ctx context.Context, userID int) ([]Post, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listByUser(ctx, userID)
}

// ListCategories returns all categories in their configured order.
func (s *PostService) ListCategories(ctx context.Context) ([]Category, error) {
	if s.c != nil {
		if cached, ok := s.c.Get(common.CacheKeyCategories()); ok {
			return cached.([]Category), nil
		}
	}

	categories, err := s.m.listCategories(ctx)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeyCategories(), categories, 5*time.Minute)
	}

	return categories, nil
}

func (s *PostService) invalidateFeed() {
	if s.c != nil {
		s.c.Flush()
	}
}
