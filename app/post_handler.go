package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/postservice"
	"github.com/MDA04systack/devlog/internal/userservice"
)

type createPostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CategoryID *int   `json:"category_id"`
	Status     string `json:"status"`
}

func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	var input createPostRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &postservice.CreatePostRequest{
		Title:      input.Title,
		Content:    input.Content,
		Excerpt:    input.Excerpt,
		CategoryID: input.CategoryID,
		Status:     postservice.Status(input.Status),
		AuthorID:   user.ID,
		AuthorName: user.Nickname,
	}

	post, err := app.postService.CreatePost(r.Context(), req)
	if err != nil {
		switch {
		case app.suspendedResponse(w, r, err):
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, postservice.ErrCategoryNotFound):
			app.failedValidationErrorResponse(w, r, map[string]string{"category_id": "category does not exist"})
		case errors.Is(err, postservice.ErrDuplicateSlug):
			app.conflictErrorResponse(w, r, "a post with this slug already exists")
		case errors.Is(err, postservice.ErrUserForeignKey):
			app.unAuthorizedErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	viewer := app.getUserContext(r)

	post, err := app.postService.GetPostBySlug(r.Context(), slug, viewer)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	env := envelope{"post": post}

	if !viewer.IsAnonymous() {
		bookmarked, err := app.bookmarkService.IsBookmarked(r.Context(), viewer.ID, post.ID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		env["bookmarked"] = bookmarked
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type updatePostRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CategoryID *int   `json:"category_id"`
	Status     string `json:"status"`
}

func (app *application) updatePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input updatePostRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	req := &postservice.UpdatePostRequest{
		PostID:     id,
		EditorID:   user.ID,
		Title:      input.Title,
		Content:    input.Content,
		Excerpt:    input.Excerpt,
		CategoryID: input.CategoryID,
		Status:     postservice.Status(input.Status),
	}

	post, err := app.postService.UpdatePost(r.Context(), req)
	if err != nil {
		switch {
		case app.suspendedResponse(w, r, err):
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrNotPermitted):
			app.forbiddenErrorResponse(w, r, "you may only edit your own posts")
		case errors.Is(err, postservice.ErrEditConflict):
			app.editConflictErrorResponse(w, r)
		case errors.Is(err, postservice.ErrCategoryNotFound):
			app.failedValidationErrorResponse(w, r, map[string]string{"category_id": "category does not exist"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"post": post}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (app *application) changePostStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input changeStatusRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.postService.ChangeStatus(r.Context(), id, user, postservice.Status(input.Status))
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrNotPermitted):
			app.forbiddenErrorResponse(w, r, "you may not change this post's status")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post status updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.postService.DeletePost(r.Context(), id, user)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, postservice.ErrNotPermitted):
			app.forbiddenErrorResponse(w, r, "you may only delete your own posts")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// incrementViewHandler bumps the view counter without holding up the
// response. A failed bump is logged and forgotten.
func (app *application) incrementViewHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	go func() {
		err := app.postService.IncrementView(context.Background(), slug)
		if err != nil && !errors.Is(err, postservice.ErrRecordNotFound) {
			app.logger.Error("failed to increment view count", slog.String("slug", slug), slog.String("error", err.Error()))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (app *application) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := app.readIntQuery(r, "page", 1)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	filter := postservice.Filter{
		CategorySlug: app.readStringQuery(r, "category", ""),
		Sort:         postservice.Sort(app.readStringQuery(r, "sort", "")),
		Page:         page,
	}

	posts, err := app.postService.ListPublished(r.Context(), filter)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts, "page": page, "page_size": postservice.PageSize}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listFeaturedPostsHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := app.postService.ListFeatured(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) searchPostsHandler(w http.ResponseWriter, r *http.Request) {
	q := app.readStringQuery(r, "q", "")

	result, err := app.postService.Search(r.Context(), q)
	if err != nil {
		switch {
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"results": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := app.postService.ListCategories(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"categories": categories}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listOwnPostsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	posts, err := app.postService.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// suspendedResponse writes a 403 when err is a suspension error and reports
// whether it did so, letting handler switches treat it as a case.
func (app *application) suspendedResponse(w http.ResponseWriter, r *http.Request, err error) bool {
	var suspended userservice.SuspendedError
	if errors.As(err, &suspended) {
		app.forbiddenErrorResponse(w, r, suspended.Error())
		return true
	}

	return false
}
