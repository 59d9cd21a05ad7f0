package main

import (
	"errors"
	"net/http"

	"github.com/MDA04systack/devlog/internal/commentservice"
	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/postservice"
)

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	viewer := app.getUserContext(r)

	// resolving through the post service enforces visibility: comments on a
	// draft or private post are only listed for someone who can see the post
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

	comments, err := app.commentService.ListForPost(r.Context(), post.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	threads := commentservice.BuildThread(comments)

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": threads}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type addCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int   `json:"parent_id"`
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input addCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	post, err := app.postService.GetPostBySlug(r.Context(), slug, user)
	if err != nil {
		switch {
		case errors.Is(err, postservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	req := &commentservice.AddCommentRequest{
		PostID:   post.ID,
		AuthorID: user.ID,
		Content:  input.Content,
		ParentID: input.ParentID,
	}

	comment, err := app.commentService.AddComment(r.Context(), req)
	if err != nil {
		switch {
		case app.suspendedResponse(w, r, err):
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		case errors.Is(err, commentservice.ErrPostForeignKey):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type editCommentRequest struct {
	Content string `json:"content"`
}

func (app *application) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input editCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.commentService.EditComment(r.Context(), id, user.ID, input.Content)
	if err != nil {
		switch {
		case app.suspendedResponse(w, r, err):
		case errors.Is(err, commentservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, commentservice.ErrNotPermitted):
			app.forbiddenErrorResponse(w, r, "you may only edit your own comments")
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.commentService.DeleteComment(r.Context(), id, user)
	if err != nil {
		switch {
		case errors.Is(err, commentservice.ErrRecordNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, commentservice.ErrNotPermitted):
			app.forbiddenErrorResponse(w, r, "you may only delete your own comments")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listOwnCommentsHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	comments, err := app.commentService.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": comments}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
