package main

import (
	"errors"
	"net/http"

	"github.com/MDA04systack/devlog/internal/postservice"
)

func (app *application) toggleBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
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

	bookmarked, err := app.bookmarkService.Toggle(r.Context(), user.ID, post.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bookmarked": bookmarked}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) isBookmarkedHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := app.readSlugParam(r, "slug")
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

	bookmarked, err := app.bookmarkService.IsBookmarked(r.Context(), user.ID, post.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bookmarked": bookmarked}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) listBookmarksHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	bookmarks, err := app.bookmarkService.ListForUser(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"bookmarks": bookmarks}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
