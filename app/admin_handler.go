package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/MDA04systack/devlog/internal/adminservice"
	"github.com/MDA04systack/devlog/internal/common"
)

func (app *application) adminListUsersHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.getUserContext(r)

	users, err := app.adminService.ListUsers(r.Context(), actor)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"users": users}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type suspendUserRequest struct {
	Days  int        `json:"days"`
	Until *time.Time `json:"until"`
}

// adminSuspendUserHandler suspends an account either for a preset number of
// days from now or until an explicit instant.
func (app *application) adminSuspendUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input suspendUserRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var until time.Time
	switch {
	case input.Until != nil:
		until = *input.Until
	case input.Days > 0:
		until = time.Now().AddDate(0, 0, input.Days)
	default:
		app.failedValidationErrorResponse(w, r, map[string]string{"days": "must provide a positive days value or an until timestamp"})
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.SuspendUser(r.Context(), actor, id, until)
	if err != nil {
		switch {
		case errors.Is(err, adminservice.ErrSuspensionInThePast):
			app.failedValidationErrorResponse(w, r, map[string]string{"until": "must be in the future"})
		default:
			app.adminErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user suspended", "until": until}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) adminUnsuspendUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.UnsuspendUser(r.Context(), actor, id)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user unsuspended"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) adminDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.DeleteUser(r.Context(), actor, id)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) adminListPostsHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.getUserContext(r)

	posts, err := app.adminService.ListPosts(r.Context(), actor)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"posts": posts}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type adminSetStatusRequest struct {
	Status string `json:"status"`
}

func (app *application) adminSetPostStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input adminSetStatusRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.SetPostStatus(r.Context(), actor, id, input.Status)
	if err != nil {
		switch {
		case errors.Is(err, adminservice.ErrStatusNotForceable):
			app.failedValidationErrorResponse(w, r, map[string]string{"status": "must be published or private"})
		default:
			app.adminErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post status updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) adminDeletePostHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.DeletePost(r.Context(), actor, id)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "post deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type createCategoryRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

func (app *application) adminCreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var input createCategoryRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	category, err := app.adminService.CreateCategory(r.Context(), actor, input.Name, input.Slug, input.SortOrder)
	if err != nil {
		switch {
		case errors.Is(err, adminservice.ErrDuplicateCategory):
			app.conflictErrorResponse(w, r, "a category with this slug already exists")
		default:
			app.adminErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"category": category}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type renameCategoryRequest struct {
	Name string `json:"name"`
}

func (app *application) adminRenameCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input renameCategoryRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.RenameCategory(r.Context(), actor, id, input.Name)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "category renamed"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// adminDeleteCategoryHandler deletes a category. Posts filed under it are
// kept and become uncategorized.
func (app *application) adminDeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.DeleteCategory(r.Context(), actor, id)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "category deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) adminGetSignupHandler(w http.ResponseWriter, r *http.Request) {
	actor := app.getUserContext(r)

	enabled, err := app.adminService.SignupEnabled(r.Context(), actor)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"signup_enabled": enabled}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type setSignupRequest struct {
	Enabled bool `json:"enabled"`
}

func (app *application) adminSetSignupHandler(w http.ResponseWriter, r *http.Request) {
	var input setSignupRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	actor := app.getUserContext(r)

	err = app.adminService.SetSignupEnabled(r.Context(), actor, input.Enabled)
	if err != nil {
		app.adminErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"signup_enabled": input.Enabled}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// adminErrorResponse maps the error cases shared by every admin handler.
func (app *application) adminErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, adminservice.ErrNotPermitted):
		app.forbiddenErrorResponse(w, r, "admin access required")
	case errors.Is(err, adminservice.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.As(err, &common.ValidationError{}):
		validationErr := err.(common.ValidationError)
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
