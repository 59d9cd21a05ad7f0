package main

import (
	"errors"
	"net/http"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/userservice"
)

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input registerUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	req := &userservice.CreateUserRequest{
		Username: input.Username,
		Email:    input.Email,
		Nickname: input.Nickname,
		FullName: input.FullName,
		Password: input.Password,
	}

	token, err := app.userService.CreateUser(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrSignupDisabled):
			app.forbiddenErrorResponse(w, r, "signups are currently disabled")
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
		case errors.Is(err, userservice.ErrDuplicateUsername):
			app.failedValidationErrorResponse(w, r, map[string]string{"username": "this username is already taken"})
		case errors.Is(err, userservice.ErrDuplicateNickname):
			app.failedValidationErrorResponse(w, r, map[string]string{"nickname": "this nickname is already taken"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type activateUserRequest struct {
	Token string `json:"token"`
}

func (app *application) activateUserHandler(w http.ResponseWriter, r *http.Request) {
	var input activateUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ActivateUser(r.Context(), input.Token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user account activated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type loginUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.LoginUser(r.Context(), input.Username, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

func (app *application) logoutUserHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	err := app.userService.LogoutUser(r.Context(), user.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "user logged out"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type findUsernameRequest struct {
	Email string `json:"email"`
}

// findUsernameHandler recovers a forgotten username. The response does not
// reveal whether the email is registered.
func (app *application) findUsernameHandler(w http.ResponseWriter, r *http.Request) {
	var input findUsernameRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	username, err := app.userService.FindUsernameByEmail(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.writeJSON(w, http.StatusOK, envelope{"message": "if the email is registered, the username has been sent"}, nil)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"username": username}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (app *application) requestPasswordResetHandler(w http.ResponseWriter, r *http.Request) {
	var input passwordResetRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.RequestPasswordReset(r.Context(), input.Email)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			// fall through to the generic message below
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
			return
		default:
			app.serverErrorResponse(w, r, err)
			return
		}
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "if the email is registered, a reset token has been sent"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (app *application) resetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input resetPasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ResetPassword(r.Context(), input.Token, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "password updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

// availabilityHandler answers username and nickname availability lookups,
// driven by whichever query parameter is present.
func (app *application) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	username := app.readStringQuery(r, "username", "")
	nickname := app.readStringQuery(r, "nickname", "")

	switch {
	case username != "":
		available, err := app.userService.UsernameAvailable(r.Context(), username)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		app.writeJSON(w, http.StatusOK, envelope{"available": available}, nil)

	case nickname != "":
		user := app.getUserContext(r)
		available, err := app.userService.NicknameAvailable(r.Context(), nickname, user.ID)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}
		app.writeJSON(w, http.StatusOK, envelope{"available": available}, nil)

	default:
		app.badRequestErrorResponse(w, r, errors.New("must provide a username or nickname parameter"))
	}
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.getUserContext(r)

	profile, err := app.userService.GetProfile(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": profile}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (app *application) updatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input updatePasswordRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.userService.UpdatePassword(r.Context(), user.ID, input.CurrentPassword, input.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "password updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type updateEmailRequest struct {
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (app *application) updateEmailHandler(w http.ResponseWriter, r *http.Request) {
	var input updateEmailRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	_, err = app.userService.UpdateEmail(r.Context(), user.ID, input.Password, input.Email)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusAccepted, envelope{"message": "a confirmation email has been sent to the new address"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type confirmEmailChangeRequest struct {
	Token string `json:"token"`
}

func (app *application) confirmEmailChangeHandler(w http.ResponseWriter, r *http.Request) {
	var input confirmEmailChangeRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.userService.ConfirmEmailChange(r.Context(), input.Token)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		case errors.Is(err, userservice.ErrDuplicateEmail):
			app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "email updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type updateNicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (app *application) updateNicknameHandler(w http.ResponseWriter, r *http.Request) {
	var input updateNicknameRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.userService.UpdateNickname(r.Context(), user.ID, input.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrDuplicateNickname):
			app.failedValidationErrorResponse(w, r, map[string]string{"nickname": "this nickname is already taken"})
		case errors.As(err, &common.ValidationError{}):
			validationErr := err.(common.ValidationError)
			app.failedValidationErrorResponse(w, r, validationErr.Errors)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "nickname updated"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

func (app *application) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	var input deleteAccountRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.getUserContext(r)

	err = app.userService.DeleteOwnAccount(r.Context(), user.ID, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, userservice.ErrAuthenticationFailure):
			app.invalidCredentialsErrorResponse(w, r)
		case errors.Is(err, userservice.ErrNotFound):
			app.notFoundErrorResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "account deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
}
