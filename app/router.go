package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/activate", app.activateUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodPost, "/v1/users/find-username", app.findUsernameHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/password-reset", app.requestPasswordResetHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/password-reset", app.resetPasswordHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/availability", app.availabilityHandler)
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.requireAuthUser(app.getProfileHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/users/me", app.requireAuthUser(app.deleteAccountHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/me/password", app.requireActivatedUser(app.updatePasswordHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/me/email", app.requireActivatedUser(app.updateEmailHandler))
	router.HandlerFunc(http.MethodPut, "/v1/users/confirm-email", app.confirmEmailChangeHandler)
	router.HandlerFunc(http.MethodPut, "/v1/users/me/nickname", app.requireActivatedUser(app.updateNicknameHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me/posts", app.requireAuthUser(app.listOwnPostsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me/comments", app.requireAuthUser(app.listOwnCommentsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me/bookmarks", app.requireAuthUser(app.listBookmarksHandler))

	// post service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/featured", app.listFeaturedPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/search", app.searchPostsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoriesHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireActivatedUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.requireActivatedUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/posts/:id/status", app.requireActivatedUser(app.changePostStatusHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requireActivatedUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/view", app.incrementViewHandler)

	// comment service
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/comments", app.requireActivatedUser(app.addCommentHandler))
	router.HandlerFunc(http.MethodPut, "/v1/comments/:id", app.requireActivatedUser(app.editCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireActivatedUser(app.deleteCommentHandler))

	// bookmark service
	router.HandlerFunc(http.MethodPost, "/v1/posts/:slug/bookmark", app.requireActivatedUser(app.toggleBookmarkHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug/bookmark", app.requireAuthUser(app.isBookmarkedHandler))

	// image service
	router.HandlerFunc(http.MethodPost, "/v1/images", app.requireActivatedUser(app.uploadImageHandler))

	// admin service
	router.HandlerFunc(http.MethodGet, "/v1/admin/users", app.requireAdminUser(app.adminListUsersHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/users/:id/suspend", app.requireAdminUser(app.adminSuspendUserHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/users/:id/unsuspend", app.requireAdminUser(app.adminUnsuspendUserHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/users/:id", app.requireAdminUser(app.adminDeleteUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/posts", app.requireAdminUser(app.adminListPostsHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/posts/:id/status", app.requireAdminUser(app.adminSetPostStatusHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/posts/:id", app.requireAdminUser(app.adminDeletePostHandler))
	router.HandlerFunc(http.MethodPost, "/v1/admin/categories", app.requireAdminUser(app.adminCreateCategoryHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/categories/:id", app.requireAdminUser(app.adminRenameCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/admin/categories/:id", app.requireAdminUser(app.adminDeleteCategoryHandler))
	router.HandlerFunc(http.MethodGet, "/v1/admin/settings/signup", app.requireAdminUser(app.adminGetSignupHandler))
	router.HandlerFunc(http.MethodPut, "/v1/admin/settings/signup", app.requireAdminUser(app.adminSetSignupHandler))

	return app.recoverPanic(app.rateLimit(app.logRequest(app.authenticate(router))))
}
