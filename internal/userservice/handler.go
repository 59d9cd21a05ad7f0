package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
)

var (
	ErrAuthenticationFailure = errors.New("unauthorized access")
	ErrSignupDisabled        = errors.New("signup is currently disabled")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		c:      c,
		logger: logger,
	}
}

// publishMailEvent publishes a mail event best-effort. The account change is
// already committed by the time an event is published, so a broker failure
// is logged and swallowed rather than surfaced to the caller.
func (s *UserService) publishMailEvent(ctx context.Context, key common.BindingKey, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("could not marshal mail event", slog.String("key", string(key)), slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, data, key, common.MailExchange); err != nil {
		s.logger.Error("could not publish mail event", slog.String("key", string(key)), slog.String("error", err.Error()))
	}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// CreateUser creates a new user account and publishes a user.created event
// carrying the activation token. Signup is refused while the global
// signup_enabled switch is off.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*string, error) {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validateNickname(v, req.Nickname)
	validatePassword(v, req.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	enabled, err := s.signupEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, ErrSignupDisabled
	}

	u := User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		FullName: req.FullName,
		Password: Password{Plain: req.Password},
	}

	if err := u.Password.set(u.Password.Plain); err != nil {
		return nil, err
	}

	if err := s.m.insert(ctx, &u); err != nil {
		return nil, err
	}

	token, err := s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
	if err != nil {
		return nil, err
	}

	s.publishMailEvent(ctx, common.UserCreatedKey, struct {
		Email string
		Token string
	}{
		Email: u.Email,
		Token: token.Plain,
	})

	return &token.Plain, nil
}

// EnsureAdmin creates or promotes the bootstrap administrator account at
// startup. The operation is idempotent: an existing account with the
// configured username is promoted and activated, a missing one is created
// already activated. Signup being disabled does not block the bootstrap.
func (s *UserService) EnsureAdmin(ctx context.Context, req *CreateUserRequest) error {
	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validateNickname(v, req.Nickname)
	validatePassword(v, req.Password)
	if !v.Valid() {
		return v.ValidationError()
	}

	existing, err := s.m.getByUsername(ctx, req.Username)
	if err == nil {
		if existing.IsAdmin() && existing.IsActivated() {
			return nil
		}
		return s.m.promoteAdmin(ctx, existing.ID)
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	u := User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		FullName: req.FullName,
	}

	if err := u.Password.set(req.Password); err != nil {
		return err
	}

	return s.m.insertAdmin(ctx, &u)
}

func (s *UserService) signupEnabled(ctx context.Context) (bool, error) {
	if s.c != nil {
		if v, ok := s.c.Get(common.CacheKeySignupEnabled()); ok {
			return v.(bool), nil
		}
	}

	enabled, err := s.m.signupEnabled(ctx)
	if err != nil {
		return false, err
	}

	if s.c != nil {
		s.c.Set(common.CacheKeySignupEnabled(), enabled, time.Minute)
	}

	return enabled, nil
}

// ActivateUser activates a user account using the token and deletes the
// token from the database.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.activate(tx, ctx, user.ID, user.Version)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	err = s.m.deleteTokens(tx, ctx, user.ID, TokenScopeActivate)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// LoginUser logs in a user and returns the access token and refresh token.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	dbToken, err := s.m.getAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if dbToken != nil && dbToken.AccessTokenExpiry.After(time.Now()) && dbToken.RefreshTokenExpiry.After(time.Now()) {
		return dbToken, nil
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	if dbToken != nil {
		if err := s.m.deleteAuthToken(tx, ctx, user.ID); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return authToken, nil
}

func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)

	return s.m.getUserByAccessToken(ctx, hash)
}

func (s *UserService) LogoutUser(ctx context.Context, userId int) error {
	v := common.NewValidator()
	validateInt(v, userId, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = s.m.deleteAuthToken(tx, ctx, userId)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// FindUsernameByEmail resolves the username for a registered email address.
func (s *UserService) FindUsernameByEmail(ctx context.Context, email string) (string, error) {
	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return "", v.ValidationError()
	}

	user, err := s.m.getByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	return user.Username, nil
}

// RequestPasswordReset issues a short-lived reset token and publishes a
// user.password_reset event for the mail consumer.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	v := common.NewValidator()
	validateEmail(v, email)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.m.createToken(ctx, user.ID, PasswordResetTokenTime, TokenScopePasswordReset)
	if err != nil {
		return err
	}

	s.publishMailEvent(ctx, common.PasswordResetKey, struct {
		Email string
		Token string
	}{
		Email: user.Email,
		Token: token.Plain,
	})

	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	validatePassword(v, newPassword)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopePasswordReset, hash)
	if err != nil {
		return err
	}

	var pwd Password
	if err := pwd.set(newPassword); err != nil {
		return err
	}

	if err := s.m.updatePassword(ctx, pwd, user.ID); err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := s.m.deleteTokens(tx, ctx, user.ID, TokenScopePasswordReset); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpdatePassword changes the password of an authenticated user after
// verifying the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID int, current, newPassword string) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validatePassword(v, newPassword)
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := user.Password.compare(current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthenticationFailure
	}

	var pwd Password
	if err := pwd.set(newPassword); err != nil {
		return err
	}

	return s.m.updatePassword(ctx, pwd, user.ID)
}

// UpdateEmail starts an email change after re-verifying the password. The
// stored address stays untouched until the owner of the new address confirms
// with the emailed token.
func (s *UserService) UpdateEmail(ctx context.Context, userID int, password, newEmail string) (*string, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validateEmail(v, newEmail)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	_, err = s.m.getByEmail(ctx, newEmail)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case errors.Is(err, ErrNotFound):
	default:
		return nil, err
	}

	if err := s.m.setPendingEmail(ctx, newEmail, user.ID); err != nil {
		return nil, err
	}

	token, err := s.m.createToken(ctx, user.ID, EmailChangeTokenTime, TokenScopeEmailChange)
	if err != nil {
		return nil, err
	}

	s.publishMailEvent(ctx, common.EmailChangeKey, struct {
		Email string
		Token string
	}{
		Email: newEmail,
		Token: token.Plain,
	})

	return &token.Plain, nil
}

// ConfirmEmailChange consumes an email-change token and swaps the pending
// address in as the account email.
func (s *UserService) ConfirmEmailChange(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeEmailChange, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := s.m.confirmEmail(tx, ctx, user.ID); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := s.m.deleteTokens(tx, ctx, user.ID, TokenScopeEmailChange); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpdateNickname changes the mutable display handle. The username itself is
// immutable after signup.
func (s *UserService) UpdateNickname(ctx context.Context, userID int, nickname string) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validateNickname(v, nickname)
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.updateNickname(ctx, nickname, userID)
}

func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	if !v.Valid() {
		return false, v.ValidationError()
	}

	return s.m.usernameAvailable(ctx, username)
}

func (s *UserService) NicknameAvailable(ctx context.Context, nickname string, excludingUserID int) (bool, error) {
	v := common.NewValidator()
	validateNickname(v, nickname)
	if !v.Valid() {
		return false, v.ValidationError()
	}

	return s.m.nicknameAvailable(ctx, nickname, excludingUserID)
}

func (s *UserService) GetProfile(ctx context.Context, userID int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getByID(ctx, userID)
}

// DeleteOwnAccount is the self-service, irreversible account deletion. Owned
// content goes with the account by referential constraint.
func (s *UserService) DeleteOwnAccount(ctx context.Context, userID int, password string) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	user, err := s.m.getByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAuthenticationFailure
	}

	return s.m.delete(ctx, user.ID)
}

// CheckWriteAllowed is the moderation gate consulted before every content
// write. It returns a SuspendedError while the account is suspended.
func (s *UserService) CheckWriteAllowed(ctx context.Context, userID int) error {
	until, err := s.m.suspendedUntil(ctx, userID)
	if err != nil {
		return err
	}

	if until != nil && until.After(time.Now()) {
		return SuspendedError{Until: *until}
	}

	return nil
}
