package userservice

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
)

type tokenScope string

type Role string

const (
	TokenScopeActivate      tokenScope = "token:activate"
	TokenScopePasswordReset tokenScope = "token:password-reset"
	TokenScopeEmailChange   tokenScope = "token:email-change"

	ActivationTokenTime    time.Duration = 3 * 24 * time.Hour
	PasswordResetTokenTime time.Duration = 45 * time.Minute
	EmailChangeTokenTime   time.Duration = 45 * time.Minute
	AccessTokenTime        time.Duration = 7 * 24 * time.Hour
	RefreshTokenTime       time.Duration = 30 * 24 * time.Hour

	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *UserModel
	mb     common.MessageProducer
	c      *common.Cache
	logger *slog.Logger
}

type UserModel struct {
	db *sql.DB
}

type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Nickname       string     `json:"nickname"`
	FullName       string     `json:"full_name"`
	Password       Password   `json:"-"`
	Role           Role       `json:"role"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Activated      bool       `json:"activated"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int        `json:"version"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

type Token struct {
	Plain  string     `json:"token"`
	Hash   []byte     `json:"-"`
	UserID int        `json:"-"`
	Expiry time.Time  `json:"expiry"`
	Scope  tokenScope `json:"-"`
}

// Authentication Token
type AuthToken struct {
	AccessTokenPlain   string    `json:"access_token"`
	AccessTokenHash    []byte    `json:"-"`
	RefreshTokenPlain  string    `json:"refresh_token"`
	RefreshTokenHash   []byte    `json:"-"`
	UserID             int       `json:"user_id"`
	AccessTokenExpiry  time.Time `json:"access_token_expiry"`
	RefreshTokenExpiry time.Time `json:"refresh_token_expiry"`
}

// SuspendedError reports that the account may not write content until the
// given time.
type SuspendedError struct {
	Until time.Time
}

func (e SuspendedError) Error() string {
	return fmt.Sprintf("activity suspended until %s", e.Until.Format("2006-01-02"))
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) IsActivated() bool {
	return u.Activated
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsSuspended reports whether the account is in the Suspended state at the
// given instant. There is no explicit unsuspend event on expiry: every check
// simply compares against the stored timestamp.
func (u *User) IsSuspended(now time.Time) bool {
	return u.SuspendedUntil != nil && u.SuspendedUntil.After(now)
}
