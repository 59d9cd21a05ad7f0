package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MDA04systack/devlog/internal/common"
)

func testRequest() *CreateUserRequest {
	return &CreateUserRequest{
		Username: "testuser",
		Email:    "testuser@example.com",
		Nickname: "test nick",
		FullName: "Test User",
		Password: "TestPassword123!",
	}
}

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, func() error, error) {
	db := common.TestDB("file://../../migrations", t)

	connURL := common.TestRabbitMQ(t)
	mb, err := common.NewMessageBroker(connURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not create message broker: %w", err)
	}

	err = common.SetupMailExchange(mb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("could not setup mail exchange: %w", err)
	}

	cleanup := func() error {
		_, err := db.Exec("DELETE FROM tokens")
		if err != nil {
			return err
		}

		_, err = db.Exec("DELETE FROM auth_tokens")
		if err != nil {
			return err
		}

		_, err = db.Exec("DELETE FROM users")
		if err != nil {
			return err
		}

		return nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewUserService(db, mb, nil, logger), db, cleanup, nil
}

func TestCreateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)

	testCases := []struct {
		name        string
		mutate      func(req *CreateUserRequest)
		expectedErr error
	}{
		{
			name:        "valid user",
			mutate:      func(req *CreateUserRequest) {},
			expectedErr: nil,
		},
		{
			name:        "missing username",
			mutate:      func(req *CreateUserRequest) { req.Username = "" },
			expectedErr: common.ValidationError{Errors: map[string]string{"username": "must be provided"}},
		},
		{
			name:        "bad email",
			mutate:      func(req *CreateUserRequest) { req.Email = "not-an-email" },
			expectedErr: common.ValidationError{Errors: map[string]string{"email": "must be a valid email address"}},
		},
		{
			name:        "weak password",
			mutate:      func(req *CreateUserRequest) { req.Password = "password" },
			expectedErr: common.ValidationError{Errors: map[string]string{"password": "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testRequest()
			tc.mutate(req)

			token, err := s.CreateUser(context.Background(), req)
			assert.Equal(t, tc.expectedErr, err)

			if err == nil {
				assert.NotNil(t, token)
				assert.Len(t, *token, 26)

				var activated bool
				assert.NoError(t, db.QueryRow("SELECT activated FROM users WHERE username = $1", req.Username).Scan(&activated))
				assert.False(t, activated)
			}

			t.Cleanup(func() {
				err := cleanup()
				assert.NoError(t, err)
			})
		})
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	dup := testRequest()
	dup.Email = "other@example.com"
	dup.Nickname = "other nick"
	_, err = s.CreateUser(context.Background(), dup)
	assert.Equal(t, ErrDuplicateUsername, err)

	dup = testRequest()
	dup.Username = "otheruser"
	dup.Nickname = "other nick"
	_, err = s.CreateUser(context.Background(), dup)
	assert.Equal(t, ErrDuplicateEmail, err)

	dup = testRequest()
	dup.Username = "otheruser"
	dup.Email = "other@example.com"
	_, err = s.CreateUser(context.Background(), dup)
	assert.Equal(t, ErrDuplicateNickname, err)
}

func TestCreateUserSignupDisabled(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = db.Exec("UPDATE site_settings SET signup_enabled = false WHERE id = 1")
	assert.NoError(t, err)

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.Equal(t, ErrSignupDisabled, err)

	_, err = db.Exec("UPDATE site_settings SET signup_enabled = true WHERE id = 1")
	assert.NoError(t, err)
}

func TestActivateUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	err = s.ActivateUser(context.Background(), *token)
	assert.NoError(t, err)

	var activated bool
	assert.NoError(t, db.QueryRow("SELECT activated FROM users WHERE username = 'testuser'").Scan(&activated))
	assert.True(t, activated)

	// the token is single-use
	err = s.ActivateUser(context.Background(), *token)
	assert.Equal(t, ErrNotFound, err)
}

func TestLoginUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(context.Background(), *token))

	authToken, err := s.LoginUser(context.Background(), "testuser", "TestPassword123!")
	assert.NoError(t, err)
	assert.NotEmpty(t, authToken.AccessTokenPlain)
	assert.True(t, authToken.AccessTokenExpiry.After(time.Now()))

	// a second login inside the expiry window returns the same token
	again, err := s.LoginUser(context.Background(), "testuser", "TestPassword123!")
	assert.NoError(t, err)
	assert.Equal(t, authToken.AccessTokenHash, again.AccessTokenHash)

	_, err = s.LoginUser(context.Background(), "testuser", "WrongPassword123!")
	assert.Equal(t, ErrAuthenticationFailure, err)

	_, err = s.LoginUser(context.Background(), "nobody", "TestPassword123!")
	assert.Equal(t, ErrAuthenticationFailure, err)

	user, err := s.GetUserByAccessToken(context.Background(), authToken.AccessTokenPlain)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
}

func TestLogoutUser(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(context.Background(), *token))

	authToken, err := s.LoginUser(context.Background(), "testuser", "TestPassword123!")
	assert.NoError(t, err)

	user, err := s.GetUserByAccessToken(context.Background(), authToken.AccessTokenPlain)
	assert.NoError(t, err)

	assert.NoError(t, s.LogoutUser(context.Background(), user.ID))

	_, err = s.GetUserByAccessToken(context.Background(), authToken.AccessTokenPlain)
	assert.Equal(t, ErrNotFound, err)
}

func TestFindUsernameByEmail(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	username, err := s.FindUsernameByEmail(context.Background(), "testuser@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", username)

	_, err = s.FindUsernameByEmail(context.Background(), "unknown@example.com")
	assert.Equal(t, ErrNotFound, err)
}

func TestResetPassword(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(context.Background(), *token))

	assert.NoError(t, s.RequestPasswordReset(context.Background(), "testuser@example.com"))

	var resetCount int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM tokens WHERE scope = $1", TokenScopePasswordReset).Scan(&resetCount))
	assert.Equal(t, 1, resetCount)
}

func TestUpdatePassword(t *testing.T) {
	s, _, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(context.Background(), *token))

	user, err := s.FindUsernameByEmail(context.Background(), "testuser@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", user)

	authToken, err := s.LoginUser(context.Background(), "testuser", "TestPassword123!")
	assert.NoError(t, err)

	me, err := s.GetUserByAccessToken(context.Background(), authToken.AccessTokenPlain)
	assert.NoError(t, err)

	err = s.UpdatePassword(context.Background(), me.ID, "WrongPassword123!", "NewPassword123!")
	assert.Equal(t, ErrAuthenticationFailure, err)

	err = s.UpdatePassword(context.Background(), me.ID, "TestPassword123!", "NewPassword123!")
	assert.NoError(t, err)

	_, err = s.LoginUser(context.Background(), "testuser", "NewPassword123!")
	assert.NoError(t, err)
}

func TestCheckWriteAllowed(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	var userId int
	assert.NoError(t, db.QueryRow("SELECT id FROM users WHERE username = 'testuser'").Scan(&userId))

	assert.NoError(t, s.CheckWriteAllowed(context.Background(), userId))

	until := time.Now().Add(24 * time.Hour)
	_, err = db.Exec("UPDATE users SET suspended_until = $1 WHERE id = $2", until, userId)
	assert.NoError(t, err)

	err = s.CheckWriteAllowed(context.Background(), userId)
	var suspended SuspendedError
	assert.ErrorAs(t, err, &suspended)
	assert.WithinDuration(t, until, suspended.Until, time.Second)

	// an elapsed suspension lifts without any explicit unsuspend
	_, err = db.Exec("UPDATE users SET suspended_until = $1 WHERE id = $2", time.Now().Add(-time.Hour), userId)
	assert.NoError(t, err)

	assert.NoError(t, s.CheckWriteAllowed(context.Background(), userId))
}

func TestUpdateEmailReconfirmation(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NoError(t, s.ActivateUser(context.Background(), *token))

	var userId int
	assert.NoError(t, db.QueryRow("SELECT id FROM users WHERE username = 'testuser'").Scan(&userId))

	_, err = s.UpdateEmail(context.Background(), userId, "WrongPassword123!", "new@example.com")
	assert.Equal(t, ErrAuthenticationFailure, err)

	changeToken, err := s.UpdateEmail(context.Background(), userId, "TestPassword123!", "new@example.com")
	assert.NoError(t, err)
	assert.NotNil(t, changeToken)

	// the account email does not change until the token is confirmed
	var email string
	var pending sql.NullString
	assert.NoError(t, db.QueryRow("SELECT email, pending_email FROM users WHERE id = $1", userId).Scan(&email, &pending))
	assert.Equal(t, "testuser@example.com", email)
	assert.True(t, pending.Valid)
	assert.Equal(t, "new@example.com", pending.String)

	assert.NoError(t, s.ConfirmEmailChange(context.Background(), *changeToken))

	assert.NoError(t, db.QueryRow("SELECT email, pending_email FROM users WHERE id = $1", userId).Scan(&email, &pending))
	assert.Equal(t, "new@example.com", email)
	assert.False(t, pending.Valid)

	// the token is single-use
	err = s.ConfirmEmailChange(context.Background(), *changeToken)
	assert.Equal(t, ErrNotFound, err)
}

func TestUpdateEmailToTakenAddress(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	other := testRequest()
	other.Username = "otheruser"
	other.Email = "other@example.com"
	other.Nickname = "other nick"
	_, err = s.CreateUser(context.Background(), other)
	assert.NoError(t, err)

	var userId int
	assert.NoError(t, db.QueryRow("SELECT id FROM users WHERE username = 'testuser'").Scan(&userId))

	_, err = s.UpdateEmail(context.Background(), userId, "TestPassword123!", "other@example.com")
	assert.Equal(t, ErrDuplicateEmail, err)
}

func TestEnsureAdmin(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	req := &CreateUserRequest{
		Username: "siteadmin",
		Email:    "admin@example.com",
		Nickname: "site admin",
		Password: "AdminPassword123!",
	}

	assert.NoError(t, s.EnsureAdmin(context.Background(), req))

	var role string
	var activated bool
	assert.NoError(t, db.QueryRow("SELECT role, activated FROM users WHERE username = 'siteadmin'").Scan(&role, &activated))
	assert.Equal(t, "admin", role)
	assert.True(t, activated)

	// the bootstrap is idempotent
	assert.NoError(t, s.EnsureAdmin(context.Background(), req))

	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users WHERE username = 'siteadmin'").Scan(&count))
	assert.Equal(t, 1, count)

	// the bootstrap account can log in straight away
	authToken, err := s.LoginUser(context.Background(), "siteadmin", "AdminPassword123!")
	assert.NoError(t, err)

	admin, err := s.GetUserByAccessToken(context.Background(), authToken.AccessTokenPlain)
	assert.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestEnsureAdminPromotesExistingUser(t *testing.T) {
	s, db, cleanup, err := setupTestEnvironment(t)
	assert.NoError(t, err)
	defer cleanup()

	_, err = s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)

	req := testRequest()
	assert.NoError(t, s.EnsureAdmin(context.Background(), req))

	var role string
	var activated bool
	assert.NoError(t, db.QueryRow("SELECT role, activated FROM users WHERE username = 'testuser'").Scan(&role, &activated))
	assert.Equal(t, "admin", role)
	assert.True(t, activated)
}

// failingProducer stands in for a broker that is down.
type failingProducer struct{}

func (failingProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	return errors.New("broker unavailable")
}

func TestMailPublishFailureIsBestEffort(t *testing.T) {
	db := common.TestDB("file://../../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewUserService(db, failingProducer{}, nil, logger)

	// signup survives the publish failure; the account row is committed
	token, err := s.CreateUser(context.Background(), testRequest())
	assert.NoError(t, err)
	assert.NotNil(t, token)

	var count int
	assert.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users WHERE username = 'testuser'").Scan(&count))
	assert.Equal(t, 1, count)

	assert.NoError(t, s.RequestPasswordReset(context.Background(), "testuser@example.com"))
}
