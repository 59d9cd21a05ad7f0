package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateNickname = errors.New("duplicate nickname")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *UserModel {
	return &UserModel{db: db}
}

// uniqueViolation is a helper function to check if the error is a unique
// constraint error on the named constraint.
func uniqueViolation(err error, name string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == "23505" && pqErr.Constraint == name {
			return true
		}
	}

	return false
}

func (m *UserModel) insert(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, nickname, full_name, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, role, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Nickname,
		u.FullName,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		case uniqueViolation(err, "users_nickname_key"):
			return ErrDuplicateNickname
		default:
			return err
		}
	}
	return nil
}

// insertAdmin creates an account that is an activated administrator from the
// start. Used only by the startup bootstrap.
func (m *UserModel) insertAdmin(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, nickname, full_name, password, role, activated)
		VALUES ($1, $2, $3, $4, $5, 'admin', true)
		RETURNING id, role, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Nickname,
		u.FullName,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		case uniqueViolation(err, "users_nickname_key"):
			return ErrDuplicateNickname
		default:
			return err
		}
	}
	return nil
}

func (m *UserModel) promoteAdmin(ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET role = 'admin', activated = true
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *UserModel) scanUserRow(row *sql.Row) (*User, error) {
	var u User
	var suspended sql.NullTime

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Nickname, &u.FullName, &u.Password.hash, &u.Role, &suspended, &u.Activated, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if suspended.Valid {
		u.SuspendedUntil = &suspended.Time
	}

	return &u, nil
}

const userColumns = `id, username, email, nickname, full_name, password, role, suspended_until, activated, created_at, updated_at, version`

func (m *UserModel) getByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1`

	return m.scanUserRow(m.db.QueryRowContext(ctx, query, username))
}

func (m *UserModel) getByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	return m.scanUserRow(m.db.QueryRowContext(ctx, query, email))
}

func (m *UserModel) getByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	return m.scanUserRow(m.db.QueryRowContext(ctx, query, id))
}

func (m *UserModel) activate(tx *sql.Tx, ctx context.Context, id int, version int) error {
	query := `
		UPDATE users
		SET activated = true
		WHERE id = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		switch {
		case rows == 0:
			return ErrNotFound
		default:
			return errors.New("too many rows affected")
		}
	}

	return nil
}

func (m *UserModel) updatePassword(ctx context.Context, pwd Password, id int) error {
	query := `
		UPDATE users
		SET password = $1
		WHERE id = $2`

	_, err := m.db.ExecContext(ctx, query, pwd.hash, id)
	return err
}

func (m *UserModel) setPendingEmail(ctx context.Context, email string, id int) error {
	query := `
		UPDATE users
		SET pending_email = $1
		WHERE id = $2`

	_, err := m.db.ExecContext(ctx, query, email, id)
	return err
}

// confirmEmail promotes the pending address to the account email. A row with
// no pending address means the change was never requested or was already
// confirmed.
func (m *UserModel) confirmEmail(tx *sql.Tx, ctx context.Context, id int) error {
	query := `
		UPDATE users
		SET email = pending_email, pending_email = NULL
		WHERE id = $1 AND pending_email IS NOT NULL`

	res, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *UserModel) updateNickname(ctx context.Context, nickname string, id int) error {
	query := `
		UPDATE users
		SET nickname = $1
		WHERE id = $2`

	_, err := m.db.ExecContext(ctx, query, nickname, id)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_nickname_key"):
			return ErrDuplicateNickname
		default:
			return err
		}
	}

	return nil
}

func (m *UserModel) delete(ctx context.Context, id int) error {
	query := `
		DELETE FROM users
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (m *UserModel) usernameAvailable(ctx context.Context, username string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, err
	}

	return !exists, nil
}

// nicknameAvailable checks uniqueness, optionally excluding the user who is
// renaming themselves.
func (m *UserModel) nicknameAvailable(ctx context.Context, nickname string, excludingUserID int) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE nickname = $1 AND id <> $2)`

	var exists bool
	err := m.db.QueryRowContext(ctx, query, nickname, excludingUserID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return !exists, nil
}

func (m *UserModel) signupEnabled(ctx context.Context) (bool, error) {
	query := `
		SELECT signup_enabled
		FROM site_settings
		WHERE id = 1`

	var enabled bool
	err := m.db.QueryRowContext(ctx, query).Scan(&enabled)
	if err != nil {
		return false, err
	}

	return enabled, nil
}

func (m *UserModel) suspendedUntil(ctx context.Context, id int) (*time.Time, error) {
	query := `
		SELECT suspended_until
		FROM users
		WHERE id = $1`

	var suspended sql.NullTime
	err := m.db.QueryRowContext(ctx, query, id).Scan(&suspended)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if !suspended.Valid {
		return nil, nil
	}

	return &suspended.Time, nil
}
