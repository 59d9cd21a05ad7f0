package adminservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/MDA04systack/devlog/internal/common"
	"github.com/MDA04systack/devlog/internal/userservice"
)

func NewAdminService(db *sql.DB, mb common.MessageProducer, c *common.Cache, logger *slog.Logger) *AdminService {
	return &AdminService{m: newAdminModel(db), mb: mb, c: c, logger: logger}
}

func requireAdmin(actor *userservice.User) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrNotPermitted
	}
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor *userservice.User) ([]UserSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	return s.m.listUsers(ctx)
}

// SuspendUser puts the target account into the Suspended state until the
// given instant and dispatches a notification email. The email is
// best-effort: a publish failure is logged and never fails the suspension.
func (s *AdminService) SuspendUser(ctx context.Context, actor *userservice.User, targetID int, until time.Time) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if !until.After(time.Now()) {
		return ErrSuspensionInThePast
	}

	email, err := s.m.suspend(ctx, targetID, until)
	if err != nil {
		return err
	}

	days := int(math.Ceil(time.Until(until).Hours() / 24))

	s.publishMailEvent(ctx, common.UserSuspendedKey, struct {
		Email string
		Days  int
		Until time.Time
	}{
		Email: email,
		Days:  days,
		Until: until,
	})

	return nil
}

// UnsuspendUser returns the target account to the Active state.
func (s *AdminService) UnsuspendUser(ctx context.Context, actor *userservice.User, targetID int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	email, err := s.m.unsuspend(ctx, targetID)
	if err != nil {
		return err
	}

	s.publishMailEvent(ctx, common.UserUnsuspendedKey, struct {
		Email string
	}{
		Email: email,
	})

	return nil
}

// DeleteUser is the forced, irreversible account removal. Owned content goes
// with it by referential constraint.
func (s *AdminService) DeleteUser(ctx context.Context, actor *userservice.User, targetID int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.m.deleteUser(ctx, targetID); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *AdminService) ListPosts(ctx context.Context, actor *userservice.User) ([]PostSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	return s.m.listPosts(ctx)
}

// SetPostStatus is the moderation override on post visibility. An
// administrator may force published or private, never draft.
func (s *AdminService) SetPostStatus(ctx context.Context, actor *userservice.User, postID int, status string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if status != "published" && status != "private" {
		return ErrStatusNotForceable
	}

	if err := s.m.setPostStatus(ctx, postID, status); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *AdminService) DeletePost(ctx context.Context, actor *userservice.User, postID int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.m.deletePost(ctx, postID); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *AdminService) CreateCategory(ctx context.Context, actor *userservice.User, name, slug string, sortOrder int) (*Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	v.Check(v.CheckNotBlank(name), "name", "must be provided")
	v.Check(v.CheckNotBlank(slug), "slug", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	category := &Category{
		Name:      strings.TrimSpace(name),
		Slug:      strings.TrimSpace(slug),
		SortOrder: sortOrder,
	}

	if err := s.m.createCategory(ctx, category); err != nil {
		return nil, err
	}

	s.invalidate()

	return category, nil
}

func (s *AdminService) RenameCategory(ctx context.Context, actor *userservice.User, id int, name string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	v := common.NewValidator()
	v.Check(v.CheckNotBlank(name), "name", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.m.renameCategory(ctx, id, strings.TrimSpace(name)); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

// DeleteCategory removes a category; posts under it keep living with a
// cleared category reference.
func (s *AdminService) DeleteCategory(ctx context.Context, actor *userservice.User, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.m.deleteCategory(ctx, id); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *AdminService) SignupEnabled(ctx context.Context, actor *userservice.User) (bool, error) {
	if err := requireAdmin(actor); err != nil {
		return false, err
	}

	return s.m.signupEnabled(ctx)
}

// SetSignupEnabled flips the global signup switch gating account creation.
func (s *AdminService) SetSignupEnabled(ctx context.Context, actor *userservice.User, enabled bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if err := s.m.setSignupEnabled(ctx, enabled); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *AdminService) publishMailEvent(ctx context.Context, key common.BindingKey, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("could not marshal mail event", slog.String("key", string(key)), slog.String("error", err.Error()))
		return
	}

	if err := s.mb.Publish(ctx, data, key, common.MailExchange); err != nil {
		s.logger.Error("could not publish mail event", slog.String("key", string(key)), slog.String("error", err.Error()))
	}
}

func (s *AdminService) invalidate() {
	if s.c != nil {
		s.c.Flush()
	}
}
