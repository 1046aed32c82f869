package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// Service syncs identity-provider accounts and serves profiles.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Sync creates the user on first sight and otherwise patches only the
// provided fields. The boolean reports whether the user was created.
func (s *Service) Sync(ctx context.Context, input SyncUserDTO) (*models.User, bool, error) {
	input.UID = strings.TrimSpace(input.UID)
	if input.UID == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "uid is required")
	}
	if input.Role != nil && !input.Role.IsValid() {
		return nil, false, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
	}

	now := s.now()
	existing, err := s.repo.FindByID(ctx, input.UID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	if existing == nil {
		user := input.ToModel()
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		s.logg.Info(s.logg.WithUserID(ctx, user.ID), "users.sync.created")
		return user, true, nil
	}

	cols := input.columns()
	cols["updated_at"] = now
	if err := s.repo.UpdateColumns(ctx, input.UID, cols); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	user, err := s.repo.FindByID(ctx, input.UID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return user, false, nil
}

// Get returns the user or a NotFound error.
func (s *Service) Get(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
