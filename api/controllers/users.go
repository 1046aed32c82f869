package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayimolou/ayimolou-backend/api/middleware"
	"github.com/ayimolou/ayimolou-backend/api/responses"
	"github.com/ayimolou/ayimolou-backend/api/validators"
	"github.com/ayimolou/ayimolou-backend/internal/users"
	"github.com/ayimolou/ayimolou-backend/pkg/db/models"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
)

// UsersService syncs and reads user profiles.
type UsersService interface {
	Sync(ctx context.Context, input users.SyncUserDTO) (*models.User, bool, error)
	Get(ctx context.Context, uid string) (*models.User, error)
}

type syncUserRequest struct {
	UID         string  `json:"uid" validate:"required"`
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=120"`
	Role        *string `json:"role" validate:"omitempty,oneof=client vendeur livreur"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,max=2048"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	FCMToken    *string `json:"fcmToken" validate:"omitempty,max=4096"`
}

func (r syncUserRequest) toDTO() users.SyncUserDTO {
	dto := users.SyncUserDTO{
		UID:         strings.TrimSpace(r.UID),
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
		PhoneNumber: r.PhoneNumber,
		FCMToken:    r.FCMToken,
	}
	if r.Role != nil {
		role := enums.UserRole(*r.Role)
		dto.Role = &role
	}
	return dto
}

type syncUserResponse struct {
	User    *users.UserDTO `json:"user"`
	Created bool           `json:"created"`
}

// SyncUser upserts the caller's profile from identity-provider fields.
func SyncUser(svc UsersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var req syncUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := req.toDTO()
		if input.UID != middleware.UserIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "users can only sync their own profile"))
			return
		}

		user, created, err := svc.Sync(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, syncUserResponse{User: users.FromModel(user), Created: created})
	}
}

// GetUser returns a user profile by uid.
func GetUser(svc UsersService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		uid := strings.TrimSpace(chi.URLParam(r, "uid"))
		if uid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "uid is required"))
			return
		}

		user, err := svc.Get(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}
