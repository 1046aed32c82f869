package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayimolou/ayimolou-backend/api/middleware"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
)

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

func actorID(r *http.Request) (string, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}
