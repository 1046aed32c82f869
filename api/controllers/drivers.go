package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayimolou/ayimolou-backend/api/middleware"
	"github.com/ayimolou/ayimolou-backend/api/responses"
	"github.com/ayimolou/ayimolou-backend/api/validators"
	"github.com/ayimolou/ayimolou-backend/internal/drivers"
	"github.com/ayimolou/ayimolou-backend/internal/geo"
	pkgerrors "github.com/ayimolou/ayimolou-backend/pkg/errors"
	"github.com/ayimolou/ayimolou-backend/pkg/logger"
	"github.com/ayimolou/ayimolou-backend/pkg/types"
)

// DriversService covers driver location and availability.
type DriversService interface {
	ReportLocation(ctx context.Context, actorID, driverID string, coords types.Coordinates) (drivers.LocationResult, error)
	SetAvailability(ctx context.Context, actorID, driverID string, available *bool) error
	GetLocation(ctx context.Context, driverID string) (*geo.Point, error)
}

// locationRequest keeps raw values so non-numeric coordinates surface as
// missing after the authorization checks rather than as a decode failure.
type locationRequest struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

func (r locationRequest) coordinates() types.Coordinates {
	return types.Coordinates{Latitude: number(r.Latitude), Longitude: number(r.Longitude)}
}

// number yields nil for absent, null or non-numeric values.
func number(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var value *float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

type locationResponse struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// UpdateDriverLocation accepts a GPS report from a driver on an active delivery.
func UpdateDriverLocation(svc DriversService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		var req locationRequest
		if err := validators.DecodeJSON(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		driverID := strings.TrimSpace(chi.URLParam(r, "uid"))
		result, err := svc.ReportLocation(r.Context(), actorID, driverID, req.coordinates())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, locationResponse{Applied: result.Applied, Reason: string(result.Reason), Detail: result.Detail})
	}
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

// UpdateDriverAvailability toggles whether the caller accepts new deliveries.
func UpdateDriverAvailability(svc DriversService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		var req availabilityRequest
		if err := validators.DecodeJSON(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		driverID := strings.TrimSpace(chi.URLParam(r, "uid"))
		if err := svc.SetAvailability(r.Context(), actorID, driverID, req.IsAvailable); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"isAvailable": *req.IsAvailable})
	}
}

// GetDriverLocation returns the last known position of a driver.
func GetDriverLocation(svc DriversService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drivers service unavailable"))
			return
		}

		point, err := svc.GetLocation(r.Context(), strings.TrimSpace(chi.URLParam(r, "uid")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, point)
	}
}
