package controllers

import (
	"net/http"

	"github.com/ayimolou/ayimolou-backend/api/middleware"
	"github.com/ayimolou/ayimolou-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// PrivatePing echoes the authenticated identity.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if uid := middleware.UserIDFromContext(r.Context()); uid != "" {
			payload["user_id"] = uid
		}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = role.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
