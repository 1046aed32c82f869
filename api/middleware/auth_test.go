package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayimolou/ayimolou-backend/pkg/auth"
	"github.com/ayimolou/ayimolou-backend/pkg/config"
	"github.com/ayimolou/ayimolou-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "ayimolou", ExpirationMinutes: 10}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler(nil))

	for _, header := range []string{"", "Bearer ", "Bearer invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if resp := serve(handler, req); resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, resp.Code)
		}
	}
}

func TestAuthSeedsIdentity(t *testing.T) {
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{UserID: "uid-42", Role: enums.UserRoleVendor})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	var gotUser string
	var gotRole enums.UserRole
	handler := Auth(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	if resp := serve(handler, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != "uid-42" || gotRole != enums.UserRoleVendor {
		t.Fatalf("unexpected identity %q/%q", gotUser, gotRole)
	}
}

func TestRequireRole(t *testing.T) {
	var calls int
	handler := RequireRole(nil, enums.UserRoleVendor, enums.UserRoleAdmin)(okHandler(&calls))

	cases := []struct {
		role enums.UserRole
		want int
	}{
		{enums.UserRoleVendor, http.StatusOK},
		{enums.UserRoleAdmin, http.StatusOK},
		{enums.UserRoleDriver, http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := asActor(httptest.NewRequest(http.MethodPatch, "/", nil), "u1", tc.role)
		if resp := serve(handler, req); resp.Code != tc.want {
			t.Fatalf("role %q: expected %d got %d", tc.role, tc.want, resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestRequestIDPropagatesOrMints(t *testing.T) {
	handler := RequestID(nil)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-abc")
	if got := serve(handler, req).Header().Get(requestIDHeader); got != "req-abc" {
		t.Fatalf("expected propagated id, got %q", got)
	}

	if got := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)).Header().Get(requestIDHeader); got == "" {
		t.Fatalf("expected minted id")
	}
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	if resp := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
