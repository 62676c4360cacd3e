package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-trash-bin/internal/model"
)

type stubValidator struct {
	claims *model.AuthClaims
	err    error
}

func (s *stubValidator) ValidateToken(string) (*model.AuthClaims, error) {
	return s.claims, s.err
}

func protectedEndpoint(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.Username))
	})
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{claims: &model.AuthClaims{UserID: "u1"}})
	handler := mw.RequireAuth(protectedEndpoint(t))

	req := httptest.NewRequest("GET", "/api/trash", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{err: errors.New("bad token")})
	handler := mw.RequireAuth(protectedEndpoint(t))

	req := httptest.NewRequest("GET", "/api/trash", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidTokenPopulatesClaims(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{claims: &model.AuthClaims{UserID: "u1", Username: "root", Role: "admin"}})
	handler := mw.RequireAuth(protectedEndpoint(t))

	req := httptest.NewRequest("GET", "/api/trash", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "root", rec.Body.String())
}

func TestRequireRoles_ForbidsOtherRoles(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{claims: &model.AuthClaims{UserID: "u1", Role: "viewer"}})
	handler := mw.RequireAuth(mw.RequireRoles("admin")(protectedEndpoint(t)))

	req := httptest.NewRequest("POST", "/api/trash/empty", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoles_RoleMatchIsCaseInsensitive(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{claims: &model.AuthClaims{UserID: "u1", Username: "root", Role: "Admin"}})
	handler := mw.RequireAuth(mw.RequireRoles("admin")(protectedEndpoint(t)))

	req := httptest.NewRequest("POST", "/api/trash/empty", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
