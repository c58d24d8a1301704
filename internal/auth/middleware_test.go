package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peekabooshades/pricing-api/internal/auth"
	"github.com/peekabooshades/pricing-api/internal/common"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.Config{Secret: "test-secret", Issuer: "pricing-api"})
	require.NoError(t, err)
	return svc
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.SignToken("admin-1", []string{"admin"}, time.Minute)
	require.NoError(t, err)

	var gotSubject string
	handler := auth.Middleware{Service: svc}.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/pricing/cache/invalidate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "admin-1", gotSubject)
}

func TestRequireRoleRejectsMissingToken(t *testing.T) {
	svc := newAuthService(t)
	handler := auth.Middleware{Service: svc}.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/pricing/cache/invalidate", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleRejectsNonAdmin(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.SignToken("shopper-1", []string{"customer"}, time.Minute)
	require.NoError(t, err)

	handler := auth.Middleware{Service: svc}.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodPost, "/admin/pricing/cache/invalidate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc := newAuthService(t)
	token, err := svc.SignToken("admin-1", []string{"admin"}, time.Minute)
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = svc.ParseAccessToken(token)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}
