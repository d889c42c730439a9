package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kasirhub/backend-pos/internal/common"
)

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(t, store)
	mw := Middleware{Service: svc}

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthPropagatesIdentity(t *testing.T) {
	store := newMemoryStore()
	store.addStaff(t, "staff-1", "budi", RoleManager, "rahasia-123")
	svc := newTestService(t, store)
	mw := Middleware{Service: svc}

	login, err := svc.Login(context.Background(), "budi", "rahasia-123", "", "")
	require.NoError(t, err)

	var gotID, gotRole string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.StaffID(r.Context())
		gotRole, _ = common.StaffRole(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "staff-1", gotID)
	require.Equal(t, RoleManager, gotRole)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/rates", nil)
	req = req.WithContext(common.WithStaffRole(req.Context(), RoleCashier))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req2 := httptest.NewRequest(http.MethodPut, "/api/v1/rates", nil)
	req2 = req2.WithContext(common.WithStaffRole(req2.Context(), RoleManager))
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	require.Equal(t, http.StatusNoContent, rr2.Code)
}
