package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lokapasar/lokapasar-backend/pkg/enums"
)

type stubMaintenanceChecker struct {
	active bool
	err    error
}

func (s stubMaintenanceChecker) MaintenanceActive(context.Context) (bool, error) {
	return s.active, s.err
}

func maintenanceHandler(t *testing.T, checker MaintenanceChecker) (http.Handler, *int) {
	t.Helper()
	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	return Maintenance(checker, string(enums.MemberRoleAdmin), nil)(next), &calls
}

func TestMaintenanceBlocksNonAdminTraffic(t *testing.T) {
	handler, calls := maintenanceHandler(t, stubMaintenanceChecker{active: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.MemberRoleBuyer)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 during maintenance, got %d", resp.Code)
	}
	if *calls != 0 {
		t.Fatal("expected handler not to run during maintenance")
	}
}

func TestMaintenanceBlocksAnonymousTraffic(t *testing.T) {
	handler, calls := maintenanceHandler(t, stubMaintenanceChecker{active: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for anonymous traffic, got %d", resp.Code)
	}
	if *calls != 0 {
		t.Fatal("expected handler not to run during maintenance")
	}
}

func TestMaintenanceAdminsBypass(t *testing.T) {
	handler, calls := maintenanceHandler(t, stubMaintenanceChecker{active: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), string(enums.MemberRoleAdmin)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected admin to bypass maintenance, got %d", resp.Code)
	}
	if *calls != 1 {
		t.Fatalf("expected handler to run once, calls=%d", *calls)
	}
}

func TestMaintenancePassThroughWhenFlagOff(t *testing.T) {
	handler, calls := maintenanceHandler(t, stubMaintenanceChecker{active: false})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || *calls != 1 {
		t.Fatalf("expected pass-through, code=%d calls=%d", resp.Code, *calls)
	}
}

func TestMaintenanceFailsOpenOnCheckError(t *testing.T) {
	handler, calls := maintenanceHandler(t, stubMaintenanceChecker{err: errors.New("settings down")})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || *calls != 1 {
		t.Fatalf("expected fail-open, code=%d calls=%d", resp.Code, *calls)
	}
}

func TestMaintenanceNilCheckerIsNoop(t *testing.T) {
	var calls int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	handler := Maintenance(nil, string(enums.MemberRoleAdmin), nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || calls != 1 {
		t.Fatalf("expected no-op middleware, code=%d calls=%d", resp.Code, calls)
	}
}
