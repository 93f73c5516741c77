package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"adminhub/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeChecker struct {
	enabled bool
	err     error
}

func (f *fakeChecker) MaintenanceEnabled(_ context.Context) (bool, error) {
	return f.enabled, f.err
}

func maintenanceRouter(store AuthStore, checker MaintenanceChecker) *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(store), Maintenance(checker))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/categories", ok)
	r.POST("/api/auth/login", ok)
	return r
}

func request(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMaintenanceDisabledPassesThrough(t *testing.T) {
	r := maintenanceRouter(viewerStore(), &fakeChecker{enabled: false})
	if w := request(r, http.MethodGet, "/api/categories", ""); w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", w.Code)
	}
}

func TestMaintenanceBlocksNonAdmins(t *testing.T) {
	r := maintenanceRouter(viewerStore(), &fakeChecker{enabled: true})

	w := request(r, http.MethodGet, "/api/categories", "good-token")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", w.Code)
	}
	body := decodeBody(t, w)
	if body["code"] != "MAINTENANCE_MODE" {
		t.Fatalf("expected MAINTENANCE_MODE code, got %v", body["code"])
	}
}

func TestMaintenanceAdmitsAdmins(t *testing.T) {
	store := &fakeAuthStore{
		user:  &model.User{ID: uuid.New(), Username: "root"},
		roles: []model.Role{{Name: "admin", Permissions: `{"all":["manage"]}`}},
	}
	r := maintenanceRouter(store, &fakeChecker{enabled: true})

	if w := request(r, http.MethodGet, "/api/categories", "good-token"); w.Code != http.StatusOK {
		t.Fatalf("admin must pass during maintenance, got %d", w.Code)
	}
}

// Auth routes stay open so an admin can log in and clear the flag.
func TestMaintenanceAdmitsAuthRoutes(t *testing.T) {
	r := maintenanceRouter(viewerStore(), &fakeChecker{enabled: true})

	if w := request(r, http.MethodPost, "/api/auth/login", ""); w.Code != http.StatusOK {
		t.Fatalf("auth route must stay reachable during maintenance, got %d", w.Code)
	}
}

func TestMaintenanceFailsOpenOnLookupError(t *testing.T) {
	r := maintenanceRouter(viewerStore(), &fakeChecker{err: errors.New("settings store down")})

	if w := request(r, http.MethodGet, "/api/categories", ""); w.Code != http.StatusOK {
		t.Fatalf("flag lookup failure must fail open, got %d", w.Code)
	}
}
