package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"photo-catalog/internal/database"
	"photo-catalog/internal/handlers"
	"photo-catalog/internal/service"
	"photo-catalog/internal/startup"
)

func newTestRouter(t *testing.T, metricsEnabled bool) http.Handler {
	t.Helper()
	db, err := database.New(t.Context(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc, err := service.New(service.DefaultConfig(), db)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	t.Cleanup(svc.Close)

	return setupRouter(handlers.New(svc, nil, 0), metricsEnabled)
}

func TestSetupRouterRoutes(t *testing.T) {
	db, err := database.New(t.Context(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	defer db.Close()
	svc, err := service.New(service.DefaultConfig(), db)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	defer svc.Close()

	routes, err := startup.GetRoutes(setupRouter(handlers.New(svc, nil, 0), true))
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}

	registered := make(map[string]bool)
	for _, r := range routes {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/assets",
		"POST /api/folder",
		"POST /api/rescan",
		"POST /api/reload",
		"GET /api/assets/{id}/thumbnail",
		"GET /api/assets/{id}/preview",
		"PUT /api/assets/{id}/flags",
		"GET /api/events",
		"GET /healthz",
		"GET /metrics",
	} {
		if !registered[want] {
			t.Errorf("Route %s is not registered", want)
		}
	}
}

func TestRouterServesRequests(t *testing.T) {
	router := newTestRouter(t, false)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodHead, "/livez", http.StatusOK},
		{http.MethodGet, "/api/assets", http.StatusOK},
		{http.MethodPost, "/api/rescan", http.StatusConflict},
		{http.MethodGet, "/api/assets/unknown/thumbnail", http.StatusNotFound},
		{http.MethodDelete, "/api/assets", http.StatusMethodNotAllowed},
		{http.MethodGet, "/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.want, w.Code)
		}
	}
}
