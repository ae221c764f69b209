package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)
	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if rw.statusCode != http.StatusNotFound || rec.Code != http.StatusNotFound {
		t.Errorf("Expected the first status to stick, got %d / %d", rw.statusCode, rec.Code)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("Expected 5 bytes written, got %d", rw.bytesWritten)
	}
}

func TestHijackUnsupported(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())
	if _, _, err := rw.Hijack(); err != http.ErrNotSupported {
		t.Errorf("Expected ErrNotSupported, got %v", err)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := map[string]string{
		"plain":          "plain",
		"a\nb\rc":        "a b c",
		"null\x00byte":   "nullbyte",
		"esc\x1b[31mred": "esc[31mred",
		"tab\there":      "tab\there",
		"del\x7f":        "del",
	}
	for in, want := range tests {
		if got := sanitizeLogField(in); got != want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShouldSkip(t *testing.T) {
	config := DefaultLoggingConfig()
	config.LogHealthChecks = false

	tests := []struct {
		path string
		want bool
	}{
		{"/metrics", true},
		{"/healthz", true},
		{"/livez", true},
		{"/api/assets", false},
		{"/api/assets/abc/thumbnail", true},
		{"/api/assets/abc/preview", true},
		{"/api/assets/abc/flags", false},
	}
	for _, tt := range tests {
		if got := shouldSkip(tt.path, config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	config.LogImages = true
	if shouldSkip("/api/assets/abc/preview", config) {
		t.Error("Expected image requests to be logged when enabled")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, remote: "1.1.1.1:80", want: "10.0.0.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "10.0.0.3"}, remote: "1.1.1.1:80", want: "10.0.0.3"},
		{name: "remote addr", remote: "192.168.1.5:51234", want: "192.168.1.5"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "tea" {
		t.Errorf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouteTemplate(t *testing.T) {
	var got string
	r := mux.NewRouter()
	r.HandleFunc("/api/assets/{id}/preview", func(_ http.ResponseWriter, req *http.Request) {
		got = routeTemplate(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/assets/0123abcd/preview", nil))

	if got != "/api/assets/{id}/preview" {
		t.Errorf("routeTemplate() = %q", got)
	}
	if tpl := routeTemplate(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); tpl != "other" {
		t.Errorf("Expected other for unmatched requests, got %q", tpl)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/assets", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assets", nil))
	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201 to pass through, got %d", rec.Code)
	}
}
