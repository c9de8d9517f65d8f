package web

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(t *testing.T, allowedOrigins string) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CORS(allowedOrigins)(next)
}

func TestCORS_PreflightAllowedOrigin(t *testing.T) {
	h := corsHandler(t, "https://app.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/api/inventory", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected allow-origin header, got %q", got)
	}
}

func TestCORS_PreflightDisallowedOrigin(t *testing.T) {
	h := corsHandler(t, "https://app.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/api/inventory", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for disallowed origin, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow-origin header, got %q", got)
	}
}

func TestCORS_OptionsWithoutOriginFallsThrough(t *testing.T) {
	h := corsHandler(t, "https://app.example.com")
	req := httptest.NewRequest(http.MethodOptions, "/api/inventory", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected fall-through to handler, got %d", rec.Code)
	}
}

func TestCORS_PlainRequestDisallowedOriginNoHeaders(t *testing.T) {
	h := corsHandler(t, "https://app.example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected handler to run, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow-origin header, got %q", got)
	}
}
