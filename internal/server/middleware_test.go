package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- isOriginAllowed tests ---

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{"exact match", "http://localhost:5173", []string{"http://localhost:5173"}, true},
		{"wildcard", "https://anything.example", []string{"*"}, true},
		{"not listed", "https://evil.example", []string{"http://localhost:5173"}, false},
		{"empty allowlist", "http://localhost:5173", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isOriginAllowed(tt.origin, tt.allowed))
		})
	}
}

// --- corsMiddleware tests ---

func TestCORS_AllowedOrigin(t *testing.T) {
	h := corsMiddleware(okHandler(), []string{"http://localhost:5173"})
	r := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	h := corsMiddleware(okHandler(), []string{"http://localhost:5173"})
	r := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	r.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}), []string{"*"})
	r := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
}

// --- requestIDMiddleware tests ---

func TestRequestID_Generated(t *testing.T) {
	h := requestIDMiddleware(okHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRequestID_Propagated(t *testing.T) {
	h := requestIDMiddleware(okHandler())
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

// --- authMiddleware tests ---

func TestAuthMiddleware(t *testing.T) {
	auth := ResolvedAuth{Mode: AuthModeToken, Token: "secret"}
	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"api with token", "/api/catalog", "Bearer secret", http.StatusOK},
		{"api without token", "/api/catalog", "", http.StatusUnauthorized},
		{"api wrong token", "/api/catalog", "Bearer nope", http.StatusUnauthorized},
		{"health is public", "/health", "", http.StatusOK},
		{"ws authenticates in handshake", "/ws", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := authMiddleware(okHandler(), auth, newAuthRateLimiter(), silentLog())
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
				assert.Contains(t, w.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestAuthMiddleware_NoneModePassesThrough(t *testing.T) {
	h := authMiddleware(okHandler(), ResolvedAuth{Mode: AuthModeNone}, newAuthRateLimiter(), silentLog())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RateLimitsFailures(t *testing.T) {
	limiter := newAuthRateLimiter()
	h := authMiddleware(okHandler(), ResolvedAuth{Mode: AuthModeToken, Token: "secret"}, limiter, silentLog())

	for i := 0; i < authRateMaxFails; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Even the right token is refused once the window is full.
	r := httptest.NewRequest(http.MethodGet, "/api/catalog", nil)
	r.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// --- statusWriter tests ---

func TestStatusWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}
	sw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, sw.status)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Same(t, rec, sw.Unwrap())
}

func TestStatusWriterHijackUnsupported(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := sw.Hijack()
	assert.Error(t, err)
}
