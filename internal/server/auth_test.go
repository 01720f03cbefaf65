package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soyeahso/aiosforge/internal/config"
	"github.com/stretchr/testify/assert"
)

// --- safeEqual tests ---

func TestSafeEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"secret", "secret", true},
		{"secret", "wrong", false},
		{"short", "longer-string", false},
		{"", "", true},
		{"secret", "", false},
		{"", "secret", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeEqual(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

// --- ResolveAuth tests ---

func TestResolveAuth_Token(t *testing.T) {
	auth := ResolveAuth(config.ServerAuth{Token: "config-token"})
	assert.Equal(t, AuthModeToken, auth.Mode)
	assert.Equal(t, "config-token", auth.Token)
}

func TestResolveAuth_NoTokenMeansNone(t *testing.T) {
	auth := ResolveAuth(config.ServerAuth{})
	assert.Equal(t, AuthModeNone, auth.Mode)
}

// --- Authorize tests ---

func TestAuthorize_TokenSuccess(t *testing.T) {
	result := Authorize(ResolvedAuth{Mode: AuthModeToken, Token: "secret"}, "secret")
	assert.True(t, result.OK)
	assert.Equal(t, AuthModeToken, result.Method)
	assert.Empty(t, result.Reason)
}

func TestAuthorize_TokenMismatch(t *testing.T) {
	result := Authorize(ResolvedAuth{Mode: AuthModeToken, Token: "secret"}, "wrong")
	assert.False(t, result.OK)
	assert.Equal(t, "token_mismatch", result.Reason)
}

func TestAuthorize_TokenEmpty(t *testing.T) {
	result := Authorize(ResolvedAuth{Mode: AuthModeToken, Token: "secret"}, "")
	assert.False(t, result.OK)
	assert.Equal(t, "token required", result.Reason)
}

func TestAuthorize_ModeNone(t *testing.T) {
	result := Authorize(ResolvedAuth{Mode: AuthModeNone}, "")
	assert.True(t, result.OK)
	assert.Equal(t, AuthModeNone, result.Method)
}

func TestAuthorize_UnknownAuthMode(t *testing.T) {
	result := Authorize(ResolvedAuth{Mode: "oauth"}, "whatever")
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "unknown auth mode")
}

// --- bearerToken tests ---

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  padded ", "padded"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(r), "header %q", tt.header)
	}
}

// --- authRateLimiter tests ---

func TestAuthRateLimiter_AllowInitial(t *testing.T) {
	limiter := newAuthRateLimiter()
	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestAuthRateLimiter_AllowAfterFewFailures(t *testing.T) {
	limiter := newAuthRateLimiter()

	for i := 0; i < 5; i++ {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, limiter.allow("192.168.1.1:12345"))
}

func TestAuthRateLimiter_BlockAfterMaxFailures(t *testing.T) {
	limiter := newAuthRateLimiter()

	for i := 0; i < authRateMaxFails; i++ {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.False(t, limiter.allow("192.168.1.1:54321"))
}

func TestAuthRateLimiter_DifferentIPs(t *testing.T) {
	limiter := newAuthRateLimiter()

	for i := 0; i < authRateMaxFails; i++ {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.True(t, limiter.allow("192.168.1.2:12345"))
}

func TestAuthRateLimiter_IPWithoutPort(t *testing.T) {
	limiter := newAuthRateLimiter()

	for i := 0; i < authRateMaxFails; i++ {
		limiter.recordFailure("192.168.1.1")
	}
	assert.False(t, limiter.allow("192.168.1.1"))
}

func TestAuthRateLimiter_ExpiredFailures(t *testing.T) {
	limiter := newAuthRateLimiter()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < authRateMaxFails; i++ {
		limiter.recordFailure("192.168.1.1:12345")
	}
	assert.False(t, limiter.allow("192.168.1.1:12345"))

	now = now.Add(authRateWindow + time.Minute)
	assert.True(t, limiter.allow("192.168.1.1:12345"))
	assert.Empty(t, limiter.failures)
}

func TestAuthRateLimiter_EvictsOldestIP(t *testing.T) {
	limiter := newAuthRateLimiter()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.failures["oldest"] = []time.Time{base}
	for i := 1; i < authRateMaxIPs; i++ {
		limiter.failures[fmt.Sprintf("10.1.%d.%d", i/256, i%256)] = []time.Time{base.Add(time.Duration(i) * time.Second)}
	}
	limiter.now = func() time.Time { return base.Add(time.Hour) }

	limiter.recordFailure("10.0.0.1:1")
	assert.Len(t, limiter.failures, authRateMaxIPs)
	assert.NotContains(t, limiter.failures, "oldest")
	assert.Contains(t, limiter.failures, "10.0.0.1")
}
