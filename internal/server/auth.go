package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/soyeahso/aiosforge/internal/config"
)

// Auth modes.
const (
	AuthModeNone  = "none"
	AuthModeToken = "token"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth holds the resolved auth configuration for the server.
type ResolvedAuth struct {
	Mode  string
	Token string
}

// ResolveAuth derives the auth mode from config. No token means no auth.
func ResolveAuth(cfg config.ServerAuth) ResolvedAuth {
	if cfg.Token == "" {
		return ResolvedAuth{Mode: AuthModeNone}
	}
	return ResolvedAuth{Mode: AuthModeToken, Token: cfg.Token}
}

// Authorize checks a presented token against the resolved server auth.
func Authorize(serverAuth ResolvedAuth, token string) AuthResult {
	switch serverAuth.Mode {
	case AuthModeNone:
		return AuthResult{OK: true, Method: AuthModeNone}
	case AuthModeToken:
		if token == "" {
			return AuthResult{OK: false, Reason: "token required"}
		}
		if !safeEqual(token, serverAuth.Token) {
			return AuthResult{OK: false, Reason: "token_mismatch"}
		}
		return AuthResult{OK: true, Method: AuthModeToken}
	default:
		return AuthResult{OK: false, Reason: "unknown auth mode: " + serverAuth.Mode}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// safeEqual performs a constant-time string comparison.
// It avoids early-return on length mismatch so the secret length does not leak via timing.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	cmp := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, cmp, 0) == 1
}
