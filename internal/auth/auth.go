package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Shin107/Anisotropic-SNANA/internal/httputil"
)

// Config holds authentication configuration.
type Config struct {
	Enabled bool
	Token   string
}

// FromToken enables auth when token is non-empty.
func FromToken(token string) Config {
	return Config{Enabled: token != "", Token: token}
}

// protectedPrefixes are the paths that require a token when auth is
// enabled. Single-point queries stay public.
var protectedPrefixes = []string{
	"/api/v1/batch/",
}

// isProtected returns true if the path requires auth.
func isProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware returns an HTTP middleware that enforces Bearer token auth
// on protected paths when auth is enabled.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || !isProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")

			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Token)) != 1 {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorBody{Error: "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
