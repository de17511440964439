package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// APIKeyAuth guards the JSON API. When required is false every request
// passes. Otherwise the key comes from X-API-Key or an
// "Authorization: Bearer" header and must match one of keys; an empty key
// list rejects everything. reject writes the response for a missing
// (401) or invalid (403) key.
func APIKeyAuth(required bool, keys []string, reject func(w http.ResponseWriter, r *http.Request, status int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)
			if key == "" {
				slog.Warn("auth: missing API key", "path", r.URL.Path, "ip", ClientIP(r))
				reject(w, r, http.StatusUnauthorized)
				return
			}
			if !validKey(key, keys) {
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "ip", ClientIP(r))
				reject(w, r, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// validKey compares against every configured key in constant time.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}
