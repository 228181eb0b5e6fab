// Package csrfguard wraps gorilla/csrf for the HTML forms.
//
// JSON requests under /api/ are exempt: the backend endpoints are called
// server to server by the tracker with forwarded session cookies and carry
// no form token. Every other route is checked whatever its Content-Type.
package csrfguard

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
)

// APIPrefix is the path prefix of the exempt JSON backend.
const APIPrefix = "/api/"

// Protect returns the CSRF middleware. secure=false marks requests as plain
// HTTP so local development over http://localhost passes the origin checks.
func Protect(authKey []byte, secure bool, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trustedOrigins),
	)

	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func exempt(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, APIPrefix) &&
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
