// Package auth provides allow-list token checking for the HTTP surface.
//
// This is deliberately simple: a token either appears in the configured
// allow-list or the request is rejected. There is no token issuance,
// expiry, or role model.
package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// errorBody is the structured payload returned on authentication failure.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Middleware returns an HTTP middleware enforcing the token allow-list.
//
// Credentials are accepted as either "Authorization: Bearer <token>" or an
// "X-API-Key" header. An empty allow-list disables the check entirely, which
// is the local development posture.
func Middleware(log *slog.Logger, tokens []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		allowed[t] = struct{}{}
	}

	log = log.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				next.ServeHTTP(w, r)

				return
			}

			token, errMsg := extractToken(r)
			if errMsg != "" {
				unauthorized(w, errMsg)

				return
			}

			if _, ok := allowed[token]; !ok {
				log.Warn("Rejected request with unknown token", "path", r.URL.Path)
				unauthorized(w, "invalid token")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls a credential from the request headers.
// Returns the token and an error message (empty if successful).
func extractToken(r *http.Request) (string, string) {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key, ""
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing credentials"
	}

	if !strings.HasPrefix(header, "Bearer ") {
		return "", "invalid authorization header format"
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", "empty token"
	}

	return token, ""
}

func unauthorized(w http.ResponseWriter, message string) {
	var body errorBody
	body.Error.Code = "unauthorized"
	body.Error.Message = message

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(body)
}
