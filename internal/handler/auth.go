package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/AlexZinkM/launchpad-bot/internal/model"
)

// RequireToken wraps handlers so they need "Authorization: Bearer <token>".
// An empty token lets every request through.
func RequireToken(token string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if token == "" {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "operator token required", Code: "unauthorized"})
				return
			}
			next(w, r)
		}
	}
}
