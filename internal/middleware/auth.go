package middleware

import (
	"net/http"
	"strings"

	"qualidoc/internal/auth"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/httputil"
)

// Auth validates the bearer token and puts the actor into the request
// context. The health endpoint is left open for probes.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			actor := models.Actor{ID: claims.Subject, Role: claims.AppRole}
			next.ServeHTTP(w, httputil.WithActor(r, actor))
		})
	}
}
