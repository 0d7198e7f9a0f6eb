package middleware

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/p-chth/KaoDuenMate-VER2/internal/auth"
)

// Auth rejects requests without a valid bearer token and puts the caller's
// user ID in the request context. Browsers cannot set headers on an
// EventSource, so the token may also arrive as ?access_token=.
func Auth(verifier *auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				header = r.URL.Query().Get("access_token")
			}

			userID, err := verifier.FromHeader(header)
			if err != nil {
				message := "invalid token"
				if errors.Is(err, auth.ErrMissingToken) {
					message = "missing authorization token"
				}
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Unauthorized request")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"` + message + `"}`))
				return
			}

			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", userID)
			})

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		}
		return http.HandlerFunc(fn)
	}
}
