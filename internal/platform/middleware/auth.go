package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/httputil"
	"dugout/pkg/requestcontext"
)

// RequireBearer verifies an HS256 bearer token and stores its subject in the
// request context. With an empty signing key the middleware is a passthrough,
// which keeps local development and handler tests friction-free; production
// deployments set DUGOUT_JWT_SIGNING_KEY.
func RequireBearer(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	key := []byte(signingKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if signingKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "bearer token required"))
				return
			}

			claims := jwt.RegisteredClaims{}
			parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenUnverifiable
				}
				return key, nil
			})
			if err != nil || !parsed.Valid {
				if logger != nil {
					logger.WarnContext(r.Context(), "rejected bearer token",
						"request_id", requestcontext.RequestID(r.Context()),
						"error", err,
					)
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bearer token"))
				return
			}

			ctx := requestcontext.WithSubject(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
