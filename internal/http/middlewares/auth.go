package middlewares

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/somahq/soma/internal/http/errors"
	"github.com/somahq/soma/internal/jwt"
	"github.com/somahq/soma/internal/observability/logger"
)

// TokenParser valida un bearer token del dashboard.
type TokenParser interface {
	Parse(token string) (*jwt.DashboardClaims, error)
}

// RequireAuth exige "Authorization: Bearer <jwt>" válido e inyecta las claims.
func RequireAuth(parser TokenParser) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("bearer rejected", logger.Op("auth"), logger.Err(err))
				if errors.Is(err, jwt.ErrExpired) {
					httperrors.WriteError(w, httperrors.ErrTokenExpired)
					return
				}
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.Subject(claims.Subject)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
