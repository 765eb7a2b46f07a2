package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/bizledger/internal/auth"
	"github.com/josh-kwaku/bizledger/internal/handler"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/policy"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{
				UserID:      claims.UserID,
				Email:       claims.Email,
				Role:        claims.Role,
				Permissions: claims.Permissions,
			})
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", claims.UserID, "role", claims.Role))
			annotateRequest(ctx, "user_id", claims.UserID, "role", claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects callers whose role and permissions do not grant c.
// It must run after Auth.
func Require(c policy.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			decision := policy.Evaluate(p.Role, p.Permissions, c)
			if !decision.Allowed {
				logging.FromContext(r.Context()).Warn("capability denied",
					"capability", c,
					"reason", decision.Reason,
				)
				handler.RespondAppError(w, handler.ErrForbidden, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
