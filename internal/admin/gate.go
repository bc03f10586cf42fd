package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

type ctxKey string

const claimsKey ctxKey = "admin_claims"

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

// RequireAdmin rejects requests before any mutation happens: 401 without a
// credential, 403 with a valid token that does not carry the admin role.
func RequireAdmin(tokens *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, kit.CodeUnauthorized, "No authorization token provided", nil)
				return
			}
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, kit.CodeUnauthorized, "Invalid token format", nil)
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, kit.CodeUnauthorized, "Invalid token", nil)
				return
			}
			if claims.Role != RoleAdmin {
				kit.WriteError(w, r, http.StatusForbidden, kit.CodeForbidden, "Invalid admin credentials", nil)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
