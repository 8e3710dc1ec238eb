package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/amesa-systems/amesa-notify/common/httputil"
	"github.com/amesa-systems/amesa-notify/common/tokens"
)

const ClaimsKey = contextKey("service-claims")

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*tokens.Claims, error)
}

// RequireServiceToken rejects requests without a valid bearer token carrying
// scope. A nil validator disables the check.
func RequireServiceToken(validator TokenValidator, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if !claims.HasScope(scope) {
				httputil.WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the validated service claims, if any.
func GetClaims(ctx context.Context) *tokens.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*tokens.Claims)
	return claims
}
