package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/server/auth"
)

type contextKey string

const claimsContextKey contextKey = "staff-claims"

// authMiddleware verifies the bearer token and injects the staff claims
// into the request context.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeError(w, common.ErrInvalidToken)
			return
		}

		claims, err := auth.ParseToken(token, h.jwtSecret)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext returns the staff claims injected by authMiddleware.
func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}
