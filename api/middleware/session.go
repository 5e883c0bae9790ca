package middleware

import (
	"net/http"
	"strings"

	"github.com/greenmart/greenmart-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession reads the anonymous cart session key from the request header
// and stashes it in the context. Anonymous browsing works without it; the key
// only matters for cart endpoints hit before login.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(cartSessionHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithSessionKey(r.Context(), key)
			if logg != nil {
				ctx = logg.WithField(ctx, "cart_session", key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
