package middleware

import (
	"fmt"
	"net/http"

	"github.com/UkralStul/car-reviews-service/internal/access"
	"github.com/UkralStul/car-reviews-service/internal/logging"
)

// RequireToken пропускает запрос, только если его разрешает policy.
// Иначе отвечает 403 с JSON-ошибкой.
func RequireToken(policy access.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Authorize(r.Method, r.Header.Get("Authorization")); err != nil {
				logging.FromContext(r.Context()).Warn("auth: request rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"reason", err.Error(),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprintf(w, `{"error":%q,"code":"permission_denied"}`+"\n", err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
