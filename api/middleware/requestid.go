// Package middleware содержит HTTP middleware сервиса.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// RequestIDHeader - заголовок, в котором клиент может передать свой id.
const RequestIDHeader = "X-Request-ID"

// RequestID берёт id из заголовка или генерирует UUID и кладёт его
// под ключом chi, чтобы middleware.GetReqID и logging.FromContext его видели.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
