package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/cartql/pkg/logger"
)

// RequestLogger stores a request-scoped logger carrying correlation_id,
// trace_id and span_id in the context. Mount it after RequestLogging and
// Tracing so both ids are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CartScope tags the request context and its logger with the cart id found
// in the named chi URL parameter. It must be mounted on a route that
// declares that parameter.
func CartScope(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cartID := chi.URLParam(r, param)
			if cartID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logger.WithCartID(r.Context(), cartID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("cart_id", cartID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
