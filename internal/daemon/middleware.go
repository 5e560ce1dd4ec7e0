package daemon

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/SecretPocketCat/chela/internal/logging"
)

// RequestIDHeader carries the correlation identifier of an API request.
const RequestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every request with a correlation identifier, taken
// from the request header when present, and echoes it on the response.
func requestIDMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)
		logging.WithContext(ctx, logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
