package handler

import (
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
)

// Logger writes one structured access-log line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", chimiddleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// CORS allows browser clients from the configured origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// Authenticate requires a valid bearer token.
func Authenticate(v *auth.Verifier) func(http.Handler) http.Handler {
	return auth.Middleware(v, func(w http.ResponseWriter, err error) {
		msg := "invalid token"
		switch {
		case errors.Is(err, auth.ErrMissingToken):
			msg = "missing bearer token"
		case errors.Is(err, auth.ErrTokenExpired):
			msg = "token has expired"
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="eventhub"`)
		writeError(w, http.StatusUnauthorized, msg)
	})
}
