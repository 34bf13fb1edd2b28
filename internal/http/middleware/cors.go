package middleware

import (
	"net/http"
	"slices"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const corsPreflightMaxAge = 10 * time.Minute

// CORS lets the listed browser origins call the API. A "*" entry admits any
// origin, and credentials are then never allowed. Preflight decisions are
// logged at debug level.
func CORS(origins []string, allowCredentials bool, log *zap.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         int(corsPreflightMaxAge / time.Second),
	}
	if slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = allowCredentials
	}

	c := cors.New(opts)
	if log != nil && log.Core().Enabled(zap.DebugLevel) {
		c.Log = zap.NewStdLog(log.Named("cors"))
	}
	return c.Handler
}
