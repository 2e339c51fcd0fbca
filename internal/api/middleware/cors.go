package middleware

import (
	"net/http"
	"slices"

	"github.com/gorilla/handlers"
)

// CORS allows browser calls from the given origins. "*" allows any origin,
// in which case credentials are not allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	opts := []handlers.CORSOption{
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "X-Requested-With"}),
		handlers.MaxAge(86400),
	}
	if !slices.Contains(allowedOrigins, "*") {
		opts = append(opts, handlers.AllowCredentials())
	}

	return handlers.CORS(opts...)
}
