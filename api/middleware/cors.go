package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the browser origin policy shared by the storefront, the
// merchant dashboard, and the back office.
func CORS() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: []string{
			"http://localhost:3000", // local dev
			"https://lokapasar.id",
			"https://www.lokapasar.id",
			"https://merchant.lokapasar.id",
			"https://admin.lokapasar.id",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-LP-Token", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-LP-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	return cors.New(opts).Handler
}
