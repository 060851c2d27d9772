// Package http provides HTTP routing and middleware configuration
// for the card vault service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"cardvault/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the card
// vault API. It applies JSON content-type enforcement and request logging,
// and mounts the card and user endpoints under /api.
//
// Routes:
//
//	POST   /api/cards            → cardHandler.Store
//	PUT    /api/cards            → cardHandler.Update
//	DELETE /api/cards            → cardHandler.Delete
//	POST   /api/cards/validate   → cardHandler.Validate
//	GET    /api/cards/{userID}   → cardHandler.FetchAll
//	POST   /api/users            → userHandler.Create
//	GET    /api/users/{userID}   → userHandler.Get
//	PUT    /api/users/{userID}   → userHandler.Update
//	DELETE /api/users/{userID}   → userHandler.Delete
func NewRouter(
	cardHandler *CardHandler,
	userHandler *UserHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cardHandler.Store)
			r.Put("/", cardHandler.Update)
			r.Delete("/", cardHandler.Delete)
			r.Post("/validate", cardHandler.Validate)
			r.Get("/{userID}", cardHandler.FetchAll)
		})
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Create)
			r.Get("/{userID}", userHandler.Get)
			r.Put("/{userID}", userHandler.Update)
			r.Delete("/{userID}", userHandler.Delete)
		})
	})

	return r
}
