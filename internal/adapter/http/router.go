package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomhunt/property-service/internal/adapter/http/middleware"
	"github.com/roomhunt/property-service/internal/platform/logger"
)

// SetupRoutes wires the REST surface. Read endpoints take an optional token
// so owners can see their own private listings; write endpoints require one.
func SetupRoutes(mux *chi.Mux, h *PropertyHandler, jwtSecret string, log *logger.Logger) {
	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Group(func(r chi.Router) {
		r.Use(middleware.OptionalJWTAuth(jwtSecret, log))

		r.Get("/property", h.HandleListProperties)
		r.Get("/property/{slug}", h.HandleGetProperty)
		r.Get("/image/{id}", h.HandleGetImage)
	})

	mux.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtSecret, log))

		r.Post("/property", h.HandleCreateProperty)
		r.Patch("/property/{slug}", h.HandleUpdateProperty)
		r.Delete("/property/{slug}", h.HandleDeleteProperty)
	})
}
