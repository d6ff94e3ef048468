package v1

import (
	"github.com/dogadopt/dogadopt/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the /v1 API
func SetupRoutes(listingHandler *handler.ListingHandler, locationHandler *handler.LocationHandler) chi.Router {
	r := chi.NewRouter()

	r.Get("/dogs", listingHandler.ListDogs)
	r.Get("/rescues", listingHandler.ListRescues)

	r.Route("/location", func(r chi.Router) {
		r.Get("/", locationHandler.GetLocation)
		r.Post("/", locationHandler.RequestLocation)
		r.Delete("/", locationHandler.ClearLocation)
	})

	return r
}
