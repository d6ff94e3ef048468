package handler

import (
	"errors"
	"net/http"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/query"
	"github.com/dogadopt/dogadopt/internal/service"
)

// ListingHandler serves the dog and rescue listings
// Results go through the query client, so repeated page loads within the
// stale time share one datastore read.
type ListingHandler struct {
	service *service.ListingService
	queries *query.Client
	logger  *logger.Logger
}

// NewListingHandler creates a listing handler
func NewListingHandler(svc *service.ListingService, queries *query.Client, log *logger.Logger) *ListingHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ListingHandler{
		service: svc,
		queries: queries,
		logger:  log.WithComponent("ListingHandler"),
	}
}

// ListDogs handles GET /v1/dogs
// @Summary      List adoptable dogs
// @Description  All dogs, newest first, with the rescue name resolved from the rescues table
// @Tags         Listings
// @Produce      json
// @Success      200  {array}   models.Dog
// @Failure      429  {object}  models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}  models.ErrorResponse  "Fetch failed"
// @Router       /v1/dogs [get]
func (h *ListingHandler) ListDogs(w http.ResponseWriter, r *http.Request) {
	dogs, err := query.Fetch(r.Context(), h.queries, service.DogsQueryKey, h.service.FetchDogs)
	if err != nil {
		h.fetchFailed(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dogs)
}

// ListRescues handles GET /v1/rescues
// @Summary      List rescue organisations
// @Description  All rescues ordered by name
// @Tags         Listings
// @Produce      json
// @Success      200  {array}   models.Rescue
// @Failure      429  {object}  models.ErrorResponse  "Rate limit exceeded"
// @Failure      500  {object}  models.ErrorResponse  "Fetch failed"
// @Router       /v1/rescues [get]
func (h *ListingHandler) ListRescues(w http.ResponseWriter, r *http.Request) {
	rescues, err := query.Fetch(r.Context(), h.queries, service.RescuesQueryKey, h.service.FetchRescues)
	if err != nil {
		h.fetchFailed(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rescues)
}

func (h *ListingHandler) fetchFailed(w http.ResponseWriter, err error) {
	var fetchErr *service.FetchError
	if errors.As(err, &fetchErr) {
		respondError(w, http.StatusInternalServerError, "Failed to fetch "+fetchErr.Resource)
		return
	}
	h.logger.Error().Err(err).Msg("Unexpected listing error")
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
