package service

import (
	"context"
	"fmt"

	"github.com/dogadopt/dogadopt/internal/logger"
	"github.com/dogadopt/dogadopt/internal/metrics"
	"github.com/dogadopt/dogadopt/internal/models"
	"github.com/dogadopt/dogadopt/internal/store"
	"github.com/go-playground/validator/v10"
)

// Query keys under which callers cache the fetch results
const (
	DogsQueryKey    = "dogs"
	RescuesQueryKey = "rescues"
)

// ListingService fetches dog and rescue listings
// This is the service layer - it sits between handlers and the listing store
//
// Responsibilities:
//   - Issue one read per call
//   - Validate raw rows before they cross into the domain
//   - Project rows into models.Dog / models.Rescue
//   - Wrap every failure in a FetchError
type ListingService struct {
	store     store.ListingStore
	validator *validator.Validate
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewListingService creates a new listing service
//
// Parameters:
//   - store: any ListingStore implementation
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewListingService(store store.ListingStore, m *metrics.Metrics, log *logger.Logger) *ListingService {
	if log == nil {
		log = logger.NewDefault()
	}
	return &ListingService{
		store:     store,
		validator: validator.New(),
		metrics:   m,
		logger:    log.WithComponent("ListingService"),
	}
}

// FetchDogs returns every dog, newest first, with rescue names resolved
//
// The order is the store's; nothing is re-sorted here. If the read fails or
// any row is malformed the whole call fails with a *FetchError and a nil slice.
func (s *ListingService) FetchDogs(ctx context.Context) ([]models.Dog, error) {
	rows, err := s.store.ListDogs(ctx)
	if err != nil {
		return nil, s.fail(DogsQueryKey, err)
	}

	dogs := make([]models.Dog, 0, len(rows))
	for _, row := range rows {
		if err := s.validator.Struct(row); err != nil {
			return nil, s.fail(DogsQueryKey, fmt.Errorf("invalid dog row %q: %w", row.ID, err))
		}

		dog := MapDogRow(row)
		if dog.Rescue == "" {
			return nil, s.fail(DogsQueryKey, fmt.Errorf("dog %q has no rescue name", row.ID))
		}
		dogs = append(dogs, dog)
	}

	s.succeed(DogsQueryKey, len(dogs))
	return dogs, nil
}

// FetchRescues returns every rescue ordered by name, unchanged
func (s *ListingService) FetchRescues(ctx context.Context) ([]models.Rescue, error) {
	rescues, err := s.store.ListRescues(ctx)
	if err != nil {
		return nil, s.fail(RescuesQueryKey, err)
	}

	if rescues == nil {
		rescues = []models.Rescue{}
	}

	s.succeed(RescuesQueryKey, len(rescues))
	return rescues, nil
}

// Close releases the underlying store
func (s *ListingService) Close() error {
	return s.store.Close()
}

// MapDogRow projects a raw row into a Dog
// A joined rescue with a name wins over the row's own rescue column and
// supplies the website; otherwise the inline name is used and the website stays unset.
func MapDogRow(row models.DogRow) models.Dog {
	dog := models.Dog{
		ID:           row.ID,
		Name:         row.Name,
		Breed:        row.Breed,
		Age:          row.Age,
		Size:         models.Size(row.Size),
		Gender:       models.Gender(row.Gender),
		Location:     row.Location,
		Rescue:       row.Rescue,
		Image:        row.Image,
		GoodWithKids: row.GoodWithKids,
		GoodWithDogs: row.GoodWithDogs,
		GoodWithCats: row.GoodWithCats,
		Description:  row.Description,
	}

	if row.Rescues != nil {
		if row.Rescues.Name != "" {
			dog.Rescue = row.Rescues.Name
		}
		dog.RescueWebsite = row.Rescues.Website
	}

	return dog
}

func (s *ListingService) fail(resource string, err error) error {
	s.logger.Error().Err(err).Str("resource", resource).Msg("Listing fetch failed")
	if s.metrics != nil {
		s.metrics.ListingFetchesTotal.WithLabelValues(resource, "error").Inc()
	}
	return &FetchError{Resource: resource, Err: err}
}

func (s *ListingService) succeed(resource string, count int) {
	s.logger.Debug().Str("resource", resource).Int("count", count).Msg("Listing fetched")
	if s.metrics != nil {
		s.metrics.ListingFetchesTotal.WithLabelValues(resource, "success").Inc()
	}
}
