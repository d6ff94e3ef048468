package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/dogadopt/dogadopt/internal/models"
)

// LocationCSVStore implements LocationStore from a CSV file loaded into memory
//
// CSV Format: ip,city,country,latitude,longitude
// Example: 81.2.69.142,London,United Kingdom,51.5142,-0.0931
type LocationCSVStore struct {
	data map[string]*models.IPLocation
}

// NewLocationCSVStore reads every location from filePath
// Rows with the wrong column count or unparsable coordinates are skipped
func NewLocationCSVStore(filePath string) (*LocationCSVStore, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	store := &LocationCSVStore{
		data: make(map[string]*models.IPLocation),
	}

	for i, record := range records {
		// header
		if i == 0 {
			continue
		}

		if len(record) != 5 {
			continue
		}

		lat, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			continue
		}

		store.data[record[0]] = &models.IPLocation{
			IP:        record[0],
			City:      record[1],
			Country:   record[2],
			Latitude:  lat,
			Longitude: lon,
		}
	}

	return store, nil
}

// FindByIP looks up an IP address in memory
func (s *LocationCSVStore) FindByIP(ctx context.Context, ip string) (*models.IPLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	location, exists := s.data[ip]
	if !exists {
		return nil, ErrNotFound
	}

	// Callers get their own copy
	found := *location
	return &found, nil
}

// All returns every loaded location; used to seed Redis
func (s *LocationCSVStore) All() []models.IPLocation {
	locations := make([]models.IPLocation, 0, len(s.data))
	for _, location := range s.data {
		locations = append(locations, *location)
	}
	return locations
}

// Close is a no-op for the in-memory store
func (s *LocationCSVStore) Close() error {
	return nil
}
