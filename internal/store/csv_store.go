package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dogadopt/dogadopt/internal/models"
)

// CSVStore implements ListingStore from two CSV exports held in memory
// Intended for local development and demos; the join and ordering mirror the SQL store
//
// Files (header row required, columns matched by name):
//
//	dogs.csv:    id,name,breed,age,size,gender,location,rescue,rescue_id,image,description,
//	             good_with_kids,good_with_dogs,good_with_cats,created_at
//	rescues.csv: id,name,type,region,website
type CSVStore struct {
	dogs    []models.DogRow
	rescues map[string]models.Rescue
}

// NewCSVStore loads dogs.csv and rescues.csv from dir
func NewCSVStore(dir string) (*CSVStore, error) {
	rescueRecords, err := readCSV(filepath.Join(dir, "rescues.csv"))
	if err != nil {
		return nil, err
	}

	dogRecords, err := readCSV(filepath.Join(dir, "dogs.csv"))
	if err != nil {
		return nil, err
	}

	store := &CSVStore{
		rescues: make(map[string]models.Rescue, len(rescueRecords)),
	}

	for _, rec := range rescueRecords {
		rescue := models.Rescue{
			ID:      rec["id"],
			Name:    rec["name"],
			Type:    rec["type"],
			Region:  rec["region"],
			Website: optional(rec["website"]),
		}
		if rescue.ID == "" {
			continue
		}
		store.rescues[rescue.ID] = rescue
	}

	for i, rec := range dogRecords {
		row, err := parseDogRecord(rec)
		if err != nil {
			// Line numbers are 1-based and include the header
			return nil, fmt.Errorf("dogs.csv line %d: %w", i+2, err)
		}
		store.dogs = append(store.dogs, row)
	}

	return store, nil
}

// ListDogs joins each dog with its rescue and sorts newest first
func (s *CSVStore) ListDogs(ctx context.Context) ([]models.DogRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]models.DogRow, len(s.dogs))
	copy(rows, s.dogs)

	for i := range rows {
		if rows[i].RescueID == nil {
			continue
		}
		if rescue, ok := s.rescues[*rows[i].RescueID]; ok {
			rows[i].Rescues = &models.RescueRef{
				ID:      rescue.ID,
				Name:    rescue.Name,
				Region:  rescue.Region,
				Website: rescue.Website,
			}
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].CreatedAt.After(rows[b].CreatedAt)
	})

	return rows, nil
}

// ListRescues returns rescues sorted by name
func (s *CSVStore) ListRescues(ctx context.Context) ([]models.Rescue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rescues := make([]models.Rescue, 0, len(s.rescues))
	for _, rescue := range s.rescues {
		rescues = append(rescues, rescue)
	}

	sort.SliceStable(rescues, func(a, b int) bool {
		if rescues[a].Name == rescues[b].Name {
			return rescues[a].ID < rescues[b].ID
		}
		return rescues[a].Name < rescues[b].Name
	})

	return rescues, nil
}

// Close is a no-op; everything lives in memory
func (s *CSVStore) Close() error {
	return nil
}

// readCSV returns every data row keyed by its header column
func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file %s is empty", path)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseDogRecord(rec map[string]string) (models.DogRow, error) {
	row := models.DogRow{
		ID:          rec["id"],
		Name:        rec["name"],
		Breed:       rec["breed"],
		Age:         rec["age"],
		Size:        rec["size"],
		Gender:      rec["gender"],
		Location:    rec["location"],
		Rescue:      rec["rescue"],
		RescueID:    optional(rec["rescue_id"]),
		Image:       rec["image"],
		Description: rec["description"],
	}

	var err error
	if row.GoodWithKids, err = parseFlag(rec, "good_with_kids"); err != nil {
		return row, err
	}
	if row.GoodWithDogs, err = parseFlag(rec, "good_with_dogs"); err != nil {
		return row, err
	}
	if row.GoodWithCats, err = parseFlag(rec, "good_with_cats"); err != nil {
		return row, err
	}

	if raw := rec["created_at"]; raw != "" {
		row.CreatedAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return row, fmt.Errorf("invalid created_at %q: %w", raw, err)
		}
	}

	return row, nil
}

// parseFlag treats a missing or blank column as false
func parseFlag(rec map[string]string, column string) (bool, error) {
	raw := rec[column]
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", column, raw, err)
	}
	return value, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
