package store

import (
	"context"
	"sync"

	"github.com/dogadopt/dogadopt/internal/models"
)

// MockListingStore is a test double for ListingStore
// It records calls and returns whatever the test configured
type MockListingStore struct {
	mu sync.Mutex

	Dogs    []models.DogRow
	Rescues []models.Rescue

	ListDogsCalls    int
	ListRescuesCalls int
	CloseCalled      bool

	ListDogsError    error
	ListRescuesError error
	CloseError       error
}

// NewMockListingStore creates a mock pre-populated with a small listing
func NewMockListingStore() *MockListingStore {
	website := "https://happy-paws.example"
	rescueID := "r1"

	return &MockListingStore{
		Dogs: []models.DogRow{
			{
				ID: "d2", Name: "Biscuit", Breed: "Beagle", Age: "2 years",
				Size: "Small", Gender: "Female", Location: "Leeds",
				Rescue: "Happy Paws (old name)", RescueID: &rescueID,
				GoodWithKids: true, GoodWithDogs: true,
				Rescues: &models.RescueRef{ID: "r1", Name: "Happy Paws", Region: "Yorkshire", Website: &website},
			},
			{
				ID: "d1", Name: "Rex", Breed: "Lurcher", Age: "5 years",
				Size: "Large", Gender: "Male", Location: "York",
				Rescue: "Inline Rescue", GoodWithCats: true,
			},
		},
		Rescues: []models.Rescue{
			{ID: "r2", Name: "Dogs Trust", Type: "National", Region: "UK"},
			{ID: "r1", Name: "Happy Paws", Type: "Independent", Region: "Yorkshire", Website: &website},
		},
	}
}

// ListDogs implements ListingStore
func (m *MockListingStore) ListDogs(ctx context.Context) ([]models.DogRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListDogsCalls++
	if m.ListDogsError != nil {
		return nil, m.ListDogsError
	}

	rows := make([]models.DogRow, len(m.Dogs))
	copy(rows, m.Dogs)
	return rows, nil
}

// ListRescues implements ListingStore
func (m *MockListingStore) ListRescues(ctx context.Context) ([]models.Rescue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListRescuesCalls++
	if m.ListRescuesError != nil {
		return nil, m.ListRescuesError
	}

	rescues := make([]models.Rescue, len(m.Rescues))
	copy(rescues, m.Rescues)
	return rescues, nil
}

// Close implements ListingStore
func (m *MockListingStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalled = true
	return m.CloseError
}

// MockLocationStore is a test double for LocationStore
type MockLocationStore struct {
	mu sync.Mutex

	Data map[string]*models.IPLocation

	FindByIPCalls []string
	CloseCalled   bool

	// Block, when set, is waited on before FindByIP answers (or the context ends)
	Block         chan struct{}
	FindByIPError error
	CloseError    error
}

// NewMockLocationStore creates a mock with a London and a Manchester address
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		Data: map[string]*models.IPLocation{
			"81.2.69.142": {
				IP: "81.2.69.142", City: "London", Country: "United Kingdom",
				Latitude: 51.5, Longitude: -0.12,
			},
			"5.62.16.1": {
				IP: "5.62.16.1", City: "Manchester", Country: "United Kingdom",
				Latitude: 53.48, Longitude: -2.24,
			},
		},
		FindByIPCalls: []string{},
	}
}

// FindByIP implements LocationStore
func (m *MockLocationStore) FindByIP(ctx context.Context, ip string) (*models.IPLocation, error) {
	m.mu.Lock()
	m.FindByIPCalls = append(m.FindByIPCalls, ip)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FindByIPError != nil {
		return nil, m.FindByIPError
	}

	location, exists := m.Data[ip]
	if !exists {
		return nil, ErrNotFound
	}

	found := *location
	return &found, nil
}

// Calls returns a copy of the recorded FindByIP arguments
func (m *MockLocationStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.FindByIPCalls))
	copy(calls, m.FindByIPCalls)
	return calls
}

// Close implements LocationStore
func (m *MockLocationStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalled = true
	return m.CloseError
}
