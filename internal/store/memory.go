package store

import (
	"errors"
	"sync"

	"github.com/i474232898/tray-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no record is available for a given city.
	ErrNotFound = errors.New("no weather record for city")
)

// recordHistory holds a time-ordered list of records for a city.
type recordHistory struct {
	Records []weather.Record
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: city as configured, value: history
	data map[string]*recordHistory

	maxHistory int // max number of records per city
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*recordHistory),
		maxHistory: maxHistory,
	}
}

// Save appends a record for a city and enforces retention.
func (s *MemoryStore) Save(city string, rec weather.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[city]
	if !ok {
		history = &recordHistory{}
		s.data[city] = history
	}

	history.Records = append(history.Records, rec)

	if s.maxHistory > 0 && len(history.Records) > s.maxHistory {
		over := len(history.Records) - s.maxHistory
		history.Records = append([]weather.Record(nil), history.Records[over:]...)
	}
	return nil
}

// Latest returns the most recent record for a city.
func (s *MemoryStore) Latest(city string) (weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city]
	if !ok || len(history.Records) == 0 {
		return weather.Record{}, ErrNotFound
	}
	return history.Records[len(history.Records)-1], nil
}

// History returns up to limit records for a city, newest first.
// A limit <= 0 returns everything retained.
func (s *MemoryStore) History(city string, limit int) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[city]
	if !ok || len(history.Records) == 0 {
		return nil, ErrNotFound
	}

	n := len(history.Records)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]weather.Record, 0, n)
	for i := len(history.Records) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, history.Records[i])
	}
	return result, nil
}

// Delete forgets every record of a city.
func (s *MemoryStore) Delete(city string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, city)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
