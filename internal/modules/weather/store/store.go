// Package store keeps the saved-city list and persists it to a single
// key-value slot as one JSON array.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"skyboard/internal/modules/weather/types"
)

const DefaultKey = "savedCities"

var ErrIndexOutOfRange = errors.New("saved city index out of range")

// KeyValue is the persistence slot. repository.KeyValueRepository satisfies it.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key string, value string) error
}

type SavedCities struct {
	mu     sync.RWMutex
	kv     KeyValue
	key    string
	cities []types.SavedCity
	logger *slog.Logger
}

// Load reads the list once. A missing value, a read failure or an
// unparseable value all yield an empty list; failures are only logged.
func Load(ctx context.Context, kv KeyValue, key string, logger *slog.Logger) *SavedCities {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &SavedCities{kv: kv, key: key, cities: []types.SavedCity{}, logger: logger}

	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		logger.Warn("saved cities unreadable, starting empty",
			"error", &types.StorageError{Op: "read", Key: key, Err: err})
		return s
	}
	if !found || raw == "" {
		return s
	}

	var cities []types.SavedCity
	if err := json.Unmarshal([]byte(raw), &cities); err != nil {
		logger.Warn("saved cities unparseable, starting empty",
			"error", &types.StorageError{Op: "decode", Key: key, Err: err})
		return s
	}
	if cities != nil {
		s.cities = cities
	}
	logger.Info("saved cities loaded", "key", key, "count", len(s.cities))
	return s
}

// List returns a copy in insertion order.
func (s *SavedCities) List() []types.SavedCity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cities)
}

func (s *SavedCities) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cities)
}

func (s *SavedCities) Contains(key types.CityKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(key) >= 0
}

func (s *SavedCities) indexOf(key types.CityKey) int {
	return slices.IndexFunc(s.cities, func(c types.SavedCity) bool { return c.Key() == key })
}

// Add appends the snapshot unless (name, country) is already saved.
func (s *SavedCities) Add(ctx context.Context, snapshot types.WeatherSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(snapshot.Key()) >= 0 {
		return &types.DuplicateCityError{Key: snapshot.Key()}
	}

	prev := s.cities
	s.cities = append(slices.Clone(prev), types.SavedCity(snapshot))
	if err := s.persist(ctx); err != nil {
		s.cities = prev
		return err
	}
	return nil
}

// Remove drops the city at index, keeping the others in order.
func (s *SavedCities) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cities) {
		return ErrIndexOutOfRange
	}

	prev := s.cities
	s.cities = slices.Delete(slices.Clone(prev), index, index+1)
	if err := s.persist(ctx); err != nil {
		s.cities = prev
		return err
	}
	return nil
}

// persist writes the whole list. Callers hold s.mu.
func (s *SavedCities) persist(ctx context.Context) error {
	data, err := json.Marshal(s.cities)
	if err != nil {
		return &types.StorageError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.kv.Put(ctx, s.key, string(data)); err != nil {
		return &types.StorageError{Op: "write", Key: s.key, Err: err}
	}
	s.logger.Debug("saved cities persisted", "key", s.key, "count", len(s.cities))
	return nil
}
