package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abelzeko/plant-manager/internal/entities"
	"github.com/abelzeko/plant-manager/internal/schedule"
)

// PlantsKey is the storage key holding the whole plant collection
const PlantsKey = "@plantmanager:plants"

var (
	ErrDuplicateID        = errors.New("plant id already stored")
	ErrNotFound           = errors.New("plant not found")
	ErrInvalidPlant       = errors.New("invalid plant")
	ErrInvalidSchedule    = errors.New("notification time is in the past")
	ErrStorageUnavailable = errors.New("plant storage unavailable")
	ErrCorrupt            = errors.New("stored plant data is corrupt")
)

// PlantStore is the durable collection of the user's plants.
//
// The collection is kept as one JSON object (id -> plant) under PlantsKey. Every
// mutation reads the blob, changes it and writes it back, so PlantStore must not be
// used for concurrent Save/Remove/Reschedule calls on the same storage without
// external serialisation: the storage has no compare-and-swap.
type PlantStore struct {
	storage  KVStorage
	key      string
	now      func() time.Time
	validate *validator.Validate
}

// PlantStoreOption customises a PlantStore
type PlantStoreOption func(*PlantStore)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) PlantStoreOption {
	return func(s *PlantStore) { s.now = now }
}

// WithKey stores the collection under a different key
func WithKey(key string) PlantStoreOption {
	return func(s *PlantStore) { s.key = key }
}

// NewPlantStore creates a plant store on top of storage
func NewPlantStore(storage KVStorage, opts ...PlantStoreOption) *PlantStore {
	s := &PlantStore{
		storage:  storage,
		key:      PlantsKey,
		now:      time.Now,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save inserts a new plant and returns the stored copy.
// An empty id is replaced by a random UUID and a zero DateTimeNotification is
// computed from the plant's frequency. Existing ids are rejected with ErrDuplicateID.
func (s *PlantStore) Save(plant entities.Plant) (entities.Plant, error) {
	if err := s.validate.Struct(plant); err != nil {
		return entities.Plant{}, fmt.Errorf("%w: %v", ErrInvalidPlant, err)
	}
	if err := schedule.Validate(plant.Frequency); err != nil {
		return entities.Plant{}, err
	}

	now := s.now()
	stored := plant.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.DateTimeNotification.IsZero() {
		next, err := schedule.NextNotification(stored.Frequency, now)
		if err != nil {
			return entities.Plant{}, err
		}
		stored.DateTimeNotification = next
	} else if stored.DateTimeNotification.Before(now) {
		return entities.Plant{}, fmt.Errorf("%w: %s", ErrInvalidSchedule, stored.DateTimeNotification.Format(time.RFC3339))
	}

	plants, err := s.load()
	if err != nil {
		return entities.Plant{}, err
	}
	if _, exists := plants[stored.ID]; exists {
		return entities.Plant{}, fmt.Errorf("%w: %s", ErrDuplicateID, stored.ID)
	}

	plants[stored.ID] = stored
	if err := s.persist(plants); err != nil {
		return entities.Plant{}, err
	}

	zap.S().Infof("Saved plant %s (%s), next watering at %s",
		stored.ID, stored.Name, stored.DateTimeNotification.Format(time.RFC3339))
	return stored.Clone(), nil
}

// List returns every stored plant, soonest watering first.
// An empty store yields an empty slice, never an error.
func (s *PlantStore) List() ([]entities.Plant, error) {
	plants, err := s.load()
	if err != nil {
		return nil, err
	}

	result := make([]entities.Plant, 0, len(plants))
	for _, p := range plants {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].DateTimeNotification, result[j].DateTimeNotification
		if !a.Equal(b) {
			return a.Before(b)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Get returns a single plant by id
func (s *PlantStore) Get(id string) (entities.Plant, error) {
	plants, err := s.load()
	if err != nil {
		return entities.Plant{}, err
	}
	p, ok := plants[id]
	if !ok {
		return entities.Plant{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.Clone(), nil
}

// Remove deletes the plant with the given id. Absent ids yield ErrNotFound.
func (s *PlantStore) Remove(id string) error {
	plants, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := plants[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(plants, id)
	if err := s.persist(plants); err != nil {
		return err
	}
	zap.S().Infof("Removed plant %s", id)
	return nil
}

// Reschedule overwrites the next watering instant of a stored plant.
// The new instant may not lie in the past.
func (s *PlantStore) Reschedule(id string, at time.Time) error {
	if at.IsZero() || at.Before(s.now()) {
		return fmt.Errorf("%w: %s", ErrInvalidSchedule, at.Format(time.RFC3339))
	}

	plants, err := s.load()
	if err != nil {
		return err
	}
	p, ok := plants[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p.DateTimeNotification = at
	plants[id] = p
	if err := s.persist(plants); err != nil {
		return err
	}
	zap.S().Infof("Rescheduled plant %s to %s", id, at.Format(time.RFC3339))
	return nil
}

// Reset drops the whole collection. It is the way out of ErrCorrupt.
func (s *PlantStore) Reset() error {
	if err := s.storage.Remove(s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	zap.S().Warnf("Plant collection under %s was reset", s.key)
	return nil
}

func (s *PlantStore) load() (map[string]entities.Plant, error) {
	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	plants := make(map[string]entities.Plant)
	if !ok || raw == "" {
		return plants, nil
	}

	if err := json.Unmarshal([]byte(raw), &plants); err != nil {
		zap.S().Errorf("Failed to parse stored plants: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if plants == nil {
		plants = make(map[string]entities.Plant)
	}
	for id, p := range plants {
		if p.ID != id {
			return nil, fmt.Errorf("%w: record under %q has id %q", ErrCorrupt, id, p.ID)
		}
	}
	return plants, nil
}

func (s *PlantStore) persist(plants map[string]entities.Plant) error {
	data, err := json.Marshal(plants)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.storage.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
