package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelzeko/plant-manager/internal/entities"
	"github.com/abelzeko/plant-manager/internal/schedule"
)

var t0 = time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func weekly(id, name string) entities.Plant {
	return entities.Plant{
		ID:           id,
		Name:         name,
		About:        "Grows in half shade",
		WaterTips:    "Keep the soil moist",
		Photo:        "https://storage.example.com/" + id + ".svg",
		Environments: []string{"living_room", "kitchen"},
		Frequency:    entities.Frequency{Times: 1, RepeatEvery: "week"},
	}
}

func daily(id, name string) entities.Plant {
	p := weekly(id, name)
	p.Frequency = entities.Frequency{Times: 1, RepeatEvery: "day"}
	return p
}

// brokenStorage fails every call
type brokenStorage struct{}

func (brokenStorage) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenStorage) Set(string, string) error         { return errors.New("disk gone") }
func (brokenStorage) Remove(string) error              { return errors.New("disk gone") }
func (brokenStorage) Close() error                     { return nil }

// TestListEmptyStore checks that a fresh store lists nothing without failing
func TestListEmptyStore(t *testing.T) {
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(fixedClock(t0)))

	plants, err := store.List()
	if err != nil {
		t.Fatalf("List on empty store failed: %v", err)
	}
	if plants == nil || len(plants) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", plants)
	}
}

// TestSaveOrdersBySoonestWatering saves a weekly and a daily plant and expects the daily one first
func TestSaveOrdersBySoonestWatering(t *testing.T) {
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(fixedClock(t0)))

	a, err := store.Save(weekly("p1", "Aningapara"))
	if err != nil {
		t.Fatalf("Failed to save p1: %v", err)
	}
	if want := t0.AddDate(0, 0, 7); !a.DateTimeNotification.Equal(want) {
		t.Errorf("Expected p1 due at %v, got %v", want, a.DateTimeNotification)
	}

	b, err := store.Save(daily("p2", "Zamioculca"))
	if err != nil {
		t.Fatalf("Failed to save p2: %v", err)
	}
	if want := t0.AddDate(0, 0, 1); !b.DateTimeNotification.Equal(want) {
		t.Errorf("Expected p2 due at %v, got %v", want, b.DateTimeNotification)
	}

	plants, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("Expected 2 plants, got %d", len(plants))
	}
	if plants[0].ID != "p2" || plants[1].ID != "p1" {
		t.Errorf("Expected order [p2 p1], got [%s %s]", plants[0].ID, plants[1].ID)
	}
}

// TestListOrderingManyPlants checks ordering and completeness for a larger set of distinct ids
func TestListOrderingManyPlants(t *testing.T) {
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(fixedClock(t0)))

	offsets := map[string]int{"e": 5, "a": 3, "d": 9, "c": 1, "b": 3}
	for id, days := range offsets {
		p := weekly(id, "Plant "+id)
		p.DateTimeNotification = t0.AddDate(0, 0, days)
		if _, err := store.Save(p); err != nil {
			t.Fatalf("Failed to save %s: %v", id, err)
		}
	}

	plants, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"c", "a", "b", "e", "d"}
	if len(plants) != len(want) {
		t.Fatalf("Expected %d plants, got %d", len(want), len(plants))
	}
	for i, id := range want {
		if plants[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, plants[i].ID)
		}
		if i > 0 && plants[i].DateTimeNotification.Before(plants[i-1].DateTimeNotification) {
			t.Errorf("Plants out of order at position %d", i)
		}
	}
}

// TestSaveDuplicateID checks that a repeated id is rejected and nothing changes
func TestSaveDuplicateID(t *testing.T) {
	storage := NewMemoryKVStorage()
	store := NewPlantStore(storage, WithClock(fixedClock(t0)))

	if _, err := store.Save(weekly("p1", "Aningapara")); err != nil {
		t.Fatalf("Failed to save p1: %v", err)
	}
	before, _, _ := storage.Get(PlantsKey)

	again := daily("p1", "Impostor")
	if _, err := store.Save(again); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Expected ErrDuplicateID, got %v", err)
	}

	after, _, _ := storage.Get(PlantsKey)
	if before != after {
		t.Error("Store changed after a rejected duplicate save")
	}
	p, err := store.Get("p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "Aningapara" {
		t.Errorf("Expected original plant to survive, got %s", p.Name)
	}
}

// TestRemove checks removal and the not-found policy
func TestRemove(t *testing.T) {
	storage := NewMemoryKVStorage()
	store := NewPlantStore(storage, WithClock(fixedClock(t0)))

	if _, err := store.Save(weekly("p1", "Aningapara")); err != nil {
		t.Fatalf("Failed to save p1: %v", err)
	}
	if err := store.Remove("p1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	plants, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(plants) != 0 {
		t.Errorf("Expected empty list after removing the only plant, got %d", len(plants))
	}

	before, _, _ := storage.Get(PlantsKey)
	if err := store.Remove("p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound removing p1 twice, got %v", err)
	}
	after, _, _ := storage.Get(PlantsKey)
	if before != after {
		t.Error("Store changed after removing an absent id")
	}
}

// TestSaveAssignsIDAndRejectsInvalidRecords covers id assignment and validation
func TestSaveAssignsIDAndRejectsInvalidRecords(t *testing.T) {
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(fixedClock(t0)))

	saved, err := store.Save(weekly("", "Peperomia"))
	if err != nil {
		t.Fatalf("Save without id failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected an id to be assigned")
	}

	noName := weekly("p9", "")
	if _, err := store.Save(noName); !errors.Is(err, ErrInvalidPlant) {
		t.Errorf("Expected ErrInvalidPlant for missing name, got %v", err)
	}

	badFreq := weekly("p10", "Imbe")
	badFreq.Frequency.Times = 0
	if _, err := store.Save(badFreq); !errors.Is(err, schedule.ErrInvalidFrequency) {
		t.Errorf("Expected ErrInvalidFrequency, got %v", err)
	}

	past := weekly("p11", "Yucca")
	past.DateTimeNotification = t0.Add(-time.Minute)
	if _, err := store.Save(past); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for a past reminder, got %v", err)
	}
}

// TestListReturnsCopies checks that callers cannot modify stored plants through results
func TestListReturnsCopies(t *testing.T) {
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(fixedClock(t0)))

	input := weekly("p1", "Aningapara")
	if _, err := store.Save(input); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	input.Environments[0] = "mutated"

	plants, _ := store.List()
	plants[0].Environments[1] = "mutated"
	plants[0].Name = "mutated"

	again, err := store.Get("p1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if again.Name != "Aningapara" || again.Environments[0] != "living_room" || again.Environments[1] != "kitchen" {
		t.Errorf("Stored plant was modified through a caller copy: %+v", again)
	}
}

// TestReschedule covers the external scheduler hook
func TestReschedule(t *testing.T) {
	now := t0
	store := NewPlantStore(NewMemoryKVStorage(), WithClock(func() time.Time { return now }))

	if _, err := store.Save(weekly("p1", "Aningapara")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save(daily("p2", "Zamioculca")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	now = t0.Add(2 * time.Hour)
	if err := store.Reschedule("p2", t0.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	plants, _ := store.List()
	if plants[0].ID != "p1" {
		t.Errorf("Expected p1 first after pushing p2 back, got %s", plants[0].ID)
	}

	if err := store.Reschedule("p1", t0); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("Expected ErrInvalidSchedule for a past instant, got %v", err)
	}
	if err := store.Reschedule("missing", t0.AddDate(0, 0, 1)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

// TestCorruptBlob checks that unparseable data is reported and can be reset
func TestCorruptBlob(t *testing.T) {
	storage := NewMemoryKVStorage()
	storage.Set(PlantsKey, "{not json")
	store := NewPlantStore(storage, WithClock(fixedClock(t0)))

	if _, err := store.List(); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Expected ErrCorrupt from List, got %v", err)
	}
	if _, err := store.Save(weekly("p1", "Aningapara")); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt from Save, got %v", err)
	}
	if err := store.Remove("p1"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt from Remove, got %v", err)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	plants, err := store.List()
	if err != nil {
		t.Fatalf("List after reset failed: %v", err)
	}
	if len(plants) != 0 {
		t.Errorf("Expected empty store after reset, got %d", len(plants))
	}
}

// TestMismatchedRecordIsCorrupt checks that a record filed under the wrong id is rejected
func TestMismatchedRecordIsCorrupt(t *testing.T) {
	storage := NewMemoryKVStorage()
	storage.Set(PlantsKey, `{"p1":{"id":"p2","name":"Aningapara"}}`)
	store := NewPlantStore(storage)

	if _, err := store.List(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}
}

// TestStorageUnavailable checks that backend failures surface as ErrStorageUnavailable
func TestStorageUnavailable(t *testing.T) {
	store := NewPlantStore(brokenStorage{}, WithClock(fixedClock(t0)))

	if _, err := store.List(); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable from List, got %v", err)
	}
	if _, err := store.Save(weekly("p1", "Aningapara")); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable from Save, got %v", err)
	}
	if err := store.Reset(); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Expected ErrStorageUnavailable from Reset, got %v", err)
	}
}

// TestPlantStoreSurvivesRestart saves through SQLite, reopens the database and lists again
func TestPlantStoreSurvivesRestart(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "plant-manager-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test-plants.db")

	storage, err := NewSQLiteKVStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize storage: %v", err)
	}
	store := NewPlantStore(storage, WithClock(fixedClock(t0)))
	if _, err := store.Save(weekly("p1", "Aningapara")); err != nil {
		t.Fatalf("Save p1 failed: %v", err)
	}
	if _, err := store.Save(daily("p2", "Zamioculca")); err != nil {
		t.Fatalf("Save p2 failed: %v", err)
	}
	storage.Close()

	reopened, err := NewSQLiteKVStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer reopened.Close()

	plants, err := NewPlantStore(reopened, WithClock(fixedClock(t0))).List()
	if err != nil {
		t.Fatalf("List after restart failed: %v", err)
	}
	if len(plants) != 2 {
		t.Fatalf("Expected 2 plants after restart, got %d", len(plants))
	}
	if plants[0].ID != "p2" || plants[1].ID != "p1" {
		t.Errorf("Expected order [p2 p1], got [%s %s]", plants[0].ID, plants[1].ID)
	}
	if !plants[1].DateTimeNotification.Equal(t0.AddDate(0, 0, 7)) {
		t.Errorf("Unexpected p1 reminder after restart: %v", plants[1].DateTimeNotification)
	}
	if plants[1].Frequency.RepeatEvery != "week" || len(plants[1].Environments) != 2 {
		t.Errorf("Plant fields lost in storage: %+v", plants[1])
	}
}
