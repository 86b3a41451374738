package repository

import (
	"errors"
	"fmt"
	"strings"
)

// UserKey is the storage key holding the user's display name
const UserKey = "@plantmanager:user"

// ErrEmptyName is returned when saving a blank user name
var ErrEmptyName = errors.New("user name is empty")

// UserStore persists the name the user introduced themselves with
type UserStore struct {
	storage KVStorage
}

// NewUserStore creates a user store on top of storage
func NewUserStore(storage KVStorage) *UserStore {
	return &UserStore{storage: storage}
}

// SaveName stores the trimmed user name
func (s *UserStore) SaveName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := s.storage.Set(UserKey, name); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Name returns the stored user name; ok is false before one was saved
func (s *UserStore) Name() (string, bool, error) {
	name, ok, err := s.storage.Get(UserKey)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return name, ok && name != "", nil
}
