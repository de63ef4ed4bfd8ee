// Package session owns the login identity and history list of one profile and writes every
// change through to storage before applying it in memory.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/storage"
	"github.com/google/uuid"
)

// Storage keys, namespaced per profile
const (
	UserKey    = "gyanguru_user"
	HistoryKey = "gyanguru_history"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrHistoryNotFound = errors.New("history item not found")
)

// State is the session of one profile
type State struct {
	mu        *sync.Mutex
	store     storage.Store
	profileID string
	user      *models.User
	history   []models.HistoryItem

	now   func() time.Time
	newID func() string
}

// Filter narrows a history listing. Empty fields match everything.
type Filter struct {
	Query string
	Type  models.ModalityType
}

func storageKey(profileID, key string) string {
	return profileID + "/" + key
}

// Load reads the profile's user and history. A missing user means logged out and missing
// history means an empty list.
func Load(ctx context.Context, store storage.Store, profileID string) (*State, error) {
	s := &State{
		mu:        &sync.Mutex{},
		store:     store,
		profileID: profileID,
		history:   []models.HistoryItem{},
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}

	userData, err := store.Get(ctx, storageKey(profileID, UserKey))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load user: %w", err)
	default:
		var user models.User
		if err := json.Unmarshal(userData, &user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		s.user = &user
	}

	history, err := s.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	s.history = history

	return s, nil
}

// ProfileID returns the profile this state belongs to
func (s *State) ProfileID() string {
	return s.profileID
}

// CurrentUser returns the logged-in user, if any
func (s *State) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Login replaces the current user
func (s *State) Login(ctx context.Context, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, ErrNameRequired
	}
	user := models.NewUser(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.put(ctx, UserKey, user); err != nil {
		return models.User{}, err
	}
	s.user = &user
	return user, nil
}

// Logout forgets the user. History is kept.
func (s *State) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storageKey(s.profileID, UserKey)); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	s.user = nil
	return nil
}

// History returns the items matching filter, newest first
func (s *State) History(filter Filter) []models.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	items := make([]models.HistoryItem, 0, len(s.history))
	for _, item := range s.history {
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Topic), query) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// AddHistoryItem records a generation at the front of the list
func (s *State) AddHistoryItem(
	ctx context.Context, modality models.ModalityType, topic string, payload any,
) (models.HistoryItem, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.HistoryItem{}, fmt.Errorf("failed to encode history payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadHistory(ctx)
	if err != nil {
		return models.HistoryItem{}, err
	}

	item := models.HistoryItem{
		ID:        s.newID(),
		Type:      modality,
		Topic:     topic,
		Timestamp: s.now().UnixMilli(),
		Data:      data,
	}

	updated := make([]models.HistoryItem, 0, len(current)+1)
	updated = append(updated, item)
	updated = append(updated, current...)

	if err := s.put(ctx, HistoryKey, updated); err != nil {
		return models.HistoryItem{}, err
	}
	s.history = updated
	return item, nil
}

// DeleteHistoryItem removes one item by id
func (s *State) DeleteHistoryItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadHistory(ctx)
	if err != nil {
		return err
	}

	updated := make([]models.HistoryItem, 0, len(current))
	for _, item := range current {
		if item.ID != id {
			updated = append(updated, item)
		}
	}
	if len(updated) == len(current) {
		s.history = current
		return ErrHistoryNotFound
	}

	if err := s.put(ctx, HistoryKey, updated); err != nil {
		return err
	}
	s.history = updated
	return nil
}

// loadHistory reads the stored history list. Another State of the same profile may have
// written since this one was loaded, so mutations start from the stored list.
func (s *State) loadHistory(ctx context.Context) ([]models.HistoryItem, error) {
	history := []models.HistoryItem{}
	data, err := s.store.Get(ctx, storageKey(s.profileID, HistoryKey))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return history, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if history == nil {
		history = []models.HistoryItem{}
	}
	return history, nil
}

// put overwrites one key with the JSON encoding of value; callers hold mu
func (s *State) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.store.Set(ctx, storageKey(s.profileID, key), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
