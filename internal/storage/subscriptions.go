package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tubedigest-backend/internal/models"
)

const subscriptionsFile = "subscriptions.json"

// SubscriptionStore persists subscriptions as a single JSON snapshot. Every
// mutation reloads the file, verifies it parses, applies the change in memory
// and publishes the new snapshot atomically via a temp-file rename. The mutex
// serializes writers; a crashed write leaves the previous snapshot intact.
type SubscriptionStore struct {
	path string
	mu   sync.RWMutex
}

func NewSubscriptionStore(dataDir string) (*SubscriptionStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}
	return &SubscriptionStore{path: filepath.Join(dataDir, subscriptionsFile)}, nil
}

// Create adds a new active subscription. An active subscription with the same
// (user_email, channel_url) pair yields a DuplicateError; a previously
// deactivated pair is reactivated in place.
func (s *SubscriptionStore) Create(req models.CreateSubscriptionRequest) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load()
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.UserEmail)
	for i, sub := range subs {
		if normalizeEmail(sub.UserEmail) == email && sub.ChannelURL == req.ChannelURL {
			if sub.Active {
				return nil, &DuplicateError{Email: req.UserEmail, ChannelURL: req.ChannelURL}
			}
			subs[i].Active = true
			subs[i].ChannelName = req.ChannelName
			if err := s.save(subs); err != nil {
				return nil, err
			}
			return &subs[i], nil
		}
	}

	sub := models.Subscription{
		ID:          uuid.NewString(),
		ChannelURL:  req.ChannelURL,
		ChannelName: req.ChannelName,
		UserEmail:   req.UserEmail,
		CreatedAt:   time.Now().UTC(),
		LastChecked: nil,
		Active:      true,
	}
	subs = append(subs, sub)

	if err := s.save(subs); err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns all active subscriptions, ordered by creation time.
func (s *SubscriptionStore) List() ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs, err := s.load()
	if err != nil {
		return nil, err
	}

	active := subs[:0:0]
	for _, sub := range subs {
		if sub.Active {
			active = append(active, sub)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.Before(active[j].CreatedAt) })
	return active, nil
}

// ListByEmail returns the active subscriptions belonging to one subscriber.
func (s *SubscriptionStore) ListByEmail(email string) ([]models.Subscription, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	var matched []models.Subscription
	for _, sub := range all {
		if normalizeEmail(sub.UserEmail) == email {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// UniqueEmails returns the distinct subscriber emails with at least one active
// subscription, sorted.
func (s *SubscriptionStore) UniqueEmails() ([]string, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string)
	for _, sub := range all {
		key := normalizeEmail(sub.UserEmail)
		if _, ok := seen[key]; !ok {
			seen[key] = sub.UserEmail
		}
	}

	emails := make([]string, 0, len(seen))
	for _, email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails, nil
}

// Delete removes a subscription by ID. Deleting an unknown ID is a no-op.
func (s *SubscriptionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load()
	if err != nil {
		return err
	}

	kept := subs[:0:0]
	removed := false
	for _, sub := range subs {
		if sub.ID == id {
			removed = true
			continue
		}
		kept = append(kept, sub)
	}

	if !removed {
		return nil
	}
	return s.save(kept)
}

// DeactivateByEmailAndChannel marks the matching subscription inactive,
// preserving its record and cursor. Returns whether a match was found.
func (s *SubscriptionStore) DeactivateByEmailAndChannel(email, channelURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load()
	if err != nil {
		return false, err
	}

	email = normalizeEmail(email)
	found := false
	for i, sub := range subs {
		if sub.Active && normalizeEmail(sub.UserEmail) == email && sub.ChannelURL == channelURL {
			subs[i].Active = false
			found = true
		}
	}

	if !found {
		return false, nil
	}
	return true, s.save(subs)
}

// UpdateLastChecked advances the cursors of the given subscriptions to
// checkedAt. The scheduler calls this only after confirmed delivery.
func (s *SubscriptionStore) UpdateLastChecked(ids []string, checkedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load()
	if err != nil {
		return err
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	checkedAt = checkedAt.UTC()
	for i := range subs {
		if idSet[subs[i].ID] {
			t := checkedAt
			subs[i].LastChecked = &t
		}
	}

	return s.save(subs)
}

// load reads the current snapshot. A missing file is an empty store; an
// unparseable file is a CorruptionError and blocks all writes.
func (s *SubscriptionStore) load() ([]models.Subscription, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var subs []models.Subscription
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, &CorruptionError{Path: s.path, Err: err}
	}
	return subs, nil
}

// save publishes a new snapshot atomically: write a sibling temp file, then
// rename it over the live one.
func (s *SubscriptionStore) save(subs []models.Subscription) error {
	if subs == nil {
		subs = []models.Subscription{}
	}

	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), subscriptionsFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
