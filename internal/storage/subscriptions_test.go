package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tubedigest-backend/internal/models"
)

func newTestStore(t *testing.T) *SubscriptionStore {
	t.Helper()
	store, err := NewSubscriptionStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func createReq(email, channel string) models.CreateSubscriptionRequest {
	return models.CreateSubscriptionRequest{
		ChannelURL:  channel,
		ChannelName: "Channel",
		UserEmail:   email,
	}
}

func TestCreateAndList(t *testing.T) {
	store := newTestStore(t)

	sub, err := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sub.ID == "" {
		t.Error("Expected a generated ID")
	}
	if !sub.Active {
		t.Error("New subscriptions must be active")
	}
	if sub.LastChecked != nil {
		t.Error("New subscriptions must have no cursor")
	}

	subs, err := store.List()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != sub.ID {
		t.Errorf("Expected the created subscription back, got %+v", subs)
	}
}

func TestCreate_DuplicateActive(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err := store.Create(createReq("Alice@Example.com", "https://www.youtube.com/@a"))
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateError, got %v", err)
	}

	// A different channel for the same email is fine
	if _, err := store.Create(createReq("alice@example.com", "https://www.youtube.com/@b")); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestCreate_ReactivatesDeactivated(t *testing.T) {
	store := newTestStore(t)

	sub, _ := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	if _, err := store.DeactivateByEmailAndChannel("alice@example.com", "https://www.youtube.com/@a"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	revived, err := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if revived.ID != sub.ID {
		t.Errorf("Expected the original record revived, got new ID %s", revived.ID)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	store := newTestStore(t)

	sub, _ := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))

	if err := store.Delete(sub.ID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := store.Delete(sub.ID); err != nil {
		t.Fatalf("Second delete must be a no-op, got: %v", err)
	}
	if err := store.Delete("never-existed"); err != nil {
		t.Fatalf("Deleting unknown ID must be a no-op, got: %v", err)
	}

	subs, _ := store.List()
	if len(subs) != 0 {
		t.Errorf("Expected empty store, got %d subscriptions", len(subs))
	}
}

func TestListByEmailAndUniqueEmails(t *testing.T) {
	store := newTestStore(t)

	store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	store.Create(createReq("alice@example.com", "https://www.youtube.com/@b"))
	store.Create(createReq("bob@example.com", "https://www.youtube.com/@a"))

	aliceSubs, err := store.ListByEmail("ALICE@example.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(aliceSubs) != 2 {
		t.Errorf("Expected 2 subscriptions for alice, got %d", len(aliceSubs))
	}

	emails, err := store.UniqueEmails()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(emails) != 2 {
		t.Errorf("Expected 2 unique emails, got %v", emails)
	}
}

func TestUpdateLastChecked(t *testing.T) {
	store := newTestStore(t)

	a, _ := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	b, _ := store.Create(createReq("alice@example.com", "https://www.youtube.com/@b"))

	checkedAt := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	if err := store.UpdateLastChecked([]string{a.ID}, checkedAt); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	subs, _ := store.List()
	for _, sub := range subs {
		switch sub.ID {
		case a.ID:
			if sub.LastChecked == nil || !sub.LastChecked.Equal(checkedAt) {
				t.Errorf("Expected cursor %v, got %v", checkedAt, sub.LastChecked)
			}
		case b.ID:
			if sub.LastChecked != nil {
				t.Errorf("Unchecked subscription must keep a nil cursor, got %v", sub.LastChecked)
			}
		}
	}
}

func TestCorruptedFileRefusesWrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSubscriptionStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	path := filepath.Join(dir, subscriptionsFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to corrupt file: %v", err)
	}

	_, err = store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	var corrupt *CorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected CorruptionError, got %v", err)
	}

	// The damaged file must be left untouched for inspection
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("Corrupted snapshot was overwritten")
	}
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewSubscriptionStore(dir)
	sub, _ := store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))

	reopened, err := NewSubscriptionStore(dir)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	subs, err := reopened.List()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != sub.ID {
		t.Errorf("Expected persisted subscription, got %+v", subs)
	}
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewSubscriptionStore(dir)
	store.Create(createReq("alice@example.com", "https://www.youtube.com/@a"))
	store.Create(createReq("bob@example.com", "https://www.youtube.com/@a"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != subscriptionsFile {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only %s, got %v", subscriptionsFile, names)
	}
}
