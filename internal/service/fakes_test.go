package service

import (
	"alcyxob/fitness-schedule/internal/domain"
	"alcyxob/fitness-schedule/internal/lock"
	"alcyxob/fitness-schedule/internal/repository"
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memSchedules is an in-memory ScheduleRepository that enforces the same
// identity uniqueness as the Mongo index.
type memSchedules struct {
	mu      sync.Mutex
	entries []domain.ScheduleEntry
}

func (m *memSchedules) FindInRange(_ context.Context, userID primitive.ObjectID, from, to domain.Date) ([]domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScheduleEntry
	for _, e := range m.entries {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSchedules) FindByIdentity(_ context.Context, key domain.IdentityKey) (*domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Key() == key {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSchedules) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSchedules) DeleteInRange(_ context.Context, userID primitive.ObjectID, from, to domain.Date) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

func (m *memSchedules) InsertMany(_ context.Context, entries []domain.ScheduleEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, e := range entries {
		if m.hasKeyLocked(e.Key()) {
			continue
		}
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		m.entries = append(m.entries, e)
		inserted++
	}
	return inserted, nil
}

func (m *memSchedules) Insert(_ context.Context, entry *domain.ScheduleEntry) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasKeyLocked(entry.Key()) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	e := *entry
	e.ID = primitive.NewObjectID()
	m.entries = append(m.entries, e)
	return e.ID, nil
}

func (m *memSchedules) UpdateStatus(_ context.Context, id, userID primitive.ObjectID, status domain.EntryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].UserID == userID {
			m.entries[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memSchedules) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memSchedules) hasKeyLocked(key domain.IdentityKey) bool {
	for i := range m.entries {
		if m.entries[i].Key() == key {
			return true
		}
	}
	return false
}

func (m *memSchedules) all() []domain.ScheduleEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ScheduleEntry(nil), m.entries...)
}

type directTx struct{}

func (directTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// busyLocker refuses every acquisition.
type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(context.Context) error, error) {
	return nil, lock.ErrNotAcquired
}
