package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"thingapi/internal/information/models"
	"thingapi/pkg/platform/sentinel"
)

// InMemoryStore keeps records in a map guarded by a RWMutex. Records are
// returned in insertion order.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryEntry
	seq     uint64
}

type memoryEntry struct {
	seq    uint64
	record *models.Information
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]memoryEntry)}
}

func (s *InMemoryStore) Insert(_ context.Context, info *models.Information) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	info.ID = uuid.NewString()
	s.seq++
	s.records[info.ID] = memoryEntry{seq: s.seq, record: info.Clone()}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Information, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.records[id]; ok {
		return entry.record.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByGroup(_ context.Context, group string) ([]*models.Information, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(info *models.Information) bool { return info.Group == group }), nil
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]*models.Information, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*models.Information) bool { return true }), nil
}

func (s *InMemoryStore) UpdateLocation(_ context.Context, id string, update models.LocationUpdate) (*models.Information, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	entry.record.ApplyLocation(update)
	return entry.record.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) (*models.Information, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.records, id)
	return entry.record, nil
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

// collect must be called with the lock held.
func (s *InMemoryStore) collect(match func(*models.Information) bool) []*models.Information {
	entries := make([]memoryEntry, 0, len(s.records))
	for _, entry := range s.records {
		if match(entry.record) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*models.Information, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.record.Clone())
	}
	return out
}
