package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"podcast-notes-go/internal/types"
)

// MemoryStore keeps records in process memory. It also remembers every status
// written per id, which the tests use to check transition order.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]types.PodcastRecord
	history map[string][]types.ProcessingStatus
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]types.PodcastRecord),
		history: make(map[string][]types.ProcessingStatus),
		now:     time.Now,
	}
}

// Insert stores rec as uploaded, assigning an id when it has none.
func (s *MemoryStore) Insert(_ context.Context, rec types.PodcastRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ProcessingStatus == "" {
		rec.ProcessingStatus = types.StatusPending
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.records[rec.ID] = rec
	s.history[rec.ID] = []types.ProcessingStatus{rec.ProcessingStatus}
	return rec.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, u types.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	apply(&rec, u)
	rec.UpdatedAt = s.now().UTC()
	s.records[id] = rec
	s.history[id] = append(s.history[id], u.Status)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*types.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.PodcastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PodcastRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sortNewestFirst(out)
	return out, nil
}

// History returns the statuses written for id, starting with the inserted one.
func (s *MemoryStore) History(id string) []types.ProcessingStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ProcessingStatus(nil), s.history[id]...)
}

func (s *MemoryStore) Close() error { return nil }

func sortNewestFirst(recs []types.PodcastRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}
