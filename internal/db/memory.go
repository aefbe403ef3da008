package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draganm/primes/internal/metrics"
	"github.com/draganm/primes/internal/models"
)

// MemoryStore keeps runs in process memory. Used when no database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.Run
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory run store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[uuid.UUID]models.Run),
		now:  time.Now,
	}
}

func (s *MemoryStore) Name() string {
	return "memory"
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) CreateRun(ctx context.Context, run *models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = uuid.New()
	run.CreatedAt = s.now().UTC()
	if run.Primes == nil {
		run.Primes = []int64{}
	}

	stored := *run
	stored.Primes = append([]int64(nil), run.Primes...)
	s.runs[run.ID] = stored
	metrics.ObserveQuery("create_run", 0, nil)
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return &run, nil
}

func (s *MemoryStore) ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error) {
	s.mu.RLock()
	runs := make([]models.Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID.String() < runs[j].ID.String()
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if offset >= len(runs) {
		return []models.Run{}, nil
	}
	runs = runs[offset:]
	if limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) DeleteRunsOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-age)
	var deleted int64
	for id, run := range s.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			deleted++
		}
	}
	return deleted, nil
}
