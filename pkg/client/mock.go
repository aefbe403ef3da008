package client

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draganm/primes/internal/models"
	"github.com/draganm/primes/internal/numio"
	"github.com/draganm/primes/internal/primes"
	"github.com/draganm/primes/internal/utils"
)

// MockClient is a mock implementation of the Client interface for testing
type MockClient struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*models.Run

	// Configurable behavior
	CreateRunFunc func(ctx context.Context, count int) (*models.Run, error)
	GetRunFunc    func(ctx context.Context, runID uuid.UUID) (*models.Run, error)
	ListRunsFunc  func(ctx context.Context, filter *ListRunsFilter) (*models.RunList, error)
	PrimesFunc    func(ctx context.Context, count int) ([]int, error)
	DivideFunc    func(ctx context.Context, x, y int) (int, error)
	HealthFunc    func(ctx context.Context) (*HealthResponse, error)
}

// NewMockClient creates a new mock client
func NewMockClient() *MockClient {
	return &MockClient{
		runs: make(map[uuid.UUID]*models.Run),
	}
}

// CreateRun enumerates locally and records the run in memory
func (m *MockClient) CreateRun(ctx context.Context, count int) (*models.Run, error) {
	if m.CreateRunFunc != nil {
		return m.CreateRunFunc(ctx, count)
	}

	found, err := primes.First(ctx, count)
	if err != nil {
		return nil, err
	}

	run := &models.Run{
		ID:        uuid.New(),
		Count:     count,
		Primes:    make([]int64, len(found)),
		CreatedAt: time.Now(),
	}
	for i, p := range found {
		run.Primes[i] = int64(p)
	}
	if len(found) > 0 {
		last := run.Primes[len(run.Primes)-1]
		run.LastPrime = &last
	}
	run.OutputSHA256 = utils.OutputSHA256(run.Primes)

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	return run, nil
}

// GetRun retrieves a run by ID
func (m *MockClient) GetRun(ctx context.Context, runID uuid.UUID) (*models.Run, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, runID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	run, exists := m.runs[runID]
	if !exists {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListRuns lists recorded runs, newest first
func (m *MockClient) ListRuns(ctx context.Context, filter *ListRunsFilter) (*models.RunList, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, filter)
	}

	m.mu.RLock()
	runs := make([]models.Run, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	list := &models.RunList{Runs: runs}
	if filter != nil {
		if filter.Offset > 0 {
			list.Offset = filter.Offset
			if filter.Offset >= len(list.Runs) {
				list.Runs = []models.Run{}
			} else {
				list.Runs = list.Runs[filter.Offset:]
			}
		}
		if filter.Limit > 0 {
			list.Limit = filter.Limit
			if filter.Limit < len(list.Runs) {
				list.Runs = list.Runs[:filter.Limit]
			}
		}
	}

	return list, nil
}

// Primes enumerates locally
func (m *MockClient) Primes(ctx context.Context, count int) ([]int, error) {
	if m.PrimesFunc != nil {
		return m.PrimesFunc(ctx, count)
	}

	found, err := primes.First(ctx, count)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []int{}
	}
	return found, nil
}

// Divide divides locally
func (m *MockClient) Divide(ctx context.Context, x, y int) (int, error) {
	if m.DivideFunc != nil {
		return m.DivideFunc(ctx, x, y)
	}

	q, err := numio.SafeDivide(x, y)
	if err != nil {
		return 0, &APIError{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	return q, nil
}

// Health always reports a healthy server
func (m *MockClient) Health(ctx context.Context) (*HealthResponse, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}

	return &HealthResponse{
		Status:   "healthy",
		Database: "connected",
		Store:    "mock",
	}, nil
}
