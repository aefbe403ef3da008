package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sqlc-dev/pqtype"

	"github.com/draganm/primes/internal/metrics"
	"github.com/draganm/primes/internal/models"
)

// ErrRunNotFound indicates that no run exists with the requested ID
var ErrRunNotFound = errors.New("run not found")

// PostgresStore keeps runs in Postgres
type PostgresStore struct {
	conn *Connection
}

// NewPostgresStore creates a run store backed by conn
func NewPostgresStore(conn *Connection) *PostgresStore {
	return &PostgresStore{conn: conn}
}

// Name identifies the store in logs and metrics
func (s *PostgresStore) Name() string {
	return "postgres"
}

// Ping checks that the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.conn.Health(ctx)
}

// CreateRun inserts run and fills in the generated ID and creation time
func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	params := CreateRunParams{
		Count:        int32(run.Count),
		Primes:       run.Primes,
		OutputSha256: run.OutputSHA256,
		ClientAddr:   toInet(run.ClientAddr),
		DurationMs:   run.DurationMs,
	}
	if params.Primes == nil {
		params.Primes = []int64{}
	}
	if run.LastPrime != nil {
		params.LastPrime = pgtype.Int8{Int64: *run.LastPrime, Valid: true}
	}

	start := time.Now()
	row, err := s.conn.Queries.CreateRun(ctx, params)
	metrics.ObserveQuery("create_run", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	*run = rowToModel(row)
	return nil
}

// GetRun returns the run with the given ID
func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	start := time.Now()
	row, err := s.conn.Queries.GetRun(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery("get_run", time.Since(start).Seconds(), nil)
		return nil, ErrRunNotFound
	}
	metrics.ObserveQuery("get_run", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := rowToModel(row)
	return &run, nil
}

// ListRuns returns runs, newest first
func (s *PostgresStore) ListRuns(ctx context.Context, limit, offset int) ([]models.Run, error) {
	start := time.Now()
	rows, err := s.conn.Queries.ListRuns(ctx, ListRunsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	metrics.ObserveQuery("list_runs", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]models.Run, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, rowToModel(row))
	}
	return runs, nil
}

// DeleteRunsOlderThan removes runs created more than age ago
func (s *PostgresStore) DeleteRunsOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	interval := pgtype.Interval{
		Microseconds: age.Microseconds(),
		Valid:        true,
	}

	start := time.Now()
	deleted, err := s.conn.Queries.CleanupOldRuns(ctx, interval)
	metrics.ObserveQuery("cleanup_old_runs", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up old runs: %w", err)
	}
	return deleted, nil
}

func rowToModel(row Run) models.Run {
	run := models.Run{
		ID:           row.ID,
		Count:        int(row.Count),
		Primes:       row.Primes,
		OutputSHA256: row.OutputSha256,
		DurationMs:   row.DurationMs,
		CreatedAt:    row.CreatedAt.Time,
	}
	if run.Primes == nil {
		run.Primes = []int64{}
	}
	if row.LastPrime.Valid {
		last := row.LastPrime.Int64
		run.LastPrime = &last
	}
	if row.ClientAddr.Valid {
		run.ClientAddr = row.ClientAddr.IPNet.IP.String()
	}
	return run
}

// toInet converts a host address into an INET value, invalid for anything unparseable
func toInet(addr string) pqtype.Inet {
	ip := net.ParseIP(addr)
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		bits = 32
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}
