package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sqlc-dev/pqtype"
)

const runColumns = `id, count, primes, last_prime, output_sha256, client_addr, duration_ms, created_at`

const createRun = `-- name: CreateRun :one
INSERT INTO runs (count, primes, last_prime, output_sha256, client_addr, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + runColumns

type CreateRunParams struct {
	Count        int32       `json:"count"`
	Primes       []int64     `json:"primes"`
	LastPrime    pgtype.Int8 `json:"last_prime"`
	OutputSha256 string      `json:"output_sha256"`
	ClientAddr   pqtype.Inet `json:"client_addr"`
	DurationMs   int64       `json:"duration_ms"`
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (Run, error) {
	row := q.db.QueryRow(ctx, createRun,
		arg.Count,
		arg.Primes,
		arg.LastPrime,
		arg.OutputSha256,
		arg.ClientAddr,
		arg.DurationMs,
	)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.Count,
		&i.Primes,
		&i.LastPrime,
		&i.OutputSha256,
		&i.ClientAddr,
		&i.DurationMs,
		&i.CreatedAt,
	)
	return i, err
}

const getRun = `-- name: GetRun :one
SELECT ` + runColumns + ` FROM runs WHERE id = $1`

func (q *Queries) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := q.db.QueryRow(ctx, getRun, id)
	var i Run
	err := row.Scan(
		&i.ID,
		&i.Count,
		&i.Primes,
		&i.LastPrime,
		&i.OutputSha256,
		&i.ClientAddr,
		&i.DurationMs,
		&i.CreatedAt,
	)
	return i, err
}

const listRuns = `-- name: ListRuns :many
SELECT ` + runColumns + ` FROM runs
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`

type ListRunsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListRuns(ctx context.Context, arg ListRunsParams) ([]Run, error) {
	rows, err := q.db.Query(ctx, listRuns, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.Count,
			&i.Primes,
			&i.LastPrime,
			&i.OutputSha256,
			&i.ClientAddr,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const cleanupOldRuns = `-- name: CleanupOldRuns :execrows
DELETE FROM runs WHERE created_at < NOW() - $1::interval`

func (q *Queries) CleanupOldRuns(ctx context.Context, age pgtype.Interval) (int64, error) {
	result, err := q.db.Exec(ctx, cleanupOldRuns, age)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
