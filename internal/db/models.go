package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sqlc-dev/pqtype"
)

type Run struct {
	ID           uuid.UUID          `json:"id"`
	Count        int32              `json:"count"`
	Primes       []int64            `json:"primes"`
	LastPrime    pgtype.Int8        `json:"last_prime"`
	OutputSha256 string             `json:"output_sha256"`
	ClientAddr   pqtype.Inet        `json:"client_addr"`
	DurationMs   int64              `json:"duration_ms"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
