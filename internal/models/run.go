package models

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one recorded prime enumeration
type Run struct {
	ID           uuid.UUID `json:"id"`
	Count        int       `json:"count"`
	Primes       []int64   `json:"primes"`
	LastPrime    *int64    `json:"last_prime,omitempty"`
	OutputSHA256 string    `json:"output_sha256"`
	ClientAddr   string    `json:"client_addr,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunRequest represents a request to enumerate primes
type RunRequest struct {
	Count int `json:"count"`
}

// RunList represents a page of runs
type RunList struct {
	Runs   []Run `json:"runs"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// DivideResponse represents the result of a guarded division
type DivideResponse struct {
	Quotient int `json:"quotient"`
}
