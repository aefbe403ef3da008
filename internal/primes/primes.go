package primes

import (
	"context"
	"io"

	"github.com/draganm/primes/internal/numio"
)

// IsPrime reports whether candidate (>= 2) has no factorisation d*k with d, k >= 2.
// Every multiple of every trial divisor up to the square root is compared with
// the candidate, there is no early exit.
func IsPrime(candidate int) bool {
	if candidate < 2 {
		return false
	}

	composite := false
	for d := 2; d*d <= candidate; d++ {
		for m := d * 2; m <= candidate; m += d {
			if m == candidate {
				composite = true
			}
		}
	}
	return !composite
}

// Enumerate calls emit with the first n primes in ascending order.
// Nothing is emitted when n <= 0. An error from emit stops the search.
func Enumerate(ctx context.Context, n int, emit func(p int) error) error {
	remaining := n
	for candidate := 2; remaining > 0; candidate++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !IsPrime(candidate) {
			continue
		}
		if err := emit(candidate); err != nil {
			return err
		}
		remaining--
	}
	return nil
}

// First returns the first n primes
func First(ctx context.Context, n int) ([]int, error) {
	var found []int
	if n > 0 {
		found = make([]int, 0, n)
	}
	err := Enumerate(ctx, n, func(p int) error {
		found = append(found, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Print writes the first n primes to w, one per line
func Print(ctx context.Context, w io.Writer, n int) error {
	return Enumerate(ctx, n, func(p int) error {
		return numio.PrintInt(w, p)
	})
}
