package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/draganm/primes/internal/numio"
)

// CalculateSHA256 calculates the SHA256 hash of the given reader
func CalculateSHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to calculate SHA256: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// OutputSHA256 returns the SHA256 of the CLI rendering of primes, one per line
func OutputSHA256(primes []int64) string {
	var buf bytes.Buffer
	for _, p := range primes {
		// writes to a bytes.Buffer never fail
		_ = numio.PrintInt(&buf, int(p))
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// VerifyOutputSHA256 verifies that primes render to output matching expectedHash
func VerifyOutputSHA256(primes []int64, expectedHash string) error {
	calculatedHash := OutputSHA256(primes)
	if calculatedHash != expectedHash {
		return fmt.Errorf("SHA256 mismatch: expected %s, got %s", expectedHash, calculatedHash)
	}
	return nil
}
