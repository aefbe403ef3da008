package numio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Reader reads whitespace separated integers from an input stream.
type Reader struct {
	r *bufio.Reader

	// Strict makes the reader consume one character after the number and
	// report ErrUnexpectedEOF when the stream ends there instead.
	Strict bool
}

// NewReader wraps r in a Reader
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// ReadInt reads one integer token from the underlying stream
func (r *Reader) ReadInt() (int, error) {
	// skip leading whitespace
	var first rune
	for {
		c, _, err := r.r.ReadRune()
		if errors.Is(err, io.EOF) {
			return 0, ErrNonNumericInput
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read input: %w", err)
		}
		if !unicode.IsSpace(c) {
			first = c
			break
		}
	}

	var token strings.Builder
	token.WriteRune(first)

	terminated := false
	for {
		c, _, err := r.r.ReadRune()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read input: %w", err)
		}
		if unicode.IsSpace(c) {
			// the delimiter is consumed along with the token
			terminated = true
			break
		}
		token.WriteRune(c)
	}

	n, err := strconv.Atoi(token.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericInput, token.String())
	}

	if r.Strict && !terminated {
		return 0, ErrUnexpectedEOF
	}

	return n, nil
}

// ReadInt reads a single integer from r using the default, non-strict rules
func ReadInt(r io.Reader) (int, error) {
	return NewReader(r).ReadInt()
}

// PrintInt writes n in decimal followed by a newline
func PrintInt(w io.Writer, n int) error {
	var buf [24]byte
	b := strconv.AppendInt(buf[:0], int64(n), 10)
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write integer: %w", err)
	}
	return nil
}

// SafeDivide returns x / y truncated toward zero, or ErrDivideByZero when y is 0
func SafeDivide(x, y int) (int, error) {
	if y == 0 {
		return 0, ErrDivideByZero
	}
	return x / y, nil
}
