package numio

import "errors"

var (
	// ErrNonNumericInput indicates that the input token is missing or is not an integer
	ErrNonNumericInput = errors.New("cannot enter non-numeric input")

	// ErrUnexpectedEOF indicates that the input ended while the integer was being finished
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrDivideByZero indicates a zero divisor
	ErrDivideByZero = errors.New("cannot divide by 0")
)

// IsInputError checks if the error was caused by malformed or truncated input
func IsInputError(err error) bool {
	return errors.Is(err, ErrNonNumericInput) || errors.Is(err, ErrUnexpectedEOF)
}

// IsDivideByZero checks if the error was caused by a zero divisor
func IsDivideByZero(err error) bool {
	return errors.Is(err, ErrDivideByZero)
}
