package monetary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCurrencyNotFound is returned when strict resolution against a
	// registry fails.
	ErrCurrencyNotFound = errors.New("currency not found")

	// ErrCurrencyMismatch is returned when an operation combines amounts
	// denominated in different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidOperation is returned for operand shapes without defined
	// semantics, such as multiplying two monetary amounts or dividing a number
	// by a monetary amount.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrRoundingRequired is returned when an operation would lose precision
	// and no rounding mode is available.
	ErrRoundingRequired = errors.New("rounding required")

	// ErrInvalidConfig is returned for malformed scales, weights, rounding
	// modes, hierarchies and registry descriptions.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDivisionByZero is returned when a divisor is zero.
	// It matches [ErrInvalidOperation] with [errors.Is].
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrInvalidOperation)
)

// OpError describes a failed operation together with its operands.
// Use [errors.Is] with the package sentinels to classify it.
type OpError struct {
	Op   string // operation name, e.g. "add" or "unit"
	Args []any  // operands in call order
	Err  error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString("computing ")
	b.WriteString(e.Op)
	b.WriteString(" [")
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", a)
	}
	b.WriteString("]: ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, err error, args ...any) error {
	var oe *OpError
	if errors.As(err, &oe) && oe.Op == op {
		return err
	}
	return &OpError{Op: op, Args: args, Err: err}
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
