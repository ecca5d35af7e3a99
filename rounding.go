package monetary

import (
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how discarded digits affect a result.
// The zero value means that no rounding mode is set, in which case an
// operation that has to discard non-zero digits fails with
// [ErrRoundingRequired].
type RoundingMode uint8

const (
	RoundingUnset    RoundingMode = iota // no rounding allowed
	RoundUp                              // away from zero
	RoundDown                            // toward zero
	RoundCeiling                         // toward positive infinity
	RoundFloor                           // toward negative infinity
	RoundHalfUp                          // to nearest, ties away from zero
	RoundHalfDown                        // to nearest, ties toward zero
	RoundHalfEven                        // to nearest, ties to even (banker's rounding)
	RoundUnnecessary                     // assert that no rounding is needed
)

var roundingNames = [...]string{
	RoundingUnset:    "UNSET",
	RoundUp:          "UP",
	RoundDown:        "DOWN",
	RoundCeiling:     "CEILING",
	RoundFloor:       "FLOOR",
	RoundHalfUp:      "HALF_UP",
	RoundHalfDown:    "HALF_DOWN",
	RoundHalfEven:    "HALF_EVEN",
	RoundUnnecessary: "UNNECESSARY",
}

// ParseRoundingMode converts a name such as "HALF_UP", "half-up" or
// "half_even" to a rounding mode. An empty string, "NONE" and "UNSET" give
// [RoundingUnset].
func ParseRoundingMode(s string) (RoundingMode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch name {
	case "", "NONE":
		return RoundingUnset, nil
	}
	for m, n := range roundingNames {
		if n == name {
			return RoundingMode(m), nil
		}
	}
	return RoundingUnset, configError("rounding mode %q", s)
}

// String implements the [fmt.Stringer] interface.
func (m RoundingMode) String() string {
	if int(m) < len(roundingNames) {
		return roundingNames[m]
	}
	return fmt.Sprintf("RoundingMode(%d)", uint8(m))
}

// MarshalText implements the [encoding.TextMarshaler] interface.
func (m RoundingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
func (m *RoundingMode) UnmarshalText(text []byte) error {
	v, err := ParseRoundingMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Context carries the settings of monetary calculations: the fallback
// rounding mode, whether chained operations rescale after every step, and
// the registry used to resolve currency hints.
//
// Contexts are plain values. Derive a call-scoped context from
// [DefaultContext] with the With methods instead of changing the process
// default.
type Context struct {
	// Rounding is used whenever an operation has to discard digits and no
	// explicit rounding mode was given.
	Rounding RoundingMode

	// RescaleEachStep makes chained operations round to the scale of the
	// monetary operand after every step rather than once at the end.
	RescaleEachStep bool

	// Registry resolves currency hints. Nil means the default registry.
	Registry *Registry
}

var defaultContext atomic.Pointer[Context]

// DefaultContext returns the process-wide default context.
// Its zero value has no rounding mode and rescales only at the end.
func DefaultContext() Context {
	if c := defaultContext.Load(); c != nil {
		return *c
	}
	return Context{}
}

// SetDefaultContext installs the process-wide default context and returns
// the previous one.
func SetDefaultContext(c Context) Context {
	old := defaultContext.Swap(&c)
	if old == nil {
		return Context{}
	}
	return *old
}

// WithRounding returns the default context with a different rounding mode.
func WithRounding(m RoundingMode) Context {
	return DefaultContext().WithRounding(m)
}

// WithRescaleEachStep returns the default context with a different
// rescaling behavior.
func WithRescaleEachStep(on bool) Context {
	return DefaultContext().WithRescaleEachStep(on)
}

// WithRounding returns a copy of c with a different rounding mode.
func (c Context) WithRounding(m RoundingMode) Context {
	c.Rounding = m
	return c
}

// WithRescaleEachStep returns a copy of c with a different rescaling
// behavior.
func (c Context) WithRescaleEachStep(on bool) Context {
	c.RescaleEachStep = on
	return c
}

// WithRegistry returns a copy of c resolving hints in r.
func (c Context) WithRegistry(r *Registry) Context {
	c.Registry = r
	return c
}

func (c Context) registry() *Registry {
	return c.Registry.orDefault()
}

// ScaleOf returns the number of digits after the decimal point of d.
func ScaleOf(d decimal.Decimal) int {
	if e := d.Exponent(); e < 0 {
		return int(-e)
	}
	return 0
}

// RescaleDecimal returns d with exactly scale digits after the decimal
// point, rounding with the rounding mode of the context if digits have to be
// discarded. [AutoScaled] returns d unchanged.
func (c Context) RescaleDecimal(d decimal.Decimal, scale int) (decimal.Decimal, error) {
	if scale == AutoScaled {
		return d, nil
	}
	if scale < 0 {
		return decimal.Decimal{}, opError("rescale", configError("scale %v", scale), d)
	}
	e, err := roundDecimal(d, scale, c.Rounding)
	if err != nil {
		return decimal.Decimal{}, opError("rescale", err, d, scale)
	}
	return e, nil
}

// RescaleDecimal is like [Context.RescaleDecimal] with an explicit rounding
// mode, or the default context when the mode is [RoundingUnset].
func RescaleDecimal(d decimal.Decimal, scale int, mode RoundingMode) (decimal.Decimal, error) {
	return roundingContext(mode).RescaleDecimal(d, scale)
}

func roundingContext(modes ...RoundingMode) Context {
	c := DefaultContext()
	if len(modes) > 0 && modes[0] != RoundingUnset {
		c.Rounding = modes[0]
	}
	return c
}

// roundDecimal sets the scale of d, rounding with mode if necessary.
func roundDecimal(d decimal.Decimal, scale int, mode RoundingMode) (decimal.Decimal, error) {
	s := int32(scale)
	if ScaleOf(d) <= scale {
		return d.Round(s), nil // zero-padding
	}
	down := d.RoundDown(s)
	if down.Equal(d) {
		return down, nil
	}
	switch mode {
	case RoundUp:
		return d.RoundUp(s), nil
	case RoundDown:
		return down, nil
	case RoundCeiling:
		return d.RoundCeil(s), nil
	case RoundFloor:
		return d.RoundFloor(s), nil
	case RoundHalfUp:
		return d.Round(s), nil
	case RoundHalfEven:
		return d.RoundBank(s), nil
	case RoundHalfDown:
		half := decimal.New(5, -s-1)
		if d.Sub(down).Abs().GreaterThan(half) {
			return d.RoundUp(s), nil
		}
		return down, nil
	}
	return decimal.Decimal{}, ErrRoundingRequired
}

// roundRat converts q to a decimal with the given scale, rounding with mode
// if q cannot be represented exactly.
func roundRat(q *big.Rat, scale int, mode RoundingMode) (decimal.Decimal, error) {
	num := new(big.Int).Mul(q.Num(), pow10(scale))
	quo, rem := new(big.Int).QuoRem(num, q.Denom(), new(big.Int))
	if rem.Sign() != 0 {
		half := new(big.Int).Abs(rem)
		half.Lsh(half, 1)
		cmpHalf := half.Cmp(q.Denom())
		away := false
		switch mode {
		case RoundUp:
			away = true
		case RoundDown:
		case RoundCeiling:
			away = q.Sign() > 0
		case RoundFloor:
			away = q.Sign() < 0
		case RoundHalfUp:
			away = cmpHalf >= 0
		case RoundHalfDown:
			away = cmpHalf > 0
		case RoundHalfEven:
			away = cmpHalf > 0 || (cmpHalf == 0 && quo.Bit(0) == 1)
		default:
			return decimal.Decimal{}, ErrRoundingRequired
		}
		if away {
			quo.Add(quo, big.NewInt(int64(q.Sign())))
		}
	}
	return decimal.NewFromBigInt(quo, -int32(scale)), nil
}

// exactScale returns the scale of the decimal expansion of q, or false if
// the expansion does not terminate.
func exactScale(q *big.Rat) (int, bool) {
	den := new(big.Int).Set(q.Denom())
	two, five := big.NewInt(2), big.NewInt(5)
	m := new(big.Int)
	var twos, fives int
	for {
		if _, m = new(big.Int).QuoRem(den, two, m); m.Sign() != 0 {
			break
		}
		den.Quo(den, two)
		twos++
	}
	for {
		if _, m = new(big.Int).QuoRem(den, five, m); m.Sign() != 0 {
			break
		}
		den.Quo(den, five)
		fives++
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
