package monetary

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	fixed "github.com/govalues/decimal"
	"github.com/shopspring/decimal"
)

var errInvalidAmount = errors.New("invalid amount")

// Money represents a monetary amount in a currency.
// The zero value has no currency and stands for the absence of money;
// see [Money.IsEmpty].
//
// The scale of the amount usually equals the nominal scale of the currency
// but may differ from it, for example after [Money.Rescale].
// Money is immutable and safe for concurrent use by multiple goroutines.
type Money struct {
	curr   Currency        // denomination
	amount decimal.Decimal // monetary value
}

// MoneyOf returns money with the currency and amount exactly as given.
// The currency is not resolved in any registry and the amount is not
// rescaled.
func MoneyOf(c Currency, amount decimal.Decimal) Money {
	if c.IsZero() {
		return Money{}
	}
	return Money{curr: c, amount: amount}
}

// NewMoney returns money in the currency referred to by h, using the
// default context. See [Context.NewMoney].
func NewMoney(h Hint, amount any) (Money, error) {
	return DefaultContext().NewMoney(h, amount)
}

// MustNewMoney is like [NewMoney] but panics if the money cannot be
// constructed. It simplifies safe initialization of global variables.
func MustNewMoney(h Hint, amount any) Money {
	m, err := NewMoney(h, amount)
	if err != nil {
		panic(fmt.Sprintf("NewMoney(%v, %v) failed: %v", h, amount, err))
	}
	return m
}

// NewMoney returns money in the currency referred to by h.
//
// A [Currency] hint is used as is unless the context names a registry, in
// which case it is resolved there like every other hint.
// The amount may be a string, an integer, a [decimal.Decimal], a fixed-point
// decimal from github.com/govalues/decimal, a *big.Int, a *big.Rat or a
// float; floats are converted through their shortest decimal representation.
// A nil amount is zero.
// The amount is rescaled to the nominal scale of the currency, rounding with
// the context rounding mode if digits have to be discarded.
//
// NewMoney returns the empty Money and no error for a nil hint, an empty
// [ID], a zero [Mask] or a zero [Currency].
// It returns an error if the currency cannot be resolved, the amount cannot
// be converted, or rounding is required but no rounding mode is set.
func (c Context) NewMoney(h Hint, amount any) (Money, error) {
	switch h := h.(type) {
	case nil:
		return Money{}, nil
	case ID:
		if strings.TrimSpace(string(h)) == "" {
			return Money{}, nil
		}
	case Mask:
		if h.IsZero() {
			return Money{}, nil
		}
	}
	cur, err := c.unit(h)
	if err != nil {
		return Money{}, err
	}
	if cur.IsZero() {
		return Money{}, nil
	}
	d, err := toDecimal(amount, cur.scale, c.Rounding)
	if err != nil {
		return Money{}, opError("money", err, cur, amount)
	}
	d, err = c.RescaleDecimal(d, cur.scale)
	if err != nil {
		return Money{}, opError("money", errors.Unwrap(err), cur, amount)
	}
	return Money{curr: cur, amount: d}, nil
}

func (c Context) unit(h Hint) (Currency, error) {
	if cur, ok := h.(Currency); ok && c.Registry == nil {
		return cur, nil
	}
	return c.Registry.Unit(h)
}

// NewMoneyFromMinorUnits returns money from an integer number of minor
// units (cents, pennies, satoshis). Auto-scaled currencies have minor units
// equal to major units.
func NewMoneyFromMinorUnits(h Hint, units int64) (Money, error) {
	c, err := DefaultContext().unit(h)
	if err != nil {
		return Money{}, err
	}
	return MoneyOf(c, decimal.New(units, -int32(max(c.scale, 0)))), nil
}

// toDecimal converts a supported amount to a decimal.
// Non-terminating rationals are rounded to scale, or to
// [decimal.DivisionPrecision] digits for auto-scaled currencies.
func toDecimal(amount any, scale int, mode RoundingMode) (decimal.Decimal, error) {
	switch a := amount.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return a, nil
	case *decimal.Decimal:
		if a == nil {
			return decimal.Zero, nil
		}
		return *a, nil
	case fixed.Decimal:
		return decimal.NewFromString(a.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(a))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", errInvalidAmount, a)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	case int8:
		return decimal.NewFromInt(int64(a)), nil
	case int16:
		return decimal.NewFromInt(int64(a)), nil
	case int32:
		return decimal.NewFromInt(int64(a)), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), 0), nil
	case uint8:
		return decimal.NewFromInt(int64(a)), nil
	case uint16:
		return decimal.NewFromInt(int64(a)), nil
	case uint32:
		return decimal.NewFromInt(int64(a)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(a), 0), nil
	case float32:
		return floatToDecimal(float64(a), 32)
	case float64:
		return floatToDecimal(a, 64)
	case *big.Int:
		if a == nil {
			return decimal.Zero, nil
		}
		return decimal.NewFromBigInt(a, 0), nil
	case *big.Rat:
		if a == nil {
			return decimal.Zero, nil
		}
		if s, ok := exactScale(a); ok {
			return roundRat(a, s, RoundUnnecessary)
		}
		if scale == AutoScaled {
			scale = int(decimal.DivisionPrecision)
		}
		return roundRat(a, scale, mode)
	}
	return decimal.Decimal{}, fmt.Errorf("%w: type %T is not supported", errInvalidAmount, amount)
}

func floatToDecimal(f float64, bits int) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: special value %v", errInvalidAmount, f)
	}
	return decimal.NewFromString(strconv.FormatFloat(f, 'f', -1, bits))
}

// Curr returns the currency of the money.
func (m Money) Curr() Currency {
	return m.curr
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Fixed returns the amount as a fixed-point decimal from
// github.com/govalues/decimal.
// It returns an error if the amount does not fit its 19-digit coefficient.
func (m Money) Fixed() (fixed.Decimal, error) {
	d, err := fixed.Parse(decimalString(m.amount))
	if err != nil {
		return fixed.Decimal{}, fmt.Errorf("converting %v: %w", m, err)
	}
	return d, nil
}

// IsEmpty reports whether m is the zero Money, which has no currency.
func (m Money) IsEmpty() bool {
	return m.curr.IsZero()
}

// Scale returns the number of digits after the decimal point of the amount.
func (m Money) Scale() int {
	return ScaleOf(m.amount)
}

// Sign returns:
//
//	-1 if m < 0
//	 0 if m = 0
//	+1 if m > 0
func (m Money) Sign() int {
	return m.amount.Sign()
}

// IsZero reports whether the amount is 0.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPos reports whether the amount is greater than 0.
func (m Money) IsPos() bool {
	return m.amount.IsPositive()
}

// IsNeg reports whether the amount is less than 0.
func (m Money) IsNeg() bool {
	return m.amount.IsNegative()
}

// Abs returns money with the absolute value of the amount.
func (m Money) Abs() Money {
	return Money{curr: m.curr, amount: m.amount.Abs()}
}

// Neg returns money with the opposite sign.
func (m Money) Neg() Money {
	return Money{curr: m.curr, amount: m.amount.Neg()}
}

// Major returns the integer part of the amount.
func (m Money) Major() decimal.Decimal {
	return m.amount.Truncate(0)
}

// Minor returns the fractional part of the amount expressed in units of
// the last decimal place, with the sign of the amount.
func (m Money) Minor() decimal.Decimal {
	frac := m.amount.Sub(m.amount.Truncate(0))
	return frac.Shift(int32(m.Scale())).Truncate(0)
}

// MinorUnits returns the amount in minor units of the currency, rescaling it
// to the nominal scale with the default context first.
func (m Money) MinorUnits() (*big.Int, error) {
	n, err := m.RescaleToCurr()
	if err != nil {
		return nil, err
	}
	return n.amount.Shift(int32(n.Scale())).BigInt(), nil
}

// SameCurr reports whether both amounts are in the same currency.
func (m Money) SameCurr(n Money) bool {
	return m.curr == n.curr
}

// sameCurrID reports whether both amounts are in currencies with the same
// id. Other currency fields may differ across registry versions.
func (m Money) sameCurrID(n Money) bool {
	return m.curr.id == n.curr.id
}

// SameScale reports whether both amounts have the same scale.
func (m Money) SameScale(n Money) bool {
	return m.Scale() == n.Scale()
}

// SameScaleAsCurr reports whether the scale of the amount equals the
// nominal scale of the currency. Auto-scaled currencies always match.
func (m Money) SameScaleAsCurr() bool {
	return m.curr.IsAutoScaled() || m.Scale() == m.curr.scale
}

// Equal reports whether both amounts are in the same currency and are
// numerically equal. Scales may differ.
func (m Money) Equal(n Money) bool {
	return m.SameCurr(n) && m.amount.Equal(n.amount)
}

// Rescale returns money with the amount rescaled to the given scale.
// The first rounding mode given is used if digits have to be discarded;
// without one the default context rounding applies.
func (m Money) Rescale(scale int, mode ...RoundingMode) (Money, error) {
	return roundingContext(mode...).Rescale(m, scale)
}

// RescaleToCurr returns money rescaled to the nominal scale of its
// currency. It returns m unchanged for auto-scaled currencies.
func (m Money) RescaleToCurr(mode ...RoundingMode) (Money, error) {
	return roundingContext(mode...).RescaleToCurr(m)
}

// Rescale returns money with the amount rescaled to the given scale,
// rounding with the context rounding mode if digits have to be discarded.
func (c Context) Rescale(m Money, scale int) (Money, error) {
	d, err := c.RescaleDecimal(m.amount, scale)
	if err != nil {
		return Money{}, opError("rescale", errors.Unwrap(err), m, scale)
	}
	return Money{curr: m.curr, amount: d}, nil
}

// RescaleToCurr returns money rescaled to the nominal scale of its
// currency, or m unchanged for auto-scaled currencies.
func (c Context) RescaleToCurr(m Money) (Money, error) {
	if m.IsEmpty() || m.curr.IsAutoScaled() {
		return m, nil
	}
	return c.Rescale(m, m.curr.scale)
}

func decimalString(d decimal.Decimal) string {
	return d.StringFixed(int32(ScaleOf(d)))
}

// String implements the [fmt.Stringer] interface and returns the currency
// identifier followed by the amount, such as "EUR 10.00".
// The empty Money is "nil".
func (m Money) String() string {
	if m.IsEmpty() {
		return "nil"
	}
	return string(m.curr.id) + " " + decimalString(m.amount)
}

// Format implements the [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	| Verb   | Example     | Description                |
//	| ------ | ----------- | -------------------------- |
//	| %s, %v | USD 5.678   | Currency and amount        |
//	| %q     | "USD 5.678" | Quoted currency and amount |
//	| %f     | 5.678       | Amount                     |
//	| %c     | USD         | Currency                   |
//
// Precision is only supported for the %f verb and rounds half to even.
// Width and the '-' flag are supported for all verbs.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (m Money) Format(state fmt.State, verb rune) {
	var s string
	switch verb {
	case 's', 'S', 'v', 'V':
		s = m.String()
	case 'q', 'Q':
		s = strconv.Quote(m.String())
	case 'f', 'F':
		d := m.amount
		if p, ok := state.Precision(); ok {
			d = d.RoundBank(int32(p))
		}
		s = decimalString(d)
	case 'c', 'C':
		s = string(m.curr.id)
	default:
		s = fmt.Sprintf("%%!%c(monetary.Money=%s)", verb, m.String())
	}
	writePadded(state, s)
}

// writePadded writes s honoring the width and the '-' flag of state.
func writePadded(state fmt.State, s string) {
	if w, ok := state.Width(); ok && w > len(s) {
		pad := strings.Repeat(" ", w-len(s))
		if state.Flag('-') {
			s += pad
		} else {
			s = pad + s
		}
	}
	//nolint:errcheck
	state.Write([]byte(s))
}
