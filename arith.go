package monetary

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Value is an operand of [Context.Mul], [Context.Div] and [Context.Rem]:
// either [Money] or a dimensionless [Number].
type Value interface {
	value()
}

func (Money) value()  {}
func (Number) value() {}

// Number is a dimensionless decimal operand or result.
type Number struct {
	d decimal.Decimal
}

// Num returns d as a [Number].
func Num(d decimal.Decimal) Number {
	return Number{d: d}
}

// NumOf converts a string, an integer, a float, a decimal or a big number to
// a [Number]. See [Context.NewMoney] for the accepted types.
func NumOf(x any) (Number, error) {
	if n, ok := x.(Number); ok {
		return n, nil
	}
	d, err := toDecimal(x, AutoScaled, RoundHalfEven)
	if err != nil {
		return Number{}, opError("number", err, x)
	}
	return Number{d: d}, nil
}

// MustNum is like [NumOf] but panics if x cannot be converted.
func MustNum(x any) Number {
	n, err := NumOf(x)
	if err != nil {
		panic(err)
	}
	return n
}

// Decimal returns the value of the number.
func (n Number) Decimal() decimal.Decimal {
	return n.d
}

// String implements the [fmt.Stringer] interface.
func (n Number) String() string {
	return decimalString(n.d)
}

// Add returns the sum of amounts. All amounts must be denominated in the
// same currency. The sum is exact and keeps the largest scale of the operands.
func (c Context) Add(ms ...Money) (Money, error) {
	s, err := c.add(false, ms)
	if err != nil {
		return Money{}, opError("add", err, moneyArgs(ms)...)
	}
	return s, nil
}

// Sub subtracts the remaining amounts from the first one.
// A single amount is negated.
func (c Context) Sub(ms ...Money) (Money, error) {
	s, err := c.add(true, ms)
	if err != nil {
		return Money{}, opError("sub", err, moneyArgs(ms)...)
	}
	return s, nil
}

func (c Context) add(sub bool, ms []Money) (Money, error) {
	if len(ms) == 0 {
		return Money{}, ErrInvalidOperation
	}
	acc := ms[0]
	if sub && len(ms) == 1 {
		return acc.Neg(), nil
	}
	for _, m := range ms[1:] {
		if !acc.sameCurrID(m) {
			return Money{}, ErrCurrencyMismatch
		}
		if sub {
			acc.amount = acc.amount.Sub(m.amount)
		} else {
			acc.amount = acc.amount.Add(m.amount)
		}
	}
	return acc, nil
}

// Mul returns the product of its operands. At most one operand may be
// [Money].
//
// Without money the exact product is returned as a [Number]. Otherwise the
// result is [Money] rescaled to the scale of the monetary operand, rounding
// with the context rounding mode; with RescaleEachStep the running product
// is rescaled after every step once the monetary operand has been
// multiplied in. Products in auto-scaled currencies are exact.
//
// Mul returns an error if two operands are money or if rounding is
// required but no rounding mode is set.
func (c Context) Mul(vs ...Value) (Value, error) {
	v, err := c.mul(vs)
	if err != nil {
		return nil, opError("mul", err, valueArgs(vs)...)
	}
	return v, nil
}

func (c Context) mul(vs []Value) (Value, error) {
	if len(vs) == 0 {
		return nil, ErrInvalidOperation
	}
	var (
		m     Money
		seen  bool
		scale = AutoScaled
		prod  = decimal.NewFromInt(1)
		err   error
	)
	for i, v := range vs {
		switch v := v.(type) {
		case Money:
			if seen {
				return nil, ErrInvalidOperation
			}
			if v.IsEmpty() {
				return nil, ErrInvalidOperation
			}
			m, seen = v, true
			if !v.curr.IsAutoScaled() {
				scale = v.Scale()
			}
			prod = prod.Mul(v.amount)
		case Number:
			prod = prod.Mul(v.d)
		default:
			return nil, ErrInvalidOperation
		}
		if c.RescaleEachStep && seen && i > 0 && scale != AutoScaled {
			if prod, err = roundDecimal(prod, scale, c.Rounding); err != nil {
				return nil, err
			}
		}
	}
	if !seen {
		return Number{d: prod}, nil
	}
	if scale != AutoScaled {
		if prod, err = roundDecimal(prod, scale, c.Rounding); err != nil {
			return nil, err
		}
	}
	return Money{curr: m.curr, amount: prod}, nil
}

// Div divides the first operand by the remaining ones.
//
//   - Money divided by numbers is Money with the scale of the dividend.
//   - Money divided by money of the same currency is a [Number]; further
//     numbers may follow.
//   - Numbers divided by numbers are a [Number].
//
// The quotient is computed exactly and rounded once with the context
// rounding mode, or after every step with RescaleEachStep.
// Dividends in auto-scaled currencies and numbers keep the exact scale of a
// terminating quotient and are rounded to [decimal.DivisionPrecision]
// digits otherwise.
//
// Div returns an error if a number is divided by money, if money is the
// only operand, if a divisor is zero, if currencies differ, or if rounding
// is required but no rounding mode is set.
func (c Context) Div(vs ...Value) (Value, error) {
	v, err := c.quo(false, vs)
	if err != nil {
		return nil, opError("div", err, valueArgs(vs)...)
	}
	return v, nil
}

// Rem returns the remainder of dividing the first operand by the remaining
// ones. It accepts the same operands as [Context.Div]. The remainder of a
// truncated division has the sign of the dividend.
func (c Context) Rem(vs ...Value) (Value, error) {
	v, err := c.quo(true, vs)
	if err != nil {
		return nil, opError("rem", err, valueArgs(vs)...)
	}
	return v, nil
}

// quo implements Div and Rem.
func (c Context) quo(rem bool, vs []Value) (Value, error) {
	if len(vs) == 0 {
		return nil, ErrInvalidOperation
	}
	var (
		acc   decimal.Decimal
		q     *big.Rat
		curr  Currency
		money bool
		scale = AutoScaled
	)
	switch v := vs[0].(type) {
	case Money:
		if len(vs) == 1 || v.IsEmpty() {
			return nil, ErrInvalidOperation
		}
		acc, curr, money = v.amount, v.curr, true
		if !curr.IsAutoScaled() {
			scale = v.Scale()
		}
	case Number:
		acc = v.d
		if len(vs) == 1 {
			vs = []Value{Num(decimal.NewFromInt(1)), v}
			acc = vs[0].(Number).d
		}
	default:
		return nil, ErrInvalidOperation
	}
	q = acc.Rat()
	for _, v := range vs[1:] {
		var d decimal.Decimal
		switch v := v.(type) {
		case Number:
			d = v.d
		case Money:
			if !money {
				return nil, ErrInvalidOperation
			}
			if v.curr.id != curr.id {
				return nil, ErrCurrencyMismatch
			}
			d, money, scale = v.amount, false, AutoScaled
		default:
			return nil, ErrInvalidOperation
		}
		if d.IsZero() {
			return nil, ErrDivisionByZero
		}
		if rem {
			acc = acc.Mod(d)
			continue
		}
		q.Quo(q, d.Rat())
		if c.RescaleEachStep && money {
			step, err := c.fitRat(q, scale)
			if err != nil {
				return nil, err
			}
			q = step.Rat()
		}
	}
	var err error
	if rem {
		if scale != AutoScaled {
			acc, err = roundDecimal(acc, scale, c.Rounding)
		}
	} else {
		acc, err = c.fitRat(q, scale)
	}
	if err != nil {
		return nil, err
	}
	if money {
		return Money{curr: curr, amount: acc}, nil
	}
	return Number{d: acc}, nil
}

// fitRat converts an exact quotient to a decimal with the given scale.
// For AutoScaled it keeps the exact expansion when it terminates.
func (c Context) fitRat(q *big.Rat, scale int) (decimal.Decimal, error) {
	if scale != AutoScaled {
		return roundRat(q, scale, c.Rounding)
	}
	if s, ok := exactScale(q); ok {
		return roundRat(q, s, RoundUnnecessary)
	}
	return roundRat(q, int(decimal.DivisionPrecision), c.Rounding)
}

// Compare compares amounts in the same currency and returns:
//
//	-1 if a < b
//	 0 if a = b
//	+1 if a > b
//
// The empty Money is less than any other amount.
// Compare returns an error if the amounts are in different currencies.
func (c Context) Compare(a, b Money) (int, error) {
	switch {
	case a.IsEmpty() && b.IsEmpty():
		return 0, nil
	case a.IsEmpty():
		return -1, nil
	case b.IsEmpty():
		return 1, nil
	case !a.sameCurrID(b):
		return 0, opError("compare", ErrCurrencyMismatch, a, b)
	}
	return a.amount.Cmp(b.amount), nil
}

// Equal reports whether all amounts are in the same currency and are
// numerically equal.
func (c Context) Equal(ms ...Money) bool {
	for i := 1; i < len(ms); i++ {
		if !ms[0].Equal(ms[i]) {
			return false
		}
	}
	return true
}

// Less reports whether a is less than b. See [Context.Compare].
func (c Context) Less(a, b Money) (bool, error) {
	s, err := c.Compare(a, b)
	return s < 0, err
}

// Min returns the smallest amount. The first of equal amounts wins.
func (c Context) Min(ms ...Money) (Money, error) {
	return c.pick("min", -1, ms)
}

// Max returns the largest amount. The first of equal amounts wins.
func (c Context) Max(ms ...Money) (Money, error) {
	return c.pick("max", 1, ms)
}

func (c Context) pick(op string, want int, ms []Money) (Money, error) {
	if len(ms) == 0 {
		return Money{}, opError(op, ErrInvalidOperation)
	}
	best := ms[0]
	for _, m := range ms[1:] {
		s, err := c.Compare(m, best)
		if err != nil {
			return Money{}, opError(op, ErrCurrencyMismatch, moneyArgs(ms)...)
		}
		if s == want {
			best = m
		}
	}
	return best, nil
}

func moneyArgs(ms []Money) []any {
	args := make([]any, len(ms))
	for i, m := range ms {
		args[i] = m
	}
	return args
}

func valueArgs(vs []Value) []any {
	args := make([]any, len(vs))
	for i, v := range vs {
		args[i] = v
	}
	return args
}

// Add is like [Context.Add] with the default context.
func Add(ms ...Money) (Money, error) { return DefaultContext().Add(ms...) }

// Sub is like [Context.Sub] with the default context.
func Sub(ms ...Money) (Money, error) { return DefaultContext().Sub(ms...) }

// Mul is like [Context.Mul] with the default context.
func Mul(vs ...Value) (Value, error) { return DefaultContext().Mul(vs...) }

// Div is like [Context.Div] with the default context.
func Div(vs ...Value) (Value, error) { return DefaultContext().Div(vs...) }

// Rem is like [Context.Rem] with the default context.
func Rem(vs ...Value) (Value, error) { return DefaultContext().Rem(vs...) }

// Compare is like [Context.Compare] with the default context.
func Compare(a, b Money) (int, error) { return DefaultContext().Compare(a, b) }

// Min is like [Context.Min] with the default context.
func Min(ms ...Money) (Money, error) { return DefaultContext().Min(ms...) }

// Max is like [Context.Max] with the default context.
func Max(ms ...Money) (Money, error) { return DefaultContext().Max(ms...) }

// Add returns the sum of m and n in the default context.
func (m Money) Add(n Money) (Money, error) {
	return DefaultContext().Add(m, n)
}

// Sub returns the difference of m and n in the default context.
func (m Money) Sub(n Money) (Money, error) {
	return DefaultContext().Sub(m, n)
}

// Mul returns m multiplied by the factors in the default context.
// See [Context.Mul].
func (m Money) Mul(factors ...Number) (Money, error) {
	v, err := DefaultContext().Mul(prepend(m, factors)...)
	if err != nil {
		return Money{}, err
	}
	return v.(Money), nil
}

// Div returns m divided by the divisors in the default context.
// See [Context.Div].
func (m Money) Div(divisors ...Number) (Money, error) {
	if len(divisors) == 0 {
		return m, nil
	}
	v, err := DefaultContext().Div(prepend(m, divisors)...)
	if err != nil {
		return Money{}, err
	}
	return v.(Money), nil
}

// Rem returns the remainder of dividing m by d in the default context.
func (m Money) Rem(d Number) (Money, error) {
	v, err := DefaultContext().Rem(m, d)
	if err != nil {
		return Money{}, err
	}
	return v.(Money), nil
}

// Ratio returns m divided by n as a dimensionless number.
// Both amounts must be in the same currency.
func (m Money) Ratio(n Money) (Number, error) {
	v, err := DefaultContext().Div(m, n)
	if err != nil {
		return Number{}, err
	}
	return v.(Number), nil
}

// Cmp compares m and n. See [Context.Compare].
func (m Money) Cmp(n Money) (int, error) {
	return DefaultContext().Compare(m, n)
}

func prepend(m Money, ns []Number) []Value {
	vs := make([]Value, 0, len(ns)+1)
	vs = append(vs, m)
	for _, n := range ns {
		vs = append(vs, n)
	}
	return vs
}
