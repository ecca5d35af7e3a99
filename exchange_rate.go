package monetary

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ExchangeRate represents a unidirectional exchange rate between two currencies.
// The zero value has no currencies and cannot convert anything.
// This type is designed to be safe for concurrent use by multiple goroutines.
type ExchangeRate struct {
	base  Currency        // currency being exchanged
	quote Currency        // currency being obtained in exchange for the base currency
	value decimal.Decimal // how many units of quote currency are needed to exchange for 1 unit of the base currency
}

// NewExchRate returns a new exchange rate between the base and quote currencies.
// The rate is kept exactly as given.
//
// NewExchRate returns an error if a currency is missing, the rate is not
// positive, or the currencies are equal and the rate is not 1.
func NewExchRate(base, quote Currency, rate decimal.Decimal) (ExchangeRate, error) {
	switch {
	case base.IsZero() || quote.IsZero():
		return ExchangeRate{}, opError("rate", fmt.Errorf("%w: missing currency", ErrInvalidOperation), base, quote, rate)
	case !rate.IsPositive():
		return ExchangeRate{}, opError("rate", fmt.Errorf("%w: exchange rate must be positive", ErrInvalidOperation), base, quote, rate)
	case base.id == quote.id && !rate.Equal(decimal.NewFromInt(1)):
		return ExchangeRate{}, opError("rate", fmt.Errorf("%w: exchange rate must be equal to 1", ErrInvalidOperation), base, quote, rate)
	}
	return ExchangeRate{base: base, quote: quote, value: rate}, nil
}

// ParseExchRate resolves both currency identifiers in the default registry
// and parses the rate.
func ParseExchRate(base, quote, rate string) (ExchangeRate, error) {
	b, err := Unit(ID(base))
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("base currency parsing: %w", err)
	}
	q, err := Unit(ID(quote))
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("quote currency parsing: %w", err)
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("rate parsing: %w", err)
	}
	return NewExchRate(b, q, d)
}

// MustParseExchRate is like [ParseExchRate] but panics if any of the strings cannot be parsed.
// It simplifies safe initialization of global variables holding exchange rates.
func MustParseExchRate(base, quote, rate string) ExchangeRate {
	r, err := ParseExchRate(base, quote, rate)
	if err != nil {
		panic(fmt.Sprintf("ParseExchRate(%q, %q, %q) failed: %v", base, quote, rate, err))
	}
	return r
}

// Base returns the currency being exchanged.
func (r ExchangeRate) Base() Currency {
	return r.base
}

// Quote returns the currency being obtained in exchange for the base currency.
func (r ExchangeRate) Quote() Currency {
	return r.quote
}

// Rate returns the number of quote units per base unit.
func (r ExchangeRate) Rate() decimal.Decimal {
	return r.value
}

// IsZero reports whether r is the zero exchange rate.
func (r ExchangeRate) IsZero() bool {
	return r.base.IsZero() && r.quote.IsZero() && r.value.IsZero()
}

// Inv returns the inverse of the exchange rate. A non-terminating inverse
// is rounded half to even to [decimal.DivisionPrecision] digits.
func (r ExchangeRate) Inv() (ExchangeRate, error) {
	if r.value.IsZero() {
		return ExchangeRate{}, opError("inv", ErrDivisionByZero, r)
	}
	q := decimal.NewFromInt(1).Rat()
	q.Quo(q, r.value.Rat())
	d, err := Context{Rounding: RoundHalfEven}.fitRat(q, AutoScaled)
	if err != nil {
		return ExchangeRate{}, opError("inv", err, r)
	}
	return ExchangeRate{base: r.quote, quote: r.base, value: d}, nil
}

// SameCurr reports whether exchange rates have the same base and quote
// currencies.
func (r ExchangeRate) SameCurr(q ExchangeRate) bool {
	return q.base == r.base && q.quote == r.quote
}

// CanConv reports whether [Context.Convert] can convert m with r.
func (r ExchangeRate) CanConv(m Money) bool {
	return !m.IsEmpty() &&
		m.curr.id == r.base.id &&
		!r.quote.IsZero() &&
		r.value.IsPositive()
}

// Convert returns m converted from the base to the quote currency of r.
// The exact product is rescaled to the nominal scale of the quote currency
// with the context rounding mode.
//
// Convert returns an error if m is not in the base currency or rounding is
// required but no rounding mode is set.
func (c Context) Convert(m Money, r ExchangeRate) (Money, error) {
	if !r.CanConv(m) {
		return Money{}, opError("convert", ErrCurrencyMismatch, m, r)
	}
	d, err := c.RescaleDecimal(m.amount.Mul(r.value), r.quote.scale)
	if err != nil {
		return Money{}, opError("convert", ErrRoundingRequired, m, r)
	}
	return Money{curr: r.quote, amount: d}, nil
}

// Convert is like [Context.Convert] with the default context.
func Convert(m Money, r ExchangeRate) (Money, error) {
	return DefaultContext().Convert(m, r)
}

// String implements the [fmt.Stringer] interface and returns a string
// such as "EUR/USD 1.2345".
func (r ExchangeRate) String() string {
	return r.base.String() + "/" + r.quote.String() + " " + decimalString(r.value)
}

// Format implements [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	%s, %v: USD/EUR 1.2345
//	%q:    "USD/EUR 1.2345"
//	%f:     1.2345
//	%c:     USD/EUR
//
// The '-' format flag can be used with all verbs.
// Precision is only supported for the %f verb.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (r ExchangeRate) Format(state fmt.State, verb rune) {
	var s string
	switch verb {
	case 's', 'S', 'v', 'V':
		s = r.String()
	case 'q', 'Q':
		s = strconv.Quote(r.String())
	case 'f', 'F':
		d := r.value
		if p, ok := state.Precision(); ok {
			d = d.RoundBank(int32(p))
		}
		s = decimalString(d)
	case 'c', 'C':
		s = r.base.String() + "/" + r.quote.String()
	default:
		s = fmt.Sprintf("%%!%c(monetary.ExchangeRate=%s)", verb, r.String())
	}
	writePadded(state, s)
}
