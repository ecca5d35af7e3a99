package monetary

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Allocate splits the amount into parts proportional to the ratios.
// The parts always sum up exactly to the original amount.
//
// Each share is truncated toward zero at the larger of the amount scale and
// the nominal scale of the currency. The remainder is then handed out one
// unit in the last place at a time, starting from the first part.
//
// Allocate returns an error if there are no ratios or a ratio is not
// positive.
func (m Money) Allocate(ratios ...int) ([]Money, error) {
	r, err := m.allocate(ratios)
	if err != nil {
		return nil, opError("allocate", err, m, ratios)
	}
	return r, nil
}

// Distribute splits the amount into n parts that are as equal as possible.
// The remainder is given to the first parts.
func (m Money) Distribute(n int) ([]Money, error) {
	if n <= 0 {
		return nil, opError("distribute", fmt.Errorf("%w: number of parts must be positive", ErrInvalidOperation), m, n)
	}
	ratios := make([]int, n)
	for i := range ratios {
		ratios[i] = 1
	}
	r, err := m.allocate(ratios)
	if err != nil {
		return nil, opError("distribute", err, m, n)
	}
	return r, nil
}

func (m Money) allocate(ratios []int) ([]Money, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("%w: no ratios", ErrInvalidOperation)
	}
	total := new(big.Int)
	for _, r := range ratios {
		if r <= 0 {
			return nil, fmt.Errorf("%w: ratio %v must be positive", ErrInvalidOperation, r)
		}
		total.Add(total, big.NewInt(int64(r)))
	}

	// Units in the last place
	scale := max(m.Scale(), m.curr.scale)
	units := m.amount.Shift(int32(scale)).BigInt()

	// Shares
	shares := make([]*big.Int, len(ratios))
	rem := new(big.Int).Set(units)
	for i, r := range ratios {
		s := new(big.Int).Mul(units, big.NewInt(int64(r)))
		s.Quo(s, total)
		shares[i] = s
		rem.Sub(rem, s)
	}

	// Remainder distribution
	ulp := big.NewInt(int64(rem.Sign()))
	for i := 0; rem.Sign() != 0; i++ {
		shares[i].Add(shares[i], ulp)
		rem.Sub(rem, ulp)
	}

	res := make([]Money, len(shares))
	for i, s := range shares {
		res[i] = Money{curr: m.curr, amount: decimal.NewFromBigInt(s, -int32(scale))}
	}
	return res, nil
}

// Allocate is like [Money.Allocate].
func Allocate(m Money, ratios ...int) ([]Money, error) {
	return m.Allocate(ratios...)
}

// Distribute is like [Money.Distribute].
func Distribute(m Money, n int) ([]Money, error) {
	return m.Distribute(n)
}
