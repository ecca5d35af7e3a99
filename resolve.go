package monetary

import (
	"fmt"
	"slices"
	"strings"
)

// Hint is a loosely specified reference to a currency.
// It is one of [ID], [NumericID], [Currency] or [Mask].
type Hint interface {
	hint()
}

func (ID) hint()        {}
func (NumericID) hint() {}
func (Currency) hint()  {}
func (Mask) hint()      {}

// NumericID is a hint that refers to a currency by its numeric identifier.
// Numeric hints always fail when nothing matches, even in soft resolution.
type NumericID int64

type maskField uint8

const (
	maskID maskField = 1 << iota
	maskCode
	maskNumeric
	maskScale
	maskKind
	maskDomain
)

// Mask is a hint that selects currencies matching any of its fields.
// The zero Mask matches nothing. Build masks with the With methods:
//
//	monetary.Mask{}.WithCode("USDT").WithScale(6)
type Mask struct {
	set     maskField
	id      ID
	code    string
	numeric int64
	scale   int
	kind    Tag
	domain  Tag
}

// MaskFromFields returns a mask with every present field of f set.
func MaskFromFields(f CurrencyFields) Mask {
	var m Mask
	if f.ID != "" {
		m = m.WithID(f.ID)
	}
	if f.Numeric != NoNumericID {
		m = m.WithNumeric(f.Numeric)
	}
	if f.Scale != AutoScaled {
		m = m.WithScale(f.Scale)
	}
	if f.Kind != "" {
		m = m.WithKind(f.Kind)
	}
	if f.Domain != "" {
		m = m.WithDomain(f.Domain)
	}
	return m
}

// WithID returns a copy of m that matches an exact identifier.
func (m Mask) WithID(id string) Mask {
	m.set |= maskID
	m.id = ParseID(id)
	return m
}

// WithCode returns a copy of m that matches a code in any namespace.
func (m Mask) WithCode(code string) Mask {
	m.set |= maskCode
	m.code = strings.ToUpper(strings.TrimSpace(code))
	return m
}

// WithNumeric returns a copy of m that matches a numeric identifier.
func (m Mask) WithNumeric(num int64) Mask {
	m.set |= maskNumeric
	m.numeric = num
	return m
}

// WithScale returns a copy of m that matches a nominal scale.
func (m Mask) WithScale(scale int) Mask {
	m.set |= maskScale
	m.scale = scale
	return m
}

// WithKind returns a copy of m that matches a kind exactly.
func (m Mask) WithKind(kind Tag) Mask {
	m.set |= maskKind
	m.kind = kind
	return m
}

// WithDomain returns a copy of m that matches a domain exactly.
func (m Mask) WithDomain(dom Tag) Mask {
	m.set |= maskDomain
	m.domain = Tag(strings.ToUpper(string(dom)))
	return m
}

// IsZero reports whether no field of the mask is set.
func (m Mask) IsZero() bool {
	return m.set == 0
}

func (m Mask) fieldMatches(f maskField, c Currency) bool {
	switch f {
	case maskID:
		return c.id == m.id
	case maskCode:
		return c.Code() == m.code
	case maskNumeric:
		return c.numeric == m.numeric
	case maskScale:
		return c.scale == m.scale
	case maskKind:
		return c.kind == m.kind
	case maskDomain:
		return c.domain == m.domain
	}
	return false
}

func (m Mask) matchesAny(c Currency) bool {
	for f := maskID; f <= maskDomain; f <<= 1 {
		if m.set&f != 0 && m.fieldMatches(f, c) {
			return true
		}
	}
	return false
}

func (m Mask) matchesAll(c Currency) bool {
	for f := maskID; f <= maskDomain; f <<= 1 {
		if m.set&f != 0 && !m.fieldMatches(f, c) {
			return false
		}
	}
	return true
}

// String implements the [fmt.Stringer] interface.
func (m Mask) String() string {
	var parts []string
	if m.set&maskID != 0 {
		parts = append(parts, "id="+string(m.id))
	}
	if m.set&maskCode != 0 {
		parts = append(parts, "code="+m.code)
	}
	if m.set&maskNumeric != 0 {
		parts = append(parts, fmt.Sprintf("numeric=%d", m.numeric))
	}
	if m.set&maskScale != 0 {
		parts = append(parts, fmt.Sprintf("scale=%d", m.scale))
	}
	if m.set&maskKind != 0 {
		parts = append(parts, "kind="+string(m.kind))
	}
	if m.set&maskDomain != 0 {
		parts = append(parts, "domain="+string(m.domain))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// resolve looks a hint up. The error is set only for numeric misses.
func (r *Registry) resolve(h Hint) (Currency, bool, error) {
	r = r.orDefault()
	switch h := h.(type) {
	case nil:
		return Currency{}, false, nil
	case ID:
		id := ParseID(string(h))
		if id == "" {
			return Currency{}, false, nil
		}
		if c, ok := r.curs[id]; ok {
			return c, true, nil
		}
		if id.Namespace() == "" {
			c, ok := r.byCode[string(id)]
			return c, ok, nil
		}
		return Currency{}, false, nil
	case NumericID:
		if c, ok := r.byNumeric[int64(h)]; ok {
			return c, true, nil
		}
		return Currency{}, false, opError("resolve", ErrCurrencyNotFound, h)
	case Currency:
		if h.IsZero() {
			return Currency{}, false, nil
		}
		c, ok := r.curs[h.id]
		return c, ok, nil
	case Mask:
		if h.IsZero() {
			return Currency{}, false, nil
		}
		var found []Currency
		for _, c := range r.curs {
			if h.matchesAny(c) {
				found = append(found, c)
			}
		}
		if len(found) == 0 {
			return Currency{}, false, nil
		}
		return slices.MinFunc(found, r.byWeight), true, nil
	}
	return Currency{}, false, nil
}

// Resolve returns the currency a hint refers to, or the zero Currency if
// there is none. Bare codes and numeric identifiers are resolved to the
// lowest-weight currency sharing them.
//
// Resolve returns an error only for [NumericID] hints that match nothing.
func (r *Registry) Resolve(h Hint) (Currency, error) {
	c, _, err := r.resolve(h)
	return c, err
}

// Unit is like [Registry.Resolve] but returns an error wrapping
// [ErrCurrencyNotFound] if nothing matches.
func (r *Registry) Unit(h Hint) (Currency, error) {
	c, ok, err := r.resolve(h)
	if err != nil || !ok {
		return Currency{}, opError("unit", ErrCurrencyNotFound, h)
	}
	return c, nil
}

// MustUnit is like [Registry.Unit] but panics if nothing matches.
func (r *Registry) MustUnit(h Hint) Currency {
	c, err := r.Unit(h)
	if err != nil {
		panic(err)
	}
	return c
}

// Defined reports whether the hint refers to a currency in the registry.
func (r *Registry) Defined(h Hint) bool {
	_, ok, _ := r.resolve(h)
	return ok
}

// Present reports whether the hint refers to a currency in the registry and
// every field given by the hint equals the field of that currency.
func (r *Registry) Present(h Hint) bool {
	c, ok, _ := r.resolve(h)
	if !ok {
		return false
	}
	switch h := h.(type) {
	case ID:
		id := ParseID(string(h))
		if id.Namespace() == "" {
			return c.Code() == string(id)
		}
		return c.id == id
	case Currency:
		return c == h
	case Mask:
		return h.matchesAll(c)
	}
	return true
}

// Resolve resolves a hint in the default registry.
// A [Currency] hint is returned as is.
// See [Registry.Resolve].
func Resolve(h Hint) (Currency, error) {
	if c, ok := h.(Currency); ok {
		return c, nil
	}
	return Default().Resolve(h)
}

// Unit resolves a hint in the default registry, failing if nothing matches.
// A non-zero [Currency] hint is returned as is.
// See [Registry.Unit].
func Unit(h Hint) (Currency, error) {
	if c, ok := h.(Currency); ok && !c.IsZero() {
		return c, nil
	}
	return Default().Unit(h)
}

// MustUnit is like [Unit] but panics if nothing matches.
// It simplifies safe initialization of global variables holding currencies.
func MustUnit(h Hint) Currency {
	c, err := Unit(h)
	if err != nil {
		panic(fmt.Sprintf("Unit(%v) failed: %v", h, err))
	}
	return c
}

// Defined reports whether the hint refers to a currency in the default
// registry.
func Defined(h Hint) bool {
	return Default().Defined(h)
}

// Present reports whether the hint matches a currency of the default
// registry field by field. See [Registry.Present].
func Present(h Hint) bool {
	return Default().Present(h)
}
