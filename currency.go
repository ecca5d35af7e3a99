package monetary

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

const (
	// NoNumericID marks a currency without a numeric identifier.
	NoNumericID int64 = -1

	// AutoScaled marks a currency without a fixed number of decimal places.
	// Amounts in such a currency carry their own scale.
	AutoScaled = -1

	// DomainISO4217 is the domain of currencies defined by the ISO 4217
	// standard. The matching namespace is stripped from identifiers.
	DomainISO4217 Tag = "ISO-4217"

	isoNamespace = "iso-4217"
)

// ID is a canonical currency identifier: either a bare code such as "EUR",
// or a namespaced code such as "crypto/ETH".
// Codes are upper case and namespaces are lower case.
type ID string

// ParseID canonicalizes a currency identifier.
// The code is upper-cased, the namespace lower-cased, and the reserved
// "iso-4217" namespace is removed.
func ParseID(s string) ID {
	ns, code := splitID(s)
	if code == "" {
		return ""
	}
	if ns == "" || ns == isoNamespace {
		return ID(code)
	}
	return ID(ns + "/" + code)
}

func splitID(s string) (ns, code string) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		ns, code = s[:i], s[i+1:]
	} else {
		code = s
	}
	return strings.ToLower(strings.TrimSpace(ns)), strings.ToUpper(strings.TrimSpace(code))
}

// Code returns the identifier without its namespace.
func (id ID) Code() string {
	_, code := splitID(string(id))
	return code
}

// Namespace returns the namespace of the identifier, or an empty string.
func (id ID) Namespace() string {
	ns, _ := splitID(string(id))
	return ns
}

// String implements the [fmt.Stringer] interface.
func (id ID) String() string {
	return string(id)
}

// Tag is a classification tag on one of the registry axes, such as a domain
// ("ISO-4217", "CRYPTO"), a kind ("FIAT") or a trait ("token/erc20").
type Tag string

// Currency represents a unit of account.
// The zero value denotes the absence of a currency.
//
// Currency is a small comparable value, safe for concurrent use by
// multiple goroutines. Two currencies are equal when their identifier,
// numeric identifier, scale, kind and domain are equal.
// Registry weights are not part of a currency.
type Currency struct {
	id      ID
	numeric int64
	scale   int
	kind    Tag
	domain  Tag
}

// CurrencyFields is the field set of a [Currency].
// Use [NoNumericID] and [AutoScaled] for absent values.
type CurrencyFields struct {
	ID      string
	Numeric int64
	Scale   int
	Kind    Tag
	Domain  Tag
}

// NewCurrency returns a currency with the given identifier, numeric
// identifier, scale and kind.
// The domain is derived from the namespace of the identifier.
// An identifier without a namespace consisting of three letters and
// accompanied by a numeric identifier is treated as an ISO 4217 code.
//
// NewCurrency returns the zero Currency if id is empty.
// It returns an error if the numeric identifier or scale is less than -1.
func NewCurrency(id string, numeric int64, scale int, kind Tag) (Currency, error) {
	return NewCurrencyFromFields(CurrencyFields{
		ID:      id,
		Numeric: numeric,
		Scale:   scale,
		Kind:    kind,
	})
}

// MustNewCurrency is like [NewCurrency] but panics if the currency cannot be
// constructed. It simplifies safe initialization of global variables.
func MustNewCurrency(id string, numeric int64, scale int, kind Tag) Currency {
	c, err := NewCurrency(id, numeric, scale, kind)
	if err != nil {
		panic(fmt.Sprintf("NewCurrency(%q, %v, %v, %q) failed: %v", id, numeric, scale, kind, err))
	}
	return c
}

// NewCurrencyFromFields returns a currency built from a field set.
// An explicit domain is used only for identifiers without a namespace,
// and must agree with the namespace otherwise.
func NewCurrencyFromFields(f CurrencyFields) (Currency, error) {
	ns, code := splitID(f.ID)
	if code == "" {
		return Currency{}, nil
	}
	if f.Numeric < NoNumericID {
		return Currency{}, configError("numeric id %v of %q", f.Numeric, f.ID)
	}
	if f.Scale < AutoScaled {
		return Currency{}, configError("scale %v of %q", f.Scale, f.ID)
	}
	dom := Tag(strings.ToUpper(strings.TrimSpace(string(f.Domain))))
	var id ID
	switch {
	case ns == isoNamespace:
		if dom != "" && dom != DomainISO4217 {
			return Currency{}, configError("domain %v conflicts with namespace of %q", dom, f.ID)
		}
		id, dom = ID(code), DomainISO4217
	case ns != "":
		if dom != "" && dom != Tag(strings.ToUpper(ns)) {
			return Currency{}, configError("domain %v conflicts with namespace of %q", dom, f.ID)
		}
		id, dom = ID(ns+"/"+code), Tag(strings.ToUpper(ns))
	default:
		id = ID(code)
		if dom == "" && f.Numeric != NoNumericID && isISOCode(code) {
			dom = DomainISO4217
		}
	}
	return Currency{
		id:      id,
		numeric: f.Numeric,
		scale:   f.Scale,
		kind:    Tag(strings.TrimSpace(string(f.Kind))),
		domain:  dom,
	}, nil
}

func isISOCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// ID returns the canonical identifier of the currency.
func (c Currency) ID() ID {
	return c.id
}

// Code returns the identifier without its namespace.
func (c Currency) Code() string {
	return c.id.Code()
}

// Numeric returns the numeric identifier, or [NoNumericID].
func (c Currency) Numeric() int64 {
	return c.numeric
}

// HasNumeric reports whether the currency has a numeric identifier.
func (c Currency) HasNumeric() bool {
	return c.numeric != NoNumericID
}

// Scale returns the nominal number of digits after the decimal point,
// or [AutoScaled].
func (c Currency) Scale() int {
	return c.scale
}

// IsAutoScaled reports whether the currency has no nominal scale.
func (c Currency) IsAutoScaled() bool {
	return c.scale == AutoScaled
}

// Kind returns the kind tag of the currency. It may be empty.
func (c Currency) Kind() Tag {
	return c.kind
}

// Domain returns the domain tag of the currency. It may be empty.
func (c Currency) Domain() Tag {
	return c.domain
}

// IsISO reports whether the currency belongs to the ISO 4217 domain.
func (c Currency) IsISO() bool {
	return c.domain == DomainISO4217
}

// IsZero reports whether c is the zero Currency.
func (c Currency) IsZero() bool {
	return c == Currency{}
}

// Curr returns c itself, which makes Currency a [Denominated] value.
func (c Currency) Curr() Currency {
	return c
}

// Fields returns the field set of the currency.
// Identifiers in the ISO 4217 domain are returned without a namespace.
func (c Currency) Fields() CurrencyFields {
	return CurrencyFields{
		ID:      string(c.id),
		Numeric: c.numeric,
		Scale:   c.scale,
		Kind:    c.kind,
		Domain:  c.domain,
	}
}

// WithScale returns a copy of the currency with a different nominal scale.
func (c Currency) WithScale(scale int) (Currency, error) {
	if scale < AutoScaled {
		return Currency{}, configError("scale %v of %q", scale, c.id)
	}
	c.scale = scale
	return c, nil
}

// String implements the [fmt.Stringer] interface and returns the identifier.
func (c Currency) String() string {
	return string(c.id)
}

// MarshalText implements the [encoding.TextMarshaler] interface.
//
// [encoding.TextMarshaler]: https://pkg.go.dev/encoding#TextMarshaler
func (c Currency) MarshalText() ([]byte, error) {
	return []byte(c.id), nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// The identifier is resolved in the default registry; unknown identifiers
// are rejected rather than fabricated.
//
// [encoding.TextUnmarshaler]: https://pkg.go.dev/encoding#TextUnmarshaler
func (c *Currency) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = Currency{}
		return nil
	}
	u, err := Unit(ID(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Currency{}, err)
	}
	*c = u
	return nil
}

// Scan implements the [sql.Scanner] interface.
// The scanned identifier is resolved in the default registry.
//
// [sql.Scanner]: https://pkg.go.dev/database/sql#Scanner
func (c *Currency) Scan(value any) error {
	var err error
	switch value := value.(type) {
	case string:
		err = c.UnmarshalText([]byte(value))
	case []byte:
		err = c.UnmarshalText(value)
	case nil:
		*c = Currency{}
	default:
		err = fmt.Errorf("type %T is not supported", value)
	}
	if err != nil {
		err = fmt.Errorf("converting from %T to %T: %w", value, Currency{}, err)
	}
	return err
}

// Value implements the [driver.Valuer] interface.
// The zero Currency is stored as NULL.
//
// [driver.Valuer]: https://pkg.go.dev/database/sql/driver#Valuer
func (c Currency) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return string(c.id), nil
}
