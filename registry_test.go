package monetary

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"
)

var (
	testUSD      = MustNewCurrency("USD", 840, 2, "FIAT")
	testEUR      = MustNewCurrency("EUR", 978, 2, "FIAT")
	testCryptoUS = MustNewCurrency("crypto/USDT", NoNumericID, 6, "FIAT-STABLECOIN")
	testTronUS   = MustNewCurrency("tron/USDT", NoNumericID, 6, "FIAT-STABLECOIN")
)

func mustRegister(t *testing.T, r *Registry, c Currency, opts ...RegisterOption) *Registry {
	t.Helper()
	s, err := r.Register(c, opts...)
	if err != nil {
		t.Fatalf("Register(%v) failed: %v", c, err)
	}
	return s
}

func TestRegistry_Register(t *testing.T) {
	t.Run("immutability", func(t *testing.T) {
		r := mustRegister(t, NewRegistry(), testUSD, WithCountries("us"))
		s := mustRegister(t, r, testEUR, WithCountries("DE", "fr"))
		if r.Len() != 1 {
			t.Errorf("Register modified the receiver: Len() = %v, want 1", r.Len())
		}
		if _, ok := r.ByCountry("DE"); ok {
			t.Errorf("Register modified countries of the receiver")
		}
		if s.Len() != 2 {
			t.Errorf("Len() = %v, want 2", s.Len())
		}
		got, ok := s.ByCountry("fr")
		if !ok || got != testEUR {
			t.Errorf("ByCountry(fr) = %v, %v, want %v, true", got, ok, testEUR)
		}
		ctrs := s.Countries("EUR")
		if !slices.Equal(ctrs, []Country{"DE", "FR"}) {
			t.Errorf("Countries(EUR) = %v, want [DE FR]", ctrs)
		}
	})

	t.Run("error", func(t *testing.T) {
		r := mustRegister(t, NewRegistry(), testUSD)
		if _, err := r.Register(testUSD); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Register(duplicate) error = %v, want %v", err, ErrInvalidConfig)
		}
		if _, err := r.Register(Currency{}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Register(zero) error = %v, want %v", err, ErrInvalidConfig)
		}
	})
}

func TestRegistry_Unregister(t *testing.T) {
	r := mustRegister(t, NewRegistry(), testUSD,
		WithCountries("US"),
		WithTraits("reserve"),
		WithLocalized("en", Properties{"name": "US Dollar"}),
	)
	s, err := r.Unregister("usd")
	if err != nil {
		t.Fatalf("Unregister(usd) failed: %v", err)
	}
	if s.Len() != 0 || s.Defined(ID("USD")) {
		t.Errorf("Unregister(usd) kept the currency")
	}
	if _, ok := s.ByCountry("US"); ok {
		t.Errorf("Unregister(usd) kept the country")
	}
	if len(s.Locales()) != 0 || len(s.Traits("USD")) != 0 {
		t.Errorf("Unregister(usd) kept localized properties or traits")
	}
	if !r.Defined(ID("USD")) {
		t.Errorf("Unregister modified the receiver")
	}
	if _, err := s.Unregister("USD"); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("Unregister(missing) error = %v, want %v", err, ErrCurrencyNotFound)
	}
}

func TestRegistry_Update(t *testing.T) {
	r := mustRegister(t, NewRegistry(), testUSD, WithCountries("US"), WithWeight(3))
	c, err := testUSD.WithScale(4)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Update(c)
	if err != nil {
		t.Fatalf("Update(%v) failed: %v", c, err)
	}
	got, _ := s.ByID("USD")
	if got.Scale() != 4 {
		t.Errorf("Update(%v): scale = %v, want 4", c, got.Scale())
	}
	if s.Weight("USD") != 3 || len(s.Countries("USD")) != 1 {
		t.Errorf("Update(%v) lost registry data", c)
	}
	if _, err := r.Update(testEUR); !errors.Is(err, ErrCurrencyNotFound) {
		t.Errorf("Update(missing) error = %v, want %v", err, ErrCurrencyNotFound)
	}
}

func TestRegistry_Weights(t *testing.T) {
	t.Run("lowest wins", func(t *testing.T) {
		r := mustRegister(t, NewRegistry(), testTronUS, WithWeight(5))
		r = mustRegister(t, r, testCryptoUS)
		got, _ := r.ByCode("usdt")
		if got != testCryptoUS {
			t.Errorf("ByCode(usdt) = %v, want %v", got, testCryptoUS)
		}
		r, err := r.SetWeight("crypto/USDT", 10)
		if err != nil {
			t.Fatalf("SetWeight failed: %v", err)
		}
		got, _ = r.ByCode("USDT")
		if got != testTronUS {
			t.Errorf("ByCode(USDT) after SetWeight = %v, want %v", got, testTronUS)
		}
	})

	t.Run("ties by identifier", func(t *testing.T) {
		r := mustRegister(t, NewRegistry(), testTronUS)
		r = mustRegister(t, r, testCryptoUS)
		got, _ := r.ByCode("USDT")
		if got != testCryptoUS {
			t.Errorf("ByCode(USDT) = %v, want %v", got, testCryptoUS)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := mustRegister(t, mustRegister(t, NewRegistry(), testTronUS), testCryptoUS)
		b := mustRegister(t, mustRegister(t, NewRegistry(), testCryptoUS), testTronUS)
		for range 10 {
			ca, _ := a.ByCode("USDT")
			cb, _ := b.ByCode("USDT")
			if ca != cb {
				t.Fatalf("ByCode(USDT) depends on registration order: %v and %v", ca, cb)
			}
			if !slices.Equal(a.CodeBucket("USDT"), b.CodeBucket("USDT")) {
				t.Fatalf("CodeBucket(USDT) depends on registration order")
			}
		}
	})

	t.Run("numeric", func(t *testing.T) {
		legacy := MustNewCurrency("BYR", 974, 0, "FIAT")
		other := MustNewCurrency("XBY", 974, 0, "FIAT")
		r := mustRegister(t, NewRegistry(), legacy)
		r = mustRegister(t, r, other, WithWeight(-1))
		got, _ := r.ByNumeric(974)
		if got != other {
			t.Errorf("ByNumeric(974) = %v, want %v", got, other)
		}
		if b := r.NumericBucket(974); len(b) != 2 || b[0] != other || b[1] != legacy {
			t.Errorf("NumericBucket(974) = %v, want [%v %v]", b, other, legacy)
		}
	})
}

// Every canonical entry must be the head of its bucket.
func TestRegistry_Consistency(t *testing.T) {
	r := Default()
	for _, c := range r.Currencies() {
		got, ok := r.ByCode(c.Code())
		if !ok {
			t.Errorf("ByCode(%v) not found", c.Code())
			continue
		}
		if b := r.CodeBucket(c.Code()); b[0] != got {
			t.Errorf("ByCode(%v) = %v, bucket head = %v", c.Code(), got, b[0])
		}
		if !slices.Contains(r.CodeBucket(c.Code()), c) {
			t.Errorf("CodeBucket(%v) does not contain %v", c.Code(), c)
		}
		if c.HasNumeric() {
			got, _ := r.ByNumeric(c.Numeric())
			if b := r.NumericBucket(c.Numeric()); b[0] != got {
				t.Errorf("ByNumeric(%v) = %v, bucket head = %v", c.Numeric(), got, b[0])
			}
		}
	}
}

func TestRegistry_Traits(t *testing.T) {
	r := mustRegister(t, NewRegistry(), testCryptoUS, WithTraits("token/erc20", "fiat-backed", "token/erc20"))
	if got := r.Traits("crypto/usdt"); !slices.Equal(got, []Tag{"fiat-backed", "token/erc20"}) {
		t.Errorf("Traits() = %v, want [fiat-backed token/erc20]", got)
	}
	r, err := r.AddTraits("crypto/USDT", "token/trc20")
	if err != nil {
		t.Fatal(err)
	}
	r, err = r.RemoveTraits("crypto/USDT", "fiat-backed")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Traits("crypto/USDT"); !slices.Equal(got, []Tag{"token/erc20", "token/trc20"}) {
		t.Errorf("Traits() = %v, want [token/erc20 token/trc20]", got)
	}
	r, err = r.SetTraits("crypto/USDT")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Traits("crypto/USDT"); len(got) != 0 {
		t.Errorf("Traits() after SetTraits() = %v, want []", got)
	}
}

func TestRegistry_Localized(t *testing.T) {
	r := mustRegister(t, NewRegistry(), testEUR, WithLocalized("en", Properties{"name": "Euro"}))
	r = mustRegister(t, r, testUSD, WithLocalized("pl", Properties{"name": "dolar"}))
	r, err := r.SetLocalized("EUR", "pl", Properties{"name": "euro"})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Locales(); !slices.Equal(got, []Locale{"en", "pl"}) {
		t.Errorf("Locales() = %v, want [en pl]", got)
	}
	if got := r.LocaleIndex("pl"); !slices.Equal(got, []ID{"EUR", "USD"}) {
		t.Errorf("LocaleIndex(pl) = %v, want [EUR USD]", got)
	}
	if got := r.Localized("EUR")["pl"]["name"]; got != "euro" {
		t.Errorf("Localized(EUR)[pl][name] = %q, want %q", got, "euro")
	}
	r, err = r.SetLocalized("EUR", "en", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.LocaleIndex("en"); len(got) != 0 {
		t.Errorf("LocaleIndex(en) = %v, want []", got)
	}
}

func TestRegistry_Countries(t *testing.T) {
	r := mustRegister(t, NewRegistry(), testUSD, WithCountries("US", "EC"))
	r = mustRegister(t, r, testEUR)
	r, err := r.SetCountries("EUR", "EC", "DE")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Countries("USD"); !slices.Equal(got, []Country{"US"}) {
		t.Errorf("Countries(USD) = %v, want [US]", got)
	}
	r = r.RemoveCountries("de", "XX")
	if got := r.Countries("EUR"); !slices.Equal(got, []Country{"EC"}) {
		t.Errorf("Countries(EUR) = %v, want [EC]", got)
	}
}

func TestRegistry_Hierarchy(t *testing.T) {
	r := NewRegistry().WithVersion("test").WithExt("source", "unit")
	r, err := r.DeriveHierarchy(AxisKind, "FIAT", "FIDUCIARY")
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsA(AxisKind, "FIAT", "FIDUCIARY") {
		t.Errorf("IsA(kind, FIAT, FIDUCIARY) = false, want true")
	}
	if _, err := r.DeriveHierarchy(AxisKind, "FIDUCIARY", "FIAT"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("DeriveHierarchy(cycle) error = %v, want %v", err, ErrInvalidConfig)
	}
	if r.WithHierarchy(AxisKind, nil).Hierarchy(AxisKind) != nil {
		t.Errorf("WithHierarchy(kind, nil) kept the hierarchy")
	}
	if v, ok := r.Ext("source"); !ok || v != "unit" {
		t.Errorf("Ext(source) = %v, %v, want unit, true", v, ok)
	}
	if r.Version() != "test" {
		t.Errorf("Version() = %q, want %q", r.Version(), "test")
	}
}

func TestRegistry_Default(t *testing.T) {
	r := Default()
	tests := []struct {
		code string
		want ID
	}{
		{"USD", "USD"},
		{"BTC", "crypto/BTC"},
		{"USDT", "crypto/USDT"},
	}
	for _, tt := range tests {
		got, ok := r.ByCode(tt.code)
		if !ok || got.ID() != tt.want {
			t.Errorf("ByCode(%q) = %v, %v, want %v", tt.code, got, ok, tt.want)
		}
	}
	byr, _ := r.ByNumeric(974)
	if byr.ID() != "BYR" || byr.IsISO() {
		t.Errorf("ByNumeric(974) = %v in %v, want legacy BYR", byr, byr.Domain())
	}
	if got, _ := r.ByCountry("BY"); got.ID() != "BYN" {
		t.Errorf("ByCountry(BY) = %v, want BYN", got)
	}
	if xau, _ := r.ByID("XAU"); !xau.IsAutoScaled() {
		t.Errorf("XAU.IsAutoScaled() = false, want true")
	}
	if r.Version() == "" {
		t.Errorf("Version() is empty")
	}
}

func TestBuild(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		tests := []string{
			"currencies: [{id: USD}, {id: usd}]",
			"currencies: [{id: USD}]\ncountries: {US: EUR}",
			"currencies: [{id: USD}]\ntraits: {EUR: [x]}",
			"currencies: [{id: USD}]\nweights: {EUR: 1}",
			"currencies: [{id: USD}]\nlocalized: {EUR: {en: {name: Euro}}}",
			"currencies: [{id: USD, scale: -3}]",
			"currencies: [{id: crypto/X, domain: TRON}]",
			"currencies: [{id: USD}]\nhierarchies: {kind: {A: B, B: A}}",
		}
		for _, doc := range tests {
			cfg, err := ParseRegistryConfig([]byte(doc))
			if err != nil {
				t.Errorf("ParseRegistryConfig(%q) failed: %v", doc, err)
				continue
			}
			if _, err := Build(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Build(%q) error = %v, want %v", doc, err, ErrInvalidConfig)
			}
		}
	})

	t.Run("weights", func(t *testing.T) {
		doc := `
currencies:
  - {id: crypto/USDT, scale: 6, weight: 3}
  - {id: tron/USDT, scale: 6}
weights:
  crypto/USDT: 0
  tron/USDT: -1
`
		cfg, err := ParseRegistryConfig([]byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		r, err := Build(cfg)
		if err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
		if w := r.Weight("crypto/USDT"); w != 0 {
			t.Errorf("Weight(crypto/USDT) = %v, want 0", w)
		}
		if got, _ := r.ByCode("USDT"); got.ID() != "tron/USDT" {
			t.Errorf("ByCode(USDT) = %v, want tron/USDT", got)
		}
	})
}

func TestLoadRegistryConfig(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadRegistryConfig(strings.NewReader("currencies: []\ncolour: red\n"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadRegistryConfig() error = %v, want %v", err, ErrInvalidConfig)
		}
	})

	t.Run("empty", func(t *testing.T) {
		cfg, err := LoadRegistryConfig(strings.NewReader(""))
		if err != nil {
			t.Fatalf("LoadRegistryConfig(\"\") failed: %v", err)
		}
		r, err := Build(cfg)
		if err != nil || r.Len() != 0 {
			t.Errorf("Build(empty) = %v, %v, want empty registry", r, err)
		}
	})

	t.Run("json", func(t *testing.T) {
		doc := `{"currencies": [{"id": "EUR", "numeric": 978, "scale": 2, "kind": "FIAT"}], "traits": {"EUR": "reserve"}}`
		cfg, err := LoadRegistryConfig(strings.NewReader(doc))
		if err != nil {
			t.Fatalf("LoadRegistryConfig(json) failed: %v", err)
		}
		r, err := Build(cfg)
		if err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
		eur, _ := r.ByID("EUR")
		if !eur.IsISO() || eur.Scale() != 2 {
			t.Errorf("EUR = %+v, want ISO currency with scale 2", eur.Fields())
		}
		if got := r.Traits("EUR"); !slices.Equal(got, []Tag{"reserve"}) {
			t.Errorf("Traits(EUR) = %v, want [reserve]", got)
		}
	})
}

func TestRegistry_Config(t *testing.T) {
	r := Default()
	s, err := Build(r.Config())
	if err != nil {
		t.Fatalf("Build(Default().Config()) failed: %v", err)
	}
	if !slices.Equal(r.Currencies(), s.Currencies()) {
		t.Errorf("currencies differ after a round trip")
	}
	if s.Version() != r.Version() {
		t.Errorf("Version() = %q, want %q", s.Version(), r.Version())
	}
	for _, c := range r.Currencies() {
		if r.Weight(c.ID()) != s.Weight(c.ID()) {
			t.Errorf("Weight(%v) = %v, want %v", c, s.Weight(c.ID()), r.Weight(c.ID()))
		}
		if !slices.Equal(r.Traits(c.ID()), s.Traits(c.ID())) {
			t.Errorf("Traits(%v) = %v, want %v", c, s.Traits(c.ID()), r.Traits(c.ID()))
		}
		if !slices.Equal(r.Countries(c.ID()), s.Countries(c.ID())) {
			t.Errorf("Countries(%v) = %v, want %v", c, s.Countries(c.ID()), r.Countries(c.ID()))
		}
		if !maps.EqualFunc(r.Localized(c.ID()), s.Localized(c.ID()), maps.Equal[Properties, Properties]) {
			t.Errorf("Localized(%v) differs", c)
		}
	}
	for axis, h := range r.Hierarchies() {
		if !maps.EqualFunc(h.Edges(), s.Hierarchy(axis).Edges(), slices.Equal[[]Tag]) {
			t.Errorf("Hierarchy(%v) differs", axis)
		}
	}
}
