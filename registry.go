package monetary

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// Country is an upper-case country identifier, such as "PL".
type Country string

// Locale identifies a set of localized currency properties, such as "en"
// or "pl_PL".
type Locale string

// Properties holds localized properties of a currency, such as its name
// or symbol.
type Properties map[string]string

// Registry is an immutable database of currencies.
//
// It keeps currencies by identifier together with their countries,
// localized properties, traits and weights, and derives lookup indices by
// code and numeric identifier from them. When several currencies share a
// code or a numeric identifier, the one with the lowest weight (and then
// the lowest identifier) is the canonical entry.
//
// Registry values are never modified: every update returns a new Registry
// with all derived indices recomputed. A nil *Registry stands for the
// default registry, see [Default].
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	version string

	// base maps
	curs      map[ID]Currency
	countries map[Country]ID
	localized map[ID]map[Locale]Properties
	traits    map[ID][]Tag
	weights   map[ID]int
	hier      map[Axis]*Hierarchy
	ext       map[string]any

	// derived indices
	codeBucket    map[string][]Currency
	numericBucket map[int64][]Currency
	byCode        map[string]Currency
	byNumeric     map[int64]Currency
	curCountries  map[ID][]Country
	locales       map[Locale][]ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		curs:      map[ID]Currency{},
		countries: map[Country]ID{},
		localized: map[ID]map[Locale]Properties{},
		traits:    map[ID][]Tag{},
		weights:   map[ID]int{},
		hier:      map[Axis]*Hierarchy{},
		ext:       map[string]any{},
	}
	r.index()
	return r
}

// clone returns a registry sharing nothing mutable at the top level with r.
// Nested values are treated as immutable and replaced, never edited.
func (r *Registry) clone() *Registry {
	return &Registry{
		version:   r.version,
		curs:      maps.Clone(r.curs),
		countries: maps.Clone(r.countries),
		localized: maps.Clone(r.localized),
		traits:    maps.Clone(r.traits),
		weights:   maps.Clone(r.weights),
		hier:      maps.Clone(r.hier),
		ext:       maps.Clone(r.ext),
	}
}

// index recomputes every derived index from the base maps.
func (r *Registry) index() {
	r.codeBucket = make(map[string][]Currency)
	r.numericBucket = make(map[int64][]Currency)
	for _, c := range r.curs {
		r.codeBucket[c.Code()] = append(r.codeBucket[c.Code()], c)
		if c.HasNumeric() {
			r.numericBucket[c.numeric] = append(r.numericBucket[c.numeric], c)
		}
	}
	r.byCode = make(map[string]Currency, len(r.codeBucket))
	for code, b := range r.codeBucket {
		slices.SortFunc(b, r.byWeight)
		r.byCode[code] = b[0]
	}
	r.byNumeric = make(map[int64]Currency, len(r.numericBucket))
	for num, b := range r.numericBucket {
		slices.SortFunc(b, r.byWeight)
		r.byNumeric[num] = b[0]
	}

	r.curCountries = make(map[ID][]Country)
	for ctr, id := range r.countries {
		r.curCountries[id] = append(r.curCountries[id], ctr)
	}
	for _, cs := range r.curCountries {
		slices.Sort(cs)
	}

	r.locales = make(map[Locale][]ID)
	for id, byLocale := range r.localized {
		for l := range byLocale {
			r.locales[l] = append(r.locales[l], id)
		}
	}
	for _, ids := range r.locales {
		slices.Sort(ids)
	}
}

// byWeight orders currencies by weight and then by identifier.
func (r *Registry) byWeight(a, b Currency) int {
	if c := cmp.Compare(r.weights[a.id], r.weights[b.id]); c != 0 {
		return c
	}
	return strings.Compare(string(a.id), string(b.id))
}

func (r *Registry) orDefault() *Registry {
	if r == nil {
		return Default()
	}
	return r
}

// Version returns the version label of the registry description.
func (r *Registry) Version() string {
	return r.orDefault().version
}

// Len returns the number of currencies in the registry.
func (r *Registry) Len() int {
	return len(r.orDefault().curs)
}

// Currencies returns all currencies sorted by identifier.
func (r *Registry) Currencies() []Currency {
	r = r.orDefault()
	res := make([]Currency, 0, len(r.curs))
	for _, c := range r.curs {
		res = append(res, c)
	}
	slices.SortFunc(res, func(a, b Currency) int {
		return strings.Compare(string(a.id), string(b.id))
	})
	return res
}

// ByID returns the currency with the given canonical identifier.
func (r *Registry) ByID(id ID) (Currency, bool) {
	c, ok := r.orDefault().curs[ParseID(string(id))]
	return c, ok
}

// ByCode returns the canonical currency for a code, that is the member of
// the code bucket with the lowest weight.
func (r *Registry) ByCode(code string) (Currency, bool) {
	c, ok := r.orDefault().byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// CodeBucket returns every currency sharing the code, ordered by weight and
// then by identifier.
func (r *Registry) CodeBucket(code string) []Currency {
	return slices.Clone(r.orDefault().codeBucket[strings.ToUpper(strings.TrimSpace(code))])
}

// ByNumeric returns the canonical currency for a numeric identifier.
func (r *Registry) ByNumeric(num int64) (Currency, bool) {
	c, ok := r.orDefault().byNumeric[num]
	return c, ok
}

// NumericBucket returns every currency sharing the numeric identifier,
// ordered by weight and then by identifier.
func (r *Registry) NumericBucket(num int64) []Currency {
	return slices.Clone(r.orDefault().numericBucket[num])
}

// ByCountry returns the currency used in a country.
func (r *Registry) ByCountry(ctr Country) (Currency, bool) {
	r = r.orDefault()
	id, ok := r.countries[normCountry(ctr)]
	if !ok {
		return Currency{}, false
	}
	c, ok := r.curs[id]
	return c, ok
}

// Countries returns the countries using the currency, sorted.
func (r *Registry) Countries(id ID) []Country {
	return slices.Clone(r.orDefault().curCountries[ParseID(string(id))])
}

// Localized returns the localized properties of a currency by locale.
// The returned map must not be modified.
func (r *Registry) Localized(id ID) map[Locale]Properties {
	return r.orDefault().localized[ParseID(string(id))]
}

// Locales returns every locale with localized properties, sorted.
func (r *Registry) Locales() []Locale {
	r = r.orDefault()
	res := make([]Locale, 0, len(r.locales))
	for l := range r.locales {
		res = append(res, l)
	}
	slices.Sort(res)
	return res
}

// LocaleIndex returns the identifiers of currencies localized for a locale.
func (r *Registry) LocaleIndex(l Locale) []ID {
	return slices.Clone(r.orDefault().locales[l])
}

// Traits returns the traits assigned to a currency, sorted.
func (r *Registry) Traits(id ID) []Tag {
	return slices.Clone(r.orDefault().traits[ParseID(string(id))])
}

// Weight returns the weight of a currency. Unweighted currencies have
// weight 0.
func (r *Registry) Weight(id ID) int {
	return r.orDefault().weights[ParseID(string(id))]
}

// Hierarchy returns the hierarchy of an axis, or nil.
func (r *Registry) Hierarchy(axis Axis) *Hierarchy {
	return r.orDefault().hier[axis]
}

// Hierarchies returns a copy of the axis -> hierarchy map.
func (r *Registry) Hierarchies() map[Axis]*Hierarchy {
	return maps.Clone(r.orDefault().hier)
}

// Ext returns a value from the free-form extension map.
func (r *Registry) Ext(key string) (any, bool) {
	v, ok := r.orDefault().ext[key]
	return v, ok
}

func normCountry(c Country) Country {
	return Country(strings.ToUpper(strings.TrimSpace(string(c))))
}

func normTags(tags []Tag) []Tag {
	res := make([]Tag, 0, len(tags))
	for _, t := range tags {
		t = Tag(strings.TrimSpace(string(t)))
		if t != "" && !slices.Contains(res, t) {
			res = append(res, t)
		}
	}
	slices.Sort(res)
	return res
}
