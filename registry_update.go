package monetary

import (
	"fmt"
	"maps"
	"slices"
)

// RegisterOption attaches registry-side data to a currency being registered.
type RegisterOption func(r *Registry, id ID)

// WithWeight sets the weight of the registered currency.
func WithWeight(w int) RegisterOption {
	return func(r *Registry, id ID) {
		if w != 0 {
			r.weights[id] = w
		}
	}
}

// WithCountries assigns countries to the registered currency.
// A country already assigned to another currency is reassigned.
func WithCountries(ctrs ...Country) RegisterOption {
	return func(r *Registry, id ID) {
		for _, ctr := range ctrs {
			r.countries[normCountry(ctr)] = id
		}
	}
}

// WithTraits sets the traits of the registered currency.
func WithTraits(tags ...Tag) RegisterOption {
	return func(r *Registry, id ID) {
		if ts := normTags(tags); len(ts) > 0 {
			r.traits[id] = ts
		}
	}
}

// WithLocalized sets localized properties of the registered currency.
func WithLocalized(l Locale, props Properties) RegisterOption {
	return func(r *Registry, id ID) {
		setLocalized(r, id, l, props)
	}
}

// Register returns a new registry with the currency added.
// The receiver is not modified.
//
// Register returns an error if the currency is the zero Currency or if a
// currency with the same identifier is already registered.
func (r *Registry) Register(c Currency, opts ...RegisterOption) (*Registry, error) {
	r = r.orDefault()
	if c.IsZero() {
		return nil, opError("register", fmt.Errorf("%w: empty currency", ErrInvalidConfig), c)
	}
	if _, ok := r.curs[c.id]; ok {
		return nil, opError("register", fmt.Errorf("%w: already registered", ErrInvalidConfig), c)
	}
	s := r.clone()
	s.curs[c.id] = c
	for _, opt := range opts {
		opt(s, c.id)
	}
	s.index()
	logger().Debug("currency registered", "id", c.id, "weight", s.weights[c.id])
	return s, nil
}

// Update returns a new registry with a registered currency replaced by c.
// Countries, traits, weights and localized properties are kept.
func (r *Registry) Update(c Currency) (*Registry, error) {
	r = r.orDefault()
	if err := r.mustHave("update", c.id); err != nil {
		return nil, err
	}
	s := r.clone()
	s.curs[c.id] = c
	s.index()
	return s, nil
}

// Unregister returns a new registry without the currency and everything
// attached to it.
func (r *Registry) Unregister(id ID) (*Registry, error) {
	r = r.orDefault()
	id = ParseID(string(id))
	if err := r.mustHave("unregister", id); err != nil {
		return nil, err
	}
	s := r.clone()
	delete(s.curs, id)
	delete(s.localized, id)
	delete(s.traits, id)
	delete(s.weights, id)
	for ctr, cid := range s.countries {
		if cid == id {
			delete(s.countries, ctr)
		}
	}
	s.index()
	logger().Debug("currency unregistered", "id", id)
	return s, nil
}

// SetWeight returns a new registry with the weight of a currency changed.
// Lower weights win when codes or numeric identifiers collide.
func (r *Registry) SetWeight(id ID, w int) (*Registry, error) {
	return r.modify("set-weight", id, func(s *Registry, id ID) {
		if w == 0 {
			delete(s.weights, id)
			return
		}
		s.weights[id] = w
	})
}

// SetTraits returns a new registry with the traits of a currency replaced.
func (r *Registry) SetTraits(id ID, tags ...Tag) (*Registry, error) {
	return r.modify("set-traits", id, func(s *Registry, id ID) {
		if ts := normTags(tags); len(ts) > 0 {
			s.traits[id] = ts
		} else {
			delete(s.traits, id)
		}
	})
}

// AddTraits returns a new registry with traits added to a currency.
func (r *Registry) AddTraits(id ID, tags ...Tag) (*Registry, error) {
	return r.modify("add-traits", id, func(s *Registry, id ID) {
		s.traits[id] = normTags(append(slices.Clone(s.traits[id]), tags...))
	})
}

// RemoveTraits returns a new registry with traits removed from a currency.
func (r *Registry) RemoveTraits(id ID, tags ...Tag) (*Registry, error) {
	return r.modify("remove-traits", id, func(s *Registry, id ID) {
		ts := slices.DeleteFunc(slices.Clone(s.traits[id]), func(t Tag) bool {
			return slices.Contains(tags, t)
		})
		if len(ts) > 0 {
			s.traits[id] = ts
		} else {
			delete(s.traits, id)
		}
	})
}

// SetCountries returns a new registry where exactly the given countries use
// the currency. Countries previously assigned to other currencies are
// reassigned.
func (r *Registry) SetCountries(id ID, ctrs ...Country) (*Registry, error) {
	return r.modify("set-countries", id, func(s *Registry, id ID) {
		for ctr, cid := range s.countries {
			if cid == id {
				delete(s.countries, ctr)
			}
		}
		for _, ctr := range ctrs {
			s.countries[normCountry(ctr)] = id
		}
	})
}

// RemoveCountries returns a new registry without the given country
// assignments. Unknown countries are ignored.
func (r *Registry) RemoveCountries(ctrs ...Country) *Registry {
	r = r.orDefault()
	s := r.clone()
	for _, ctr := range ctrs {
		delete(s.countries, normCountry(ctr))
	}
	s.index()
	return s
}

// SetLocalized returns a new registry with the properties of a currency in
// a locale replaced. Empty properties remove the locale.
func (r *Registry) SetLocalized(id ID, l Locale, props Properties) (*Registry, error) {
	return r.modify("set-localized", id, func(s *Registry, id ID) {
		setLocalized(s, id, l, props)
	})
}

func setLocalized(s *Registry, id ID, l Locale, props Properties) {
	byLocale := maps.Clone(s.localized[id])
	if byLocale == nil {
		byLocale = make(map[Locale]Properties)
	}
	if len(props) == 0 {
		delete(byLocale, l)
	} else {
		byLocale[l] = maps.Clone(props)
	}
	if len(byLocale) == 0 {
		delete(s.localized, id)
		return
	}
	s.localized[id] = byLocale
}

// WithHierarchy returns a new registry with the hierarchy of an axis
// replaced. A nil hierarchy removes the axis.
func (r *Registry) WithHierarchy(axis Axis, h *Hierarchy) *Registry {
	s := r.orDefault().clone()
	if h == nil {
		delete(s.hier, axis)
	} else {
		s.hier[axis] = h
	}
	s.index()
	return s
}

// DeriveHierarchy returns a new registry where child is-a each of parents
// on the given axis.
func (r *Registry) DeriveHierarchy(axis Axis, child Tag, parents ...Tag) (*Registry, error) {
	r = r.orDefault()
	h, err := r.hier[axis].With(child, parents...)
	if err != nil {
		return nil, opError("derive-hierarchy", err, axis, child)
	}
	return r.WithHierarchy(axis, h), nil
}

// WithExt returns a new registry with a value stored in the extension map.
func (r *Registry) WithExt(key string, value any) *Registry {
	s := r.orDefault().clone()
	s.ext[key] = value
	s.index()
	return s
}

// WithVersion returns a new registry with a different version label.
func (r *Registry) WithVersion(version string) *Registry {
	s := r.orDefault().clone()
	s.version = version
	s.index()
	return s
}

func (r *Registry) mustHave(op string, id ID) error {
	if _, ok := r.curs[id]; !ok {
		return opError(op, ErrCurrencyNotFound, id)
	}
	return nil
}

func (r *Registry) modify(op string, id ID, fn func(s *Registry, id ID)) (*Registry, error) {
	r = r.orDefault()
	id = ParseID(string(id))
	if err := r.mustHave(op, id); err != nil {
		return nil, err
	}
	s := r.clone()
	fn(s, id)
	s.index()
	return s, nil
}
