package monetary

import "slices"

// Denominated is implemented by values that have a currency: [Currency]
// itself and [Money].
type Denominated interface {
	Curr() Currency
}

// OfDomain reports whether the currency of x belongs to the target domain or
// to a domain that is-a target in the domain hierarchy.
func (r *Registry) OfDomain(target Tag, x Denominated) bool {
	r = r.orDefault()
	return r.isA(AxisDomain, x.Curr().domain, target)
}

// OfKind reports whether the currency of x is of the target kind or of a
// kind that is-a target in the kind hierarchy.
func (r *Registry) OfKind(target Tag, x Denominated) bool {
	r = r.orDefault()
	return r.isA(AxisKind, x.Curr().kind, target)
}

// OfTrait reports whether any trait of the currency of x is the target
// trait or is-a target in the traits hierarchy.
func (r *Registry) OfTrait(target Tag, x Denominated) bool {
	r = r.orDefault()
	for _, t := range r.traits[x.Curr().id] {
		if r.isA(AxisTraits, t, target) {
			return true
		}
	}
	return false
}

// HasTrait reports whether the currency of x has exactly the given trait.
// The traits hierarchy is not consulted.
func (r *Registry) HasTrait(trait Tag, x Denominated) bool {
	r = r.orDefault()
	return slices.Contains(r.traits[x.Curr().id], trait)
}

// IsA reports whether tag is-a ancestor on an axis of the registry.
// Without a hierarchy for the axis only equal tags match.
func (r *Registry) IsA(axis Axis, tag, ancestor Tag) bool {
	return r.orDefault().isA(axis, tag, ancestor)
}

func (r *Registry) isA(axis Axis, tag, ancestor Tag) bool {
	if tag == "" {
		return false
	}
	return r.hier[axis].IsA(tag, ancestor)
}

// OfDomain is like [Registry.OfDomain] on the default registry.
func OfDomain(target Tag, x Denominated) bool {
	return Default().OfDomain(target, x)
}

// OfKind is like [Registry.OfKind] on the default registry.
func OfKind(target Tag, x Denominated) bool {
	return Default().OfKind(target, x)
}

// OfTrait is like [Registry.OfTrait] on the default registry.
func OfTrait(target Tag, x Denominated) bool {
	return Default().OfTrait(target, x)
}

// HasTrait is like [Registry.HasTrait] on the default registry.
func HasTrait(trait Tag, x Denominated) bool {
	return Default().HasTrait(trait, x)
}
