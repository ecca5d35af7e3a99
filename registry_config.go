package monetary

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// RegistryConfig is the declarative description of a registry.
// It is read from YAML or JSON documents and built into a [Registry] with
// [Build]. Identifiers in the top-level branches refer to entries of
// Currencies; dangling references are rejected.
type RegistryConfig struct {
	Version     string                           `yaml:"version,omitempty"`
	Currencies  []CurrencyConfig                 `yaml:"currencies"`
	Countries   map[Country]string               `yaml:"countries,omitempty"`
	Localized   map[string]map[Locale]Properties `yaml:"localized,omitempty"`
	Traits      map[string]TagList               `yaml:"traits,omitempty"`
	Weights     map[string]int                   `yaml:"weights,omitempty"`
	Hierarchies map[Axis]map[Tag]TagList         `yaml:"hierarchies,omitempty"`
	Ext         map[string]any                   `yaml:"ext,omitempty"`
}

// CurrencyConfig describes one currency of a [RegistryConfig].
// Absent numeric identifiers and scales default to [NoNumericID] and
// [AutoScaled].
type CurrencyConfig struct {
	ID      string `yaml:"id"`
	Numeric *int64 `yaml:"numeric,omitempty"`
	Scale   *int   `yaml:"scale,omitempty"`
	Kind    Tag    `yaml:"kind,omitempty"`
	Domain  Tag    `yaml:"domain,omitempty"`
	Weight  *int   `yaml:"weight,omitempty"`
}

// TagList is a list of tags that also accepts a single scalar tag.
type TagList []Tag

// UnmarshalYAML implements the [yaml.Unmarshaler] interface.
func (l *TagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var t Tag
		if err := n.Decode(&t); err != nil {
			return err
		}
		*l = TagList{t}
		return nil
	case yaml.SequenceNode:
		var ts []Tag
		if err := n.Decode(&ts); err != nil {
			return err
		}
		*l = ts
		return nil
	}
	return fmt.Errorf("line %d: tag or list of tags expected", n.Line)
}

// Fields returns the currency field set described by c.
func (c CurrencyConfig) Fields() CurrencyFields {
	f := CurrencyFields{
		ID:      c.ID,
		Numeric: NoNumericID,
		Scale:   AutoScaled,
		Kind:    c.Kind,
		Domain:  c.Domain,
	}
	if c.Numeric != nil {
		f.Numeric = *c.Numeric
	}
	if c.Scale != nil {
		f.Scale = *c.Scale
	}
	return f
}

// ParseRegistryConfig decodes a YAML or JSON registry description.
func ParseRegistryConfig(data []byte) (RegistryConfig, error) {
	var cfg RegistryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RegistryConfig{}, fmt.Errorf("%w: decoding registry description: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadRegistryConfig decodes a YAML or JSON registry description from r.
// Unknown fields are rejected.
func LoadRegistryConfig(r io.Reader) (RegistryConfig, error) {
	var cfg RegistryConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RegistryConfig{}, fmt.Errorf("%w: decoding registry description: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Build returns a registry described by cfg, computing all derived indices
// once. Building the same description always yields an equivalent registry.
//
// Build returns an error if a currency is malformed or duplicated, if a
// top-level branch refers to an unknown currency, or if a hierarchy has a
// cycle.
func Build(cfg RegistryConfig) (*Registry, error) {
	r := &Registry{
		version:   cfg.Version,
		curs:      make(map[ID]Currency, len(cfg.Currencies)),
		countries: make(map[Country]ID, len(cfg.Countries)),
		localized: make(map[ID]map[Locale]Properties, len(cfg.Localized)),
		traits:    make(map[ID][]Tag, len(cfg.Traits)),
		weights:   make(map[ID]int),
		hier:      make(map[Axis]*Hierarchy, len(cfg.Hierarchies)),
		ext:       maps.Clone(cfg.Ext),
	}
	if r.ext == nil {
		r.ext = map[string]any{}
	}

	for i, cc := range cfg.Currencies {
		c, err := NewCurrencyFromFields(cc.Fields())
		if err != nil {
			return nil, fmt.Errorf("currency #%d: %w", i, err)
		}
		if c.IsZero() {
			return nil, configError("currency #%d has no id", i)
		}
		if _, ok := r.curs[c.id]; ok {
			return nil, configError("duplicate currency %q", c.id)
		}
		r.curs[c.id] = c
		if cc.Weight != nil && *cc.Weight != 0 {
			r.weights[c.id] = *cc.Weight
		}
	}

	known := func(branch, s string) (ID, error) {
		id := ParseID(s)
		if _, ok := r.curs[id]; !ok {
			return "", configError("%s refers to unknown currency %q", branch, s)
		}
		return id, nil
	}
	for s, w := range cfg.Weights {
		id, err := known("weights", s)
		if err != nil {
			return nil, err
		}
		if w == 0 {
			delete(r.weights, id)
			continue
		}
		r.weights[id] = w
	}
	for ctr, s := range cfg.Countries {
		id, err := known("countries", s)
		if err != nil {
			return nil, err
		}
		ctr = normCountry(ctr)
		if ctr == "" {
			return nil, configError("empty country for %q", s)
		}
		r.countries[ctr] = id
	}
	for s, byLocale := range cfg.Localized {
		id, err := known("localized", s)
		if err != nil {
			return nil, err
		}
		m := make(map[Locale]Properties, len(byLocale))
		for l, props := range byLocale {
			if len(props) > 0 {
				m[l] = maps.Clone(props)
			}
		}
		if len(m) > 0 {
			r.localized[id] = m
		}
	}
	for s, tags := range cfg.Traits {
		id, err := known("traits", s)
		if err != nil {
			return nil, err
		}
		if ts := normTags(tags); len(ts) > 0 {
			r.traits[id] = ts
		}
	}
	for axis, edges := range cfg.Hierarchies {
		m := make(map[Tag][]Tag, len(edges))
		for child, ps := range edges {
			m[child] = ps
		}
		h, err := NewHierarchy(m)
		if err != nil {
			return nil, fmt.Errorf("hierarchy %q: %w", axis, err)
		}
		r.hier[axis] = h
	}

	r.index()
	return r, nil
}

// Config returns the description of the registry. Building the result
// yields a registry equivalent to r.
func (r *Registry) Config() RegistryConfig {
	r = r.orDefault()
	cfg := RegistryConfig{
		Version: r.version,
		Ext:     maps.Clone(r.ext),
	}
	for _, c := range r.Currencies() {
		cc := CurrencyConfig{
			ID:     string(c.id),
			Kind:   c.kind,
			Domain: c.domain,
		}
		if c.HasNumeric() {
			n := c.numeric
			cc.Numeric = &n
		}
		if !c.IsAutoScaled() {
			s := c.scale
			cc.Scale = &s
		}
		if w, ok := r.weights[c.id]; ok {
			cc.Weight = &w
		}
		cfg.Currencies = append(cfg.Currencies, cc)
	}
	if len(r.countries) > 0 {
		cfg.Countries = make(map[Country]string, len(r.countries))
		for ctr, id := range r.countries {
			cfg.Countries[ctr] = string(id)
		}
	}
	if len(r.localized) > 0 {
		cfg.Localized = make(map[string]map[Locale]Properties, len(r.localized))
		for id, byLocale := range r.localized {
			m := make(map[Locale]Properties, len(byLocale))
			for l, props := range byLocale {
				m[l] = maps.Clone(props)
			}
			cfg.Localized[string(id)] = m
		}
	}
	if len(r.traits) > 0 {
		cfg.Traits = make(map[string]TagList, len(r.traits))
		for id, ts := range r.traits {
			cfg.Traits[string(id)] = slices.Clone(ts)
		}
	}
	if len(r.hier) > 0 {
		cfg.Hierarchies = make(map[Axis]map[Tag]TagList, len(r.hier))
		for axis, h := range r.hier {
			m := make(map[Tag]TagList, h.Len())
			for child, ps := range h.Edges() {
				m[child] = ps
			}
			cfg.Hierarchies[axis] = m
		}
	}
	return cfg
}
