package monetary

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync/atomic"
)

//go:generate go run ./scripts/registry
//go:embed default_registry.yaml
var defaultRegistryYAML []byte

// Holder is a shared, swappable reference to a [Registry].
// Readers always observe one complete registry value; writers install new
// values atomically.
// The zero value holds no registry.
type Holder struct {
	p atomic.Pointer[Registry]
}

// NewHolder returns a holder initialized with r.
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.p.Store(r)
	return h
}

// Load returns the current registry.
func (h *Holder) Load() *Registry {
	return h.p.Load()
}

// Store installs r as the current registry. A nil registry is ignored.
func (h *Holder) Store(r *Registry) {
	if r == nil {
		return
	}
	h.p.Store(r)
}

// Swap installs r and returns the previous registry.
func (h *Holder) Swap(r *Registry) *Registry {
	return h.p.Swap(r)
}

// CompareAndSwap installs next only if old is still current.
func (h *Holder) CompareAndSwap(old, next *Registry) bool {
	return h.p.CompareAndSwap(old, next)
}

// Update derives a new registry from the current one with fn and installs
// it. If another writer installs a registry in the meantime, fn is applied
// again to the newer value. If fn fails or returns no registry, nothing is
// installed.
func (h *Holder) Update(fn func(*Registry) (*Registry, error)) (*Registry, error) {
	for {
		old := h.p.Load()
		next, err := fn(old)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, opError("update", ErrInvalidConfig)
		}
		if h.p.CompareAndSwap(old, next) {
			return next, nil
		}
	}
}

var defaultHolder = &Holder{}

func init() {
	defaultHolder.Store(mustDefaultRegistry())
}

func mustDefaultRegistry() *Registry {
	cfg, err := LoadRegistryConfig(bytes.NewReader(defaultRegistryYAML))
	if err != nil {
		panic(fmt.Sprintf("loading default registry: %v", err))
	}
	r, err := Build(cfg)
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// DefaultRegistry returns a fresh registry built from the description
// embedded in the package.
func DefaultRegistry() *Registry {
	return mustDefaultRegistry()
}

// Default returns the process-wide default registry.
func Default() *Registry {
	return defaultHolder.Load()
}

// SetDefault installs r as the process-wide default registry and returns
// the previous one. A nil registry is ignored.
func SetDefault(r *Registry) *Registry {
	if r == nil {
		return Default()
	}
	old := defaultHolder.Swap(r)
	logger().Info("default currency registry replaced", "version", r.version, "currencies", len(r.curs))
	return old
}

// UpdateDefault derives a new default registry from the current one with fn
// and installs it atomically. See [Holder.Update].
func UpdateDefault(fn func(*Registry) (*Registry, error)) (*Registry, error) {
	r, err := defaultHolder.Update(fn)
	if err != nil {
		return nil, err
	}
	logger().Info("default currency registry updated", "version", r.version, "currencies", len(r.curs))
	return r, nil
}
