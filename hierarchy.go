package monetary

import (
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Axis names a classification axis of a registry.
type Axis string

// Standard axes. Registries may carry hierarchies for other axes too.
const (
	AxisDomain Axis = "domain"
	AxisKind   Axis = "kind"
	AxisTraits Axis = "traits"
)

// Hierarchy is an immutable directed acyclic graph of tags, where every tag
// may have several parents. It answers "is-a" questions: a tag is-a each of
// its ancestors.
//
// A nil *Hierarchy is valid and empty; on it every tag is only itself.
// Hierarchy is safe for concurrent use by multiple goroutines.
type Hierarchy struct {
	parents map[Tag][]Tag
	memo    *lru.Cache[Tag, map[Tag]struct{}]
}

// NewHierarchy returns a hierarchy from child -> parents edges.
// It returns an error if a tag is its own ancestor.
func NewHierarchy(edges map[Tag][]Tag) (*Hierarchy, error) {
	parents := make(map[Tag][]Tag, len(edges))
	for child, ps := range edges {
		if child == "" {
			return nil, configError("empty tag in hierarchy")
		}
		set := make([]Tag, 0, len(ps))
		for _, p := range ps {
			if p == "" {
				return nil, configError("empty parent of %q in hierarchy", child)
			}
			if !slices.Contains(set, p) {
				set = append(set, p)
			}
		}
		slices.Sort(set)
		parents[child] = set
	}
	if tag, ok := findCycle(parents); ok {
		return nil, configError("cycle in hierarchy at %q", tag)
	}
	return newHierarchyUnsafe(parents), nil
}

// MustNewHierarchy is like [NewHierarchy] but panics on cycles.
func MustNewHierarchy(edges map[Tag][]Tag) *Hierarchy {
	h, err := NewHierarchy(edges)
	if err != nil {
		panic(err)
	}
	return h
}

// newHierarchyUnsafe wraps validated edges.
func newHierarchyUnsafe(parents map[Tag][]Tag) *Hierarchy {
	size := len(parents) + 1
	memo, err := lru.New[Tag, map[Tag]struct{}](size)
	if err != nil {
		// only possible for a non-positive size
		panic(err)
	}
	return &Hierarchy{parents: parents, memo: memo}
}

func findCycle(parents map[Tag][]Tag) (Tag, bool) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[Tag]int, len(parents))
	var visit func(t Tag) (Tag, bool)
	visit = func(t Tag) (Tag, bool) {
		switch state[t] {
		case visiting:
			return t, true
		case done:
			return "", false
		}
		state[t] = visiting
		for _, p := range parents[t] {
			if c, ok := visit(p); ok {
				return c, true
			}
		}
		state[t] = done
		return "", false
	}
	children := make([]Tag, 0, len(parents))
	for t := range parents {
		children = append(children, t)
	}
	slices.Sort(children)
	for _, t := range children {
		if c, ok := visit(t); ok {
			return c, true
		}
	}
	return "", false
}

// Parents returns the direct parents of a tag.
func (h *Hierarchy) Parents(tag Tag) []Tag {
	if h == nil {
		return nil
	}
	return slices.Clone(h.parents[tag])
}

// Ancestors returns every tag reachable from tag through parent edges,
// sorted, not including tag itself.
func (h *Hierarchy) Ancestors(tag Tag) []Tag {
	set := h.ancestors(tag)
	res := make([]Tag, 0, len(set))
	for t := range set {
		res = append(res, t)
	}
	slices.Sort(res)
	return res
}

func (h *Hierarchy) ancestors(tag Tag) map[Tag]struct{} {
	if h == nil {
		return nil
	}
	if set, ok := h.memo.Get(tag); ok {
		return set
	}
	set := make(map[Tag]struct{})
	queue := slices.Clone(h.parents[tag])
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if _, ok := set[t]; ok {
			continue
		}
		set[t] = struct{}{}
		queue = append(queue, h.parents[t]...)
	}
	h.memo.Add(tag, set)
	return set
}

// IsA reports whether tag equals ancestor or descends from it.
func (h *Hierarchy) IsA(tag, ancestor Tag) bool {
	if tag == ancestor {
		return true
	}
	_, ok := h.ancestors(tag)[ancestor]
	return ok
}

// Descendants returns every tag that is-a tag, sorted, not including tag
// itself.
func (h *Hierarchy) Descendants(tag Tag) []Tag {
	if h == nil {
		return nil
	}
	var res []Tag
	for child := range h.parents {
		if child != tag && h.IsA(child, tag) {
			res = append(res, child)
		}
	}
	slices.Sort(res)
	return res
}

// Tags returns all tags mentioned in the hierarchy, sorted.
func (h *Hierarchy) Tags() []Tag {
	if h == nil {
		return nil
	}
	seen := make(map[Tag]struct{}, len(h.parents))
	for child, ps := range h.parents {
		seen[child] = struct{}{}
		for _, p := range ps {
			seen[p] = struct{}{}
		}
	}
	res := make([]Tag, 0, len(seen))
	for t := range seen {
		res = append(res, t)
	}
	slices.Sort(res)
	return res
}

// Edges returns a copy of the child -> parents edges.
func (h *Hierarchy) Edges() map[Tag][]Tag {
	if h == nil {
		return map[Tag][]Tag{}
	}
	res := make(map[Tag][]Tag, len(h.parents))
	for child, ps := range h.parents {
		res[child] = slices.Clone(ps)
	}
	return res
}

// With returns a new hierarchy with additional parents for child.
// The receiver is not modified.
func (h *Hierarchy) With(child Tag, parents ...Tag) (*Hierarchy, error) {
	edges := h.Edges()
	edges[child] = append(edges[child], parents...)
	return NewHierarchy(edges)
}

// Len returns the number of tags that have parents.
func (h *Hierarchy) Len() int {
	if h == nil {
		return 0
	}
	return len(h.parents)
}
