package monetary

import (
	"errors"
	"slices"
	"testing"
)

func kindHierarchy(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := NewHierarchy(map[Tag][]Tag{
		"FIAT":            {"FIDUCIARY"},
		"STABLECOIN":      {"DECENTRALIZED"},
		"DECENTRALIZED":   {"VIRTUAL"},
		"FIAT-BACKED":     {"ASSET-BACKED"},
		"FIAT-STABLECOIN": {"STABLECOIN", "FIAT-BACKED", "STABLECOIN"},
	})
	if err != nil {
		t.Fatalf("NewHierarchy() failed: %v", err)
	}
	return h
}

func TestNewHierarchy(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		tests := []map[Tag][]Tag{
			{"A": {"A"}},
			{"A": {"B"}, "B": {"A"}},
			{"A": {"B"}, "B": {"C"}, "C": {"A"}},
		}
		for _, edges := range tests {
			_, err := NewHierarchy(edges)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewHierarchy(%v) error = %v, want %v", edges, err, ErrInvalidConfig)
			}
		}
	})

	t.Run("empty tag", func(t *testing.T) {
		tests := []map[Tag][]Tag{
			{"": {"A"}},
			{"A": {""}},
		}
		for _, edges := range tests {
			_, err := NewHierarchy(edges)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewHierarchy(%v) error = %v, want %v", edges, err, ErrInvalidConfig)
			}
		}
	})
}

func TestHierarchy_IsA(t *testing.T) {
	h := kindHierarchy(t)
	tests := []struct {
		tag, ancestor Tag
		want          bool
	}{
		{"FIAT", "FIAT", true},
		{"FIAT", "FIDUCIARY", true},
		{"FIAT-STABLECOIN", "STABLECOIN", true},
		{"FIAT-STABLECOIN", "DECENTRALIZED", true},
		{"FIAT-STABLECOIN", "VIRTUAL", true},
		{"FIAT-STABLECOIN", "ASSET-BACKED", true},
		{"FIAT-STABLECOIN", "FIAT", false},
		{"STABLECOIN", "FIAT-STABLECOIN", false},
		{"UNKNOWN", "UNKNOWN", true},
		{"UNKNOWN", "FIAT", false},
	}
	for _, tt := range tests {
		// twice, the second answer comes from the memo
		for range 2 {
			got := h.IsA(tt.tag, tt.ancestor)
			if got != tt.want {
				t.Errorf("IsA(%q, %q) = %v, want %v", tt.tag, tt.ancestor, got, tt.want)
			}
		}
	}
}

func TestHierarchy_Nil(t *testing.T) {
	var h *Hierarchy
	if !h.IsA("FIAT", "FIAT") {
		t.Errorf("nil.IsA(FIAT, FIAT) = false, want true")
	}
	if h.IsA("FIAT", "FIDUCIARY") {
		t.Errorf("nil.IsA(FIAT, FIDUCIARY) = true, want false")
	}
	if h.Len() != 0 || len(h.Tags()) != 0 || len(h.Ancestors("FIAT")) != 0 {
		t.Errorf("nil hierarchy is not empty")
	}
}

func TestHierarchy_Ancestors(t *testing.T) {
	h := kindHierarchy(t)
	got := h.Ancestors("FIAT-STABLECOIN")
	want := []Tag{"ASSET-BACKED", "DECENTRALIZED", "FIAT-BACKED", "STABLECOIN", "VIRTUAL"}
	if !slices.Equal(got, want) {
		t.Errorf("Ancestors(FIAT-STABLECOIN) = %v, want %v", got, want)
	}
	got = h.Parents("FIAT-STABLECOIN")
	want = []Tag{"FIAT-BACKED", "STABLECOIN"}
	if !slices.Equal(got, want) {
		t.Errorf("Parents(FIAT-STABLECOIN) = %v, want %v", got, want)
	}
}

func TestHierarchy_Descendants(t *testing.T) {
	h := kindHierarchy(t)
	got := h.Descendants("DECENTRALIZED")
	want := []Tag{"FIAT-STABLECOIN", "STABLECOIN"}
	if !slices.Equal(got, want) {
		t.Errorf("Descendants(DECENTRALIZED) = %v, want %v", got, want)
	}
}

func TestHierarchy_With(t *testing.T) {
	h := kindHierarchy(t)
	g, err := h.With("VIRTUAL", "INTANGIBLE")
	if err != nil {
		t.Fatalf("With(VIRTUAL, INTANGIBLE) failed: %v", err)
	}
	if !g.IsA("STABLECOIN", "INTANGIBLE") {
		t.Errorf("With(VIRTUAL, INTANGIBLE).IsA(STABLECOIN, INTANGIBLE) = false, want true")
	}
	if h.IsA("STABLECOIN", "INTANGIBLE") {
		t.Errorf("With modified the receiver")
	}
	if _, err := h.With("VIRTUAL", "STABLECOIN"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("With(VIRTUAL, STABLECOIN) error = %v, want %v", err, ErrInvalidConfig)
	}
}
