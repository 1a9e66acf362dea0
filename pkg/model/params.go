package model

import "fmt"

// ProviderTypeFilter selects how many of the most common provider types the
// risk view keeps before per-type limiting.
type ProviderTypeFilter string

const (
	FilterTop5  ProviderTypeFilter = "top5"
	FilterTop10 ProviderTypeFilter = "top10"
	FilterAll   ProviderTypeFilter = "all"
)

// Valid reports whether the filter is one of the accepted modes.
func (f ProviderTypeFilter) Valid() bool {
	switch f {
	case FilterTop5, FilterTop10, FilterAll:
		return true
	}
	return false
}

// TopN returns the number of provider types the filter keeps, or 0 for all.
func (f ProviderTypeFilter) TopN() int {
	switch f {
	case FilterTop5:
		return 5
	case FilterTop10:
		return 10
	default:
		return 0
	}
}

// CompareDimension selects the grouping for the comparative view.
type CompareDimension string

const (
	CompareProviderType CompareDimension = "provider_type"
	CompareState        CompareDimension = "state"
)

// Valid reports whether the dimension is one of the accepted values.
func (d CompareDimension) Valid() bool {
	return d == CompareProviderType || d == CompareState
}

// Label returns the dimension name as used in narrative text.
func (d CompareDimension) Label() string {
	switch d {
	case CompareProviderType:
		return "provider type"
	case CompareState:
		return "state"
	default:
		return string(d)
	}
}

// ParseCompareDimension validates a raw flag or request value.
func ParseCompareDimension(s string) (CompareDimension, error) {
	d := CompareDimension(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown comparison dimension %q (want provider_type or state)", s)
	}
	return d, nil
}

// ParseProviderTypeFilter validates a raw flag or request value.
func ParseProviderTypeFilter(s string) (ProviderTypeFilter, error) {
	f := ProviderTypeFilter(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown provider type filter %q (want top5, top10 or all)", s)
	}
	return f, nil
}
