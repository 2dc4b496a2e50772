package models

// AllNeighbourhoods is the label the dashboard shows for "no restriction".
const AllNeighbourhoods = "All Neighbourhoods"

// NeighbourhoodSelector is either All or a Subset of named neighbourhoods.
// The zero value selects all neighbourhoods.
type NeighbourhoodSelector struct {
	subset bool
	names  map[string]struct{}
}

// All returns a selector that does not restrict by neighbourhood.
func All() NeighbourhoodSelector {
	return NeighbourhoodSelector{}
}

// Subset returns a selector that keeps only the given neighbourhoods.
// An empty subset matches nothing.
func Subset(names ...string) NeighbourhoodSelector {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return NeighbourhoodSelector{subset: true, names: set}
}

// SelectorFromForm converts a raw multi-select value. Any occurrence of the
// AllNeighbourhoods label wins over named entries.
func SelectorFromForm(values []string) NeighbourhoodSelector {
	for _, v := range values {
		if v == AllNeighbourhoods {
			return All()
		}
	}
	return Subset(values...)
}

// IsAll reports whether the selector is unrestricted.
func (s NeighbourhoodSelector) IsAll() bool {
	return !s.subset
}

// Matches reports whether a listing in neighbourhood n passes the selector.
func (s NeighbourhoodSelector) Matches(n string) bool {
	if !s.subset {
		return true
	}
	_, ok := s.names[n]
	return ok
}

// Names returns the selected names (nil for All). Order is unspecified.
func (s NeighbourhoodSelector) Names() []string {
	if !s.subset {
		return nil
	}
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	return out
}

// PriceRange is an inclusive [Min, Max] price interval.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterCriteria is built per query and discarded afterwards. Nil Price and
// nil MaxMinimumNights mean "no restriction".
type FilterCriteria struct {
	Neighbourhoods NeighbourhoodSelector
	Price          *PriceRange
	// MaxMinimumNights keeps listings whose minimum_nights is at most this
	// value. The dashboard labels it "Minimum nights".
	MaxMinimumNights *int
}

// DefaultCriteria selects every listing.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{Neighbourhoods: All()}
}
