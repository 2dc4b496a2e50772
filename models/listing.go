package models

import "slices"

// RawListing holds one unparsed row of the listings table, restricted to the
// columns the dashboard uses. Values are exactly as they appear in the source.
type RawListing struct {
	ID              string
	Neighbourhood   string
	Price           string
	MinimumNights   string
	Availability365 string
	Latitude        string
	Longitude       string
}

// Listing is a cleaned, typed rental property record.
type Listing struct {
	ID              string  `json:"id"`
	Neighbourhood   string  `json:"neighbourhood"`
	Price           float64 `json:"price"`
	MinimumNights   int     `json:"minimum_nights"`
	Availability365 int     `json:"availability_365"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
}

// NeighbourhoodStats maps a neighbourhood name to the mean price of its
// listings in the cleaned dataset.
type NeighbourhoodStats map[string]float64

// Dataset is the canonical cleaned dataset. It is built once and never
// mutated afterwards; accessors hand out copies so per-query work cannot
// alias the canonical slices.
type Dataset struct {
	listings       []Listing
	stats          NeighbourhoodStats
	neighbourhoods []string
}

// NewDataset computes the neighbourhood means and first-appearance order for
// the given listings. The caller must not modify listings afterwards.
func NewDataset(listings []Listing) *Dataset {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string

	for _, l := range listings {
		if _, seen := counts[l.Neighbourhood]; !seen {
			order = append(order, l.Neighbourhood)
		}
		sums[l.Neighbourhood] += l.Price
		counts[l.Neighbourhood]++
	}

	stats := make(NeighbourhoodStats, len(order))
	for _, n := range order {
		stats[n] = sums[n] / float64(counts[n])
	}

	return &Dataset{
		listings:       listings,
		stats:          stats,
		neighbourhoods: order,
	}
}

// Listings returns a copy of the cleaned listings in source order.
func (d *Dataset) Listings() []Listing {
	return slices.Clone(d.listings)
}

// Len returns the number of cleaned listings.
func (d *Dataset) Len() int {
	return len(d.listings)
}

// Each calls fn for every listing in source order without copying the slice.
func (d *Dataset) Each(fn func(Listing)) {
	for _, l := range d.listings {
		fn(l)
	}
}

// Stats returns a copy of the per-neighbourhood mean prices.
func (d *Dataset) Stats() NeighbourhoodStats {
	out := make(NeighbourhoodStats, len(d.stats))
	for k, v := range d.stats {
		out[k] = v
	}
	return out
}

// MeanPrice returns the mean price for one neighbourhood.
func (d *Dataset) MeanPrice(neighbourhood string) (float64, bool) {
	v, ok := d.stats[neighbourhood]
	return v, ok
}

// Neighbourhoods returns neighbourhood names in order of first appearance.
func (d *Dataset) Neighbourhoods() []string {
	return slices.Clone(d.neighbourhoods)
}

// HasNeighbourhood reports whether any listing belongs to name.
func (d *Dataset) HasNeighbourhood(name string) bool {
	_, ok := d.stats[name]
	return ok
}
