package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"airbnb-dashboard/models"
)

// Filter returns the listings of ds that satisfy every supplied criterion,
// in dataset order. It never fails; an empty result is a normal outcome.
func Filter(ds *models.Dataset, criteria models.FilterCriteria) []models.Listing {
	result := make([]models.Listing, 0)
	ds.Each(func(l models.Listing) {
		if matches(l, criteria) {
			result = append(result, l)
		}
	})
	return result
}

func matches(l models.Listing, c models.FilterCriteria) bool {
	if !c.Neighbourhoods.Matches(l.Neighbourhood) {
		return false
	}
	if c.Price != nil && (l.Price < c.Price.Min || l.Price > c.Price.Max) {
		return false
	}
	if c.MaxMinimumNights != nil && l.MinimumNights > *c.MaxMinimumNights {
		return false
	}
	return true
}

// ValidateCriteria checks criteria against the dataset. The returned error
// wraps models.ErrInvalidFilterCriteria and lists every problem found.
func ValidateCriteria(ds *models.Dataset, c models.FilterCriteria) error {
	var problems []string

	if p := c.Price; p != nil {
		// NaN slips through every comparison below.
		if !finite(p.Min) || !finite(p.Max) {
			problems = append(problems, "prices must be finite numbers")
		} else if p.Min < 0 || p.Max < 0 {
			problems = append(problems, "prices must not be negative")
		}
		if p.Min > p.Max {
			problems = append(problems,
				fmt.Sprintf("minimum price %g is above maximum price %g", p.Min, p.Max))
		}
	}

	if n := c.MaxMinimumNights; n != nil && *n < 1 {
		problems = append(problems, fmt.Sprintf("minimum nights %d must be at least 1", *n))
	}

	var unknown []string
	for _, name := range c.Neighbourhoods.Names() {
		if !ds.HasNeighbourhood(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		problems = append(problems, "unknown neighbourhoods: "+strings.Join(unknown, ", "))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", models.ErrInvalidFilterCriteria, strings.Join(problems, "; "))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NeighbourhoodOptions returns the choices offered by the search form: every
// neighbourhood plus the AllNeighbourhoods label, sorted.
func NeighbourhoodOptions(ds *models.Dataset) []string {
	opts := append(ds.Neighbourhoods(), models.AllNeighbourhoods)
	sort.Strings(opts)
	return opts
}
