package server

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"airbnb-dashboard/models"
)

const (
	DisplayMap   = "map"
	DisplayTable = "table"

	ModeAll    = "all"
	ModeFilter = "filter"
)

// FormDefaults pre-fill the numeric fields of the search form.
type FormDefaults struct {
	MinPrice  int
	MaxPrice  int
	MinNights int
}

// FormState echoes a submitted search form back into the page.
type FormState struct {
	Display   string
	Mode      string
	Selected  map[string]bool
	MinPrice  string
	MaxPrice  string
	MinNights string
}

// Query is a parsed search request.
type Query struct {
	Display  string
	Criteria models.FilterCriteria
	Form     FormState
}

// DefaultForm is the state of a fresh search form.
func DefaultForm(d FormDefaults) FormState {
	return FormState{
		Display:   DisplayMap,
		Mode:      ModeAll,
		Selected:  map[string]bool{},
		MinPrice:  strconv.Itoa(d.MinPrice),
		MaxPrice:  strconv.Itoa(d.MaxPrice),
		MinNights: strconv.Itoa(d.MinNights),
	}
}

// ParseQuery turns search parameters into filter criteria. In "all" mode
// the filter fields are ignored. Price bounds must be given together.
// Errors wrap models.ErrInvalidFilterCriteria; the returned Query still
// carries the form state so the page can be shown again.
func ParseQuery(v url.Values, d FormDefaults) (Query, error) {
	form := DefaultForm(d)
	q := Query{Display: DisplayMap, Criteria: models.DefaultCriteria()}

	var problems []string

	switch display := strings.ToLower(v.Get("display")); display {
	case "", DisplayMap:
	case DisplayTable:
		q.Display = DisplayTable
	default:
		problems = append(problems, fmt.Sprintf("unknown display %q", display))
	}
	form.Display = q.Display

	mode := strings.ToLower(v.Get("mode"))
	switch mode {
	case "", ModeAll:
		mode = ModeAll
	case ModeFilter:
	default:
		problems = append(problems, fmt.Sprintf("unknown search mode %q", mode))
	}
	form.Mode = mode

	for _, n := range v["neighbourhood"] {
		form.Selected[n] = true
	}
	if s := v.Get("min_price"); s != "" {
		form.MinPrice = s
	}
	if s := v.Get("max_price"); s != "" {
		form.MaxPrice = s
	}
	if s := v.Get("min_nights"); s != "" {
		form.MinNights = s
	}
	q.Form = form

	if mode == ModeFilter {
		q.Criteria.Neighbourhoods = models.SelectorFromForm(v["neighbourhood"])

		minPrice, maxPrice := v.Get("min_price"), v.Get("max_price")
		switch {
		case minPrice == "" && maxPrice == "":
		case minPrice == "" || maxPrice == "":
			problems = append(problems, "min_price and max_price must be given together")
		default:
			lo, errLo := strconv.ParseFloat(minPrice, 64)
			hi, errHi := strconv.ParseFloat(maxPrice, 64)
			if errLo != nil || errHi != nil || !finite(lo) || !finite(hi) {
				problems = append(problems, "prices must be finite numbers")
			} else {
				q.Criteria.Price = &models.PriceRange{Min: lo, Max: hi}
			}
		}

		if s := v.Get("min_nights"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				problems = append(problems, fmt.Sprintf("min_nights %q is not a whole number", s))
			} else {
				q.Criteria.MaxMinimumNights = &n
			}
		}
	}

	if len(problems) > 0 {
		return q, fmt.Errorf("%w: %s", models.ErrInvalidFilterCriteria, strings.Join(problems, "; "))
	}
	return q, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
