package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// priceRegexp captures the numeric part of a price such as "$1,200.00".
var priceRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Cleaner transforms RawListings into typed, validated Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses raw rows in order, drops rows that cannot be parsed and rows
// priced at or below zero. A repeated id is a dataset error.
func (c *Cleaner) Clean(raw []*models.RawListing) ([]models.Listing, error) {
	seen := make(map[string]int, len(raw))
	result := make([]models.Listing, 0, len(raw))
	var invalid, unpriced int

	for i, r := range raw {
		// Row numbers are 1-based and skip the header.
		row := i + 2

		id := strings.TrimSpace(r.ID)
		if id == "" || id == "NaN" {
			c.logger.Warn("[cleaner] Row %d: dropping listing with empty id", row)
			invalid++
			continue
		}
		if first, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: id %q repeated on rows %d and %d",
				models.ErrMalformedDataset, id, first, row)
		}
		seen[id] = row

		listing, err := c.parse(id, r)
		if err != nil {
			c.logger.Warn("[cleaner] Row %d (id %s): %v", row, id, err)
			invalid++
			continue
		}
		if listing.Price <= 0 {
			unpriced++
			continue
		}

		result = append(result, listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (invalid %d, price <= 0: %d)",
		len(raw), len(result), invalid, unpriced)
	return result, nil
}

// FilterPriced keeps only listings with a positive price, in order. It is
// used for sources that already hold typed rows.
func (c *Cleaner) FilterPriced(listings []models.Listing) ([]models.Listing, error) {
	seen := make(map[string]struct{}, len(listings))
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if _, dup := seen[l.ID]; dup {
			return nil, fmt.Errorf("%w: id %q repeated", models.ErrMalformedDataset, l.ID)
		}
		seen[l.ID] = struct{}{}
		if l.Price > 0 {
			out = append(out, l)
		}
	}
	c.logger.Info("[cleaner] Kept %d of %d stored listings", len(out), len(listings))
	return out, nil
}

func (c *Cleaner) parse(id string, r *models.RawListing) (models.Listing, error) {
	neighbourhood := normaliseText(r.Neighbourhood)
	if neighbourhood == "" || neighbourhood == "NaN" {
		return models.Listing{}, fmt.Errorf("missing neighbourhood")
	}

	price, err := c.parsePrice(r.Price)
	if err != nil {
		return models.Listing{}, err
	}

	nights, err := parseInt("minimum_nights", r.MinimumNights)
	if err != nil {
		return models.Listing{}, err
	}
	if nights < 1 {
		return models.Listing{}, fmt.Errorf("minimum_nights %d is not positive", nights)
	}

	availability, err := parseInt("availability_365", r.Availability365)
	if err != nil {
		return models.Listing{}, err
	}
	if availability < 0 || availability > 365 {
		return models.Listing{}, fmt.Errorf("availability_365 %d outside 0-365", availability)
	}

	lat, err := parseCoordinate("latitude", r.Latitude, 90)
	if err != nil {
		return models.Listing{}, err
	}
	lng, err := parseCoordinate("longitude", r.Longitude, 180)
	if err != nil {
		return models.Listing{}, err
	}

	return models.Listing{
		ID:              id,
		Neighbourhood:   neighbourhood,
		Price:           price,
		MinimumNights:   nights,
		Availability365: availability,
		Latitude:        lat,
		Longitude:       lng,
	}, nil
}

// parsePrice extracts a numeric price, ignoring currency symbols and
// thousands separators.
// Examples:
//
//	"150"       → 150
//	"$1,200.00" → 1200
//	"0"         → 0
func (c *Cleaner) parsePrice(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("price %q is not numeric", raw)
	}
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", raw, err)
	}
	return price, nil
}

func parseInt(field, raw string) (int, error) {
	s := strings.TrimSpace(raw)
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	// Some exports write integral columns as floats ("3.0").
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("%s %q is not an integer", field, raw)
	}
	return int(f), nil
}

func parseCoordinate(field, raw string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%s %q is not numeric", field, raw)
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("%s %v out of range", field, v)
	}
	return v, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
