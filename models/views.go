package models

// TableRow is a listing as shown in the table view (no coordinates).
type TableRow struct {
	ID              string  `json:"id"`
	Neighbourhood   string  `json:"neighbourhood"`
	Price           float64 `json:"price"`
	MinimumNights   int     `json:"minimum_nights"`
	Availability365 int     `json:"availability_365"`
}

// BoxplotSummary is the distribution of prices in one neighbourhood.
type BoxplotSummary struct {
	Neighbourhood string  `json:"neighbourhood"`
	Count         int     `json:"count"`
	Min           float64 `json:"min"`
	Q1            float64 `json:"q1"`
	Median        float64 `json:"median"`
	Q3            float64 `json:"q3"`
	Max           float64 `json:"max"`
	Mean          float64 `json:"mean"`
	// WhiskerLow and WhiskerHigh are the most extreme prices within
	// 1.5 IQR of the box. Points beyond them are not drawn.
	WhiskerLow  float64 `json:"whisker_low"`
	WhiskerHigh float64 `json:"whisker_high"`
	Color       string  `json:"color"`
}

// AvailabilityClass buckets a listing by days available per year.
type AvailabilityClass string

const (
	AvailabilityAvailable AvailabilityClass = "available"
	AvailabilityLimited   AvailabilityClass = "limited"
	AvailabilityScarce    AvailabilityClass = "scarce"
	// AvailabilityUnclassified covers exactly 100 and exactly 200 days.
	AvailabilityUnclassified AvailabilityClass = "unclassified"
)

// Marker is one listing placed on the map.
type Marker struct {
	ID        string            `json:"id"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Geohash   string            `json:"geohash"`
	Class     AvailabilityClass `json:"class"`
	Color     string            `json:"color"`
}

// MarkerView holds the drawable markers of a filtered result. Unmarked
// counts listings that fell into no availability class.
type MarkerView struct {
	Markers  []Marker                  `json:"markers"`
	Counts   map[AvailabilityClass]int `json:"counts"`
	Unmarked int                       `json:"unmarked"`
}

// ChoroplethFill is the shading of one neighbourhood polygon.
type ChoroplethFill struct {
	Neighbourhood string  `json:"neighbourhood"`
	MeanPrice     float64 `json:"mean_price"`
	HasData       bool    `json:"has_data"`
	Bin           int     `json:"bin"`
	Color         string  `json:"color"`
}

// LegendBin is one step of the choropleth colour scale, [Lower, Upper).
// The last bin is closed on both ends.
type LegendBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Color string  `json:"color"`
}

// ChoroplethView is the per-neighbourhood shading plus its legend.
type ChoroplethView struct {
	Fills  []ChoroplethFill `json:"fills"`
	Legend []LegendBin      `json:"legend"`
}

// MapView is everything the map collaborator needs to draw one query.
type MapView struct {
	Choropleth ChoroplethView `json:"choropleth"`
	Markers    MarkerView     `json:"markers"`
}

// InsightReport holds summary analytics over a filtered result.
type InsightReport struct {
	TotalListings           int
	AveragePrice            float64
	MinPrice                float64
	MaxPrice                float64
	Cheapest                *Listing
	ListingsByNeighbourhood map[string]int
	ListingsByAvailability  map[AvailabilityClass]int
}
