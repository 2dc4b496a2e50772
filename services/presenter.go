package services

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/mmcloughlin/geohash"

	"airbnb-dashboard/models"
)

const (
	// markerGeohashPrecision gives cells of roughly 150m x 150m.
	markerGeohashPrecision = 7

	availableAbove = 200
	scarceBelow    = 100

	// NoDataColor fills boundary polygons that have no listings.
	NoDataColor = "#000000"
)

// ChoroplethPalette is the six-class YlOrRd ColorBrewer ramp, light to dark.
var ChoroplethPalette = []string{
	"#ffffb2", "#fed976", "#feb24c", "#fd8d3c", "#f03b20", "#bd0026",
}

var markerColors = map[models.AvailabilityClass]string{
	models.AvailabilityAvailable: "#008000",
	models.AvailabilityLimited:   "#ffff00",
	models.AvailabilityScarce:    "#ff0000",
}

// ToTable drops coordinates and orders rows by ascending price. Rows with
// equal prices keep their input order.
func ToTable(listings []models.Listing) []models.TableRow {
	rows := make([]models.TableRow, len(listings))
	for i, l := range listings {
		rows[i] = models.TableRow{
			ID:              l.ID,
			Neighbourhood:   l.Neighbourhood,
			Price:           l.Price,
			MinimumNights:   l.MinimumNights,
			Availability365: l.Availability365,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Price < rows[j].Price
	})
	return rows
}

// BoxplotStats summarises prices per neighbourhood over the whole dataset,
// in order of first appearance. Active filters never reach it.
func BoxplotStats(ds *models.Dataset) []models.BoxplotSummary {
	prices := make(map[string][]float64)
	ds.Each(func(l models.Listing) {
		prices[l.Neighbourhood] = append(prices[l.Neighbourhood], l.Price)
	})

	order := ds.Neighbourhoods()
	out := make([]models.BoxplotSummary, 0, len(order))
	for _, n := range order {
		out = append(out, summarise(n, prices[n]))
	}
	return out
}

func summarise(name string, values []float64) models.BoxplotSummary {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	s := models.BoxplotSummary{
		Neighbourhood: name,
		Count:         len(sorted),
		Min:           sorted[0],
		Q1:            quantile(sorted, 0.25),
		Median:        quantile(sorted, 0.5),
		Q3:            quantile(sorted, 0.75),
		Max:           sorted[len(sorted)-1],
		Mean:          sum / float64(len(sorted)),
		Color:         groupColor(name),
	}

	iqr := s.Q3 - s.Q1
	lowFence, highFence := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	s.WhiskerLow, s.WhiskerHigh = s.Min, s.Max
	for _, v := range sorted {
		if v >= lowFence {
			s.WhiskerLow = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= highFence {
			s.WhiskerHigh = sorted[i]
			break
		}
	}
	return s
}

// quantile linearly interpolates between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// groupColor derives a box colour from the neighbourhood name.
func groupColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}

// Choropleth shades each neighbourhood by its mean price over the whole
// dataset. names lists the polygons to shade; when empty the dataset's own
// neighbourhoods are used. Polygons without listings get NoDataColor.
func Choropleth(stats models.NeighbourhoodStats, names []string) models.ChoroplethView {
	legend := legendFor(stats)

	if len(names) == 0 {
		for n := range stats {
			names = append(names, n)
		}
		sort.Strings(names)
	}

	fills := make([]models.ChoroplethFill, 0, len(names))
	for _, n := range names {
		mean, ok := stats[n]
		if !ok {
			fills = append(fills, models.ChoroplethFill{
				Neighbourhood: n,
				Bin:           -1,
				Color:         NoDataColor,
			})
			continue
		}
		bin := binOf(legend, mean)
		fills = append(fills, models.ChoroplethFill{
			Neighbourhood: n,
			MeanPrice:     mean,
			HasData:       true,
			Bin:           bin,
			Color:         legend[bin].Color,
		})
	}
	return models.ChoroplethView{Fills: fills, Legend: legend}
}

// legendFor splits [min mean, max mean] into equal-width bins, one per
// palette colour.
func legendFor(stats models.NeighbourhoodStats) []models.LegendBin {
	if len(stats) == 0 {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range stats {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	k := len(ChoroplethPalette)
	width := (hi - lo) / float64(k)
	legend := make([]models.LegendBin, k)
	for i := range legend {
		legend[i] = models.LegendBin{
			Lower: lo + float64(i)*width,
			Upper: lo + float64(i+1)*width,
			Color: ChoroplethPalette[i],
		}
	}
	legend[k-1].Upper = hi
	return legend
}

func binOf(legend []models.LegendBin, v float64) int {
	if legend[len(legend)-1].Upper == legend[0].Lower {
		return 0
	}
	for i := range legend[:len(legend)-1] {
		if v < legend[i].Upper {
			return i
		}
	}
	return len(legend) - 1
}

// Classify buckets availability_365. Exactly 100 and exactly 200 belong to
// no class and are reported as AvailabilityUnclassified.
func Classify(availability int) models.AvailabilityClass {
	switch {
	case availability > availableAbove:
		return models.AvailabilityAvailable
	case availability > scarceBelow && availability < availableAbove:
		return models.AvailabilityLimited
	case availability < scarceBelow:
		return models.AvailabilityScarce
	default:
		return models.AvailabilityUnclassified
	}
}

// Markers places each filtered listing on the map coloured by availability.
// Unclassified listings are counted but not drawn.
func Markers(listings []models.Listing) models.MarkerView {
	view := models.MarkerView{
		Markers: make([]models.Marker, 0, len(listings)),
		Counts:  make(map[models.AvailabilityClass]int),
	}
	for _, l := range listings {
		class := Classify(l.Availability365)
		if class == models.AvailabilityUnclassified {
			view.Unmarked++
			continue
		}
		view.Counts[class]++
		view.Markers = append(view.Markers, models.Marker{
			ID:        l.ID,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Geohash:   geohash.EncodeWithPrecision(l.Latitude, l.Longitude, markerGeohashPrecision),
			Class:     class,
			Color:     markerColors[class],
		})
	}
	return view
}

// BuildMapView combines the full-dataset choropleth with the markers of a
// filtered result. stats must come from the unfiltered dataset.
func BuildMapView(stats models.NeighbourhoodStats, filtered []models.Listing, boundaryNames []string) models.MapView {
	return models.MapView{
		Choropleth: Choropleth(stats, boundaryNames),
		Markers:    Markers(filtered),
	}
}
