package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ListingsByNeighbourhood: make(map[string]int),
		ListingsByAvailability:  make(map[models.AvailabilityClass]int),
	}

	if len(listings) == 0 {
		s.logger.Debug("[insights] Empty result, nothing to summarise")
		return report
	}

	report.TotalListings = len(listings)
	report.MinPrice = listings[0].Price
	report.MaxPrice = listings[0].Price
	cheapest := listings[0]

	var total float64
	for _, l := range listings {
		total += l.Price
		if l.Price < report.MinPrice {
			report.MinPrice = l.Price
			cheapest = l
		}
		if l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
		}
		report.ListingsByNeighbourhood[l.Neighbourhood]++
		report.ListingsByAvailability[Classify(l.Availability365)]++
	}

	report.Cheapest = &cheapest
	report.AveragePrice = round2(total / float64(len(listings)))
	report.MinPrice = round2(report.MinPrice)
	report.MaxPrice = round2(report.MaxPrice)

	return report
}

// Print writes the report followed by the table view to w.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport, rows []models.TableRow) {
	sep := strings.Repeat("═", 64)
	thin := strings.Repeat("─", 64)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  AIRBNB LISTINGS ANALYTICS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	if r.TotalListings == 0 {
		fmt.Fprintf(w, "  No listings match the selected filters.\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}

	fmt.Fprintf(w, "\033[1;33m  Price Statistics (per night)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Matching listings : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Fprintf(w, "  Average price     : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
	fmt.Fprintf(w, "  Minimum price     : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
	fmt.Fprintf(w, "  Maximum price     : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	if r.Cheapest != nil {
		fmt.Fprintf(w, "  Cheapest          : %s in %s\n", r.Cheapest.ID, r.Cheapest.Neighbourhood)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Availability\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, c := range []models.AvailabilityClass{
		models.AvailabilityAvailable, models.AvailabilityLimited,
		models.AvailabilityScarce, models.AvailabilityUnclassified,
	} {
		fmt.Fprintf(w, "  %-14s %d\n", c, r.ListingsByAvailability[c])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings by Neighbourhood\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	type neighCount struct {
		name  string
		count int
	}
	var counts []neighCount
	for n, c := range r.ListingsByNeighbourhood {
		counts = append(counts, neighCount{n, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	for _, nc := range counts {
		fmt.Fprintf(w, "  %-26s %5d\n", truncate(nc.name, 26), nc.count)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Listings (cheapest first)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  %-12s %-26s %9s %7s %6s\n", "id", "neighbourhood", "price", "nights", "avail")
	for _, row := range rows {
		fmt.Fprintf(w, "  %-12s %-26s %9.2f %7d %6d\n",
			truncate(row.ID, 12), truncate(row.Neighbourhood, 26),
			row.Price, row.MinimumNights, row.Availability365)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
