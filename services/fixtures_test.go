package services

import (
	"io"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerWithLevel(io.Discard, "error") }

// scenarioListings is the three-listing example after cleaning: id 3 has
// price 0 and is gone.
func scenarioListings() []models.Listing {
	return []models.Listing{
		{ID: "1", Neighbourhood: "A", Price: 50, MinimumNights: 2, Availability365: 250, Latitude: 42.30, Longitude: -71.05},
		{ID: "2", Neighbourhood: "A", Price: 30, MinimumNights: 5, Availability365: 150, Latitude: 42.31, Longitude: -71.06},
	}
}

func sampleDataset() *models.Dataset {
	return models.NewDataset([]models.Listing{
		{ID: "10", Neighbourhood: "Back Bay", Price: 200, MinimumNights: 2, Availability365: 300, Latitude: 42.350, Longitude: -71.081},
		{ID: "11", Neighbourhood: "Fenway", Price: 80, MinimumNights: 1, Availability365: 120, Latitude: 42.345, Longitude: -71.100},
		{ID: "12", Neighbourhood: "Back Bay", Price: 80, MinimumNights: 30, Availability365: 20, Latitude: 42.351, Longitude: -71.079},
		{ID: "13", Neighbourhood: "Dorchester", Price: 45, MinimumNights: 3, Availability365: 200, Latitude: 42.300, Longitude: -71.060},
		{ID: "14", Neighbourhood: "Fenway", Price: 120, MinimumNights: 4, Availability365: 100, Latitude: 42.343, Longitude: -71.097},
		{ID: "15", Neighbourhood: "Back Bay", Price: 100, MinimumNights: 1, Availability365: 365, Latitude: 42.349, Longitude: -71.083},
	})
}

func ids(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}
