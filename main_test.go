package main

import (
	"testing"

	"airbnb-dashboard/config"
	"airbnb-dashboard/models"
	"airbnb-dashboard/server"
)

func TestReportQuery(t *testing.T) {
	cfg := &config.Config{DefaultMinPrice: 20, DefaultMaxPrice: 100, DefaultMinNights: 1}

	tests := []struct {
		name           string
		args           []string
		mode           string
		neighbourhoods []string
		minPrice       string
		maxPrice       string
	}{
		{name: "no flags", args: nil, mode: server.ModeAll},
		{
			name: "price only searches every neighbourhood",
			args: []string{"-max-price", "60"},
			mode: server.ModeFilter, neighbourhoods: []string{models.AllNeighbourhoods},
			minPrice: "20", maxPrice: "60",
		},
		{
			name: "nights only",
			args: []string{"-min-nights", "3"},
			mode: server.ModeFilter, neighbourhoods: []string{models.AllNeighbourhoods},
			minPrice: "20", maxPrice: "100",
		},
		{
			name: "named neighbourhoods",
			args: []string{"-neighbourhoods", "Back Bay, Fenway"},
			mode: server.ModeFilter, neighbourhoods: []string{"Back Bay", "Fenway"},
			minPrice: "20", maxPrice: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := reportQuery(cfg, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.Get("mode") != tt.mode {
				t.Errorf("mode: got %q, want %q", v.Get("mode"), tt.mode)
			}
			if len(v["neighbourhood"]) != len(tt.neighbourhoods) {
				t.Fatalf("neighbourhoods: got %v, want %v", v["neighbourhood"], tt.neighbourhoods)
			}
			for i, n := range tt.neighbourhoods {
				if v["neighbourhood"][i] != n {
					t.Errorf("neighbourhood %d: got %q, want %q", i, v["neighbourhood"][i], n)
				}
			}
			if v.Get("min_price") != tt.minPrice || v.Get("max_price") != tt.maxPrice {
				t.Errorf("prices: got %s-%s, want %s-%s", v.Get("min_price"), v.Get("max_price"), tt.minPrice, tt.maxPrice)
			}
		})
	}
}

func TestReportQueryCriteria(t *testing.T) {
	cfg := &config.Config{DefaultMinPrice: 20, DefaultMaxPrice: 100, DefaultMinNights: 1}
	v, err := reportQuery(cfg, []string{"-min-price", "40", "-max-price", "60"})
	if err != nil {
		t.Fatal(err)
	}
	q, err := server.ParseQuery(v, server.FormDefaults{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !q.Criteria.Neighbourhoods.IsAll() {
		t.Errorf("price-only report should cover every neighbourhood")
	}
	if p := q.Criteria.Price; p == nil || p.Min != 40 || p.Max != 60 {
		t.Errorf("price: got %+v", p)
	}
}

func TestReportQueryBadFlag(t *testing.T) {
	cfg := &config.Config{}
	if _, err := reportQuery(cfg, []string{"-min-price", "cheap"}); err == nil {
		t.Errorf("expected an error for a non-numeric flag")
	}
}
