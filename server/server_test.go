package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"airbnb-dashboard/geo"
	"airbnb-dashboard/models"
	"airbnb-dashboard/render"
	"airbnb-dashboard/utils"
)

const testGeoJSON = `{"type": "FeatureCollection", "features": [
  {"type": "Feature", "properties": {"name": "A"}, "geometry": {"type": "Polygon", "coordinates": []}},
  {"type": "Feature", "properties": {"name": "Z"}, "geometry": {"type": "Polygon", "coordinates": []}}
]}`

var testDefaults = FormDefaults{MinPrice: 20, MaxPrice: 100, MinNights: 1}

func testDataset() *models.Dataset {
	return models.NewDataset([]models.Listing{
		{ID: "1", Neighbourhood: "A", Price: 50, MinimumNights: 2, Availability365: 250, Latitude: 42.35, Longitude: -71.06},
		{ID: "2", Neighbourhood: "A", Price: 30, MinimumNights: 5, Availability365: 150, Latitude: 42.34, Longitude: -71.07},
		{ID: "3", Neighbourhood: "B", Price: 120, MinimumNights: 1, Availability365: 100, Latitude: 42.30, Longitude: -71.10},
	})
}

func newTestRouter(t *testing.T, withBoundaries bool) http.Handler {
	t.Helper()
	logger := utils.NewLoggerWithLevel(io.Discard, "error")

	var b *geo.Boundaries
	if withBoundaries {
		var err error
		if b, err = geo.ParseBoundaries([]byte(testGeoJSON)); err != nil {
			t.Fatal(err)
		}
	}
	chart, err := render.NewBoxplotRenderer()
	if err != nil {
		t.Fatal(err)
	}
	h, err := NewHandlers(testDataset(), b, chart, testDefaults, logger)
	if err != nil {
		t.Fatal(err)
	}
	return NewRouter(h, []string{"*"}, logger)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHomePage(t *testing.T) {
	rec := get(t, newTestRouter(t, true), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`value="All Neighbourhoods"`, `value="A"`, `name="max_price" min="0" value="100"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page misses %s", want)
		}
	}
	if rec.Header().Get(traceHeader) == "" {
		t.Errorf("missing %s header", traceHeader)
	}
}

func TestSearchTable(t *testing.T) {
	target := "/search?display=table&mode=filter&neighbourhood=A&min_price=20&max_price=100&min_nights=3"
	rec := get(t, newTestRouter(t, true), target)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<td>1</td><td>A</td><td>$50.00</td>") {
		t.Errorf("table misses listing 1:\n%s", body)
	}
	if strings.Contains(body, "<td>2</td>") {
		t.Errorf("listing 2 needs 5 nights and should be filtered out")
	}
}

func TestSearchMap(t *testing.T) {
	rec := get(t, newTestRouter(t, true), "/search?display=map&mode=all")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="map"`) || !strings.Contains(body, "/api/v1/boxplot.png") {
		t.Errorf("map page misses map or box plot")
	}
	if !strings.Contains(body, "/api/v1/boundaries") {
		t.Errorf("map page should load boundaries")
	}
}

func TestSearchInvalidCriteriaRePrompts(t *testing.T) {
	rec := get(t, newTestRouter(t, true), "/search?mode=filter&min_price=100&max_price=20")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `class="error"`) {
		t.Errorf("page should show the error")
	}
	if !strings.Contains(body, `name="min_price" min="0" value="100"`) {
		t.Errorf("form should keep the submitted values")
	}
}

func TestListingsAPI(t *testing.T) {
	router := newTestRouter(t, true)

	rec := get(t, router, "/api/v1/listings")
	var resp listingsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 3 || resp.Rows[0].ID != "2" {
		t.Errorf("all listings sorted by price: got %+v", resp)
	}

	rec = get(t, router, "/api/v1/listings?mode=filter&neighbourhood=Nowhere")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown neighbourhood: got %d, want 400", rec.Code)
	}
	var e map[string]string
	json.NewDecoder(rec.Body).Decode(&e)
	if !strings.Contains(e["error"], "Nowhere") {
		t.Errorf("error message: got %q", e["error"])
	}

	rec = get(t, router, "/api/v1/listings?mode=filter&neighbourhood=A&min_price=NaN&max_price=NaN")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("NaN price bounds: got %d, want 400", rec.Code)
	}
}

func TestMapAPI(t *testing.T) {
	rec := get(t, newTestRouter(t, true), "/api/v1/map?mode=filter&neighbourhood=All+Neighbourhoods")
	var view models.MapView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if len(view.Choropleth.Fills) != 2 {
		t.Fatalf("fills: got %+v, want one per polygon", view.Choropleth.Fills)
	}
	if z := view.Choropleth.Fills[1]; z.Neighbourhood != "Z" || z.HasData {
		t.Errorf("polygon without listings: got %+v", z)
	}
	// Listing 3 has exactly 100 days available and is not drawn.
	if len(view.Markers.Markers) != 2 || view.Markers.Unmarked != 1 {
		t.Errorf("markers: got %d drawn, %d unmarked", len(view.Markers.Markers), view.Markers.Unmarked)
	}
}

func TestBoundariesAPI(t *testing.T) {
	rec := get(t, newTestRouter(t, true), "/api/v1/boundaries")
	if rec.Code != http.StatusOK || rec.Body.String() != testGeoJSON {
		t.Errorf("boundaries: got %d", rec.Code)
	}

	rec = get(t, newTestRouter(t, false), "/api/v1/boundaries")
	if rec.Code != http.StatusNotFound {
		t.Errorf("without boundaries: got %d, want 404", rec.Code)
	}
}

func TestBoxplotPNG(t *testing.T) {
	rec := get(t, newTestRouter(t, false), "/api/v1/boxplot.png")
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("content type: got %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("body is not a PNG")
	}
}

func TestListingsCSV(t *testing.T) {
	rec := get(t, newTestRouter(t, false), "/api/v1/listings.csv?mode=filter&neighbourhood=B")
	want := "id,neighbourhood,price,minimum_nights,availability_365\n3,B,120.00,1,100\n"
	if rec.Body.String() != want {
		t.Errorf("csv: got %q, want %q", rec.Body.String(), want)
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, q Query)
	}{
		{
			name:  "defaults",
			query: "",
			check: func(t *testing.T, q Query) {
				if q.Display != DisplayMap || !q.Criteria.Neighbourhoods.IsAll() || q.Criteria.Price != nil {
					t.Errorf("got %+v", q)
				}
			},
		},
		{
			name:  "all mode ignores filter fields",
			query: "mode=all&neighbourhood=A&min_price=5&max_price=1",
			check: func(t *testing.T, q Query) {
				if q.Criteria.Price != nil || !q.Criteria.Neighbourhoods.IsAll() {
					t.Errorf("got %+v", q.Criteria)
				}
			},
		},
		{
			name:  "filter",
			query: "display=table&mode=filter&neighbourhood=A&neighbourhood=B&min_price=20&max_price=100&min_nights=3",
			check: func(t *testing.T, q Query) {
				c := q.Criteria
				if c.Price == nil || c.Price.Min != 20 || c.Price.Max != 100 {
					t.Errorf("price: got %+v", c.Price)
				}
				if c.MaxMinimumNights == nil || *c.MaxMinimumNights != 3 {
					t.Errorf("nights: got %v", c.MaxMinimumNights)
				}
				if !c.Neighbourhoods.Matches("B") || c.Neighbourhoods.Matches("C") {
					t.Errorf("neighbourhoods: got %v", c.Neighbourhoods.Names())
				}
				if !q.Form.Selected["A"] || q.Form.Display != DisplayTable {
					t.Errorf("form: got %+v", q.Form)
				}
			},
		},
		{
			name:  "filter without neighbourhoods matches nothing",
			query: "mode=filter",
			check: func(t *testing.T, q Query) {
				if q.Criteria.Neighbourhoods.IsAll() || q.Criteria.Neighbourhoods.Matches("A") {
					t.Errorf("got %v", q.Criteria.Neighbourhoods)
				}
			},
		},
		{name: "unknown display", query: "display=chart", wantErr: true},
		{name: "unknown mode", query: "mode=some", wantErr: true},
		{name: "lone price bound", query: "mode=filter&min_price=10", wantErr: true},
		{name: "non-numeric price", query: "mode=filter&min_price=a&max_price=10", wantErr: true},
		{name: "NaN prices", query: "mode=filter&min_price=NaN&max_price=NaN", wantErr: true},
		{name: "NaN lower price", query: "mode=filter&min_price=NaN&max_price=100", wantErr: true},
		{name: "infinite price", query: "mode=filter&min_price=0&max_price=Inf", wantErr: true},
		{name: "non-numeric nights", query: "mode=filter&min_nights=two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := url.ParseQuery(tt.query)
			q, err := ParseQuery(v, testDefaults)
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidFilterCriteria) {
					t.Errorf("got %v, want ErrInvalidFilterCriteria", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, q)
		})
	}
}
