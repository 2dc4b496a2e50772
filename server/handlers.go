package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"airbnb-dashboard/geo"
	"airbnb-dashboard/models"
	"airbnb-dashboard/render"
	"airbnb-dashboard/services"
	"airbnb-dashboard/storage"
	"airbnb-dashboard/utils"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"price": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
}).ParseFS(templatesFS, "templates/*.html"))

// Handlers serves the dashboard pages and the JSON API over one immutable
// dataset. The full-dataset views are computed once.
type Handlers struct {
	ds         *models.Dataset
	boundaries *geo.Boundaries
	defaults   FormDefaults
	logger     *utils.Logger

	options    []string
	stats      models.NeighbourhoodStats
	polygons   []string
	boxplot    []models.BoxplotSummary
	boxplotPNG []byte
}

// NewHandlers prepares the handlers. boundaries may be nil, in which case
// the map is drawn without neighbourhood polygons.
func NewHandlers(ds *models.Dataset, boundaries *geo.Boundaries, chart *render.BoxplotRenderer,
	defaults FormDefaults, logger *utils.Logger) (*Handlers, error) {
	h := &Handlers{
		ds:         ds,
		boundaries: boundaries,
		defaults:   defaults,
		logger:     logger,
		options:    services.NeighbourhoodOptions(ds),
		stats:      ds.Stats(),
		boxplot:    services.BoxplotStats(ds),
	}
	if boundaries != nil {
		h.stats = boundaries.AlignStats(ds)
		h.polygons = boundaries.Names()
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, h.boxplot); err != nil {
		return nil, fmt.Errorf("render box plot: %w", err)
	}
	h.boxplotPNG = buf.Bytes()
	return h, nil
}

type homePage struct {
	Options []string
	Form    FormState
	Error   string
	Total   int
}

type searchPage struct {
	homePage
	Display string
	Count   int
	Rows    []models.TableRow
	Map     models.MapView
	HasMap  bool
	Boxplot []models.BoxplotSummary
	Legend  []models.LegendBin
}

// Home serves GET /.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "home.html", homePage{
		Options: h.options,
		Form:    DefaultForm(h.defaults),
		Total:   h.ds.Len(),
	})
}

// Search serves GET /search. Invalid criteria re-prompt with the submitted
// form and a 400 status.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	q, filtered, err := h.query(r)
	if err != nil {
		h.renderPage(w, r, http.StatusBadRequest, "home.html", homePage{
			Options: h.options,
			Form:    q.Form,
			Error:   err.Error(),
			Total:   h.ds.Len(),
		})
		return
	}

	page := searchPage{
		homePage: homePage{Options: h.options, Form: q.Form, Total: h.ds.Len()},
		Display:  q.Display,
		Count:    len(filtered),
	}
	if q.Display == DisplayTable {
		page.Rows = services.ToTable(filtered)
	} else {
		page.Map = services.BuildMapView(h.stats, filtered, h.polygons)
		page.HasMap = h.boundaries != nil
		page.Boxplot = h.boxplot
		page.Legend = page.Map.Choropleth.Legend
	}
	h.renderPage(w, r, http.StatusOK, "search.html", page)
}

// Neighbourhoods serves GET /api/v1/neighbourhoods.
func (h *Handlers) Neighbourhoods(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.options)
}

type listingsResponse struct {
	Count int               `json:"count"`
	Rows  []models.TableRow `json:"rows"`
}

// Listings serves GET /api/v1/listings: the table view of a query.
func (h *Handlers) Listings(w http.ResponseWriter, r *http.Request) {
	_, filtered, err := h.query(r)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	rows := services.ToTable(filtered)
	RespondWithJSON(w, http.StatusOK, listingsResponse{Count: len(rows), Rows: rows})
}

// ListingsCSV serves GET /api/v1/listings.csv.
func (h *Handlers) ListingsCSV(w http.ResponseWriter, r *http.Request) {
	_, filtered, err := h.query(r)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="listings.csv"`)
	if err := storage.NewCSVWriter(w).WriteRows(services.ToTable(filtered)); err != nil {
		loggerFrom(r.Context(), h.logger).Error("[http] CSV export failed: %v", err)
	}
}

// Boxplot serves GET /api/v1/boxplot.
func (h *Handlers) Boxplot(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.boxplot)
}

// BoxplotPNG serves GET /api/v1/boxplot.png.
func (h *Handlers) BoxplotPNG(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=3600")
	w.Write(h.boxplotPNG)
}

// Map serves GET /api/v1/map: choropleth plus the markers of a query.
func (h *Handlers) Map(w http.ResponseWriter, r *http.Request) {
	_, filtered, err := h.query(r)
	if err != nil {
		h.writeQueryError(w, r, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, services.BuildMapView(h.stats, filtered, h.polygons))
}

// Boundaries serves GET /api/v1/boundaries as GeoJSON.
func (h *Handlers) Boundaries(w http.ResponseWriter, r *http.Request) {
	if h.boundaries == nil {
		WriteJSONError(w, http.StatusNotFound, "no boundary file loaded")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(h.boundaries.Raw())
}

// query parses and validates the request's criteria and runs the filter.
func (h *Handlers) query(r *http.Request) (Query, []models.Listing, error) {
	q, err := ParseQuery(r.URL.Query(), h.defaults)
	if err != nil {
		return q, nil, err
	}
	if err := services.ValidateCriteria(h.ds, q.Criteria); err != nil {
		return q, nil, err
	}
	return q, services.Filter(h.ds, q.Criteria), nil
}

func (h *Handlers) writeQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrInvalidFilterCriteria) {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	loggerFrom(r.Context(), h.logger).Error("[http] query failed: %v", err)
	WriteJSONError(w, http.StatusInternalServerError, "query failed")
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		loggerFrom(r.Context(), h.logger).Error("[http] render %s: %v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
