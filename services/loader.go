package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

// RequiredColumns are the listing columns the dashboard reads. Every other
// column of the source is dropped on load.
var RequiredColumns = []string{
	"id", "neighbourhood", "price", "minimum_nights",
	"availability_365", "latitude", "longitude",
}

// CSVSource is a tabular listings source with a header row.
type CSVSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// ListingReader is a source that already stores typed listings.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]models.Listing, error)
}

// Loader builds the canonical Dataset from a source.
type Loader struct {
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewLoader creates a Loader with the given logger.
func NewLoader(logger *utils.Logger) *Loader {
	return &Loader{cleaner: NewCleaner(logger), logger: logger}
}

// Load opens src and builds a Dataset from its CSV content. Loading an
// unchanged source twice yields identical datasets.
func (l *Loader) Load(ctx context.Context, src CSVSource) (*models.Dataset, error) {
	l.logger.Info("[loader] Loading listings from %s", src)

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrSourceNotFound, src, err)
	}
	defer rc.Close()

	return l.LoadCSV(rc)
}

// LoadCSV builds a Dataset from CSV content with a header row. A header
// with no data rows yields an empty Dataset.
func (l *Loader) LoadCSV(r io.Reader) (*models.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", models.ErrSourceNotFound, err)
	}

	names, hasRows, err := peekHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", models.ErrMalformedDataset, err)
	}

	var missing, dropped []string
	for _, col := range RequiredColumns {
		if !slices.Contains(names, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s",
			models.ErrMalformedDataset, strings.Join(missing, ", "))
	}
	for _, name := range names {
		if !slices.Contains(RequiredColumns, name) {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) > 0 {
		l.logger.Debug("[loader] Dropping unused columns: %s", strings.Join(dropped, ", "))
	}

	// gota refuses zero-row frames.
	if !hasRows {
		l.logger.Warn("[loader] Source has a header but no rows")
		return l.build(nil), nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: read csv: %w", models.ErrMalformedDataset, df.Err)
	}

	df = df.Select(RequiredColumns)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: select columns: %w", models.ErrMalformedDataset, df.Err)
	}

	records := df.Records()
	raw := make([]*models.RawListing, 0, len(records))
	// records[0] is the header, in RequiredColumns order after Select.
	for _, rec := range records[1:] {
		raw = append(raw, &models.RawListing{
			ID:              rec[0],
			Neighbourhood:   rec[1],
			Price:           rec[2],
			MinimumNights:   rec[3],
			Availability365: rec[4],
			Latitude:        rec[5],
			Longitude:       rec[6],
		})
	}

	listings, err := l.cleaner.Clean(raw)
	if err != nil {
		return nil, err
	}
	return l.build(listings), nil
}

// LoadStored builds a Dataset from a store of typed listings, applying the
// same price and uniqueness rules as the CSV path.
func (l *Loader) LoadStored(ctx context.Context, store ListingReader) (*models.Dataset, error) {
	listings, err := store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSourceNotFound, err)
	}
	listings, err = l.cleaner.FilterPriced(listings)
	if err != nil {
		return nil, err
	}
	return l.build(listings), nil
}

// peekHeader returns the column names and whether at least one record
// follows them.
func peekHeader(data []byte) ([]string, bool, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, false, errors.New("empty source")
	}
	if err != nil {
		return nil, false, err
	}
	_, err = cr.Read()
	if err == io.EOF {
		return header, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return header, true, nil
}

func (l *Loader) build(listings []models.Listing) *models.Dataset {
	ds := models.NewDataset(listings)
	l.logger.Info("[loader] Dataset ready: %d listings across %d neighbourhoods",
		ds.Len(), len(ds.Neighbourhoods()))
	return ds
}
