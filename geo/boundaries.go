package geo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"

	"airbnb-dashboard/models"
)

const schemaURL = "boundaries.json"

//go:embed schema/boundaries.json
var schemaJSON []byte

// ErrInvalidBoundaries means the boundary file is not a FeatureCollection of
// named polygons.
var ErrInvalidBoundaries = errors.New("invalid boundary file")

var boundarySchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("geo: add schema resource: %v", err))
	}
	return compiler.MustCompile(schemaURL)
}

// Boundaries holds the neighbourhood polygons drawn under the choropleth.
type Boundaries struct {
	raw   []byte
	names []string
	// folded maps a case-folded name to the spelling used in the file.
	folded map[string]string
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
	} `json:"features"`
}

// LoadBoundaries reads and validates a GeoJSON boundary file.
func LoadBoundaries(path string) (*Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boundaries: %w", err)
	}
	return ParseBoundaries(data)
}

// ParseBoundaries validates GeoJSON content against the boundary schema and
// indexes the feature names.
func ParseBoundaries(data []byte) (*Boundaries, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundaries, err)
	}
	if err := boundarySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundaries, err)
	}

	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBoundaries, err)
	}

	b := &Boundaries{raw: data, folded: make(map[string]string)}
	fold := cases.Fold()
	for _, f := range fc.Features {
		name := f.Properties.Name
		key := fold.String(name)
		if _, dup := b.folded[key]; dup {
			continue
		}
		b.folded[key] = name
		b.names = append(b.names, name)
	}
	sort.Strings(b.names)
	return b, nil
}

// Names returns the neighbourhood names of the boundary file, sorted.
func (b *Boundaries) Names() []string {
	return append([]string(nil), b.names...)
}

// Raw returns the GeoJSON document as loaded.
func (b *Boundaries) Raw() []byte {
	return b.raw
}

// AlignStats computes the mean price per neighbourhood keyed by the
// boundary file's spelling, matching names case-insensitively. Dataset
// neighbourhoods that fold to the same polygon are merged and their mean is
// taken over all of their listings. Neighbourhoods without a polygon keep
// their own name.
func (b *Boundaries) AlignStats(ds *models.Dataset) models.NeighbourhoodStats {
	fold := cases.Fold()
	sums := make(map[string]float64)
	counts := make(map[string]int)
	ds.Each(func(l models.Listing) {
		key := l.Neighbourhood
		if polygon, ok := b.folded[fold.String(key)]; ok {
			key = polygon
		}
		sums[key] += l.Price
		counts[key]++
	})

	out := make(models.NeighbourhoodStats, len(sums))
	for key, sum := range sums {
		out[key] = sum / float64(counts[key])
	}
	return out
}

// CrossValidate compares dataset neighbourhoods with the boundary names.
// unmapped lists dataset neighbourhoods that have no polygon; empty lists
// polygons without listings. Both are sorted.
func (b *Boundaries) CrossValidate(ds *models.Dataset) (unmapped, empty []string) {
	fold := cases.Fold()
	inData := make(map[string]bool)
	for _, n := range ds.Neighbourhoods() {
		key := fold.String(n)
		inData[key] = true
		if _, ok := b.folded[key]; !ok {
			unmapped = append(unmapped, n)
		}
	}
	for _, n := range b.names {
		if !inData[fold.String(n)] {
			empty = append(empty, n)
		}
	}
	sort.Strings(unmapped)
	return unmapped, empty
}
