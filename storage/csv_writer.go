package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"airbnb-dashboard/models"
)

// TableHeader is the column order of exported table rows.
var TableHeader = []string{"id", "neighbourhood", "price", "minimum_nights", "availability_365"}

var _ TableWriter = (*CSVWriter)(nil)

// CSVWriter writes table rows as CSV. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	writer *csv.Writer
	header bool
}

// NewCSVWriter wraps w. The header row is written before the first batch.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{writer: csv.NewWriter(w)}
}

// WriteRows appends rows in the given order.
func (c *CSVWriter) WriteRows(rows []models.TableRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.header {
		if err := c.writer.Write(TableHeader); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
		c.header = true
	}

	for _, r := range rows {
		row := []string{
			r.ID,
			r.Neighbourhood,
			strconv.FormatFloat(r.Price, 'f', 2, 64),
			strconv.Itoa(r.MinimumNights),
			strconv.Itoa(r.Availability365),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row %s: %w", r.ID, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}
