package storage

import (
	"context"
	"io"

	"airbnb-dashboard/models"
)

// ListingStore is the interface a persistence backend must satisfy.
type ListingStore interface {
	Write(ctx context.Context, listings []models.Listing) error
	FetchAll(ctx context.Context) ([]models.Listing, error)
	Close() error
}

// TableWriter exports table rows to some external format.
type TableWriter interface {
	WriteRows(rows []models.TableRow) error
}

// Source is a readable listings CSV.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}
