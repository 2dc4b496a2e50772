package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

const batchSize = 50

var _ ListingStore = (*PostgresStore)(nil)

// PostgresStore persists cleaned listings to PostgreSQL and can serve them
// back as a dataset source.
type PostgresStore struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retries int, logger *utils.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := utils.RetryConfig{MaxAttempts: retries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{db: db, logger: logger}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id               TEXT          PRIMARY KEY,
			position         INTEGER       NOT NULL,
			neighbourhood    TEXT          NOT NULL,
			price            NUMERIC(10,2) NOT NULL,
			minimum_nights   INTEGER       NOT NULL,
			availability_365 INTEGER       NOT NULL,
			latitude         DOUBLE PRECISION NOT NULL,
			longitude        DOUBLE PRECISION NOT NULL,
			imported_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_position      ON listings(position);
		CREATE INDEX IF NOT EXISTS idx_listings_neighbourhood ON listings(neighbourhood);
		CREATE INDEX IF NOT EXISTS idx_listings_price         ON listings(price);
	`)
	return err
}

// Write replaces the stored listings with the given ones inside a single
// transaction. Source order is kept in the position column.
func (ps *PostgresStore) Write(ctx context.Context, listings []models.Listing) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		if err := insertBatch(ctx, tx, i, listings[i:end]); err != nil {
			return fmt.Errorf("postgres: insert rows %d-%d: %w", i, end-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	ps.logger.Info("[postgres] Stored %d listings", len(listings))
	return nil
}

// insertStatement builds a multi-row INSERT for n listings.
func insertStatement(n int) string {
	const cols = 8
	values := make([]string, 0, n)
	for idx := 0; idx < n; idx++ {
		base := idx * cols
		values = append(values,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
	}
	return fmt.Sprintf(`
		INSERT INTO listings (id, position, neighbourhood, price, minimum_nights, availability_365, latitude, longitude)
		VALUES %s
	`, strings.Join(values, ","))
}

func insertBatch(ctx context.Context, tx *sql.Tx, offset int, batch []models.Listing) error {
	args := make([]any, 0, len(batch)*8)
	for i, l := range batch {
		args = append(args,
			l.ID, offset+i, l.Neighbourhood, l.Price,
			l.MinimumNights, l.Availability365, l.Latitude, l.Longitude)
	}
	_, err := tx.ExecContext(ctx, insertStatement(len(batch)), args...)
	return err
}

// FetchAll retrieves all stored listings in their original order.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, neighbourhood, price, minimum_nights, availability_365, latitude, longitude
		FROM listings
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.Neighbourhood, &l.Price, &l.MinimumNights,
			&l.Availability365, &l.Latitude, &l.Longitude,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
