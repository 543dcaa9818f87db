package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"reverb-sync/models"
)

// PostgresWriter persists scraped listing snapshots to PostgreSQL, one
// row per listing per run, keyed by (url, scraped_at).
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listing_snapshots (
			id              SERIAL PRIMARY KEY,
			url             TEXT         NOT NULL,
			name            TEXT         NOT NULL DEFAULT '',
			make            TEXT         NOT NULL DEFAULT '',
			model           TEXT         NOT NULL DEFAULT '',
			year            TEXT         NOT NULL DEFAULT '',
			condition       TEXT         NOT NULL DEFAULT '',
			status          TEXT         NOT NULL DEFAULT '',
			price           TEXT         NOT NULL DEFAULT '',
			currency        TEXT         NOT NULL DEFAULT '',
			shipping_price  TEXT,
			ships_to_canada BOOLEAN,
			published_at    TEXT         NOT NULL DEFAULT '',
			seller          TEXT         NOT NULL DEFAULT '',
			location        TEXT         NOT NULL DEFAULT '',
			views           INTEGER      NOT NULL DEFAULT 0,
			watchers        INTEGER      NOT NULL DEFAULT 0,
			error           TEXT         NOT NULL DEFAULT '',
			scraped_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_url        ON listing_snapshots(url);
		CREATE INDEX IF NOT EXISTS idx_snapshots_scraped_at ON listing_snapshots(scraped_at);
		CREATE INDEX IF NOT EXISTS idx_snapshots_status     ON listing_snapshots(status);
	`)
	return err
}

// WriteListings batch-inserts all listings from a run. Older snapshots
// are kept so price and availability history remains queryable.
func (pw *PostgresWriter) WriteListings(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	const cols = 17
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		var shipping sql.NullString
		if l.ShippingPrice != nil {
			shipping = sql.NullString{String: *l.ShippingPrice, Valid: true}
		}
		var shipsCA sql.NullBool
		if l.ShipsToCanada != nil {
			shipsCA = sql.NullBool{Bool: *l.ShipsToCanada, Valid: true}
		}

		valueArgs = append(valueArgs,
			l.URL, l.Name, l.Make, l.Model, l.Year, l.Condition, l.Status,
			l.Price, l.Currency, shipping, shipsCA, l.PublishedAt,
			l.Seller, l.Location, l.Views, l.Watchers, l.Error)
	}

	query := fmt.Sprintf(`
		INSERT INTO listing_snapshots (
			url, name, make, model, year, condition, status,
			price, currency, shipping_price, ships_to_canada, published_at,
			seller, location, views, watchers, error
		)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchHistory retrieves all stored snapshots for a listing URL, oldest
// first.
func (pw *PostgresWriter) FetchHistory(url string) ([]*models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT url, name, make, model, year, condition, status,
		       price, currency, shipping_price, ships_to_canada, published_at,
		       seller, location, views, watchers, error
		FROM listing_snapshots
		WHERE url = $1
		ORDER BY scraped_at
	`, url)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch history: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var shipping sql.NullString
		var shipsCA sql.NullBool
		if err := rows.Scan(
			&l.URL, &l.Name, &l.Make, &l.Model, &l.Year, &l.Condition, &l.Status,
			&l.Price, &l.Currency, &shipping, &shipsCA, &l.PublishedAt,
			&l.Seller, &l.Location, &l.Views, &l.Watchers, &l.Error,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if shipping.Valid {
			s := shipping.String
			l.ShippingPrice = &s
		}
		if shipsCA.Valid {
			b := shipsCA.Bool
			l.ShipsToCanada = &b
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
