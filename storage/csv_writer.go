package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"reverb-sync/models"
)

// CSVWriter appends scraped listing snapshots to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	// Write header
	if err := w.Write([]string{
		"url", "name", "make", "model", "year", "condition", "status",
		"price", "currency", "shipping_price", "ships_to_canada",
		"published_at", "seller", "location", "views", "watchers", "error",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteListings writes one row per listing. Error-marker listings are
// written too, with the error column set, so a snapshot is a complete
// record of the run.
func (c *CSVWriter) WriteListings(listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		shipping := ""
		if l.ShippingPrice != nil {
			shipping = *l.ShippingPrice
		}
		shipsCA := ""
		if l.ShipsToCanada != nil {
			shipsCA = strconv.FormatBool(*l.ShipsToCanada)
		}
		row := []string{
			l.URL,
			l.Name,
			l.Make,
			l.Model,
			l.Year,
			l.Condition,
			l.Status,
			l.Price,
			l.Currency,
			shipping,
			shipsCA,
			l.PublishedAt,
			l.Seller,
			l.Location,
			strconv.Itoa(l.Views),
			strconv.Itoa(l.Watchers),
			l.Error,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
