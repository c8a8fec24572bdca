package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"usedcar-market/models"
)

var (
	preparedHeader = []string{
		"row", "price", "model_year", "model", "manufacturer", "condition", "cylinders",
		"fuel", "odometer", "transmission", "type", "paint_color", "is_4wd",
		"date_posted", "days_listed", "age", "age_category", "list_age_category",
	}
	auditHeader = []string{"row", "field", "strategy", "group", "value"}
)

// CSVWriter writes a prepared table to a CSV file for an external
// renderer. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
	kind   string
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	return &CSVWriter{path: path, file: f, writer: csv.NewWriter(f)}, nil
}

// writeHeader writes h once. A file holds a single table kind.
func (c *CSVWriter) writeHeader(kind string, h []string) error {
	if c.kind == kind {
		return nil
	}
	if c.kind != "" {
		return fmt.Errorf("csv: %s already holds %s rows, cannot append %s rows", c.path, c.kind, kind)
	}
	if err := c.writer.Write(h); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	c.kind = kind
	return nil
}

// WritePrepared appends prepared listings, writing the header first.
func (c *CSVWriter) WritePrepared(listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeader("listing", preparedHeader); err != nil {
		return err
	}
	for _, l := range listings {
		row := []string{
			strconv.Itoa(l.Row),
			formatFloat(l.Price),
			strconv.Itoa(l.ModelYear),
			l.Model,
			l.Manufacturer,
			l.Condition,
			formatFloat(l.Cylinders),
			l.Fuel,
			formatFloat(l.Odometer),
			l.Transmission,
			l.Type,
			l.PaintColor,
			strconv.FormatBool(l.Is4WD),
			l.DatePosted,
			strconv.Itoa(l.DaysListed),
			strconv.Itoa(l.Age),
			l.AgeCategory,
			l.ListAgeCategory,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteImputations appends imputation log entries, writing the header first.
func (c *CSVWriter) WriteImputations(audit []models.Imputation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeader("imputation", auditHeader); err != nil {
		return err
	}
	for _, a := range audit {
		if err := c.writer.Write([]string{strconv.Itoa(a.Row), a.Field, a.Strategy, a.Group, a.Value}); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
