package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"usedcar-market/models"
)

// CSVReader loads raw listings from a delimited file with a header row.
// Column order is free; columns are matched by name, case-insensitively.
type CSVReader struct {
	path      string
	delimiter rune
	file      *os.File
}

// NewCSVReader opens the file at path. delimiter 0 means ','.
func NewCSVReader(path string, delimiter rune) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.MissingInputError{Source: path, Err: err}
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{path: path, delimiter: delimiter, file: f}, nil
}

// Read parses every data row. The file is read once; a second call
// returns an error.
func (c *CSVReader) Read(ctx context.Context) ([]models.RawListing, error) {
	if c.file == nil {
		return nil, fmt.Errorf("csv: %s already read", c.path)
	}
	defer func() {
		_ = c.file.Close()
		c.file = nil
	}()
	return readCSV(ctx, c.path, c.file, c.delimiter)
}

// Close releases the file if Read was never called.
func (c *CSVReader) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func readCSV(ctx context.Context, source string, in io.Reader, delimiter rune) ([]models.RawListing, error) {
	r := csv.NewReader(in)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &models.SchemaError{Source: source, Column: Columns[0]}
		}
		return nil, &models.MissingInputError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, &models.SchemaError{Source: source, Column: col}
		}
	}

	var out []models.RawListing
	for row := 0; ; row++ {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &models.DataIntegrityError{Row: row, Field: "record", Reason: err.Error()}
		}
		get := func(col string) (string, bool) {
			i := index[col]
			if i >= len(rec) {
				return "", false
			}
			return rec[i], true
		}
		listing, err := parseRecord(row, get)
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}
