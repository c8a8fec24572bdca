package storage

import (
	"context"
	"fmt"

	"usedcar-market/models"
	"usedcar-market/utils"
)

// MultiReader loads several CSV shards concurrently and concatenates them
// in argument order. Row indices are renumbered across shards.
type MultiReader struct {
	paths     []string
	delimiter rune
	pool      *utils.WorkerPool
	logger    *utils.Logger
}

// NewMultiReader creates a reader over paths using at most maxConcurrency
// goroutines.
func NewMultiReader(paths []string, delimiter rune, maxConcurrency int, logger *utils.Logger) (*MultiReader, error) {
	if len(paths) == 0 {
		return nil, &models.MissingInputError{Source: "", Err: fmt.Errorf("no input paths given")}
	}
	return &MultiReader{
		paths:     paths,
		delimiter: delimiter,
		pool:      utils.NewWorkerPool(maxConcurrency),
		logger:    logger,
	}, nil
}

// Read loads every shard. The first error in argument order is returned.
func (m *MultiReader) Read(ctx context.Context) ([]models.RawListing, error) {
	results := make([][]models.RawListing, len(m.paths))
	errs := make([]error, len(m.paths))

	for i, path := range m.paths {
		m.pool.Submit(func() {
			r, err := NewCSVReader(path, m.delimiter)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = r.Read(ctx)
		})
	}
	m.pool.Wait()

	total := 0
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("csv shard %s: %w", m.paths[i], err)
		}
		total += len(results[i])
	}

	out := make([]models.RawListing, 0, total)
	for i, shard := range results {
		for _, r := range shard {
			r.Row = len(out)
			out = append(out, r)
		}
		if m.logger != nil {
			m.logger.Debug("[loader] %s: %d rows", m.paths[i], len(shard))
		}
	}
	return out, nil
}

func (m *MultiReader) Close() error { return nil }
