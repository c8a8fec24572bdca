package storage

import (
	"context"

	"usedcar-market/models"
)

// ListingSource is the interface any input backend must satisfy.
type ListingSource interface {
	Read(ctx context.Context) ([]models.RawListing, error)
	Close() error
}

// ListingWriter persists prepared listings for an external renderer.
type ListingWriter interface {
	WritePrepared(listings []models.Listing) error
	Close() error
}

// AuditWriter persists the imputation log of a preparation run.
type AuditWriter interface {
	WriteImputations(audit []models.Imputation) error
	Close() error
}

var (
	_ ListingSource = (*CSVReader)(nil)
	_ ListingSource = (*MultiReader)(nil)
	_ ListingSource = (*SQLReader)(nil)
	_ ListingWriter = (*CSVWriter)(nil)
	_ AuditWriter   = (*CSVWriter)(nil)
)
