package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"usedcar-market/models"
	"usedcar-market/utils"
)

// Snapshot is one prepared record set. It is never modified after Prepare
// returns and may be shared by concurrent readers.
type Snapshot struct {
	ID            string
	PreparedAt    time.Time
	ReferenceYear int
	Schemes       Schemes
	Listings      []models.Listing
	Imputations   []models.Imputation
	Duplicates    int
}

// Pipeline runs imputation then derivation in a fixed order.
type Pipeline struct {
	referenceYear int
	schemes       Schemes
	imputer       *Imputer
	logger        *utils.Logger
}

// NewPipeline creates a Pipeline. referenceYear must be set by the caller.
func NewPipeline(referenceYear int, schemes Schemes, logger *utils.Logger) (*Pipeline, error) {
	if referenceYear <= 0 {
		return nil, fmt.Errorf("pipeline: reference year must be positive, got %d", referenceYear)
	}
	if err := schemes.Age.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if err := schemes.ListAge.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		referenceYear: referenceYear,
		schemes:       schemes,
		imputer:       NewImputer(logger),
		logger:        logger,
	}, nil
}

// Prepare imputes and derives every row. Any error aborts the whole
// preparation and no partial snapshot is returned.
func (p *Pipeline) Prepare(ctx context.Context, raws []models.RawListing) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dups := countDuplicates(raws)
	listings, audit, err := p.imputer.Impute(raws)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deriver := NewDeriver(p.referenceYear, p.schemes)
	for i := range listings {
		if err := deriver.Derive(&listings[i]); err != nil {
			return nil, err
		}
	}

	snap := &Snapshot{
		ID:            uuid.NewString(),
		PreparedAt:    time.Now().UTC(),
		ReferenceYear: p.referenceYear,
		Schemes:       p.schemes,
		Listings:      listings,
		Imputations:   audit,
		Duplicates:    dups,
	}
	if p.logger != nil {
		p.logger.Info("[pipeline] Prepared %d listings (%d cells imputed, %d duplicate rows), snapshot %s",
			len(listings), len(audit), dups, snap.ID)
	}
	return snap, nil
}

// countDuplicates counts rows identical to an earlier row in every column.
func countDuplicates(raws []models.RawListing) int {
	seen := make(map[string]struct{}, len(raws))
	dups := 0
	for i := range raws {
		key := fingerprint(&raws[i])
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

func fingerprint(r *models.RawListing) string {
	optF := func(v *float64) string {
		if v == nil {
			return "\x00"
		}
		return formatNumber(*v)
	}
	paint := "\x00"
	if r.PaintColor != nil {
		paint = *r.PaintColor
	}
	fwd := "\x00"
	if r.Is4WD != nil {
		fwd = strconv.FormatBool(*r.Is4WD)
	}
	return strings.Join([]string{
		optF(r.Price), optF(r.ModelYear), r.Model, r.Condition, optF(r.Cylinders),
		r.Fuel, optF(r.Odometer), r.Transmission, r.Type, paint, fwd,
		r.DatePosted, strconv.Itoa(r.DaysListed),
	}, "\x1f")
}
