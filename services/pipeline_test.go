package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"usedcar-market/models"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(2023, DefaultSchemes(), newTestLogger())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func camryFixture() []models.RawListing {
	rows := []models.RawListing{
		rawRow(0, "Toyota Camry", "sedan", 0, 0, 45),
		rawRow(1, "Toyota Camry", "sedan", 2015, 11000, 6),
		rawRow(2, "Toyota Camry", "sedan", 2017, 13500, 181),
	}
	rows[0].ModelYear = nil
	rows[0].Price = nil
	return rows
}

func TestPrepareCamryScenario(t *testing.T) {
	snap, err := newTestPipeline(t).Prepare(context.Background(), camryFixture())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	l := snap.Listings[0]
	if l.Manufacturer != "Toyota" {
		t.Errorf("Manufacturer: got %q, want Toyota", l.Manufacturer)
	}
	if l.ModelYear != 2016 {
		t.Errorf("ModelYear: got %d, want 2016", l.ModelYear)
	}
	if l.Price != 0 {
		t.Errorf("Price: got %v, want 0", l.Price)
	}
	if l.Age != 7 || l.AgeCategory != "5–10" {
		t.Errorf("age: got %d %q, want 7 5–10", l.Age, l.AgeCategory)
	}

	wantListAge := []string{"30–60", "<7", ">180"}
	for i, want := range wantListAge {
		if got := snap.Listings[i].ListAgeCategory; got != want {
			t.Errorf("row %d list age: got %q, want %q", i, got, want)
		}
	}
	if snap.ReferenceYear != 2023 {
		t.Errorf("ReferenceYear: got %d", snap.ReferenceYear)
	}
	if snap.ID == "" {
		t.Error("snapshot ID should be set")
	}
	if len(snap.Imputations) != 2 {
		t.Errorf("imputations: got %d, want 2 (price, model_year)", len(snap.Imputations))
	}
}

func TestPrepareManufacturerIsFirstToken(t *testing.T) {
	raws := []models.RawListing{
		rawRow(0, "chevrolet silverado 1500", "truck", 2011, 1, 1),
		rawRow(1, "ram 2500", "truck", 2014, 1, 1),
		rawRow(2, "bmw x5", "SUV", 2013, 1, 1),
	}
	snap, err := newTestPipeline(t).Prepare(context.Background(), raws)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	for _, l := range snap.Listings {
		if want := strings.Fields(l.Model)[0]; l.Manufacturer != want {
			t.Errorf("row %d: manufacturer %q, want %q", l.Row, l.Manufacturer, want)
		}
	}
}

func TestPrepareIsIdempotent(t *testing.T) {
	raws := camryFixture()
	raws = append(raws, rawRow(3, "ford f-150", "truck", 2012, 0, 20))
	raws[3].Cylinders = nil
	raws[3].Odometer = nil
	raws[3].PaintColor = nil
	raws[3].Is4WD = nil

	p := newTestPipeline(t)
	first, err := p.Prepare(context.Background(), raws)
	if err != nil {
		t.Fatalf("first Prepare: %v", err)
	}

	again := make([]models.RawListing, len(first.Listings))
	for i, l := range first.Listings {
		again[i] = l.Raw()
	}
	second, err := p.Prepare(context.Background(), again)
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if len(second.Imputations) != 0 {
		t.Errorf("second pass imputed %d cells, want 0", len(second.Imputations))
	}
	for i := range first.Listings {
		if first.Listings[i] != second.Listings[i] {
			t.Errorf("row %d changed:\n first  %+v\n second %+v", i, first.Listings[i], second.Listings[i])
		}
	}
}

func TestPrepareCountsDuplicates(t *testing.T) {
	a := rawRow(0, "kia soul", "hatchback", 2014, 7000, 3)
	b := rawRow(1, "kia soul", "hatchback", 2014, 7000, 3)
	c := rawRow(2, "kia soul", "hatchback", 2014, 7100, 3)
	snap, err := newTestPipeline(t).Prepare(context.Background(), []models.RawListing{a, b, c})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if snap.Duplicates != 1 {
		t.Errorf("Duplicates: got %d, want 1", snap.Duplicates)
	}
	if len(snap.Listings) != 3 {
		t.Errorf("duplicates must not be dropped, got %d listings", len(snap.Listings))
	}
}

func TestPrepareAbortsOnIntegrityError(t *testing.T) {
	raws := camryFixture()
	raws[1].DaysListed = -4
	snap, err := newTestPipeline(t).Prepare(context.Background(), raws)
	if !errors.Is(err, models.ErrDataIntegrity) {
		t.Fatalf("got %v, want data integrity error", err)
	}
	if snap != nil {
		t.Error("no partial snapshot should be returned")
	}
}

func TestPrepareHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestPipeline(t).Prepare(ctx, camryFixture()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNewPipelineValidates(t *testing.T) {
	if _, err := NewPipeline(0, DefaultSchemes(), nil); err == nil {
		t.Error("expected error for zero reference year")
	}
	bad := DefaultSchemes()
	bad.ListAge = BucketScheme{Name: "list_age_category"}
	if _, err := NewPipeline(2023, bad, nil); !errors.Is(err, ErrEmptyScheme) {
		t.Errorf("got %v, want ErrEmptyScheme", err)
	}
}

func TestPrepareEmptyInput(t *testing.T) {
	snap, err := newTestPipeline(t).Prepare(context.Background(), nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(snap.Listings) != 0 {
		t.Errorf("got %d listings, want 0", len(snap.Listings))
	}
}
