package services

import (
	"bytes"
	"strings"
	"testing"

	"usedcar-market/models"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		ID:            "snap-1",
		ReferenceYear: 2023,
		Schemes:       DefaultSchemes(),
		Duplicates:    1,
		Listings: []models.Listing{
			{Row: 0, Model: "ford f-150", Manufacturer: "ford", Type: "truck", Price: 20000, Odometer: 90000, ModelYear: 2015, AgeCategory: "5–10", ListAgeCategory: "<7"},
			{Row: 1, Model: "ford focus", Manufacturer: "ford", Type: "sedan", Price: 5000, Odometer: 120000, ModelYear: 2010, AgeCategory: "10–20", ListAgeCategory: "<7"},
			{Row: 2, Model: "bmw x5", Manufacturer: "bmw", Type: "SUV", Price: 30000, Odometer: 40000, ModelYear: 2019, AgeCategory: "under 5", ListAgeCategory: "30–60"},
			{Row: 3, Model: "honda civic", Manufacturer: "honda", Type: "sedan", Price: 0, Odometer: 150000, ModelYear: 2004, AgeCategory: "10–20", ListAgeCategory: "<7"},
			{Row: 4, Model: "ford escape", Manufacturer: "ford", Type: "SUV", Price: 10000, Odometer: 80000, ModelYear: 2014, AgeCategory: "5–10", ListAgeCategory: "<7"},
		},
		Imputations: []models.Imputation{
			{Row: 3, Field: "price", Strategy: StrategyConstant},
			{Row: 1, Field: "odometer", Strategy: StrategyGroupMedian},
			{Row: 2, Field: "cylinders", Strategy: StrategyGroupMedian},
		},
	}
}

func TestReportCounts(t *testing.T) {
	r := NewReportService(newTestLogger()).Generate(sampleSnapshot())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.DuplicateRows != 1 {
		t.Errorf("DuplicateRows: got %d, want 1", r.DuplicateRows)
	}
	if r.ListingsByMaker["ford"] != 3 {
		t.Errorf("ford count: got %d, want 3", r.ListingsByMaker["ford"])
	}
	if r.ImputedByStrategy[StrategyGroupMedian] != 2 || r.ImputedByStrategy[StrategyConstant] != 1 {
		t.Errorf("ImputedByStrategy: got %v", r.ImputedByStrategy)
	}
	if r.ListingsByAgeBracket["10–20"] != 2 {
		t.Errorf("10–20 count: got %d, want 2", r.ListingsByAgeBracket["10–20"])
	}
}

func TestReportPricesSkipZeroFill(t *testing.T) {
	r := NewReportService(newTestLogger()).Generate(sampleSnapshot())
	if r.PricedListings != 4 {
		t.Errorf("PricedListings: got %d, want 4", r.PricedListings)
	}
	if r.AveragePrice != 16250 {
		t.Errorf("AveragePrice: got %.2f, want 16250", r.AveragePrice)
	}
	if r.MinPrice != 5000 || r.MaxPrice != 30000 {
		t.Errorf("min/max: got %.2f/%.2f, want 5000/30000", r.MinPrice, r.MaxPrice)
	}
	if r.MostExpensive == nil || r.MostExpensive.Model != "bmw x5" {
		t.Errorf("MostExpensive: got %+v", r.MostExpensive)
	}
}

func TestReportBoxStatsInSchemeOrder(t *testing.T) {
	r := NewReportService(newTestLogger()).Generate(sampleSnapshot())
	if len(r.PriceByListAge) != len(ListAgeScheme.Buckets) {
		t.Fatalf("box groups: got %d, want %d", len(r.PriceByListAge), len(ListAgeScheme.Buckets))
	}
	first := r.PriceByListAge[0]
	if first.Category != "<7" || first.Count != 4 {
		t.Fatalf("first box: got %+v", first)
	}
	// prices 0, 5000, 10000, 20000
	if first.Min != 0 || first.Max != 20000 || first.Median != 7500 || first.Q1 != 3750 || first.Q3 != 12500 {
		t.Errorf("first box stats: got %+v", first)
	}
	if r.PriceByListAge[1].Count != 0 {
		t.Errorf("7–14 should be empty, got %+v", r.PriceByListAge[1])
	}
}

func TestReportEmptyInput(t *testing.T) {
	r := NewReportService(newTestLogger()).Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for nil snapshot")
	}
	r = NewReportService(newTestLogger()).Generate(&Snapshot{Schemes: DefaultSchemes()})
	if r.TotalListings != 0 || r.MostExpensive != nil {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestHistogramByManufacturer(t *testing.T) {
	groups, err := Histogram(sampleSnapshot().Listings, DimManufacturer)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups: got %d, want 3", len(groups))
	}
	ford := groups[0]
	if ford.Key != "ford" || ford.Count != 3 || ford.MinPrice != 5000 || ford.MaxPrice != 20000 {
		t.Errorf("ford group: got %+v", ford)
	}
	if ford.AveragePrice != 11666.67 {
		t.Errorf("ford average: got %v, want 11666.67", ford.AveragePrice)
	}
	// equal counts are ordered by key
	if groups[1].Key != "bmw" || groups[2].Key != "honda" {
		t.Errorf("tie order: got %q, %q", groups[1].Key, groups[2].Key)
	}
}

func TestHistogramUnknownDimension(t *testing.T) {
	if _, err := Histogram(sampleSnapshot().Listings, "paint"); err == nil {
		t.Error("expected error for unknown dimension")
	}
}

func TestScatter(t *testing.T) {
	pts := Scatter(sampleSnapshot().Listings)
	if len(pts) != 5 {
		t.Fatalf("points: got %d, want 5", len(pts))
	}
	if pts[2].Price != 30000 || pts[2].Odometer != 40000 || pts[2].ModelYear != 2019 {
		t.Errorf("point 2: got %+v", pts[2])
	}
}

func TestReportPrint(t *testing.T) {
	svc := NewReportService(newTestLogger())
	var buf bytes.Buffer
	svc.Print(&buf, svc.Generate(sampleSnapshot()))
	out := buf.String()
	for _, want := range []string{"snap-1", "Most Expensive Listing", "bmw x5", "ford", "<7"} {
		if !strings.Contains(out, want) {
			t.Errorf("printed report missing %q", want)
		}
	}
}
