package services

import (
	"testing"

	"usedcar-market/models"
)

func sampleInventory() []models.Listing {
	return []models.Listing{
		{Row: 0, Model: "jeep grand cherokee", Manufacturer: "jeep", Type: "SUV", Fuel: "gas", Price: 10000, DaysListed: 12, AgeCategory: "10–20"},
		{Row: 1, Model: "honda civic", Manufacturer: "honda", Type: "sedan", Fuel: "gas", Price: 8000, DaysListed: 40, AgeCategory: "5–10"},
		{Row: 2, Model: "toyota rav4", Manufacturer: "toyota", Type: "SUV", Fuel: "hybrid", Price: 21000, DaysListed: 30, AgeCategory: "under 5"},
		{Row: 3, Model: "nissan leaf", Manufacturer: "nissan", Type: "hatchback", Fuel: "electric", Price: 5000, DaysListed: 90, AgeCategory: "5–10"},
		{Row: 4, Model: "ford explorer", Manufacturer: "ford", Type: "SUV", Fuel: "gas", Price: 15000, DaysListed: 31, AgeCategory: "5–10"},
		{Row: 5, Model: "ford escape", Manufacturer: "ford", Type: "SUV", Fuel: "gas", Price: 5000, DaysListed: 2, AgeCategory: "10–20"},
	}
}

func rows(ls []models.Listing) []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		out[i] = l.Row
	}
	return out
}

func equalRows(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterTypeAndPriceScenario(t *testing.T) {
	data := []models.Listing{
		{Row: 0, Type: "SUV", Price: 10000},
		{Row: 1, Type: "sedan", Price: 8000},
	}
	got := Filter(data, models.FilterParams{Type: "SUV", PriceMin: f64(5000), PriceMax: f64(15000)})
	if !equalRows(rows(got), []int{0}) {
		t.Errorf("got rows %v, want [0]", rows(got))
	}
}

func TestFilterPriceRangeInclusive(t *testing.T) {
	got := Filter(sampleInventory(), models.FilterParams{PriceMin: f64(5000), PriceMax: f64(10000)})
	if !equalRows(rows(got), []int{0, 1, 3, 5}) {
		t.Errorf("got rows %v, want [0 1 3 5]", rows(got))
	}
}

func TestFilterOpenEndedPrice(t *testing.T) {
	got := Filter(sampleInventory(), models.FilterParams{PriceMin: f64(15000)})
	if !equalRows(rows(got), []int{2, 4}) {
		t.Errorf("min only: got rows %v, want [2 4]", rows(got))
	}
	got = Filter(sampleInventory(), models.FilterParams{PriceMax: f64(5000)})
	if !equalRows(rows(got), []int{3, 5}) {
		t.Errorf("max only: got rows %v, want [3 5]", rows(got))
	}
}

func TestFilterRecentUsesThirtyDays(t *testing.T) {
	got := Filter(sampleInventory(), models.FilterParams{RecentOnly: true})
	if !equalRows(rows(got), []int{0, 2, 5}) {
		t.Errorf("got rows %v, want [0 2 5]", rows(got))
	}
}

// Regression: the electric flag must narrow results on a mixed fixture
// rather than matching nothing.
func TestFilterElectricOrHybridNarrows(t *testing.T) {
	all := sampleInventory()
	got := Filter(all, models.FilterParams{ElectricOnly: true})
	if len(got) == 0 || len(got) == len(all) {
		t.Fatalf("electric filter should narrow a mixed fixture, got %d of %d", len(got), len(all))
	}
	if !equalRows(rows(got), []int{2, 3}) {
		t.Errorf("got rows %v, want [2 3]", rows(got))
	}
}

func TestFilterElectricIgnoresCase(t *testing.T) {
	data := []models.Listing{{Row: 0, Fuel: "Electric"}, {Row: 1, Fuel: "diesel"}}
	got := Filter(data, models.FilterParams{ElectricOnly: true})
	if !equalRows(rows(got), []int{0}) {
		t.Errorf("got rows %v, want [0]", rows(got))
	}
}

func TestFilterManufacturerAndAge(t *testing.T) {
	got := Filter(sampleInventory(), models.FilterParams{Manufacturer: "ford", AgeCategory: "10–20"})
	if !equalRows(rows(got), []int{5}) {
		t.Errorf("got rows %v, want [5]", rows(got))
	}
}

func TestFilterNoParamsKeepsAll(t *testing.T) {
	all := sampleInventory()
	got := Filter(all, models.FilterParams{})
	if len(got) != len(all) {
		t.Errorf("got %d rows, want %d", len(got), len(all))
	}
}

func TestFilterIsCommutative(t *testing.T) {
	all := sampleInventory()
	byType := ByType("SUV")
	byPrice := ByPriceRange(f64(5000), f64(15000))

	a := Apply(Apply(all, byType), byPrice)
	b := Apply(Apply(all, byPrice), byType)
	c := Apply(all, byPrice, byType)
	if !equalRows(rows(a), rows(b)) || !equalRows(rows(a), rows(c)) {
		t.Errorf("order changed result: %v / %v / %v", rows(a), rows(b), rows(c))
	}
	if !equalRows(rows(a), []int{0, 4, 5}) {
		t.Errorf("got rows %v, want [0 4 5]", rows(a))
	}
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	all := sampleInventory()
	got := Filter(all, models.FilterParams{})
	got[0].Price = -1
	if all[0].Price == -1 {
		t.Error("Filter result shares storage with its input")
	}
}

func TestValidateParams(t *testing.T) {
	if err := ValidateParams(models.FilterParams{PriceMin: f64(10), PriceMax: f64(5)}); err == nil {
		t.Error("expected error for inverted price range")
	}
	if err := ValidateParams(models.FilterParams{PriceMin: f64(5), PriceMax: f64(5)}); err != nil {
		t.Errorf("equal bounds: unexpected error %v", err)
	}
}

func TestPriceBounds(t *testing.T) {
	min, max, ok := PriceBounds(sampleInventory())
	if !ok || min != 5000 || max != 21000 {
		t.Errorf("got (%v, %v, %v), want (5000, 21000, true)", min, max, ok)
	}
	if _, _, ok := PriceBounds(nil); ok {
		t.Error("empty input should report ok=false")
	}
}

func TestDistinct(t *testing.T) {
	got, err := Distinct(sampleInventory(), DimType)
	if err != nil {
		t.Fatalf("Distinct: %v", err)
	}
	want := []string{"SUV", "hatchback", "sedan"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
	if _, err := Distinct(sampleInventory(), "colour"); err == nil {
		t.Error("expected error for unknown dimension")
	}
}
