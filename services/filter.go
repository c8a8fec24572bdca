package services

import (
	"fmt"
	"sort"
	"strings"

	"usedcar-market/models"
)

// RecentListingDays is the days_listed threshold of the recent-listing flag.
const RecentListingDays = 30

// electricFuels are the fuel values matched by the electric-only flag.
var electricFuels = map[string]struct{}{
	"electric": {},
	"hybrid":   {},
}

// Predicate reports whether a listing is kept.
type Predicate func(l *models.Listing) bool

// ByType keeps listings of the given vehicle type.
func ByType(t string) Predicate {
	return func(l *models.Listing) bool { return l.Type == t }
}

// ByPriceRange keeps listings priced within [min, max], bounds inclusive.
// A nil bound is open.
func ByPriceRange(min, max *float64) Predicate {
	return func(l *models.Listing) bool {
		if min != nil && l.Price < *min {
			return false
		}
		if max != nil && l.Price > *max {
			return false
		}
		return true
	}
}

// Recent keeps listings online for at most days days.
func Recent(days int) Predicate {
	return func(l *models.Listing) bool { return l.DaysListed <= days }
}

// ElectricOrHybrid keeps listings whose fuel is electric or hybrid.
func ElectricOrHybrid() Predicate {
	return func(l *models.Listing) bool {
		_, ok := electricFuels[strings.ToLower(l.Fuel)]
		return ok
	}
}

// ByManufacturer keeps listings of the given manufacturer.
func ByManufacturer(m string) Predicate {
	return func(l *models.Listing) bool { return l.Manufacturer == m }
}

// ByAgeCategory keeps listings in the given age bucket.
func ByAgeCategory(c string) Predicate {
	return func(l *models.Listing) bool { return l.AgeCategory == c }
}

// Predicates turns filter parameters into independent predicates.
func Predicates(p models.FilterParams) []Predicate {
	var preds []Predicate
	if p.Type != "" {
		preds = append(preds, ByType(p.Type))
	}
	if p.PriceMin != nil || p.PriceMax != nil {
		preds = append(preds, ByPriceRange(p.PriceMin, p.PriceMax))
	}
	if p.RecentOnly {
		preds = append(preds, Recent(RecentListingDays))
	}
	if p.ElectricOnly {
		preds = append(preds, ElectricOrHybrid())
	}
	if p.Manufacturer != "" {
		preds = append(preds, ByManufacturer(p.Manufacturer))
	}
	if p.AgeCategory != "" {
		preds = append(preds, ByAgeCategory(p.AgeCategory))
	}
	return preds
}

// ValidateParams rejects an inverted price range.
func ValidateParams(p models.FilterParams) error {
	if p.PriceMin != nil && p.PriceMax != nil && *p.PriceMin > *p.PriceMax {
		return fmt.Errorf("filter: price_min %v exceeds price_max %v", *p.PriceMin, *p.PriceMax)
	}
	return nil
}

// Filter returns the listings matching every parameter, in input order.
func Filter(listings []models.Listing, p models.FilterParams) []models.Listing {
	return Apply(listings, Predicates(p)...)
}

// Apply returns a new slice with the listings satisfying all predicates.
// The input is never modified.
func Apply(listings []models.Listing, preds ...Predicate) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for i := range listings {
		keep := true
		for _, pred := range preds {
			if !pred(&listings[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, listings[i])
		}
	}
	return out
}

// PriceBounds returns the minimum and maximum price, used as the default
// price range. ok is false for an empty input.
func PriceBounds(listings []models.Listing) (min, max float64, ok bool) {
	if len(listings) == 0 {
		return 0, 0, false
	}
	min, max = listings[0].Price, listings[0].Price
	for _, l := range listings[1:] {
		if l.Price < min {
			min = l.Price
		}
		if l.Price > max {
			max = l.Price
		}
	}
	return min, max, true
}

// Dimensions a caller may group or list distinct values by.
const (
	DimManufacturer    = "manufacturer"
	DimType            = "type"
	DimCondition       = "condition"
	DimModel           = "model"
	DimFuel            = "fuel"
	DimAgeCategory     = "age_category"
	DimListAgeCategory = "list_age_category"
)

// DimensionValue returns the value of a categorical column by name.
func DimensionValue(l *models.Listing, dim string) (string, error) {
	switch dim {
	case DimManufacturer:
		return l.Manufacturer, nil
	case DimType:
		return l.Type, nil
	case DimCondition:
		return l.Condition, nil
	case DimModel:
		return l.Model, nil
	case DimFuel:
		return l.Fuel, nil
	case DimAgeCategory:
		return l.AgeCategory, nil
	case DimListAgeCategory:
		return l.ListAgeCategory, nil
	default:
		return "", fmt.Errorf("unknown dimension %q", dim)
	}
}

// Distinct returns the sorted unique values of a categorical column.
func Distinct(listings []models.Listing, dim string) ([]string, error) {
	seen := make(map[string]struct{})
	for i := range listings {
		v, err := DimensionValue(&listings[i], dim)
		if err != nil {
			return nil, err
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
