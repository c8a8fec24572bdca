package models

import "time"

// RawListing holds one source row as loaded, before any imputation.
// Nullable columns are pointers; nil means the cell was missing.
type RawListing struct {
	Row          int
	Price        *float64
	ModelYear    *float64
	Model        string
	Condition    string
	Cylinders    *float64
	Fuel         string
	Odometer     *float64
	Transmission string
	Type         string
	PaintColor   *string
	Is4WD        *bool
	DatePosted   string
	DaysListed   int
}

// Listing is the prepared record handed to the presentation layer.
type Listing struct {
	Row          int     `json:"row"`
	Price        float64 `json:"price"`
	ModelYear    int     `json:"model_year"`
	Model        string  `json:"model"`
	Manufacturer string  `json:"manufacturer"`
	Condition    string  `json:"condition"`
	Cylinders    float64 `json:"cylinders"`
	Fuel         string  `json:"fuel"`
	Odometer     float64 `json:"odometer"`
	Transmission string  `json:"transmission"`
	Type         string  `json:"type"`
	PaintColor   string  `json:"paint_color"`
	Is4WD        bool    `json:"is_4wd"`
	DatePosted   string  `json:"date_posted"`
	DaysListed   int     `json:"days_listed"`

	Age             int    `json:"age"`
	AgeCategory     string `json:"age_category"`
	ListAgeCategory string `json:"list_age_category"`
}

// Raw converts a prepared listing back into a source row with every
// nullable field present.
func (l Listing) Raw() RawListing {
	price := l.Price
	year := float64(l.ModelYear)
	cyl := l.Cylinders
	odo := l.Odometer
	paint := l.PaintColor
	fwd := l.Is4WD
	return RawListing{
		Row:          l.Row,
		Price:        &price,
		ModelYear:    &year,
		Model:        l.Model,
		Condition:    l.Condition,
		Cylinders:    &cyl,
		Fuel:         l.Fuel,
		Odometer:     &odo,
		Transmission: l.Transmission,
		Type:         l.Type,
		PaintColor:   &paint,
		Is4WD:        &fwd,
		DatePosted:   l.DatePosted,
		DaysListed:   l.DaysListed,
	}
}

// Imputation records one filled cell.
type Imputation struct {
	Row      int    `json:"row"`
	Field    string `json:"field"`
	Strategy string `json:"strategy"`
	Group    string `json:"group,omitempty"`
	Value    string `json:"value"`
}

// FilterParams are the user-selected filter values. Zero values mean
// "no constraint".
type FilterParams struct {
	Type         string   `json:"type,omitempty"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	RecentOnly   bool     `json:"recent_only,omitempty"`
	ElectricOnly bool     `json:"electric_only,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	AgeCategory  string   `json:"age_category,omitempty"`
}

// BoxStats is a five-number summary of a price distribution.
type BoxStats struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
}

// PriceGroup summarises prices for one value of a grouping dimension.
type PriceGroup struct {
	Key          string  `json:"key"`
	Count        int     `json:"count"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

// ScatterPoint is one price/mileage pair.
type ScatterPoint struct {
	Price     float64 `json:"price"`
	Odometer  float64 `json:"odometer"`
	ModelYear int     `json:"model_year"`
}

// MarketReport holds the computed analytics over a prepared snapshot.
type MarketReport struct {
	SnapshotID           string         `json:"snapshot_id"`
	PreparedAt           time.Time      `json:"prepared_at"`
	ReferenceYear        int            `json:"reference_year"`
	TotalListings        int            `json:"total_listings"`
	DuplicateRows        int            `json:"duplicate_rows"`
	PricedListings       int            `json:"priced_listings"`
	AveragePrice         float64        `json:"average_price"`
	MinPrice             float64        `json:"min_price"`
	MaxPrice             float64        `json:"max_price"`
	MostExpensive        *Listing       `json:"most_expensive,omitempty"`
	ListingsByMaker      map[string]int `json:"listings_by_manufacturer"`
	ImputedByStrategy    map[string]int `json:"imputed_by_strategy"`
	PriceByListAge       []BoxStats     `json:"price_by_list_age"`
	ListingsByAgeBracket map[string]int `json:"listings_by_age_category"`
}
