package services

import (
	"usedcar-market/models"
	"usedcar-market/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func f64(v float64) *float64 { return &v }

func strp(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

// rawRow returns a fully-present row; tests clear the fields they need missing.
func rawRow(row int, model, vtype string, year, price float64, days int) models.RawListing {
	return models.RawListing{
		Row:          row,
		Price:        f64(price),
		ModelYear:    f64(year),
		Model:        model,
		Condition:    "good",
		Cylinders:    f64(6),
		Fuel:         "gas",
		Odometer:     f64(100000),
		Transmission: "automatic",
		Type:         vtype,
		PaintColor:   strp("white"),
		Is4WD:        boolp(true),
		DatePosted:   "2018-06-23",
		DaysListed:   days,
	}
}
