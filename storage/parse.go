package storage

import (
	"math"
	"strconv"
	"strings"

	"usedcar-market/models"
)

// Columns lists the source columns every input must provide.
var Columns = []string{
	"price", "model_year", "model", "condition", "cylinders", "fuel", "odometer",
	"transmission", "type", "paint_color", "is_4wd", "date_posted", "days_listed",
}

// cellGetter returns the raw text of a column and whether the cell is
// non-null at the source level.
type cellGetter func(col string) (string, bool)

func isMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

func parseRecord(row int, get cellGetter) (models.RawListing, error) {
	r := models.RawListing{Row: row}
	var err error

	text := func(col string) string {
		v, ok := get(col)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if r.Price, err = optFloat(row, "price", get); err != nil {
		return r, err
	}
	if r.ModelYear, err = optFloat(row, "model_year", get); err != nil {
		return r, err
	}
	if r.Cylinders, err = optFloat(row, "cylinders", get); err != nil {
		return r, err
	}
	if r.Odometer, err = optFloat(row, "odometer", get); err != nil {
		return r, err
	}
	if r.Is4WD, err = optBool(row, "is_4wd", get); err != nil {
		return r, err
	}
	if v, ok := get("paint_color"); ok && !isMissing(v) {
		s := strings.TrimSpace(v)
		r.PaintColor = &s
	}

	r.Model = text("model")
	r.Condition = text("condition")
	r.Fuel = text("fuel")
	r.Transmission = text("transmission")
	r.Type = text("type")
	r.DatePosted = text("date_posted")

	days, ok := get("days_listed")
	if !ok || isMissing(days) {
		return r, &models.DataIntegrityError{Row: row, Field: "days_listed", Reason: "required value is missing"}
	}
	if r.DaysListed, err = parseInt(row, "days_listed", days); err != nil {
		return r, err
	}
	return r, nil
}

func optFloat(row int, col string, get cellGetter) (*float64, error) {
	v, ok := get(col)
	if !ok || isMissing(v) {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &models.DataIntegrityError{Row: row, Field: col, Value: v, Reason: "not a finite number"}
	}
	return &f, nil
}

// parseInt accepts integer text and integral float text such as "19.0".
func parseInt(row int, col, v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, &models.DataIntegrityError{Row: row, Field: col, Value: v, Reason: "not an integer"}
	}
	return int(f), nil
}

func optBool(row int, col string, get cellGetter) (*bool, error) {
	v, ok := get(col)
	if !ok || isMissing(v) {
		return nil, nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "t", "yes", "y":
		b = true
	case "0", "0.0", "false", "f", "no", "n":
		b = false
	default:
		return nil, &models.DataIntegrityError{Row: row, Field: col, Value: v, Reason: "not a boolean flag"}
	}
	return &b, nil
}
