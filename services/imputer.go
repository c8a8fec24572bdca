package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"usedcar-market/models"
	"usedcar-market/utils"
)

// Imputation strategies recorded in the audit log.
const (
	StrategyConstant     = "constant"
	StrategyGroupMedian  = "group_median"
	StrategyColumnMedian = "column_median"
)

// Model years outside this range cannot be coerced to a year.
const (
	MinModelYear = 1886
	MaxModelYear = 9999
)

// Constant fill values.
const (
	DefaultPrice      = 0.0
	DefaultPaintColor = "unknown"
	DefaultIs4WD      = false
)

// Imputer resolves missing values of a loaded record set.
type Imputer struct {
	logger *utils.Logger
}

// NewImputer creates an Imputer with the given logger.
func NewImputer(logger *utils.Logger) *Imputer {
	return &Imputer{logger: logger}
}

// Impute returns one listing per raw row with every nullable field filled,
// plus a log of the cells it filled. Present values are copied unchanged.
// Derived fields are left empty.
func (im *Imputer) Impute(raws []models.RawListing) ([]models.Listing, []models.Imputation, error) {
	for i := range raws {
		if err := checkFinite(&raws[i]); err != nil {
			return nil, nil, err
		}
		if y := raws[i].ModelYear; y != nil {
			if _, err := coerceYear(*y, raws[i].Row); err != nil {
				return nil, nil, err
			}
		}
	}

	cylinders := newMedianIndex("cylinders")
	years := newMedianIndex("model_year")
	for _, r := range raws {
		if r.Cylinders != nil {
			cylinders.add(typeGroup(r.Type), *r.Cylinders)
		}
		if r.ModelYear != nil {
			years.add(modelGroup(r.Model), *r.ModelYear)
		}
	}

	out := make([]models.Listing, len(raws))
	var audit []models.Imputation
	record := func(row int, field, strategy, group, value string) {
		audit = append(audit, models.Imputation{Row: row, Field: field, Strategy: strategy, Group: group, Value: value})
	}

	for i, r := range raws {
		l := models.Listing{
			Row:          r.Row,
			Model:        r.Model,
			Condition:    r.Condition,
			Fuel:         r.Fuel,
			Transmission: r.Transmission,
			Type:         r.Type,
			DatePosted:   r.DatePosted,
			DaysListed:   r.DaysListed,
		}

		if r.Price != nil {
			l.Price = *r.Price
		} else {
			l.Price = DefaultPrice
			record(r.Row, "price", StrategyConstant, "", formatNumber(DefaultPrice))
		}

		if r.PaintColor != nil {
			l.PaintColor = *r.PaintColor
		} else {
			l.PaintColor = DefaultPaintColor
			record(r.Row, "paint_color", StrategyConstant, "", DefaultPaintColor)
		}

		if r.Is4WD != nil {
			l.Is4WD = *r.Is4WD
		} else {
			l.Is4WD = DefaultIs4WD
			record(r.Row, "is_4wd", StrategyConstant, "", strconv.FormatBool(DefaultIs4WD))
		}

		if r.Cylinders != nil {
			l.Cylinders = *r.Cylinders
		} else {
			group := typeGroup(r.Type)
			v, strategy, err := cylinders.fill(group, r.Row)
			if err != nil {
				return nil, nil, err
			}
			l.Cylinders = v
			record(r.Row, "cylinders", strategy, group, formatNumber(v))
		}

		year := 0.0
		if r.ModelYear != nil {
			year = *r.ModelYear
		} else {
			group := modelGroup(r.Model)
			v, strategy, err := years.fill(group, r.Row)
			if err != nil {
				return nil, nil, err
			}
			year = v
			record(r.Row, "model_year", strategy, group, formatNumber(v))
		}
		y, err := coerceYear(year, r.Row)
		if err != nil {
			return nil, nil, err
		}
		l.ModelYear = y

		out[i] = l
	}

	// Odometer groups key on the filled model year, so they are built last.
	odometer := newMedianIndex("odometer")
	for i, r := range raws {
		if r.Odometer != nil {
			odometer.add(yearModelGroup(out[i].ModelYear, r.Model), *r.Odometer)
		}
	}
	for i, r := range raws {
		if r.Odometer != nil {
			out[i].Odometer = *r.Odometer
			continue
		}
		group := yearModelGroup(out[i].ModelYear, r.Model)
		v, strategy, err := odometer.fill(group, r.Row)
		if err != nil {
			return nil, nil, err
		}
		out[i].Odometer = v
		record(r.Row, "odometer", strategy, group, formatNumber(v))
	}

	if im.logger != nil {
		im.logger.Debug("[imputer] Filled %d cells across %d rows", len(audit), len(raws))
	}
	return out, audit, nil
}

func typeGroup(t string) string { return "type=" + t }

func modelGroup(m string) string { return "model=" + m }

func yearModelGroup(year int, model string) string {
	return "model_year=" + strconv.Itoa(year) + ",model=" + model
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// coerceYear truncates an imputed or loaded model year toward zero.
func coerceYear(v float64, row int) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &models.DataIntegrityError{Row: row, Field: "model_year", Value: formatNumber(v), Reason: "not a finite year"}
	}
	y := math.Trunc(v)
	if y < MinModelYear || y > MaxModelYear {
		return 0, &models.DataIntegrityError{
			Row:    row,
			Field:  "model_year",
			Value:  formatNumber(v),
			Reason: fmt.Sprintf("cannot be coerced to a year in [%d, %d]", MinModelYear, MaxModelYear),
		}
	}
	return int(y), nil
}

func checkFinite(r *models.RawListing) error {
	for _, c := range []struct {
		field string
		v     *float64
	}{
		{"price", r.Price},
		{"model_year", r.ModelYear},
		{"cylinders", r.Cylinders},
		{"odometer", r.Odometer},
	} {
		if c.v == nil {
			continue
		}
		if math.IsNaN(*c.v) || math.IsInf(*c.v, 0) {
			return &models.DataIntegrityError{Row: r.Row, Field: c.field, Value: formatNumber(*c.v), Reason: "not a finite number"}
		}
	}
	return nil
}

// medianIndex collects present values per group and for the whole
// column, and serves cached medians.
type medianIndex struct {
	field   string
	groups  map[string][]float64
	all     []float64
	medians map[string]float64
	column  *float64
}

func newMedianIndex(field string) *medianIndex {
	return &medianIndex{
		field:   field,
		groups:  make(map[string][]float64),
		medians: make(map[string]float64),
	}
}

func (m *medianIndex) add(group string, v float64) {
	m.groups[group] = append(m.groups[group], v)
	m.all = append(m.all, v)
}

// fill returns the group median, falling back to the column median when
// the group has no present values.
func (m *medianIndex) fill(group string, row int) (float64, string, error) {
	if v, ok := m.medians[group]; ok {
		return v, StrategyGroupMedian, nil
	}
	if vals := m.groups[group]; len(vals) > 0 {
		v := Median(vals)
		m.medians[group] = v
		return v, StrategyGroupMedian, nil
	}
	if m.column == nil {
		if len(m.all) == 0 {
			return 0, "", &models.DataIntegrityError{
				Row:    row,
				Field:  m.field,
				Reason: fmt.Sprintf("no present %s values to impute from (group %s)", m.field, group),
			}
		}
		v := Median(m.all)
		m.column = &v
	}
	return *m.column, StrategyColumnMedian, nil
}

// Median returns the median of vals, averaging the two middle values for
// even counts. vals is not modified. The median of an empty slice is NaN.
func Median(vals []float64) float64 {
	n := len(vals)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
