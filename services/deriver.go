package services

import (
	"errors"
	"strconv"
	"strings"

	"usedcar-market/models"
)

// Manufacturer returns the first whitespace-delimited token of model.
func Manufacturer(model string) (string, error) {
	fields := strings.Fields(model)
	if len(fields) == 0 {
		return "", &models.DataIntegrityError{Row: -1, Field: "model", Reason: "empty model, manufacturer cannot be derived"}
	}
	return fields[0], nil
}

// Age returns the vehicle age in whole years relative to referenceYear.
func Age(modelYear, referenceYear int) int {
	return referenceYear - modelYear
}

// Deriver adds manufacturer, age and the bucketed categories to a record.
type Deriver struct {
	referenceYear int
	schemes       Schemes
}

// NewDeriver creates a Deriver for the given reference year and schemes.
func NewDeriver(referenceYear int, schemes Schemes) *Deriver {
	return &Deriver{referenceYear: referenceYear, schemes: schemes}
}

// Derive fills the derived fields of l in place.
func (d *Deriver) Derive(l *models.Listing) error {
	maker, err := Manufacturer(l.Model)
	if err != nil {
		return atRow(err, l.Row)
	}
	l.Manufacturer = maker

	l.Age = Age(l.ModelYear, d.referenceYear)
	if l.Age < 0 {
		return &models.DataIntegrityError{
			Row:    l.Row,
			Field:  "model_year",
			Value:  strconv.Itoa(l.ModelYear),
			Reason: "model year is after reference year " + strconv.Itoa(d.referenceYear),
		}
	}
	if l.AgeCategory, err = d.schemes.Age.Assign(float64(l.Age)); err != nil {
		return atRow(err, l.Row)
	}

	if l.DaysListed < 0 {
		return &models.DataIntegrityError{
			Row:    l.Row,
			Field:  "days_listed",
			Value:  strconv.Itoa(l.DaysListed),
			Reason: "negative listing duration",
		}
	}
	if l.ListAgeCategory, err = d.schemes.ListAge.Assign(float64(l.DaysListed)); err != nil {
		return atRow(err, l.Row)
	}
	return nil
}

// atRow stamps a row index onto a row-less DataIntegrityError.
func atRow(err error, row int) error {
	var die *models.DataIntegrityError
	if errors.As(err, &die) && die.Row < 0 {
		cp := *die
		cp.Row = row
		return &cp
	}
	return err
}
