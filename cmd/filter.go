package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"usedcar-market/models"
	"usedcar-market/services"
)

var (
	filterType         string
	filterPriceMin     float64
	filterPriceMax     float64
	filterRecent       bool
	filterElectric     bool
	filterManufacturer string
	filterAgeCategory  string
	filterLimit        int
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Print the listings matching the given filters",
	Example: `  usedcar filter -i vehicles_us.csv --type SUV --price-min 5000 --price-max 15000
  usedcar filter -i vehicles_us.csv --electric --recent`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		params := models.FilterParams{
			Type:         filterType,
			RecentOnly:   filterRecent,
			ElectricOnly: filterElectric,
			Manufacturer: filterManufacturer,
			AgeCategory:  filterAgeCategory,
		}
		if cmd.Flags().Changed("price-min") {
			v := filterPriceMin
			params.PriceMin = &v
		}
		if cmd.Flags().Changed("price-max") {
			v := filterPriceMax
			params.PriceMax = &v
		}
		if err := services.ValidateParams(params); err != nil {
			return err
		}

		snap, err := loadSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		out := services.Filter(snap.Listings, params)
		printListings(cmd.OutOrStdout(), out, filterLimit)
		return nil
	},
}

func init() {
	f := filterCmd.Flags()
	f.StringVar(&filterType, "type", "", "vehicle type, e.g. SUV")
	f.Float64Var(&filterPriceMin, "price-min", 0, "minimum price (inclusive)")
	f.Float64Var(&filterPriceMax, "price-max", 0, "maximum price (inclusive)")
	f.BoolVar(&filterRecent, "recent", false, "only listings posted in the last 30 days")
	f.BoolVar(&filterElectric, "electric", false, "only electric or hybrid vehicles")
	f.StringVar(&filterManufacturer, "manufacturer", "", "manufacturer, e.g. toyota")
	f.StringVar(&filterAgeCategory, "age-category", "", "age bucket label")
	f.IntVar(&filterLimit, "limit", 50, "maximum rows to print (0 = all)")
	rootCmd.AddCommand(filterCmd)
}

var listingColumns = []struct {
	title string
	width int
	value func(l *models.Listing) string
}{
	{"ROW", 6, func(l *models.Listing) string { return strconv.Itoa(l.Row) }},
	{"MODEL", 28, func(l *models.Listing) string { return l.Model }},
	{"YEAR", 5, func(l *models.Listing) string { return strconv.Itoa(l.ModelYear) }},
	{"TYPE", 10, func(l *models.Listing) string { return l.Type }},
	{"FUEL", 8, func(l *models.Listing) string { return l.Fuel }},
	{"PRICE", 9, func(l *models.Listing) string { return strconv.FormatFloat(l.Price, 'f', 0, 64) }},
	{"ODOMETER", 9, func(l *models.Listing) string { return strconv.FormatFloat(l.Odometer, 'f', 0, 64) }},
	{"AGE", 9, func(l *models.Listing) string { return l.AgeCategory }},
	{"LISTED", 7, func(l *models.Listing) string { return l.ListAgeCategory }},
}

func printListings(w io.Writer, listings []models.Listing, limit int) {
	for _, c := range listingColumns {
		fmt.Fprint(w, runewidth.FillRight(c.title, c.width), " ")
	}
	fmt.Fprintln(w)

	shown := listings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for i := range shown {
		for _, c := range listingColumns {
			cell := runewidth.Truncate(c.value(&shown[i]), c.width, "…")
			fmt.Fprint(w, runewidth.FillRight(cell, c.width), " ")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "\n%d matching listings", len(listings))
	if len(shown) < len(listings) {
		fmt.Fprintf(w, " (showing %d)", len(shown))
	}
	fmt.Fprintln(w)
}
