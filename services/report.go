package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"usedcar-market/models"
	"usedcar-market/utils"
)

// ReportService computes market analytics over a prepared snapshot.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(snap *Snapshot) *models.MarketReport {
	report := &models.MarketReport{
		ListingsByMaker:      make(map[string]int),
		ImputedByStrategy:    make(map[string]int),
		ListingsByAgeBracket: make(map[string]int),
	}
	if snap == nil {
		return report
	}
	report.SnapshotID = snap.ID
	report.PreparedAt = snap.PreparedAt
	report.ReferenceYear = snap.ReferenceYear
	report.DuplicateRows = snap.Duplicates

	for _, imp := range snap.Imputations {
		report.ImputedByStrategy[imp.Strategy]++
	}

	listings := snap.Listings
	if len(listings) == 0 {
		return report
	}
	report.TotalListings = len(listings)

	var total float64
	for i := range listings {
		l := &listings[i]
		if l.Manufacturer != "" {
			report.ListingsByMaker[l.Manufacturer]++
		}
		report.ListingsByAgeBracket[l.AgeCategory]++

		// A zero price is the fill value for a missing price, so it is
		// left out of the price statistics.
		if l.Price <= 0 {
			continue
		}
		if report.PricedListings == 0 || l.Price < report.MinPrice {
			report.MinPrice = l.Price
		}
		if report.PricedListings == 0 || l.Price > report.MaxPrice {
			report.MaxPrice = l.Price
			report.MostExpensive = l
		}
		report.PricedListings++
		total += l.Price
	}
	if report.PricedListings > 0 {
		report.AveragePrice = round2(total / float64(report.PricedListings))
		report.MinPrice = round2(report.MinPrice)
		report.MaxPrice = round2(report.MaxPrice)
	}

	report.PriceByListAge = BoxByCategory(listings, snap.Schemes.ListAge.Labels(), func(l *models.Listing) string {
		return l.ListAgeCategory
	})
	return report
}

// BoxByCategory returns price box statistics per category, in the order
// of labels. Categories without listings are included with Count 0.
func BoxByCategory(listings []models.Listing, labels []string, key func(*models.Listing) string) []models.BoxStats {
	prices := make(map[string][]float64, len(labels))
	for i := range listings {
		k := key(&listings[i])
		prices[k] = append(prices[k], listings[i].Price)
	}
	out := make([]models.BoxStats, 0, len(labels))
	for _, label := range labels {
		out = append(out, boxStats(label, prices[label]))
	}
	return out
}

func boxStats(category string, vals []float64) models.BoxStats {
	b := models.BoxStats{Category: category, Count: len(vals)}
	if len(vals) == 0 {
		return b
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	b.Min = sorted[0]
	b.Q1 = quantile(sorted, 0.25)
	b.Median = quantile(sorted, 0.5)
	b.Q3 = quantile(sorted, 0.75)
	b.Max = sorted[len(sorted)-1]
	return b
}

// quantile interpolates linearly between closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Histogram groups prices by a categorical dimension, most listings first
// and ties broken by key.
func Histogram(listings []models.Listing, dim string) ([]models.PriceGroup, error) {
	groups := make(map[string]*models.PriceGroup)
	sums := make(map[string]float64)
	for i := range listings {
		l := &listings[i]
		key, err := DimensionValue(l, dim)
		if err != nil {
			return nil, err
		}
		g, ok := groups[key]
		if !ok {
			g = &models.PriceGroup{Key: key, MinPrice: l.Price, MaxPrice: l.Price}
			groups[key] = g
		}
		g.Count++
		sums[key] += l.Price
		if l.Price < g.MinPrice {
			g.MinPrice = l.Price
		}
		if l.Price > g.MaxPrice {
			g.MaxPrice = l.Price
		}
	}
	out := make([]models.PriceGroup, 0, len(groups))
	for key, g := range groups {
		g.AveragePrice = round2(sums[key] / float64(g.Count))
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Scatter returns the price/mileage pairs of the listings.
func Scatter(listings []models.Listing) []models.ScatterPoint {
	out := make([]models.ScatterPoint, len(listings))
	for i, l := range listings {
		out[i] = models.ScatterPoint{Price: l.Price, Odometer: l.Odometer, ModelYear: l.ModelYear}
	}
	return out
}

var (
	titleColor   = color.New(color.FgMagenta, color.Bold)
	sectionColor = color.New(color.FgYellow, color.Bold)
	valueColor   = color.New(color.FgGreen, color.Bold)
)

// Print renders the report as a terminal summary.
func (s *ReportService) Print(w io.Writer, r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	titleColor.Fprintf(w, "\n%s\n", sep)
	titleColor.Fprintf(w, "  USED VEHICLE MARKET\n")
	titleColor.Fprintf(w, "%s\n\n", sep)

	sectionColor.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Snapshot          : %s\n", r.SnapshotID)
	fmt.Fprintf(w, "  Reference year    : %d\n", r.ReferenceYear)
	fmt.Fprintf(w, "  Total listings    : %s\n", valueColor.Sprint(r.TotalListings))
	fmt.Fprintf(w, "  Duplicate rows    : %d\n", r.DuplicateRows)
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "  Imputed Cells\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ImputedByStrategy) == 0 {
		fmt.Fprintf(w, "  Nothing imputed\n")
	}
	for _, k := range sortedKeys(r.ImputedByStrategy) {
		fmt.Fprintf(w, "  %s %d\n", padRight(k, 18), r.ImputedByStrategy[k])
	}
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "  Price Statistics\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.PricedListings > 0 {
		fmt.Fprintf(w, "  Average price : %s\n", valueColor.Sprintf("$%.2f", r.AveragePrice))
		fmt.Fprintf(w, "  Minimum price : %s\n", valueColor.Sprintf("$%.2f", r.MinPrice))
		fmt.Fprintf(w, "  Maximum price : %s\n", valueColor.Sprintf("$%.2f", r.MaxPrice))
	} else {
		fmt.Fprintf(w, "  No price data available\n")
	}
	fmt.Fprintln(w)

	if r.MostExpensive != nil {
		sectionColor.Fprintf(w, "  Most Expensive Listing\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s (%d)\n", truncate(r.MostExpensive.Model, 50), r.MostExpensive.ModelYear)
		fmt.Fprintf(w, "  Price    : $%.2f\n", r.MostExpensive.Price)
		fmt.Fprintln(w)
	}

	sectionColor.Fprintf(w, "  Price by Days Listed\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, b := range r.PriceByListAge {
		if b.Count == 0 {
			fmt.Fprintf(w, "  %s %6d\n", padRight(b.Category, 10), 0)
			continue
		}
		fmt.Fprintf(w, "  %s %6d  median $%.0f  iqr $%.0f-$%.0f\n",
			padRight(b.Category, 10), b.Count, b.Median, b.Q1, b.Q3)
	}
	fmt.Fprintln(w)

	sectionColor.Fprintf(w, "  Listings by Manufacturer\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ListingsByMaker) == 0 {
		fmt.Fprintf(w, "  No manufacturer data\n")
	} else {
		type makerCount struct {
			maker string
			count int
		}
		var makers []makerCount
		for m, c := range r.ListingsByMaker {
			makers = append(makers, makerCount{m, c})
		}
		sort.Slice(makers, func(i, j int) bool {
			if makers[i].count != makers[j].count {
				return makers[i].count > makers[j].count
			}
			return makers[i].maker < makers[j].maker
		})
		top := makers[0].count
		for _, mc := range makers {
			bar := strings.Repeat("█", scaleBar(mc.count, top, 20))
			fmt.Fprintf(w, "  %s %s (%d)\n", padRight(truncate(mc.maker, 28), 30), bar, mc.count)
		}
	}

	titleColor.Fprintf(w, "\n%s\n\n", sep)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scaleBar(n, top, width int) int {
	if top <= width {
		return n
	}
	w := n * width / top
	if w == 0 && n > 0 {
		w = 1
	}
	return w
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// padRight pads s with spaces to the given display width.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// truncate shortens s to max display columns.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}
