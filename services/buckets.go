package services

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"usedcar-market/models"
)

// Bucket scheme validation errors.
var (
	ErrEmptyScheme       = errors.New("bucket scheme has no buckets")
	ErrBoundsNotIncrease = errors.New("bucket upper bounds must strictly increase")
	ErrNoOpenBucket      = errors.New("last bucket must be open-ended")
	ErrOpenBucketNotLast = errors.New("only the last bucket may be open-ended")
	ErrDuplicateLabel    = errors.New("bucket labels must be unique")
	ErrEmptyLabel        = errors.New("bucket label is empty")
	ErrBadLower          = errors.New("bucket lower bound must be finite")
)

// Bucket is one half-open range [previous upper, Upper) with a label.
// An infinite Upper marks the terminal bucket.
type Bucket struct {
	Upper float64
	Label string
}

// BucketScheme discretises a numeric value into ordered, left-inclusive
// buckets starting at Lower.
type BucketScheme struct {
	Name    string
	Lower   float64
	Buckets []Bucket
}

// AgeScheme buckets vehicle age in years.
var AgeScheme = BucketScheme{
	Name:  "age_category",
	Lower: 0,
	Buckets: []Bucket{
		{Upper: 5, Label: "under 5"},
		{Upper: 10, Label: "5–10"},
		{Upper: 20, Label: "10–20"},
		{Upper: math.Inf(1), Label: "over 20"},
	},
}

// ListAgeScheme buckets the number of days a listing has been online.
var ListAgeScheme = BucketScheme{
	Name:  "list_age_category",
	Lower: 0,
	Buckets: []Bucket{
		{Upper: 7, Label: "<7"},
		{Upper: 14, Label: "7–14"},
		{Upper: 30, Label: "14–30"},
		{Upper: 60, Label: "30–60"},
		{Upper: 90, Label: "60–90"},
		{Upper: 180, Label: "90–180"},
		{Upper: math.Inf(1), Label: ">180"},
	},
}

// Validate checks that the scheme is a total, non-overlapping partition
// of [Lower, +Inf).
func (s BucketScheme) Validate() error {
	if len(s.Buckets) == 0 {
		return fmt.Errorf("%s: %w", s.Name, ErrEmptyScheme)
	}
	if math.IsNaN(s.Lower) || math.IsInf(s.Lower, 0) {
		return fmt.Errorf("%s: lower %v: %w", s.Name, s.Lower, ErrBadLower)
	}
	labels := make(map[string]struct{}, len(s.Buckets))
	prev := s.Lower
	for i, b := range s.Buckets {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("%s: bucket %d: %w", s.Name, i, ErrEmptyLabel)
		}
		if _, dup := labels[b.Label]; dup {
			return fmt.Errorf("%s: %q: %w", s.Name, b.Label, ErrDuplicateLabel)
		}
		labels[b.Label] = struct{}{}

		last := i == len(s.Buckets)-1
		if math.IsInf(b.Upper, 1) {
			if !last {
				return fmt.Errorf("%s: bucket %q: %w", s.Name, b.Label, ErrOpenBucketNotLast)
			}
			continue
		}
		if last {
			return fmt.Errorf("%s: %w", s.Name, ErrNoOpenBucket)
		}
		if math.IsNaN(b.Upper) || b.Upper <= prev {
			return fmt.Errorf("%s: bucket %q upper %v after %v: %w", s.Name, b.Label, b.Upper, prev, ErrBoundsNotIncrease)
		}
		prev = b.Upper
	}
	return nil
}

// Assign returns the label of the bucket containing x. Values below
// Lower, and NaN, are rejected.
func (s BucketScheme) Assign(x float64) (string, error) {
	if math.IsNaN(x) || x < s.Lower {
		return "", &models.DataIntegrityError{
			Row:    -1,
			Field:  s.Name,
			Value:  strconv.FormatFloat(x, 'g', -1, 64),
			Reason: fmt.Sprintf("value below bucket range starting at %v", s.Lower),
		}
	}
	for _, b := range s.Buckets {
		if x < b.Upper {
			return b.Label, nil
		}
	}
	// Only reachable for +Inf input on a scheme whose terminal bucket is open.
	return s.Buckets[len(s.Buckets)-1].Label, nil
}

// Labels returns the bucket labels in scheme order.
func (s BucketScheme) Labels() []string {
	out := make([]string, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = b.Label
	}
	return out
}

// Schemes groups the two schemes used by the deriver.
type Schemes struct {
	Age     BucketScheme
	ListAge BucketScheme
}

// DefaultSchemes returns the built-in age and listing-age schemes.
func DefaultSchemes() Schemes {
	return Schemes{Age: AgeScheme, ListAge: ListAgeScheme}
}

type bucketFile struct {
	AgeCategory     *schemeFile `yaml:"age_category"`
	ListAgeCategory *schemeFile `yaml:"list_age_category"`
}

type schemeFile struct {
	Lower   float64       `yaml:"lower"`
	Buckets []bucketEntry `yaml:"buckets"`
}

type bucketEntry struct {
	// Upper is a number, or "inf" for the terminal bucket. Omitted means inf.
	Upper string `yaml:"upper"`
	Label string `yaml:"label"`
}

// LoadSchemes reads bucket schemes from a YAML file. Schemes missing from
// the file keep their built-in definition.
func LoadSchemes(path string) (Schemes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schemes{}, &models.MissingInputError{Source: path, Err: err}
	}
	return ParseSchemes(data)
}

// ParseSchemes decodes YAML bucket schemes.
func ParseSchemes(data []byte) (Schemes, error) {
	var f bucketFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Schemes{}, fmt.Errorf("buckets: decode yaml: %w", err)
	}
	out := DefaultSchemes()
	if f.AgeCategory != nil {
		s, err := f.AgeCategory.toScheme(AgeScheme.Name)
		if err != nil {
			return Schemes{}, err
		}
		out.Age = s
	}
	if f.ListAgeCategory != nil {
		s, err := f.ListAgeCategory.toScheme(ListAgeScheme.Name)
		if err != nil {
			return Schemes{}, err
		}
		out.ListAge = s
	}
	return out, nil
}

func (sf *schemeFile) toScheme(name string) (BucketScheme, error) {
	s := BucketScheme{Name: name, Lower: sf.Lower}
	for _, b := range sf.Buckets {
		upper := math.Inf(1)
		raw := strings.TrimSpace(strings.ToLower(b.Upper))
		if raw != "" && raw != "inf" && raw != "+inf" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return BucketScheme{}, fmt.Errorf("buckets: %s: bucket %q: bad upper %q: %w", name, b.Label, b.Upper, err)
			}
			upper = v
		}
		s.Buckets = append(s.Buckets, Bucket{Upper: upper, Label: b.Label})
	}
	if err := s.Validate(); err != nil {
		return BucketScheme{}, fmt.Errorf("buckets: %w", err)
	}
	return s, nil
}

// MarshalSchemes encodes schemes in the same YAML layout LoadSchemes reads.
func MarshalSchemes(s Schemes) ([]byte, error) {
	conv := func(b BucketScheme) *schemeFile {
		sf := &schemeFile{Lower: b.Lower}
		for _, bk := range b.Buckets {
			upper := "inf"
			if !math.IsInf(bk.Upper, 1) {
				upper = strconv.FormatFloat(bk.Upper, 'g', -1, 64)
			}
			sf.Buckets = append(sf.Buckets, bucketEntry{Upper: upper, Label: bk.Label})
		}
		return sf
	}
	return yaml.Marshal(bucketFile{AgeCategory: conv(s.Age), ListAgeCategory: conv(s.ListAge)})
}
