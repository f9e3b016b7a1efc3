package fareml

import (
	"context"
	"fmt"
	"sort"

	"github.com/cubny/fareml/internal/pipeline"
)

// Field is a categorical feature of an EnrichedRecord
type Field int

// categorical fields, in feature vector order
const (
	FieldHour Field = iota
	FieldYear
	FieldDayOfWeek
	FieldPickupZone
	FieldDropoffZone

	numFields
)

var fieldNames = [numFields]string{
	FieldHour:        "pickup_hour",
	FieldYear:        "pickup_year",
	FieldDayOfWeek:   "pickup_dow",
	FieldPickupZone:  "pickup_zone",
	FieldDropoffZone: "dropoff_zone",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// label returns the value of the field in r
func (f Field) label(r EnrichedRecord) string {
	switch f {
	case FieldHour:
		return r.HourBucket
	case FieldYear:
		return r.YearBucket
	case FieldDayOfWeek:
		return r.DayOfWeek
	case FieldPickupZone:
		return r.PickupZone
	default:
		return r.DropoffZone
	}
}

// UnknownCategoryError is returned when a label has no code in the fitted index
type UnknownCategoryError struct {
	Field Field
	Label string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnknownCategory, e.Field, e.Label)
}

// Is makes errors.Is(err, ErrUnknownCategory) match
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// CategoryIndex maps the observed labels of one field to dense codes.
// Codes are ranked by descending frequency, ties broken by first appearance.
type CategoryIndex struct {
	field  Field
	labels []string
	counts []int
	codes  map[string]int
}

// Field returns the field the index was fitted on
func (c CategoryIndex) Field() Field {
	return c.field
}

// Cardinality returns the number of distinct labels, which is also the one-hot width
func (c CategoryIndex) Cardinality() int {
	return len(c.labels)
}

// Code returns the code of label
func (c CategoryIndex) Code(label string) (int, error) {
	code, ok := c.codes[label]
	if !ok {
		return 0, &UnknownCategoryError{Field: c.field, Label: label}
	}
	return code, nil
}

// Label returns the label of code
func (c CategoryIndex) Label(code int) string {
	return c.labels[code]
}

// Count returns how many records carried the label of code at fit time
func (c CategoryIndex) Count(code int) int {
	return c.counts[code]
}

// Labels returns the labels in code order
func (c CategoryIndex) Labels() []string {
	return append([]string(nil), c.labels...)
}

// OneHot writes the one-hot encoding of label into dst, which must be Cardinality long
func (c CategoryIndex) OneHot(label string, dst []float64) error {
	code, err := c.Code(label)
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = 0
	}
	dst[code] = 1
	return nil
}

// Indices holds one CategoryIndex per categorical field.
// It is built once by Fit and never changes afterwards.
type Indices struct {
	byField [numFields]CategoryIndex
}

// Index returns the index of f
func (ix Indices) Index(f Field) CategoryIndex {
	return ix.byField[f]
}

// Width returns the length of the feature vectors produced with ix
func (ix Indices) Width() int {
	width := 2 // distance and passenger count
	for _, c := range ix.byField {
		width += c.Cardinality()
	}
	return width
}

// FeatureNames names each position of the feature vectors produced with ix
func (ix Indices) FeatureNames() []string {
	names := make([]string, 0, ix.Width())
	names = append(names, "distance")
	for _, c := range ix.byField {
		for _, label := range c.labels {
			names = append(names, c.field.String()+"="+label)
		}
	}
	return append(names, "passenger_count")
}

// Vector assembles the feature vector of r:
// distance, the one-hot encoding of every categorical field, passenger count
func (ix Indices) Vector(r EnrichedRecord) ([]float64, error) {
	vec := make([]float64, ix.Width())
	vec[0] = r.Distance
	pos := 1
	for f, c := range ix.byField {
		width := c.Cardinality()
		if err := c.OneHot(Field(f).label(r), vec[pos:pos+width]); err != nil {
			return nil, err
		}
		pos += width
	}
	vec[pos] = float64(r.PassengerCount)
	return vec, nil
}

// LabeledExample is a feature vector paired with the fare it should predict
type LabeledExample struct {
	Key      string
	Label    float64
	Features []float64
}

// labelStat is the number of occurrences of a label and the position of its first occurrence
type labelStat struct {
	count int
	first int
}

// tally holds the label stats of every field over a span of records
type tally [numFields]map[string]labelStat

// Fit builds the category indices of records. Every record is counted exactly once:
// contiguous spans are tallied concurrently and merged in span order.
func Fit(ctx context.Context, concurrency int, records []EnrichedRecord) (Indices, error) {
	spans := pipeline.Chunks(len(records), concurrency)
	tallies, err := pipeline.Map(ctx, concurrency, spans, func(s pipeline.Span) (tally, error) {
		var t tally
		for f := range t {
			t[f] = make(map[string]labelStat)
		}
		for i := s.Start; i < s.End; i++ {
			for f := Field(0); f < numFields; f++ {
				label := f.label(records[i])
				st, ok := t[f][label]
				if !ok {
					st.first = i
				}
				st.count++
				t[f][label] = st
			}
		}
		return t, nil
	})
	if err != nil {
		return Indices{}, err
	}

	var ix Indices
	for f := Field(0); f < numFields; f++ {
		merged := make(map[string]labelStat)
		for _, t := range tallies {
			for label, st := range t[f] {
				m, ok := merged[label]
				if !ok || st.first < m.first {
					m.first = st.first
				}
				m.count += st.count
				merged[label] = m
			}
		}
		ix.byField[f] = newCategoryIndex(f, merged)
	}
	return ix, nil
}

func newCategoryIndex(f Field, stats map[string]labelStat) CategoryIndex {
	labels := make([]string, 0, len(stats))
	for label := range stats {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := stats[labels[i]], stats[labels[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.first < b.first
	})

	c := CategoryIndex{
		field:  f,
		labels: labels,
		counts: make([]int, len(labels)),
		codes:  make(map[string]int, len(labels)),
	}
	for code, label := range labels {
		c.codes[label] = code
		c.counts[code] = stats[label].count
	}
	return c
}

// Transform encodes every record with the fitted indices, keeping the input order.
// A label missing from ix fails the whole batch with an UnknownCategoryError.
func Transform(ctx context.Context, concurrency int, records []EnrichedRecord, ix Indices) ([]LabeledExample, error) {
	return pipeline.Map(ctx, concurrency, records, func(r EnrichedRecord) (LabeledExample, error) {
		vec, err := ix.Vector(r)
		if err != nil {
			return LabeledExample{}, fmt.Errorf("record %s: %w", r.Key, err)
		}
		return LabeledExample{Key: r.Key, Label: r.FareAmount, Features: vec}, nil
	})
}
