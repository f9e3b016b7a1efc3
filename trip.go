package fareml

import (
	"fmt"
	"strconv"
	"strings"
)

// columns of an input row, in order
var columns = []string{
	"key",
	"fare_amount",
	"pickup_datetime",
	"pickup_longitude",
	"pickup_latitude",
	"dropoff_longitude",
	"dropoff_latitude",
	"passenger_count",
}

// TripRecord holds a single trip observation as read from the input
type TripRecord struct {
	Key              string
	FareAmount       float64
	PickupDatetime   string
	PickupLongitude  float64
	PickupLatitude   float64
	DropoffLongitude float64
	DropoffLatitude  float64
	PassengerCount   int

	// names of the columns that had no value
	missing []string
}

// NewTripRecord creates a TripRecord out of a raw row.
// Empty cells are kept as missing fields, cells of the wrong type make the whole row malformed.
func NewTripRecord(line Line) (TripRecord, error) {
	if len(line) != len(columns) {
		return TripRecord{}, fmt.Errorf("%w: %d columns, want %d", ErrMalformedInput, len(line), len(columns))
	}

	var (
		r   TripRecord
		err error
	)
	floats := map[int]*float64{
		1: &r.FareAmount,
		3: &r.PickupLongitude,
		4: &r.PickupLatitude,
		5: &r.DropoffLongitude,
		6: &r.DropoffLatitude,
	}
	for i, raw := range line {
		raw = strings.TrimSpace(raw)
		if isNull(raw) {
			r.missing = append(r.missing, columns[i])
			continue
		}
		switch i {
		case 0:
			r.Key = raw
		case 2:
			r.PickupDatetime = raw
		case 7:
			r.PassengerCount, err = strconv.Atoi(raw)
		default:
			*floats[i], err = strconv.ParseFloat(raw, 64)
		}
		if err != nil {
			return TripRecord{}, fmt.Errorf("%w: %s %q", ErrMalformedInput, columns[i], raw)
		}
	}

	return r, nil
}

// Complete returns an error wrapping ErrMissingField when any field has no value
func (r TripRecord) Complete() error {
	if len(r.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(r.missing, ", "))
}

// Valid reports whether the record passes the filtering rules:
// every field present, a non-negative fare, both ends of the trip inside the bounding box
// and a passenger count between 1 and 10
func (r TripRecord) Valid() bool {
	return r.Complete() == nil &&
		r.FareAmount >= 0 &&
		inBoundingBox(r.PickupLongitude, r.PickupLatitude) &&
		inBoundingBox(r.DropoffLongitude, r.DropoffLatitude) &&
		r.PassengerCount >= minPassengers && r.PassengerCount <= maxPassengers
}

// Validate returns the valid records in their original order.
// Invalid records are dropped silently.
func Validate(records []TripRecord) []TripRecord {
	valid := make([]TripRecord, 0, len(records))
	for _, r := range records {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	return valid
}

func inBoundingBox(lon, lat float64) bool {
	return lon >= minLongitude && lon <= maxLongitude &&
		lat >= minLatitude && lat <= maxLatitude
}

// isNull reports whether a raw cell stands for an absent value
func isNull(raw string) bool {
	switch raw {
	case "", "NA", "NaN", "null":
		return true
	}
	return false
}
