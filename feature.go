package fareml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cubny/fareml/internal/haversine"
	"github.com/cubny/fareml/internal/pipeline"
)

// pickupLayout is the layout of TripRecord.PickupDatetime
const pickupLayout = "2006-01-02 15:04:05 UTC"

const (
	hoursPerBucket  = 3
	fallbackBucket  = "hour_8"
	cellsPerDegree  = 10
	cellSnapEpsilon = 1e-9
)

// EnrichedRecord is a TripRecord with its derived time and space features
type EnrichedRecord struct {
	TripRecord

	LocalTime  time.Time
	LocalHour  int
	LocalYear  int
	DayOfWeek  string
	HourBucket string
	YearBucket string

	PickupZone  string
	DropoffZone string

	// Distance is the plane distance between pickup and dropoff in degrees
	Distance float64
	// GreatCircleKm is the haversine distance between pickup and dropoff
	GreatCircleKm float64
	// Holiday reports whether the local pickup date is in the deriver's calendar
	Holiday bool
}

// Deriver computes EnrichedRecords. It holds no mutable state and is safe for concurrent use.
type Deriver struct {
	location *time.Location
	holidays Calendar
}

// NewDeriver creates a Deriver converting pickup times to loc
func NewDeriver(loc *time.Location, holidays Calendar) (*Deriver, error) {
	if loc == nil {
		return nil, errors.New("location should be set")
	}
	return &Deriver{location: loc, holidays: holidays}, nil
}

// Derive computes the features of a single record
func (d *Deriver) Derive(r TripRecord) (EnrichedRecord, error) {
	utc, err := time.ParseInLocation(pickupLayout, r.PickupDatetime, time.UTC)
	if err != nil {
		return EnrichedRecord{}, fmt.Errorf("%w: record %s: %q", ErrBadTimestamp, r.Key, r.PickupDatetime)
	}
	local := utc.In(d.location)

	return EnrichedRecord{
		TripRecord:    r,
		LocalTime:     local,
		LocalHour:     local.Hour(),
		LocalYear:     local.Year(),
		DayOfWeek:     local.Format("Mon"),
		HourBucket:    HourBucket(local.Hour()),
		YearBucket:    YearBucket(local.Year()),
		PickupZone:    Zone(r.PickupLongitude, r.PickupLatitude),
		DropoffZone:   Zone(r.DropoffLongitude, r.DropoffLatitude),
		Distance:      Distance(r.PickupLongitude, r.PickupLatitude, r.DropoffLongitude, r.DropoffLatitude),
		GreatCircleKm: haversine.Distance(r.PickupLongitude, r.PickupLatitude, r.DropoffLongitude, r.DropoffLatitude),
		Holiday:       d.holidays.Contains(local),
	}, nil
}

// DeriveAll derives every record with concurrency workers, keeping the input order.
// A record that fails fails the whole batch.
func (d *Deriver) DeriveAll(ctx context.Context, concurrency int, records []TripRecord) ([]EnrichedRecord, error) {
	return pipeline.Map(ctx, concurrency, records, d.Derive)
}

// Distance returns the plane distance between two lon/lat points, in degrees
func Distance(lon1, lat1, lon2, lat2 float64) float64 {
	return math.Sqrt((lon1-lon2)*(lon1-lon2) + (lat1-lat2)*(lat1-lat2))
}

// HourBucket returns the label of the 3 hour band containing hour.
// Hours outside [0,24) fall in hour_8.
func HourBucket(hour int) string {
	if hour < 0 || hour >= 24 {
		return fallbackBucket
	}
	return "hour_" + strconv.Itoa(hour/hoursPerBucket)
}

// YearBucket returns the label of a calendar year
func YearBucket(year int) string {
	return "year_" + strconv.Itoa(year)
}

// Zone returns the label of the 0.1 degree grid cell of a point.
// The label is the sum of the column and row offsets from the south-west corner of the
// bounding box, so cells on different rows may share a label.
func Zone(lon, lat float64) string {
	return "zone_" + strconv.Itoa(zoneIndex(lon, lat))
}

func zoneIndex(lon, lat float64) int {
	// scale before shifting so grid lines like -79.9 land in the cell they name
	col := math.Floor(lon*cellsPerDegree - minLongitude*cellsPerDegree + cellSnapEpsilon)
	row := math.Floor(lat*cellsPerDegree - minLatitude*cellsPerDegree + cellSnapEpsilon)
	return int(col) + int(row)
}

// Calendar is a set of local dates
type Calendar struct {
	days map[string]struct{}
}

const dateLayout = "2006-01-02"

// NewCalendar creates a Calendar out of dates in the YYYY-MM-DD form
func NewCalendar(dates ...string) (Calendar, error) {
	c := Calendar{days: make(map[string]struct{}, len(dates))}
	for _, d := range dates {
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			return Calendar{}, fmt.Errorf("calendar date %q: %w", d, err)
		}
		c.days[day.Format(dateLayout)] = struct{}{}
	}
	return c, nil
}

// Contains reports whether the date of t, in t's own location, is in the calendar
func (c Calendar) Contains(t time.Time) bool {
	_, ok := c.days[t.Format(dateLayout)]
	return ok
}

// Len returns the number of dates in the calendar
func (c Calendar) Len() int {
	return len(c.days)
}
