package fareml

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"

	"github.com/cubny/fareml/internal/pipeline"
)

// LoadTrips reads trip records from a CSV stream whose first row is a header.
// Rows that cannot be parsed are dropped; the number of dropped rows is returned with the records.
func LoadTrips(ctx context.Context, in io.Reader, logger *slog.Logger) ([]TripRecord, int, error) {
	reader := csv.NewReader(in)
	// the column count is checked by NewTripRecord
	reader.FieldsPerRecord = -1

	malformed := 0
	tripc, errc := pipeline.Generate(ctx, streamTrips(reader, logger, &malformed))

	var trips []TripRecord
	err := pipeline.Sink(ctx, tripc, func(r TripRecord) error {
		trips = append(trips, r)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	if err := <-errc; err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	return trips, malformed, nil
}

// streamTrips returns a pipeline.GenerateFunc that reads one trip at a time from a csv.Reader,
// skipping the header and the malformed rows
func streamTrips(in *csv.Reader, logger *slog.Logger, malformed *int) pipeline.GenerateFunc[TripRecord] {
	header := true
	return func() (TripRecord, bool, error) {
		row, err := in.Read()
		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			*malformed++
			logger.Debug("dropped row", "line", parseErr.StartLine, "error", parseErr.Err)
			return TripRecord{}, false, nil
		case err != nil:
			return TripRecord{}, false, err
		case header:
			header = false
			return TripRecord{}, false, nil
		}

		r, err := NewTripRecord(Line(row))
		if err != nil {
			*malformed++
			line, _ := in.FieldPos(0)
			logger.Debug("dropped row", "line", line, "error", err)
			return TripRecord{}, false, nil
		}
		return r, true, nil
	}
}
