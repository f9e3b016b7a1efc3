/*
	Package fareml turns raw taxi trip records (fare, pickup time, pickup and dropoff coordinates,
	passenger count) into numeric feature vectors for a fare regression model and scores the
	model's predictions against held-out fares.

	A run goes through the following stages:
	load -> validate -> derive -> fit category indices -> transform -> split -> train/predict -> rmse
*/
package fareml

import (
	"errors"
	"time"
)

// Line is a raw CSV row
type Line []string

// bounding box of the New York City area and passenger limits
const (
	minLongitude = -80.0
	maxLongitude = -70.0
	minLatitude  = 39.0
	maxLatitude  = 45.0

	minPassengers = 1
	maxPassengers = 10
)

// DefaultTrainFraction is the share of examples used for training when none is configured
const DefaultTrainFraction = 0.8

var (
	// ErrMalformedInput is returned when a raw row cannot be parsed into a TripRecord
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingField is reported by TripRecord.Complete for records with absent fields
	ErrMissingField = errors.New("missing field")
	// ErrUnknownCategory is returned by Transform for a label absent from the fitted index
	ErrUnknownCategory = errors.New("unknown category")
	// ErrShapeMismatch is returned by RMSE when predictions and truths differ in length
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrEmptyEvaluation is returned by RMSE when there is nothing to compare
	ErrEmptyEvaluation = errors.New("empty evaluation")
	// ErrBadTimestamp is returned by Derive when the pickup time cannot be parsed
	ErrBadTimestamp = errors.New("bad pickup timestamp")
	// ErrEmptyDataset is returned when a stage is left without any record to work on
	ErrEmptyDataset = errors.New("empty dataset")
)

// Config holds the settings of a single run
type Config struct {
	// TrainFraction is the probability of an example going to the training subset
	TrainFraction float64
	// Seed fixes the train/evaluation partition; nil picks a random seed per run
	Seed *uint64
	// Location is the zone pickup times are converted to
	Location *time.Location
	Holidays Calendar
	// Concurrency is the number of workers of every parallel stage
	Concurrency int
	// Hyperparameters are passed to the Trainer untouched
	Hyperparameters Hyperparameters
}

// Validate checks the config
func (c Config) Validate() error {
	switch {
	case c.TrainFraction <= 0 || c.TrainFraction >= 1:
		return errors.New("TrainFraction should be between 0 and 1 exclusive")
	case c.Concurrency <= 0:
		return errors.New("concurrency should be greater than 0")
	case c.Location == nil:
		return errors.New("location should be set")
	}

	return nil
}
