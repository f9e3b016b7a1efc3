package fareml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Estimator runs the whole fare pipeline over a CSV stream of trips and writes the
// RMSE of the trained model on the evaluation subset to its writer
type Estimator struct {
	reader  io.Reader
	writer  io.Writer
	conf    *Config
	trainer Trainer
	logger  *slog.Logger
}

// Report sums up a run
type Report struct {
	RunID string
	// Seed is the seed the examples were split with
	Seed      uint64
	Loaded    int
	Malformed int
	Valid     int
	Train     int
	Eval      int
	// Width is the length of the feature vectors
	Width int
	RMSE  float64
}

// NewEstimator creates an Estimator. A nil logger logs to slog.Default().
func NewEstimator(in io.Reader, out io.Writer, conf *Config, trainer Trainer, logger *slog.Logger) (*Estimator, error) {
	if conf == nil {
		return nil, errors.New("config should be set")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if trainer == nil {
		return nil, errors.New("trainer should be set")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Estimator{
		reader:  in,
		writer:  out,
		conf:    conf,
		trainer: trainer,
		logger:  logger,
	}, nil
}

// Run runs the estimator pipeline
func (e *Estimator) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	logger := e.logger.With("run_id", report.RunID)

	trips, malformed, err := LoadTrips(ctx, e.reader, logger)
	if err != nil {
		return report, fmt.Errorf("load trips: %w", err)
	}
	report.Loaded, report.Malformed = len(trips), malformed
	logger.Info("loaded", "trips", report.Loaded, "malformed", report.Malformed)

	valid := Validate(trips)
	report.Valid = len(valid)
	logger.Info("validated", "valid", report.Valid, "filtered", report.Loaded-report.Valid)
	if report.Valid == 0 {
		return report, fmt.Errorf("%w: no valid trip", ErrEmptyDataset)
	}

	examples, ix, err := e.encode(ctx, logger, valid)
	if err != nil {
		return report, err
	}
	report.Width = ix.Width()

	report.Seed = e.seed()
	training, evaluation, err := Split(examples, e.conf.TrainFraction, report.Seed)
	if err != nil {
		return report, err
	}
	report.Train, report.Eval = len(training), len(evaluation)
	logger.Info("split", "seed", report.Seed, "train", report.Train, "eval", report.Eval)
	if report.Train == 0 || report.Eval == 0 {
		return report, fmt.Errorf("%w: %d training and %d evaluation examples", ErrEmptyDataset, report.Train, report.Eval)
	}

	model, err := e.trainer.Fit(ctx, training, e.conf.Hyperparameters)
	if err != nil {
		return report, fmt.Errorf("train: %w", err)
	}

	features := make([][]float64, len(evaluation))
	truths := make([]float64, len(evaluation))
	for i, ex := range evaluation {
		features[i], truths[i] = ex.Features, ex.Label
	}
	predictions, err := model.Predict(ctx, features)
	if err != nil {
		return report, fmt.Errorf("predict: %w", err)
	}

	report.RMSE, err = RMSE(predictions, truths)
	if err != nil {
		return report, err
	}
	logger.Info("evaluated", "rmse", report.RMSE)

	if _, err := fmt.Fprintln(e.writer, strconv.FormatFloat(report.RMSE, 'f', -1, 64)); err != nil {
		return report, err
	}
	return report, nil
}

// encode derives the features of the valid trips, fits the category indices over all of them
// and turns every trip into a labeled example
func (e *Estimator) encode(ctx context.Context, logger *slog.Logger, valid []TripRecord) ([]LabeledExample, Indices, error) {
	deriver, err := NewDeriver(e.conf.Location, e.conf.Holidays)
	if err != nil {
		return nil, Indices{}, err
	}
	enriched, err := deriver.DeriveAll(ctx, e.conf.Concurrency, valid)
	if err != nil {
		return nil, Indices{}, fmt.Errorf("derive: %w", err)
	}

	totalKm, holidays := 0.0, 0
	for _, r := range enriched {
		totalKm += r.GreatCircleKm
		if r.Holiday {
			holidays++
		}
	}
	logger.Info("derived", "records", len(enriched), "mean_trip_km", totalKm/float64(len(enriched)), "holiday_trips", holidays)

	// every record must be seen by Fit before any of them is transformed
	ix, err := Fit(ctx, e.conf.Concurrency, enriched)
	if err != nil {
		return nil, Indices{}, fmt.Errorf("fit: %w", err)
	}
	for f := Field(0); f < numFields; f++ {
		logger.Debug("fitted", "field", f.String(), "cardinality", ix.Index(f).Cardinality())
	}

	examples, err := Transform(ctx, e.conf.Concurrency, enriched, ix)
	if err != nil {
		return nil, Indices{}, fmt.Errorf("transform: %w", err)
	}
	logger.Info("encoded", "examples", len(examples), "width", ix.Width())
	return examples, ix, nil
}

// seed returns the configured seed or a random one
func (e *Estimator) seed() uint64 {
	if e.conf.Seed != nil {
		return *e.conf.Seed
	}
	return rand.Uint64()
}
