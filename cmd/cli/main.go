package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	_ "time/tzdata"

	"github.com/cubny/fareml"
	"github.com/cubny/fareml/internal/config"
	"github.com/cubny/fareml/internal/logging"
	"github.com/cubny/fareml/internal/regress"
)

func main() {
	configFile := flag.String("config", "", "yaml config file path")
	infile := flag.String("input", "", "input csv file path")
	trainFraction := flag.Float64("train-fraction", fareml.DefaultTrainFraction, "share of the trips used for training")
	seed := flag.Uint64("seed", 0, "seed of the train/evaluation split")
	concurrency := flag.Int("c", 0, "concurrent workers")
	cpuProfile := flag.String("cpuprofile", "", "write a cpu profile to this file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// flags win over the file and the environment, but only when given
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *infile
		case "train-fraction":
			cfg.TrainFraction = *trainFraction
		case "seed":
			cfg.Seed = seed
		case "c":
			cfg.Concurrency = *concurrency
		}
	})

	logger := logging.Init(os.Stderr, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	conf, err := cfg.Pipeline()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := run(conf, cfg.Input, *cpuProfile, logger); err != nil {
		logger.Error("estimator", "error", err)
		os.Exit(1)
	}
}

func run(conf *fareml.Config, input, cpuProfile string, logger *slog.Logger) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer func() {
		if err := in.Close(); err != nil {
			logger.Warn("close input file", "error", err)
		}
	}()

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	estimator, err := fareml.NewEstimator(in, os.Stdout, conf, regress.NewSGD(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := estimator.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("done", "run_id", report.RunID, "valid", report.Valid, "width", report.Width)
	return nil
}
