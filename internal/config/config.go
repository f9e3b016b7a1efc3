// Package config loads the run configuration from defaults, an optional YAML file
// and FAREML_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cubny/fareml"
)

// Config holds all fareml configuration
type Config struct {
	// Input is the path of the trips CSV file. Required.
	Input string `yaml:"input"`

	// TrainFraction is the share of examples used for training. Defaults to 0.8.
	TrainFraction float64 `yaml:"train_fraction"`

	// Seed fixes the train/evaluation partition. A random seed is used when unset.
	Seed *uint64 `yaml:"seed"`

	// TimeZone is the IANA zone pickup times are converted to. Defaults to America/New_York.
	TimeZone string `yaml:"time_zone"`

	// Holidays is a list of YYYY-MM-DD local dates.
	Holidays []string `yaml:"holidays"`

	// Concurrency is the number of workers of the parallel stages. Defaults to the number of CPUs.
	Concurrency int `yaml:"concurrency"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// LogFormat is text or json. Defaults to text.
	LogFormat string `yaml:"log_format"`

	// Hyperparameters are passed to the trainer untouched.
	Hyperparameters map[string]float64 `yaml:"hyperparameters"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		TrainFraction: fareml.DefaultTrainFraction,
		TimeZone:      "America/New_York",
		Concurrency:   runtime.NumCPU(),
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load returns the default configuration overridden by the YAML file at path, when path is
// not empty, and then by the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Input = getEnv("FAREML_INPUT", c.Input)
	c.TimeZone = getEnv("FAREML_TIME_ZONE", c.TimeZone)
	c.LogLevel = getEnv("FAREML_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("FAREML_LOG_FORMAT", c.LogFormat)

	var err error
	if c.TrainFraction, err = getEnvFloat("FAREML_TRAIN_FRACTION", c.TrainFraction); err != nil {
		return err
	}
	if c.Concurrency, err = getEnvInt("FAREML_CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	if v := os.Getenv("FAREML_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FAREML_SEED: %w", err)
		}
		c.Seed = &seed
	}
	if v := os.Getenv("FAREML_HOLIDAYS"); v != "" {
		c.Holidays = splitCSV(v)
	}
	return nil
}

// Validate reports the required settings that are missing
func (c Config) Validate() error {
	var missing []string
	if c.Input == "" {
		missing = append(missing, "input")
	}
	if c.TimeZone == "" {
		missing = append(missing, "time_zone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required settings not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Pipeline converts the configuration into the settings of a fareml run
func (c Config) Pipeline() (*fareml.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("time zone: %w", err)
	}
	holidays, err := fareml.NewCalendar(c.Holidays...)
	if err != nil {
		return nil, err
	}

	conf := &fareml.Config{
		TrainFraction:   c.TrainFraction,
		Seed:            c.Seed,
		Location:        loc,
		Holidays:        holidays,
		Concurrency:     c.Concurrency,
		Hyperparameters: fareml.Hyperparameters(c.Hyperparameters),
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid configuration"), err)
	}
	return conf, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
