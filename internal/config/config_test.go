package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FAREML_INPUT", "FAREML_TRAIN_FRACTION", "FAREML_SEED", "FAREML_TIME_ZONE",
	"FAREML_CONCURRENCY", "FAREML_LOG_LEVEL", "FAREML_LOG_FORMAT", "FAREML_HOLIDAYS",
}

// clearEnv unsets every FAREML_* variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fareml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Input)
	assert.Equal(t, 0.8, cfg.TrainFraction)
	assert.Nil(t, cfg.Seed)
	assert.Equal(t, "America/New_York", cfg.TimeZone)
	assert.Equal(t, runtime.NumCPU(), cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Nil(t, cfg.Hyperparameters)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
input: data/train.csv
train_fraction: 0.75
seed: 42
holidays: ["2015-01-01", "2015-07-04"]
concurrency: 3
log_format: json
hyperparameters:
  numTrees: 250
  maxDepth: 20
  maxBins: 126
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/train.csv", cfg.Input)
	assert.Equal(t, 0.75, cfg.TrainFraction)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(42), *cfg.Seed)
	assert.Equal(t, []string{"2015-01-01", "2015-07-04"}, cfg.Holidays)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "America/New_York", cfg.TimeZone, "unset keys keep their default")
	assert.Equal(t, map[string]float64{"numTrees": 250, "maxDepth": 20, "maxBins": 126}, cfg.Hyperparameters)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "input: from-file.csv\ntrain_fraction: 0.5\n")
	t.Setenv("FAREML_INPUT", "from-env.csv")
	t.Setenv("FAREML_SEED", "7")
	t.Setenv("FAREML_CONCURRENCY", "9")
	t.Setenv("FAREML_HOLIDAYS", "2014-12-25, 2015-01-01")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.csv", cfg.Input)
	assert.Equal(t, 0.5, cfg.TrainFraction)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(7), *cfg.Seed)
	assert.Equal(t, 9, cfg.Concurrency)
	assert.Equal(t, []string{"2014-12-25", "2015-01-01"}, cfg.Holidays)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
		},
		{
			name: "broken yaml",
			setup: func(t *testing.T) string {
				return writeFile(t, "train_fraction: [")
			},
		},
		{
			name: "bad fraction in env",
			setup: func(t *testing.T) string {
				t.Setenv("FAREML_TRAIN_FRACTION", "most")
				return ""
			},
		},
		{
			name: "bad seed in env",
			setup: func(t *testing.T) string {
				t.Setenv("FAREML_SEED", "-1")
				return ""
			},
		},
		{
			name: "bad concurrency in env",
			setup: func(t *testing.T) string {
				t.Setenv("FAREML_CONCURRENCY", "many")
				return ""
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(test.setup(t))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")

	cfg.Input = "trips.csv"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Pipeline(t *testing.T) {
	seed := uint64(3)
	cfg := Default()
	cfg.Input = "trips.csv"
	cfg.Seed = &seed
	cfg.Holidays = []string{"2015-07-04"}
	cfg.Hyperparameters = map[string]float64{"epochs": 3}

	conf, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", conf.Location.String())
	assert.Equal(t, 0.8, conf.TrainFraction)
	assert.Equal(t, &seed, conf.Seed)
	assert.Equal(t, 1, conf.Holidays.Len())
	assert.Equal(t, 3, conf.Hyperparameters.Int("epochs", 0))
}

func TestConfig_Pipeline_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "no input", modify: func(c *Config) { c.Input = "" }},
		{name: "unknown zone", modify: func(c *Config) { c.TimeZone = "Mars/Olympus_Mons" }},
		{name: "bad holiday", modify: func(c *Config) { c.Holidays = []string{"4th of July"} }},
		{name: "fraction out of range", modify: func(c *Config) { c.TrainFraction = 1.5 }},
		{name: "no workers", modify: func(c *Config) { c.Concurrency = 0 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input = "trips.csv"
			test.modify(&cfg)
			_, err := cfg.Pipeline()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join("..", "..", "fareml.example.yaml"))
	require.NoError(t, err)

	conf, err := cfg.Pipeline()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", conf.Location.String())
	assert.Equal(t, 4, conf.Holidays.Len())
	require.NotNil(t, conf.Seed)
	assert.Equal(t, uint64(2024), *conf.Seed)
	assert.Equal(t, 250.0, conf.Hyperparameters["num_trees"])
}
