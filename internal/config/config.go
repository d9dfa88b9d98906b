// Package config loads and validates the application configuration.
// Precedence: built-in defaults, then the YAML file, then PDMOTION_*
// environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"pdmotion/internal/classify"
	"pdmotion/internal/endpoints"
	"pdmotion/internal/signal"
)

// Config represents the complete application configuration.
type Config struct {
	Sampling   SamplingConfig   `yaml:"sampling" envconfig:"SAMPLING"`
	Bands      BandsConfig      `yaml:"bands" envconfig:"BANDS"`
	Thresholds ThresholdsConfig `yaml:"thresholds" envconfig:"THRESHOLDS"`
	Models     ModelsConfig     `yaml:"models" envconfig:"MODELS"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// SamplingConfig describes the input recording.
type SamplingConfig struct {
	Rate float64 `yaml:"rate" envconfig:"RATE" validate:"gt=0"`
}

// BandConfig is one Butterworth band edge set.
type BandConfig struct {
	Low   float64 `yaml:"low" envconfig:"LOW" validate:"gte=0"`
	High  float64 `yaml:"high" envconfig:"HIGH" validate:"gt=0"`
	Order int     `yaml:"order" envconfig:"ORDER" validate:"gte=1,lte=8"`
}

// Band converts the section to a filter specification.
func (b BandConfig) Band() signal.Band {
	return signal.Band{Low: b.Low, High: b.High, Order: b.Order}
}

// BandsConfig holds the frequency bands each classifier isolates.
type BandsConfig struct {
	Movement BandConfig `yaml:"movement" envconfig:"MOVEMENT"`
	Tremor   BandConfig `yaml:"tremor" envconfig:"TREMOR"`
	Gait     BandConfig `yaml:"gait" envconfig:"GAIT"`
}

// ThresholdsConfig holds the clinical-calibration constants.
type ThresholdsConfig struct {
	MovementCoV               float64 `yaml:"movement_cov" envconfig:"MOVEMENT_COV" validate:"gt=0"`
	TremorAmplitudePercentile float64 `yaml:"tremor_amplitude_percentile" envconfig:"TREMOR_AMPLITUDE_PERCENTILE" validate:"gte=0,lte=100"`
	JerkPercentile            float64 `yaml:"jerk_percentile" envconfig:"JERK_PERCENTILE" validate:"gte=0,lte=100"`
}

// ModelsConfig points at the trained forest artifacts.
type ModelsConfig struct {
	GaitPath   string `yaml:"gait_path" envconfig:"GAIT_PATH" validate:"required"`
	TremorPath string `yaml:"tremor_path" envconfig:"TREMOR_PATH" validate:"required"`
}

// PipelineConfig tunes the epoch worker pool. Workers zero means one per
// CPU.
type PipelineConfig struct {
	Workers int `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv xlsx"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Sampling: SamplingConfig{Rate: 50},
		Bands: BandsConfig{
			Movement: BandConfig{Low: signal.MovementBand.Low, High: signal.MovementBand.High, Order: signal.MovementBand.Order},
			Tremor:   BandConfig{Low: signal.TremorBand.Low, High: signal.TremorBand.High, Order: signal.TremorBand.Order},
			Gait:     BandConfig{Low: signal.GaitBand.Low, High: signal.GaitBand.High, Order: signal.GaitBand.Order},
		},
		Thresholds: ThresholdsConfig{
			MovementCoV:               classify.DefaultCoVThreshold,
			TremorAmplitudePercentile: endpoints.DefaultTremorAmplitudePercentile,
			JerkPercentile:            endpoints.DefaultJerkPercentile,
		},
		Models: ModelsConfig{
			GaitPath:   "models/gait.yaml",
			TremorPath: "models/tremor.yaml",
		},
		Pipeline: PipelineConfig{Workers: 0},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pdmotion.log",
		},
		Output: OutputConfig{Dir: "out", Format: "csv"},
	}
}

// Load builds the effective configuration. An empty path skips the file
// layer; a named file that does not exist is an error, not a silent
// fallback.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("PDMOTION", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints plus the cross-field band rules the
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	for name, band := range map[string]BandConfig{
		"movement": c.Bands.Movement,
		"tremor":   c.Bands.Tremor,
		"gait":     c.Bands.Gait,
	} {
		if band.Low >= band.High {
			return fmt.Errorf("band %s: low cutoff %v must be below high cutoff %v", name, band.Low, band.High)
		}
		if band.High >= c.Sampling.Rate/2 {
			return fmt.Errorf("band %s: high cutoff %v at or above Nyquist for %vHz sampling", name, band.High, c.Sampling.Rate)
		}
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output is file but no file_path configured")
	}
	return nil
}
