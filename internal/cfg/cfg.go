// Package cfg loads the settings of the linreg command from a YAML file,
// an optional .env file and LINREG_* environment variables, in that order of
// increasing precedence.
package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/linreg/format"
	"github.com/arloliu/linreg/regression"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LINREG_"

// Settings is the resolved configuration of one run.
type Settings struct {
	Input      InputSettings     `yaml:"input"`
	Pipeline   PipelineSettings  `yaml:"pipeline"`
	Estimator  EstimatorSettings `yaml:"estimator"`
	System     SystemSettings    `yaml:"system"`
	Prediction [][]float64       `yaml:"predict"`
}

// InputSettings describes the observation CSV.
type InputSettings struct {
	Path           string   `yaml:"path"`
	Header         bool     `yaml:"header"`
	Delimiter      string   `yaml:"delimiter"`
	KeyColumn      string   `yaml:"keyColumn"`
	ResponseColumn string   `yaml:"responseColumn"`
	FeatureColumns []string `yaml:"featureColumns"`
}

// PipelineSettings controls partitioning and shard transfer.
type PipelineSettings struct {
	Partitions     int    `yaml:"partitions"`
	Compression    string `yaml:"compression"`
	BigEndian      bool   `yaml:"bigEndian"`
	CheckpointPath string `yaml:"checkpointPath"`
	// Resume skips the input and reduces the checkpoints already stored at
	// CheckpointPath.
	Resume bool `yaml:"resume"`
}

// EstimatorSettings mirrors the regression estimator options.
type EstimatorSettings struct {
	Statistics          bool    `yaml:"statistics"`
	PositivityThreshold float64 `yaml:"positivityThreshold"`
}

// SystemSettings holds logging and metrics output.
type SystemSettings struct {
	LogLevel    string `yaml:"logLevel"`
	MetricsFile string `yaml:"metricsFile"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Input: InputSettings{
			Header:         true,
			Delimiter:      ",",
			ResponseColumn: "y",
		},
		Pipeline: PipelineSettings{
			Partitions:  4,
			Compression: "none",
		},
		Estimator: EstimatorSettings{
			Statistics:          true,
			PositivityThreshold: regression.DefaultPositivityThreshold,
		},
		System: SystemSettings{
			LogLevel: "info",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}

	return nil
}

// Load resolves the settings: defaults, then the YAML file at path (skipped
// when path is empty), then LINREG_* environment variables. The result is
// validated.
func Load(path string) (Settings, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides works like Load and applies override, typically command
// line flags, after the environment and before validation.
func LoadWithOverrides(path string, override func(*Settings)) (Settings, error) {
	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}
	if override != nil {
		override(&settings)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func applyEnv(s *Settings) error {
	s.Input.Path = getEnvOrDefault("INPUT", s.Input.Path)
	s.Input.Delimiter = getEnvOrDefault("DELIMITER", s.Input.Delimiter)
	s.Input.KeyColumn = getEnvOrDefault("KEY_COLUMN", s.Input.KeyColumn)
	s.Input.ResponseColumn = getEnvOrDefault("RESPONSE_COLUMN", s.Input.ResponseColumn)
	if v := os.Getenv(EnvPrefix + "FEATURE_COLUMNS"); v != "" {
		s.Input.FeatureColumns = splitList(v)
	}

	s.Pipeline.Compression = getEnvOrDefault("COMPRESSION", s.Pipeline.Compression)
	s.Pipeline.CheckpointPath = getEnvOrDefault("CHECKPOINT_PATH", s.Pipeline.CheckpointPath)
	s.System.LogLevel = getEnvOrDefault("LOG_LEVEL", s.System.LogLevel)
	s.System.MetricsFile = getEnvOrDefault("METRICS_FILE", s.System.MetricsFile)

	var err error
	if s.Input.Header, err = getBool("HEADER", s.Input.Header); err != nil {
		return err
	}
	if s.Pipeline.Partitions, err = getInt("PARTITIONS", s.Pipeline.Partitions); err != nil {
		return err
	}
	if s.Pipeline.BigEndian, err = getBool("BIG_ENDIAN", s.Pipeline.BigEndian); err != nil {
		return err
	}
	if s.Pipeline.Resume, err = getBool("RESUME", s.Pipeline.Resume); err != nil {
		return err
	}
	if s.Estimator.Statistics, err = getBool("STATISTICS", s.Estimator.Statistics); err != nil {
		return err
	}
	if s.Estimator.PositivityThreshold, err = getFloat("POSITIVITY_THRESHOLD", s.Estimator.PositivityThreshold); err != nil {
		return err
	}

	return nil
}

// Validate checks every setting and reports the first invalid one.
func (s Settings) Validate() error {
	switch {
	case s.Pipeline.Resume && s.Pipeline.CheckpointPath == "":
		return fmt.Errorf("checkpoint path is required to resume")
	case !s.Pipeline.Resume && s.Input.Path == "":
		return fmt.Errorf("input path is required")
	}
	if len([]rune(s.Input.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", s.Input.Delimiter)
	}
	if s.Input.ResponseColumn == "" {
		return fmt.Errorf("response column is required")
	}
	if s.Input.KeyColumn != "" && s.Input.KeyColumn == s.Input.ResponseColumn {
		return fmt.Errorf("key column and response column must differ, both are %q", s.Input.KeyColumn)
	}
	for _, c := range s.Input.FeatureColumns {
		if c == s.Input.ResponseColumn || c == s.Input.KeyColumn {
			return fmt.Errorf("feature column %q is also the key or response column", c)
		}
	}

	if s.Pipeline.Partitions < 1 || s.Pipeline.Partitions > 1024 {
		return fmt.Errorf("partitions must be between 1 and 1024, got %d", s.Pipeline.Partitions)
	}
	if _, err := s.CompressionType(); err != nil {
		return err
	}

	if s.Estimator.PositivityThreshold < 0 || s.Estimator.PositivityThreshold >= 1 {
		return fmt.Errorf("positivity threshold must be in [0, 1), got %g", s.Estimator.PositivityThreshold)
	}

	if _, err := s.Level(); err != nil {
		return err
	}

	for i, inputs := range s.Prediction {
		if len(inputs) == 0 {
			return fmt.Errorf("prediction %d has no inputs", i)
		}
	}

	return nil
}

// CompressionType returns the shard codec named by Pipeline.Compression.
func (s Settings) CompressionType() (format.CompressionType, error) {
	return format.ParseCompression(s.Pipeline.Compression)
}

// Level returns the zerolog level named by System.LogLevel.
func (s Settings) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(s.System.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s.System.LogLevel, err)
	}

	return level, nil
}

// Comma returns the CSV delimiter rune.
func (s Settings) Comma() rune {
	return []rune(s.Input.Delimiter)[0]
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}

	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return defaultValue, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}

	return i, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}

	return f, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}

	return b, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
