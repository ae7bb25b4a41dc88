package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/options"
	"github.com/arloliu/linreg/metrics"
	"github.com/arloliu/linreg/regression"
	"github.com/arloliu/linreg/shard"
	"github.com/arloliu/linreg/storage"
)

const (
	// MaxPartitions bounds the number of partition workers.
	MaxPartitions = 1024
	// DefaultPartitions is the partition count when none is configured.
	DefaultPartitions = 4

	queueSize = 256
)

// Config holds the configuration of a pipeline run.
type Config struct {
	Partitions  int
	Encoder     []shard.EncoderOption
	Estimator   *regression.Estimator
	Checkpoints *storage.Store
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
}

func defaultConfig() *Config {
	return &Config{
		Partitions: DefaultPartitions,
		Logger:     zerolog.Nop(),
	}
}

// Option is a functional option for Config.
type Option = options.Option[*Config]

// WithPartitions sets the number of partitions, in [1, MaxPartitions].
func WithPartitions(n int) Option {
	return options.New(func(cfg *Config) error {
		if n < 1 || n > MaxPartitions {
			return fmt.Errorf("%w: partitions %d outside [1, %d]", errs.ErrInvalidArgument, n, MaxPartitions)
		}
		cfg.Partitions = n

		return nil
	})
}

// WithEncoderOptions sets the shard encoding options used by every partition.
func WithEncoderOptions(opts ...shard.EncoderOption) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Encoder = append(cfg.Encoder, opts...)
	})
}

// WithEstimator sets the estimator used by the reducer.
func WithEstimator(est *regression.Estimator) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Estimator = est
	})
}

// WithCheckpoints makes every partition persist its shard, and the reducer
// read the shards back from the store.
func WithCheckpoints(store *storage.Store) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Checkpoints = store
	})
}

// WithMetrics sets the metrics collectors of the run.
func WithMetrics(m *metrics.Metrics) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Metrics = m
	})
}

// WithLogger sets the logger of the run.
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Logger = logger
	})
}

func newConfig(opts []Option) (*Config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.Estimator == nil {
		est, err := regression.NewEstimator(
			regression.WithLogger(cfg.Logger),
			regression.WithMetrics(cfg.Metrics),
		)
		if err != nil {
			return nil, err
		}
		cfg.Estimator = est
	}

	return cfg, nil
}
