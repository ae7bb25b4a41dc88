package regression

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/options"
	"github.com/arloliu/linreg/metrics"
)

// EstimatorConfig holds the configuration of an Estimator.
type EstimatorConfig struct {
	// Statistics enables RSS/MSE/R² computation on every estimated result.
	Statistics bool
	// PositivityThreshold is the relative Cholesky pivot threshold.
	PositivityThreshold float64
	// Logger receives debug output about non-estimable buckets.
	Logger zerolog.Logger
	// Metrics records estimation outcomes; nil disables metrics.
	Metrics *metrics.Metrics
}

// defaultEstimatorConfig returns the default config (statistics on, default threshold, no logging).
func defaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		Statistics:          true,
		PositivityThreshold: DefaultPositivityThreshold,
		Logger:              zerolog.Nop(),
	}
}

// EstimatorOption is a functional option for EstimatorConfig.
type EstimatorOption = options.Option[*EstimatorConfig]

// WithStatistics enables or disables fit statistics on estimated results.
func WithStatistics(enabled bool) EstimatorOption {
	return options.NoError(func(cfg *EstimatorConfig) {
		cfg.Statistics = enabled
	})
}

// WithPositivityThreshold sets the relative pivot threshold of the solver.
// The threshold must be in [0, 1).
func WithPositivityThreshold(threshold float64) EstimatorOption {
	return options.New(func(cfg *EstimatorConfig) error {
		if threshold < 0 || threshold >= 1 {
			return fmt.Errorf("%w: positivity threshold %g outside [0, 1)", errs.ErrInvalidArgument, threshold)
		}
		cfg.PositivityThreshold = threshold

		return nil
	})
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger zerolog.Logger) EstimatorOption {
	return options.NoError(func(cfg *EstimatorConfig) {
		cfg.Logger = logger
	})
}

// WithMetrics sets the metrics collectors used to record estimation outcomes.
func WithMetrics(m *metrics.Metrics) EstimatorOption {
	return options.NoError(func(cfg *EstimatorConfig) {
		cfg.Metrics = m
	})
}
