package regression

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/arloliu/linreg/errs"
	"github.com/arloliu/linreg/internal/options"
	"github.com/arloliu/linreg/metrics"
	"github.com/arloliu/linreg/sampling"
)

// State is the estimation state of a bucket.
type State int

const (
	// StateEmpty means no accumulator exists yet.
	StateEmpty State = iota
	// StateAccumulating means observations are being folded into an accumulator.
	StateAccumulating
	// StateMergeable means partial accumulators exist and are ready to be merged.
	StateMergeable
	// StateEstimated means a model was fitted.
	StateEstimated
	// StateInsufficient means no usable model exists, because of too few
	// observations or linearly dependent data.
	StateInsufficient
)

// stateNames maps State to their string representations.
var stateNames = map[State]string{
	StateEmpty:        "empty",
	StateAccumulating: "accumulating",
	StateMergeable:    "mergeable",
	StateEstimated:    "estimated",
	StateInsufficient: "insufficient",
}

// String returns the string representation of the state.
func (s State) String() string {
	if name, exists := stateNames[s]; exists {
		return name
	}

	return "unknown"
}

// StateOf classifies an accumulator before estimation.
func StateOf(stats *sampling.SufficientStats) State {
	if stats == nil {
		return StateEmpty
	}

	return StateAccumulating
}

// StateOfPartials classifies the partial accumulators of one bucket before a
// reduce. nil partials are absent: none left is StateEmpty, a single one is
// StateAccumulating and several are StateMergeable.
func StateOfPartials(partials ...*sampling.SufficientStats) State {
	present := 0
	for _, p := range partials {
		if p != nil {
			present++
		}
	}

	switch present {
	case 0:
		return StateEmpty
	case 1:
		return StateAccumulating
	default:
		return StateMergeable
	}
}

// Estimator fits linear models from accumulated moment sums.
//
// An Estimator holds only immutable configuration and is safe for concurrent
// use; the accumulators passed to it are never modified.
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator creates an estimator.
//
// Parameters:
//   - opts: Optional configuration (WithStatistics, WithPositivityThreshold,
//     WithLogger, WithMetrics)
//
// Returns:
//   - *Estimator: Configured estimator
//   - error: Option validation error
//
// Example:
//
//	est, err := regression.NewEstimator(regression.WithStatistics(false))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	model, err := est.Estimate(stats)
func NewEstimator(opts ...EstimatorOption) (*Estimator, error) {
	cfg := defaultEstimatorConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Estimator{cfg: cfg}, nil
}

var defaultEstimator = &Estimator{cfg: defaultEstimatorConfig()}

// Estimate fits a model with the default estimator. See (*Estimator).Estimate.
func Estimate(stats *sampling.SufficientStats) (*FittedModel, error) {
	return defaultEstimator.Estimate(stats)
}

// Evaluate evaluates an accumulator with the default estimator. See (*Estimator).Evaluate.
func Evaluate(stats *sampling.SufficientStats) (*Result, error) {
	return defaultEstimator.Evaluate(stats)
}

// Estimate fits a model to the accumulated observations.
//
// The accumulator must hold more observations than features; otherwise the
// system is never solved.
//
// Parameters:
//   - stats: Accumulated moment sums (not modified)
//
// Returns:
//   - *FittedModel: Slope coefficients and intercept
//   - error: ErrInvalidArgument for a nil accumulator, ErrInsufficientData when
//     count <= features count, ErrLinearlyDependentData when the solver fails
func (e *Estimator) Estimate(stats *sampling.SufficientStats) (*FittedModel, error) {
	model, _, err := e.fit(stats)

	return model, err
}

// Evaluate fits a model and reports the outcome as a Result.
//
// Unlike Estimate, both insufficiency kinds are expected outcomes and yield a
// StateInsufficient result with the cause in Reason and a nil error.
//
// Returns:
//   - *Result: Evaluation outcome
//   - error: ErrInvalidArgument for a nil accumulator
func (e *Estimator) Evaluate(stats *sampling.SufficientStats) (*Result, error) {
	model, eq, err := e.fit(stats)
	if err != nil {
		if !isInsufficient(err) {
			return nil, err
		}

		return &Result{
			State:         StateInsufficient,
			Count:         stats.Count(),
			FeaturesCount: stats.FeaturesCount(),
			Reason:        err,
		}, nil
	}

	result := &Result{
		State:         StateEstimated,
		Model:         model,
		Count:         stats.Count(),
		FeaturesCount: stats.FeaturesCount(),
	}
	if e.cfg.Statistics {
		st := CalculateStatistics(stats, model.Coefficients, eq)
		result.Statistics = &st
	}

	return result, nil
}

// Reduce merges partial accumulators of one bucket and evaluates the merged state.
//
// nil partials are skipped. The inputs are not modified. Without any partial
// the result is StateEmpty.
//
// Parameters:
//   - partials: Partial accumulators of the same bucket, in any order
//
// Returns:
//   - *Result: Evaluation of the merged accumulator
//   - error: ErrInvalidArgument if the partials have different feature counts
func (e *Estimator) Reduce(partials ...*sampling.SufficientStats) (*Result, error) {
	state := StateOfPartials(partials...)
	if state == StateEmpty {
		return &Result{State: StateEmpty}, nil
	}
	e.cfg.Logger.Debug().Stringer("state", state).Int("partials", len(partials)).Msg("reducing partials")

	var merged *sampling.SufficientStats
	for _, p := range partials {
		if p == nil {
			continue
		}
		if merged == nil {
			merged = p.Clone()
			continue
		}
		if err := merged.Merge(p); err != nil {
			return nil, err
		}
		e.cfg.Metrics.IncMerges()
	}

	return e.Evaluate(merged)
}

// Predict evaluates the accumulator and predicts the response at inputs.
//
// Returns:
//   - float64: Predicted response, or NaN when no model is available
//   - error: The insufficiency reason, ErrInvalidArgument for a nil accumulator
//     or mismatched inputs
func (e *Estimator) Predict(stats *sampling.SufficientStats, inputs []float64) (float64, error) {
	result, err := e.Evaluate(stats)
	if err != nil {
		return math.NaN(), err
	}
	if !result.Estimated() {
		return math.NaN(), result.Reason
	}

	return result.Model.Predict(inputs)
}

func (e *Estimator) fit(stats *sampling.SufficientStats) (*FittedModel, DerivationEquation, error) {
	if stats == nil {
		return nil, DerivationEquation{}, fmt.Errorf("%w: nil accumulator", errs.ErrInvalidArgument)
	}

	start := time.Now()
	featuresCount := stats.FeaturesCount()
	count := stats.Count()

	if count <= uint64(featuresCount) { //nolint: gosec
		err := fmt.Errorf("%w: %d observations for %d features", errs.ErrInsufficientData, count, featuresCount)
		e.cfg.Logger.Debug().
			Uint64("count", count).
			Int("features", featuresCount).
			Msg("not enough observations to estimate model")
		e.cfg.Metrics.ObserveEstimation(metrics.OutcomeInsufficient, time.Since(start))

		return nil, DerivationEquation{}, err
	}

	eq := BuildEquation(stats)
	coefficients, err := SolveCoefficientsWithThreshold(eq, e.cfg.PositivityThreshold)
	if err != nil {
		e.cfg.Logger.Debug().
			Err(err).
			Uint64("count", count).
			Int("features", featuresCount).
			Msg("failed to solve normal equations")
		e.cfg.Metrics.ObserveEstimation(metrics.OutcomeLinearlyDependent, time.Since(start))

		return nil, DerivationEquation{}, err
	}

	model := &FittedModel{
		Coefficients: coefficients,
		Intercept:    CalculateIntercept(coefficients, stats.FeatureMeans(), stats.ResponseMean()),
	}
	e.cfg.Metrics.ObserveEstimation(metrics.OutcomeEstimated, time.Since(start))

	return model, eq, nil
}

func isInsufficient(err error) bool {
	return errors.Is(err, errs.ErrInsufficientData) || errors.Is(err, errs.ErrLinearlyDependentData)
}
