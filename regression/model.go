package regression

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/linreg/errs"
)

// SlopeCoefficients holds one slope per feature, in feature order.
type SlopeCoefficients []float64

// Clone returns a copy of the coefficients.
func (c SlopeCoefficients) Clone() SlopeCoefficients {
	if c == nil {
		return nil
	}

	return append(SlopeCoefficients(nil), c...)
}

// FittedModel is an estimated linear model: y = Intercept + Σ Coefficients[i]·xᵢ.
//
// Fields:
//   - Coefficients: Slope per feature
//   - Intercept: Value of the model when every feature is 0
type FittedModel struct {
	// Coefficients contains one slope per feature.
	Coefficients SlopeCoefficients
	// Intercept is the constant term of the model.
	Intercept float64
}

// FeaturesCount returns the number of features the model expects.
func (m *FittedModel) FeaturesCount() int {
	return len(m.Coefficients)
}

// Predict evaluates the model at the given feature vector.
//
// Parameters:
//   - inputs: Feature vector, must have FeaturesCount() entries
//
// Returns:
//   - float64: intercept + Σ cᵢ·xᵢ
//   - error: ErrInvalidArgument if the feature vector has the wrong length
func (m *FittedModel) Predict(inputs []float64) (float64, error) {
	if len(inputs) != len(m.Coefficients) {
		return math.NaN(), fmt.Errorf("%w: model expects %d inputs, got %d",
			errs.ErrInvalidArgument, len(m.Coefficients), len(inputs))
	}

	value := m.Intercept
	for i, c := range m.Coefficients {
		value += c * inputs[i]
	}

	return value, nil
}

// Formula returns a human-readable representation of the model, for example
// "y = 2.5 + 1.2·x0 - 0.3·x1".
func (m *FittedModel) Formula() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "y = %.6g", m.Intercept)
	for i, c := range m.Coefficients {
		sign := '+'
		if c < 0 {
			sign = '-'
			c = -c
		}
		fmt.Fprintf(&sb, " %c %.6g·x%d", sign, c, i)
	}

	return sb.String()
}

// Clone returns a deep copy of the model.
func (m *FittedModel) Clone() *FittedModel {
	return &FittedModel{
		Coefficients: m.Coefficients.Clone(),
		Intercept:    m.Intercept,
	}
}

// String returns a string representation of the model.
func (m *FittedModel) String() string {
	return fmt.Sprintf("FittedModel{Intercept: %.6g, Coefficients: %v}", m.Intercept, []float64(m.Coefficients))
}

// Result is the outcome of evaluating one accumulator.
//
// A Result always carries a State. Model and Statistics are set only when the
// state is StateEstimated; Reason explains a StateInsufficient outcome.
//
// Fields:
//   - State: Estimation state of the accumulator
//   - Model: Fitted model, nil unless estimated
//   - Statistics: Fit statistics, nil unless estimated and statistics are enabled
//   - Count: Number of observations the result is based on
//   - FeaturesCount: Feature-vector width
//   - Reason: Why no model was produced (wraps ErrInsufficientData or ErrLinearlyDependentData)
type Result struct {
	State         State
	Model         *FittedModel
	Statistics    *Statistics
	Count         uint64
	FeaturesCount int
	Reason        error
}

// Estimated reports whether the result carries a fitted model.
func (r *Result) Estimated() bool {
	return r != nil && r.State == StateEstimated && r.Model != nil
}

// Value predicts the response at inputs, or returns NaN when no model is
// available or the inputs do not match the model width.
func (r *Result) Value(inputs []float64) float64 {
	if !r.Estimated() {
		return math.NaN()
	}

	v, err := r.Model.Predict(inputs)
	if err != nil {
		return math.NaN()
	}

	return v
}

// String returns a string representation of the result.
func (r *Result) String() string {
	switch {
	case r.Estimated() && r.Statistics != nil:
		return fmt.Sprintf("Result{State: %s, Count: %d, Model: %s, Statistics: %s}",
			r.State, r.Count, r.Model, r.Statistics)
	case r.Estimated():
		return fmt.Sprintf("Result{State: %s, Count: %d, Model: %s}", r.State, r.Count, r.Model)
	case r.Reason != nil:
		return fmt.Sprintf("Result{State: %s, Count: %d, Reason: %v}", r.State, r.Count, r.Reason)
	default:
		return fmt.Sprintf("Result{State: %s, Count: %d}", r.State, r.Count)
	}
}

// BucketResult pairs a bucket ordinal with its evaluation result.
type BucketResult struct {
	Ordinal uint64
	Result  *Result
}
