package regression

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/arloliu/linreg/errs"
)

// Modifier transforms a residual into a score.
type Modifier int

const (
	// ModifierNone returns the residual unchanged.
	ModifierNone Modifier = iota
	// ModifierAbs returns |r|.
	ModifierAbs
	// ModifierSquare returns r².
	ModifierSquare
	// ModifierReciprocal returns 1/r, or math.MaxFloat64 for r == 0.
	ModifierReciprocal
	// ModifierAbsReciprocal returns 1/|r|, or math.MaxFloat64 for r == 0.
	ModifierAbsReciprocal
	// ModifierSquareReciprocal returns 1/r², or math.MaxFloat64 for r == 0.
	ModifierSquareReciprocal
)

// modifierNames maps Modifier to their string representations.
var modifierNames = map[Modifier]string{
	ModifierNone:             "none",
	ModifierAbs:              "abs",
	ModifierSquare:           "square",
	ModifierReciprocal:       "reciprocal",
	ModifierAbsReciprocal:    "abs_reciprocal",
	ModifierSquareReciprocal: "square_reciprocal",
}

// String returns the string representation of the modifier.
func (m Modifier) String() string {
	if name, exists := modifierNames[m]; exists {
		return name
	}

	return "unknown"
}

// ModifierFromString returns the Modifier for a case-insensitive name.
func ModifierFromString(name string) (Modifier, error) {
	lower := strings.ToLower(name)
	for m, n := range modifierNames {
		if n == lower {
			return m, nil
		}
	}

	supported := make([]string, 0, len(modifierNames))
	for _, n := range modifierNames {
		supported = append(supported, n)
	}
	slices.Sort(supported)

	return ModifierNone, fmt.Errorf("%w: unknown modifier %q, supported: %s",
		errs.ErrInvalidArgument, name, strings.Join(supported, ", "))
}

// Apply applies the modifier to v.
func (m Modifier) Apply(v float64) float64 {
	switch m {
	case ModifierAbs:
		return math.Abs(v)
	case ModifierSquare:
		return v * v
	case ModifierReciprocal:
		return reciprocal(v)
	case ModifierAbsReciprocal:
		return reciprocal(math.Abs(v))
	case ModifierSquareReciprocal:
		return reciprocal(v * v)
	default:
		return v
	}
}

func reciprocal(v float64) float64 {
	if v == 0 {
		return math.MaxFloat64
	}

	return 1 / v
}

// Residual returns response - Predict(features).
func (m *FittedModel) Residual(features []float64, response float64) (float64, error) {
	predicted, err := m.Predict(features)
	if err != nil {
		return math.NaN(), err
	}

	return response - predicted, nil
}

// Score returns the modified residual of one observation, typically used to rank
// observations by how far they deviate from the model.
//
// Parameters:
//   - features: Feature vector of the observation
//   - response: Observed response value
//   - modifier: Transformation applied to the residual
//
// Returns:
//   - float64: Modified residual
//   - error: ErrInvalidArgument for a width mismatch, ErrInvalidScore if the
//     result is NaN or infinite
func (m *FittedModel) Score(features []float64, response float64, modifier Modifier) (float64, error) {
	residual, err := m.Residual(features, response)
	if err != nil {
		return math.NaN(), err
	}

	score := modifier.Apply(residual)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return math.NaN(), fmt.Errorf("%w: %s(%g) is not a finite number", errs.ErrInvalidScore, modifier, residual)
	}

	return score, nil
}
