package regression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/linreg/errs"
)

func TestSolveCoefficients_KnownModels(t *testing.T) {
	for _, m := range knownModels {
		t.Run(m.name, func(t *testing.T) {
			coefficients, err := SolveCoefficients(BuildEquation(m.accumulate(t)))
			require.NoError(t, err)
			requireCoefficientsRelative(t, m.coefficients, coefficients, 1e-6)
		})
	}
}

func TestSolveCoefficients_Identity(t *testing.T) {
	eq := DerivationEquation{
		Covariance:  [][]float64{{1}, {0, 1}, {0, 0, 1}},
		Constraints: []float64{3, -2, 0.5},
	}

	coefficients, err := SolveCoefficients(eq)
	require.NoError(t, err)
	requireCoefficients(t, []float64{3, -2, 0.5}, coefficients, 1e-15)
}

func TestSolveCoefficients_Collinear(t *testing.T) {
	// x1 = 2·x0
	eq := DerivationEquation{
		Covariance:  [][]float64{{10}, {20, 40}},
		Constraints: []float64{5, 10},
	}

	_, err := SolveCoefficients(eq)
	require.ErrorIs(t, err, errs.ErrLinearlyDependentData)
}

func TestSolveCoefficients_NotPositiveDefinite(t *testing.T) {
	tests := []struct {
		name string
		eq   DerivationEquation
	}{
		{"zero variance", DerivationEquation{Covariance: [][]float64{{0}}, Constraints: []float64{0}}},
		{"negative diagonal", DerivationEquation{Covariance: [][]float64{{-1}}, Constraints: []float64{1}}},
		{"indefinite", DerivationEquation{Covariance: [][]float64{{1}, {2, 1}}, Constraints: []float64{1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SolveCoefficients(tt.eq)
			require.ErrorIs(t, err, errs.ErrLinearlyDependentData)
		})
	}
}

func TestSolveCoefficientsWithThreshold(t *testing.T) {
	// pivot² of the second row is 1e-6 relative to its diagonal
	eq := DerivationEquation{
		Covariance:  [][]float64{{1}, {1, 1 + 1e-6}},
		Constraints: []float64{1, 1},
	}

	_, err := SolveCoefficientsWithThreshold(eq, 1e-4)
	require.ErrorIs(t, err, errs.ErrLinearlyDependentData)

	coefficients, err := SolveCoefficientsWithThreshold(eq, DefaultPositivityThreshold)
	require.NoError(t, err)
	requireCoefficients(t, []float64{1, 0}, coefficients, 1e-6)
}

func TestSolveCoefficients_Malformed(t *testing.T) {
	_, err := SolveCoefficients(DerivationEquation{})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = SolveCoefficients(DerivationEquation{
		Covariance:  [][]float64{{1, 0}, {0, 1}},
		Constraints: []float64{1, 1},
	})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestSolveCoefficients_DoesNotModifyInput(t *testing.T) {
	eq := BuildEquation(longleyModel.accumulate(t))
	covariance := make([][]float64, len(eq.Covariance))
	for i, row := range eq.Covariance {
		covariance[i] = append([]float64(nil), row...)
	}
	constraints := append([]float64(nil), eq.Constraints...)

	_, err := SolveCoefficients(eq)
	require.NoError(t, err)
	require.Equal(t, covariance, eq.Covariance)
	require.Equal(t, constraints, eq.Constraints)
}

func BenchmarkSolveCoefficients(b *testing.B) {
	eq := BuildEquation(longleyModel.accumulate(b))

	b.ReportAllocs()
	for b.Loop() {
		_, _ = SolveCoefficients(eq)
	}
}
