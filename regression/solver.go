package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/linreg/errs"
)

// DefaultPositivityThreshold is the default relative pivot threshold of the
// Cholesky solver. A pivot Uᵢᵢ is rejected when Uᵢᵢ² <= threshold·Aᵢᵢ.
const DefaultPositivityThreshold = 1e-10

// SolveCoefficients solves the normal equations for the slope coefficients using
// a Cholesky decomposition and DefaultPositivityThreshold.
//
// Parameters:
//   - eq: Normal equations built by BuildEquation
//
// Returns:
//   - SlopeCoefficients: Slope per feature
//   - error: ErrLinearlyDependentData if the covariance matrix is not
//     (numerically) positive definite
func SolveCoefficients(eq DerivationEquation) (SlopeCoefficients, error) {
	return SolveCoefficientsWithThreshold(eq, DefaultPositivityThreshold)
}

// SolveCoefficientsWithThreshold is SolveCoefficients with an explicit relative
// pivot threshold. A threshold of 0 only rejects matrices the factorization
// itself reports as not positive definite.
//
// The input equation is never modified.
func SolveCoefficientsWithThreshold(eq DerivationEquation, threshold float64) (SlopeCoefficients, error) {
	n := eq.FeaturesCount()
	if n == 0 || len(eq.Covariance) != n {
		return nil, fmt.Errorf("%w: malformed equation with %d rows and %d constraints",
			errs.ErrInvalidArgument, len(eq.Covariance), n)
	}

	data := make([]float64, n*n)
	for i := range n {
		if len(eq.Covariance[i]) != i+1 {
			return nil, fmt.Errorf("%w: covariance row %d has %d entries, want %d",
				errs.ErrInvalidArgument, i, len(eq.Covariance[i]), i+1)
		}
		for j := 0; j <= i; j++ {
			data[i*n+j] = eq.Covariance[i][j]
			data[j*n+i] = eq.Covariance[i][j]
		}
	}
	a := mat.NewSymDense(n, data)

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite", errs.ErrLinearlyDependentData)
	}

	u := chol.RawU()
	for i := range n {
		pivot := u.At(i, i)
		if pivot*pivot <= threshold*math.Abs(a.At(i, i)) {
			return nil, fmt.Errorf("%w: pivot %d collapsed (%g against diagonal %g)",
				errs.ErrLinearlyDependentData, i, pivot*pivot, a.At(i, i))
		}
	}

	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, append([]float64(nil), eq.Constraints...))); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("%w: ill-conditioned covariance matrix (condition %g)",
				errs.ErrLinearlyDependentData, float64(cond))
		}

		return nil, fmt.Errorf("%w: %w", errs.ErrLinearlyDependentData, err)
	}

	coefficients := make(SlopeCoefficients, n)
	for i := range n {
		coefficients[i] = x.AtVec(i)
	}

	return coefficients, nil
}
