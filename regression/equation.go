package regression

import (
	"github.com/arloliu/linreg/sampling"
)

// DerivationEquation holds the normal equations in covariance form.
//
// Covariance is the lower triangle of the feature covariance matrix: row i has
// i+1 entries. Constraints holds the feature/response covariance per feature.
// The slope coefficients β solve Covariance·β = Constraints.
type DerivationEquation struct {
	Covariance  [][]float64
	Constraints []float64
}

// BuildEquation derives the normal equations from accumulated moment sums.
//
// For features i, j (j <= i) with means mᵢ and sums sᵢ:
//
//	cov[i][j]     = Σxᵢxⱼ - mᵢ·sⱼ - mⱼ·sᵢ + n·mᵢ·mⱼ
//	constraint[i] = Σxᵢy - mᵢ·Σy - ȳ·sᵢ + n·mᵢ·ȳ
//
// The function is pure; stats is not modified. An empty accumulator yields an
// all-zero equation.
//
// Parameters:
//   - stats: Accumulated moment sums
//
// Returns:
//   - DerivationEquation: Lower-triangular covariance matrix and constraint vector
func BuildEquation(stats *sampling.SufficientStats) DerivationEquation {
	n := stats.FeaturesCount()
	count := float64(stats.Count())
	means := stats.FeatureMeans()
	sums := stats.FeatureSums()
	responseSum := stats.ResponseSum()
	responseMean := stats.ResponseMean()
	responseProducts := stats.FeatureResponseSums()

	eq := DerivationEquation{
		Covariance:  make([][]float64, n),
		Constraints: make([]float64, n),
	}

	for i := range n {
		row := make([]float64, i+1)
		for j := 0; j <= i; j++ {
			row[j] = stats.CrossSum(i, j) -
				means[i]*sums[j] -
				means[j]*sums[i] +
				count*means[i]*means[j]
		}
		eq.Covariance[i] = row

		eq.Constraints[i] = responseProducts[i] -
			means[i]*responseSum -
			responseMean*sums[i] +
			count*means[i]*responseMean
	}

	return eq
}

// FeaturesCount returns the dimension of the equation system.
func (eq DerivationEquation) FeaturesCount() int {
	return len(eq.Constraints)
}

// At returns the covariance entry (i, j). The lookup is symmetric.
func (eq DerivationEquation) At(i, j int) float64 {
	if j > i {
		i, j = j, i
	}

	return eq.Covariance[i][j]
}
