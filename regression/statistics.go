package regression

import (
	"fmt"

	"github.com/arloliu/linreg/sampling"
)

// Statistics describes the goodness of fit of a model over the data it was fitted on.
//
// Fields:
//   - RSS: Residual sum of squares Σ(y - ŷ)²
//   - MSE: Mean squared error, RSS / count
//   - R2: Coefficient of determination, 1 - RSS / TSS
type Statistics struct {
	RSS float64
	MSE float64
	R2  float64
}

// String returns a string representation of the statistics.
func (s *Statistics) String() string {
	return fmt.Sprintf("Statistics{RSS: %.6g, MSE: %.6g, R²: %.6f}", s.RSS, s.MSE, s.R2)
}

// CalculateStatistics derives fit statistics from the moment sums without
// revisiting observations.
//
// The residual sum of squares follows from the centered sums:
//
//	RSS = Syy - 2·Σ βᵢ·cᵢ + Σᵢ Σⱼ βᵢ·βⱼ·covᵢⱼ
//
// where Syy = Σy² - Σy·ȳ and cᵢ are the equation constraints. The intercept
// cancels out of the centered form and is not needed.
//
// When no observation was sampled, MSE and R2 are 0. When the response is
// constant (TSS == 0), R2 is 0.
//
// Parameters:
//   - stats: Accumulated moment sums the model was fitted on
//   - coefficients: Slope coefficients of the fitted model
//   - eq: Normal equations built from stats
//
// Returns:
//   - Statistics: RSS, MSE and R²
func CalculateStatistics(stats *sampling.SufficientStats, coefficients SlopeCoefficients, eq DerivationEquation) Statistics {
	if stats.Count() == 0 {
		return Statistics{}
	}

	tss := stats.ResponseVariance()

	rss := tss
	for i, ci := range coefficients {
		rss -= 2 * ci * eq.Constraints[i]
		for j := 0; j <= i; j++ {
			if i == j {
				rss += ci * ci * eq.Covariance[i][i]
			} else {
				rss += 2 * ci * coefficients[j] * eq.Covariance[i][j]
			}
		}
	}

	count := float64(stats.Count())
	st := Statistics{
		RSS: rss,
		MSE: rss / count,
	}
	if tss != 0 {
		st.R2 = 1 - rss/tss
	}

	return st
}
