package regression

// CalculateIntercept returns the intercept of the fitted hyperplane:
//
//	intercept = ȳ - Σ βᵢ·mᵢ
//
// coefficients and featureMeans must have the same length.
func CalculateIntercept(coefficients SlopeCoefficients, featureMeans []float64, responseMean float64) float64 {
	intercept := responseMean
	for i, c := range coefficients {
		intercept -= c * featureMeans[i]
	}

	return intercept
}
