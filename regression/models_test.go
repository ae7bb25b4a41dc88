package regression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/linreg/sampling"
)

// knownModel is a dataset with reference results. Each row holds the features
// followed by the response.
type knownModel struct {
	name         string
	rows         [][]float64
	coefficients []float64
	intercept    float64
	rss          float64
	r2           float64
}

var (
	simpleModel = knownModel{
		name: "simple",
		rows: [][]float64{
			{-2, 5}, {1, 3}, {4, 1}, {3, 0}, {2, 0}, {0, 2}, {5, -1},
		},
		coefficients: []float64{-0.762295082},
		intercept:    2.844262295,
		rss:          5.459016393,
		r2:           0.787704918,
	}

	twoFeatureModel = knownModel{
		name: "two features",
		rows: [][]float64{
			{-2, 3, 5}, {1, 1, 3}, {4, 2, 1}, {3, 0, 0}, {2, -2, 0}, {0, 0, 2}, {5, -5, -1},
		},
		coefficients: []float64{-0.5496314882, 0.3070409283},
		rss:          2.99513878,
		r2:           0.8835223808,
	}

	threeFeatureModel = knownModel{
		name: "three features",
		rows: [][]float64{
			{4, -2, 3, 5}, {7, 1, 1, 3}, {2, 4, 2, 1}, {-5, 3, 0, 0}, {5, 2, -2, 0}, {20, 0, 0, 2}, {-9, 5, -5, -1},
		},
		coefficients: []float64{-0.03116979852, -0.6272993725, 0.3079647314},
		rss:          2.705920002,
		r2:           0.8947697777,
	}

	// NIST StRD Longley reference dataset.
	longleyModel = knownModel{
		name: "longley",
		rows: [][]float64{
			{83.0, 234289, 2356, 1590, 107608, 1947, 60323},
			{88.5, 259426, 2325, 1456, 108632, 1948, 61122},
			{88.2, 258054, 3682, 1616, 109773, 1949, 60171},
			{89.5, 284599, 3351, 1650, 110929, 1950, 61187},
			{96.2, 328975, 2099, 3099, 112075, 1951, 63221},
			{98.1, 346999, 1932, 3594, 113270, 1952, 63639},
			{99.0, 365385, 1870, 3547, 115094, 1953, 64989},
			{100.0, 363112, 3578, 3350, 116219, 1954, 63761},
			{101.2, 397469, 2904, 3048, 117388, 1955, 66019},
			{104.6, 419180, 2822, 2857, 118734, 1956, 67857},
			{108.4, 442769, 2936, 2798, 120445, 1957, 68169},
			{110.8, 444546, 4681, 2637, 121950, 1958, 66513},
			{112.6, 482704, 3813, 2552, 123366, 1959, 68655},
			{114.2, 502601, 3931, 2514, 125368, 1960, 69564},
			{115.7, 518173, 4806, 2572, 127852, 1961, 69331},
			{116.9, 554894, 4007, 2827, 130081, 1962, 70551},
		},
		coefficients: []float64{
			15.0618722713733, -0.0358191792925910, -2.02022980381683,
			-1.03322686717359, -0.0511041056535807, 1829.15146461355,
		},
		intercept: -3482258.63459582,
		rss:       836424.055505915,
		r2:        0.995479004577296,
	}

	knownModels = []knownModel{simpleModel, twoFeatureModel, threeFeatureModel, longleyModel}
)

func (m knownModel) featuresCount() int {
	return len(m.rows[0]) - 1
}

func (m knownModel) count() int {
	return len(m.rows)
}

// accumulate samples every row into one accumulator.
func (m knownModel) accumulate(t testing.TB) *sampling.SufficientStats {
	t.Helper()

	return m.merged(t, 1)
}

// partials distributes the rows round-robin over n accumulators.
func (m knownModel) partials(t testing.TB, n int) []*sampling.SufficientStats {
	t.Helper()

	parts := make([]*sampling.SufficientStats, n)
	for i := range parts {
		s, err := sampling.New(m.featuresCount())
		require.NoError(t, err)
		parts[i] = s
	}
	k := m.featuresCount()
	for i, row := range m.rows {
		require.NoError(t, parts[i%n].Sample(row[:k], row[k]))
	}

	return parts
}

// merged distributes the rows over n accumulators and merges them.
func (m knownModel) merged(t testing.TB, n int) *sampling.SufficientStats {
	t.Helper()

	parts := m.partials(t, n)
	for _, p := range parts[1:] {
		require.NoError(t, parts[0].Merge(p))
	}

	return parts[0]
}

// requireCoefficientsRelative compares against reference coefficients with a
// relative tolerance, so small coefficients are held to the same precision as
// large ones.
func requireCoefficientsRelative(t *testing.T, expected, actual []float64, epsilon float64) {
	t.Helper()

	require.Len(t, actual, len(expected))
	for i := range expected {
		require.InEpsilon(t, expected[i], actual[i], epsilon, "coefficient %d", i)
	}
}

func requireCoefficients(t *testing.T, expected, actual []float64, delta float64) {
	t.Helper()

	require.Len(t, actual, len(expected))
	for i := range expected {
		require.InDelta(t, expected[i], actual[i], delta, "coefficient %d", i)
	}
}
