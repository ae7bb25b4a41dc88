package sampling

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/linreg/errs"
)

// longley rows: six features followed by the response.
var longley = [][]float64{
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
}

func sampleRows(t testing.TB, s *SufficientStats, rows [][]float64) {
	t.Helper()

	for _, row := range rows {
		n := len(row) - 1
		require.NoError(t, s.Sample(row[:n], row[n]))
	}
}

// partition distributes rows round-robin over n accumulators.
func partition(t testing.TB, rows [][]float64, n int) []*SufficientStats {
	t.Helper()

	parts := make([]*SufficientStats, n)
	for i := range parts {
		s, err := New(len(rows[0]) - 1)
		require.NoError(t, err)
		parts[i] = s
	}
	for i, row := range rows {
		sampleRows(t, parts[i%n], [][]float64{row})
	}

	return parts
}

func TestNew(t *testing.T) {
	require := require.New(t)

	s, err := New(3)
	require.NoError(err)
	require.Equal(3, s.FeaturesCount())
	require.Zero(s.Count())
	require.Len(s.FeatureSums(), 3)
	require.Len(s.FeatureResponseSums(), 3)
	require.Len(s.crossSums, 6)

	for _, n := range []int{0, -1, MaxFeaturesCount + 1} {
		_, err = New(n)
		require.Error(err)
		require.True(errors.Is(err, errs.ErrInvalidArgument))
	}
}

func TestSample(t *testing.T) {
	require := require.New(t)

	s, err := New(2)
	require.NoError(err)
	require.NoError(s.Sample([]float64{1, 2}, 3))
	require.NoError(s.Sample([]float64{4, 5}, 6))

	require.Equal(uint64(2), s.Count())
	require.Equal([]float64{5, 7}, s.FeatureSums())
	require.Equal(17.0, s.CrossSum(0, 0))
	require.Equal(22.0, s.CrossSum(1, 0))
	require.Equal(22.0, s.CrossSum(0, 1))
	require.Equal(29.0, s.CrossSum(1, 1))
	require.Equal([]float64{27, 36}, s.FeatureResponseSums())
	require.Equal(9.0, s.ResponseSum())
	require.Equal(45.0, s.ResponseSquareSum())
	require.Equal([]float64{2.5, 3.5}, s.FeatureMeans())
	require.Equal(4.5, s.ResponseMean())
	require.InDelta(4.5, s.ResponseVariance(), 1e-12)
}

func TestSample_WrongWidth(t *testing.T) {
	require := require.New(t)

	s, err := New(2)
	require.NoError(err)

	err = s.Sample([]float64{1}, 3)
	require.True(errors.Is(err, errs.ErrInvalidArgument))
	require.Zero(s.Count(), "rejected observation must not be folded in")
	require.Equal([]float64{0, 0}, s.FeatureSums())
}

func TestEmptyMeans(t *testing.T) {
	require := require.New(t)

	s, err := New(4)
	require.NoError(err)
	require.Equal([]float64{0, 0, 0, 0}, s.FeatureMeans())
	require.Zero(s.ResponseMean())
	require.Zero(s.ResponseVariance())
}

func TestMerge_MatchesSingleAccumulator(t *testing.T) {
	whole, err := New(6)
	require.NoError(t, err)
	sampleRows(t, whole, longley)

	for _, buckets := range []int{1, 2, 3, 5, 16, 20} {
		parts := partition(t, longley, buckets)

		merged, err := New(6)
		require.NoError(t, err)
		for _, p := range parts {
			require.NoError(t, merged.Merge(p))
		}

		require.Equal(t, whole.Count(), merged.Count(), "buckets=%d", buckets)
		require.True(t, whole.Equal(merged, 1e-12), "buckets=%d", buckets)
	}
}

func TestMerge_CommutativeAndAssociative(t *testing.T) {
	require := require.New(t)

	parts := partition(t, longley, 3)
	a, b, c := parts[0], parts[1], parts[2]

	// (a+b)+c
	left := a.Clone()
	require.NoError(left.Merge(b))
	require.NoError(left.Merge(c))

	// a+(b+c)
	bc := b.Clone()
	require.NoError(bc.Merge(c))
	right := a.Clone()
	require.NoError(right.Merge(bc))

	// c+b+a
	reversed := c.Clone()
	require.NoError(reversed.Merge(b))
	require.NoError(reversed.Merge(a))

	require.True(left.Equal(right, 1e-12))
	require.True(left.Equal(reversed, 1e-12))
}

// randomRows returns non-integer observations whose sums are not exact in float64.
// Values are kept positive so every sum is far from zero.
func randomRows(rng *rand.Rand, n, featuresCount int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, featuresCount+1)
		y := 1.5
		for j := range featuresCount {
			row[j] = 5 + rng.Float64()*10
			y += float64(j+1) * 0.37 * row[j]
		}
		row[featuresCount] = y + rng.Float64()
		rows[i] = row
	}

	return rows
}

func TestMerge_RandomPartitionsNonInteger(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	rows := randomRows(rng, 1000, 3)

	whole, err := New(3)
	require.NoError(t, err)
	sampleRows(t, whole, rows)

	for _, k := range []int{2, 5, 13} {
		parts := make([]*SufficientStats, k)
		for i := range parts {
			parts[i], err = New(3)
			require.NoError(t, err)
		}
		for _, row := range rows {
			sampleRows(t, parts[rng.IntN(k)], [][]float64{row})
		}

		// chain merge in a shuffled order
		chain, err := New(3)
		require.NoError(t, err)
		for _, i := range rng.Perm(k) {
			require.NoError(t, chain.Merge(parts[i]))
		}
		require.Equal(t, whole.Count(), chain.Count(), "k=%d", k)
		require.True(t, whole.Equal(chain, 1e-9), "chain merge, k=%d", k)

		// pairwise tree merge
		level := make([]*SufficientStats, k)
		for i, p := range parts {
			level[i] = p.Clone()
		}
		for len(level) > 1 {
			var next []*SufficientStats
			for i := 0; i+1 < len(level); i += 2 {
				require.NoError(t, level[i].Merge(level[i+1]))
				next = append(next, level[i])
			}
			if len(level)%2 == 1 {
				next = append(next, level[len(level)-1])
			}
			level = next
		}
		require.True(t, whole.Equal(level[0], 1e-9), "tree merge, k=%d", k)
		require.True(t, chain.Equal(level[0], 1e-9), "chain and tree, k=%d", k)
	}
}

func TestMerge_EmptyAndNil(t *testing.T) {
	require := require.New(t)

	s, err := New(2)
	require.NoError(err)
	require.NoError(s.Sample([]float64{1, 2}, 3))
	before := s.Clone()

	require.NoError(s.Merge(nil))
	require.True(s.Equal(before, 0))

	empty, err := New(2)
	require.NoError(err)
	require.NoError(s.Merge(empty))
	require.True(s.Equal(before, 0))

	// merging into an empty accumulator copies the other side
	require.NoError(empty.Merge(s))
	require.True(empty.Equal(before, 0))
}

func TestMerge_WidthMismatch(t *testing.T) {
	require := require.New(t)

	a, err := New(2)
	require.NoError(err)
	b, err := New(3)
	require.NoError(err)
	require.NoError(b.Sample([]float64{1, 2, 3}, 4))

	err = a.Merge(b)
	require.True(errors.Is(err, errs.ErrInvalidArgument))
	require.Zero(a.Count())
}

func TestMerge_DoesNotModifySource(t *testing.T) {
	require := require.New(t)

	parts := partition(t, longley, 2)
	src := parts[1].Clone()

	require.NoError(parts[0].Merge(parts[1]))
	require.True(parts[1].Equal(src, 0))
}

func TestCloneAndReset(t *testing.T) {
	require := require.New(t)

	s, err := New(2)
	require.NoError(err)
	require.NoError(s.Sample([]float64{1, 2}, 3))

	c := s.Clone()
	require.True(c.Equal(s, 0))

	s.Reset()
	require.Zero(s.Count())
	require.Equal([]float64{0, 0}, s.FeatureSums())
	require.Zero(s.CrossSum(1, 1))
	require.Zero(s.ResponseSquareSum())

	require.Equal(uint64(1), c.Count(), "clone must not share storage")
	require.Equal(4.0, c.CrossSum(1, 1))
}

func TestEqual(t *testing.T) {
	require := require.New(t)

	a, err := New(1)
	require.NoError(err)
	b, err := New(1)
	require.NoError(err)
	require.True(a.Equal(b, 0))

	require.NoError(a.Sample([]float64{1}, 1))
	require.False(a.Equal(b, 0))

	require.NoError(b.Sample([]float64{1 + 1e-14}, 1))
	require.False(a.Equal(b, 0))
	require.True(a.Equal(b, 1e-12))

	var nilStats *SufficientStats
	require.False(a.Equal(nil, 0))
	require.True(nilStats.Equal(nil, 0))
}

func TestString(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	require.NoError(t, s.Sample([]float64{2}, 3))
	require.Contains(t, s.String(), "Count: 1")
}

func BenchmarkSample(b *testing.B) {
	s, err := New(6)
	require.NoError(b, err)
	row := longley[0]

	b.ReportAllocs()
	for b.Loop() {
		_ = s.Sample(row[:6], row[6])
	}
}

func BenchmarkMerge(b *testing.B) {
	parts := partition(b, longley, 2)
	dst := parts[0]

	b.ReportAllocs()
	for b.Loop() {
		_ = dst.Merge(parts[1])
	}
}
