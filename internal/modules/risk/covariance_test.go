package risk

import (
	"math"
	"testing"

	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matrixFromColumns(symbols []string, weights []float64, cols [][]float64) *returns.Matrix {
	numDays := len(cols[0])
	rows := make([][]float64, numDays)
	for t := 0; t < numDays; t++ {
		row := make([]float64, len(cols))
		for i := range cols {
			row[i] = cols[i][t]
		}
		rows[t] = row
	}
	return &returns.Matrix{Symbols: symbols, Weights: weights, Returns: rows}
}

func TestSampleCovariance_SymmetricWithPositiveDiagonal(t *testing.T) {
	m := matrixFromColumns(
		[]string{"A", "B"},
		[]float64{0.5, 0.5},
		[][]float64{
			{0.01, 0.02, -0.01, 0.015, 0.005},
			{0.02, 0.03, -0.02, 0.025, 0.01},
		},
	)

	cov, err := sampleCovariance(m)
	require.NoError(t, err)
	require.Len(t, cov, 2)

	assert.InDelta(t, cov[0][1], cov[1][0], 1e-12, "covariance matrix should be symmetric")
	assert.Greater(t, cov[0][0], 0.0)
	assert.Greater(t, cov[1][1], 0.0)

	// Both columns move together, so the off-diagonal must be positive.
	assert.Greater(t, cov[0][1], 0.0)
}

func TestRepairCovariance_PositiveDefiniteUnchanged(t *testing.T) {
	cov := [][]float64{
		{0.04, 0.01},
		{0.01, 0.03},
	}

	repairedCov, repaired, err := repairCovariance(cov)
	require.NoError(t, err)

	assert.False(t, repaired, "positive-definite matrix must pass through untouched")
	for i := range cov {
		for j := range cov[i] {
			assert.Equal(t, cov[i][j], repairedCov[i][j])
		}
	}
}

func TestRepairCovariance_IndefiniteMatrixBecomesPositiveDefinite(t *testing.T) {
	// Eigenvalues are 3 and -1: not positive definite.
	cov := [][]float64{
		{1, 2},
		{2, 1},
	}

	repairedCov, repaired, err := repairCovariance(cov)
	require.NoError(t, err)

	assert.True(t, repaired)
	assert.True(t, isPositiveDefinite(repairedCov))

	// Off-diagonal entries are untouched; only the diagonal is shifted.
	assert.Equal(t, 2.0, repairedCov[0][1])
	assert.Greater(t, repairedCov[0][0], cov[0][0])
}

func TestRepairCovariance_SingularMatrixGetsEpsilon(t *testing.T) {
	// Rank-1 matrix: minimum eigenvalue is exactly zero.
	cov := [][]float64{
		{0.01, 0.01},
		{0.01, 0.01},
	}

	repairedCov, repaired, err := repairCovariance(cov)
	require.NoError(t, err)

	assert.True(t, repaired)
	assert.True(t, isPositiveDefinite(repairedCov))
}

func TestHighCorrelations(t *testing.T) {
	// corr(A,B) = 0.039 / sqrt(0.04*0.038) ~ 0.9999
	// corr(A,C) = 0.001 / sqrt(0.04*0.02) ~ 0.035
	cov := [][]float64{
		{0.040, 0.039, 0.001},
		{0.039, 0.038, 0.001},
		{0.001, 0.001, 0.020},
	}
	symbols := []string{"A", "B", "C"}

	pairs := highCorrelations(cov, symbols, 0.8)
	require.Len(t, pairs, 1)
	assert.Equal(t, "A", pairs[0].Symbol1)
	assert.Equal(t, "B", pairs[0].Symbol2)
	assert.InDelta(t, 1.0, math.Abs(pairs[0].Correlation), 0.01)
}

func TestMeanVector(t *testing.T) {
	m := matrixFromColumns(
		[]string{"A", "B"},
		[]float64{0.5, 0.5},
		[][]float64{
			{0.01, 0.03},
			{-0.02, 0.04},
		},
	)

	mu := meanVector(m)
	require.Len(t, mu, 2)
	assert.InDelta(t, 0.02, mu[0], 1e-12)
	assert.InDelta(t, 0.01, mu[1], 1e-12)
}
