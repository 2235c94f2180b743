package risk

import (
	"fmt"
	"math"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const diagonalEpsilon = 1e-8

// meanVector calculates the per-instrument mean daily return.
func meanVector(m *returns.Matrix) []float64 {
	mu := make([]float64, m.NumInstruments())
	for i := range mu {
		mu[i] = stat.Mean(m.Column(i), nil)
	}
	return mu
}

// sampleCovariance calculates the sample covariance matrix (N-1 denominator)
// of the aligned return columns.
func sampleCovariance(m *returns.Matrix) ([][]float64, error) {
	n := m.NumInstruments()
	if n == 0 {
		return nil, fmt.Errorf("%w: empty return matrix", domain.ErrInsufficientData)
	}
	if m.NumDays() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", domain.ErrInsufficientData, m.NumDays())
	}

	cols := make([][]float64, n)
	for i := 0; i < n; i++ {
		cols[i] = m.Column(i)
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(cols[i], cols[j], nil)
			cov[i][j] = c
			if i != j {
				cov[j][i] = c
			}
		}
	}
	return cov, nil
}

// isPositiveDefinite tests a symmetric matrix with a Cholesky decomposition.
func isPositiveDefinite(cov [][]float64) bool {
	var chol mat.Cholesky
	return chol.Factorize(toSym(cov))
}

// repairCovariance makes the covariance matrix safe for multivariate
// sampling. An already positive-definite matrix is returned unchanged.
// Otherwise the diagonal is shifted by -2x the minimum eigenvalue when that
// eigenvalue is negative (guaranteeing positive semi-definiteness), or by a
// small epsilon for numerical stability. Short or degenerate samples make
// this repair mandatory: unrepaired matrices fail the sampler
// non-deterministically.
func repairCovariance(cov [][]float64) ([][]float64, bool, error) {
	if isPositiveDefinite(cov) {
		return cov, false, nil
	}

	n := len(cov)

	var eig mat.EigenSym
	if !eig.Factorize(toSym(cov), false) {
		return nil, false, fmt.Errorf("%w: eigenvalue decomposition failed", domain.ErrNumericalInstability)
	}

	minEig := math.Inf(1)
	for _, v := range eig.Values(nil) {
		if v < minEig {
			minEig = v
		}
	}

	shift := diagonalEpsilon
	if minEig < 0 {
		shift = -2 * minEig
	}

	repaired := make([][]float64, n)
	for i := range cov {
		repaired[i] = make([]float64, n)
		copy(repaired[i], cov[i])
		repaired[i][i] += shift
	}

	if !isPositiveDefinite(repaired) {
		// Shifted to the positive semi-definite boundary; nudge off it.
		for i := range repaired {
			repaired[i][i] += diagonalEpsilon
		}
		if !isPositiveDefinite(repaired) {
			return nil, false, fmt.Errorf("%w: covariance matrix could not be repaired", domain.ErrNumericalInstability)
		}
	}

	return repaired, true, nil
}

// highCorrelations extracts instrument pairs whose correlation exceeds the
// threshold (absolute value).
func highCorrelations(cov [][]float64, symbols []string, threshold float64) []CorrelationPair {
	pairs := make([]CorrelationPair, 0)
	for i := 0; i < len(cov); i++ {
		for j := i + 1; j < len(cov); j++ {
			if cov[i][i] <= 0 || cov[j][j] <= 0 {
				continue
			}
			corr := cov[i][j] / math.Sqrt(cov[i][i]*cov[j][j])
			if math.Abs(corr) >= threshold {
				pairs = append(pairs, CorrelationPair{
					Symbol1:     symbols[i],
					Symbol2:     symbols[j],
					Correlation: corr,
				})
			}
		}
	}
	return pairs
}

func toSym(cov [][]float64) *mat.SymDense {
	n := len(cov)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov[i][j])
		}
	}
	return sym
}
