package risk

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aetherfin/analytics/internal/domain"
	"github.com/aetherfin/analytics/internal/modules/returns"
	"github.com/aetherfin/analytics/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// Constants for risk engine configuration
const (
	HistogramBins            = 50
	TradingDaysPerYear       = 252
	HighCorrelationThreshold = 0.80
)

// Engine estimates the forward distribution of portfolio value under
// correlated random return draws and derives standard risk metrics.
type Engine struct {
	log zerolog.Logger
	src rand.Source
}

// NewEngine creates a risk engine using the default random source.
func NewEngine(log zerolog.Logger) *Engine {
	return NewEngineWithSource(log, nil)
}

// NewEngineWithSource creates a risk engine with an explicit random source,
// which makes simulations reproducible in tests.
func NewEngineWithSource(log zerolog.Logger, src rand.Source) *Engine {
	return &Engine{
		log: log.With().Str("component", "risk_engine").Logger(),
		src: src,
	}
}

// Analyze runs the complete Monte Carlo risk analysis on an aligned return
// matrix. The covariance repair completes before any sampling begins, and all
// simulated paths complete before the percentile statistics are derived.
func (e *Engine) Analyze(m *returns.Matrix, req Request) (*Report, error) {
	if m == nil || m.NumInstruments() == 0 {
		return nil, fmt.Errorf("%w: no usable return matrix", domain.ErrInsufficientData)
	}
	req = req.applyDefaults()
	if req.Investment <= 0 {
		return nil, fmt.Errorf("initial investment must be positive, got %f", req.Investment)
	}

	e.log.Info().
		Int("instruments", m.NumInstruments()).
		Int("days", m.NumDays()).
		Int("simulations", req.Simulations).
		Int("horizon_days", req.HorizonDays).
		Float64("investment", req.Investment).
		Msg("Starting risk analysis")

	mu := meanVector(m)
	cov, err := sampleCovariance(m)
	if err != nil {
		return nil, err
	}

	cov, repaired, err := repairCovariance(cov)
	if err != nil {
		return nil, err
	}
	if repaired {
		e.log.Warn().Msg("Covariance matrix was not positive-definite and has been repaired")
	}

	terminals := e.simulate(mu, cov, m.Weights, req)

	sharpe := e.historicalSharpe(m, req.RiskFreeRate)

	expected := formulas.Mean(terminals)
	edges, counts := formulas.Histogram(terminals, HistogramBins)

	report := &Report{
		AnalysisID: uuid.New().String(),
		Portfolio: PortfolioInfo{
			Symbols:           m.Symbols,
			Weights:           m.Weights,
			InitialInvestment: req.Investment,
			HorizonDays:       req.HorizonDays,
		},
		Metrics: Metrics{
			VaR95:       formulas.ValueAtRisk(terminals, req.Investment, 0.95),
			VaR99:       formulas.ValueAtRisk(terminals, req.Investment, 0.99),
			CVaR95:      formulas.ConditionalValueAtRisk(terminals, req.Investment, 0.95),
			CVaR99:      formulas.ConditionalValueAtRisk(terminals, req.Investment, 0.99),
			SharpeRatio: sharpe,
		},
		Statistics: Statistics{
			ExpectedValue:     expected,
			MedianValue:       formulas.Median(terminals),
			StdDeviation:      formulas.StdDev(terminals),
			MinValue:          minOf(terminals),
			MaxValue:          maxOf(terminals),
			ExpectedReturnPct: (expected - req.Investment) / req.Investment * 100,
		},
		Percentiles: Percentiles{
			P10: formulas.Percentile(terminals, 10),
			P25: formulas.Percentile(terminals, 25),
			P50: formulas.Percentile(terminals, 50),
			P75: formulas.Percentile(terminals, 75),
			P90: formulas.Percentile(terminals, 90),
		},
		Distribution: Distribution{
			BinEdges:    edges,
			Frequencies: counts,
		},
		HighCorrelations: highCorrelations(cov, m.Symbols, HighCorrelationThreshold),
		NumSimulations:   req.Simulations,
		CovarianceFixed:  repaired,
	}

	e.log.Info().
		Str("analysis_id", report.AnalysisID).
		Float64("var_95", report.Metrics.VaR95).
		Float64("cvar_95", report.Metrics.CVaR95).
		Float64("sharpe", sharpe).
		Msg("Risk analysis complete")

	return report, nil
}

// simulate draws req.Simulations terminal portfolio values. The primary path
// samples correlated returns from a multivariate normal; when that sampler
// cannot be constructed it falls back to independent per-instrument draws.
func (e *Engine) simulate(mu []float64, cov [][]float64, weights []float64, req Request) []float64 {
	n := len(mu)
	terminals := make([]float64, req.Simulations)

	mvn, ok := distmv.NewNormal(mu, toSym(cov), e.src)
	if !ok {
		e.log.Warn().Msg("Multivariate sampler unavailable, falling back to independent draws")
	}

	var indep []distuv.Normal
	if !ok {
		indep = make([]distuv.Normal, n)
		for i := 0; i < n; i++ {
			indep[i] = distuv.Normal{
				Mu:    mu[i],
				Sigma: math.Sqrt(math.Max(cov[i][i], 0)),
				Src:   e.src,
			}
		}
	}

	draw := make([]float64, n)
	for s := 0; s < req.Simulations; s++ {
		growth := 1.0
		for d := 0; d < req.HorizonDays; d++ {
			if ok {
				mvn.Rand(draw)
			} else {
				for i := range indep {
					draw[i] = indep[i].Rand()
				}
			}
			dayReturn := 0.0
			for i, w := range weights {
				dayReturn += w * draw[i]
			}
			growth *= 1 + dayReturn
		}
		terminals[s] = req.Investment * growth
	}

	return terminals
}

// historicalSharpe computes the Sharpe ratio from the historical weighted
// portfolio returns, not from the simulation, annualized over 252 trading
// days. Returns 0.0 when volatility is exactly zero.
func (e *Engine) historicalSharpe(m *returns.Matrix, riskFreeRate float64) float64 {
	portfolio := m.PortfolioReturns()
	annualReturn := formulas.Mean(portfolio) * TradingDaysPerYear
	annualVol := formulas.AnnualizedVolatility(portfolio)
	if annualVol == 0 {
		return 0.0
	}
	return (annualReturn - riskFreeRate) / annualVol
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
