package risk

// Request holds the parameters for one risk analysis call.
// Zero values are replaced by the canonical defaults in DefaultRequest.
type Request struct {
	Investment   float64 `json:"initial_investment"`
	Simulations  int     `json:"num_simulations"`
	HorizonDays  int     `json:"time_horizon_days"`
	RiskFreeRate float64 `json:"risk_free_rate"`
}

// DefaultRequest returns the canonical analysis defaults. All API call sites
// share these; anything else must be an explicit override.
func DefaultRequest() Request {
	return Request{
		Investment:   10000,
		Simulations:  10000,
		HorizonDays:  252,
		RiskFreeRate: 0.02,
	}
}

// applyDefaults fills unset fields from DefaultRequest.
func (r Request) applyDefaults() Request {
	def := DefaultRequest()
	if r.Investment == 0 {
		r.Investment = def.Investment
	}
	if r.Simulations <= 0 {
		r.Simulations = def.Simulations
	}
	if r.HorizonDays <= 0 {
		r.HorizonDays = def.HorizonDays
	}
	if r.RiskFreeRate == 0 {
		r.RiskFreeRate = def.RiskFreeRate
	}
	return r
}

// PortfolioInfo describes the final (possibly reduced) composition the
// analysis actually ran on.
type PortfolioInfo struct {
	Symbols           []string  `json:"symbols"`
	Weights           []float64 `json:"weights"`
	InitialInvestment float64   `json:"initial_investment"`
	HorizonDays       int       `json:"time_horizon_days"`
}

// Metrics holds the headline risk numbers.
type Metrics struct {
	VaR95       float64 `json:"var_95"`
	VaR99       float64 `json:"var_99"`
	CVaR95      float64 `json:"cvar_95"`
	CVaR99      float64 `json:"cvar_99"`
	SharpeRatio float64 `json:"sharpe_ratio"`
}

// Statistics holds descriptive statistics of the simulated terminal values.
type Statistics struct {
	ExpectedValue     float64 `json:"expected_value"`
	MedianValue       float64 `json:"median_value"`
	StdDeviation      float64 `json:"std_deviation"`
	MinValue          float64 `json:"min_value"`
	MaxValue          float64 `json:"max_value"`
	ExpectedReturnPct float64 `json:"expected_return_pct"`
}

// Percentiles is the standard percentile ladder of terminal values.
type Percentiles struct {
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Distribution is a histogram of the simulated terminal values.
type Distribution struct {
	BinEdges    []float64 `json:"bins"`
	Frequencies []int     `json:"frequencies"`
}

// CorrelationPair flags two instruments whose return correlation exceeds the
// reporting threshold.
type CorrelationPair struct {
	Symbol1     string  `json:"symbol_1"`
	Symbol2     string  `json:"symbol_2"`
	Correlation float64 `json:"correlation"`
}

// Report is the full output of one Monte Carlo risk analysis.
type Report struct {
	AnalysisID       string            `json:"analysis_id"`
	Portfolio        PortfolioInfo     `json:"portfolio_info"`
	Metrics          Metrics           `json:"risk_metrics"`
	Statistics       Statistics        `json:"portfolio_statistics"`
	Percentiles      Percentiles       `json:"percentiles"`
	Distribution     Distribution      `json:"distribution"`
	HighCorrelations []CorrelationPair `json:"high_correlations"`
	NumSimulations   int               `json:"num_simulations"`
	CovarianceFixed  bool              `json:"covariance_repaired"`
}
