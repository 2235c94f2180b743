package returns

// Matrix is an aligned table of daily fractional returns.
// Rows are trading days (oldest first), columns are instruments. Weights are
// parallel to Symbols and always sum to 1.0 after construction.
type Matrix struct {
	Symbols []string
	Weights []float64
	Returns [][]float64
}

// NumDays returns the number of return observations (rows).
func (m *Matrix) NumDays() int {
	return len(m.Returns)
}

// NumInstruments returns the number of instrument columns.
func (m *Matrix) NumInstruments() int {
	return len(m.Symbols)
}

// Column extracts one instrument's return series.
func (m *Matrix) Column(i int) []float64 {
	col := make([]float64, len(m.Returns))
	for t, row := range m.Returns {
		col[t] = row[i]
	}
	return col
}

// PortfolioReturns computes the weighted daily portfolio return series.
func (m *Matrix) PortfolioReturns() []float64 {
	out := make([]float64, len(m.Returns))
	for t, row := range m.Returns {
		sum := 0.0
		for i, r := range row {
			sum += m.Weights[i] * r
		}
		out[t] = sum
	}
	return out
}

// WeightMap returns the final weights keyed by symbol.
func (m *Matrix) WeightMap() map[string]float64 {
	out := make(map[string]float64, len(m.Symbols))
	for i, sym := range m.Symbols {
		out[sym] = m.Weights[i]
	}
	return out
}
