package pipeline

import (
	"errors"
	"math"
	"sort"

	"sentivol/internal/domain"
)

const volatilityWindow = 7

// ErrNoSamples is returned when a gap fill has no defined values to
// average. Surfacing it keeps a thin window from silently producing
// sentinel feature values.
var ErrNoSamples = errors.New("no samples available to fill column")

// Enrich derives arithmetic returns (r_t = p_t/p_{t-1} - 1) and a
// trailing 7-point rolling standard deviation of returns annualized by
// sqrt(365). Positions where the window is too short are backfilled
// with the column's own mean over the fetched series.
func Enrich(points []domain.MarketPoint) ([]domain.EnrichedMarketPoint, error) {
	sorted := make([]domain.MarketPoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	returns := make([]float64, len(sorted))
	for i := range sorted {
		if i == 0 || sorted[i-1].Price == 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = sorted[i].Price/sorted[i-1].Price - 1
	}

	vols := make([]float64, len(sorted))
	for i := range sorted {
		vols[i] = rollingStd(returns, i, volatilityWindow) * math.Sqrt(365)
	}

	if err := fillMean(returns); err != nil {
		return nil, err
	}
	if err := fillMean(vols); err != nil {
		return nil, err
	}

	out := make([]domain.EnrichedMarketPoint, len(sorted))
	for i := range sorted {
		out[i] = domain.EnrichedMarketPoint{
			MarketPoint: sorted[i],
			Returns:     returns[i],
			Volatility:  vols[i],
		}
	}
	return out, nil
}

// rollingStd is the sample standard deviation of the window ending at
// idx. NaN when the window is incomplete or contains an undefined value.
func rollingStd(values []float64, idx, window int) float64 {
	if idx-window+1 < 0 {
		return math.NaN()
	}
	win := values[idx-window+1 : idx+1]
	mean := 0.0
	for _, v := range win {
		if math.IsNaN(v) {
			return math.NaN()
		}
		mean += v
	}
	mean /= float64(window)
	ss := 0.0
	for _, v := range win {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(window-1))
}

// fillMean replaces NaN entries in place with the mean of the defined
// entries. An all-NaN column is a data-quality error, not a zero.
func fillMean(values []float64) error {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return ErrNoSamples
	}
	mean := sum / float64(n)
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = mean
		}
	}
	return nil
}

// fillMedian is fillMean's counterpart for the comment-count column.
func fillMedian(values []float64) error {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return ErrNoSamples
	}
	sort.Float64s(defined)
	mid := len(defined) / 2
	median := defined[mid]
	if len(defined)%2 == 0 {
		median = (defined[mid-1] + defined[mid]) / 2
	}
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = median
		}
	}
	return nil
}
