package additive

import (
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// epochDays returns fractional days since the Unix epoch
func epochDays(t time.Time) float64 {
	return float64(t.Unix()) / secondsPerDay
}

// changepointTimes places up to n changepoints at evenly spaced history
// indices within the first rangeFrac of the history, in scaled time.
func changepointTimes(scaled []float64, n int, rangeFrac float64) []float64 {
	histSize := int(math.Floor(float64(len(scaled)) * rangeFrac))
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		return nil
	}

	cps := make([]float64, 0, n)
	last := float64(histSize - 1)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(last * float64(i) / float64(n)))
		cps = append(cps, scaled[idx])
	}
	return cps
}

// row fills one design-matrix row: intercept, slope, changepoint hinges and
// sin/cos pairs for every seasonality.
func (m *Model) row(dst []float64, t time.Time, fit *Fit) {
	ts := fit.scaleTime(t)
	dst[0] = 1
	dst[1] = ts
	col := 2
	for _, cp := range fit.changepoints {
		dst[col] = math.Max(0, ts-cp)
		col++
	}

	d := epochDays(t)
	for _, s := range m.config.Seasonalities {
		for k := 1; k <= s.FourierOrder; k++ {
			arg := 2 * math.Pi * float64(k) * d / s.Period
			dst[col] = math.Sin(arg)
			dst[col+1] = math.Cos(arg)
			col += 2
		}
	}
}

// penalties returns the ridge penalty per column, 1/τ² for each prior scale τ
func (m *Model) penalties(nChangepoints int) []float64 {
	p := make([]float64, 0, 2+nChangepoints+m.config.featureCount())
	trend := 1 / (m.config.TrendPriorScale * m.config.TrendPriorScale)
	p = append(p, trend, trend)

	cp := 1 / (m.config.ChangepointPriorScale * m.config.ChangepointPriorScale)
	for i := 0; i < nChangepoints; i++ {
		p = append(p, cp)
	}

	for _, s := range m.config.Seasonalities {
		pen := 1 / (s.PriorScale * s.PriorScale)
		for k := 0; k < 2*s.FourierOrder; k++ {
			p = append(p, pen)
		}
	}
	return p
}

// FutureDates returns history followed by horizon daily dates after the last one
func FutureDates(history []time.Time, horizon int) []time.Time {
	dates := make([]time.Time, 0, len(history)+horizon)
	dates = append(dates, history...)
	if len(history) == 0 {
		return dates
	}
	last := history[len(history)-1]
	for i := 1; i <= horizon; i++ {
		dates = append(dates, last.AddDate(0, 0, i))
	}
	return dates
}
