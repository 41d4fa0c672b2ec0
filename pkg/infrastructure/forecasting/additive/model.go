// Package additive implements an additive time-series model: a piecewise
// linear trend plus Fourier seasonalities fitted by penalized least squares.
// Fitting is deterministic, so identical input yields identical estimates.
package additive

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vsinha/stockcast/pkg/domain/entities"
	"github.com/vsinha/stockcast/pkg/domain/services"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrInsufficientData is returned for series with fewer than two points
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFitFailed is returned when the model cannot be estimated
	ErrFitFailed = errors.New("fit failed")
)

// Model fits one additive model per series
type Model struct {
	config Config
}

// NewModel creates a model with the default policy
func NewModel() *Model {
	return NewModelWithConfig(DefaultConfig())
}

// NewModelWithConfig creates a model with a custom policy
func NewModelWithConfig(config Config) *Model {
	return &Model{config: config}
}

// Verify interface compliance
var _ services.Forecaster = (*Model)(nil)

// Fit is an estimated model for one series
type Fit struct {
	start        time.Time
	end          time.Time
	spanDays     float64
	yScale       float64
	n            int
	changepoints []float64
	beta         *mat.VecDense
	sigma        float64
}

// Sigma returns the residual standard deviation in original units
func (f *Fit) Sigma() float64 {
	return f.sigma
}

// Changepoints returns the number of trend changepoints
func (f *Fit) Changepoints() int {
	return len(f.changepoints)
}

func (f *Fit) scaleTime(t time.Time) float64 {
	return t.Sub(f.start).Hours() / 24 / f.spanDays
}

// ctxCheckEvery is how many rows are processed between cancellation checks
const ctxCheckEvery = 256

// Fit estimates the model on a date-ordered, date-unique series
func (m *Model) Fit(series *entities.ItemSeries) (*Fit, error) {
	return m.FitContext(context.Background(), series)
}

// FitContext is Fit with cancellation checked between the build, factorize
// and residual stages and periodically while building the design matrix.
func (m *Model) FitContext(ctx context.Context, series *entities.ItemSeries) (*Fit, error) {
	n := series.Len()
	if n < entities.MinSeriesPoints {
		return nil, fmt.Errorf("%w: %d points", ErrInsufficientData, n)
	}

	dates := series.Dates()
	y := series.Values()
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite observation at %s", ErrFitFailed, dates[i].Format("2006-01-02"))
		}
	}

	fit := &Fit{
		start:    dates[0],
		end:      dates[n-1],
		spanDays: dates[n-1].Sub(dates[0]).Hours() / 24,
		n:        n,
	}
	if fit.spanDays <= 0 {
		return nil, fmt.Errorf("%w: zero time span", ErrFitFailed)
	}

	fit.yScale = floats.Max(absAll(y))
	if fit.yScale == 0 {
		fit.yScale = 1
	}

	scaled := make([]float64, n)
	for i, d := range dates {
		scaled[i] = fit.scaleTime(d)
	}
	fit.changepoints = changepointTimes(scaled, m.config.NChangepoints, m.config.ChangepointRange)

	penalties := m.penalties(len(fit.changepoints))
	p := len(penalties)

	x := mat.NewDense(n, p, nil)
	yv := mat.NewVecDense(n, nil)
	for i, d := range dates {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m.row(x.RawRowView(i), d, fit)
		yv.SetVec(i, y[i]/fit.yScale)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, x.T())
	for i, pen := range penalties {
		gram.SetSym(i, i, gram.At(i, i)+pen)
	}

	var rhs mat.VecDense
	rhs.MulVec(x.T(), yv)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("%w: normal equations are not positive definite", ErrFitFailed)
	}

	fit.beta = mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(fit.beta, &rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitFailed, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fitted mat.VecDense
	fitted.MulVec(x, fit.beta)
	residuals := make([]float64, n)
	for i := range residuals {
		residuals[i] = (yv.AtVec(i) - fitted.AtVec(i)) * fit.yScale
	}
	fit.sigma = floats.Norm(residuals, 2) / math.Sqrt(float64(n))
	if math.IsNaN(fit.sigma) || math.IsInf(fit.sigma, 0) {
		return nil, fmt.Errorf("%w: non-finite residuals", ErrFitFailed)
	}

	return fit, nil
}

// Predict evaluates the fitted model on the given dates. Past the last history
// date the interval widens with the number of steps ahead.
func (m *Model) Predict(fit *Fit, dates []time.Time) ([]entities.ForecastPoint, error) {
	return m.PredictContext(context.Background(), fit, dates)
}

// PredictContext is Predict with periodic cancellation checks
func (m *Model) PredictContext(ctx context.Context, fit *Fit, dates []time.Time) ([]entities.ForecastPoint, error) {
	z := distuv.UnitNormal.Quantile(0.5 + m.config.IntervalWidth/2)

	row := make([]float64, fit.beta.Len())
	rowVec := mat.NewVecDense(len(row), row)
	points := make([]entities.ForecastPoint, len(dates))
	for i, d := range dates {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		m.row(row, d, fit)
		yhat := mat.Dot(rowVec, fit.beta) * fit.yScale
		if math.IsNaN(yhat) || math.IsInf(yhat, 0) {
			return nil, fmt.Errorf("%w: non-finite prediction at %s", ErrFitFailed, d.Format("2006-01-02"))
		}

		width := z * fit.sigma
		if d.After(fit.end) {
			steps := d.Sub(fit.end).Hours() / 24
			width *= math.Sqrt(1 + steps/float64(fit.n))
		}

		points[i] = entities.ForecastPoint{
			Date:      d,
			Yhat:      yhat,
			YhatLower: yhat - width,
			YhatUpper: yhat + width,
		}
	}
	return points, nil
}

// Forecast fits the series and predicts its history plus horizon future days
func (m *Model) Forecast(ctx context.Context, series *entities.ItemSeries, horizon int) ([]entities.ForecastPoint, error) {
	fit, err := m.FitContext(ctx, series)
	if err != nil {
		return nil, err
	}
	return m.PredictContext(ctx, fit, FutureDates(series.Dates(), horizon))
}

func absAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Abs(v)
	}
	return out
}
