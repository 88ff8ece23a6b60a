package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData is returned when a series is too short to fit.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFit is returned when the optimiser cannot produce a usable model.
	ErrFit = errors.New("model fit failed")
)

// Fit is the outcome of fitting a model to a daily series.
type Fit struct {
	Fitted    []float64
	Residuals []float64
	// Forecast is the one-step-ahead prediction of the next day's consumption.
	Forecast float64
}

// Volatility is the sample standard deviation of the residuals, or 0 when
// there are fewer than two.
func (f Fit) Volatility() float64 {
	if len(f.Residuals) < 2 {
		return 0
	}
	return stat.StdDev(f.Residuals, nil)
}

// FitLinear fits y = alpha + beta*dayIndex by least squares.
func FitLinear(s *DailySeries) (Fit, error) {
	if s.Len() < 2 {
		return Fit{}, fmt.Errorf("%s: %w", s.Item, ErrInsufficientData)
	}
	x := s.DayIndex()
	alpha, beta := stat.LinearRegression(x, s.Values, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Fit{}, fmt.Errorf("%s: linear: %w", s.Item, ErrFit)
	}

	fit := Fit{
		Fitted:    make([]float64, len(x)),
		Residuals: make([]float64, len(x)),
	}
	for i, xi := range x {
		fit.Fitted[i] = alpha + beta*xi
		fit.Residuals[i] = s.Values[i] - fit.Fitted[i]
	}
	fit.Forecast = alpha + beta*(x[len(x)-1]+1)
	return fit, nil
}

// FitARIMA fits an ARIMA(1,1,1) model with drift to the gap-filled series by
// conditional sum of squares:
//
//	d[t] = c + phi*d[t-1] + theta*e[t-1] + e[t],  d[t] = y[t] - y[t-1]
//
// Fitted and Residuals are aligned with the differenced series, which is one
// shorter than the input.
func FitARIMA(s *DailySeries) (Fit, error) {
	y := s.Filled()
	if len(y) < 3 {
		return Fit{}, fmt.Errorf("%s: %w", s.Item, ErrInsufficientData)
	}
	d := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		d[i-1] = y[i] - y[i-1]
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			if math.Abs(p[1]) >= 1 || math.Abs(p[2]) >= 1 {
				return math.Inf(1)
			}
			_, e := armaFilter(d, p[0], p[1], p[2])
			var sse float64
			for _, v := range e {
				sse += v * v
			}
			return sse
		},
	}
	res, err := optimize.Minimize(problem, []float64{stat.Mean(d, nil), 0.1, 0.1}, nil, &optimize.NelderMead{})
	if err != nil && res == nil {
		return Fit{}, fmt.Errorf("%s: arima: %w: %v", s.Item, ErrFit, err)
	}
	if res == nil || math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return Fit{}, fmt.Errorf("%s: arima: %w", s.Item, ErrFit)
	}
	c, phi, theta := res.X[0], res.X[1], res.X[2]

	dhat, e := armaFilter(d, c, phi, theta)
	fit := Fit{
		Fitted:    make([]float64, len(d)),
		Residuals: e,
	}
	for i := range d {
		fit.Fitted[i] = y[i] + dhat[i]
	}
	last := len(d) - 1
	fit.Forecast = y[len(y)-1] + c + phi*d[last] + theta*e[last]
	return fit, nil
}

// armaFilter returns the one-step predictions and innovations of an ARMA(1,1)
// with constant, conditioning on d[-1] = e[-1] = 0.
func armaFilter(d []float64, c, phi, theta float64) (pred, e []float64) {
	pred = make([]float64, len(d))
	e = make([]float64, len(d))
	var prevD, prevE float64
	for t, v := range d {
		pred[t] = c + phi*prevD + theta*prevE
		e[t] = v - pred[t]
		prevD, prevE = v, e[t]
	}
	return pred, e
}

// Threshold returns mean + sigma*stddev of the last window values, raised to
// floor when that is larger. With fewer than two values in the window only
// the floor applies.
func Threshold(values []float64, window int, sigma, floor float64) float64 {
	if window <= 0 || window > len(values) {
		window = len(values)
	}
	tail := values[len(values)-window:]
	if len(tail) < 2 {
		return floor
	}
	mean, std := stat.MeanStdDev(tail, nil)
	return math.Max(mean+sigma*std, floor)
}
