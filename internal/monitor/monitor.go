// Package monitor raises low-stock and high-demand alerts from the usage log.
//
// Every check recomputes from the full history: usage is summed per day,
// a trend model is fitted per item, and the residual volatility (or the
// one-step forecast) is compared with a threshold drawn from the same data.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/forecast"
	"stockwatch/internal/models"
	"stockwatch/internal/notify"
)

// Model selects the demand model fitted per item.
type Model string

const (
	ModelLinear Model = "linear"
	ModelARIMA  Model = "arima"
)

// ParseModel accepts "linear" or "arima"; empty selects linear.
func ParseModel(s string) (Model, error) {
	switch Model(s) {
	case "", ModelLinear:
		return ModelLinear, nil
	case ModelARIMA:
		return ModelARIMA, nil
	}
	return "", fmt.Errorf("unknown model %q (want linear or arima)", s)
}

const (
	titleHighDemand = "High Demand Item"
	titleLowStock   = "Low Inventory Item"
	severityWarning = "warning"
	displayMS       = 5000

	// tolerance absorbs floating-point noise in near-perfect fits.
	tolerance = 1e-9
)

// Source supplies the data a check reads.
type Source interface {
	UsageRecords(ctx context.Context) ([]models.UsageRecord, error)
	Quantities(ctx context.Context) (map[string]int, error)
	Settings(ctx context.Context) (models.Settings, error)
}

// Options tune the heuristic.
type Options struct {
	Model Model
	// Sigma is the number of standard deviations above the mean that counts as unusual.
	Sigma float64
	// Floor is the minimum threshold for the high-demand comparison.
	Floor float64
	// ProjectStock also raises low_stock when quantity minus the next-day
	// forecast falls under the minimum.
	ProjectStock bool
	Location     *time.Location
}

// DefaultOptions returns the linear model with a two-sigma threshold.
func DefaultOptions() Options {
	return Options{Model: ModelLinear, Sigma: 2}
}

// Monitor is the demand-signal check. It holds no state between checks.
type Monitor struct {
	Source  Source
	Sink    notify.Sink
	Options Options
	Now     func() time.Time
	NewID   func() string
}

// New returns a Monitor with the wall clock and random alert IDs.
func New(src Source, sink notify.Sink, opts Options) *Monitor {
	return &Monitor{Source: src, Sink: sink, Options: opts, Now: time.Now, NewID: uuid.NewString}
}

// Check evaluates every item once and sends each qualifying alert to the
// sink. Alerts are not suppressed across checks. Per-item fit failures and
// sink failures do not stop the check; they are joined into the returned error.
func (m *Monitor) Check(ctx context.Context) ([]models.Alert, error) {
	settings, err := m.Source.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	records, err := m.Source.UsageRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}
	quantities, err := m.Source.Quantities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load quantities: %w", err)
	}

	series, errs := forecast.Aggregate(records, m.Options.Location)
	forecasts := map[string]float64{}
	alerts := []models.Alert{}

	for _, name := range sortedKeys(series) {
		s := series[name]
		if s.Len() < 2 {
			continue
		}
		value, threshold, next, err := m.evaluate(s, settings.WindowSize)
		if errors.Is(err, forecast.ErrInsufficientData) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		forecasts[name] = next
		if value > threshold+tolerance {
			a := m.alert(models.AlertHighDemand, name, titleHighDemand, name+" is experiencing high demand")
			a.Quantity = quantities[name]
			a.Value, a.Threshold = value, threshold
			alerts = append(alerts, a)
		}
	}

	minQty := settings.MinQtyThreshold
	for _, name := range sortedKeys(quantities) {
		qty := quantities[name]
		projected := float64(qty)
		if f, ok := forecasts[name]; ok && m.Options.ProjectStock {
			projected -= f
		}
		if qty < minQty || projected < float64(minQty) {
			a := m.alert(models.AlertLowStock, name, titleLowStock, name+" is running low in inventory")
			a.Quantity = qty
			a.Value, a.Threshold = projected, float64(minQty)
			alerts = append(alerts, a)
		}
	}

	if m.Sink != nil {
		for _, a := range alerts {
			if err := m.Sink.Notify(ctx, a); err != nil {
				errs = append(errs, fmt.Errorf("notify %s %s: %w", a.Kind, a.ItemName, err))
			}
		}
	}
	return alerts, errors.Join(errs...)
}

// evaluate returns the statistic compared against the threshold and the
// one-step forecast for s.
func (m *Monitor) evaluate(s *forecast.DailySeries, window int) (float64, float64, float64, error) {
	sigma := m.Options.Sigma
	if m.Options.Model == ModelARIMA {
		fit, err := forecast.FitARIMA(s)
		if err != nil {
			return 0, 0, 0, err
		}
		threshold := forecast.Threshold(s.Filled(), window, sigma, m.Options.Floor)
		return fit.Forecast, threshold, fit.Forecast, nil
	}
	fit, err := forecast.FitLinear(s)
	if err != nil {
		return 0, 0, 0, err
	}
	threshold := forecast.Threshold(fit.Residuals, window, sigma, m.Options.Floor)
	return fit.Volatility(), threshold, fit.Forecast, nil
}

func (m *Monitor) alert(kind, item, title, msg string) models.Alert {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	id := ""
	if m.NewID != nil {
		id = m.NewID()
	}
	return models.Alert{
		ID:         id,
		Kind:       kind,
		ItemName:   item,
		Title:      title,
		Message:    msg,
		Severity:   severityWarning,
		DurationMS: displayMS,
		CreatedAt:  now().Format(models.TimeLayout),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
