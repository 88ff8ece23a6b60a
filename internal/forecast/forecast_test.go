package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"stockwatch/internal/models"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestAggregate_SumsSameDayRows(t *testing.T) {
	records := []models.UsageRecord{
		{ID: 1, ItemName: "Bolt", QuantitySold: 3, TimeSold: "2024-01-02 09:00:00"},
		{ID: 2, ItemName: "Bolt", QuantitySold: 4, TimeSold: "2024-01-02 17:45:10"},
		{ID: 3, ItemName: "Bolt", QuantitySold: 1, TimeSold: "2024-01-01 23:59:59.123456"},
		{ID: 4, ItemName: "Nut", QuantitySold: 8, TimeSold: "2024-01-02 10:00:00"},
		{ID: 5, ItemName: "Nut", QuantitySold: 8, TimeSold: "not a time"},
	}
	series, errs := Aggregate(records, time.UTC)
	if len(errs) != 1 {
		t.Errorf("expected one parse error, got %v", errs)
	}

	bolt := series["Bolt"]
	if bolt == nil || bolt.Len() != 2 {
		t.Fatalf("expected 2 days for Bolt, got %+v", bolt)
	}
	if !bolt.Days[0].Equal(day(1)) || bolt.Values[0] != 1 {
		t.Errorf("day 1: got %v=%v", bolt.Days[0], bolt.Values[0])
	}
	if !bolt.Days[1].Equal(day(2)) || bolt.Values[1] != 7 {
		t.Errorf("day 2: got %v=%v", bolt.Days[1], bolt.Values[1])
	}
	if got := sumValues(series["Nut"].Values); got != 8 {
		t.Errorf("Nut total = %v, want 8", got)
	}
}

func TestDailySeries_FilledAndIndex(t *testing.T) {
	s := &DailySeries{Item: "x", Days: []time.Time{day(1), day(4)}, Values: []float64{2, 5}}
	filled := s.Filled()
	want := []float64{2, 0, 0, 5}
	if len(filled) != len(want) {
		t.Fatalf("Filled() = %v, want %v", filled, want)
	}
	for i := range want {
		if filled[i] != want[i] {
			t.Errorf("Filled()[%d] = %v, want %v", i, filled[i], want[i])
		}
	}
	idx := s.DayIndex()
	if idx[0] != 0 || idx[1] != 3 {
		t.Errorf("DayIndex() = %v", idx)
	}
}

func TestFitLinear(t *testing.T) {
	s := &DailySeries{Item: "x", Days: []time.Time{day(1), day(2), day(3)}, Values: []float64{1, 2, 3}}
	fit, err := FitLinear(s)
	if err != nil {
		t.Fatalf("FitLinear: %v", err)
	}
	for i, r := range fit.Residuals {
		if math.Abs(r) > 1e-9 {
			t.Errorf("residual %d = %v, want 0", i, r)
		}
	}
	if math.Abs(fit.Forecast-4) > 1e-9 {
		t.Errorf("Forecast = %v, want 4", fit.Forecast)
	}
	if fit.Volatility() > 1e-9 {
		t.Errorf("Volatility = %v, want 0", fit.Volatility())
	}
}

func TestFitLinear_Residuals(t *testing.T) {
	s := &DailySeries{Item: "x", Days: []time.Time{day(1), day(2), day(3), day(4)}, Values: []float64{1, 5, 1, 5}}
	fit, err := FitLinear(s)
	if err != nil {
		t.Fatalf("FitLinear: %v", err)
	}
	var sum float64
	for _, r := range fit.Residuals {
		sum += r
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("least-squares residuals should sum to 0, got %v", sum)
	}
	if fit.Volatility() <= 0 {
		t.Errorf("expected positive volatility, got %v", fit.Volatility())
	}
}

func TestFit_InsufficientData(t *testing.T) {
	one := &DailySeries{Item: "x", Days: []time.Time{day(1)}, Values: []float64{3}}
	if _, err := FitLinear(one); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("FitLinear: expected ErrInsufficientData, got %v", err)
	}
	two := &DailySeries{Item: "x", Days: []time.Time{day(1), day(2)}, Values: []float64{3, 4}}
	if _, err := FitARIMA(two); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("FitARIMA: expected ErrInsufficientData, got %v", err)
	}
}

func TestFitARIMA_LinearGrowth(t *testing.T) {
	s := &DailySeries{Item: "x"}
	for i := 1; i <= 30; i++ {
		s.Days = append(s.Days, day(i))
		s.Values = append(s.Values, float64(2*i))
	}
	fit, err := FitARIMA(s)
	if err != nil {
		t.Fatalf("FitARIMA: %v", err)
	}
	if len(fit.Residuals) != 29 || len(fit.Fitted) != 29 {
		t.Errorf("expected 29 residuals, got %d/%d", len(fit.Residuals), len(fit.Fitted))
	}
	if math.Abs(fit.Forecast-62) > 0.5 {
		t.Errorf("Forecast = %v, want about 62", fit.Forecast)
	}
}

func TestThreshold(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		floor  float64
		want   float64
	}{
		{"mean plus two sigma", []float64{1, 3}, 0, 0, 2 + 2*math.Sqrt2},
		{"window of one falls back to floor", []float64{1, 3, 5}, 1, 4, 4},
		{"floor wins", []float64{1, 1, 1}, 3, 10, 10},
		{"trailing window only", []float64{100, 2, 2}, 2, 0, 2},
		{"empty", nil, 7, 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Threshold(tt.values, tt.window, 2, tt.floor)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Threshold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func sumValues(values []float64) float64 {
	var t float64
	for _, v := range values {
		t += v
	}
	return t
}
