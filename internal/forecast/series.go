package forecast

import (
	"fmt"
	"sort"
	"time"

	"stockwatch/internal/models"
)

// timeLayouts are tried in order when parsing usage timestamps. Rows written
// by older clients carry fractional seconds.
var timeLayouts = []string{
	models.TimeLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339,
}

// ParseTime parses a stored timestamp in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// DailySeries is one item's consumption summed per calendar day. Days are in
// ascending order and only days with usage are present.
type DailySeries struct {
	Item   string
	Days   []time.Time
	Values []float64
}

// Len returns the number of days in the series.
func (s *DailySeries) Len() int { return len(s.Days) }

// DayIndex returns the number of whole days between the first day and each day.
func (s *DailySeries) DayIndex() []float64 {
	idx := make([]float64, len(s.Days))
	if len(s.Days) == 0 {
		return idx
	}
	first := s.Days[0]
	for i, d := range s.Days {
		idx[i] = float64(daysBetween(first, d))
	}
	return idx
}

// Filled returns the series with every missing day between the first and last
// day present as zero consumption.
func (s *DailySeries) Filled() []float64 {
	if len(s.Days) == 0 {
		return nil
	}
	n := daysBetween(s.Days[0], s.Days[len(s.Days)-1]) + 1
	out := make([]float64, n)
	for i, d := range s.Days {
		out[daysBetween(s.Days[0], d)] = s.Values[i]
	}
	return out
}

// daysBetween counts calendar days, immune to DST-length days.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// Aggregate groups usage records into one DailySeries per item, summing
// same-day rows. Records with an unparseable timestamp are skipped and
// reported in the returned error slice.
func Aggregate(records []models.UsageRecord, loc *time.Location) (map[string]*DailySeries, []error) {
	if loc == nil {
		loc = time.Local
	}
	type key struct {
		item string
		day  time.Time
	}
	sums := map[key]float64{}
	var errs []error
	for _, r := range records {
		t, err := ParseTime(r.TimeSold, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("usage record %d: %w", r.ID, err))
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		sums[key{r.ItemName, day}] += float64(r.QuantitySold)
	}

	out := map[string]*DailySeries{}
	for k, v := range sums {
		s, ok := out[k.item]
		if !ok {
			s = &DailySeries{Item: k.item}
			out[k.item] = s
		}
		s.Days = append(s.Days, k.day)
		s.Values = append(s.Values, v)
	}
	for _, s := range out {
		sort.Sort(byDay{s})
	}
	return out, errs
}

type byDay struct{ s *DailySeries }

func (b byDay) Len() int           { return len(b.s.Days) }
func (b byDay) Less(i, j int) bool { return b.s.Days[i].Before(b.s.Days[j]) }
func (b byDay) Swap(i, j int) {
	b.s.Days[i], b.s.Days[j] = b.s.Days[j], b.s.Days[i]
	b.s.Values[i], b.s.Values[j] = b.s.Values[j], b.s.Values[i]
}
