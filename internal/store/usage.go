package store

import (
	"context"
	"fmt"
	"time"

	"stockwatch/internal/models"
)

// UsageRecords returns the full usage log in time order.
func (s *Store) UsageRecords(ctx context.Context) ([]models.UsageRecord, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT id, item_name, quantity_sold, time_sold FROM sales ORDER BY time_sold, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.UsageRecord
	for rows.Next() {
		var u models.UsageRecord
		if err := rows.Scan(&u.ID, &u.ItemName, &u.QuantitySold, &u.TimeSold); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UsageReport sums consumption per item between start and end inclusive.
// Both bounds are calendar dates; the whole end day is included, down to
// fractional seconds.
func (s *Store) UsageReport(ctx context.Context, start, end time.Time) ([]models.UsageTotal, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	from := start.Format("2006-01-02") + " 00:00:00"
	to := end.AddDate(0, 0, 1).Format("2006-01-02") + " 00:00:00"
	rows, err := s.DB.QueryContext(ctx, `SELECT item_name, SUM(quantity_sold) FROM sales
		WHERE time_sold >= ? AND time_sold < ? GROUP BY item_name ORDER BY item_name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := []models.UsageTotal{}
	for rows.Next() {
		var t models.UsageTotal
		if err := rows.Scan(&t.ItemName, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
