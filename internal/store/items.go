package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
)

const itemColumns = "name, description, quantity, price, time"

// SortColumns maps accepted sort keys to columns.
var SortColumns = map[string]string{
	"name":        "name",
	"description": "description",
	"quantity":    "quantity",
	"price":       "price",
	"time":        "time",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (models.Item, error) {
	var it models.Item
	var price float64
	if err := row.Scan(&it.Name, &it.Description, &it.Quantity, &price, &it.Time); err != nil {
		return it, err
	}
	it.Price = decimal.NewFromFloat(price)
	return it, nil
}

// ListItems returns every item ordered by sortKey. Unknown keys sort by name;
// desc reverses the order.
func (s *Store) ListItems(ctx context.Context, sortKey string, desc bool) ([]models.Item, error) {
	return s.queryItems(ctx, "", nil, sortKey, desc)
}

// SearchItems returns items whose name or description contains text, ignoring case.
func (s *Store) SearchItems(ctx context.Context, text, sortKey string, desc bool) ([]models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return s.ListItems(ctx, sortKey, desc)
	}
	term := "%" + strings.ToLower(text) + "%"
	return s.queryItems(ctx, " WHERE lower(name) LIKE ? OR lower(description) LIKE ?", []any{term, term}, sortKey, desc)
}

func (s *Store) queryItems(ctx context.Context, where string, args []any, sortKey string, desc bool) ([]models.Item, error) {
	col, ok := SortColumns[sortKey]
	if !ok {
		col = "name"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	q := "SELECT " + itemColumns + " FROM items" + where + " ORDER BY " + col + " " + dir + ", name ASC"
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetItem returns the item called name.
func (s *Store) GetItem(ctx context.Context, name string) (models.Item, error) {
	it, err := scanItem(s.DB.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE name=?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return it, ErrNotFound
	}
	return it, err
}

// AddItem inserts a new item stamped with the current time.
func (s *Store) AddItem(ctx context.Context, it models.Item) (models.Item, error) {
	it.Time = s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return it, err
	}
	defer tx.Rollback()

	if exists, err := itemExists(ctx, tx, it.Name); err != nil {
		return it, err
	} else if exists {
		return it, fmt.Errorf("%w: %s", ErrDuplicate, it.Name)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO items ("+itemColumns+") VALUES (?, ?, ?, ?, ?)",
		it.Name, it.Description, it.Quantity, it.Price.InexactFloat64(), it.Time); err != nil {
		return it, err
	}
	return it, tx.Commit()
}

// EditItem overwrites the item called name with u. When the quantity drops,
// the difference is appended to the usage log under the item's new name in
// the same transaction. The returned usage record is nil when none was written.
func (s *Store) EditItem(ctx context.Context, name string, u models.ItemUpdate) (models.Item, *models.UsageRecord, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, nil, err
	}
	defer tx.Rollback()

	old, err := scanItem(tx.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE name=?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return models.Item{}, nil, err
	}

	if u.Name != name {
		if exists, err := itemExists(ctx, tx, u.Name); err != nil {
			return models.Item{}, nil, err
		} else if exists {
			return models.Item{}, nil, fmt.Errorf("%w: %s", ErrDuplicate, u.Name)
		}
	}

	_, err = tx.ExecContext(ctx, "UPDATE items SET name=?, description=?, quantity=?, price=?, time=? WHERE name=?",
		u.Name, u.Description, u.Quantity, u.Price.InexactFloat64(), now, name)
	if err != nil {
		return models.Item{}, nil, err
	}

	var usage *models.UsageRecord
	if diff := old.Quantity - u.Quantity; diff > 0 {
		res, err := tx.ExecContext(ctx, "INSERT INTO sales (item_name, quantity_sold, time_sold) VALUES (?, ?, ?)",
			u.Name, diff, now)
		if err != nil {
			return models.Item{}, nil, err
		}
		id, _ := res.LastInsertId()
		usage = &models.UsageRecord{ID: int(id), ItemName: u.Name, QuantitySold: diff, TimeSold: now}
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, nil, err
	}
	return models.Item{Name: u.Name, Description: u.Description, Quantity: u.Quantity, Price: u.Price, Time: now}, usage, nil
}

// DeleteItem removes the item called name. Its usage history is kept.
func (s *Store) DeleteItem(ctx context.Context, name string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM items WHERE name=?", name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// UpsertItems inserts or replaces items by name, keeping each item's Time
// (blank times are stamped with now). It returns the number of rows written.
func (s *Store) UpsertItems(ctx context.Context, items []models.Item) (int, error) {
	now := s.now()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET description=excluded.description, quantity=excluded.quantity,
		price=excluded.price, time=excluded.time`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, it := range items {
		ts := it.Time
		if ts == "" {
			ts = now
		}
		if _, err := stmt.ExecContext(ctx, it.Name, it.Description, it.Quantity, it.Price.InexactFloat64(), ts); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", it.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(items), nil
}

// Quantities returns the current quantity of every item keyed by name.
func (s *Store) Quantities(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT name, quantity FROM items")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var name string
		var qty int
		if err := rows.Scan(&name, &qty); err != nil {
			return nil, err
		}
		out[name] = qty
	}
	return out, rows.Err()
}

// ChartData returns (name, quantity) pairs in name order.
func (s *Store) ChartData(ctx context.Context) ([]models.ChartBar, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT name, quantity FROM items ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bars := []models.ChartBar{}
	for rows.Next() {
		var b models.ChartBar
		if err := rows.Scan(&b.Name, &b.Quantity); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func itemExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM items WHERE name=?", name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
