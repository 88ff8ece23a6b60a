package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"stockwatch/internal/models"
)

// Setting keys and defaults.
const (
	KeyMinQtyThreshold = "min_qty_threshold"
	KeyWindowSize      = "window_size"

	DefaultMinQtyThreshold = 10
	DefaultWindowSize      = 7
)

// Settings loads the monitor settings, falling back to defaults for missing
// or unparseable values.
func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	min, err := s.intSetting(ctx, KeyMinQtyThreshold, DefaultMinQtyThreshold)
	if err != nil {
		return models.Settings{}, err
	}
	win, err := s.intSetting(ctx, KeyWindowSize, DefaultWindowSize)
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings{MinQtyThreshold: min, WindowSize: win}, nil
}

// SaveSettings persists both settings.
func (s *Store) SaveSettings(ctx context.Context, st models.Settings) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for k, v := range map[string]int{KeyMinQtyThreshold: st.MinQtyThreshold, KeyWindowSize: st.WindowSize} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value",
			k, strconv.Itoa(v)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) intSetting(ctx context.Context, key string, def int) (int, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM settings WHERE key=?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}
