package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"stockwatch/internal/models"
	"stockwatch/internal/validation"
)

// Header is the column row of exported and imported item files.
var Header = []string{"Name", "Description", "Quantity", "Price", "Time"}

// Rows converts items into string rows in Header order.
func Rows(items []models.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Name, it.Description, strconv.Itoa(it.Quantity), it.Price.String(), it.Time})
	}
	return rows
}

// WriteCSV writes the header and one row per item.
func WriteCSV(w io.Writer, items []models.Item) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	if err := writer.WriteAll(Rows(items)); err != nil {
		return fmt.Errorf("write CSV rows: %w", err)
	}
	return nil
}

// RowError describes a skipped input row. Row numbers are 1-based and count
// the header.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Message) }

// ReadCSV parses an item file. The first row is treated as a header and
// skipped. Rows that cannot be parsed are skipped and reported; only a
// malformed file as a whole returns an error.
func ReadCSV(r io.Reader) ([]models.Item, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read CSV header: %w", err)
	}

	var items []models.Item
	var skipped []RowError
	row := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped = append(skipped, RowError{Row: row, Message: perr.Err.Error()})
				continue
			}
			return items, skipped, fmt.Errorf("read CSV: %w", err)
		}
		it, err := ParseRow(rec)
		if err != nil {
			skipped = append(skipped, RowError{Row: row, Message: err.Error()})
			continue
		}
		items = append(items, it)
	}
	return items, skipped, nil
}

// ParseRow converts one record in Header order into a validated item.
func ParseRow(rec []string) (models.Item, error) {
	if len(rec) < 4 {
		return models.Item{}, fmt.Errorf("expected at least 4 columns, got %d", len(rec))
	}
	ve := &validation.ValidationErrors{}
	it := models.Item{
		Name:        strings.TrimSpace(rec[0]),
		Description: strings.TrimSpace(rec[1]),
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		ve.Add("quantity", "must be an integer")
	}
	it.Quantity = qty
	price, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
	if err != nil {
		ve.Add("price", "must be a number")
	}
	it.Price = price
	if len(rec) > 4 {
		it.Time = strings.TrimSpace(rec[4])
	}
	validation.ValidateItem(ve, it.Name, it.Quantity, it.Price)
	if ve.HasErrors() {
		return models.Item{}, ve
	}
	return it, nil
}
