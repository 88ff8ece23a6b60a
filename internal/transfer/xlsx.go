package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stockwatch/internal/models"
)

const (
	itemsSheet = "Items"
	chartSheet = "Chart"
)

// WriteXLSX writes items as a workbook with a styled header row.
func WriteXLSX(w io.Writer, items []models.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := fillSheet(f, itemsSheet, Header, Rows(items)); err != nil {
		return err
	}
	return f.Write(w)
}

// WriteChartXLSX writes the chart data and a clustered column chart of
// quantity per item.
func WriteChartXLSX(w io.Writer, bars []models.ChartBar) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{b.Name, fmt.Sprint(b.Quantity)})
	}
	if err := fillSheet(f, chartSheet, []string{"Name", "Quantity"}, rows); err != nil {
		return err
	}
	// Quantities must be numeric cells for the chart.
	for i, b := range bars {
		if err := f.SetCellValue(chartSheet, fmt.Sprintf("B%d", i+2), b.Quantity); err != nil {
			return err
		}
	}

	if len(bars) > 0 {
		last := len(bars) + 1
		err := f.AddChart(chartSheet, "D2", &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$1", chartSheet),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", chartSheet, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", chartSheet, last),
			}},
			Title:  []excelize.RichTextRun{{Text: "Inventory Report"}},
			YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Quantity"}}},
			Legend: excelize.ChartLegend{Position: "none"},
		})
		if err != nil {
			return fmt.Errorf("add chart: %w", err)
		}
	}
	return f.Write(w)
}

func fillSheet(f *excelize.File, sheet string, headers []string, data [][]string) error {
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 18)
	}

	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	return nil
}
