package export

import (
	"fmt"
	"io"

	"salon/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var columns = []struct {
	title string
	width float64
}{
	{"ID", 8},
	{"Date", 12},
	{"Start", 8},
	{"Duration, min", 14},
	{"Service", 25},
	{"Customer", 25},
	{"Phone", 18},
	{"Email", 25},
	{"Status", 12},
	{"Notes", 40},
}

// статус -> цвет заливки строки
var statusFill = map[string]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusCompleted: "#DDEBF7",
	models.StatusCancelled: "#F8CBAD",
}

// FileName returns the attachment name for a period.
func FileName(from, to string) string {
	return fmt.Sprintf("bookings_%s_to_%s.xlsx", from, to)
}

// WriteBookings renders bookings of the period [from, to] as an xlsx workbook.
func WriteBookings(w io.Writer, from, to string, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s", from, to))
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for i, col := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + "2"
		_ = f.SetCellValue(sheetName, cell, col.title)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		_ = f.SetColWidth(sheetName, name, name, col.width)
	}

	styles := make(map[string]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = id
		}
	}

	for i, b := range bookings {
		row := i + 3
		values := []any{
			b.ID, b.Date, b.StartTime, b.DurationMinutes, b.ServiceName,
			b.CustomerName, b.Phone, b.Email, b.Status, b.Notes,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if id, ok := styles[b.Status]; ok {
			end, _ := excelize.CoordinatesToCellName(len(columns), row)
			_ = f.SetCellStyle(sheetName, start, end, id)
		}
	}

	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      2,
		TopLeftCell: "A3",
		ActivePane:  "bottomLeft",
	})

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
