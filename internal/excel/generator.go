package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/contractor-ledger/internal/model"
)

const summarySheet = "Best clients"

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// BestClients renders the ranking as a single-sheet workbook: a short header
// block with the period, followed by the ranked table and its total.
func (g *Generator) BestClients(report model.BestClientsReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeRanking(file, summarySheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeRanking(file *excelize.File, sheet string, report model.BestClientsReport) error {
	var setErr error
	set := func(cell string, value interface{}) {
		if setErr == nil {
			setErr = file.SetCellValue(sheet, cell, value)
		}
	}

	set("A1", "Period start")
	set("B1", formatDate(report.Period.Start))
	set("A2", "Period end")
	set("B2", formatDate(report.Period.End))
	set("A3", "Limit")
	set("B3", report.Limit)
	set("A4", "Clients")
	set("B4", len(report.Clients))

	tableRow := 6
	headers := []string{"Rank", "Client ID", "Full name", "Paid"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, tableRow)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	total := decimal.Zero
	for i, client := range report.Clients {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), i+1)
		set(fmt.Sprintf("B%d", row), client.ClientID)
		set(fmt.Sprintf("C%d", row), client.FullName)
		set(fmt.Sprintf("D%d", row), formatAmount(client.TotalPaid))
		total = total.Add(client.TotalPaid)
	}

	totalRow := tableRow + 1 + len(report.Clients)
	set(fmt.Sprintf("C%d", totalRow), "Total")
	set(fmt.Sprintf("D%d", totalRow), formatAmount(total))
	if setErr != nil {
		return setErr
	}

	if err := g.boldRow(file, sheet, tableRow, len(headers)); err != nil {
		return err
	}

	_ = file.SetColWidth(sheet, "A", "A", 14)
	_ = file.SetColWidth(sheet, "B", "B", 12)
	_ = file.SetColWidth(sheet, "C", "C", 36)
	_ = file.SetColWidth(sheet, "D", "D", 16)
	return nil
}

func (g *Generator) boldRow(file *excelize.File, sheet string, row, cols int) error {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return file.SetCellStyle(sheet, first, last, style)
}

// FileName names the export after its period.
func FileName(report model.BestClientsReport) string {
	return fmt.Sprintf("best-clients_%s_%s.xlsx",
		report.Period.Start.Format("20060102"), report.Period.End.Format("20060102"))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}
