package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contractor-ledger/internal/model"
)

const defaultFont = "Helvetica"

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: defaultFont}
}

// Receipt renders a one-page payment receipt for a settled job.
func (g *Generator) Receipt(doc model.ReceiptDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetCreationDate(doc.Transfer.CreatedAt)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Payment receipt", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Receipt %s", doc.Transfer.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Paid on %s", formatDateTime(doc.Transfer.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, "Payer (client)", doc.Client)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, "Payee (contractor)", doc.Contractor)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Contract #%d", doc.Contract.ID), "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.MultiCell(0, 5, safeValue(doc.Contract.Terms), "", "L", false)
	pdf.Ln(2)

	headers := []string{"Job", "Description", "Amount"}
	colWidths := []float64{25, 115, 40}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	drawTableRow(pdf, g.fontName, []string{
		fmt.Sprintf("#%d", doc.Job.ID),
		truncate(safeValue(doc.Job.Description), 70),
		formatAmount(doc.Transfer.Amount),
	}, colWidths, false)

	pdf.Ln(2)
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total paid: %s", formatAmount(doc.Transfer.Amount)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName names the receipt after its transfer.
func FileName(doc model.ReceiptDocument) string {
	return fmt.Sprintf("receipt_%s.pdf", doc.Transfer.ID)
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName, title string, profile model.Profile) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	lines := []string{
		profile.FullName(),
		fmt.Sprintf("Profile ID: %d", profile.ID),
	}
	if profile.IsContractor() {
		lines = append(lines, fmt.Sprintf("Profession: %s", safeValue(profile.Profession)))
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i == len(cols)-1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
