// Package export renders the payment ledger as an Excel workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"easybuy/internal/domain"
)

const LedgerSheet = "Payments"

var ledgerHeaders = []string{"Payment ID", "Booking ID", "Product ID", "Buyer", "Transaction", "Amount", "Currency", "Recorded at"}

// Ledger writes one row per payment below a header row and a totals row at
// the bottom. Amounts are shown in major units.
func Ledger(payments []domain.Payment, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(LedgerSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(LedgerSheet, "A1", "EasyBuy payment ledger, generated "+generated.UTC().Format(time.RFC3339))
	title, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	_ = f.SetCellStyle(LedgerSheet, "A1", "A1", title)

	header, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range ledgerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(LedgerSheet, cell, h)
		_ = f.SetCellStyle(LedgerSheet, cell, cell, header)
	}

	totals := map[string]int64{}
	row := 3
	for _, p := range payments {
		values := []any{p.ID, p.BookingProductID, p.ProductID, p.BuyerEmail, p.TransactionID,
			float64(p.Amount) / 100, p.Currency, p.CreatedAt}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(LedgerSheet, cell, v); err != nil {
				return nil, fmt.Errorf("write %s: %w", cell, err)
			}
		}
		totals[p.Currency] += p.Amount
		row++
	}

	for cur, amount := range totals {
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("E%d", row), "Total")
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("F%d", row), float64(amount)/100)
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("G%d", row), cur)
		row++
	}

	_ = f.SetColWidth(LedgerSheet, "A", "E", 38)
	_ = f.SetColWidth(LedgerSheet, "F", "G", 12)
	_ = f.SetColWidth(LedgerSheet, "H", "H", 32)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
