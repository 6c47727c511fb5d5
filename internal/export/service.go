// Package export renders a settlement as an XLSX workbook for people who
// want the split in a spreadsheet rather than a chat message.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/snapsplit/snapsplit/internal/receipt"
	"github.com/snapsplit/snapsplit/internal/split"
)

// Service produces XLSX bytes for settlement exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// SettlementXLSX returns a workbook with two sheets: one row per person on
// "Settlement", and every per-person item share on "Items".
func (s *Service) SettlementXLSX(r *receipt.Receipt, entries []split.SettlementEntry) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const settlementSheet = "Settlement"
	const itemsSheet = "Items"

	if err := f.SetSheetName("Sheet1", settlementSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(settlementSheet)
	f.SetActiveSheet(activeIndex)

	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	headers := []string{"Person", "Subtotal", "Surcharge Share", "Total Owed", "Payer"}
	for i, h := range headers {
		write(settlementSheet, i+1, 1, h)
	}
	row := 2
	for _, e := range entries {
		write(settlementSheet, 1, row, e.Person.Name)
		write(settlementSheet, 2, row, e.Subtotal)
		write(settlementSheet, 3, row, e.SurchargeShare)
		write(settlementSheet, 4, row, e.TotalOwed)
		payer := ""
		if e.IsPayer {
			payer = "yes"
		}
		write(settlementSheet, 5, row, payer)
		row++
	}
	// Receipt context under the entries
	row++
	write(settlementSheet, 1, row, "Merchant")
	write(settlementSheet, 2, row, r.Merchant)
	row++
	if r.Date != "" {
		write(settlementSheet, 1, row, "Date")
		write(settlementSheet, 2, row, r.Date)
		row++
	}
	write(settlementSheet, 1, row, "Receipt Total")
	write(settlementSheet, 2, row, r.Total)

	itemHeaders := []string{"Person", "Item", "Share", "Split Count"}
	for i, h := range itemHeaders {
		write(itemsSheet, i+1, 1, h)
	}
	itemRow := 2
	for _, e := range entries {
		for _, it := range e.Items {
			write(itemsSheet, 1, itemRow, e.Person.Name)
			write(itemsSheet, 2, itemRow, it.Name)
			write(itemsSheet, 3, itemRow, it.Price)
			write(itemsSheet, 4, itemRow, it.SplitCount)
			itemRow++
		}
	}

	_ = f.SetColWidth(settlementSheet, "A", "A", 24)
	_ = f.SetColWidth(settlementSheet, "B", "E", 16)
	_ = f.SetColWidth(itemsSheet, "A", "B", 24)
	_ = f.SetColWidth(itemsSheet, "C", "D", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"merchant", r.Merchant,
		"entries", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
