package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/yurifrl/faturas/pkg/models"
)

const sheetName = "Transactions"

// WriteXLSX writes the table as a single worksheet.
func WriteXLSX(w io.Writer, transactions []*models.Transaction, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	for i, row := range Rows(transactions, opts) {
		values := make([]interface{}, 0, len(Header))
		for _, v := range row.values() {
			values = append(values, v)
		}
		if amount, err := decimal.NewFromString(row.Amount); err == nil {
			values[2] = amount.InexactFloat64()
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing xlsx: %w", err)
	}
	return nil
}
