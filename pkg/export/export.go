// Package export writes extracted transaction tables to delimited text or
// spreadsheet files.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yurifrl/faturas/pkg/models"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Row is one line of the exported table.
type Row struct {
	Date         string `csv:"date"`
	Description  string `csv:"description"`
	Amount       string `csv:"amount"`
	Installments string `csv:"installments"`
	Card         string `csv:"card"`
	Type         string `csv:"type"`
}

// Header lists the table columns in order.
var Header = []string{"date", "description", "amount", "installments", "card", "type"}

func (r Row) values() []string {
	return []string{r.Date, r.Description, r.Amount, r.Installments, r.Card, r.Type}
}

type FilterFunc func(*models.Transaction) bool

type Options struct {
	// Year anchors DD/MM dates. Zero keeps them year-less.
	Year   int
	Filter FilterFunc
}

// Rows converts transactions to table rows, dropping the ones rejected by the
// filter.
func Rows(transactions []*models.Transaction, opts Options) []Row {
	rows := make([]Row, 0, len(transactions))
	for _, tx := range transactions {
		if opts.Filter != nil && !opts.Filter(tx) {
			continue
		}
		rows = append(rows, Row{
			Date:         tx.Date().Format(opts.Year),
			Description:  tx.Description(),
			Amount:       tx.Amount().String(),
			Installments: tx.Installments(),
			Card:         tx.Card(),
			Type:         tx.Type(),
		})
	}
	return rows
}

// Write dispatches to the writer for format.
func Write(w io.Writer, format Format, transactions []*models.Transaction, opts Options) error {
	switch format {
	case CSV:
		return WriteCSV(w, transactions, opts)
	case XLSX:
		return WriteXLSX(w, transactions, opts)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// OutputPath derives the export path from the input path: same base name,
// format extension, written next to the input unless dir is set.
func OutputPath(inputPath, dir string, format Format) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext) + "." + string(format)
	if dir != "" {
		return filepath.Join(dir, base)
	}
	return filepath.Join(filepath.Dir(inputPath), base)
}
