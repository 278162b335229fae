package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/yurifrl/faturas/pkg/models"
)

// WriteCSV writes the table as comma separated values with a header row.
func WriteCSV(w io.Writer, transactions []*models.Transaction, opts Options) error {
	rows := Rows(transactions, opts)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	return nil
}
