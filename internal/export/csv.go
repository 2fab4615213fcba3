// Package export renders user data into downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/smartbudget/smartbudget-server/internal/domain"
	"github.com/smartbudget/smartbudget-server/internal/market"
)

var expenseHeader = []string{"Date", "Title", "Amount", "Category", "Payment Method"}

// WriteExpensesCSV streams the expenses as a CSV document with a header row.
// Amounts are formatted as rupee strings.
func WriteExpensesCSV(w io.Writer, expenses []domain.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(expenseHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range expenses {
		record := []string{
			e.CreatedAt.Format(time.DateOnly),
			e.Title,
			market.FormatINR(e.AmountMinor),
			e.Category,
			e.PaymentMethod,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Filename returns the suggested download name for an expense export.
func Filename(now time.Time) string {
	return fmt.Sprintf("expenses-%s.csv", now.UTC().Format(time.DateOnly))
}
