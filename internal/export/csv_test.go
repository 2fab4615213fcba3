package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartbudget/smartbudget-server/internal/domain"
)

func TestWriteExpensesCSV(t *testing.T) {
	created := time.Date(2025, 5, 20, 10, 30, 0, 0, time.UTC)
	expenses := []domain.Expense{
		{
			ID:            "e1",
			Title:         "Groceries",
			AmountMinor:   123450,
			Category:      "food",
			PaymentMethod: "upi",
			CreatedAt:     created,
		},
		{
			ID:            "e2",
			Title:         "Metro card, monthly",
			AmountMinor:   50000,
			Category:      "transport",
			PaymentMethod: "card",
			CreatedAt:     created.Add(24 * time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExpensesCSV(&buf, expenses))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Date", "Title", "Amount", "Category", "Payment Method"}, records[0])
	assert.Equal(t, []string{"2025-05-20", "Groceries", "₹1,234.50", "food", "upi"}, records[1])
	// Titles containing commas survive the round trip.
	assert.Equal(t, "Metro card, monthly", records[2][1])
}

func TestWriteExpensesCSVEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExpensesCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 5, 20, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "expenses-2025-05-20.csv", Filename(now))
}
