package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSDToINR(t *testing.T) {
	assert.Equal(t, 83.0, USDToINR(1))
	assert.Equal(t, 415.0, USDToINR(5))
	assert.Equal(t, 0.0, USDToINR(0))
}

func TestFormatINR(t *testing.T) {
	tests := []struct {
		name  string
		minor int64
		want  string
	}{
		{name: "zero", minor: 0, want: "₹0.00"},
		{name: "paise only", minor: 50, want: "₹0.50"},
		{name: "small", minor: 12345, want: "₹123.45"},
		{name: "thousand grouping", minor: 123450, want: "₹1,234.50"},
		{name: "lakh grouping", minor: 12345678, want: "₹1,23,456.78"},
		{name: "crore grouping", minor: 1234567890, want: "₹1,23,45,678.90"},
		{name: "negative", minor: -123450, want: "-₹1,234.50"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatINR(tc.minor))
		})
	}
}
