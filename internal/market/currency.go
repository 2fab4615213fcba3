package market

import "fmt"

// usdToInrRate is a fixed conversion rate; live FX is out of scope.
const usdToInrRate = 83.0

// USDToINR converts US dollars to Indian rupees at the fixed rate.
func USDToINR(usd float64) float64 {
	return usd * usdToInrRate
}

// FormatINR renders minor units (paise) as a rupee string, e.g. "₹1,234.50".
func FormatINR(minor int64) string {
	negative := minor < 0
	if negative {
		minor = -minor
	}

	rupees := minor / 100
	paise := minor % 100

	grouped := groupIndian(rupees)
	out := fmt.Sprintf("₹%s.%02d", grouped, paise)
	if negative {
		return "-" + out
	}

	return out
}

// groupIndian applies the Indian digit grouping: the last three digits, then
// pairs (12,34,567).
func groupIndian(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	head := s[:len(s)-3]
	tail := s[len(s)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	parts = append(parts, tail)

	out := parts[0]
	for _, p := range parts[1:] {
		out += "," + p
	}

	return out
}
