package currency

import (
	"fmt"
	"strings"
)

// FormatCOP renders an amount in Colombian Pesos the way the academy's
// invoices show it: dollar sign, dot as thousands separator, no decimals.
// Example: 1000000 -> "$1.000.000".
func FormatCOP(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if negative {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
