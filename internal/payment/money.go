package payment

import (
	"fmt"
	"math"
	"strings"
)

// currencySymbols maps supported currencies to their display symbol. Unknown
// currencies fall back to the ISO code.
var currencySymbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
}

// ConvertToSmallestUnit converts a major-unit amount to the currency's
// smallest unit (NGN kobo, USD cents). Both supported currencies are
// hundredths-based. Rounding is half-away-from-zero so 19.999 charges 2000,
// never 1999.
func ConvertToSmallestUnit(amount float64, currency string) int64 {
	_ = currency // both supported currencies use two decimal places
	return int64(math.Round(amount * 100))
}

// FormatAmount renders a smallest-unit amount for display: symbol, thousands
// separators, two decimals. FormatAmount(2500, "NGN") == "₦25.00".
func FormatAmount(smallest int64, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency) + " "
	}

	negative := smallest < 0
	if negative {
		smallest = -smallest
	}
	major := smallest / 100
	minor := smallest % 100

	formatted := fmt.Sprintf("%s%s.%02d", symbol, groupThousands(major), minor)
	if negative {
		return "-" + formatted
	}
	return formatted
}

// groupThousands inserts comma separators into a non-negative integer.
func groupThousands(n int64) string {
	digits := fmt.Sprintf("%d", n)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
