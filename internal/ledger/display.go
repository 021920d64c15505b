package ledger

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as a grouped, 2-fraction-digit USD
// string, e.g. 1234.5 -> "$1,234.50".
func FormatCurrency(amount float64) string {
	return currencyPrinter.Sprintf("$%v", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// CalculatePercentage returns round(collected/target*100). A zero target
// yields 0 rather than dividing by zero; an unfunded asset with no target
// shows no progress.
func CalculatePercentage(collected, target float64) int {
	if target == 0 {
		return 0
	}
	return int(math.Round(collected / target * 100))
}

// IsDeadlinePassed reports whether the fundraising deadline is strictly in
// the past. A purchase at the exact deadline second is still accepted here;
// the contract applies its own cutoff.
func IsDeadlinePassed(deadline int64) bool {
	return time.Now().Unix() > deadline
}
