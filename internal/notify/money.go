package notify

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"GBP": "£",
	"EUR": "€",
}

var printer = message.NewPrinter(language.English)

// Money renders amount with grouped digits behind the currency symbol, e.g. ₦2,150. Fractions
// are shown only when present.
func Money(amount decimal.Decimal, iso string) string {
	symbol, ok := symbols[iso]
	if !ok {
		symbol = iso + " "
	}
	if amount.IsInteger() {
		return symbol + printer.Sprintf("%d", amount.IntPart())
	}
	return symbol + printer.Sprintf("%.2f", amount.InexactFloat64())
}
