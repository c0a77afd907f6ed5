// Package format renders prices, percentages and symbols for terminal output.
package format

import (
	"math"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Price formats a USD price: four decimals below $1, two with digit
// grouping otherwise.
func Price(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v < 1 {
		return printer.Sprintf("%s$%.4f", sign, v)
	}
	return printer.Sprintf("%s$%.2f", sign, v)
}

// Percentage formats a change with an explicit sign and two decimals.
func Percentage(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00%"
	}
	if v >= 0 {
		return printer.Sprintf("+%.2f%%", v)
	}
	return printer.Sprintf("-%.2f%%", -v)
}

// TruncateSymbol shortens s to at most max runes, marking the cut with "..".
func TruncateSymbol(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 2 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-2]) + ".."
}

// Integer formats n with digit grouping.
func Integer(n int64) string {
	return printer.Sprintf("%d", n)
}
