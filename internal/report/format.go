package report

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"scontrini/internal/core"
)

// DefaultLocale is used when no locale is configured or it cannot be parsed.
const DefaultLocale = "en-US"

// Formatter renders amounts and dates for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a formatter for a BCP 47 locale such as "it-IT".
func NewFormatter(locale string) Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || locale == "" {
		tag = language.MustParse(DefaultLocale)
	}
	return Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Locale returns the canonical locale of f.
func (f Formatter) Locale() string {
	return f.tag.String()
}

// Amount formats a value with grouping separators and at most three
// fraction digits. The integer part is grouped from its exact value; only
// the three rounded fraction digits go through a float.
func (f Formatter) Amount(a core.Amount) string {
	if f.printer == nil {
		f = NewFormatter(DefaultLocale)
	}
	a = a.Round(3)
	sign := ""
	if a.IsNegative() {
		sign = "-"
		a = a.Abs()
	}
	whole := a.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return sign + a.String()
	}

	out := f.printer.Sprint(number.Decimal(whole.IntPart()))
	if frac := a.Sub(whole); !frac.IsZero() {
		// "0.125" in the locale's digits and separator; keep ".125".
		digits := f.printer.Sprint(number.Decimal(frac.InexactFloat64(), number.MaxFractionDigits(3)))
		out += strings.TrimLeftFunc(digits, unicode.IsDigit)
	}
	return sign + out
}

// Date formats a calendar date. English locales use month/day/year
// without padding, the others day/month/year.
func (f Formatter) Date(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	base, _ := f.tag.Base()
	if base.String() == "en" {
		return fmt.Sprintf("%d/%d/%d", int(d.Month()), d.Day(), d.Year())
	}
	return d.Format("02/01/2006")
}

// DateKey formats a YYYY-MM-DD key and returns it unchanged when it does
// not parse.
func (f Formatter) DateKey(key string) string {
	d, err := core.ParseDate(key)
	if err != nil {
		return key
	}
	return f.Date(d)
}
