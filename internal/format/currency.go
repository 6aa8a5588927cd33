package format

import (
	"fmt"
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var defaultSymbols = map[string]string{
	"BRL": "R$",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Currency formats amounts in one currency for one locale, e.g.
// "R$ 2,50" for pt-BR and BRL.
type Currency struct {
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	scale   int
}

// NewCurrency builds a formatter. An empty symbol falls back to a known
// symbol for the currency, then to its ISO code.
func NewCurrency(locale, code, symbol string) (*Currency, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", code, err)
	}
	if symbol == "" {
		symbol = defaultSymbols[unit.String()]
	}
	if symbol == "" {
		symbol = unit.String()
	}
	scale, _ := currency.Standard.Rounding(unit)
	return &Currency{
		printer: message.NewPrinter(tag),
		unit:    unit,
		symbol:  symbol,
		scale:   scale,
	}, nil
}

func (c *Currency) Unit() currency.Unit {
	return c.unit
}

// Format renders amount with the currency's standard number of decimals.
// Negative amounts carry the sign before the symbol: "-R$ 2,50".
func (c *Currency) Format(amount float64) string {
	sign := ""
	if math.Round(amount*math.Pow10(c.scale)) < 0 {
		sign = "-"
	}
	return sign + c.symbol + " " + c.printer.Sprint(number.Decimal(math.Abs(amount), number.Scale(c.scale)))
}
