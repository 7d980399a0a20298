package core

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// graphemeCodes lists the currencies whose symbols are recognised as labels
// in front of an amount ("€ 12,50", "$12.50").
var graphemeCodes = []string{
	money.EUR, money.USD, money.GBP, money.CHF, money.JPY, money.INR,
	money.CAD, money.AUD, money.SEK, money.NOK, money.DKK, money.PLN, money.BRL,
}

// IsCurrencyLabel reports whether s is an ISO 4217 code or the symbol of a
// common currency.
func IsCurrencyLabel(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if len(s) == 3 && money.GetCurrency(strings.ToUpper(s)) != nil {
		return true
	}
	for _, code := range graphemeCodes {
		if c := money.GetCurrency(code); c != nil && c.Grapheme == s {
			return true
		}
	}
	return false
}

// StripCurrencyLabel removes a currency label written before or after an
// amount. Text that is not a known currency label is left in place so that
// the caller's parse fails on it.
func StripCurrencyLabel(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, isAmountRune); i > 0 && IsCurrencyLabel(s[:i]) {
		s = strings.TrimSpace(s[i:])
	}
	if i := strings.LastIndexFunc(s, unicode.IsDigit); i >= 0 && i < len(s)-1 {
		if suffix := s[i+1:]; IsCurrencyLabel(suffix) {
			s = strings.TrimSpace(s[:i+1])
		}
	}
	return s
}

// ParseAmountLabel parses an amount that may carry a currency label.
func ParseAmountLabel(s string) (Money, error) {
	return ParseMoney(StripCurrencyLabel(s))
}

// Display formats m for humans in the given currency, e.g. "€12.50".
func Display(m Money, code string) string {
	return money.New(m.Cents, code).Display()
}

// IsCentCurrency reports whether code is a known currency with two minor digits.
func IsCentCurrency(code string) bool {
	c := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	return c != nil && c.Fraction == 2
}

func isAmountRune(r rune) bool {
	return unicode.IsDigit(r) || r == '-' || r == '+' || r == '.' || r == ','
}
