package enums

import "strings"

// Currency is an ISO 4217 code.
type Currency string

const (
	CurrencyAUD Currency = "AUD"
	CurrencyUSD Currency = "USD"
	CurrencyNZD Currency = "NZD"
)

// ParseCurrency normalizes raw input, defaulting to AUD.
func ParseCurrency(raw string) Currency {
	switch Currency(strings.ToUpper(strings.TrimSpace(raw))) {
	case CurrencyUSD:
		return CurrencyUSD
	case CurrencyNZD:
		return CurrencyNZD
	default:
		return CurrencyAUD
	}
}
