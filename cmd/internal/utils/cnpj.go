package utils

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	CNPJLength       = 14
	PostalCodeLength = 8
)

var ErrInvalidCNPJ = errors.New("invalid cnpj: must have exactly 14 digits")

// isoDateLayouts are tried in order, the provider sends plain dates but
// older payloads sometimes carry a full timestamp.
var isoDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func DigitsOnly(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func HasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// NormalizeCNPJ strips the mask of a CNPJ, failing with ErrInvalidCNPJ
// unless exactly 14 digits remain.
func NormalizeCNPJ(cnpj string) (string, error) {
	digits := DigitsOnly(cnpj)
	if len(digits) != CNPJLength {
		return "", ErrInvalidCNPJ
	}
	return digits, nil
}

// PadCNPJ left-pads the digits of a (possibly masked) CNPJ with zeros.
// Inputs longer than 14 digits are returned untouched.
func PadCNPJ(cnpj string) string {
	digits := DigitsOnly(cnpj)
	if len(digits) >= CNPJLength {
		return digits
	}
	return strings.Repeat("0", CNPJLength-len(digits)) + digits
}

func NormalizePostalCode(cep string) *string {
	digits := DigitsOnly(cep)
	if len(digits) != PostalCodeLength {
		return nil
	}
	return &digits
}

// ParseLocalCurrency parses brazilian formatted amounts such as "1.234,56".
// Anything that is not a plain decimal after cleaning comes back invalid.
func ParseLocalCurrency(value string) decimal.NullDecimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NullDecimal{}
	}

	clean := strings.ReplaceAll(value, ".", "")
	clean = strings.Replace(clean, ",", ".", 1)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func ParseISODate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range isoDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &date
		}
	}
	return nil
}
