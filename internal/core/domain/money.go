package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is a monetary amount in centavos. All pricing arithmetic in the
// system happens on this type; float64 only ever appears at the edge when
// a provider SDK demands it.
type Money int64

// NewMoneyFromReais builds a Money from whole reais and centavos.
func NewMoneyFromReais(reais, centavos int64) Money {
	return Money(reais*100 + centavos)
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return m + other
}

// Cents returns the raw amount in centavos.
func (m Money) Cents() int64 {
	return int64(m)
}

// Float returns the amount in reais as a float64. Only for provider SDKs
// whose request types use floating point.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// Format renders the amount as a decimal string with two places, e.g. "347.00".
func (m Money) Format() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return m.Format()
}

// MarshalJSON encodes the amount as a plain decimal number ("347.00")
// so API consumers never see centavo integers.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Format()), nil
}

// UnmarshalJSON accepts either a decimal number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMoney parses a decimal string ("297", "297.5", "297.00") into
// centavos without going through floating point.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
		// already exact
	default:
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}

	reais, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	total := reais*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}
