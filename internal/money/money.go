// Package money holds monetary values as integer cents so that billing
// arithmetic stays exact. Rounding happens only where a value is derived
// by division (percentage application, decimal parsing) and always uses
// half-up rounding.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in minor units (1/100 of the currency unit).
type Cents int64

// ApplyBps applies a basis-point rate to base and rounds half-up.
// 500 bps = 5.00%.
func ApplyBps(base Cents, bps int64) Cents {
	product := int64(base) * bps
	if product >= 0 {
		return Cents((product + 5000) / 10000)
	}
	return Cents(-((-product + 5000) / 10000))
}

// Parse converts a decimal string such as "200", "200.5" or "200.50" into
// cents. Amounts with more than two fractional digits are rounded half-up.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("money: empty amount")
	}
	neg := false
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		neg = true
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("money: invalid amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("money: invalid amount %q", s)
	}
	var frac int64
	if fracPart != "" {
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("money: invalid amount %q", s)
			}
		}
		digits := fracPart
		roundUp := false
		if len(digits) > 2 {
			roundUp = digits[2] >= '5'
			digits = digits[:2]
		}
		frac, _ = strconv.ParseInt(digits, 10, 64)
		if len(fracPart) == 1 {
			frac *= 10
		}
		if roundUp {
			frac++
		}
	}
	c := Cents(whole*100 + frac)
	if neg {
		c = -c
	}
	return c, nil
}

// String renders the amount with exactly two decimal places.
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a two-decimal string, e.g. "472.50".
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string ("472.50") or number (472.5).
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
