package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents).
type Money int64

// ParseMoney parses a decimal amount such as "500", "500.5" or "500.00".
// More than two fractional digits is an error rather than a silent rounding.
func ParseMoney(raw string) (Money, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("amount is required")
	}
	negative := false
	switch value[0] {
	case '-':
		negative = true
		value = value[1:]
	case '+':
		value = value[1:]
	}

	whole, frac, hasFrac := strings.Cut(value, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if hasFrac && len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is out of range", raw)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	if units > (1<<63-1-cents)/100 {
		return 0, fmt.Errorf("amount %q is out of range", raw)
	}
	total := units*100 + cents
	if negative {
		total = -total
	}
	return Money(total), nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return int64(m)
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// percentOf returns amount × percent / 100 rounded half-up (away from zero).
func percentOf(amount Money, percent int64) Money {
	scaled := int64(amount) * percent
	if scaled < 0 {
		return -Money((-scaled + 50) / 100)
	}
	return Money((scaled + 50) / 100)
}
