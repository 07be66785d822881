package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxAmount bounds amounts well inside int64 and float64 exact-integer range.
const maxAmount = 1_000_000_000_000

// Amount is a whole number of chips. It decodes from a JSON number or a numeric string,
// since browser forms post amounts as strings.
type Amount int64

// UnmarshalJSON accepts 50, 50.0 and "50"; it rejects fractions, NaN, infinities and junk.
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return ErrInvalidAmount("amount must be a number")
		}
		raw = strings.TrimSpace(s)
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAmount converts a textual amount into chips.
func ParseAmount(s string) (Amount, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount("amount must be a finite number")
	}
	if f != math.Trunc(f) {
		return 0, ErrInvalidAmount("amount must be a whole number of chips")
	}
	if math.Abs(f) > maxAmount {
		return 0, ErrInvalidAmount("amount is out of range")
	}
	return Amount(int64(f)), nil
}

// Int64 returns the amount as a plain integer.
func (a Amount) Int64() int64 { return int64(a) }
