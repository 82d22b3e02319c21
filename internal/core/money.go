// Package core holds the domain model: projects, money, filtering, and
// aggregation. Everything here is pure; persistence and transport live in
// their own packages.
package core

import (
	"encoding/json"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
)

// Yen is an integer JPY amount. JPY has no fractional unit, so no cents
// scaling applies.
type Yen int64

// Format renders the amount as a Japanese yen currency string (e.g. ￥800,000).
func (y Yen) Format() string {
	return gomoney.New(int64(y), gomoney.JPY).Display()
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null. Absent and
// non-numeric values decode to 0 so that hand-edited or partially filled
// backups still import.
func (y *Yen) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*y = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*y = 0
		return nil
	}
	*y = Yen(v)
	return nil
}

// MarshalJSON always emits a plain JSON number.
func (y Yen) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(y))
}
