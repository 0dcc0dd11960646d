package ads

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Price is a raw price value. It accepts a JSON number or a JSON string so
// that malformed prices surface as validation errors rather than decode errors.
type Price string

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	*p = Price(b)
	return nil
}

// Float parses the price. Call only after validation has accepted it.
func (p Price) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(p)), 64)
}
