package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price is a currency amount in major units. JSON accepts numbers and numeric strings.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return p.parse(s)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(f)
	return nil
}

func (p *Price) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("price: %q is not a number", s)
	}
	*p = Price(f)
	return nil
}

// MinorUnits converts to the processor's smallest currency unit (cents).
func (p Price) MinorUnits() int64 { return int64(math.Round(float64(p) * 100)) }

// Scan lets sqlx read NUMERIC columns into Price.
func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = 0
	case float64:
		*p = Price(v)
	case int64:
		*p = Price(v)
	case []byte:
		return p.parse(string(v))
	case string:
		return p.parse(v)
	default:
		return fmt.Errorf("price: cannot scan %T", src)
	}
	return nil
}

func (p Price) Value() (driver.Value, error) { return float64(p), nil }
