package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the timestamp shapes the data service emits.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Date is a calendar date (optionally with a time of day) reported by the data service.
// It remembers the text it was parsed from so it displays as the service wrote it.
type Date struct {
	time.Time
	raw string
}

// ParseDate accepts "2006-01-02", "2006-01-02 15:04:05" or RFC 3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t, raw: s}, nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// String returns the parsed text verbatim. Dates built from a time.Time render
// the date only, or date and time when a time of day is present.
func (d Date) String() string {
	if d.raw != "" {
		return d.raw
	}
	if d.IsZero() {
		return ""
	}
	h, m, s := d.Clock()
	if h == 0 && m == 0 && s == 0 {
		return d.Format("2006-01-02")
	}
	return d.Format("2006-01-02 15:04:05")
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// PriceRecord is one observed unit price of a product at a place.
type PriceRecord struct {
	Product      string          `json:"product,omitempty"`
	Date         Date            `json:"date"`
	Place        string          `json:"place"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// DateRange bounds a history query. Zero values leave that side open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}
