package model

import "github.com/shopspring/decimal"

// TrendDirection is the two-point trend of a price history.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
)

// HistoryStats summarizes the unit prices of one product's history.
type HistoryStats struct {
	Count   int
	Average decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
	Trend   TrendDirection
}

// PlaceGroup is the ordered slice of records observed at one place.
type PlaceGroup struct {
	Place   string
	Records []PriceRecord
}
