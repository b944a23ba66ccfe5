package model

import "github.com/shopspring/decimal"

// Trend is the direction reported by the comparison endpoint.
// Values outside the known set are kept verbatim.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// ComparisonResult is the cross-place best price for one product.
type ComparisonResult struct {
	ProductName        string          `json:"product_name"`
	BestPricePerUnit   decimal.Decimal `json:"best_price_per_unit"`
	BestPlace          string          `json:"best_place"`
	Date               Date            `json:"date"`
	PriceTrend         Trend           `json:"price_trend"`
	PriceChangePercent decimal.Decimal `json:"price_change"`
}
