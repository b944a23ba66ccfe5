package calculator

import (
	"errors"

	"GroceryLens/internal/model"

	"github.com/shopspring/decimal"
)

// ErrEmptyHistory is returned when statistics are requested over no records.
// Callers must check for it rather than render a made-up average.
var ErrEmptyHistory = errors.New("no price records provided")

// CalculateAverage returns the arithmetic mean of prices.
func CalculateAverage(prices []decimal.Decimal) (decimal.Decimal, error) {
	if len(prices) == 0 {
		return decimal.Zero, ErrEmptyHistory
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices)))), nil
}

// CalculateRange returns the lowest and highest price.
func CalculateRange(prices []decimal.Decimal) (low, high decimal.Decimal, err error) {
	if len(prices) == 0 {
		return decimal.Zero, decimal.Zero, ErrEmptyHistory
	}
	low, high = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(low) {
			low = p
		}
		if p.GreaterThan(high) {
			high = p
		}
	}
	return low, high, nil
}

// CalculateTrend compares only the first and last price: Increasing when the
// last is strictly higher, Decreasing otherwise (including equal prices).
func CalculateTrend(prices []decimal.Decimal) (model.TrendDirection, error) {
	if len(prices) == 0 {
		return "", ErrEmptyHistory
	}
	if prices[len(prices)-1].GreaterThan(prices[0]) {
		return model.TrendIncreasing, nil
	}
	return model.TrendDecreasing, nil
}

// ComputeHistoryStats derives average, range and trend from records in fetch order.
func ComputeHistoryStats(records []model.PriceRecord) (model.HistoryStats, error) {
	prices := extractPrices(records)

	avg, err := CalculateAverage(prices)
	if err != nil {
		return model.HistoryStats{}, err
	}
	low, high, err := CalculateRange(prices)
	if err != nil {
		return model.HistoryStats{}, err
	}
	trend, err := CalculateTrend(prices)
	if err != nil {
		return model.HistoryStats{}, err
	}
	return model.HistoryStats{
		Count:   len(records),
		Average: avg,
		Min:     low,
		Max:     high,
		Trend:   trend,
	}, nil
}

func extractPrices(records []model.PriceRecord) []decimal.Decimal {
	prices := make([]decimal.Decimal, len(records))
	for i, r := range records {
		prices[i] = r.PricePerUnit
	}
	return prices
}
