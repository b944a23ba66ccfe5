package view

import (
	"GroceryLens/internal/chart"
	"GroceryLens/internal/model"
)

// Chart targets.
const (
	ComparisonChartTarget = "priceComparisonChart"
	HistoryChartTarget    = "priceChart"
)

// ComparisonChart is a bar chart of the best unit price per product.
func ComparisonChart(results []model.ComparisonResult) chart.Chart {
	categories := make([]string, len(results))
	values := make([]float64, len(results))
	for i, r := range results {
		categories[i] = r.ProductName
		values[i] = r.BestPricePerUnit.InexactFloat64()
	}
	return chart.Chart{
		Target:     ComparisonChartTarget,
		Kind:       chart.KindBar,
		Title:      "Price Comparison",
		YAxisTitle: "Price per unit",
		Categories: categories,
		Series:     []chart.Series{{Name: "Best Price", Values: values}},
	}
}

// HistoryChart draws one time series per place. Points keep fetch order.
func HistoryChart(product string, groups []model.PlaceGroup) chart.Chart {
	series := make([]chart.Series, 0, len(groups))
	for _, g := range groups {
		points := make([]chart.Point, len(g.Records))
		for i, r := range g.Records {
			points[i] = chart.Point{Time: r.Date.Time, Value: r.PricePerUnit.InexactFloat64()}
		}
		series = append(series, chart.Series{Name: g.Place, Points: points})
	}
	return chart.Chart{
		Target:     HistoryChartTarget + "_" + product,
		Kind:       chart.KindTimeSeries,
		Title:      "Price History for " + product,
		XAxisTitle: "Date",
		YAxisTitle: "Price per unit",
		Series:     series,
	}
}
