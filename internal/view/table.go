package view

import (
	"GroceryLens/internal/model"

	"github.com/shopspring/decimal"
)

// MissingCell fills a grid position that has no price.
const MissingCell = "-"

// Table is a header plus rows of display strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// FormatPrice renders a price as dollars with two decimals.
func FormatPrice(p decimal.Decimal) string {
	return "$" + p.StringFixed(2)
}

// CatalogTable lays the grid out as one row per (product, date) and one column
// per place, in the order the data service listed them.
func CatalogTable(listing model.CatalogListing) Table {
	header := append([]string{"Product", "Date"}, listing.Places...)
	rows := make([][]string, 0, listing.Products.Len())
	for _, product := range listing.Products.Products {
		for _, dated := range product.Dates {
			row := make([]string, 0, len(header))
			row = append(row, product.Name, dated.Date)
			for _, place := range listing.Places {
				if p, ok := dated.Price(place); ok {
					row = append(row, FormatPrice(p))
				} else {
					row = append(row, MissingCell)
				}
			}
			rows = append(rows, row)
		}
	}
	return Table{Header: header, Rows: rows}
}

// ComparisonTable shows the best offer per product with its trend.
func ComparisonTable(results []model.ComparisonResult) Table {
	t := Table{Header: []string{"Product", "Best Price", "Store", "Date", "Price Trend"}}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.ProductName,
			FormatPrice(r.BestPricePerUnit),
			r.BestPlace,
			r.Date.String(),
			TrendCell(r),
		})
	}
	return t
}

// TrendCell renders the trend glyph followed by the change percentage.
func TrendCell(r model.ComparisonResult) string {
	return TrendStyleFor(r.PriceTrend).Glyph + " " + r.PriceChangePercent.StringFixed(2) + "%"
}

// HistoryTable lists each observation in fetch order.
func HistoryTable(records []model.PriceRecord) Table {
	t := Table{Header: []string{"Date", "Place", "Price per unit"}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.Date.String(), r.Place, FormatPrice(r.PricePerUnit)})
	}
	return t
}
