package model

import "github.com/shopspring/decimal"

// FrequentProduct is a quick-add suggestion built from frequently entered products.
type FrequentProduct struct {
	Name       string          `json:"name"`
	Place      string          `json:"place"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Units      decimal.Decimal `json:"units"`
}

// NewProduct is a validated price entry ready to submit.
type NewProduct struct {
	Name       string
	TotalPrice decimal.Decimal
	Units      decimal.Decimal
	Place      string
}
