package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductCatalog is the product × date × place price grid.
// Products and dates keep the order in which the data service listed them.
type ProductCatalog struct {
	Products []ProductPrices
}

// ProductPrices holds every dated observation for one product.
type ProductPrices struct {
	Name  string
	Dates []DatedPrices
}

// DatedPrices maps place names to the unit price seen on one date.
type DatedPrices struct {
	Date   string
	Prices map[string]decimal.Decimal
}

// Price returns the price at place, or false when the place has no entry.
func (d DatedPrices) Price(place string) (decimal.Decimal, bool) {
	p, ok := d.Prices[place]
	return p, ok
}

// Names returns the product names in catalog order.
func (c ProductCatalog) Names() []string {
	names := make([]string, len(c.Products))
	for i, p := range c.Products {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of (product, date) pairs in the catalog.
func (c ProductCatalog) Len() int {
	n := 0
	for _, p := range c.Products {
		n += len(p.Dates)
	}
	return n
}

// UnmarshalJSON decodes the nested object while preserving key order.
// A key repeated at any level merges into its first occurrence.
func (c *ProductCatalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	c.Products = nil
	return decodeObject(dec, func(name string) error {
		pi := c.productIndex(name)
		return decodeObject(dec, func(date string) error {
			di := c.Products[pi].dateIndex(date)
			prices := c.Products[pi].Dates[di].Prices
			return decodeObject(dec, func(place string) error {
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return fmt.Errorf("catalog %s/%s/%s: %w", name, date, place, err)
				}
				if isAbsent(raw) {
					return nil
				}
				var price decimal.Decimal
				if err := json.Unmarshal(raw, &price); err != nil {
					return fmt.Errorf("catalog %s/%s/%s: %w", name, date, place, err)
				}
				prices[place] = price
				return nil
			})
		})
	})
}

func (c *ProductCatalog) productIndex(name string) int {
	for i := range c.Products {
		if c.Products[i].Name == name {
			return i
		}
	}
	c.Products = append(c.Products, ProductPrices{Name: name})
	return len(c.Products) - 1
}

func (p *ProductPrices) dateIndex(date string) int {
	for i := range p.Dates {
		if p.Dates[i].Date == date {
			return i
		}
	}
	p.Dates = append(p.Dates, DatedPrices{Date: date, Prices: make(map[string]decimal.Decimal)})
	return len(p.Dates) - 1
}

func isAbsent(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "null" || s == `""`
}

// decodeObject walks one JSON object, calling fn for each key with the decoder
// positioned at the key's value. A null value is treated as an empty object.
func decodeObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// CatalogListing is the payload of the catalog endpoint.
type CatalogListing struct {
	Products ProductCatalog `json:"products"`
	Places   []string       `json:"places"`
}
