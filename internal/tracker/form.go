package tracker

import (
	"fmt"
	"strings"

	"GroceryLens/internal/model"

	"github.com/shopspring/decimal"
)

// ValidationError rejects user input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Form field names accepted by Set.
const (
	FieldName       = "name"
	FieldTotalPrice = "total_price"
	FieldUnits      = "units"
	FieldPlace      = "place"
)

var fieldAliases = map[string]string{
	"name":        FieldName,
	"product":     FieldName,
	"price":       FieldTotalPrice,
	"total":       FieldTotalPrice,
	"total_price": FieldTotalPrice,
	"units":       FieldUnits,
	"qty":         FieldUnits,
	"place":       FieldPlace,
	"store":       FieldPlace,
}

// Form holds the raw, unvalidated fields of the add-product form.
type Form struct {
	Name       string
	TotalPrice string
	Units      string
	Place      string
}

// Reset clears every field.
func (f *Form) Reset() {
	*f = Form{}
}

// Set assigns one field by name or alias.
func (f *Form) Set(field, value string) error {
	canonical, ok := fieldAliases[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return &ValidationError{Field: field, Message: "unknown field"}
	}
	switch canonical {
	case FieldName:
		f.Name = value
	case FieldTotalPrice:
		f.TotalPrice = value
	case FieldUnits:
		f.Units = value
	case FieldPlace:
		f.Place = value
	}
	return nil
}

// Prefill copies a quick-add suggestion into the form without submitting it.
func (f *Form) Prefill(p model.FrequentProduct) {
	f.Name = p.Name
	f.Place = p.Place
	f.TotalPrice = p.TotalPrice.String()
	f.Units = p.Units.String()
}

// Validate trims and parses the form into a NewProduct.
func (f Form) Validate() (model.NewProduct, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return model.NewProduct{}, &ValidationError{Field: FieldName, Message: "product name is required"}
	}
	total, err := decimal.NewFromString(strings.TrimSpace(f.TotalPrice))
	if err != nil {
		return model.NewProduct{}, &ValidationError{Field: FieldTotalPrice, Message: "total price must be a number"}
	}
	if total.IsNegative() {
		return model.NewProduct{}, &ValidationError{Field: FieldTotalPrice, Message: "total price must not be negative"}
	}
	units, err := decimal.NewFromString(strings.TrimSpace(f.Units))
	if err != nil {
		return model.NewProduct{}, &ValidationError{Field: FieldUnits, Message: "units must be a number"}
	}
	if !units.IsPositive() {
		return model.NewProduct{}, &ValidationError{Field: FieldUnits, Message: "units must be greater than zero"}
	}
	place := strings.TrimSpace(f.Place)
	if place == "" {
		return model.NewProduct{}, &ValidationError{Field: FieldPlace, Message: "place is required"}
	}
	return model.NewProduct{Name: name, TotalPrice: total, Units: units, Place: place}, nil
}
