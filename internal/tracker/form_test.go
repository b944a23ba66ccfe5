package tracker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_SetAliases(t *testing.T) {
	var f Form
	require.NoError(t, f.Set("product", "Eggs"))
	require.NoError(t, f.Set("PRICE", "6"))
	require.NoError(t, f.Set("qty", "12"))
	require.NoError(t, f.Set("store", "StoreC"))
	assert.Equal(t, Form{Name: "Eggs", TotalPrice: "6", Units: "12", Place: "StoreC"}, f)

	err := f.Set("colour", "red")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestForm_ValidateTrims(t *testing.T) {
	f := Form{Name: "  Eggs ", TotalPrice: " 6.00 ", Units: "12", Place: " StoreC"}
	p, err := f.Validate()
	require.NoError(t, err)
	assert.Equal(t, "Eggs", p.Name)
	assert.Equal(t, "StoreC", p.Place)
	assert.Equal(t, "6", p.TotalPrice.String())
}

func TestForm_ValidateReportsField(t *testing.T) {
	_, err := Form{Name: "Eggs", TotalPrice: "6", Units: "x", Place: "A"}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, FieldUnits, verr.Field)
}
