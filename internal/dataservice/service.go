package dataservice

import (
	"context"

	"GroceryLens/internal/model"
)

// Service is the remote Product Data Service.
type Service interface {
	LoadCatalog(ctx context.Context) (model.CatalogListing, error)
	FrequentProducts(ctx context.Context) ([]model.FrequentProduct, error)
	Compare(ctx context.Context, name string) (model.ComparisonResult, error)
	PriceHistory(ctx context.Context, name string, r model.DateRange) ([]model.PriceRecord, error)
	AddProduct(ctx context.Context, p model.NewProduct) (string, error)
}

// Endpoint paths exposed by the data service.
const (
	PathCatalog  = "/get_all_products"
	PathFrequent = "/get_frequent_products"
	PathCompare  = "/compare/"
	PathHistory  = "/price_history/"
	PathAdd      = "/add_product"
)
