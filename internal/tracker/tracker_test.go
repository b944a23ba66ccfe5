package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"GroceryLens/internal/calculator"
	"GroceryLens/internal/dataservice"
	"GroceryLens/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService records every call in order and serves canned data.
type fakeService struct {
	mu    sync.Mutex
	calls []string

	listing    model.CatalogListing
	frequent   []model.FrequentProduct
	comparison map[string]model.ComparisonResult
	delays     map[string]time.Duration
	history    []model.PriceRecord

	catalogErr error
	compareErr error
	addErr     error
	added      []model.NewProduct
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) LoadCatalog(_ context.Context) (model.CatalogListing, error) {
	f.record("catalog")
	return f.listing, f.catalogErr
}

func (f *fakeService) FrequentProducts(_ context.Context) ([]model.FrequentProduct, error) {
	f.record("frequent")
	return f.frequent, nil
}

func (f *fakeService) Compare(ctx context.Context, name string) (model.ComparisonResult, error) {
	f.record("compare:" + name)
	if d := f.delays[name]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return model.ComparisonResult{}, ctx.Err()
		}
	}
	if f.compareErr != nil && name == "Broken" {
		return model.ComparisonResult{}, f.compareErr
	}
	return f.comparison[name], nil
}

func (f *fakeService) PriceHistory(_ context.Context, name string, _ model.DateRange) ([]model.PriceRecord, error) {
	f.record("history:" + name)
	return f.history, nil
}

func (f *fakeService) AddProduct(_ context.Context, p model.NewProduct) (string, error) {
	f.record("add")
	if f.addErr != nil {
		return "", f.addErr
	}
	f.mu.Lock()
	f.added = append(f.added, p)
	f.mu.Unlock()
	return "Product added successfully", nil
}

func milkCatalog() model.CatalogListing {
	return model.CatalogListing{
		Products: model.ProductCatalog{Products: []model.ProductPrices{
			{Name: "Milk", Dates: []model.DatedPrices{{Date: "2024-01-01", Prices: map[string]decimal.Decimal{"StoreA": decimal.RequireFromString("3.5")}}}},
			{Name: "Eggs", Dates: nil},
			{Name: "Mango", Dates: nil},
		}},
		Places: []string{"StoreA", "StoreB"},
	}
}

func TestAddProduct_InvalidInputNeverCallsService(t *testing.T) {
	cases := map[string]Form{
		"empty name":          {Name: "  ", TotalPrice: "6", Units: "12", Place: "StoreC"},
		"empty place":         {Name: "Eggs", TotalPrice: "6", Units: "12", Place: ""},
		"non-numeric price":   {Name: "Eggs", TotalPrice: "six", Units: "12", Place: "StoreC"},
		"non-numeric units":   {Name: "Eggs", TotalPrice: "6", Units: "a dozen", Place: "StoreC"},
		"negative price":      {Name: "Eggs", TotalPrice: "-1", Units: "12", Place: "StoreC"},
		"zero units":          {Name: "Eggs", TotalPrice: "6", Units: "0", Place: "StoreC"},
		"everything is blank": {},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			tr := New(svc, nil)

			before := form
			_, err := tr.AddProduct(context.Background(), &form)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Empty(t, svc.Calls())
			assert.Equal(t, before, form, "rejected form must be left untouched")
		})
	}
}

func TestAddProduct_SuccessResetsAndRefreshesInOrder(t *testing.T) {
	svc := &fakeService{listing: milkCatalog()}
	tr := New(svc, nil)

	form := Form{Name: "Eggs", TotalPrice: "6.0", Units: "12", Place: "StoreC"}
	res, err := tr.AddProduct(context.Background(), &form)
	require.NoError(t, err)

	assert.Equal(t, "Product added successfully", res.Message)
	assert.Equal(t, Form{}, form)
	assert.Equal(t, []CacheName{CacheCatalog, CacheSuggestions, CacheQuickAdd}, res.Refreshed)
	assert.NoError(t, res.RefreshErr)
	assert.Equal(t, []string{"add", "catalog", "frequent"}, svc.Calls())

	require.Len(t, svc.added, 1)
	assert.Equal(t, "Eggs", svc.added[0].Name)
	assert.True(t, svc.added[0].TotalPrice.Equal(decimal.NewFromInt(6)))
	assert.True(t, svc.added[0].Units.Equal(decimal.NewFromInt(12)))
	assert.Empty(t, tr.Invalidation().Pending())
}

func TestAddProduct_ServiceErrorKeepsForm(t *testing.T) {
	svc := &fakeService{addErr: &dataservice.ServiceError{StatusCode: 400, Message: "units must be positive"}}
	tr := New(svc, nil)

	form := Form{Name: "Eggs", TotalPrice: "6", Units: "12", Place: "StoreC"}
	_, err := tr.AddProduct(context.Background(), &form)

	var se *dataservice.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "units must be positive", se.Message)
	assert.Equal(t, "Eggs", form.Name)
	assert.Equal(t, []string{"add"}, svc.Calls(), "no retry and no refresh after a rejected write")
}

func TestAddProduct_RefreshFailureLeavesCachesDirty(t *testing.T) {
	svc := &fakeService{catalogErr: &dataservice.TransportError{Op: "GET", Err: errors.New("down")}}
	tr := New(svc, nil)

	form := Form{Name: "Eggs", TotalPrice: "6", Units: "12", Place: "StoreC"}
	res, err := tr.AddProduct(context.Background(), &form)
	require.NoError(t, err)
	assert.Error(t, res.RefreshErr)
	assert.Empty(t, res.Refreshed)
	assert.Equal(t, RefreshOrder, tr.Invalidation().Pending())
}

func TestLoadCatalog_ReplacesContents(t *testing.T) {
	svc := &fakeService{listing: milkCatalog()}
	tr := New(svc, nil)

	listing, err := tr.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk", "Eggs", "Mango"}, listing.Products.Names())

	svc.listing = model.CatalogListing{Places: []string{"StoreZ"}}
	listing, err = tr.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listing.Products.Products)
	assert.Equal(t, []string{"StoreZ"}, listing.Places)

	names, err := tr.Suggestions(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, []string{"catalog", "catalog"}, svc.Calls())
}

func TestSuggestions_PrefixFilter(t *testing.T) {
	svc := &fakeService{listing: milkCatalog()}
	tr := New(svc, nil)

	names, err := tr.Suggestions(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk", "Mango"}, names)

	names, err = tr.Suggestions(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Milk", "Eggs", "Mango"}, names)
	assert.Equal(t, []string{"catalog"}, svc.Calls(), "clean caches are not reloaded")
}

func TestQuickAdd_PrefillsWithoutSubmitting(t *testing.T) {
	svc := &fakeService{frequent: []model.FrequentProduct{
		{Name: "Eggs", Place: "StoreC", TotalPrice: decimal.RequireFromString("6.5"), Units: decimal.NewFromInt(12)},
	}}
	tr := New(svc, nil)

	var form Form
	_, err := tr.QuickAdd(context.Background(), &form, "Eggs")
	require.NoError(t, err)
	assert.Equal(t, Form{Name: "Eggs", Place: "StoreC", TotalPrice: "6.5", Units: "12"}, form)
	assert.Equal(t, []string{"frequent"}, svc.Calls())

	_, err = tr.QuickAdd(context.Background(), &form, "Caviar")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCompare_KeepsInputOrder(t *testing.T) {
	svc := &fakeService{
		comparison: map[string]model.ComparisonResult{
			"Milk":  {ProductName: "Milk", PriceTrend: model.TrendUp},
			"Eggs":  {ProductName: "Eggs", PriceTrend: model.TrendDown},
			"Bread": {ProductName: "Bread", PriceTrend: "stable"},
		},
		delays: map[string]time.Duration{"Milk": 30 * time.Millisecond, "Eggs": 10 * time.Millisecond},
	}
	tr := New(svc, nil)

	results, err := tr.Compare(context.Background(), []string{"Milk", "Eggs", "Milk", " ", "Bread"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Milk", results[0].ProductName)
	assert.Equal(t, "Eggs", results[1].ProductName)
	assert.Equal(t, "Bread", results[2].ProductName)
	assert.Len(t, svc.Calls(), 3)
}

func TestCompare_EmptySelection(t *testing.T) {
	svc := &fakeService{}
	tr := New(svc, nil)

	_, err := tr.Compare(context.Background(), []string{"", "  "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, svc.Calls())
}

func TestCompare_FailurePropagates(t *testing.T) {
	svc := &fakeService{
		compareErr: &dataservice.ServiceError{StatusCode: 404, Message: "No products found"},
		comparison: map[string]model.ComparisonResult{"Milk": {ProductName: "Milk"}},
	}
	tr := New(svc, nil)

	_, err := tr.Compare(context.Background(), []string{"Milk", "Broken"})
	var se *dataservice.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "No products found", se.Message)
}

func TestHistory_Stats(t *testing.T) {
	d1, _ := model.ParseDate("2024-01-01")
	d2, _ := model.ParseDate("2024-01-05")
	svc := &fakeService{history: []model.PriceRecord{
		{Date: d1, Place: "A", PricePerUnit: decimal.RequireFromString("2.0")},
		{Date: d2, Place: "A", PricePerUnit: decimal.RequireFromString("3.0")},
	}}
	tr := New(svc, nil)

	report, err := tr.History(context.Background(), " Milk ", model.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "Milk", report.Product)
	assert.Equal(t, "2.50", report.Stats.Average.StringFixed(2))
	assert.Equal(t, "2.00", report.Stats.Min.StringFixed(2))
	assert.Equal(t, "3.00", report.Stats.Max.StringFixed(2))
	assert.Equal(t, model.TrendIncreasing, report.Stats.Trend)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, []string{"history:Milk"}, svc.Calls())
}

func TestHistory_EmptyIsReportedNotAveraged(t *testing.T) {
	tr := New(&fakeService{}, nil)

	report, err := tr.History(context.Background(), "Milk", model.DateRange{})
	assert.ErrorIs(t, err, calculator.ErrEmptyHistory)
	assert.Empty(t, report.Records)
	assert.True(t, report.Stats.Average.IsZero())
}

func TestHistory_Validation(t *testing.T) {
	svc := &fakeService{}
	tr := New(svc, nil)

	_, err := tr.History(context.Background(), "", model.DateRange{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = tr.History(context.Background(), "Milk", model.DateRange{Start: start, End: start.AddDate(0, 0, -1)})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "date_range", verr.Field)
	assert.Empty(t, svc.Calls())
}

func TestScanBarcode_NotImplemented(t *testing.T) {
	svc := &fakeService{}
	tr := New(svc, nil)
	assert.ErrorIs(t, tr.ScanBarcode(), ErrNotImplemented)
	assert.Empty(t, svc.Calls())
}

// gatedCatalogService blocks its first catalog read after taking a snapshot,
// until a product is added.
type gatedCatalogService struct {
	*fakeService
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedCatalogService) LoadCatalog(ctx context.Context) (model.CatalogListing, error) {
	g.fakeService.mu.Lock()
	snapshot := g.fakeService.listing
	g.fakeService.mu.Unlock()
	g.fakeService.record("catalog")

	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return snapshot, nil
}

func (g *gatedCatalogService) AddProduct(ctx context.Context, p model.NewProduct) (string, error) {
	msg, err := g.fakeService.AddProduct(ctx, p)
	g.fakeService.mu.Lock()
	g.fakeService.listing = model.CatalogListing{Products: model.ProductCatalog{Products: []model.ProductPrices{{Name: p.Name}}}}
	g.fakeService.mu.Unlock()
	close(g.release)
	return msg, err
}

func TestAddProduct_StaleBackgroundRefreshDoesNotWin(t *testing.T) {
	svc := &gatedCatalogService{
		fakeService: &fakeService{},
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	tr := New(svc, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := tr.Refresh(ctx)
		done <- err
	}()
	<-svc.started

	form := Form{Name: "Eggs", TotalPrice: "6", Units: "12", Place: "StoreC"}
	_, err := tr.AddProduct(ctx, &form)
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Empty(t, tr.Invalidation().Pending())
	names, err := tr.Suggestions(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs"}, names)
}

func TestInvalidation_ClearIgnoresOutdatedGeneration(t *testing.T) {
	inv := NewInvalidation()
	gen := inv.Generation(CacheCatalog)
	inv.MarkDirty(CacheCatalog)

	assert.False(t, inv.Clear(CacheCatalog, gen))
	assert.Contains(t, inv.Pending(), CacheCatalog)
	assert.True(t, inv.Clear(CacheCatalog, inv.Generation(CacheCatalog)))
	assert.NotContains(t, inv.Pending(), CacheCatalog)
}
