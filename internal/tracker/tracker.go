package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"GroceryLens/internal/calculator"
	"GroceryLens/internal/dataservice"
	"GroceryLens/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxReloadAttempts bounds how often one cache is reloaded in a single refresh
// when writes keep invalidating it.
const maxReloadAttempts = 3

// ErrNotImplemented is returned by capabilities that are intentionally absent.
var ErrNotImplemented = errors.New("barcode scanning feature not implemented yet")

// Tracker runs the price commands against the data service and keeps the
// catalog, suggestion and quick-add views it derives from it.
type Tracker struct {
	svc   dataservice.Service
	log   *zap.Logger
	dirty *Invalidation

	// refreshMu serializes reloads so one started before a write cannot
	// finish after the reload that follows it.
	refreshMu sync.Mutex

	mu       sync.Mutex
	listing  model.CatalogListing
	names    []string
	frequent []model.FrequentProduct
}

// New creates a Tracker. All caches start dirty.
func New(svc dataservice.Service, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{svc: svc, log: log, dirty: NewInvalidation()}
}

// Invalidation exposes the dirty set, e.g. for scheduled resyncs.
func (t *Tracker) Invalidation() *Invalidation { return t.dirty }

// AddResult is the outcome of a successful product submission.
type AddResult struct {
	Message   string
	Product   model.NewProduct
	Refreshed []CacheName
	// RefreshErr is set when the write succeeded but a follow-up reload did not.
	// The failed caches stay dirty and reload on their next read.
	RefreshErr error
}

// HistoryReport bundles a product's history with its derived views.
type HistoryReport struct {
	Product string
	Range   model.DateRange
	Records []model.PriceRecord
	Groups  []model.PlaceGroup
	Stats   model.HistoryStats
}

// LoadCatalog fetches the full price grid and replaces the cached one.
func (t *Tracker) LoadCatalog(ctx context.Context) (model.CatalogListing, error) {
	t.dirty.MarkDirty(CacheCatalog, CacheSuggestions)
	if _, err := t.refresh(ctx, CacheCatalog, CacheSuggestions); err != nil {
		return model.CatalogListing{}, err
	}
	return t.Catalog(ctx)
}

// Catalog returns the cached grid, loading it first when dirty.
func (t *Tracker) Catalog(ctx context.Context) (model.CatalogListing, error) {
	if _, err := t.refresh(ctx, CacheCatalog); err != nil {
		return model.CatalogListing{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listing, nil
}

// Suggestions lists known product names in catalog order. A non-empty prefix
// keeps only names starting with it, ignoring case.
func (t *Tracker) Suggestions(ctx context.Context, prefix string) ([]string, error) {
	if _, err := t.refresh(ctx, CacheCatalog, CacheSuggestions); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	out := make([]string, 0, len(t.names))
	for _, n := range t.names {
		if prefix == "" || strings.HasPrefix(strings.ToLower(n), prefix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// FrequentProducts lists the quick-add suggestions.
func (t *Tracker) FrequentProducts(ctx context.Context) ([]model.FrequentProduct, error) {
	if _, err := t.refresh(ctx, CacheQuickAdd); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.frequent), nil
}

// QuickAdd prefills form with the frequent product called name. Nothing is submitted.
func (t *Tracker) QuickAdd(ctx context.Context, form *Form, name string) (model.FrequentProduct, error) {
	products, err := t.FrequentProducts(ctx)
	if err != nil {
		return model.FrequentProduct{}, err
	}
	for _, p := range products {
		if p.Name == name {
			form.Prefill(p)
			return p, nil
		}
	}
	return model.FrequentProduct{}, &ValidationError{Field: "quick_add", Message: fmt.Sprintf("%q is not a quick-add product", name)}
}

// AddProduct validates and submits the form. On success the form is reset and
// the catalog, suggestions and quick-add caches are reloaded after the write.
func (t *Tracker) AddProduct(ctx context.Context, form *Form) (AddResult, error) {
	p, err := form.Validate()
	if err != nil {
		return AddResult{}, err
	}

	msg, err := t.svc.AddProduct(ctx, p)
	if err != nil {
		return AddResult{}, fmt.Errorf("add product: %w", err)
	}
	t.log.Info("product added",
		zap.String("name", p.Name),
		zap.String("place", p.Place),
		zap.String("total_price", p.TotalPrice.String()),
		zap.String("units", p.Units.String()))

	form.Reset()
	t.dirty.MarkDirty(RefreshOrder...)
	refreshed, rerr := t.refresh(ctx)
	if rerr != nil {
		t.log.Warn("refresh after add failed", zap.Error(rerr))
	}
	return AddResult{Message: msg, Product: p, Refreshed: refreshed, RefreshErr: rerr}, nil
}

// Compare fetches the comparison of each product concurrently. Results follow
// the order of names (duplicates dropped), not completion order. The first
// failure cancels the remaining requests and is returned.
func (t *Tracker) Compare(ctx context.Context, names []string) ([]model.ComparisonResult, error) {
	names = uniqueNames(names)
	if len(names) == 0 {
		return nil, &ValidationError{Field: "products", Message: "select at least one product to compare"}
	}

	results := make([]model.ComparisonResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, err := t.svc.Compare(gctx, name)
			if err != nil {
				return fmt.Errorf("compare %s: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// History fetches the product's price history within r and derives its
// statistics and per-place groups. An empty history yields
// calculator.ErrEmptyHistory alongside the (empty) report.
func (t *Tracker) History(ctx context.Context, name string, r model.DateRange) (HistoryReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return HistoryReport{}, &ValidationError{Field: "product", Message: "select a product to view price history"}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return HistoryReport{}, &ValidationError{Field: "date_range", Message: "start date is after end date"}
	}

	records, err := t.svc.PriceHistory(ctx, name, r)
	if err != nil {
		return HistoryReport{}, fmt.Errorf("price history %s: %w", name, err)
	}
	report := HistoryReport{
		Product: name,
		Range:   r,
		Records: records,
		Groups:  calculator.GroupByPlace(records),
	}
	stats, err := calculator.ComputeHistoryStats(records)
	if err != nil {
		return report, fmt.Errorf("price history %s: %w", name, err)
	}
	report.Stats = stats
	return report, nil
}

// ScanBarcode is a placeholder for a capability that does not exist yet.
func (t *Tracker) ScanBarcode() error {
	return ErrNotImplemented
}

// Refresh reloads every dirty cache in RefreshOrder.
func (t *Tracker) Refresh(ctx context.Context) ([]CacheName, error) {
	return t.refresh(ctx)
}

// refresh reloads the dirty caches among wanted (all when empty), in order.
// It stops at the first failure; that cache and the ones after it stay dirty.
// A cache invalidated again while it was loading stays dirty and is loaded
// once more before refresh returns.
func (t *Tracker) refresh(ctx context.Context, wanted ...CacheName) ([]CacheName, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	var done []CacheName
	for _, name := range RefreshOrder {
		if len(wanted) > 0 && !slices.Contains(wanted, name) {
			continue
		}
		for attempt := 0; slices.Contains(t.dirty.Pending(), name); attempt++ {
			if attempt == maxReloadAttempts {
				return done, fmt.Errorf("refresh %s: invalidated during every reload", name)
			}
			gen := t.dirty.Generation(name)
			if err := t.reload(ctx, name); err != nil {
				return done, fmt.Errorf("refresh %s: %w", name, err)
			}
			if t.dirty.Clear(name, gen) {
				done = append(done, name)
			}
		}
	}
	return done, nil
}

func (t *Tracker) reload(ctx context.Context, name CacheName) error {
	switch name {
	case CacheCatalog:
		listing, err := t.svc.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		t.mu.Lock()
		t.listing = listing
		t.mu.Unlock()
		t.dirty.MarkDirty(CacheSuggestions)
		t.log.Debug("catalog reloaded",
			zap.Int("products", len(listing.Products.Products)),
			zap.Int("places", len(listing.Places)))
	case CacheSuggestions:
		t.mu.Lock()
		t.names = t.listing.Products.Names()
		t.mu.Unlock()
	case CacheQuickAdd:
		frequent, err := t.svc.FrequentProducts(ctx)
		if err != nil {
			return err
		}
		t.mu.Lock()
		t.frequent = frequent
		t.mu.Unlock()
	default:
		return fmt.Errorf("unknown cache %q", name)
	}
	return nil
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
