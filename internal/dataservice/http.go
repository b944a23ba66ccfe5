package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"GroceryLens/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

var _ Service = (*HTTPService)(nil)

// HTTPService implements Service against the REST endpoints of the data service.
type HTTPService struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	log     *zap.Logger
}

// Option customizes an HTTPService.
type Option func(*HTTPService)

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(s *HTTPService) { s.APIKey = key }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPService) {
		if d > 0 {
			s.Client.Timeout = d
		}
	}
}

// WithProxy routes requests through the given proxy URL. Invalid URLs are ignored.
func WithProxy(proxyURL string) Option {
	return func(s *HTTPService) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			s.Client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPService) { s.Client = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *HTTPService) { s.log = l }
}

// NewHTTPService creates a client for the data service at baseURL.
func NewHTTPService(baseURL string, opts ...Option) *HTTPService {
	s := &HTTPService{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPService) LoadCatalog(ctx context.Context) (model.CatalogListing, error) {
	var listing model.CatalogListing
	if err := s.do(ctx, http.MethodGet, PathCatalog, nil, nil, &listing); err != nil {
		return model.CatalogListing{}, err
	}
	return listing, nil
}

func (s *HTTPService) FrequentProducts(ctx context.Context) ([]model.FrequentProduct, error) {
	var products []model.FrequentProduct
	if err := s.do(ctx, http.MethodGet, PathFrequent, nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *HTTPService) Compare(ctx context.Context, name string) (model.ComparisonResult, error) {
	var result model.ComparisonResult
	if err := s.do(ctx, http.MethodGet, PathCompare+url.PathEscape(name), nil, nil, &result); err != nil {
		return model.ComparisonResult{}, err
	}
	if result.ProductName == "" {
		result.ProductName = name
	}
	return result, nil
}

func (s *HTTPService) PriceHistory(ctx context.Context, name string, r model.DateRange) ([]model.PriceRecord, error) {
	query := url.Values{}
	if !r.Start.IsZero() {
		query.Set("start_date", r.Start.Format("2006-01-02"))
	}
	if !r.End.IsZero() {
		query.Set("end_date", r.End.Format("2006-01-02"))
	}
	var records []model.PriceRecord
	if err := s.do(ctx, http.MethodGet, PathHistory+url.PathEscape(name), query, nil, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Product = name
	}
	return records, nil
}

// addProductRequest keeps decimals exact on the wire.
type addProductRequest struct {
	Name       string      `json:"name"`
	TotalPrice json.Number `json:"total_price"`
	Units      json.Number `json:"units"`
	Place      string      `json:"place"`
}

func (s *HTTPService) AddProduct(ctx context.Context, p model.NewProduct) (string, error) {
	body := addProductRequest{
		Name:       p.Name,
		TotalPrice: json.Number(p.TotalPrice.String()),
		Units:      json.Number(p.Units.String()),
		Place:      p.Place,
	}
	var result struct {
		Message string `json:"message"`
	}
	if err := s.do(ctx, http.MethodPost, PathAdd, nil, body, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

func (s *HTTPService) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path
	endpoint := s.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	if err != nil {
		s.log.Warn("data service request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	s.log.Debug("data service response",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newServiceError(op, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
