package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"sales-analytics/internal/models"
)

const (
	DefaultCatalogURL = "https://dummyjson.com/products?limit=100"
	catalogCacheKey   = "products"
	maxCatalogBytes   = 10 * 1024 * 1024
)

// Catalog provides product metadata keyed by numeric product id.
type Catalog interface {
	FetchProducts(ctx context.Context) ([]models.ProductInfo, error)
}

type CatalogConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64
	CacheTTL  time.Duration
}

type catalogResponse struct {
	Products []models.ProductInfo `json:"products"`
}

// CatalogClient fetches the product list over HTTP. Calls are paced by a
// token bucket and successful responses are cached for CacheTTL. A CacheTTL
// of zero or less disables caching.
type CatalogClient struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	logger     *slog.Logger
}

func NewCatalogClient(cfg CatalogConfig, logger *slog.Logger) *CatalogClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultCatalogURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	client := &CatalogClient{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger.With(slog.String("component", "catalog_client")),
	}
	if cfg.CacheTTL > 0 {
		client.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return client
}

func (c *CatalogClient) FetchProducts(ctx context.Context) ([]models.ProductInfo, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(catalogCacheKey); ok {
			return cached.([]models.ProductInfo), nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for catalog rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}

	var body catalogResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if c.cache != nil {
		c.cache.Set(catalogCacheKey, body.Products, cache.DefaultExpiration)
	}
	c.logger.InfoContext(ctx, "fetched product catalog", "products", len(body.Products), "url", c.url)
	return body.Products, nil
}

// FetchOrEmpty never fails: a catalog error is logged and an empty product
// list returned, so a lookup outage leaves every record unmatched instead of
// aborting the run.
func FetchOrEmpty(ctx context.Context, catalog Catalog, logger *slog.Logger) []models.ProductInfo {
	products, err := catalog.FetchProducts(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch product catalog", "error", err)
		return []models.ProductInfo{}
	}
	return products
}
