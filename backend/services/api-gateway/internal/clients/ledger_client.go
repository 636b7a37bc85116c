package clients

import (
	"context"
	"net/http"
	"net/url"
)

// LedgerClient proxies ledger-service endpoints.
type LedgerClient struct {
	base *BaseClient
}

// NewLedgerClient returns client.
func NewLedgerClient(baseURL string, httpClient HTTPDoer) *LedgerClient {
	return &LedgerClient{base: NewBaseClient(baseURL, httpClient)}
}

func (c *LedgerClient) SubmitReading(ctx context.Context, body []byte, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/readings", "", body, headers)
}

func (c *LedgerClient) ListReadings(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/readings", rawQuery, nil, headers)
}

func (c *LedgerClient) ListFlagged(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/readings/flagged", rawQuery, nil, headers)
}

func (c *LedgerClient) ListSales(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/sales", rawQuery, nil, headers)
}

// FinalizeSale marks the sale final on behalf of the caller.
func (c *LedgerClient) FinalizeSale(ctx context.Context, saleID string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/sales/"+url.PathEscape(saleID)+"/finalize", "", nil, headers)
}

func (c *LedgerClient) AddPrice(ctx context.Context, body []byte, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/prices", "", body, headers)
}

func (c *LedgerClient) ListPrices(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/prices", rawQuery, nil, headers)
}

func (c *LedgerClient) EffectivePrice(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/prices/effective", rawQuery, nil, headers)
}
