package clients

import (
	"context"
	"net/http"
	"net/url"
)

// StationsClient proxies station-service provisioning endpoints.
type StationsClient struct {
	base *BaseClient
}

// NewStationsClient returns client.
func NewStationsClient(baseURL string, httpClient HTTPDoer) *StationsClient {
	return &StationsClient{base: NewBaseClient(baseURL, httpClient)}
}

func (c *StationsClient) CreateStation(ctx context.Context, body []byte, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/stations", "", body, headers)
}

// ListStations fetches upstream data.
func (c *StationsClient) ListStations(ctx context.Context, rawQuery string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/stations", rawQuery, nil, headers)
}

func (c *StationsClient) AddPump(ctx context.Context, stationID string, body []byte, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/stations/"+url.PathEscape(stationID)+"/pumps", "", body, headers)
}

func (c *StationsClient) AddNozzle(ctx context.Context, pumpID string, body []byte, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/pumps/"+url.PathEscape(pumpID)+"/nozzles", "", body, headers)
}

func (c *StationsClient) ListNozzles(ctx context.Context, stationID string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodGet, "/stations/"+url.PathEscape(stationID)+"/nozzles", "", nil, headers)
}

func (c *StationsClient) DeactivateNozzle(ctx context.Context, nozzleID string, headers map[string]string) (*Response, error) {
	return c.base.Do(ctx, http.MethodPost, "/nozzles/"+url.PathEscape(nozzleID)+"/deactivate", "", nil, headers)
}
