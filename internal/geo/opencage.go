package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/eladitzhak/JobIntel-job-validator-microservice/internal/netutil"
)

// OpenCageClient resolves a free-text location to a country via the
// OpenCage forward-geocoding API.
type OpenCageClient struct {
	endpoint string
	apiKey   string
	limit    int
	language string
	hc       *http.Client
	limiter  *netutil.HostLimiter
}

func NewOpenCageClient(endpoint, apiKey string, limit int, language string, hc *http.Client, limiter *netutil.HostLimiter) *OpenCageClient {
	return &OpenCageClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		limit:    limit,
		language: language,
		hc:       hc,
		limiter:  limiter,
	}
}

type opencageResponse struct {
	Results []struct {
		Components struct {
			Country string `json:"country"`
		} `json:"components"`
	} `json:"results"`
}

// Country geocodes the query and returns its country name. found is
// false when the API answered cleanly but matched nothing; err is
// reserved for transport/HTTP-level failures.
func (c *OpenCageClient) Country(ctx context.Context, query string) (country string, found bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, c.endpoint); err != nil {
			return "", false, err
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("key", c.apiKey)
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", false, fmt.Errorf("opencage request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("opencage get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("opencage status %d", resp.StatusCode)
	}

	var body opencageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("opencage decode: %w", err)
	}
	if len(body.Results) == 0 {
		return "", false, nil
	}
	return body.Results[0].Components.Country, true, nil
}
