package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fxtransfer/internal/domain"
)

type ExchangeRateClient struct {
	http    *http.Client
	baseURL string
}

type apiResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// GetExchangeRates fetches the target→rate map for the base currency.
// A failed outbound call (connection error, timeout) comes back as
// *domain.TransportError so the resolver can fall back to persisted data;
// everything the provider actually answered with — an error payload, an
// unexpected status, a body that does not parse — is an invalid-input
// failure and must not trigger the fallback.
func (c *ExchangeRateClient) GetExchangeRates(ctx context.Context, base string) (map[string]float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for currency %q: %w", base, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.InvalidInputError{
			Reason: fmt.Sprintf("unexpected status %d from rate provider for currency %s", resp.StatusCode, base),
		}
	}

	var body apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &domain.InvalidInputError{
			Reason: fmt.Sprintf("malformed rate provider response for currency %s", base),
		}
	}

	if body.Result != "success" {
		return nil, &domain.InvalidInputError{
			Reason: fmt.Sprintf("rate provider returned %q for currency %s", body.Result, base),
		}
	}

	return body.ConversionRates, nil
}

func NewExchangeRateClient(httpClient *http.Client, baseURL string) *ExchangeRateClient {
	return &ExchangeRateClient{http: httpClient, baseURL: baseURL}
}
