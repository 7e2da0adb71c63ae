package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/skinvault/skinfolio/internal/domain"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// QuoteProvider supplies current market data for a set of skins. Prices,
// 7-day change and management clues are computed remotely and only consumed
// here.
type QuoteProvider interface {
	Quotes(ctx context.Context, skinIDs []string) (map[string]domain.SkinQuote, error)
}

// SkinMarketClient talks to the remote skin-market analytics service.
type SkinMarketClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// NewSkinMarketClient creates a client for the skin-market quote API.
func NewSkinMarketClient(apiURL, apiKey string) *SkinMarketClient {
	return &SkinMarketClient{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
}

type quotesRequest struct {
	SkinIDs []string `json:"skin_ids"`
}

type quotesResponse struct {
	Quotes []domain.SkinQuote `json:"quotes"`
}

// Quotes fetches market data for the given skin ids, keyed by skin id.
// Transient failures are retried with a fixed delay.
func (c *SkinMarketClient) Quotes(ctx context.Context, skinIDs []string) (map[string]domain.SkinQuote, error) {
	if len(skinIDs) == 0 {
		return map[string]domain.SkinQuote{}, nil
	}

	body, err := json.Marshal(quotesRequest{SkinIDs: skinIDs})
	if err != nil {
		return nil, errors.Wrap(err, "marshal quotes request")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		resp, err := c.doRequest(ctx, body)
		if err != nil {
			lastErr = err
			continue
		}
		return resp, nil
	}
	return nil, errors.Wrapf(lastErr, "quotes request failed after %d attempts", c.maxRetries)
}

func (c *SkinMarketClient) doRequest(ctx context.Context, body []byte) (map[string]domain.SkinQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v1/quotes", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create quotes request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send quotes request")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read quotes response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quotes API returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed quotesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode quotes response")
	}

	quotes := make(map[string]domain.SkinQuote, len(parsed.Quotes))
	for _, q := range parsed.Quotes {
		quotes[q.SkinID] = q
	}
	return quotes, nil
}
