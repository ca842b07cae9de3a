// Package market implements the client for the external trading-platform data
// API. It fetches closed positions and open-position value for one trading
// identity; callers decide how fetch failures degrade.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const closedPositionsLimit = 50

// ClosedPosition is a settled position reported by the platform
type ClosedPosition struct {
	Market      string  `json:"market,omitempty"`
	RealizedPnl float64 `json:"realizedPnl"`
	Timestamp   int64   `json:"timestamp"` // close time, epoch seconds; 0 means unknown
}

// AccountData is the combined per-identity snapshot used for PnL aggregation
type AccountData struct {
	ClosedPositions []ClosedPosition
	OpenValue       float64
}

// Client talks to the market data service using a fixed bearer credential
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a market data client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetClosedPositions fetches up to 50 most recent closed positions for a
// trading identity, sorted by realized PnL descending. A non-nil start limits
// results to positions closed at or after that epoch-second timestamp.
func (c *Client) GetClosedPositions(ctx context.Context, tradingAddress string, start *int64) ([]ClosedPosition, error) {
	params := url.Values{}
	params.Set("user", tradingAddress)
	params.Set("limit", strconv.Itoa(closedPositionsLimit))
	params.Set("sortBy", "REALIZEDPNL")
	if start != nil {
		params.Set("start", strconv.FormatInt(*start, 10))
	}

	endpoint := fmt.Sprintf("%s/closed-positions?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var positions []ClosedPosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return nil, fmt.Errorf("error parsing closed positions: %w", err)
	}

	return positions, nil
}

// GetOpenValue fetches the current aggregate open-position value for a trading
// identity.
func (c *Client) GetOpenValue(ctx context.Context, tradingAddress string) (float64, error) {
	params := url.Values{}
	params.Set("user", tradingAddress)

	endpoint := fmt.Sprintf("%s/value?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, err
	}

	var result struct {
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("error parsing open value: %w", err)
	}

	return result.Value, nil
}

// FetchAccountData issues both fetches in parallel. A failure of either call
// fails the whole snapshot; callers treat that as a soft failure for the one
// identity.
func (c *Client) FetchAccountData(ctx context.Context, tradingAddress string, start *int64) (*AccountData, error) {
	var (
		wg          sync.WaitGroup
		positions   []ClosedPosition
		openValue   float64
		posErr      error
		valueErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		positions, posErr = c.GetClosedPositions(ctx, tradingAddress, start)
	}()
	go func() {
		defer wg.Done()
		openValue, valueErr = c.GetOpenValue(ctx, tradingAddress)
	}()
	wg.Wait()

	if posErr != nil {
		return nil, fmt.Errorf("closed positions fetch failed: %w", posErr)
	}
	if valueErr != nil {
		return nil, fmt.Errorf("open value fetch failed: %w", valueErr)
	}

	return &AccountData{ClosedPositions: positions, OpenValue: openValue}, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching market data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
