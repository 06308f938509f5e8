package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/gatekeeper/internal/models"
)

// ProviderConfig configures the HTTP bar provider client.
type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	APISecret    string
	Timeframe    string
	Feed         string
	PageLimit    int
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
}

// DefaultProviderConfig returns recommended defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		BaseURL:      "https://data.alpaca.markets",
		Timeframe:    "3Min",
		Feed:         "sip",
		PageLimit:    10000,
		Timeout:      30 * time.Second,
		MaxRetries:   5,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    3.0,
	}
}

// HTTPBarSource fetches historical bars from the provider's REST API,
// with retries and client-side rate limiting.
type HTTPBarSource struct {
	cfg     ProviderConfig
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewHTTPBarSource creates an HTTP bar source.
func NewHTTPBarSource(cfg ProviderConfig, logger *logrus.Logger) *HTTPBarSource {
	if logger == nil {
		logger = logrus.New()
	}
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.Logger = nil

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 3.0
	}

	return &HTTPBarSource{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		logger:  logger,
	}
}

type barPayload struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

type barsResponse struct {
	Bars          map[string][]barPayload `json:"bars"`
	NextPageToken *string                 `json:"next_page_token"`
}

// Fetch retrieves all pages of bars for the symbol and range. A 200
// response with no rows is an explicit empty result, not an error.
func (s *HTTPBarSource) Fetch(ctx context.Context, symbol string, from, to time.Time) (FetchResult, error) {
	if symbol == "" {
		return FetchResult{}, models.ErrSymbolRequired
	}

	var bars []models.Bar
	pageToken := ""
	for {
		page, next, err := s.fetchPage(ctx, symbol, from, to, pageToken)
		if err != nil {
			return FetchResult{}, err
		}
		bars = append(bars, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	if len(bars) == 0 {
		return FetchResult{Empty: true}, nil
	}
	return FetchResult{Bars: bars}, nil
}

func (s *HTTPBarSource) fetchPage(ctx context.Context, symbol string, from, to time.Time, pageToken string) ([]models.Bar, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limiter error: %w", err)
	}

	endpoint, err := url.Parse(s.cfg.BaseURL + "/v2/stocks/bars")
	if err != nil {
		return nil, "", fmt.Errorf("invalid provider URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("symbols", symbol)
	q.Set("timeframe", s.cfg.Timeframe)
	q.Set("start", from.UTC().Format(time.RFC3339))
	q.Set("end", to.UTC().Format(time.RFC3339))
	q.Set("limit", fmt.Sprintf("%d", s.cfg.PageLimit))
	q.Set("adjustment", "all")
	q.Set("feed", s.cfg.Feed)
	q.Set("sort", "asc")
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	endpoint.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build bar request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", s.cfg.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", s.cfg.APISecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("bar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("bar request returned %d: %s", resp.StatusCode, string(body))
	}

	var payload barsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("failed to decode bar response: %w", err)
	}

	rows := payload.Bars[symbol]
	bars := make([]models.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, models.Bar{
			Timestamp: r.Timestamp.UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}

	next := ""
	if payload.NextPageToken != nil {
		next = *payload.NextPageToken
	}
	return bars, next, nil
}
