// Package exchangerate fetches market JPY rates from the frankfurter API.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeledger/backend/internal/domain/shared/valueobject"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.frankfurter.app"

// Client quotes one JPY in a foreign currency. Rates are rounded to four
// decimal places, the precision invoices store.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRate returns the rate published for date. A zero date asks for the
// latest rate. An unknown currency or a date without a publication yields
// ok=false with no error.
func (c *Client) FetchRate(ctx context.Context, currency valueobject.CurrencyCode, date time.Time) (decimal.Decimal, bool, error) {
	if currency.IsBase() {
		return decimal.NewFromInt(1), true, nil
	}

	path := "latest"
	if !date.IsZero() {
		path = date.Format(time.DateOnly)
	}
	url := fmt.Sprintf("%s/%s?from=%s&to=%s", c.baseURL, path, valueobject.JPY, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("fetch %s rate: %w", currency, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Debug("no published rate",
			zap.String("currency", currency.String()),
			zap.String("date", path),
			zap.Int("status", resp.StatusCode),
		)
		return decimal.Zero, false, nil
	case resp.StatusCode != http.StatusOK:
		return decimal.Zero, false, fmt.Errorf("fetch %s rate: unexpected status %d", currency, resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, false, fmt.Errorf("decode %s rate: %w", currency, err)
	}
	rate, ok := body.Rates[currency.String()]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, false, nil
	}
	return valueobject.Round4(rate), true, nil
}
