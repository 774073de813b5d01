package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"sentivol/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches daily market series from the CoinGecko
// free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting:
// 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchDailySeries returns the trailing `days` daily points of price,
// volume, and market cap for one asset, sorted ascending by date.
// Millisecond timestamps are truncated to UTC calendar dates; when the
// provider hands back several points for the same day the last one
// wins.
func (p *CoinGeckoProvider) FetchDailySeries(ctx context.Context, assetID string, days int) ([]domain.MarketPoint, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-daily-series")
	defer span.End()

	if assetID == "" {
		return nil, fmt.Errorf("asset id is required")
	}
	if days <= 0 {
		days = 7
	}

	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		p.baseURL, assetID, days)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch daily series for %s: %w", assetID, err)
	}

	var raw struct {
		Prices       [][]float64 `json:"prices"`
		TotalVolumes [][]float64 `json:"total_volumes"`
		MarketCaps   [][]float64 `json:"market_caps"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse daily series for %s: %w", assetID, err)
	}

	byDate := make(map[time.Time]*domain.MarketPoint, len(raw.Prices))
	point := func(date time.Time) *domain.MarketPoint {
		pt, ok := byDate[date]
		if !ok {
			pt = &domain.MarketPoint{Date: date}
			byDate[date] = pt
		}
		return pt
	}
	for _, pair := range raw.Prices {
		if len(pair) < 2 {
			continue
		}
		point(msToDate(pair[0])).Price = pair[1]
	}
	for _, pair := range raw.TotalVolumes {
		if len(pair) < 2 {
			continue
		}
		point(msToDate(pair[0])).Volume = pair[1]
	}
	for _, pair := range raw.MarketCaps {
		if len(pair) < 2 {
			continue
		}
		point(msToDate(pair[0])).MarketCap = pair[1]
	}

	points := make([]domain.MarketPoint, 0, len(byDate))
	for _, pt := range byDate {
		points = append(points, *pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

func msToDate(ms float64) time.Time {
	t := time.UnixMilli(int64(ms)).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
