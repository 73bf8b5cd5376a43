package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"tradeengine/internal/candle"
	"tradeengine/internal/logger"
)

const maxHistoryLimit = 1500

// retryBackoff is the 1s/2s/3s schedule FetchCandles retries on.
var retryBackoff = []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}

// Source implements the historical-candle and current-price halves of
// the exchange data-feed contract.
type Source struct {
	cfg    Config
	client *futures.Client
	log    *logger.Logger
}

// New builds a Source. `cfg.APIKey`/`APISecret` may be empty for the
// read-only historical-candle path; they are required for live order
// operations.
func New(cfg Config, log *logger.Logger) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("binance: invalid proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("binance: default transport unavailable for proxying")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Source{cfg: final, client: client, log: log}, nil
}

// FetchCandles retrieves up to `limit` candles ending at (or before)
// `endTime` for symbol/timeframe, retrying transient failures up to 3
// times with 1s/2s/3s backoff and a 10s per-call timeout. The last
// candle returned may still be forming; callers drop it where needed.
func (s *Source) FetchCandles(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error) {
	if limit <= 0 {
		limit = 500
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	var lastErr error
	for attempt := 0; attempt <= len(retryBackoff); attempt++ {
		out, err := s.fetchOnce(ctx, symbol, tf, limit, endTime)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt < len(retryBackoff) {
			s.log.Warnf("binance: fetchCandles %s %s attempt %d failed: %v, retrying", symbol, tf, attempt+1, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff[attempt]):
			}
		}
	}
	return nil, fmt.Errorf("binance: fetchCandles %s %s exhausted retries: %w", symbol, tf, lastErr)
}

func (s *Source) fetchOnce(ctx context.Context, symbol string, tf candle.Timeframe, limit int, endTime int64) ([]candle.Candle, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	defer cancel()

	svc := s.client.NewKlinesService().
		Symbol(strings.ToUpper(symbol)).
		Interval(string(tf)).
		Limit(limit)
	if endTime > 0 {
		svc = svc.EndTime(endTime)
	}
	kls, err := svc.Do(callCtx)
	if err != nil {
		return nil, err
	}
	out := make([]candle.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, candle.Candle{
			Symbol:         strings.ToUpper(symbol),
			Timeframe:      tf,
			OpenTime:       kl.OpenTime,
			CloseTime:      kl.CloseTime,
			Open:           parseFloat(kl.Open),
			High:           parseFloat(kl.High),
			Low:            parseFloat(kl.Low),
			Close:          parseFloat(kl.Close),
			Volume:         parseFloat(kl.Volume),
			TakerBuyVolume: parseFloat(kl.TakerBuyBaseAssetVolume),
		})
	}
	return out, nil
}

// CurrentPrice returns the latest traded (ticker) price for symbol.
func (s *Source) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.HTTPTimeout)
	defer cancel()
	prices, err := s.client.NewListPricesService().Symbol(strings.ToUpper(symbol)).Do(callCtx)
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("binance: no price returned for %s", symbol)
	}
	return parseFloat(prices[0].Price), nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
