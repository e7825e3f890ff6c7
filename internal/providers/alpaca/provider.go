package alpaca

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/providers"
)

const (
	// Rate limiting for Alpaca Basic Plan (200 requests per minute)
	basicPlanDelay = 350 * time.Millisecond

	// HTTP timeout
	defaultTimeout = 30 * time.Second

	contractsPageSize = 1000
	dateLayout        = "2006-01-02"
)

// AlpacaProvider implements the MarketProvider interface for Alpaca Markets
type AlpacaProvider struct {
	apiKey     string
	secretKey  string
	baseURL    string
	dataURL    string
	httpClient *http.Client
	now        func() time.Time

	// Rate limiting
	minInterval time.Duration
	lastRequest time.Time
	rateMutex   sync.Mutex

	// Performance tracking
	totalRequests    int64
	totalQueueTime   time.Duration
	totalNetworkTime time.Duration
	totalParseTime   time.Duration
	totalBytes       int64
	rateLimitHits    int64
	statsMutex       sync.RWMutex
}

// Option configures an AlpacaProvider
type Option func(*AlpacaProvider)

// WithBaseURL sets the trading API host used for contract listings
func WithBaseURL(u string) Option {
	return func(a *AlpacaProvider) { a.baseURL = strings.TrimRight(u, "/") }
}

// WithDataURL sets the market data host used for bars and snapshots
func WithDataURL(u string) Option {
	return func(a *AlpacaProvider) { a.dataURL = strings.TrimRight(u, "/") }
}

// WithRateLimit sets the minimum spacing between requests
func WithRateLimit(d time.Duration) Option {
	return func(a *AlpacaProvider) { a.minInterval = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(a *AlpacaProvider) { a.httpClient = hc }
}

// WithClock sets the clock expiries are measured from
func WithClock(now func() time.Time) Option {
	return func(a *AlpacaProvider) { a.now = now }
}

// NewAlpacaProvider creates a new Alpaca market data provider
func NewAlpacaProvider(apiKey, secretKey string, options ...Option) *AlpacaProvider {
	a := &AlpacaProvider{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   "https://api.alpaca.markets",
		dataURL:   "https://data.alpaca.markets",
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		now:         time.Now,
		minInterval: basicPlanDelay,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// GetProviderName returns the provider name
func (a *AlpacaProvider) GetProviderName() string {
	return "alpaca"
}

// rateLimit enforces the minimum spacing between requests
func (a *AlpacaProvider) rateLimit(ctx context.Context) (time.Duration, error) {
	a.rateMutex.Lock()
	defer a.rateMutex.Unlock()

	elapsed := time.Since(a.lastRequest)
	if elapsed >= a.minInterval {
		a.lastRequest = time.Now()
		return 0, nil
	}

	waitTime := a.minInterval - elapsed
	timer := time.NewTimer(waitTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
	}
	a.lastRequest = time.Now()
	return waitTime, nil
}

// makeRequest handles HTTP requests with performance tracking
func (a *AlpacaProvider) makeRequest(ctx context.Context, host, endpoint string, dst interface{}) error {
	metrics := providers.PerformanceMetrics{
		RequestCount: 1,
	}
	startTime := time.Now()

	queueTime, err := a.rateLimit(ctx)
	if err != nil {
		return models.NewDataUnavailableError("alpaca", errors.Wrap(err, "waiting for rate limiter"))
	}
	metrics.QueueTime = queueTime
	metrics.RateLimitHit = queueTime > 0

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+endpoint, nil)
	if err != nil {
		return models.NewDataUnavailableError("alpaca", errors.Wrap(err, "creating request"))
	}
	req.Header.Set("APCA-API-KEY-ID", a.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.secretKey)

	networkStart := time.Now()
	resp, err := a.httpClient.Do(req)
	metrics.NetworkTime = time.Since(networkStart)
	if err != nil {
		return models.NewDataUnavailableError("alpaca", errors.Wrap(err, "network request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.NewDataUnavailableError("alpaca", errors.Wrap(err, "reading response"))
	}
	metrics.BytesReceived = int64(len(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RateLimitHit = true
		a.updateStats(metrics)
		return models.NewDataUnavailableError("alpaca", errors.New("rate limited by API"))
	}
	if resp.StatusCode != http.StatusOK {
		a.updateStats(metrics)
		return models.NewDataUnavailableError("alpaca", errors.Errorf("API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	parseStart := time.Now()
	if err := json.Unmarshal(body, dst); err != nil {
		return models.NewDataUnavailableError("alpaca", errors.Wrapf(err, "parsing %s", endpoint))
	}
	metrics.ParseTime = time.Since(parseStart)
	metrics.RequestDuration = time.Since(startTime)

	a.updateStats(metrics)
	return nil
}

// updateStats updates cumulative performance statistics
func (a *AlpacaProvider) updateStats(metrics providers.PerformanceMetrics) {
	a.statsMutex.Lock()
	defer a.statsMutex.Unlock()

	a.totalRequests++
	a.totalQueueTime += metrics.QueueTime
	a.totalNetworkTime += metrics.NetworkTime
	a.totalParseTime += metrics.ParseTime
	a.totalBytes += metrics.BytesReceived
	if metrics.RateLimitHit {
		a.rateLimitHits++
	}
}

// GetPerformanceStats returns averaged performance statistics
func (a *AlpacaProvider) GetPerformanceStats() providers.PerformanceMetrics {
	a.statsMutex.RLock()
	defer a.statsMutex.RUnlock()

	n := a.totalRequests
	if n == 0 {
		return providers.PerformanceMetrics{}
	}
	avgQueueTime := time.Duration(int64(a.totalQueueTime) / n)
	avgNetworkTime := time.Duration(int64(a.totalNetworkTime) / n)
	avgParseTime := time.Duration(int64(a.totalParseTime) / n)

	return providers.PerformanceMetrics{
		RequestDuration: avgQueueTime + avgNetworkTime + avgParseTime,
		QueueTime:       avgQueueTime,
		NetworkTime:     avgNetworkTime,
		ParseTime:       avgParseTime,
		RequestCount:    int(n),
		BytesReceived:   a.totalBytes,
		RateLimitHit:    a.rateLimitHits > 0,
	}
}

// Close cleans up resources
func (a *AlpacaProvider) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

// Alpaca API response structures
type latestBarsResponse struct {
	Bars map[string]alpacaBar `json:"bars"`
}

type alpacaBar struct {
	Close     float64   `json:"c"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	NumTrades int       `json:"n"`
	Open      float64   `json:"o"`
	Timestamp time.Time `json:"t"`
	Volume    int64     `json:"v"`
}

type contractsResponse struct {
	OptionContracts []alpacaContract `json:"option_contracts"`
	NextPageToken   *string          `json:"next_page_token"`
}

type alpacaContract struct {
	ID               string `json:"id"`
	Symbol           string `json:"symbol"`
	UnderlyingSymbol string `json:"underlying_symbol"`
	StrikePrice      string `json:"strike_price"`
	ExpirationDate   string `json:"expiration_date"`
	Type             string `json:"type"`
}

type snapshotsResponse struct {
	Snapshots map[string]alpacaSnapshot `json:"snapshots"`
}

type alpacaSnapshot struct {
	LatestQuote *struct {
		AskPrice float64 `json:"ap"`
		BidPrice float64 `json:"bp"`
	} `json:"latestQuote"`
	LatestTrade *struct {
		Price float64 `json:"p"`
	} `json:"latestTrade"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
}

// GetSpotAndIV returns the latest close of ticker and the implied volatility
// of the listed contract nearest to the requested strike and expiry.
func (a *AlpacaProvider) GetSpotAndIV(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, float64, error) {
	spot, err := a.spot(ctx, ticker)
	if err != nil {
		return 0, 0, err
	}
	snap, err := a.snapshotFor(ctx, ticker, strike, expiryYears, optionType)
	if err != nil {
		return 0, 0, err
	}
	if snap.ImpliedVolatility <= 0 {
		return 0, 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiryYears, Type: optionType, What: "implied volatility not found"}
	}
	return spot, snap.ImpliedVolatility, nil
}

// GetMarketPrice returns the quote midpoint, or the last trade when the book is one-sided
func (a *AlpacaProvider) GetMarketPrice(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, error) {
	snap, err := a.snapshotFor(ctx, ticker, strike, expiryYears, optionType)
	if err != nil {
		return 0, err
	}
	if q := snap.LatestQuote; q != nil && q.AskPrice > 0 && q.BidPrice > 0 {
		return (q.AskPrice + q.BidPrice) / 2, nil
	}
	if tr := snap.LatestTrade; tr != nil && tr.Price > 0 {
		return tr.Price, nil
	}
	return 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiryYears, Type: optionType, What: "no quote or trade"}
}

// GetSpot returns the close of the latest one-minute bar
func (a *AlpacaProvider) GetSpot(ctx context.Context, ticker string) (float64, error) {
	return a.spot(ctx, ticker)
}

func (a *AlpacaProvider) spot(ctx context.Context, ticker string) (float64, error) {
	var resp latestBarsResponse
	endpoint := "/v2/stocks/bars/latest?" + url.Values{"symbols": {ticker}}.Encode()
	if err := a.makeRequest(ctx, a.dataURL, endpoint, &resp); err != nil {
		return 0, errors.Wrapf(err, "latest bar for %s", ticker)
	}
	bar, ok := resp.Bars[ticker]
	if !ok || bar.Close <= 0 {
		return 0, &models.MissingMarketDataError{Ticker: ticker, What: "no latest bar"}
	}
	return bar.Close, nil
}

// snapshotFor locates the contract and fetches its snapshot
func (a *AlpacaProvider) snapshotFor(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (alpacaSnapshot, error) {
	contract, err := a.findContract(ctx, ticker, strike, expiryYears, optionType)
	if err != nil {
		return alpacaSnapshot{}, err
	}

	var resp snapshotsResponse
	endpoint := "/v1beta1/options/snapshots?" + url.Values{"symbols": {contract.Symbol}}.Encode()
	if err := a.makeRequest(ctx, a.dataURL, endpoint, &resp); err != nil {
		return alpacaSnapshot{}, errors.Wrapf(err, "snapshot for %s", contract.Symbol)
	}
	snap, ok := resp.Snapshots[contract.Symbol]
	if !ok {
		return alpacaSnapshot{}, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiryYears, Type: optionType, What: "no snapshot for " + contract.Symbol}
	}
	return snap, nil
}

// findContract rounds strike to the listed increment and picks the listed
// expiration nearest to expiryYears from now.
func (a *AlpacaProvider) findContract(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (alpacaContract, error) {
	listedStrike := providers.RoundStrike(strike, providers.StrikeIncrement)
	now := a.now()
	target := providers.ExpiryDate(now, expiryYears)

	params := url.Values{
		"underlying_symbols":  {ticker},
		"type":                {string(optionType)},
		"strike_price_gte":    {strconv.FormatFloat(listedStrike, 'f', -1, 64)},
		"strike_price_lte":    {strconv.FormatFloat(listedStrike, 'f', -1, 64)},
		"expiration_date_gte": {now.Format(dateLayout)},
		"limit":               {strconv.Itoa(contractsPageSize)},
	}

	var contracts []alpacaContract
	for {
		var resp contractsResponse
		if err := a.makeRequest(ctx, a.baseURL, "/v2/options/contracts?"+params.Encode(), &resp); err != nil {
			return alpacaContract{}, errors.Wrapf(err, "option contracts for %s", ticker)
		}
		contracts = append(contracts, resp.OptionContracts...)
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		params.Set("page_token", *resp.NextPageToken)
	}

	var (
		dates  []time.Time
		byDate = make(map[time.Time]alpacaContract)
	)
	for _, c := range contracts {
		k, err := strconv.ParseFloat(c.StrikePrice, 64)
		if err != nil || k != listedStrike || !strings.EqualFold(c.Type, string(optionType)) {
			continue
		}
		exp, err := time.Parse(dateLayout, c.ExpirationDate)
		if err != nil {
			zap.L().Debug("skipping contract with bad expiration", zap.String("symbol", c.Symbol), zap.String("expiration", c.ExpirationDate))
			continue
		}
		if _, seen := byDate[exp]; !seen {
			dates = append(dates, exp)
			byDate[exp] = c
		}
	}

	best, ok := providers.NearestExpiry(dates, target)
	if !ok {
		return alpacaContract{}, &models.MissingMarketDataError{Ticker: ticker, Strike: listedStrike, Expiry: expiryYears, Type: optionType, What: "no listed contract"}
	}
	return byDate[best], nil
}
