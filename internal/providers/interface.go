package providers

import (
	"context"
	"time"

	"github.com/jwaldner/optionlab/internal/models"
)

// PerformanceMetrics tracks timing and performance data for provider operations
type PerformanceMetrics struct {
	RequestDuration time.Duration `json:"request_duration"`
	QueueTime       time.Duration `json:"queue_time"`   // Time waiting for rate limiter
	NetworkTime     time.Duration `json:"network_time"` // Actual HTTP request time
	ParseTime       time.Duration `json:"parse_time"`   // JSON parsing time
	RequestCount    int           `json:"request_count"`
	BytesReceived   int64         `json:"bytes_received"`
	RateLimitHit    bool          `json:"rate_limit_hit"`
}

// YieldProvider returns the annualized risk-free rate for the standard tenor
// nearest to tenorYears.
type YieldProvider interface {
	GetYield(ctx context.Context, tenorYears float64) (float64, error)
}

// UnderlyingProvider returns the spot price of ticker and the implied
// volatility quoted for the given strike, expiry and type. An absent implied
// volatility is reported as *models.MissingMarketDataError.
type UnderlyingProvider interface {
	GetSpot(ctx context.Context, ticker string) (float64, error)
	GetSpotAndIV(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (spot, iv float64, err error)
}

// QuoteProvider returns an observed option price used for comparison only
type QuoteProvider interface {
	GetMarketPrice(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, error)
}

// MarketProvider defines the interface for option market data providers
type MarketProvider interface {
	UnderlyingProvider
	QuoteProvider

	// GetProviderName returns the name of the provider (e.g., "alpaca", "snapshot")
	GetProviderName() string

	// GetPerformanceStats returns cumulative performance statistics
	GetPerformanceStats() PerformanceMetrics

	// Close cleans up any resources (connections, rate limiters, etc.)
	Close() error
}

// MarketData is everything a strategy evaluation pulls from the outside
type MarketData struct {
	Underlying UnderlyingProvider
	Quotes     QuoteProvider
	Yields     YieldProvider
}
