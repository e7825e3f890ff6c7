package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
)

// SlowRequestThreshold is the duration above which provider calls are logged as slow
const SlowRequestThreshold = 5 * time.Second

// ProviderManager manages a market data provider and provides performance monitoring
type ProviderManager struct {
	provider MarketProvider
}

// NewProviderManager creates a new provider manager
func NewProviderManager(provider MarketProvider) *ProviderManager {
	return &ProviderManager{
		provider: provider,
	}
}

// GetSpot is a convenience wrapper that adds logging
func (pm *ProviderManager) GetSpot(ctx context.Context, ticker string) (float64, error) {
	start := time.Now()
	spot, err := pm.provider.GetSpot(ctx, ticker)
	pm.observe("spot", ticker, 0, "", start, err)
	if err != nil {
		return 0, errors.Wrapf(err, "provider %s", pm.provider.GetProviderName())
	}
	return spot, nil
}

// GetSpotAndIV is a convenience wrapper that adds logging
func (pm *ProviderManager) GetSpotAndIV(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, float64, error) {
	start := time.Now()
	spot, iv, err := pm.provider.GetSpotAndIV(ctx, ticker, strike, expiryYears, optionType)
	pm.observe("spot and implied volatility", ticker, strike, optionType, start, err)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "provider %s", pm.provider.GetProviderName())
	}
	return spot, iv, nil
}

// GetMarketPrice is a convenience wrapper that adds logging
func (pm *ProviderManager) GetMarketPrice(ctx context.Context, ticker string, strike, expiryYears float64, optionType models.OptionType) (float64, error) {
	start := time.Now()
	price, err := pm.provider.GetMarketPrice(ctx, ticker, strike, expiryYears, optionType)
	pm.observe("market price", ticker, strike, optionType, start, err)
	if err != nil {
		return 0, errors.Wrapf(err, "provider %s", pm.provider.GetProviderName())
	}
	return price, nil
}

func (pm *ProviderManager) observe(what, ticker string, strike float64, optionType models.OptionType, start time.Time, err error) {
	elapsed := time.Since(start)
	zctx := zap.L().With(
		zap.String("provider", pm.provider.GetProviderName()),
		zap.String("ticker", ticker),
		zap.Float64("strike", strike),
		zap.String("type", string(optionType)),
		zap.Duration("elapsed", elapsed),
	)
	if elapsed > SlowRequestThreshold {
		zctx.Warn("slow provider request", zap.String("request", what))
	}
	if err != nil {
		zctx.Info("provider request failed", zap.String("request", what), zap.Error(err))
		return
	}
	zctx.Debug("provider request", zap.String("request", what))
}

// GetProvider returns the underlying provider
func (pm *ProviderManager) GetProvider() MarketProvider {
	return pm.provider
}

// GetPerformanceReport returns a detailed performance report
func (pm *ProviderManager) GetPerformanceReport() string {
	stats := pm.provider.GetPerformanceStats()

	return fmt.Sprintf(`
Provider Performance Report (%s)
=====================================
Requests Made:      %d
Average Queue Time: %v
Average Network:    %v
Average Parse:      %v
Total Duration:     %v
Rate Limit Hits:    %v
Bytes Received:     %d
`,
		pm.provider.GetProviderName(),
		stats.RequestCount,
		stats.QueueTime,
		stats.NetworkTime,
		stats.ParseTime,
		stats.RequestDuration,
		stats.RateLimitHit,
		stats.BytesReceived,
	)
}

// Close cleans up the provider
func (pm *ProviderManager) Close() error {
	return pm.provider.Close()
}
