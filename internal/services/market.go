package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/config"
	"github.com/jwaldner/optionlab/internal/providers"
	"github.com/jwaldner/optionlab/internal/providers/alpaca"
	"github.com/jwaldner/optionlab/internal/providers/snapshot"
	"github.com/jwaldner/optionlab/internal/treasury"
)

// Market owns the configured providers
type Market struct {
	Data    providers.MarketData
	Manager *providers.ProviderManager
	cache   treasury.Cache
}

// NewMarket builds the market data provider and the yield source described by cfg
func NewMarket(ctx context.Context, cfg *config.Config) (*Market, error) {
	var provider providers.MarketProvider
	switch strings.ToLower(cfg.Provider) {
	case "snapshot":
		p, err := snapshot.Load(cfg.SnapshotFile)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		if !cfg.HasAlpacaCredentials() {
			return nil, errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY are required (set in config.yaml or environment variable)")
		}
		provider = alpaca.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.SecretKey,
			alpaca.WithBaseURL(cfg.Alpaca.BaseURL),
			alpaca.WithDataURL(cfg.Alpaca.DataURL),
			alpaca.WithRateLimit(time.Duration(cfg.Alpaca.RateLimitMS)*time.Millisecond),
		)
	}
	manager := providers.NewProviderManager(provider)

	m := &Market{Manager: manager}
	yields, err := m.yieldProvider(ctx, cfg.Treasury)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}
	m.Data = providers.MarketData{Underlying: manager, Quotes: manager, Yields: yields}
	return m, nil
}

func (m *Market) yieldProvider(ctx context.Context, tc config.TreasuryConfig) (providers.YieldProvider, error) {
	if len(tc.StaticCurve) > 0 {
		zap.L().Info("using static treasury curve", zap.Int("tenors", len(tc.StaticCurve)))
		return treasury.NewStaticProvider(tc.StaticCurve)
	}

	options := []treasury.ClientOption{
		treasury.WithHTTPClient(&http.Client{Timeout: time.Duration(tc.TimeoutSecs) * time.Second}),
	}
	if tc.CSVURL != "" {
		options = append(options, treasury.WithURL(tc.CSVURL))
	}
	client := treasury.NewClient(options...)

	if tc.RedisAddr != "" {
		cache, err := treasury.NewRedisCache(ctx, tc.RedisAddr)
		if err != nil {
			return nil, errors.Wrap(err, "treasury cache")
		}
		m.cache = cache
	} else {
		m.cache = treasury.NewMemoryCache()
	}
	return treasury.NewCachedProvider(client, m.cache, tc.CacheTTL), nil
}

// Close releases the provider and the curve cache
func (m *Market) Close() error {
	err := m.Manager.Close()
	if m.cache != nil {
		if cerr := m.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
