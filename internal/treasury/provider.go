package treasury

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
)

// DefaultCacheTTL keeps a downloaded curve for most of a trading day
const DefaultCacheTTL = 6 * time.Hour

// CurveSource produces a fresh yield curve
type CurveSource interface {
	FetchCurve(ctx context.Context) (*Curve, error)
}

// CachedProvider serves yields from a cached curve, refreshing it from the
// source once the cache entry expires.
type CachedProvider struct {
	source CurveSource
	cache  Cache
	ttl    time.Duration
}

func NewCachedProvider(source CurveSource, cache Cache, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{source: source, cache: cache, ttl: ttl}
}

// Curve returns the cached curve or fetches a new one. Cache failures are
// logged and bypassed; source failures are returned.
func (p *CachedProvider) Curve(ctx context.Context) (*Curve, error) {
	curve, err := p.cache.GetCurve(ctx)
	if err != nil {
		zap.L().Warn("treasury cache read failed", zap.Error(err))
	}
	if curve != nil {
		return curve, nil
	}

	curve, err = p.source.FetchCurve(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.cache.SetCurve(ctx, curve, p.ttl); err != nil {
		zap.L().Warn("treasury cache write failed", zap.Error(err))
	}
	return curve, nil
}

func (p *CachedProvider) GetYield(ctx context.Context, tenorYears float64) (float64, error) {
	curve, err := p.Curve(ctx)
	if err != nil {
		return 0, err
	}
	t, err := curve.Nearest(tenorYears)
	if err != nil {
		return 0, err
	}
	return t.Yield, nil
}

// StaticProvider serves yields from a fixed curve, typically loaded from config
type StaticProvider struct {
	curve Curve
}

// NewStaticProvider builds a curve from label → decimal yield. Labels must be
// standard tenors; the curve keeps the standard ordering.
func NewStaticProvider(yields map[string]float64) (*StaticProvider, error) {
	for label := range yields {
		if _, ok := standardYears(label); !ok {
			return nil, models.NewInvalidInputError("tenor", label, "not a standard treasury tenor")
		}
	}
	var curve Curve
	for _, std := range StandardTenors {
		if y, ok := yields[std.Label]; ok {
			curve.Tenors = append(curve.Tenors, Tenor{Label: std.Label, Years: std.Years, Yield: y})
		}
	}
	return &StaticProvider{curve: curve}, nil
}

func (s *StaticProvider) FetchCurve(_ context.Context) (*Curve, error) {
	cp := s.curve
	cp.Tenors = append([]Tenor(nil), s.curve.Tenors...)
	return &cp, nil
}

func (s *StaticProvider) GetYield(_ context.Context, tenorYears float64) (float64, error) {
	t, err := s.curve.Nearest(tenorYears)
	if err != nil {
		return 0, err
	}
	return t.Yield, nil
}
