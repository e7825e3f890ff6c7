package services

import (
	"context"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/payoff"
	"github.com/jwaldner/optionlab/internal/pricing"
	"github.com/jwaldner/optionlab/internal/providers"
	"github.com/jwaldner/optionlab/internal/report"
	"github.com/jwaldner/optionlab/internal/strategy"
)

const (
	RateFromRequest  = "request"
	RateFromTreasury = "treasury"
)

// AnalysisService runs requests end to end: market data, pricing, payoff and
// the display report
type AnalysisService struct {
	market  providers.MarketData
	workers int
}

// NewAnalysisService binds the service to its market data
func NewAnalysisService(market providers.MarketData) *AnalysisService {
	return &AnalysisService{market: market, workers: runtime.NumCPU()}
}

// StrategyResult is one analyzed strategy
type StrategyResult struct {
	Request    models.StrategyRequest
	Strategy   *strategy.Strategy
	Curve      *payoff.Curve
	Report     models.StrategyReport
	RateSource string
}

// Rate returns the request's rate when given, otherwise the yield of the
// treasury tenor nearest expiryYears
func (s *AnalysisService) Rate(ctx context.Context, override *float64, expiryYears float64) (float64, string, error) {
	if override != nil {
		return *override, RateFromRequest, nil
	}
	if s.market.Yields == nil {
		return 0, "", models.NewDataUnavailableError("treasury", errors.New("no yield provider configured"))
	}
	rate, err := s.market.Yields.GetYield(ctx, expiryYears)
	if err != nil {
		return 0, "", errors.Wrap(err, "risk-free rate")
	}
	return rate, RateFromTreasury, nil
}

// Analyze builds, prices and analyzes one strategy. req must already be
// normalized by the RequestService.
func (s *AnalysisService) Analyze(ctx context.Context, req models.StrategyRequest) (*StrategyResult, error) {
	if req.Offset == nil {
		return nil, models.NewInvalidInputError("offset", nil, "is required")
	}
	style, err := pricing.ParseExerciseStyle(req.ExerciseStyle)
	if err != nil {
		return nil, err
	}
	rate, source, err := s.Rate(ctx, req.RiskFreeRate, req.ExpiryYears)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(strategy.Params{
		Ticker: req.Ticker,
		Offset: *req.Offset,
		Expiry: req.ExpiryYears,
		Rate:   rate,
		Steps:  req.Steps,
		Style:  style,
	}, s.market)
	if err != nil {
		return nil, err
	}
	if err := strat.Build(ctx, req.Strategy); err != nil {
		return nil, err
	}

	var r payoff.Range
	if req.Range != nil {
		r = payoff.Range{Low: req.Range.Low, High: req.Range.High, Samples: req.Range.Samples}
	} else {
		r, err = payoff.SpotRange(strat.Spot(), strat.Volatility(), req.ExpiryYears, req.RangeMultiple, req.Samples)
		if err != nil {
			return nil, err
		}
	}
	curve, err := payoff.Analyze(strat, r, payoff.WithPremium(payoff.PremiumSource(req.PremiumSource)))
	if err != nil {
		return nil, err
	}

	zap.L().With(
		zap.String("ticker", req.Ticker),
		zap.String("strategy", strat.Name()),
	).Info("strategy analyzed",
		zap.Float64("price", strat.Price()),
		zap.Float64s("breakEvens", curve.BreakEvens),
		zap.String("rateSource", source),
	)
	return &StrategyResult{
		Request:    req,
		Strategy:   strat,
		Curve:      curve,
		Report:     report.Strategy(strat, curve),
		RateSource: source,
	}, nil
}

// BatchOutcome holds either a result or the error of one batch entry
type BatchOutcome struct {
	Result *StrategyResult
	Err    error
}

// AnalyzeBatch analyzes independent requests concurrently. A failing entry
// does not stop the others; outcomes keep the input order.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, reqs []models.StrategyRequest) []BatchOutcome {
	start := time.Now()
	out := make([]BatchOutcome, len(reqs))
	var g errgroup.Group
	if s.workers > 0 {
		g.SetLimit(s.workers)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result, out[i].Err = s.Analyze(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	zap.L().Info("batch analyzed",
		zap.Int("requests", len(reqs)),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

// DigitalResult is a priced cash-or-nothing option with the inputs used
type DigitalResult struct {
	Option     models.DigitalOption
	Spot       float64
	Volatility float64
	Price      float64
	RateSource string
}

// Digital prices a cash-or-nothing option. Spot and volatility missing from
// the request are looked up for the ticker.
func (s *AnalysisService) Digital(ctx context.Context, req models.DigitalRequest) (*DigitalResult, error) {
	typ, err := models.ParseOptionType(req.OptionType)
	if err != nil {
		return nil, err
	}
	rate, source, err := s.Rate(ctx, req.RiskFreeRate, req.ExpiryYears)
	if err != nil {
		return nil, err
	}

	var spot, vol float64
	if req.Spot != nil {
		spot = *req.Spot
	} else {
		if s.market.Underlying == nil {
			return nil, &models.MissingMarketDataError{Ticker: req.Ticker, What: "no underlying market data provider"}
		}
		if spot, err = s.market.Underlying.GetSpot(ctx, req.Ticker); err != nil {
			return nil, errors.Wrapf(err, "spot for %s", req.Ticker)
		}
	}
	if req.Volatility != nil {
		vol = *req.Volatility
	} else {
		if s.market.Underlying == nil {
			return nil, &models.MissingMarketDataError{Ticker: req.Ticker, What: "no underlying market data provider"}
		}
		if _, vol, err = s.market.Underlying.GetSpotAndIV(ctx, req.Ticker, req.Strike, req.ExpiryYears, typ); err != nil {
			return nil, errors.Wrapf(err, "volatility for %s", req.Ticker)
		}
	}

	opt := models.DigitalOption{
		Ticker:       req.Ticker,
		RiskFreeRate: rate,
		Expiry:       req.ExpiryYears,
		Strike:       req.Strike,
		Type:         typ,
		PayoffAmount: req.PayoffAmount,
	}
	price, err := pricing.Digital(opt, spot, vol)
	if err != nil {
		return nil, err
	}
	return &DigitalResult{Option: opt, Spot: spot, Volatility: vol, Price: price, RateSource: source}, nil
}

// PriceResult is a single vanilla valuation, with the implied volatility of
// an observed price when one was supplied
type PriceResult struct {
	Priced      models.PricedOption
	MarketPrice *float64
	ImpliedVol  *float64
	RateSource  string
}

// Price values one vanilla option from explicit inputs
func (s *AnalysisService) Price(ctx context.Context, req models.PriceRequest) (*PriceResult, error) {
	typ, err := models.ParseOptionType(req.OptionType)
	if err != nil {
		return nil, err
	}
	style, err := pricing.ParseExerciseStyle(req.ExerciseStyle)
	if err != nil {
		return nil, err
	}
	rate, source, err := s.Rate(ctx, req.RiskFreeRate, req.ExpiryYears)
	if err != nil {
		return nil, err
	}

	engine := pricing.NewEngine(req.Steps)
	engine.Lattice.Style = style
	opt := models.VanillaOption{Strike: req.Strike, Expiry: req.ExpiryYears, Type: typ}
	in := models.MarketInputs{Spot: req.Spot, Volatility: req.Volatility, RiskFreeRate: rate}
	priced, err := engine.Price(opt, in)
	if err != nil {
		return nil, err
	}

	res := &PriceResult{Priced: priced, MarketPrice: req.MarketPrice, RateSource: source}
	if req.MarketPrice != nil {
		iv, err := pricing.ImpliedVolatility(*req.MarketPrice, opt, in)
		if err != nil {
			return nil, errors.Wrap(err, "implied volatility of market price")
		}
		res.ImpliedVol = &iv
	}
	return res, nil
}

// Skew measures the volatility skew around strike and samples the smile
// across strikes
func (s *AnalysisService) Skew(ctx context.Context, ticker string, strike, expiryYears float64, typ models.OptionType, strikes []float64) (float64, []providers.SkewPoint, error) {
	if s.market.Underlying == nil {
		return 0, nil, &models.MissingMarketDataError{Ticker: ticker, What: "no underlying market data provider"}
	}
	skew, err := providers.VolSkew(ctx, s.market.Underlying, ticker, strike, expiryYears, typ)
	if err != nil {
		return 0, nil, err
	}
	if len(strikes) == 0 {
		return skew, nil, nil
	}
	curve, err := providers.SkewCurve(ctx, s.market.Underlying, ticker, strikes, expiryYears, typ)
	if err != nil {
		return 0, nil, err
	}
	return skew, curve, nil
}
