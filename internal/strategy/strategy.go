// Package strategy assembles named multi-leg option positions from a recipe
// table and aggregates their prices and Greeks.
package strategy

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/pricing"
	"github.com/jwaldner/optionlab/internal/providers"
)

// Params fix everything shared by the legs of one strategy
type Params struct {
	Ticker string
	// Offset is the fractional distance between adjacent strikes, in (0,1)
	Offset float64
	Expiry float64
	Rate   float64
	Steps  int
	Style  pricing.ExerciseStyle
}

// Strategy is an ordered set of legs on one underlying, expiry and rate
type Strategy struct {
	params Params
	market providers.MarketData
	engine *pricing.Engine

	name string
	spot float64
	legs []Leg
}

// StrikeFor is the single place strikes are chosen. ATM is spot; a call one
// step in the money (or a put one step out) sits depth*offset below spot; the
// mirror cases sit above.
func StrikeFor(spot, offset float64, typ models.OptionType, m models.Moneyness, depth int) (float64, error) {
	if !(spot > 0) || math.IsInf(spot, 0) {
		return 0, models.NewInvalidInputError("spot", spot, "must be positive and finite")
	}
	var dir float64
	switch {
	case m == models.ATM:
		return spot, nil
	case (m == models.ITM && typ == models.Call) || (m == models.OTM && typ == models.Put):
		dir = -1
	case (m == models.OTM && typ == models.Call) || (m == models.ITM && typ == models.Put):
		dir = 1
	default:
		return 0, models.NewInvalidInputError("moneyness", m, "must be atm, itm or otm for a call or put")
	}
	if depth < 1 {
		return 0, models.NewInvalidInputError("depth", depth, "must be at least 1 away from the money")
	}

	strike := spot * (1 + dir*float64(depth)*offset)
	if strike <= 0 {
		return 0, models.NewInvalidInputError("strike", strike, "offset and depth put the strike at or below zero")
	}
	return strike, nil
}

// New validates p and binds the strategy to its market data. No legs are
// built until Build is called.
func New(p Params, market providers.MarketData) (*Strategy, error) {
	if p.Ticker == "" {
		return nil, models.NewInvalidInputError("ticker", p.Ticker, "must not be empty")
	}
	if math.IsNaN(p.Offset) || p.Offset <= 0 || p.Offset >= 1 {
		return nil, models.NewInvalidInputError("offset", p.Offset, "must lie strictly between 0 and 1")
	}
	if math.IsNaN(p.Expiry) || math.IsInf(p.Expiry, 0) || p.Expiry <= 0 {
		return nil, models.NewInvalidInputError("expiry", p.Expiry, "must be a positive number of years")
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return nil, models.NewInvalidInputError("rate", p.Rate, "must be finite")
	}
	if p.Steps == 0 {
		p.Steps = pricing.DefaultSteps
	}
	if p.Steps < 1 {
		return nil, models.NewInvalidInputError("steps", p.Steps, "must be at least 1")
	}
	if p.Style == "" {
		p.Style = pricing.European
	}
	if market.Underlying == nil {
		return nil, &models.MissingMarketDataError{Ticker: p.Ticker, What: "no underlying market data provider"}
	}

	engine := pricing.NewEngine(p.Steps)
	engine.Lattice.Style = p.Style
	return &Strategy{params: p, market: market, engine: engine}, nil
}

// Build replaces the legs with those of the named recipe. On error the
// previous legs are kept.
func (s *Strategy) Build(ctx context.Context, name string) error {
	recipe, err := Lookup(name)
	if err != nil {
		return err
	}

	spot, err := s.market.Underlying.GetSpot(ctx, s.params.Ticker)
	if err != nil {
		return errors.Wrapf(err, "spot for %s", s.params.Ticker)
	}
	if !(spot > 0) {
		return &models.MissingMarketDataError{Ticker: s.params.Ticker, What: "no positive spot price"}
	}

	legs := make([]Leg, 0, len(recipe.Legs))
	for i, spec := range recipe.Legs {
		l, err := s.buildLeg(ctx, spec, spot)
		if err != nil {
			return errors.Wrapf(err, "%s leg %d", recipe.Name, i+1)
		}
		legs = append(legs, l)
	}

	s.name = recipe.Name
	s.spot = spot
	s.legs = legs

	zap.L().Debug("built strategy",
		zap.String("ticker", s.params.Ticker),
		zap.String("strategy", recipe.Name),
		zap.Float64("spot", spot),
		zap.Int("legs", len(legs)),
		zap.Float64("price", s.Price()),
	)
	return nil
}

func (s *Strategy) buildLeg(ctx context.Context, spec LegSpec, spot float64) (Leg, error) {
	l := Leg{
		Instrument: spec.Instrument,
		Direction:  spec.Direction,
		Units:      spec.Units,
		Moneyness:  spec.Moneyness,
		Depth:      spec.Depth,
		Spot:       spot,
	}
	typ, isOption := spec.Instrument.OptionType()
	if !isOption {
		return l, nil
	}

	strike, err := StrikeFor(spot, s.params.Offset, typ, spec.Moneyness, spec.Depth)
	if err != nil {
		return Leg{}, err
	}

	_, iv, err := s.market.Underlying.GetSpotAndIV(ctx, s.params.Ticker, strike, s.params.Expiry, typ)
	if err != nil {
		return Leg{}, err
	}

	opt := models.VanillaOption{Ticker: s.params.Ticker, Strike: strike, Expiry: s.params.Expiry, Type: typ}
	in := models.MarketInputs{Spot: spot, Volatility: iv, RiskFreeRate: s.params.Rate}
	priced, err := s.engine.Price(opt, in)
	if err != nil {
		return Leg{}, err
	}
	l.Option = &priced

	s.compare(ctx, &l)
	return l, nil
}

// compare attaches the observed market price when one exists. A missing or
// failing quote only marks the comparison unavailable.
func (s *Strategy) compare(ctx context.Context, l *Leg) {
	if s.market.Quotes == nil {
		l.MarketNote = "no quote provider"
		return
	}
	opt := l.Option.Option
	price, err := s.market.Quotes.GetMarketPrice(ctx, opt.Ticker, opt.Strike, opt.Expiry, opt.Type)
	if err != nil {
		l.MarketNote = err.Error()
		zap.L().Debug("market comparison unavailable", zap.Stringer("option", opt), zap.Error(err))
		return
	}
	l.MarketPrice = &price

	iv, err := pricing.ImpliedVolatility(price, opt, l.Option.Inputs)
	if err != nil {
		zap.L().Debug("quote has no implied volatility", zap.Stringer("option", opt), zap.Float64("price", price), zap.Error(err))
		return
	}
	l.MarketIV = &iv
}

func (s *Strategy) Name() string { return s.name }
func (s *Strategy) Params() Params { return s.params }

// Spot is the underlying price the legs were built at
func (s *Strategy) Spot() float64 { return s.spot }

// Legs returns a copy of the current legs
func (s *Strategy) Legs() []Leg {
	return append([]Leg(nil), s.legs...)
}

// Price is the signed closed-form cost of the strategy; negative is a net credit
func (s *Strategy) Price() float64 {
	var total float64
	for _, l := range s.legs {
		total += l.Price()
	}
	return total
}

// LatticePrice is Price valued on the binomial lattice
func (s *Strategy) LatticePrice() float64 {
	var total float64
	for _, l := range s.legs {
		total += l.LatticePrice()
	}
	return total
}

// Greeks sums the signed, unit-scaled leg Greeks
func (s *Strategy) Greeks() models.Greeks {
	var g models.Greeks
	for _, l := range s.legs {
		g = g.Add(l.Greeks(), 1)
	}
	return g
}

// MarketComparison is the strategy valued at observed quotes
type MarketComparison struct {
	Price     float64 `json:"price"`
	Available int     `json:"available"`
	Missing   []int   `json:"missing,omitempty"`
}

// Complete reports whether every leg had a quote
func (m MarketComparison) Complete() bool { return len(m.Missing) == 0 }

// MarketPrice sums observed leg prices. Stock legs count at spot. Price only
// covers the legs listed as available; Missing holds the indexes of the rest.
func (s *Strategy) MarketPrice() MarketComparison {
	var mc MarketComparison
	for i, l := range s.legs {
		switch {
		case l.Option == nil:
			mc.Price += l.Price()
		case l.MarketPrice != nil:
			mc.Price += l.Sign() * *l.MarketPrice
		default:
			mc.Missing = append(mc.Missing, i)
			continue
		}
		mc.Available++
	}
	return mc
}

// Volatility is the mean implied volatility of the option legs, used to size
// payoff ranges
func (s *Strategy) Volatility() float64 {
	var sum float64
	var n int
	for _, l := range s.legs {
		if l.Option != nil {
			sum += l.Option.Inputs.Volatility
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
