// Package payoff evaluates a strategy's profit at expiry across a range of
// terminal underlying prices.
package payoff

import (
	"math"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/strategy"
)

// Range is an evenly sampled interval of terminal prices, endpoints included
type Range struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Samples int     `json:"samples"`
}

func (r Range) validate() error {
	if math.IsNaN(r.Low) || math.IsInf(r.Low, 0) || r.Low < 0 {
		return models.NewInvalidInputError("range.low", r.Low, "must be a finite price of at least 0")
	}
	if math.IsNaN(r.High) || math.IsInf(r.High, 0) || r.High <= r.Low {
		return models.NewInvalidInputError("range.high", r.High, "must be finite and above range.low")
	}
	if r.Samples < 2 {
		return models.NewInvalidInputError("range.samples", r.Samples, "must be at least 2")
	}
	return nil
}

// SpotRange centres a range on spot with a half-width of multiple standard
// deviations of the terminal price (spot*vol*sqrt(expiry)). The low end is
// floored at zero.
func SpotRange(spot, vol, expiry, multiple float64, samples int) (Range, error) {
	if math.IsNaN(spot) || math.IsInf(spot, 0) || spot <= 0 {
		return Range{}, models.NewInvalidInputError("spot", spot, "must be positive and finite")
	}
	if math.IsNaN(vol) || vol < 0 || math.IsNaN(expiry) || expiry <= 0 || math.IsNaN(multiple) || multiple <= 0 {
		return Range{}, models.NewInvalidInputError("spread", []float64{vol, expiry, multiple}, "volatility must be non-negative, expiry and multiple positive")
	}
	half := multiple * vol * math.Sqrt(expiry) * spot
	if half == 0 || math.IsInf(half, 0) {
		return Range{}, models.NewInvalidInputError("spread", half, "range has no width")
	}
	r := Range{Low: math.Max(0, spot-half), High: spot + half, Samples: samples}
	return r, r.validate()
}

// PremiumSource selects the per-unit entry price of each option leg
type PremiumSource string

const (
	ClosedForm PremiumSource = "closed_form"
	Lattice    PremiumSource = "lattice"
	Market     PremiumSource = "market"
)

// Sample is the net payoff at one terminal price
type Sample struct {
	Price  float64 `json:"price"`
	Payoff float64 `json:"payoff"`
}

// Curve is the expiry profile of a strategy. MaxProfit and MaxLoss are the
// largest and smallest sampled payoffs; MaxLoss is negative when the position
// can lose money.
type Curve struct {
	Strategy   string        `json:"strategy"`
	Premium    PremiumSource `json:"premium_source"`
	NetPremium float64       `json:"net_premium"`
	Samples    []Sample      `json:"samples"`
	BreakEvens []float64     `json:"break_evens"`
	MaxProfit  float64       `json:"max_profit"`
	MaxLoss    float64       `json:"max_loss"`

	// UpsideSlope is d(payoff)/d(price) beyond the highest strike
	UpsideSlope     float64 `json:"upside_slope"`
	UnboundedUpside bool    `json:"unbounded_upside"`
	UnboundedLoss   bool    `json:"unbounded_loss"`
}

type options struct {
	premium PremiumSource
}

// Option tunes Analyze
type Option func(*options)

// WithPremium picks the entry price used for option legs. The default is
// the closed-form price.
func WithPremium(src PremiumSource) Option {
	return func(o *options) { o.premium = src }
}

// premium is the unsigned per-unit entry price of l
func premium(l strategy.Leg, src PremiumSource) (float64, error) {
	if l.Option == nil {
		return l.Spot, nil
	}
	switch src {
	case ClosedForm, "":
		return l.Option.Price, nil
	case Lattice:
		return l.Option.LatticePrice, nil
	case Market:
		if l.MarketPrice == nil {
			opt := l.Option.Option
			return 0, &models.MissingMarketDataError{Ticker: opt.Ticker, Strike: opt.Strike, Expiry: opt.Expiry, Type: opt.Type, What: "no market quote for leg premium"}
		}
		return *l.MarketPrice, nil
	}
	return 0, models.NewInvalidInputError("premium_source", src, "must be closed_form, lattice or market")
}

// Analyze samples the net expiry payoff of s over r. Each leg contributes
// sign*units*(intrinsic - premium); a stock leg contributes sign*units*(S_T - S_0).
func Analyze(s *strategy.Strategy, r Range, opts ...Option) (*Curve, error) {
	o := options{premium: ClosedForm}
	for _, opt := range opts {
		opt(&o)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	legs := s.Legs()
	if len(legs) == 0 {
		return nil, models.NewInvalidInputError("strategy", s.Name(), "has no legs; build it first")
	}

	premiums := make([]float64, len(legs))
	curve := &Curve{Strategy: s.Name(), Premium: o.premium}
	for i, l := range legs {
		p, err := premium(l, o.premium)
		if err != nil {
			return nil, err
		}
		premiums[i] = p
		curve.NetPremium += l.Sign() * p

		switch l.Instrument {
		case strategy.Call, strategy.Stock:
			curve.UpsideSlope += l.Sign()
		}
	}

	step := (r.High - r.Low) / float64(r.Samples-1)
	curve.Samples = make([]Sample, r.Samples)
	for i := range curve.Samples {
		price := r.Low + float64(i)*step
		if i == r.Samples-1 {
			price = r.High
		}
		var total float64
		for j, l := range legs {
			total += l.PayoffAt(price, premiums[j])
		}
		curve.Samples[i] = Sample{Price: price, Payoff: total}
	}

	curve.BreakEvens = BreakEvens(curve.Samples)
	curve.MaxProfit, curve.MaxLoss = extremes(curve.Samples)
	curve.UnboundedUpside = curve.UpsideSlope > 0
	curve.UnboundedLoss = curve.UpsideSlope < 0
	return curve, nil
}

// BreakEvens returns the prices where the sampled payoff crosses zero, in
// ascending order. Crossings between samples are linearly interpolated. A run
// of exact zeros counts once, at its midpoint, and only when the payoff has
// opposite signs on either side of it.
func BreakEvens(samples []Sample) []float64 {
	out := []float64{}
	for i := 0; i < len(samples); i++ {
		s := samples[i]
		if s.Payoff == 0 {
			j := i
			for j+1 < len(samples) && samples[j+1].Payoff == 0 {
				j++
			}
			if i > 0 && j+1 < len(samples) && (samples[i-1].Payoff > 0) != (samples[j+1].Payoff > 0) {
				out = append(out, (s.Price+samples[j].Price)/2)
			}
			i = j
			continue
		}
		if i == 0 {
			continue
		}
		prev := samples[i-1]
		if prev.Payoff == 0 || (prev.Payoff > 0) == (s.Payoff > 0) {
			continue
		}
		t := prev.Payoff / (prev.Payoff - s.Payoff)
		out = append(out, prev.Price+t*(s.Price-prev.Price))
	}
	return out
}

func extremes(samples []Sample) (float64, float64) {
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, s := range samples {
		hi = math.Max(hi, s.Payoff)
		lo = math.Min(lo, s.Payoff)
	}
	return hi, lo
}
