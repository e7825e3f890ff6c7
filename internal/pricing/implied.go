package pricing

import (
	"math"

	"github.com/pkg/errors"

	"github.com/jwaldner/optionlab/internal/models"
)

const (
	ivTolerance     = 1e-8
	ivMaxIterations = 100
	ivLow           = 1e-6
	ivHigh          = 5.0
)

// ImpliedVolatility backs out the volatility that reprices marketPrice.
// Newton-Raphson is tried first; bisection takes over when vega vanishes
// or an iterate leaves the bracket.
func ImpliedVolatility(marketPrice float64, opt models.VanillaOption, in models.MarketInputs) (float64, error) {
	in.Volatility = 0
	if err := validate(opt.Strike, opt.Expiry, opt.Type, in); err != nil {
		return 0, err
	}
	lower := zeroVol(opt, in).Price
	upper := in.Spot
	if opt.Type == models.Put {
		upper = opt.Strike * math.Exp(-in.RiskFreeRate*opt.Expiry)
	}
	if !finite(marketPrice) || marketPrice <= lower || marketPrice >= upper {
		return 0, models.NewInvalidInputError("market_price", marketPrice, "outside no-arbitrage bounds")
	}

	priceAt := func(vol float64) (Result, error) {
		in.Volatility = vol
		return BlackScholes(opt, in)
	}

	lo, hi := ivLow, ivHigh
	// initial guess from the Brenner-Subrahmanyam approximation, kept inside the bracket
	vol := math.Max(0.1, math.Min(2.0, marketPrice*math.Sqrt(2*math.Pi/opt.Expiry)/in.Spot))
	for i := 0; i < ivMaxIterations; i++ {
		res, err := priceAt(vol)
		if err != nil {
			return 0, err
		}
		diff := res.Price - marketPrice
		if math.Abs(diff) < ivTolerance {
			return vol, nil
		}
		if diff > 0 {
			hi = vol
		} else {
			lo = vol
		}
		next := vol - diff/res.Greeks.Vega
		if res.Greeks.Vega < 1e-10 || next <= lo || next >= hi || math.IsNaN(next) {
			next = (lo + hi) / 2
		}
		vol = next
	}
	return 0, errors.Errorf("implied volatility did not converge for %s at price %.4f", opt, marketPrice)
}
