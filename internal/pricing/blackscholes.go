// Package pricing values vanilla and digital equity options.
//
// Closed-form prices follow Black-Scholes-Merton with a continuously
// compounded risk-free rate and no dividend yield. Greeks are analytic and
// reported per one unit of each parameter (see models.Greeks).
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jwaldner/optionlab/internal/models"
)

// Result is a closed-form valuation
type Result struct {
	Price  float64
	Greeks models.Greeks
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

func d1d2(spot, strike, rate, vol, t float64) (float64, float64) {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+0.5*vol*vol)*t) / (vol * sqrtT)
	return d1, d1 - vol*sqrtT
}

// BlackScholes prices a European option and its Greeks
func BlackScholes(opt models.VanillaOption, in models.MarketInputs) (Result, error) {
	if err := validate(opt.Strike, opt.Expiry, opt.Type, in); err != nil {
		return Result{}, err
	}
	if in.Volatility == 0 {
		return zeroVol(opt, in), nil
	}

	s, k, r, v, t := in.Spot, opt.Strike, in.RiskFreeRate, in.Volatility, opt.Expiry
	d1, d2 := d1d2(s, k, r, v, t)
	disc := math.Exp(-r * t)
	sqrtT := math.Sqrt(t)
	pdf := normPDF(d1)

	g := models.Greeks{
		Gamma: pdf / (s * v * sqrtT),
		Vega:  s * pdf * sqrtT,
	}
	var price float64
	if opt.Type == models.Call {
		price = s*normCDF(d1) - k*disc*normCDF(d2)
		g.Delta = normCDF(d1)
		g.Theta = -s*pdf*v/(2*sqrtT) - r*k*disc*normCDF(d2)
		g.Rho = k * t * disc * normCDF(d2)
	} else {
		price = k*disc*normCDF(-d2) - s*normCDF(-d1)
		g.Delta = normCDF(d1) - 1
		g.Theta = -s*pdf*v/(2*sqrtT) + r*k*disc*normCDF(-d2)
		g.Rho = -k * t * disc * normCDF(-d2)
	}
	return Result{Price: price, Greeks: g}, nil
}

// zeroVol is the sigma -> 0 limit: the payoff on the forward, discounted
func zeroVol(opt models.VanillaOption, in models.MarketInputs) Result {
	s, k, r, t := in.Spot, opt.Strike, in.RiskFreeRate, opt.Expiry
	pvStrike := k * math.Exp(-r*t)

	var res Result
	switch opt.Type {
	case models.Call:
		if s > pvStrike {
			res.Price = s - pvStrike
			res.Greeks = models.Greeks{Delta: 1, Theta: -r * pvStrike, Rho: t * pvStrike}
		}
	case models.Put:
		if pvStrike > s {
			res.Price = pvStrike - s
			res.Greeks = models.Greeks{Delta: -1, Theta: r * pvStrike, Rho: -t * pvStrike}
		}
	}
	return res
}

// PutCallParityGap returns (call - put) - (spot - strike*e^{-rT}); zero up to rounding
func PutCallParityGap(strike, expiry float64, in models.MarketInputs) (float64, error) {
	call, err := BlackScholes(models.VanillaOption{Strike: strike, Expiry: expiry, Type: models.Call}, in)
	if err != nil {
		return 0, err
	}
	put, err := BlackScholes(models.VanillaOption{Strike: strike, Expiry: expiry, Type: models.Put}, in)
	if err != nil {
		return 0, err
	}
	return (call.Price - put.Price) - (in.Spot - strike*math.Exp(-in.RiskFreeRate*expiry)), nil
}
