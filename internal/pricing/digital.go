package pricing

import (
	"math"

	"github.com/jwaldner/optionlab/internal/models"
)

// Digital prices a cash-or-nothing option: the discounted risk-neutral
// probability of finishing in the money, times the payoff amount.
func Digital(opt models.DigitalOption, spot, vol float64) (float64, error) {
	in := models.MarketInputs{Spot: spot, Volatility: vol, RiskFreeRate: opt.RiskFreeRate}
	if err := validate(opt.Strike, opt.Expiry, opt.Type, in); err != nil {
		return 0, err
	}
	if !finite(opt.PayoffAmount) || opt.PayoffAmount <= 0 {
		return 0, models.NewInvalidInputError("payoff_amount", opt.PayoffAmount, "must be positive")
	}

	disc := math.Exp(-opt.RiskFreeRate * opt.Expiry)
	prob := itmProbability(opt, spot, vol)
	return opt.PayoffAmount * disc * prob, nil
}

func itmProbability(opt models.DigitalOption, spot, vol float64) float64 {
	if vol == 0 {
		forward := spot * math.Exp(opt.RiskFreeRate*opt.Expiry)
		var callProb float64
		switch {
		case forward > opt.Strike:
			callProb = 1
		case forward == opt.Strike:
			callProb = 0.5
		}
		if opt.Type == models.Call {
			return callProb
		}
		return 1 - callProb
	}
	_, d2 := d1d2(spot, opt.Strike, opt.RiskFreeRate, vol, opt.Expiry)
	if opt.Type == models.Call {
		return normCDF(d2)
	}
	return normCDF(-d2)
}
