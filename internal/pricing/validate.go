package pricing

import (
	"math"

	"github.com/jwaldner/optionlab/internal/models"
)

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func validate(strike, expiry float64, typ models.OptionType, in models.MarketInputs) error {
	switch {
	case !finite(in.Spot) || in.Spot <= 0:
		return models.NewInvalidInputError("spot", in.Spot, "must be positive")
	case !finite(strike) || strike <= 0:
		return models.NewInvalidInputError("strike", strike, "must be positive")
	case !finite(expiry) || expiry <= 0:
		return models.NewInvalidInputError("expiry", expiry, "must be positive")
	case !finite(in.Volatility) || in.Volatility < 0:
		return models.NewInvalidInputError("volatility", in.Volatility, "must be non-negative")
	case !finite(in.RiskFreeRate):
		return models.NewInvalidInputError("risk_free_rate", in.RiskFreeRate, "must be finite")
	}
	if typ != models.Call && typ != models.Put {
		return models.NewInvalidInputError("option_type", typ, "must be call or put")
	}
	return nil
}
