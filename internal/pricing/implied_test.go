package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	for desc, tc := range map[string]struct {
		opt models.VanillaOption
		vol float64
	}{
		"atmCall":       {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, 0.2},
		"otmCall":       {models.VanillaOption{Strike: 130, Expiry: 0.5, Type: models.Call}, 0.35},
		"itmPut":        {models.VanillaOption{Strike: 120, Expiry: 2, Type: models.Put}, 0.6},
		"shortDatedPut": {models.VanillaOption{Strike: 95, Expiry: 0.05, Type: models.Put}, 0.15},
	} {
		t.Run(desc, func(t *testing.T) {
			in := models.MarketInputs{Spot: 100, Volatility: tc.vol, RiskFreeRate: 0.04}
			res, err := BlackScholes(tc.opt, in)
			require.NoError(t, err)

			iv, err := ImpliedVolatility(res.Price, tc.opt, models.MarketInputs{Spot: 100, RiskFreeRate: 0.04})
			require.NoError(t, err)
			assert.InDelta(t, tc.vol, iv, 1e-5)
		})
	}
}

func TestImpliedVolatilityOutOfBounds(t *testing.T) {
	opt := models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}
	in := models.MarketInputs{Spot: 100, RiskFreeRate: 0.05}

	_, err := ImpliedVolatility(150, opt, in)
	require.Error(t, err)
	assert.True(t, models.IsInvalidInput(err))

	_, err = ImpliedVolatility(1, opt, in)
	require.Error(t, err)
	assert.True(t, models.IsInvalidInput(err))
}
