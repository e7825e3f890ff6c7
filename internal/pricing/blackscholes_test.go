package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
)

var reference = models.MarketInputs{Spot: 100, Volatility: 0.2, RiskFreeRate: 0.05}

func TestBlackScholesReferenceCall(t *testing.T) {
	res, err := BlackScholes(models.VanillaOption{Ticker: "TEST", Strike: 100, Expiry: 1, Type: models.Call}, reference)
	require.NoError(t, err)

	assert.InDelta(t, 10.4506, res.Price, 1e-3)
	assert.InDelta(t, 0.6368, res.Greeks.Delta, 1e-3)
	assert.InDelta(t, 0.018762, res.Greeks.Gamma, 1e-5)
	assert.InDelta(t, 37.524, res.Greeks.Vega, 1e-2)
	assert.InDelta(t, -6.414, res.Greeks.Theta, 1e-2)
	assert.InDelta(t, 53.232, res.Greeks.Rho, 1e-2)
}

func TestBlackScholesReferencePut(t *testing.T) {
	res, err := BlackScholes(models.VanillaOption{Ticker: "TEST", Strike: 100, Expiry: 1, Type: models.Put}, reference)
	require.NoError(t, err)

	assert.InDelta(t, 5.5735, res.Price, 1e-3)
	assert.InDelta(t, -0.3632, res.Greeks.Delta, 1e-3)
	assert.InDelta(t, -41.890, res.Greeks.Rho, 1e-2)
}

func TestPutCallParity(t *testing.T) {
	for _, spot := range []float64{50, 90, 100, 110, 250} {
		for _, strike := range []float64{60, 100, 140} {
			for _, vol := range []float64{0, 0.05, 0.3, 1.2} {
				for _, expiry := range []float64{1.0 / 52, 0.5, 5} {
					in := models.MarketInputs{Spot: spot, Volatility: vol, RiskFreeRate: 0.04}
					gap, err := PutCallParityGap(strike, expiry, in)
					require.NoError(t, err)
					assert.InDelta(t, 0, gap, 1e-8, "spot=%v strike=%v vol=%v T=%v", spot, strike, vol, expiry)
				}
			}
		}
	}
}

func TestDeltaBounds(t *testing.T) {
	for _, spot := range []float64{1, 80, 100, 120, 1000} {
		for _, vol := range []float64{0, 0.01, 0.25, 2} {
			for _, expiry := range []float64{0.01, 1, 10} {
				in := models.MarketInputs{Spot: spot, Volatility: vol, RiskFreeRate: 0.03}
				call, err := BlackScholes(models.VanillaOption{Strike: 100, Expiry: expiry, Type: models.Call}, in)
				require.NoError(t, err)
				put, err := BlackScholes(models.VanillaOption{Strike: 100, Expiry: expiry, Type: models.Put}, in)
				require.NoError(t, err)

				assert.GreaterOrEqual(t, call.Greeks.Delta, 0.0)
				assert.LessOrEqual(t, call.Greeks.Delta, 1.0)
				assert.GreaterOrEqual(t, put.Greeks.Delta, -1.0)
				assert.LessOrEqual(t, put.Greeks.Delta, 0.0)
			}
		}
	}
}

func TestBlackScholesZeroVolatility(t *testing.T) {
	in := models.MarketInputs{Spot: 100, Volatility: 0, RiskFreeRate: 0.05}

	call, err := BlackScholes(models.VanillaOption{Strike: 90, Expiry: 1, Type: models.Call}, in)
	require.NoError(t, err)
	assert.InDelta(t, 100-90*math.Exp(-0.05), call.Price, 1e-12)
	assert.Equal(t, 1.0, call.Greeks.Delta)
	assert.Equal(t, 0.0, call.Greeks.Gamma)

	put, err := BlackScholes(models.VanillaOption{Strike: 90, Expiry: 1, Type: models.Put}, in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, put.Price)
	assert.Equal(t, 0.0, put.Greeks.Delta)
}

func TestBlackScholesInvalidInputs(t *testing.T) {
	for desc, tc := range map[string]struct {
		opt models.VanillaOption
		in  models.MarketInputs
	}{
		"zeroSpot":     {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, models.MarketInputs{Spot: 0, Volatility: 0.2}},
		"negativeSpot": {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, models.MarketInputs{Spot: -5, Volatility: 0.2}},
		"zeroStrike":   {models.VanillaOption{Strike: 0, Expiry: 1, Type: models.Put}, reference},
		"zeroExpiry":   {models.VanillaOption{Strike: 100, Expiry: 0, Type: models.Put}, reference},
		"negativeVol":  {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, models.MarketInputs{Spot: 100, Volatility: -0.1}},
		"nanSpot":      {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, models.MarketInputs{Spot: math.NaN(), Volatility: 0.2}},
		"unknownType":  {models.VanillaOption{Strike: 100, Expiry: 1, Type: "straddle"}, reference},
		"infiniteRate": {models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, models.MarketInputs{Spot: 100, Volatility: 0.2, RiskFreeRate: math.Inf(1)}},
	} {
		t.Run(desc, func(t *testing.T) {
			_, err := BlackScholes(tc.opt, tc.in)
			require.Error(t, err)
			assert.True(t, models.IsInvalidInput(err), err.Error())
		})
	}
}

func TestGreekScaling(t *testing.T) {
	res, err := BlackScholes(models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call}, reference)
	require.NoError(t, err)

	assert.InDelta(t, res.Greeks.Vega/100, res.Greeks.PerVolPoint(), 1e-12)
	assert.InDelta(t, res.Greeks.Theta/365, res.Greeks.PerDay(), 1e-12)
	assert.InDelta(t, res.Greeks.Rho/100, res.Greeks.PerRatePoint(), 1e-12)

	// vega is the derivative per 1.00 of volatility
	bumped, err := BlackScholes(models.VanillaOption{Strike: 100, Expiry: 1, Type: models.Call},
		models.MarketInputs{Spot: 100, Volatility: 0.2001, RiskFreeRate: 0.05})
	require.NoError(t, err)
	assert.InDelta(t, res.Greeks.Vega, (bumped.Price-res.Price)/0.0001, 1e-2)
}
