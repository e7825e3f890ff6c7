package payoff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/optionlab/internal/models"
	"github.com/jwaldner/optionlab/internal/providers"
	"github.com/jwaldner/optionlab/internal/strategy"
)

type flatMarket struct{}

func (flatMarket) GetSpot(_ context.Context, _ string) (float64, error) { return 100, nil }

func (flatMarket) GetSpotAndIV(_ context.Context, _ string, _, _ float64, _ models.OptionType) (float64, float64, error) {
	return 100, 0.2, nil
}

// calls are quoted at 12 regardless of strike; puts never are
func (flatMarket) GetMarketPrice(_ context.Context, ticker string, strike, expiry float64, typ models.OptionType) (float64, error) {
	if typ == models.Put {
		return 0, &models.MissingMarketDataError{Ticker: ticker, Strike: strike, Expiry: expiry, Type: typ, What: "no quote"}
	}
	return 12, nil
}

func built(t *testing.T, name string) *strategy.Strategy {
	t.Helper()
	s, err := strategy.New(
		strategy.Params{Ticker: "TEST", Offset: 0.1, Expiry: 1, Rate: 0.05, Steps: 50},
		providers.MarketData{Underlying: flatMarket{}, Quotes: flatMarket{}},
	)
	require.NoError(t, err)
	require.NoError(t, s.Build(context.Background(), name))
	return s
}

var wide = Range{Low: 0, High: 200, Samples: 401}

func TestStraddleBreakEvensAreSymmetric(t *testing.T) {
	s := built(t, "long_straddle")
	curve, err := Analyze(s, wide)
	require.NoError(t, err)

	premium := s.Price()
	assert.InDelta(t, premium, curve.NetPremium, 1e-12)
	require.Len(t, curve.BreakEvens, 2)
	assert.InDelta(t, 100-premium, curve.BreakEvens[0], 1e-9)
	assert.InDelta(t, 100+premium, curve.BreakEvens[1], 1e-9)
	assert.InDelta(t, 100, (curve.BreakEvens[0]+curve.BreakEvens[1])/2, 1e-9)

	assert.InDelta(t, -premium, curve.MaxLoss, 1e-9)
	assert.True(t, curve.UnboundedUpside)
	assert.False(t, curve.UnboundedLoss)
}

func TestBullCallSpreadBounds(t *testing.T) {
	s := built(t, "bull_call_spread")
	curve, err := Analyze(s, wide)
	require.NoError(t, err)

	net := s.Price()
	require.Greater(t, net, 0.0)
	assert.InDelta(t, -net, curve.MaxLoss, 1e-9)
	assert.InDelta(t, 20-net, curve.MaxProfit, 1e-9)
	require.Len(t, curve.BreakEvens, 1)
	assert.InDelta(t, 90+net, curve.BreakEvens[0], 1e-9)
	assert.Equal(t, 0.0, curve.UpsideSlope)
	assert.False(t, curve.UnboundedUpside)
}

func TestSlopes(t *testing.T) {
	for desc, tc := range map[string]struct {
		name      string
		slope     float64
		unbounded bool
		loss      bool
	}{
		"coveredCall":    {"covered_call", 0, false, false},
		"longCall":       {"long_otm_call", 1, true, false},
		"shortStraddle":  {"short_straddle", -1, false, true},
		"collar":         {"protective_collar", 0, false, false},
		"marriedPut":     {"married_put", 1, true, false},
		"ironCondor":     {"iron_condor", 0, false, false},
		"shortButterfly": {"short_call_butterfly", 0, false, false},
	} {
		t.Run(desc, func(t *testing.T) {
			curve, err := Analyze(built(t, tc.name), wide)
			require.NoError(t, err)
			assert.Equal(t, tc.slope, curve.UpsideSlope)
			assert.Equal(t, tc.unbounded, curve.UnboundedUpside)
			assert.Equal(t, tc.loss, curve.UnboundedLoss)
		})
	}
}

func TestStockLegPayoff(t *testing.T) {
	curve, err := Analyze(built(t, "covered_call"), Range{Low: 50, High: 150, Samples: 3})
	require.NoError(t, err)
	call := built(t, "long_otm_call").Price()

	// at 50 the stock lost 50 and the short call kept its premium
	assert.InDelta(t, -50+call, curve.Samples[0].Payoff, 1e-9)
	// at 150 the call caps the gain at the strike
	assert.InDelta(t, 10+call, curve.Samples[2].Payoff, 1e-9)
}

func TestPremiumSources(t *testing.T) {
	s := built(t, "long_atm_call")

	lattice, err := Analyze(s, wide, WithPremium(Lattice))
	require.NoError(t, err)
	assert.InDelta(t, s.LatticePrice(), lattice.NetPremium, 1e-12)

	market, err := Analyze(s, wide, WithPremium(Market))
	require.NoError(t, err)
	assert.Equal(t, 12.0, market.NetPremium)
	require.Len(t, market.BreakEvens, 1)
	assert.InDelta(t, 112, market.BreakEvens[0], 1e-9)

	_, err = Analyze(built(t, "long_straddle"), wide, WithPremium(Market))
	require.Error(t, err)
	assert.True(t, models.IsMissingMarketData(err))

	_, err = Analyze(s, wide, WithPremium("mid"))
	assert.True(t, models.IsInvalidInput(err))
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	s := built(t, "long_atm_call")
	for desc, r := range map[string]Range{
		"oneSample":    {Low: 0, High: 10, Samples: 1},
		"inverted":     {Low: 10, High: 5, Samples: 10},
		"negativeLow":  {Low: -1, High: 5, Samples: 10},
		"zeroWidth":    {Low: 5, High: 5, Samples: 10},
	} {
		t.Run(desc, func(t *testing.T) {
			_, err := Analyze(s, r)
			assert.True(t, models.IsInvalidInput(err))
		})
	}

	empty, err := strategy.New(strategy.Params{Ticker: "TEST", Offset: 0.1, Expiry: 1}, providers.MarketData{Underlying: flatMarket{}})
	require.NoError(t, err)
	_, err = Analyze(empty, wide)
	assert.True(t, models.IsInvalidInput(err))
}

func TestSpotRange(t *testing.T) {
	r, err := SpotRange(100, 0.2, 1, 3, 61)
	require.NoError(t, err)
	assert.InDelta(t, 40, r.Low, 1e-9)
	assert.InDelta(t, 160, r.High, 1e-9)
	assert.Equal(t, 61, r.Samples)

	r, err = SpotRange(100, 0.5, 4, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Low)
	assert.InDelta(t, 300, r.High, 1e-9)

	_, err = SpotRange(100, 0, 1, 3, 61)
	assert.True(t, models.IsInvalidInput(err))
	_, err = SpotRange(100, 0.2, 1, 3, 1)
	assert.True(t, models.IsInvalidInput(err))
	_, err = SpotRange(-1, 0.2, 1, 3, 10)
	assert.True(t, models.IsInvalidInput(err))
}

func TestBreakEvens(t *testing.T) {
	assert.Equal(t, []float64{1}, BreakEvens([]Sample{{0, -1}, {1, 0}, {2, 1}}))
	assert.Equal(t, []float64{1.5}, BreakEvens([]Sample{{1, -2}, {2, 2}}))
	assert.Equal(t, []float64{0.5, 2.5}, BreakEvens([]Sample{{0, 1}, {1, -1}, {2, -1}, {3, 1}}))
	assert.Empty(t, BreakEvens([]Sample{{0, 1}, {1, 2}}))

	// touching zero is not a crossing
	assert.Empty(t, BreakEvens([]Sample{{0, 1}, {1, 0}, {2, 1}}))
	assert.Empty(t, BreakEvens([]Sample{{0, -1}, {1, 0}, {2, 0}, {3, -2}}))
	// a flat zero stretch between a loss and a gain is one break-even
	assert.Equal(t, []float64{2}, BreakEvens([]Sample{{0, -1}, {1, 0}, {2, 0}, {3, 0}, {4, 1}}))
	// zeros at the edge of the range show no sign change
	assert.Empty(t, BreakEvens([]Sample{{0, 0}, {1, 0}, {2, 1}}))
	assert.Empty(t, BreakEvens([]Sample{{0, 0}, {1, 0}}))
}
